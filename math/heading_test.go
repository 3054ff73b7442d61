// math/heading_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"testing"
)

func TestHeadings(t *testing.T) {
	for _, tc := range []struct {
		h, normalized, opposite float32
	}{
		{90, 90, 270},
		{1, 1, 181},
		{350, 350, 170},
		{360, 0, 180},
		{-10, 350, 170},
		{380, 20, 200},
		{-380, 340, 160},
		{-360, 0, 180},
		{0, 0, 180},
	} {
		if n := NormalizeHeading(tc.h); n != tc.normalized {
			t.Errorf("NormalizeHeading(%v): got %v, expected %v", tc.h, n, tc.normalized)
		}
		if o := OppositeHeading(tc.h); o != tc.opposite {
			t.Errorf("OppositeHeading(%v): got %v, expected %v", tc.h, o, tc.opposite)
		}
	}
}

func TestHeadingDifference(t *testing.T) {
	for _, tc := range [][3]float32{
		// a, b, difference
		{10, 90, 80},
		{350, 12, 22},
		{340, 120, 140},
		{-90, 80, 170},
		{40, 181, 141},
		{-170, 160, 30},
		{-120, -150, 30},
		{0, 180, 180},
		{270, 270, 0},
	} {
		if d := HeadingDifference(tc[0], tc[1]); d != tc[2] {
			t.Errorf("HeadingDifference(%v, %v): got %v, expected %v", tc[0], tc[1], d, tc[2])
		}
		if d := HeadingDifference(tc[1], tc[0]); d != tc[2] {
			t.Errorf("HeadingDifference(%v, %v): got %v, expected %v", tc[1], tc[0], d, tc[2])
		}
	}
}

func TestMagneticConversion(t *testing.T) {
	for _, tc := range [][3]float32{
		// true, variation, magnetic
		{100, 10, 90},
		{5, 10, 355},
		{355, -13, 8},
	} {
		if m := TrueToMagnetic(tc[0], tc[1]); Abs(m-tc[2]) > 1e-3 {
			t.Errorf("TrueToMagnetic(%v, %v): got %v, expected %v", tc[0], tc[1], m, tc[2])
		}
		if tr := MagneticToTrue(tc[2], tc[1]); Abs(tr-tc[0]) > 1e-3 {
			t.Errorf("MagneticToTrue(%v, %v): got %v, expected %v", tc[2], tc[1], tr, tc[0])
		}
	}
}
