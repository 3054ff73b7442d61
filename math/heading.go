// math/heading.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

// NormalizeHeading reduces it to [0,360).
func NormalizeHeading(h float32) float32 {
	h = Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 { // float32 round-off for tiny negative inputs
		h = 0
	}
	return h
}

func OppositeHeading(h float32) float32 {
	return NormalizeHeading(h + 180)
}

// HeadingDifference is the smaller angle between a and b, in [0,180].
func HeadingDifference(a, b float32) float32 {
	d := Mod(Abs(a-b), 360)
	return min(d, 360-d)
}

// TrueToMagnetic converts a true heading to magnetic given the magnetic
// variation (east positive) at the point of interest.
func TrueToMagnetic(h, variation float32) float32 {
	return NormalizeHeading(h - variation)
}

// MagneticToTrue is the inverse of TrueToMagnetic.
func MagneticToTrue(h, variation float32) float32 {
	return NormalizeHeading(h + variation)
}
