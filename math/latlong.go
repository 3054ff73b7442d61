// math/latlong.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const FeetToNauticalMiles = 1 / 6076.12

var ErrInvalidLatLong = errors.New("invalid latitude/longitude")

// Point2LL is a position on the Earth; element 0 is the longitude and
// element 1 the latitude, both in degrees.
type Point2LL [2]float32

func (p Point2LL) Longitude() float32 { return p[0] }
func (p Point2LL) Latitude() float32  { return p[1] }

func (p Point2LL) IsZero() bool {
	return p == Point2LL{}
}

// DDString formats the position as "(lat, long)" in decimal degrees.
func (p Point2LL) DDString() string {
	return fmt.Sprintf("(%f, %f)", p[1], p[0])
}

// ParseLatLong accepts either hemisphere-prefixed degrees, minutes,
// seconds and thousandths, "N40.37.58.400,W073.46.17.000", or signed
// decimal degrees with the latitude first, "40.6329,-73.7714".
func ParseLatLong(b []byte) (Point2LL, error) {
	lat, long, ok := strings.Cut(string(b), ",")
	if !ok {
		return Point2LL{}, fmt.Errorf("%s: %w", b, ErrInvalidLatLong)
	}
	lat, long = strings.TrimSpace(lat), strings.TrimSpace(long)

	var p Point2LL
	var err error
	if lat != "" && (lat[0] == 'N' || lat[0] == 'S') {
		if p[1], err = parseDMS(lat, 'N', 'S'); err == nil {
			p[0], err = parseDMS(long, 'E', 'W')
		}
	} else {
		if p[1], err = parseDegrees(lat); err == nil {
			p[0], err = parseDegrees(long)
		}
	}
	if err != nil {
		return Point2LL{}, fmt.Errorf("%s: %w", b, err)
	}

	if Abs(p[1]) > 90 || Abs(p[0]) > 180 {
		return Point2LL{}, fmt.Errorf("%s: out of range: %w", b, ErrInvalidLatLong)
	}
	return p, nil
}

func parseDegrees(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", s, ErrInvalidLatLong)
	}
	return float32(v), nil
}

// parseDMS handles "N40.37.58.400"; a short final group is read as a
// fraction of a second, so ".4" is 400 thousandths.
func parseDMS(s string, pos, neg byte) (float32, error) {
	if s == "" || (s[0] != pos && s[0] != neg) {
		return 0, fmt.Errorf("%s: expected %c or %c: %w", s, pos, neg, ErrInvalidLatLong)
	}

	fields := strings.Split(s[1:], ".")
	if len(fields) != 4 {
		return 0, fmt.Errorf("%s: expected four fields: %w", s, ErrInvalidLatLong)
	}

	var v float64
	for i, f := range fields {
		if f == "" || strings.TrimLeft(f, "0123456789") != "" {
			return 0, fmt.Errorf("%s: %w", s, ErrInvalidLatLong)
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", s, ErrInvalidLatLong)
		}
		switch i {
		case 0:
			v += float64(n)
		case 1:
			v += float64(n) / 60
		case 2:
			v += float64(n) / 3600
		case 3:
			frac, _ := strconv.ParseFloat("0."+f, 64)
			v += frac / 3600
		}
	}

	if s[0] == neg {
		v = -v
	}
	return float32(v), nil
}
