// math/geodesy.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"
)

// EarthRadiusNM is the mean radius of the Earth in nautical miles.
const EarthRadiusNM = 6371000 * 0.000539957

func rad(d float32) float64 { return float64(d) / 180 * gomath.Pi }
func deg(r float64) float32 { return float32(r * 180 / gomath.Pi) }

// NMDistance2LL returns the great-circle distance in nautical miles
// between two provided lat-long coordinates.
func NMDistance2LL(a Point2LL, b Point2LL) float32 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	lat1, lon1 := rad(a[1]), rad(a[0])
	lat2, lon2 := rad(b[1]), rad(b[0])
	dlat, dlon := lat2-lat1, lon2-lon1

	x := Sqr(gomath.Sin(dlat/2)) + gomath.Cos(lat1)*gomath.Cos(lat2)*Sqr(gomath.Sin(dlon/2))
	c := 2 * gomath.Atan2(gomath.Sqrt(x), gomath.Sqrt(1-x))

	return float32(EarthRadiusNM * c)
}

// GreatCircleHeading returns the initial true bearing in degrees of the
// great circle path from a to b. Coincident points give 0.
func GreatCircleHeading(a Point2LL, b Point2LL) float32 {
	lat1, lon1 := rad(a[1]), rad(a[0])
	lat2, lon2 := rad(b[1]), rad(b[0])
	dlon := lon2 - lon1

	y := gomath.Sin(dlon) * gomath.Cos(lat2)
	x := gomath.Cos(lat1)*gomath.Sin(lat2) - gomath.Sin(lat1)*gomath.Cos(lat2)*gomath.Cos(dlon)
	if x == 0 && y == 0 {
		return 0
	}
	return NormalizeHeading(deg(gomath.Atan2(y, x)))
}

// GreatCircleOffset returns the point at distance dist (nm) along the
// great circle starting at p with the given initial true bearing.
func GreatCircleOffset(p Point2LL, bearing float32, dist float32) Point2LL {
	lat1, lon1 := rad(p[1]), rad(p[0])
	theta := rad(bearing)
	delta := float64(dist) / EarthRadiusNM

	lat2 := gomath.Asin(gomath.Sin(lat1)*gomath.Cos(delta) + gomath.Cos(lat1)*gomath.Sin(delta)*gomath.Cos(theta))
	lon2 := lon1 + gomath.Atan2(gomath.Sin(theta)*gomath.Sin(delta)*gomath.Cos(lat1),
		gomath.Cos(delta)-gomath.Sin(lat1)*gomath.Sin(lat2))

	// Normalize longitude to [-180,180)
	lon := gomath.Mod(deg64(lon2)+540, 360) - 180
	return Point2LL{float32(lon), deg(lat2)}
}

func deg64(r float64) float64 { return r * 180 / gomath.Pi }

// CourseIntersection returns the point where the great circle leaving p1
// on bearing brg1 meets the one leaving p2 on bearing brg2 (both true).
// It returns false if the courses are parallel, the intersection is
// ambiguous, or it lies behind p1.
func CourseIntersection(p1 Point2LL, brg1 float32, p2 Point2LL, brg2 float32) (Point2LL, bool) {
	// https://www.movable-type.co.uk/scripts/latlong.html, "Intersection
	// of two paths given start points and bearings".
	lat1, lon1 := rad(p1[1]), rad(p1[0])
	lat2, lon2 := rad(p2[1]), rad(p2[0])
	theta13, theta23 := rad(brg1), rad(brg2)
	dlat, dlon := lat2-lat1, lon2-lon1

	d12 := 2 * gomath.Asin(gomath.Sqrt(Sqr(gomath.Sin(dlat/2))+
		gomath.Cos(lat1)*gomath.Cos(lat2)*Sqr(gomath.Sin(dlon/2))))
	if gomath.Abs(d12) < 1e-9 {
		return p1, true
	}

	cosThetaA := (gomath.Sin(lat2) - gomath.Sin(lat1)*gomath.Cos(d12)) / (gomath.Sin(d12) * gomath.Cos(lat1))
	cosThetaB := (gomath.Sin(lat1) - gomath.Sin(lat2)*gomath.Cos(d12)) / (gomath.Sin(d12) * gomath.Cos(lat2))
	thetaA := gomath.Acos(max(-1, min(1, cosThetaA)))
	thetaB := gomath.Acos(max(-1, min(1, cosThetaB)))

	var theta12, theta21 float64
	if gomath.Sin(dlon) > 0 {
		theta12, theta21 = thetaA, 2*gomath.Pi-thetaB
	} else {
		theta12, theta21 = 2*gomath.Pi-thetaA, thetaB
	}

	alpha1 := theta13 - theta12
	alpha2 := theta21 - theta23
	sa1, sa2 := gomath.Sin(alpha1), gomath.Sin(alpha2)
	if sa1 == 0 && sa2 == 0 {
		return Point2LL{}, false // infinite intersections
	}
	if sa1*sa2 < 0 {
		return Point2LL{}, false // ambiguous
	}

	cosAlpha3 := -gomath.Cos(alpha1)*gomath.Cos(alpha2) + sa1*sa2*gomath.Cos(d12)
	d13 := gomath.Atan2(gomath.Sin(d12)*sa1*sa2, gomath.Cos(alpha2)+gomath.Cos(alpha1)*cosAlpha3)
	if d13 < 0 {
		return Point2LL{}, false
	}

	lat3 := gomath.Asin(gomath.Sin(lat1)*gomath.Cos(d13) + gomath.Cos(lat1)*gomath.Sin(d13)*gomath.Cos(theta13))
	dlon13 := gomath.Atan2(gomath.Sin(theta13)*gomath.Sin(d13)*gomath.Cos(lat1),
		gomath.Cos(d13)-gomath.Sin(lat1)*gomath.Sin(lat3))
	lon3 := gomath.Mod(deg64(lon1+dlon13)+540, 360) - 180

	return Point2LL{float32(lon3), deg(lat3)}, true
}
