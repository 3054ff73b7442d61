// flightplan/geodesy.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/math"
)

// Geodesy supplies the great-circle and magnetic computations a flight
// plan needs. Headings are degrees true, distances nautical miles, and
// variation is east-positive so that magnetic = true - variation.
type Geodesy interface {
	Heading(a, b math.Point2LL) float32
	Distance(a, b math.Point2LL) float32
	MagneticVariation(p math.Point2LL) float32
}

// EarthGeodesy implements Geodesy on a spherical earth. A nil Magnetic
// model gives zero variation everywhere.
type EarthGeodesy struct {
	Magnetic av.MagneticModel
}

func (EarthGeodesy) Heading(a, b math.Point2LL) float32 {
	return math.GreatCircleHeading(a, b)
}

func (EarthGeodesy) Distance(a, b math.Point2LL) float32 {
	return math.NMDistance2LL(a, b)
}

func (g EarthGeodesy) MagneticVariation(p math.Point2LL) float32 {
	if g.Magnetic == nil {
		return 0
	}
	return g.Magnetic.Variation(p)
}

func magneticToTrue(g Geodesy, hdg float32, p math.Point2LL) float32 {
	return math.MagneticToTrue(hdg, g.MagneticVariation(p))
}

func trueToMagnetic(g Geodesy, hdg float32, p math.Point2LL) float32 {
	return math.TrueToMagnetic(hdg, g.MagneticVariation(p))
}
