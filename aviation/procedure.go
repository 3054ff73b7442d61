// aviation/procedure.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"
	"strings"

	"github.com/mmp/fmc/math"
)

// PathTerminator is the ARINC-424 leg type (5.21).
type PathTerminator uint8

const (
	PathTerminatorUnknown PathTerminator = iota
	PathTerminatorIF
	PathTerminatorTF
	PathTerminatorCF
	PathTerminatorDF
	PathTerminatorCA
	PathTerminatorVA
	PathTerminatorFA
	PathTerminatorFC
	PathTerminatorFD
	PathTerminatorFM
	PathTerminatorVM
	PathTerminatorCD
	PathTerminatorVD
	PathTerminatorCI
	PathTerminatorVI
	PathTerminatorCR
	PathTerminatorVR
	PathTerminatorAF
	PathTerminatorRF
	PathTerminatorHA
	PathTerminatorHF
	PathTerminatorHM
	PathTerminatorPI
)

var pathTerminatorNames = [...]string{"??", "IF", "TF", "CF", "DF", "CA", "VA", "FA", "FC", "FD", "FM", "VM",
	"CD", "VD", "CI", "VI", "CR", "VR", "AF", "RF", "HA", "HF", "HM", "PI"}

func (pt PathTerminator) String() string {
	if int(pt) < len(pathTerminatorNames) {
		return pathTerminatorNames[pt]
	}
	return "??"
}

func ParsePathTerminator(s string) (PathTerminator, error) {
	for i, n := range pathTerminatorNames[1:] {
		if n == s {
			return PathTerminator(i + 1), nil
		}
	}
	return PathTerminatorUnknown, fmt.Errorf("%q: %w", s, ErrUnknownPathTerminator)
}

// TerminatesAtFix returns true if legs of this type end at a database
// fix, as opposed to at a point that must be constructed.
func (pt PathTerminator) TerminatesAtFix() bool {
	switch pt {
	case PathTerminatorIF, PathTerminatorTF, PathTerminatorCF, PathTerminatorDF,
		PathTerminatorAF, PathTerminatorRF, PathTerminatorHA, PathTerminatorHF,
		PathTerminatorHM, PathTerminatorPI:
		return true
	default:
		return false
	}
}

// IsHeading returns true for the V* legs, which are flown as headings
// rather than tracks.
func (pt PathTerminator) IsHeading() bool {
	switch pt {
	case PathTerminatorVA, PathTerminatorVM, PathTerminatorVD, PathTerminatorVI, PathTerminatorVR:
		return true
	default:
		return false
	}
}

type TurnDirection int8

const (
	TurnClosest TurnDirection = iota
	TurnLeft
	TurnRight
)

func (t TurnDirection) String() string {
	return [...]string{"closest", "left", "right"}[t]
}

// Leg is a single step of a procedure as it is stored in the navigation
// database. Courses and theta are magnetic; distances are in nm unless
// DistanceIsTime is set, in which case Distance is in minutes.
type Leg struct {
	Type           PathTerminator
	Fix            string
	FixICAO        string
	FixKind        InfoKind
	FixLocation    math.Point2LL
	Course         float32
	Distance       float32
	DistanceIsTime bool
	Constraint     AltitudeConstraint
	Navaid         string
	NavaidLocation math.Point2LL
	Theta          float32 // magnetic bearing from Navaid
	Rho            float32 // distance from Navaid
	Turn           TurnDirection
	FlyOver        bool
}

func (l Leg) HasFix() bool {
	return l.Fix != "" && !l.FixLocation.IsZero()
}

func (l Leg) HasNavaid() bool {
	return l.Navaid != "" && !l.NavaidLocation.IsZero()
}

func (l Leg) String() string {
	var b strings.Builder
	b.WriteString(l.Type.String())
	if l.Fix != "" {
		b.WriteString(" " + l.Fix)
	}
	if l.Type.IsHeading() || !l.Type.TerminatesAtFix() {
		fmt.Fprintf(&b, " crs %03.0f", l.Course)
	}
	if l.Constraint.Valid() {
		b.WriteString(" " + l.Constraint.Encoded())
	}
	return b.String()
}

type Transition struct {
	Name string
	Legs []Leg
}

type RunwayTransition struct {
	Runway string
	Legs   []Leg
}

type Departure struct {
	Name               string
	RunwayTransitions  []RunwayTransition
	CommonLegs         []Leg
	EnrouteTransitions []Transition
}

type Arrival struct {
	Name               string
	EnrouteTransitions []Transition
	CommonLegs         []Leg
	RunwayTransitions  []RunwayTransition
}

type Approach struct {
	Name        string
	Runway      string
	Transitions []Transition
	FinalLegs   []Leg
	MissedLegs  []Leg
}

// RunwayTransitionIndex returns the index of the transition serving the
// given runway, or -1.
func RunwayTransitionIndex(rts []RunwayTransition, rwy string) int {
	want := normalizeRunway(rwy)
	for i, rt := range rts {
		if normalizeRunway(rt.Runway) == want {
			return i
		}
	}
	return -1
}

// TransitionIndex returns the index of the named transition, or -1.
func TransitionIndex(ts []Transition, name string) int {
	for i, t := range ts {
		if t.Name == name {
			return i
		}
	}
	return -1
}
