// aviation/runway.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmp/fmc/math"
)

type Runway struct {
	Id                         string
	Heading                    float32 // magnetic
	Threshold                  math.Point2LL
	ThresholdCrossingHeight    int // delta from elevation
	Elevation                  int
	Length                     int     // feet
	DisplacedThresholdDistance float32 // in nm
}

// normalizeRunway strips an "RW" or "RWY" prefix and a leading zero:
// "RW04L" -> "4L".
func normalizeRunway(rwy string) string {
	rwy = strings.ToUpper(strings.TrimSpace(rwy))
	if r, ok := strings.CutPrefix(rwy, "RWY"); ok {
		rwy = r
	} else if r, ok := strings.CutPrefix(rwy, "RW"); ok {
		rwy = r
	}
	rwy = strings.TrimSpace(rwy)
	if len(rwy) > 1 && rwy[0] == '0' {
		rwy = rwy[1:]
	}
	return rwy
}

// splitRunway returns the numeric part and the designator suffix.
func splitRunway(rwy string) (num, ext string) {
	i := len(rwy)
	for i > 0 && (rwy[i-1] < '0' || rwy[i-1] > '9') {
		i--
	}
	return rwy[:i], rwy[i:]
}

// GetRunway finds the named runway in runways. Names may carry an "RW" or
// "RWY" prefix and a leading zero. A bare number or a number with a "C"
// designator matches either the center runway or a runway with no
// designator; anything else must match exactly.
func GetRunway(runways []Runway, name string) (*Runway, bool) {
	want := normalizeRunway(name)
	if want == "" {
		return nil, false
	}

	for i := range runways {
		if normalizeRunway(runways[i].Id) == want {
			return &runways[i], true
		}
	}

	if num, ext := splitRunway(want); ext == "" || ext == "C" {
		for i := range runways {
			if rnum, rext := splitRunway(normalizeRunway(runways[i].Id)); rnum == num && (rext == "" || rext == "C") {
				return &runways[i], true
			}
		}
	}
	return nil, false
}

// OppositeRunwayId returns the runway ID for the opposite end of the given runway.
// E.g., "13L" -> "31R", "22R" -> "4L", "9" -> "27".
func OppositeRunwayId(rwy string) string {
	num, ext := splitRunway(normalizeRunway(rwy))
	switch ext {
	case "R":
		ext = "L"
	case "L":
		ext = "R"
	case "", "C", "W":
	default:
		return ""
	}

	v, err := strconv.Atoi(num)
	if err != nil {
		return ""
	}

	// (v+18)%36 would give 0 for runway 36, so handle 18 specially.
	if v == 18 {
		return "36" + ext
	}
	return fmt.Sprintf("%d", (v+18)%36) + ext
}

// Ident returns the conventional waypoint identifier for the runway
// threshold, e.g. "RW04L".
func (r Runway) Ident() string {
	num, ext := splitRunway(normalizeRunway(r.Id))
	if len(num) == 1 {
		num = "0" + num
	}
	return "RW" + num + ext
}
