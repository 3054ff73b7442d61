// aviation/arinc424.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"bufio"
	"bytes"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/mmp/fmc/math"
	"github.com/mmp/fmc/util"
)

const ARINC424LineLength = 132

type Fix struct {
	Id       string
	Region   string
	Location math.Point2LL
}

type Navaid struct {
	Id        string
	Type      string // VOR, NDB, DME
	Name      string
	Frequency float32
	Location  math.Point2LL
}

type Airport struct {
	ICAO     string
	Location math.Point2LL
	Info     *AirportInfo
}

type ARINC424Result struct {
	Airports      map[string]*Airport
	Navaids       map[string]Navaid
	Fixes         map[string]Fix
	TerminalFixes map[string]map[string]Fix // airport -> fix id -> fix
}

func empty(s []byte) bool {
	return len(bytes.TrimLeft(s, " ")) == 0
}

// cifpParser holds the state shared by the field parsers; malformed
// fields are reported to e and parse as zero.
type cifpParser struct {
	e *util.ErrorLogger
}

func (p *cifpParser) int(s []byte) int {
	v, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		p.e.ErrorString("%q: invalid number", string(s))
		return 0
	}
	return v
}

func (p *cifpParser) altitude(s []byte) float32 {
	if len(s) > 2 && string(s[:2]) == "FL" {
		return float32(100 * p.int(s[2:]))
	}
	return float32(p.int(s))
}

func (p *cifpParser) llDigits(d, m, s []byte) float32 {
	return float32(p.int(d)) + float32(p.int(m))/60 + float32(p.int(s))/100/3600
}

func (p *cifpParser) latLong(lat, long []byte) math.Point2LL {
	if empty(lat) || empty(long) {
		return math.Point2LL{}
	}

	var pt math.Point2LL
	pt[1] = p.llDigits(lat[1:3], lat[3:5], lat[5:])
	pt[0] = p.llDigits(long[1:4], long[4:6], long[6:])

	if lat[0] == 'S' {
		pt[1] = -pt[1]
	}
	if long[0] == 'W' {
		pt[0] = -pt[0]
	}
	return pt
}

// ParseARINC424 parses the airports, navaids, fixes, runways, and
// procedures in an ARINC-424 (CIFP) file. Procedure legs are returned
// with their fixes unresolved; Database.resolve fills in locations once
// all files have been read.
func ParseARINC424(r io.Reader, e *util.ErrorLogger) ARINC424Result {
	result := ARINC424Result{
		Airports:      make(map[string]*Airport),
		Navaids:       make(map[string]Navaid),
		Fixes:         make(map[string]Fix),
		TerminalFixes: make(map[string]map[string]Fix),
	}
	p := &cifpParser{e: e}

	airport := func(icao string) *Airport {
		ap, ok := result.Airports[icao]
		if !ok {
			ap = &Airport{ICAO: icao, Info: &AirportInfo{}}
			result.Airports[icao] = ap
		}
		return ap
	}

	br := bufio.NewReader(r)
	var lines [][]byte
	lineno := 0

	getline := func() []byte {
		if n := len(lines); n > 0 {
			l := lines[n-1]
			lines = lines[:n-1]
			return l
		}

		for {
			b, err := br.ReadBytes('\n')
			if len(b) == 0 && err != nil {
				return nil
			}
			lineno++
			b = bytes.TrimRight(b, "\r\n")
			if len(b) < ARINC424LineLength {
				if len(b) > 0 {
					e.ErrorString("line %d: unexpected line length %d", lineno, len(b))
				}
				continue
			}
			return b
		}
	}
	ungetline := func(line []byte) {
		lines = append(lines, line)
	}

	// Returns the ssaRecords for all lines starting at the given one that
	// are airport records with the same subsection and procedure id.
	matchingSSARecs := func(line []byte) []ssaRecord {
		id := strings.TrimSpace(string(line[13:19]))
		subsec := line[12]

		var recs []ssaRecord
		for {
			recs = append(recs, parseSSA(line))
			line = getline()
			if line == nil {
				break
			}
			lineid := strings.TrimSpace(string(line[13:19]))
			if lineid != id || line[0] != 'S' || line[4] != 'P' /* section: airport */ || line[12] != subsec {
				ungetline(line)
				break
			}
		}
		return recs
	}

	for {
		line := getline()
		if line == nil {
			break
		}

		if line[0] != 'S' { // not a standard record
			continue
		}

		switch line[4] { // section code
		case 'D':
			subsectionCode := line[5]
			if subsectionCode == ' ' /* VOR */ || subsectionCode == 'B' /* NDB */ {
				id := strings.TrimSpace(string(line[13:17]))
				if len(id) < 2 {
					break
				}

				nav := Navaid{
					Id:   id,
					Name: strings.TrimSpace(string(line[93:123])),
				}
				if !empty(line[22:27]) {
					freq := float32(p.int(line[22:27]))
					nav.Frequency = util.Select(subsectionCode == ' ', freq/100, freq/10)
				}
				if !empty(line[32:51]) {
					nav.Type = util.Select(subsectionCode == ' ', "VOR", "NDB")
					nav.Location = p.latLong(line[32:41], line[41:51])
				} else {
					nav.Type = "DME"
					nav.Location = p.latLong(line[55:64], line[64:74])
				}
				result.Navaids[id] = nav
			}

		case 'E':
			if line[5] == 'A' { // enroute waypoint
				id := strings.TrimSpace(string(line[13:18]))
				result.Fixes[id] = Fix{
					Id:       id,
					Region:   string(line[19:21]),
					Location: p.latLong(line[32:41], line[41:51]),
				}
			}

		case 'P': // Airports
			icao := strings.TrimSpace(string(line[6:10]))
			subsection := line[12]
			switch subsection {
			case 'A': // primary airport records 4.1.7
				ap := airport(icao)
				ap.Location = p.latLong(line[32:41], line[41:51])
				ap.Info.Elevation = float32(p.int(line[56:61]))
				ap.Info.Name = strings.TrimSpace(string(line[93:123]))

			case 'C', 'N': // terminal waypoint 4.1.4, terminal NDB 4.1.3
				id := strings.TrimSpace(string(line[13:18]))
				if result.TerminalFixes[icao] == nil {
					result.TerminalFixes[icao] = make(map[string]Fix)
				}
				result.TerminalFixes[icao][id] = Fix{
					Id:       id,
					Region:   string(line[19:21]),
					Location: p.latLong(line[32:41], line[41:51]),
				}

			case 'D': // SID 4.1.9
				recs := matchingSSARecs(line)
				e.Push(icao + "/" + recs[0].id)
				ap := airport(icao)
				ap.Info.Departures = append(ap.Info.Departures, p.departure(recs))
				e.Pop()

			case 'E': // STAR 4.1.9
				recs := matchingSSARecs(line)
				e.Push(icao + "/" + recs[0].id)
				ap := airport(icao)
				ap.Info.Arrivals = append(ap.Info.Arrivals, p.arrival(recs))
				e.Pop()

			case 'F': // Approach 4.1.9
				recs := matchingSSARecs(line)
				e.Push(icao + "/" + recs[0].id)
				ap := airport(icao)
				ap.Info.Approaches = append(ap.Info.Approaches, p.approach(recs))
				e.Pop()

			case 'G': // runway records 4.1.10
				continuation := line[21]
				if continuation != '0' && continuation != '1' {
					continue
				}
				if empty(line[27:31]) {
					// No heading available. This happens for e.g. seaports.
					continue
				}

				ap := airport(icao)
				ap.Info.Runways = append(ap.Info.Runways, Runway{
					Id:                         normalizeRunway(string(line[13:18])),
					Heading:                    float32(p.int(line[27:31])) / 10,
					Threshold:                  p.latLong(line[32:41], line[41:51]),
					Length:                     p.int(line[22:27]),
					ThresholdCrossingHeight:    p.int(line[75:77]),
					Elevation:                  p.int(line[66:71]),
					DisplacedThresholdDistance: float32(p.int(line[71:75])) * math.FeetToNauticalMiles,
				})
			}
		}
	}

	return result
}

type ssaRecord struct {
	icao                   string
	id                     string
	routeType              byte
	transition             string
	fix                    string
	fixSection             [2]byte
	continuation           byte
	waypointDescription    []byte
	turnDirection          byte
	pathAndTermination     string
	recommendedNavaid      []byte
	theta                  []byte
	rho                    []byte
	outboundMagneticCourse []byte
	routeDistance          []byte
	altDescrip             byte
	alt0, alt1             []byte
}

func parseSSA(line []byte) ssaRecord {
	return ssaRecord{
		icao:                   string(line[6:10]),
		id:                     strings.TrimSpace(string(line[13:19])),
		routeType:              line[19],
		transition:             strings.TrimSpace(string(line[20:25])),
		fix:                    strings.TrimSpace(string(line[29:34])),
		fixSection:             [2]byte{line[36], line[37]},
		continuation:           line[38],
		waypointDescription:    line[39:43],
		turnDirection:          line[43],
		pathAndTermination:     string(line[47:49]), // 5.21, p188
		recommendedNavaid:      line[50:54],
		theta:                  line[62:66],
		rho:                    line[66:70],
		outboundMagneticCourse: line[70:74],
		routeDistance:          line[74:78],
		altDescrip:             line[82], // sec 5.29
		alt0:                   line[84:89],
		alt1:                   line[89:94],
	}
}

func (r ssaRecord) isPrimary() bool {
	return r.continuation == '0' || r.continuation == '1'
}

// fixKind returns the kind of facility the record's fix is, based on the
// section and subsection codes of the fix (5.4, 5.5).
func (r ssaRecord) fixKind() (kind InfoKind, runway bool) {
	switch {
	case r.fixSection[0] == 'D' && r.fixSection[1] == ' ':
		return InfoVOR, false
	case r.fixSection[0] == 'D' && r.fixSection[1] == 'B', r.fixSection[0] == 'P' && r.fixSection[1] == 'N':
		return InfoNDB, false
	case r.fixSection[0] == 'P' && r.fixSection[1] == 'G':
		return InfoGeneric, true
	case r.waypointDescription[0] == 'G':
		return InfoGeneric, true
	default:
		return InfoIntersection, false
	}
}

func (p *cifpParser) leg(r ssaRecord) (Leg, bool) {
	pt, err := ParsePathTerminator(r.pathAndTermination)
	if err != nil {
		p.e.Error(err)
		return Leg{}, false
	}

	leg := Leg{
		Type:    pt,
		Fix:     r.fix,
		Navaid:  strings.TrimSpace(string(r.recommendedNavaid)),
		FlyOver: r.waypointDescription[1] == 'Y',
	}
	leg.FixKind, _ = r.fixKind()

	switch r.turnDirection {
	case 'L':
		leg.Turn = TurnLeft
	case 'R':
		leg.Turn = TurnRight
	}

	if !empty(r.outboundMagneticCourse) {
		if r.outboundMagneticCourse[3] == 'T' { // true course, whole degrees
			leg.Course = float32(p.int(r.outboundMagneticCourse[:3]))
		} else {
			leg.Course = float32(p.int(r.outboundMagneticCourse)) / 10
		}
	}
	if !empty(r.routeDistance) {
		if r.routeDistance[0] == 'T' { // it's a time
			leg.DistanceIsTime = true
			leg.Distance = float32(p.int(r.routeDistance[1:])) / 10
		} else {
			leg.Distance = float32(p.int(r.routeDistance)) / 10
		}
	}
	if !empty(r.theta) {
		leg.Theta = float32(p.int(r.theta)) / 10
	}
	if !empty(r.rho) {
		leg.Rho = float32(p.int(r.rho)) / 10
	}

	var alt0, alt1 float32
	if !empty(r.alt0) {
		alt0 = p.altitude(r.alt0)
	}
	if !empty(r.alt1) {
		alt1 = p.altitude(r.alt1)
	}
	if alt0 != 0 || alt1 != 0 {
		switch r.altDescrip { // 5.29
		case ' ', 'G', 'I', 'X':
			// G/I/X: glideslope or vertical angle alt in second, 'at' in first
			leg.Constraint = AltitudeConstraint{Description: AltitudeAt, Altitude1: alt0}
		case '+', 'H', 'J', 'V':
			leg.Constraint = AltitudeConstraint{Description: AltitudeAtOrAbove, Altitude1: alt0}
		case '-':
			leg.Constraint = AltitudeConstraint{Description: AltitudeAtOrBelow, Altitude1: alt0}
		case 'B': // "At or above to at or below"; The higher value will always appear first.
			leg.Constraint = AltitudeConstraint{Description: AltitudeBetween, Altitude1: alt0, Altitude2: alt1}
		default:
			p.e.ErrorString("%s: unexpected altitude description %q", r.fix, r.altDescrip)
		}
	}

	return leg, true
}

type ssaGroup struct {
	routeType  byte
	transition string
	recs       []ssaRecord
}

// groupSSA splits a procedure's records into runs that share a route
// type and transition, preserving the order they appear in the file.
func groupSSA(recs []ssaRecord) []*ssaGroup {
	var groups []*ssaGroup
	for _, r := range recs {
		if !r.isPrimary() {
			continue
		}
		if n := len(groups); n > 0 && groups[n-1].routeType == r.routeType && groups[n-1].transition == r.transition {
			groups[n-1].recs = append(groups[n-1].recs, r)
		} else {
			groups = append(groups, &ssaGroup{routeType: r.routeType, transition: r.transition, recs: []ssaRecord{r}})
		}
	}
	return groups
}

func (p *cifpParser) legs(recs []ssaRecord) []Leg {
	var legs []Leg
	for _, r := range recs {
		if leg, ok := p.leg(r); ok {
			legs = append(legs, leg)
		}
	}
	return legs
}

// runwayTransitions returns one RunwayTransition per runway named by the
// transition identifier; "RW04B" applies to both 4L and 4R.
func runwayTransitions(name string, legs []Leg) []RunwayTransition {
	rwy := normalizeRunway(name)
	if num, ext := splitRunway(rwy); ext == "B" {
		return []RunwayTransition{
			{Runway: num + "L", Legs: legs},
			{Runway: num + "R", Legs: slices.Clone(legs)},
		}
	}
	return []RunwayTransition{{Runway: rwy, Legs: legs}}
}

func (p *cifpParser) departure(recs []ssaRecord) Departure {
	d := Departure{Name: recs[0].id}
	for _, g := range groupSSA(recs) {
		legs := p.legs(g.recs)
		switch g.routeType { // 5.7, SID route types
		case '1', '4', 'F':
			d.RunwayTransitions = append(d.RunwayTransitions, runwayTransitions(g.transition, legs)...)
		case '2', '5', 'M':
			d.CommonLegs = append(d.CommonLegs, legs...)
		case '3', '6', 'S':
			d.EnrouteTransitions = append(d.EnrouteTransitions, Transition{Name: g.transition, Legs: legs})
		case '0', 'T', 'V': // engine out, vector transitions
		default:
			p.e.ErrorString("unexpected SID route type %q", g.routeType)
		}
	}
	return d
}

func (p *cifpParser) arrival(recs []ssaRecord) Arrival {
	a := Arrival{Name: recs[0].id}
	for _, g := range groupSSA(recs) {
		legs := p.legs(g.recs)
		switch g.routeType { // 5.7, STAR route types
		case '1', '4', '7', 'F':
			a.EnrouteTransitions = append(a.EnrouteTransitions, Transition{Name: g.transition, Legs: legs})
		case '2', '5', '8', 'M':
			a.CommonLegs = append(a.CommonLegs, legs...)
		case '3', '6', '9', 'S':
			a.RunwayTransitions = append(a.RunwayTransitions, runwayTransitions(g.transition, legs)...)
		default:
			p.e.ErrorString("unexpected STAR route type %q", g.routeType)
		}
	}
	return a
}

// approachRunway extracts the runway from an approach identifier:
// "I04R" -> "4R", "R13LZ" -> "13L", "VDM-A" -> "".
func approachRunway(id string) string {
	if len(id) < 2 {
		return ""
	}
	s := id[1:]
	i := 0
	for i < len(s) && i < 2 && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return ""
	}
	rwy := s[:i]
	if i < len(s) && (s[i] == 'L' || s[i] == 'R' || s[i] == 'C') {
		rwy += string(s[i])
	}
	return normalizeRunway(rwy)
}

func (p *cifpParser) approach(recs []ssaRecord) Approach {
	appr := Approach{Name: recs[0].id, Runway: approachRunway(recs[0].id)}

	for _, g := range groupSSA(recs) {
		if g.routeType == 'A' {
			appr.Transitions = append(appr.Transitions, Transition{Name: g.transition, Legs: p.legs(g.recs)})
			continue
		}

		// Everything after the missed approach point is the missed
		// approach. A runway MAP is dropped since the runway is added
		// separately when the approach is built into a route.
		missed := false
		for _, r := range g.recs {
			leg, ok := p.leg(r)
			if !ok {
				continue
			}
			if missed {
				appr.MissedLegs = append(appr.MissedLegs, leg)
				continue
			}
			if r.waypointDescription[3] == 'M' {
				missed = true
				if _, rwy := r.fixKind(); rwy {
					continue
				}
			}
			appr.FinalLegs = append(appr.FinalLegs, leg)
		}
	}

	return appr
}
