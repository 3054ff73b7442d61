// aviation/magnetic.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mmp/fmc/math"
	"github.com/mmp/fmc/util"
)

// MagneticModel provides magnetic variation in degrees, east positive, so
// that magnetic = true - variation.
type MagneticModel interface {
	Variation(p math.Point2LL) float32
}

// FixedVariation is a MagneticModel with the same variation everywhere.
type FixedVariation float32

func (v FixedVariation) Variation(math.Point2LL) float32 { return float32(v) }

// MagneticGrid holds declination samples on a regular lat-long grid.
// Samples are stored by latitude row, each row running from
// MinLongitude to MaxLongitude.
type MagneticGrid struct {
	MinLatitude, MaxLatitude   float32
	MinLongitude, MaxLongitude float32
	LatLongStep                float32
	Samples                    []float32
}

// DefaultMagneticGrid gives the bounds of the grid produced by the NOAA
// World Magnetic Model tools:
//
//  1. Download software and coefficients from https://www.ncei.noaa.gov/products/world-magnetic-model
//  2. Build wmm_grid, run with the parameters below, altitude 0 -> 0, select "declination" for output.
//  3. awk '{print $5}' < GridResults.txt | zstd -19 -o magnetic_grid.txt.zst
var DefaultMagneticGrid = MagneticGrid{
	MinLatitude:  17,
	MaxLatitude:  75,
	MinLongitude: -180,
	MaxLongitude: 150,
	LatLongStep:  0.25,
}

func (mg *MagneticGrid) dims() (nlat, nlong int) {
	nlat = int(1 + (mg.MaxLatitude-mg.MinLatitude)/mg.LatLongStep)
	nlong = int(1 + (mg.MaxLongitude-mg.MinLongitude)/mg.LatLongStep)
	return
}

// ReadSamples reads one declination value per line from r.
func (mg *MagneticGrid) ReadSamples(r io.Reader) error {
	mg.Samples = mg.Samples[:0]
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if s := strings.TrimSpace(line); s != "" {
			v, perr := strconv.ParseFloat(s, 32)
			if perr != nil {
				return fmt.Errorf("%s: parsing error: %w", s, perr)
			}
			mg.Samples = append(mg.Samples, float32(v))
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
	}

	nlat, nlong := mg.dims()
	if len(mg.Samples) != nlat*nlong {
		return fmt.Errorf("found %d magnetic grid samples, expected %d x %d = %d: %w",
			len(mg.Samples), nlat, nlong, nlat*nlong, ErrBadMagneticGrid)
	}
	return nil
}

// LoadMagneticGrid reads grid samples from the given file, which may be
// zstd-compressed.
func LoadMagneticGrid(path string, bounds MagneticGrid) (*MagneticGrid, error) {
	r, err := util.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	mg := bounds
	mg.Samples = nil
	if err := mg.ReadSamples(r); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &mg, nil
}

func (mg *MagneticGrid) Lookup(p math.Point2LL) (float32, error) {
	if p[0] < mg.MinLongitude || p[0] > mg.MaxLongitude ||
		p[1] < mg.MinLatitude || p[1] > mg.MaxLatitude {
		return 0, ErrOutsideMagneticGrid
	}

	nlat, nlong := mg.dims()

	// Round to nearest
	lat := min(int((p[1]-mg.MinLatitude)/mg.LatLongStep+0.5), nlat-1)
	long := min(int((p[0]-mg.MinLongitude)/mg.LatLongStep+0.5), nlong-1)

	return mg.Samples[long+nlong*lat], nil
}

// Variation implements MagneticModel; points outside the grid get zero
// variation.
func (mg *MagneticGrid) Variation(p math.Point2LL) float32 {
	v, err := mg.Lookup(p)
	if err != nil {
		return 0
	}
	return v
}
