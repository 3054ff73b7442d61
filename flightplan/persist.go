// flightplan/persist.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mmp/fmc/util"
)

// SaveVersion is incremented whenever the saved snapshot format changes
// incompatibly.
const SaveVersion = 1

type savedPlan struct {
	Version  int
	Snapshot Snapshot
}

// Save writes a compressed snapshot of the plan to w.
func (fp *FlightPlan) Save(w io.Writer) error {
	return util.EncodeCompressed(w, savedPlan{Version: SaveVersion, Snapshot: fp.Snapshot()})
}

// Load reads a plan written by Save.
func Load(r io.Reader, opts ...Option) (*FlightPlan, error) {
	var sp savedPlan
	if err := util.DecodeCompressed(r, &sp); err != nil {
		return nil, err
	}
	if sp.Version != SaveVersion {
		return nil, fmt.Errorf("version %d: %w", sp.Version, ErrSaveVersion)
	}
	return Restore(sp.Snapshot, opts...)
}

// SaveFile saves the plan to the given path, replacing any existing file
// only once the new one has been completely written.
func (fp *FlightPlan) SaveFile(path string) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if err := fp.Save(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}

func LoadFile(path string, opts ...Option) (*FlightPlan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fp, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fp, nil
}
