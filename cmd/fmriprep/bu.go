package main

import (
	"os"

	"github.com/carbocation/bidskit/bids"
	"github.com/carbocation/bidskit/sidecar"
)

// processBU needs no image work: tag the run with its task name, point both
// fieldmaps at it, and correct the AP fieldmap's phase-encoding direction,
// which the scanner reports flipped.
func processBU(bidsDir, subject, funcFile string) error {
	funcJSON := bids.SidecarPath(funcFile)
	s, err := sidecar.Load(funcJSON)
	if err != nil {
		return err
	}
	s.Set("TaskName", "rest")
	if err := s.Save(funcJSON); err != nil {
		return err
	}

	intendedFor := bids.URI(bidsDir, funcFile)

	apJSON := fmapEPIJSON(bidsDir, subject, "AP")
	if _, err := os.Stat(apJSON); err == nil {
		ap, err := sidecar.Load(apJSON)
		if err != nil {
			return err
		}
		ap.Set("IntendedFor", intendedFor)
		ap.Set("PhaseEncodingDirection", "j")
		if err := ap.Save(apJSON); err != nil {
			return err
		}
	}

	return addIntendedFor(fmapEPIJSON(bidsDir, subject, "PA"), intendedFor)
}
