package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/carbocation/bidskit/bids"
	"github.com/carbocation/bidskit/nifti"
	"github.com/carbocation/bidskit/sidecar"
)

// Every UCSD run acquired 100 volumes.
const ucsdNVols = 100

// processUCSD splits the alternating pepolar run by phase-encoding
// direction (even 0-based volumes AP, odd PA), restores the AP volumes to
// the common orientation, writes per-direction files and sidecars for
// distortion correction, and merges the reoriented data back interleaved
// over the original run. The merged sidecar loses PhaseEncodingDirection:
// no single value is true for all volumes, and downstream tooling must not
// pick one automatically.
func processUCSD(bidsDir, subject, funcFile string) error {
	img, err := nifti.Load(funcFile)
	if err != nil {
		return err
	}
	if img.NVols() != ucsdNVols {
		return fmt.Errorf("%s: functional run has %d volumes, not %d", funcFile, img.NVols(), ucsdNVols)
	}

	ap, err := img.EveryOther(0)
	if err != nil {
		return err
	}
	ap.FlipY()

	pa, err := img.EveryOther(1)
	if err != nil {
		return err
	}

	apFile := splitBoldPath(funcFile, "AP")
	paFile := splitBoldPath(funcFile, "PA")
	if err := ap.Save(apFile); err != nil {
		return err
	}
	if err := pa.Save(paFile); err != nil {
		return err
	}

	if err := writeSplitSidecars(funcFile, apFile, paFile); err != nil {
		return err
	}

	// Recombine the reoriented directions in acquisition order, replacing
	// the original run.
	merged, err := nifti.Interleave(ap, pa)
	if err != nil {
		return err
	}
	if err := merged.Save(funcFile); err != nil {
		return err
	}

	funcJSON := bids.SidecarPath(funcFile)
	s, err := sidecar.Load(funcJSON)
	if err != nil {
		return err
	}
	s.Delete("PhaseEncodingDirection")
	s.Set("TaskName", "rest")
	if err := s.Save(funcJSON); err != nil {
		return err
	}

	if err := addIntendedFor(fmapEPIJSON(bidsDir, subject, "AP"), bids.URI(bidsDir, apFile)); err != nil {
		return err
	}
	return addIntendedFor(fmapEPIJSON(bidsDir, subject, "PA"), bids.URI(bidsDir, paFile))
}

// writeSplitSidecars clones the run's sidecar for each direction, with the
// direction made explicit so it matches the fieldmaps.
func writeSplitSidecars(funcFile, apFile, paFile string) error {
	orig, err := sidecar.Load(bids.SidecarPath(funcFile))
	if err != nil {
		return err
	}

	for _, v := range []struct {
		file string
		ped  string
	}{
		{apFile, "j-"},
		{paFile, "j"},
	} {
		s := orig.Clone()
		s.Set("PhaseEncodingDirection", v.ped)
		if err := s.Save(bids.SidecarPath(v.file)); err != nil {
			return err
		}
	}

	return nil
}

// splitBoldPath inserts the direction entity into a bold path.
func splitBoldPath(funcFile, direction string) string {
	name, err := bids.ParseName(filepath.Base(funcFile))
	if err != nil {
		return strings.Replace(funcFile, "_bold", "_dir-"+direction+"_bold", 1)
	}
	return filepath.Join(filepath.Dir(funcFile), name.With("dir", direction).String())
}
