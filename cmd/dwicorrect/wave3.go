package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/carbocation/bidskit/bids"
	"github.com/carbocation/bidskit/dwi"
	"github.com/carbocation/bidskit/nifti"
	"github.com/carbocation/bidskit/sidecar"
	"github.com/carbocation/pfx"
)

// Wave 3 collected multi-shell and single-shell series, each PA throughout
// except for the two leading reference volumes: volume 0 reverse-encoded
// (AP, y-flipped on disk), volume 1 forward. The references are copied out
// as fieldmap epi files but stay in the dwi series.
func processWave3(bidsDir, subject, gradDir string) error {
	dwiDir := bids.DatatypeDir(bidsDir, subject, "ses-03", "dwi")
	if !isDir(dwiDir) {
		log.Println("No dwi folder found for subject", subject, "- skipping")
		return nil
	}

	for _, acq := range []string{"multi", "single"} {
		src := filepath.Join(dwiDir, fmt.Sprintf("sub-%s_ses-03_acq-%s_dwi.nii.gz", subject, acq))
		if !isFile(src) {
			log.Println("No", acq+"-shell data found for subject", subject)
			continue
		}

		if err := processWave3Acq(bidsDir, subject, gradDir, acq, src); err != nil {
			return err
		}
	}

	return nil
}

func processWave3Acq(bidsDir, subject, gradDir, acq, src string) error {
	// The whole series is PA; relabel it and its companions.
	paDWI := replaceDir(src, "PA")
	for _, v := range []struct{ oldPath, newPath string }{
		{src, paDWI},
		{bids.SidecarPath(src), bids.SidecarPath(paDWI)},
		{bids.BvalPath(src), bids.BvalPath(paDWI)},
		{bids.BvecPath(src), bids.BvecPath(paDWI)},
	} {
		if err := rename(v.oldPath, v.newPath); err != nil {
			return err
		}
	}

	fmapDir := bids.DatatypeDir(bidsDir, subject, "ses-03", "fmap")
	if err := os.MkdirAll(fmapDir, 0755); err != nil {
		return pfx.Err(err)
	}

	apEPI := filepath.Join(fmapDir, fmt.Sprintf("sub-%s_ses-03_acq-%s_dir-AP_epi.nii.gz", subject, acq))
	paEPI := filepath.Join(fmapDir, fmt.Sprintf("sub-%s_ses-03_acq-%s_dir-PA_epi.nii.gz", subject, acq))

	if err := extractReferenceEPIs(paDWI, apEPI, paEPI); err != nil {
		return err
	}

	if err := writeWave3EPISidecars(subject, paDWI, apEPI, paEPI); err != nil {
		return err
	}

	// Scanner-reported multi-shell gradient tables are wrong; replace them
	// from the per-subject reference tables.
	if acq == "multi" {
		if err := replaceGradientTables(gradDir, subject, paDWI); err != nil {
			return err
		}
	}

	return nil
}

// extractReferenceEPIs copies the two leading reference volumes into
// fieldmap epi files, restoring the AP one to the common orientation.
func extractReferenceEPIs(paDWI, apEPI, paEPI string) error {
	img, err := nifti.Load(paDWI)
	if err != nil {
		return err
	}

	ap, err := img.VolumeRange(0, 1)
	if err != nil {
		return err
	}
	ap.FlipY()
	if err := ap.Save(apEPI); err != nil {
		return err
	}

	pa, err := img.VolumeRange(1, 2)
	if err != nil {
		return err
	}
	return pa.Save(paEPI)
}

// writeWave3EPISidecars mirrors writeEPISidecars but emits the
// subject-relative IntendedFor form this wave's downstream tooling expects.
func writeWave3EPISidecars(subject, paDWI, apEPI, paEPI string) error {
	dwiSide, err := sidecar.Load(bids.SidecarPath(paDWI))
	if err != nil {
		return err
	}
	readout, ok := dwiSide.Float("TotalReadoutTime")
	if !ok {
		return fmt.Errorf("%s: missing TotalReadoutTime", bids.SidecarPath(paDWI))
	}

	intendedFor := fmt.Sprintf("ses-03/dwi/%s", filepath.Base(paDWI))

	for _, v := range []struct {
		epiFile string
		ped     string
	}{
		{apEPI, "j-"},
		{paEPI, "j"},
	} {
		s := sidecar.Sidecar{
			"PhaseEncodingDirection": v.ped,
			"TotalReadoutTime":       readout,
			"IntendedFor":            intendedFor,
		}
		if err := s.Save(bids.SidecarPath(v.epiFile)); err != nil {
			return err
		}
	}

	return nil
}

// replaceGradientTables copies the subject's reference bval and bvec tables
// over the converter-produced ones.
func replaceGradientTables(gradDir, subject, paDWI string) error {
	for _, v := range []struct{ pattern, dst string }{
		{subject + "_*_bvals.txt", bids.BvalPath(paDWI)},
		{subject + "_*_bvecs.txt", bids.BvecPath(paDWI)},
	} {
		matches, err := filepath.Glob(filepath.Join(gradDir, v.pattern))
		if err != nil {
			return pfx.Err(err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("no reference gradient table matching %s under %s", v.pattern, gradDir)
		}

		table, err := dwi.ReadTable(matches[0])
		if err != nil {
			return err
		}
		if err := table.Write(v.dst); err != nil {
			return err
		}
	}

	return nil
}
