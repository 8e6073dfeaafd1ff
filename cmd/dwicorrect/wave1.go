package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/carbocation/bidskit/bids"
	"github.com/carbocation/bidskit/nifti"
	"github.com/carbocation/bidskit/sidecar"
	"github.com/carbocation/pfx"
)

// Wave 1 acquired an integrated sequence of 70 volumes: 35 AP followed by
// 35 PA, each direction starting with 5 b0 reference volumes.
const (
	wave1NVols   = 70
	wave1PerDir  = 35
	wave1B0Count = 5
)

// processWave1 splits the integrated wave-1 series into per-direction dwi
// files, partitions the gradient tables and SliceTiming to match, and saves
// the b0 volumes of each direction as fieldmap epi files.
func processWave1(bidsDir, subject string) error {
	dwiDir := bids.DatatypeDir(bidsDir, subject, "ses-01", "dwi")
	if !isDir(dwiDir) {
		log.Println("No dwi folder found for subject", subject, "- skipping")
		return nil
	}

	apDWI := filepath.Join(dwiDir, fmt.Sprintf("sub-%s_ses-01_dir-AP_dwi.nii.gz", subject))
	if !isFile(apDWI) {
		log.Println("No integrated dwi series found for subject", subject, "- skipping")
		return nil
	}
	paDWI := filepath.Join(dwiDir, fmt.Sprintf("sub-%s_ses-01_dir-PA_dwi.nii.gz", subject))

	// Both wave-1 scanners used the same integrated sequence; the site
	// lookup only guards against data from an unexpected scanner.
	if _, err := sidecar.SiteForFile(bids.SidecarPath(apDWI), wave1Models); err != nil {
		return err
	}

	if _, err := loadChecked(apDWI, wave1NVols); err != nil {
		return err
	}

	if err := splitSeries(apDWI, paDWI,
		bids.BvalPath(apDWI), bids.BvalPath(paDWI),
		bids.BvecPath(apDWI), bids.BvecPath(paDWI),
		wave1PerDir); err != nil {
		return err
	}

	if err := splitWave1Sidecars(bids.SidecarPath(apDWI), bids.SidecarPath(paDWI)); err != nil {
		return err
	}

	for _, dwiFile := range []string{apDWI, paDWI} {
		if err := saveB0EPI(bidsDir, dwiFile); err != nil {
			return err
		}
	}

	return nil
}

// splitWave1Sidecars derives the PA sidecar from the AP one, partitioning
// SliceTiming the same way the volumes were partitioned and flipping the PA
// phase-encoding direction.
func splitWave1Sidecars(apJSON, paJSON string) error {
	ap, err := sidecar.Load(apJSON)
	if err != nil {
		return err
	}
	pa := ap.Clone()

	if st := ap.SliceTiming(); len(st) >= wave1NVols {
		ap.Set("SliceTiming", st[:wave1PerDir])
		pa.Set("SliceTiming", st[wave1PerDir:])
	}
	pa.Set("PhaseEncodingDirection", "j")

	if err := ap.Save(apJSON); err != nil {
		return err
	}
	return pa.Save(paJSON)
}

// saveB0EPI writes the leading b0 volumes of one direction's dwi series as
// a fieldmap epi file, with a sidecar copied from the dwi sidecar and
// pointed back at it via IntendedFor.
func saveB0EPI(bidsDir, dwiFile string) error {
	img, err := nifti.Load(dwiFile)
	if err != nil {
		return err
	}
	b0, err := img.VolumeRange(0, wave1B0Count)
	if err != nil {
		return err
	}

	fmapDir := filepath.Join(filepath.Dir(filepath.Dir(dwiFile)), "fmap")
	if err := os.MkdirAll(fmapDir, 0755); err != nil {
		return pfx.Err(err)
	}

	name, err := bids.ParseName(filepath.Base(dwiFile))
	if err != nil {
		return err
	}
	epiName := name
	epiName.Suffix = "epi"
	epiFile := filepath.Join(fmapDir, epiName.String())

	if err := b0.Save(epiFile); err != nil {
		return err
	}

	epi, err := sidecar.Load(bids.SidecarPath(dwiFile))
	if err != nil {
		return err
	}
	epi.Set("IntendedFor", bids.URI(bidsDir, dwiFile))
	return epi.Save(bids.SidecarPath(epiFile))
}
