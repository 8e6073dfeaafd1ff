package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/carbocation/bidskit/bids"
	"github.com/carbocation/bidskit/dwi"
	"github.com/carbocation/bidskit/sidecar"
	"github.com/carbocation/pfx"
)

// Wave-2 acquisitions differ by site. BU collected one 62-volume series, 31
// AP then 31 PA. UCSD collected 53 volumes labeled dir-AP by the converter
// but actually PA throughout, except volume 0, which is a reverse-encoded
// reference written to disk y-flipped.
const (
	wave2BUNVols   = 62
	wave2BUPerDir  = 31
	wave2UCSDNVols = 53
)

// processWave2 corrects the wave-2 single-shell diffusion data, with the
// recipe chosen by collection site.
func processWave2(bidsDir, subject string) error {
	dwiDir := bids.DatatypeDir(bidsDir, subject, "ses-02", "dwi")
	if !isDir(dwiDir) {
		log.Println("No dwi folder found for subject", subject, "- skipping")
		return nil
	}

	apDWI := filepath.Join(dwiDir, fmt.Sprintf("sub-%s_ses-02_acq-single_dir-AP_dwi.nii.gz", subject))
	if !isFile(apDWI) {
		log.Println("No single-shell data found for subject", subject, "- skipping")
		return nil
	}

	site, err := sidecar.SiteForFile(bids.SidecarPath(apDWI), wave2Models)
	if err != nil {
		return err
	}

	switch site {
	case sidecar.SiteBU:
		return processWave2BU(bidsDir, subject, apDWI)
	case sidecar.SiteUCSD:
		return processWave2UCSD(bidsDir, subject, apDWI)
	}
	return fmt.Errorf("unknown dwi site %q", site)
}

// processWave2BU splits the integrated BU series and its gradient tables in
// half, creates the PA sidecar, and repoints the PA epi fieldmap at the new
// PA series.
func processWave2BU(bidsDir, subject, apDWI string) error {
	if _, err := loadChecked(apDWI, wave2BUNVols); err != nil {
		return err
	}

	paDWI := replaceDir(apDWI, "PA")

	if err := splitSeries(apDWI, paDWI,
		bids.BvalPath(apDWI), bids.BvalPath(paDWI),
		bids.BvecPath(apDWI), bids.BvecPath(paDWI),
		wave2BUPerDir); err != nil {
		return err
	}

	// The PA sidecar is the AP one with its direction flipped.
	pa, err := sidecar.Load(bids.SidecarPath(apDWI))
	if err != nil {
		return err
	}
	pa.Set("PhaseEncodingDirection", "j")
	if err := pa.Save(bids.SidecarPath(paDWI)); err != nil {
		return err
	}

	// The converter already produced a PA epi fieldmap for BU; it must now
	// point at the PA dwi series.
	paEPIJSON := filepath.Join(bids.DatatypeDir(bidsDir, subject, "ses-02", "fmap"),
		fmt.Sprintf("sub-%s_ses-02_acq-single_dir-PA_epi.json", subject))
	epi, err := sidecar.Load(paEPIJSON)
	if err != nil {
		return err
	}
	epi.Set("IntendedFor", bids.URI(bidsDir, paDWI))
	return epi.Save(paEPIJSON)
}

// processWave2UCSD relabels the series as PA, moves its two leading
// reference volumes into fieldmap epi files (the AP one un-flipped back to
// the common orientation), drops the reverse-encoded volume from the series
// and its gradient tables, and writes epi sidecars.
func processWave2UCSD(bidsDir, subject, apDWI string) error {
	paDWI := replaceDir(apDWI, "PA")
	if err := rename(apDWI, paDWI); err != nil {
		return err
	}

	img, err := loadChecked(paDWI, wave2UCSDNVols)
	if err != nil {
		return err
	}

	for _, v := range []struct{ oldPath, newPath string }{
		{bids.SidecarPath(apDWI), bids.SidecarPath(paDWI)},
		{bids.BvalPath(apDWI), bids.BvalPath(paDWI)},
		{bids.BvecPath(apDWI), bids.BvecPath(paDWI)},
	} {
		if err := rename(v.oldPath, v.newPath); err != nil {
			return err
		}
	}

	fmapDir := bids.DatatypeDir(bidsDir, subject, "ses-02", "fmap")
	if err := os.MkdirAll(fmapDir, 0755); err != nil {
		return pfx.Err(err)
	}

	apEPI := filepath.Join(fmapDir, fmt.Sprintf("sub-%s_ses-02_acq-single_dir-AP_epi.nii.gz", subject))
	paEPI := filepath.Join(fmapDir, fmt.Sprintf("sub-%s_ses-02_acq-single_dir-PA_epi.nii.gz", subject))

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
	if err := pa.Save(paEPI); err != nil {
		return err
	}

	// The reverse-encoded volume leaves the dwi series and its tables.
	rest, err := img.VolumeRange(1, img.NVols())
	if err != nil {
		return err
	}
	if err := rest.Save(paDWI); err != nil {
		return err
	}

	for _, path := range []string{bids.BvalPath(paDWI), bids.BvecPath(paDWI)} {
		table, err := dwi.ReadTable(path)
		if err != nil {
			return err
		}
		trimmed, err := table.DropColumns(1)
		if err != nil {
			return err
		}
		if err := trimmed.Write(path); err != nil {
			return err
		}
	}

	return writeEPISidecars(bidsDir, paDWI, apEPI, paEPI)
}

// writeEPISidecars creates the fieldmap sidecars for a split pair,
// inheriting TotalReadoutTime from the dwi sidecar they correct for.
func writeEPISidecars(bidsDir, paDWI, apEPI, paEPI string) error {
	dwiSide, err := sidecar.Load(bids.SidecarPath(paDWI))
	if err != nil {
		return err
	}
	readout, ok := dwiSide.Float("TotalReadoutTime")
	if !ok {
		return fmt.Errorf("%s: missing TotalReadoutTime", bids.SidecarPath(paDWI))
	}

	intendedFor := bids.URI(bidsDir, paDWI)

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

// replaceDir swaps the dir entity of a BIDS path.
func replaceDir(path, direction string) string {
	name, err := bids.ParseName(filepath.Base(path))
	if err != nil {
		// Not a parseable BIDS name; leave it alone.
		return path
	}
	return filepath.Join(filepath.Dir(path), name.With("dir", direction).String())
}
