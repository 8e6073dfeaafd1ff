package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/carbocation/bidskit/bids"
	"github.com/carbocation/bidskit/dwi"
	"github.com/carbocation/bidskit/nifti"
	"github.com/carbocation/bidskit/sidecar"
)

func TestProcessWave1(t *testing.T) {
	bidsDir := t.TempDir()
	apDWI := filepath.Join(bidsDir, "sub-F", "ses-01", "dwi", "sub-F_ses-01_dir-AP_dwi.nii.gz")
	orig := makeDWI(t, apDWI, wave1NVols, "Avanto")

	// The integrated sequence reports one SliceTiming entry per volume.
	side, err := sidecar.Load(bids.SidecarPath(apDWI))
	if err != nil {
		t.Fatal(err)
	}
	timing := make([]interface{}, wave1NVols)
	for i := range timing {
		timing[i] = float64(i) / 100
	}
	side.Set("SliceTiming", timing)
	if err := side.Save(bids.SidecarPath(apDWI)); err != nil {
		t.Fatal(err)
	}

	if err := processWave1(bidsDir, "F"); err != nil {
		t.Fatal(err)
	}

	paDWI := filepath.Join(bidsDir, "sub-F", "ses-01", "dwi", "sub-F_ses-01_dir-PA_dwi.nii.gz")

	ap, err := nifti.Load(apDWI)
	if err != nil {
		t.Fatal(err)
	}
	pa, err := nifti.Load(paDWI)
	if err != nil {
		t.Fatal(err)
	}
	if ap.NVols() != wave1PerDir || pa.NVols() != wave1PerDir {
		t.Fatalf("split volumes: %d + %d, want %d each", ap.NVols(), pa.NVols(), wave1PerDir)
	}
	if !bytes.Equal(append(append([]byte{}, ap.Data...), pa.Data...), orig.Data) {
		t.Error("split halves do not reassemble the original series")
	}

	for _, path := range []string{apDWI, paDWI} {
		bval, err := dwi.ReadTable(bids.BvalPath(path))
		if err != nil {
			t.Fatal(err)
		}
		if bval.Cols() != wave1PerDir {
			t.Errorf("%s: bval has %d columns, want %d", path, bval.Cols(), wave1PerDir)
		}
	}

	apSide, err := sidecar.Load(bids.SidecarPath(apDWI))
	if err != nil {
		t.Fatal(err)
	}
	paSide, err := sidecar.Load(bids.SidecarPath(paDWI))
	if err != nil {
		t.Fatal(err)
	}
	if got := paSide.String("PhaseEncodingDirection"); got != "j" {
		t.Errorf("PA PhaseEncodingDirection: got %q, want j", got)
	}
	if got := len(apSide.SliceTiming()); got != wave1PerDir {
		t.Errorf("AP SliceTiming: %d entries, want %d", got, wave1PerDir)
	}
	if got := len(paSide.SliceTiming()); got != wave1PerDir {
		t.Errorf("PA SliceTiming: %d entries, want %d", got, wave1PerDir)
	}

	// Each direction's b0 volumes became a fieldmap epi.
	fmapDir := filepath.Join(bidsDir, "sub-F", "ses-01", "fmap")
	for _, v := range []struct {
		direction string
		split     *nifti.Image
	}{
		{"AP", ap},
		{"PA", pa},
	} {
		epi, err := nifti.Load(filepath.Join(fmapDir, "sub-F_ses-01_dir-"+v.direction+"_epi.nii.gz"))
		if err != nil {
			t.Fatal(err)
		}
		if epi.NVols() != wave1B0Count {
			t.Fatalf("%s epi has %d volumes, want %d", v.direction, epi.NVols(), wave1B0Count)
		}
		vb := len(v.split.Data) / v.split.NVols()
		if !bytes.Equal(epi.Data, v.split.Data[:wave1B0Count*vb]) {
			t.Errorf("%s epi should be the leading b0 volumes of its direction", v.direction)
		}

		epiSide, err := sidecar.Load(filepath.Join(fmapDir, "sub-F_ses-01_dir-"+v.direction+"_epi.json"))
		if err != nil {
			t.Fatal(err)
		}
		want := "bids::sub-F/ses-01/dwi/sub-F_ses-01_dir-" + v.direction + "_dwi.nii.gz"
		if got := epiSide.String("IntendedFor"); got != want {
			t.Errorf("%s epi IntendedFor: got %q, want %q", v.direction, got, want)
		}
	}
}

func TestProcessWave1WrongVolumeCount(t *testing.T) {
	bidsDir := t.TempDir()
	apDWI := filepath.Join(bidsDir, "sub-F", "ses-01", "dwi", "sub-F_ses-01_dir-AP_dwi.nii.gz")
	makeDWI(t, apDWI, wave1NVols-1, "Avanto")

	if err := processWave1(bidsDir, "F"); err == nil {
		t.Fatal("expected an error for a truncated series")
	}
}
