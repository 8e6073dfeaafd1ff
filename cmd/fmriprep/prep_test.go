package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbocation/bidskit/bids"
	"github.com/carbocation/bidskit/nifti"
	"github.com/carbocation/bidskit/sidecar"
)

// makeBold builds a synthetic resting-state run with its sidecar and empty
// fieldmap sidecars for both directions.
func makeBold(t *testing.T, bidsDir, subject string, nvols int, model string) (string, *nifti.Image) {
	t.Helper()

	funcDir := filepath.Join(bidsDir, "sub-"+subject, "ses-02", "func")
	fmapDir := filepath.Join(bidsDir, "sub-"+subject, "ses-02", "fmap")
	for _, dir := range []string{funcDir, fmapDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	funcFile := filepath.Join(funcDir, "sub-"+subject+"_ses-02_task-rest_bold.nii.gz")
	img := nifti.New(2, 4, 2, nvols, nifti.DTInt16)
	for i := range img.Data {
		img.Data[i] = byte((3*i + 7) % 253)
	}
	if err := img.Save(funcFile); err != nil {
		t.Fatal(err)
	}

	s := sidecar.Sidecar{
		"ManufacturersModelName": model,
		"PhaseEncodingDirection": "j",
		"RepetitionTime":         0.8,
	}
	if err := s.Save(bids.SidecarPath(funcFile)); err != nil {
		t.Fatal(err)
	}

	for _, direction := range []string{"AP", "PA"} {
		epi := sidecar.Sidecar{"PhaseEncodingDirection": "j"}
		if err := epi.Save(fmapEPIJSON(bidsDir, subject, direction)); err != nil {
			t.Fatal(err)
		}
	}

	return funcFile, img
}

func TestProcessUCSD(t *testing.T) {
	bidsDir := t.TempDir()
	funcFile, orig := makeBold(t, bidsDir, "C", ucsdNVols, "DISCOVERY MR750")

	if err := processSubject(bidsDir, "C"); err != nil {
		t.Fatal(err)
	}

	wantAP, err := orig.EveryOther(0)
	if err != nil {
		t.Fatal(err)
	}
	wantAP.FlipY()
	wantPA, err := orig.EveryOther(1)
	if err != nil {
		t.Fatal(err)
	}

	apFile := filepath.Join(filepath.Dir(funcFile), "sub-C_ses-02_task-rest_dir-AP_bold.nii.gz")
	paFile := filepath.Join(filepath.Dir(funcFile), "sub-C_ses-02_task-rest_dir-PA_bold.nii.gz")

	ap, err := nifti.Load(apFile)
	if err != nil {
		t.Fatal(err)
	}
	pa, err := nifti.Load(paFile)
	if err != nil {
		t.Fatal(err)
	}

	if ap.NVols() != ucsdNVols/2 || pa.NVols() != ucsdNVols/2 {
		t.Fatalf("split volumes: %d + %d, want %d each", ap.NVols(), pa.NVols(), ucsdNVols/2)
	}
	if !bytes.Equal(ap.Data, wantAP.Data) {
		t.Error("AP split should be the y-flipped even volumes")
	}
	if !bytes.Equal(pa.Data, wantPA.Data) {
		t.Error("PA split should be the odd volumes")
	}

	// The merged run re-interleaves the reoriented data in place.
	merged, err := nifti.Load(funcFile)
	if err != nil {
		t.Fatal(err)
	}
	if merged.NVols() != ucsdNVols {
		t.Fatalf("merged run has %d volumes, want %d", merged.NVols(), ucsdNVols)
	}
	mergedAP, err := merged.EveryOther(0)
	if err != nil {
		t.Fatal(err)
	}
	mergedPA, err := merged.EveryOther(1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(mergedAP.Data, wantAP.Data) || !bytes.Equal(mergedPA.Data, wantPA.Data) {
		t.Error("merged run should interleave the reoriented directions")
	}

	apSide, err := sidecar.Load(bids.SidecarPath(apFile))
	if err != nil {
		t.Fatal(err)
	}
	if got := apSide.String("PhaseEncodingDirection"); got != "j-" {
		t.Errorf("AP sidecar PhaseEncodingDirection: got %q, want j-", got)
	}
	paSide, err := sidecar.Load(bids.SidecarPath(paFile))
	if err != nil {
		t.Fatal(err)
	}
	if got := paSide.String("PhaseEncodingDirection"); got != "j" {
		t.Errorf("PA sidecar PhaseEncodingDirection: got %q, want j", got)
	}

	funcSide, err := sidecar.Load(bids.SidecarPath(funcFile))
	if err != nil {
		t.Fatal(err)
	}
	if got := funcSide.String("PhaseEncodingDirection"); got != "" {
		t.Errorf("merged sidecar kept PhaseEncodingDirection %q", got)
	}
	if got := funcSide.String("TaskName"); got != "rest" {
		t.Errorf("merged sidecar TaskName: got %q, want rest", got)
	}

	apEPI, err := sidecar.Load(fmapEPIJSON(bidsDir, "C", "AP"))
	if err != nil {
		t.Fatal(err)
	}
	if got := apEPI.String("IntendedFor"); got != "bids::sub-C/ses-02/func/sub-C_ses-02_task-rest_dir-AP_bold.nii.gz" {
		t.Errorf("AP fieldmap IntendedFor: got %q", got)
	}
	paEPI, err := sidecar.Load(fmapEPIJSON(bidsDir, "C", "PA"))
	if err != nil {
		t.Fatal(err)
	}
	if got := paEPI.String("IntendedFor"); got != "bids::sub-C/ses-02/func/sub-C_ses-02_task-rest_dir-PA_bold.nii.gz" {
		t.Errorf("PA fieldmap IntendedFor: got %q", got)
	}
}

func TestProcessUCSDWrongVolumeCount(t *testing.T) {
	bidsDir := t.TempDir()
	makeBold(t, bidsDir, "D", 99, "DISCOVERY MR750")

	if err := processSubject(bidsDir, "D"); err == nil {
		t.Fatal("expected an error for a truncated run")
	}
}

func TestProcessBU(t *testing.T) {
	bidsDir := t.TempDir()
	funcFile, orig := makeBold(t, bidsDir, "E", 10, "TrioTim")

	if err := processSubject(bidsDir, "E"); err != nil {
		t.Fatal(err)
	}

	// BU runs are left intact.
	img, err := nifti.Load(funcFile)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(img.Data, orig.Data) {
		t.Error("BU functional run should not be modified")
	}

	funcSide, err := sidecar.Load(bids.SidecarPath(funcFile))
	if err != nil {
		t.Fatal(err)
	}
	if got := funcSide.String("TaskName"); got != "rest" {
		t.Errorf("TaskName: got %q, want rest", got)
	}

	intendedFor := "bids::sub-E/ses-02/func/sub-E_ses-02_task-rest_bold.nii.gz"

	apEPI, err := sidecar.Load(fmapEPIJSON(bidsDir, "E", "AP"))
	if err != nil {
		t.Fatal(err)
	}
	if got := apEPI.String("IntendedFor"); got != intendedFor {
		t.Errorf("AP fieldmap IntendedFor: got %q", got)
	}
	if got := apEPI.String("PhaseEncodingDirection"); got != "j" {
		t.Errorf("AP fieldmap PhaseEncodingDirection: got %q, want j", got)
	}
	paEPI, err := sidecar.Load(fmapEPIJSON(bidsDir, "E", "PA"))
	if err != nil {
		t.Fatal(err)
	}
	if got := paEPI.String("IntendedFor"); got != intendedFor {
		t.Errorf("PA fieldmap IntendedFor: got %q", got)
	}
}

func TestAddIntendedForMissingSidecar(t *testing.T) {
	if err := addIntendedFor(filepath.Join(t.TempDir(), "nope.json"), "bids::x"); err != nil {
		t.Fatal(err)
	}
}
