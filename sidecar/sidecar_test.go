package sidecar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSidecar(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEditSave(t *testing.T) {
	path := writeSidecar(t, `{
    "ManufacturersModelName": "DISCOVERY MR750",
    "PhaseEncodingDirection": "j-",
    "TotalReadoutTime": 0.0342,
    "EchoTime": 0.03
}`)

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := s.String("PhaseEncodingDirection"); got != "j-" {
		t.Errorf("PhaseEncodingDirection: got %q", got)
	}
	trt, ok := s.Float("TotalReadoutTime")
	if !ok || trt != 0.0342 {
		t.Errorf("TotalReadoutTime: got %v, %v", trt, ok)
	}

	s.Set("TaskName", "rest")
	s.Delete("PhaseEncodingDirection")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.String("TaskName") != "rest" {
		t.Error("TaskName not persisted")
	}
	if _, present := got["PhaseEncodingDirection"]; present {
		t.Error("PhaseEncodingDirection should be gone")
	}
	// Untouched fields carry through.
	if v, ok := got.Float("EchoTime"); !ok || v != 0.03 {
		t.Errorf("EchoTime not carried through: %v, %v", v, ok)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "\n    \"TaskName\"") {
		t.Error("expected four-space indentation")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := Sidecar{"PhaseEncodingDirection": "j-"}
	c := s.Clone()
	c.Set("PhaseEncodingDirection", "j")

	if s.String("PhaseEncodingDirection") != "j-" {
		t.Error("clone mutated the original")
	}
}

func TestSiteForFile(t *testing.T) {
	models := map[string]string{
		"TrioTim":         SiteBU,
		"DISCOVERY MR750": SiteUCSD,
	}

	path := writeSidecar(t, `{"ManufacturersModelName": "TrioTim"}`)
	site, err := SiteForFile(path, models)
	if err != nil {
		t.Fatal(err)
	}
	if site != SiteBU {
		t.Errorf("got %q, want BU", site)
	}

	unknown := writeSidecar(t, `{"ManufacturersModelName": "Prisma"}`)
	if _, err := SiteForFile(unknown, models); err == nil {
		t.Error("unknown model should be an error")
	}
}
