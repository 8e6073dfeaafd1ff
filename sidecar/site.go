package sidecar

import (
	"fmt"
)

// Scanner models reported in sidecars identify the collection site: each
// wave of the study used one scanner per site.
const (
	SiteBU   = "BU"
	SiteUCSD = "UCSD"
)

// SiteForFile reads ManufacturersModelName from the sidecar at path and maps
// it through models. An unknown model is an error: site-conditional steps
// must not guess.
func SiteForFile(path string, models map[string]string) (string, error) {
	s, err := Load(path)
	if err != nil {
		return "", err
	}

	model := s.String("ManufacturersModelName")
	site, ok := models[model]
	if !ok {
		return "", fmt.Errorf("sidecar: %s: unknown manufacturer model %q", path, model)
	}
	return site, nil
}
