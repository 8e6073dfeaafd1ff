package main

import "github.com/carbocation/bidskit/sidecar"

// Scanner models per wave. Each wave's two collection sites used one scanner
// each, so ManufacturersModelName in any sidecar identifies the site.
var (
	wave1Models = map[string]string{
		"Avanto":   sidecar.SiteBU,
		"Symphony": sidecar.SiteUCSD,
	}

	wave2Models = map[string]string{
		"TrioTim":         sidecar.SiteBU,
		"DISCOVERY MR750": sidecar.SiteUCSD,
	}
)
