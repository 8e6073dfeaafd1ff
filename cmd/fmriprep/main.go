// fmriprep readies the wave-2 resting-state fMRI data for preprocessing.
// BU data needs only sidecar edits. UCSD data was acquired with an
// alternating pepolar sequence (AP, PA, AP, PA, ... each TR, with the AP
// volumes written to disk y-flipped), so it is split by direction,
// reoriented, given per-direction sidecars, and merged back interleaved.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/bidskit"
	"github.com/carbocation/bidskit/bids"
	"github.com/carbocation/bidskit/sidecar"
	"github.com/carbocation/pfx"
)

var wave2Models = map[string]string{
	"TrioTim":         sidecar.SiteBU,
	"DISCOVERY MR750": sidecar.SiteUCSD,
}

func main() {
	var bidsDir, subjectsFile string

	flag.StringVar(&bidsDir, "bids", "", "Path to the BIDS directory.")
	flag.StringVar(&subjectsFile, "subjects", "", "Path to file listing one subject ID per line.")
	flag.Parse()

	if bidsDir == "" {
		log.Fatalln("Please provide -bids")
	}
	if subjectsFile == "" {
		log.Fatalln("Please provide -subjects")
	}

	bidsDir = bidskit.ExpandHome(bidsDir)

	subjects, err := bidskit.ReadSubjectList(bidskit.ExpandHome(subjectsFile))
	if err != nil {
		log.Fatalln(err)
	}

	var successful, unsuccessful []string

	for _, subject := range subjects {
		log.Println("Start processing subject", subject)

		if err := processSubject(bidsDir, subject); err != nil {
			log.Println("Error processing subject", subject, ":", err)
			unsuccessful = append(unsuccessful, subject)
			continue
		}

		log.Println("Finished processing functional run for subject", subject, "successfully")
		successful = append(successful, subject)
	}

	if err := writeSubjectList(filepath.Join(bidsDir, "successful_subjects.txt"), successful); err != nil {
		log.Fatalln(err)
	}
	if err := writeSubjectList(filepath.Join(bidsDir, "unsuccessful_subjects.txt"), unsuccessful); err != nil {
		log.Fatalln(err)
	}
}

func processSubject(bidsDir, subject string) error {
	funcDir := bids.DatatypeDir(bidsDir, subject, "ses-02", "func")
	fmapDir := bids.DatatypeDir(bidsDir, subject, "ses-02", "fmap")
	for _, dir := range []string{funcDir, fmapDir} {
		if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
			return fmt.Errorf("no %s folder found", filepath.Base(dir))
		}
	}

	funcFile := filepath.Join(funcDir, fmt.Sprintf("sub-%s_ses-02_task-rest_bold.nii.gz", subject))

	site, err := sidecar.SiteForFile(bids.SidecarPath(funcFile), wave2Models)
	if err != nil {
		return err
	}

	switch site {
	case sidecar.SiteBU:
		return processBU(bidsDir, subject, funcFile)
	case sidecar.SiteUCSD:
		return processUCSD(bidsDir, subject, funcFile)
	}
	return fmt.Errorf("unknown site %q", site)
}

// addIntendedFor points a fieldmap sidecar at the functional run it
// corrects. A missing fieldmap sidecar is logged and skipped, not fatal.
func addIntendedFor(fmapJSON, intendedFor string) error {
	if _, err := os.Stat(fmapJSON); os.IsNotExist(err) {
		log.Println("No json file found for", fmapJSON, "- skipping")
		return nil
	}

	s, err := sidecar.Load(fmapJSON)
	if err != nil {
		return err
	}
	s.Set("IntendedFor", intendedFor)
	return s.Save(fmapJSON)
}

func fmapEPIJSON(bidsDir, subject, direction string) string {
	return filepath.Join(bids.DatatypeDir(bidsDir, subject, "ses-02", "fmap"),
		fmt.Sprintf("sub-%s_ses-02_acq-func_dir-%s_epi.json", subject, direction))
}

func writeSubjectList(path string, subjects []string) error {
	content := ""
	if len(subjects) > 0 {
		content = strings.Join(subjects, "\n") + "\n"
	}
	return pfx.Err(os.WriteFile(path, []byte(content), 0644))
}
