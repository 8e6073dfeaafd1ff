// bidsconvert drives the external DICOM-to-BIDS converter over a subject
// list, with wave-specific session labels and converter configs. Conversion
// itself is entirely the converter's job; this tool only sequences it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/carbocation/bidskit"
	"github.com/carbocation/bidskit/bids"
)

// Each study wave maps to one BIDS session.
var waveSessions = map[int]string{
	1: "ses-01",
	2: "ses-02",
	3: "ses-03",
	4: "ses-04",
}

func main() {
	var subjectsFile, bidsDir, rawDir, configFile, converter string
	var wave, concurrency int

	flag.StringVar(&subjectsFile, "subjects", "", "Path to file listing one subject ID per line.")
	flag.StringVar(&bidsDir, "bids", "", "Path to the output BIDS directory.")
	flag.StringVar(&rawDir, "raw", "", "Path to the raw DICOM directory, containing one folder per subject ID.")
	flag.StringVar(&configFile, "config", "", "Path to the wave-specific converter config (JSON mapping scan series to BIDS labels).")
	flag.StringVar(&converter, "converter", "dcm2bids", "Path to the dcm2bids executable (if not already in your PATH as dcm2bids).")
	flag.IntVar(&wave, "wave", 0, "Study wave (1-4); selects the session label.")
	flag.IntVar(&concurrency, "concurrency", 1, "Number of simultaneous converter processes. 1 preserves subject-list order.")
	flag.Parse()

	if subjectsFile == "" {
		log.Fatalln("Please provide -subjects")
	}
	if bidsDir == "" {
		log.Fatalln("Please provide -bids")
	}
	if rawDir == "" {
		log.Fatalln("Please provide -raw")
	}
	if configFile == "" {
		log.Fatalln("Please provide -config")
	}

	session, ok := waveSessions[wave]
	if !ok {
		log.Fatalf("Please provide -wave in 1-%d\n", len(waveSessions))
	}

	bidsDir = bidskit.ExpandHome(bidsDir)
	rawDir = bidskit.ExpandHome(rawDir)

	subjects, err := bidskit.ReadSubjectList(bidskit.ExpandHome(subjectsFile))
	if err != nil {
		log.Fatalln(err)
	}

	log.Println("Converting", len(subjects), "subjects for wave", wave, "with up to", concurrency, "simultaneous converter runs")

	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan bool, concurrency)

	for i, subject := range subjects {
		// If this subject's session was already converted, skip it.
		sessionDir := filepath.Join(bids.SubjectDir(bidsDir, subject), session)
		if _, err := os.Stat(sessionDir); !os.IsNotExist(err) {
			log.Println(i, len(subjects), "Already converted", subject, session)
			continue
		}

		dicomDir := filepath.Join(rawDir, subject)
		if _, err := os.Stat(dicomDir); os.IsNotExist(err) {
			log.Println(i, len(subjects), "No raw data for subject", subject, "- skipping")
			continue
		}

		log.Println(i, len(subjects), "Converting", subject)

		sem <- true
		go func(subject, dicomDir string) {
			defer func() { <-sem }()

			cmd := exec.Command(converter,
				"-d", dicomDir,
				"-p", subject,
				"-s", session,
				"-c", configFile,
				"-o", bidsDir,
			)
			if out, err := cmd.CombinedOutput(); err != nil {
				log.Println(fmt.Errorf("subject %s | Output: %s | Error: %s", subject, string(out), err.Error()))
				return
			}

			log.Println("Finished converting", subject)
		}(subject, dicomDir)
	}

	for i := 0; i < cap(sem); i++ {
		sem <- true
	}
}
