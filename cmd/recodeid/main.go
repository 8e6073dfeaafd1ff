// recodeid replaces raw subject IDs in a BIDS dataset with their
// de-identified codes. A key CSV maps each raw ID to its code; the subject
// directory, every filename carrying the raw ID, and raw-ID occurrences
// inside JSON sidecars are all rewritten.
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strings"

	"github.com/carbocation/bidskit"
	"github.com/gocarina/gocsv"
)

// KeyRow is one row of the recoding key.
type KeyRow struct {
	SubjectID string `csv:"SubjectID"`
	CID       string `csv:"CID"`
}

func main() {
	var bidsDir, keyFile, subjectsFile string

	flag.StringVar(&bidsDir, "bids", "", "Path to the BIDS directory.")
	flag.StringVar(&keyFile, "key", "", "Path to CSV with columns SubjectID, CID.")
	flag.StringVar(&subjectsFile, "subjects", "", "Optional path to file listing one subject ID per line. Defaults to every sub-* directory.")
	flag.Parse()

	if bidsDir == "" {
		log.Fatalln("Please provide -bids")
	}
	if keyFile == "" {
		log.Fatalln("Please provide -key")
	}

	bidsDir = bidskit.ExpandHome(bidsDir)

	idMap, err := readKey(bidskit.ExpandHome(keyFile))
	if err != nil {
		log.Fatalln(err)
	}

	var subjects []string
	if subjectsFile != "" {
		subjects, err = bidskit.ReadSubjectList(bidskit.ExpandHome(subjectsFile))
	} else {
		subjects, err = listSubjects(bidsDir)
	}
	if err != nil {
		log.Fatalln(err)
	}

	for _, subject := range subjects {
		cid, ok := idMap[subject]
		if !ok {
			log.Println("Subject", subject, "not in key file. Skipping")
			continue
		}

		log.Println("Recoding", subject, "to", cid)
		if err := RecodeSubject(bidsDir, subject, cid); err != nil {
			log.Fatalln(err)
		}
	}
}

func readKey(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	delim := bidskit.DetermineDelimiter(bytes.NewReader(raw))
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delim
		r.LazyQuotes = true
		return r
	})

	rows := []*KeyRow{}
	if err := gocsv.UnmarshalBytes(raw, &rows); err != nil {
		return nil, err
	}

	idMap := make(map[string]string, len(rows))
	for _, row := range rows {
		idMap[row.SubjectID] = row.CID
	}
	return idMap, nil
}

// listSubjects returns the bare IDs of every sub-* directory.
func listSubjects(bidsDir string) ([]string, error) {
	entries, err := os.ReadDir(bidsDir)
	if err != nil {
		return nil, err
	}

	var subjects []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "sub-") {
			subjects = append(subjects, strings.TrimPrefix(entry.Name(), "sub-"))
		}
	}
	return subjects, nil
}
