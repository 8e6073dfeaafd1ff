// excludedruns prunes unwanted runs from a BIDS dataset. A CSV names, per
// subject and session, the one run to keep for a datatype; that run's files
// are renamed without their run number, and every other run-numbered file in
// the session is deleted. A dated report of what happened is written next to
// the input CSV.
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/carbocation/bidskit"
	"github.com/gocarina/gocsv"
)

// ExcludedRun is one row of the exclusion CSV. Column headers follow the
// layout the study coordinators produce.
type ExcludedRun struct {
	SubjectID string `csv:"SubjectID"`
	Session   string `csv:"session"`
	DataType  string `csv:"data_type"`
	UseRun    string `csv:"use_run"`
}

// ReportRow records one action taken against the dataset.
type ReportRow struct {
	SubjectID string `csv:"SubjectID"`
	Session   string `csv:"session"`
	Action    string `csv:"action"`
	Path      string `csv:"path"`
}

func main() {
	var csvFile, bidsDir string

	flag.StringVar(&csvFile, "csv", "", "Path to CSV with columns SubjectID, session, data_type, use_run.")
	flag.StringVar(&bidsDir, "bids", "", "Path to the BIDS directory.")
	flag.Parse()

	if csvFile == "" {
		log.Fatalln("Please provide -csv")
	}
	if bidsDir == "" {
		log.Fatalln("Please provide -bids")
	}

	csvFile = bidskit.ExpandHome(csvFile)
	bidsDir = bidskit.ExpandHome(bidsDir)

	rows, err := readExclusionCSV(csvFile)
	if err != nil {
		log.Fatalln(err)
	}

	log.Println("Read", len(rows), "exclusion rows from", csvFile)

	report, err := FilterRuns(bidsDir, rows)
	if err != nil {
		log.Fatalln(err)
	}

	reportFile := filepath.Join(filepath.Dir(csvFile),
		"deleted_files_"+time.Now().Format("2006-01-02")+".csv")
	if err := writeReport(reportFile, report); err != nil {
		log.Fatalln(err)
	}

	log.Println("Wrote", len(report), "report rows to", reportFile)
}

func readExclusionCSV(path string) ([]*ExcludedRun, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Collaborator exports vary between comma and tab delimiters.
	delim := bidskit.DetermineDelimiter(bytes.NewReader(raw))
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delim
		r.LazyQuotes = true
		return r
	})

	rows := []*ExcludedRun{}
	if err := gocsv.UnmarshalBytes(raw, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func writeReport(path string, report []ReportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.MarshalFile(&report, f)
}
