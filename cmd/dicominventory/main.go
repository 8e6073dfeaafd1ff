// dicominventory walks a raw DICOM directory and emits a tab-delimited
// inventory of the scanner series it finds, one row per distinct series.
// The output is the raw material for authoring converter configuration
// files that map series descriptions to BIDS modality labels.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/carbocation/bidskit"
	"github.com/carbocation/pfx"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	var rawDir string

	flag.StringVar(&rawDir, "raw", "", "Path to the raw DICOM directory.")
	flag.Parse()

	if rawDir == "" {
		log.Fatalln("Please provide -raw")
	}

	if err := Inventory(bidskit.ExpandHome(rawDir)); err != nil {
		log.Fatalln(err)
	}
}

func Inventory(rawDir string) error {
	files, err := findDicoms(rawDir)
	if err != nil {
		return pfx.Err(err)
	}

	fmt.Fprintf(STDOUT, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		"dicom_dir",
		"series_description",
		"series_number",
		"acquisition_date",
		"rows",
		"cols",
		"model",
	)

	concurrency := 4 * runtime.NumCPU()

	results := make(chan string, concurrency)
	doneListening := make(chan struct{})
	go func() {
		defer func() { doneListening <- struct{}{} }()
		// Serialize results, and collapse the per-file rows so each series
		// appears once.
		seen := map[string]struct{}{}
		for res := range results {
			if _, ok := seen[res]; ok {
				continue
			}
			seen[res] = struct{}{}
			fmt.Fprintln(STDOUT, res)
		}
	}()

	semaphore := make(chan struct{}, concurrency)

	for _, file := range files {

		// Will block after `concurrency` simultaneous goroutines are running
		semaphore <- struct{}{}

		go func(file string) {

			// Be sure to permit unblocking once we finish
			defer func() { <-semaphore }()

			f, err := os.Open(file)
			if err != nil {
				log.Println(err)
				return
			}
			defer f.Close()

			meta, err := DicomToSeriesMeta(f)
			if err != nil {
				log.Println("Error parsing", file, ":", err)
				return
			}

			dicomDir, err := filepath.Rel(rawDir, filepath.Dir(file))
			if err != nil {
				dicomDir = filepath.Dir(file)
			}

			results <- fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%d\t%s",
				filepath.ToSlash(dicomDir),
				meta.SeriesDescription, meta.SeriesNumber, meta.AcquisitionDate,
				meta.Rows, meta.Cols, meta.Model)
		}(file)
	}

	// Make sure we finish all the reads before we exit, otherwise we'll lose
	// the last `concurrency` lines.
	for i := 0; i < cap(semaphore); i++ {
		semaphore <- struct{}{}
	}

	// Close the results channel and make sure we are done listening
	close(results)
	<-doneListening

	return nil
}

func findDicoms(rawDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(rawDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if strings.HasSuffix(name, ".dcm") || strings.HasSuffix(name, ".ima") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
