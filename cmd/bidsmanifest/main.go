// bidsmanifest walks a BIDS dataset and emits one tab-delimited row per
// NIfTI image to stdout: where the image sits in the tree, its grid
// dimensions, and its voxel sizes. Useful for eyeballing converter output
// before and after the housekeeping passes.
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

	var bidsDir string

	flag.StringVar(&bidsDir, "bids", "", "Path to the BIDS directory.")
	flag.Parse()

	if bidsDir == "" {
		log.Fatalln("Please provide -bids")
	}

	if err := Manifest(bidskit.ExpandHome(bidsDir)); err != nil {
		log.Fatalln(err)
	}
}

func Manifest(bidsDir string) error {
	images, err := findImages(bidsDir)
	if err != nil {
		return pfx.Err(err)
	}

	fmt.Fprintf(STDOUT, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		"subject",
		"session",
		"datatype",
		"filename",
		"x",
		"y",
		"z",
		"t",
		"px_x_mm",
		"px_y_mm",
		"px_z_mm",
		"tr_sec",
	)

	concurrency := 4 * runtime.NumCPU()

	results := make(chan string, concurrency)
	doneListening := make(chan struct{})
	go func() {
		defer func() { doneListening <- struct{}{} }()
		// Serialize results so you don't dump text haphazardly into os.Stdout
		// (which is not goroutine safe).
		for res := range results {
			fmt.Fprintln(STDOUT, res)
		}
	}()

	semaphore := make(chan struct{}, concurrency)

	for _, image := range images {

		// Will block after `concurrency` simultaneous goroutines are running
		semaphore <- struct{}{}

		go func(image string) {

			// Be sure to permit unblocking once we finish
			defer func() { <-semaphore }()

			parsed, err := SafelyNiftiParse(image, false)
			if err != nil {
				log.Println("Error parsing", image, ":", err)
				return
			}
			header, err := SafelyNiftiHeaderParse(image)
			if err != nil {
				log.Println("Error parsing", image, ":", err)
				return
			}

			dims := parsed.GetDims()
			subject, session, datatype := locate(bidsDir, image)

			results <- fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%g\t%g\t%g\t%g",
				subject, session, datatype, filepath.Base(image),
				dims[0], dims[1], dims[2], dims[3],
				header.Pixdim[1], header.Pixdim[2], header.Pixdim[3], header.Pixdim[4])
		}(image)
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

func findImages(bidsDir string) ([]string, error) {
	var images []string
	err := filepath.WalkDir(bidsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".nii") || strings.HasSuffix(d.Name(), ".nii.gz") {
			images = append(images, path)
		}
		return nil
	})
	return images, err
}

// locate derives subject, session, and datatype from an image's position in
// the tree. Images above the datatype level leave the missing parts blank.
func locate(bidsDir, image string) (subject, session, datatype string) {
	rel, err := filepath.Rel(bidsDir, image)
	if err != nil {
		return "", "", ""
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 1 {
		subject = strings.TrimPrefix(parts[0], "sub-")
	}
	if len(parts) > 2 {
		session = parts[1]
	}
	if len(parts) > 3 {
		datatype = parts[2]
	}
	return subject, session, datatype
}
