package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/bidskit/bids"
	"github.com/carbocation/pfx"
)

// FilterRuns applies the exclusion list: first every kept run is renamed
// without its run number, then all files still carrying a run number within
// the touched subject+session pairs are deleted. Rename-before-delete order
// matters; the kept files must lose their run segment before the sweep.
func FilterRuns(bidsDir string, rows []*ExcludedRun) ([]ReportRow, error) {
	var report []ReportRow

	for _, row := range rows {
		kept, err := keepRun(bidsDir, row)
		if err != nil {
			return report, err
		}
		for _, path := range kept {
			report = append(report, ReportRow{
				SubjectID: row.SubjectID,
				Session:   row.Session,
				Action:    "kept",
				Path:      path,
			})
		}
	}

	for _, pair := range subjectSessions(rows) {
		deleted, err := deleteRunFiles(bidsDir, pair[0], pair[1])
		if err != nil {
			return report, err
		}
		for _, path := range deleted {
			report = append(report, ReportRow{
				SubjectID: pair[0],
				Session:   pair[1],
				Action:    "deleted",
				Path:      path,
			})
		}
	}

	return report, nil
}

// keepRun renames every file of the named run (image, sidecar, and any other
// companion sharing the stem) to its runless form, returning the new paths.
func keepRun(bidsDir string, row *ExcludedRun) ([]string, error) {
	dir := bids.DatatypeDir(bidsDir, row.SubjectID, row.Session, row.DataType)
	stem := fmt.Sprintf("sub-%s_%s_%s", row.SubjectID, row.Session, row.UseRun)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pfx.Err(err)
	}

	var kept []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), stem) {
			continue
		}

		newName := bids.StripRun(entry.Name())
		if newName == entry.Name() {
			kept = append(kept, filepath.Join(dir, entry.Name()))
			continue
		}

		oldPath := filepath.Join(dir, entry.Name())
		newPath := filepath.Join(dir, newName)
		if err := os.Rename(oldPath, newPath); err != nil {
			return kept, pfx.Err(err)
		}
		kept = append(kept, newPath)
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("no files matching %s under %s", stem, dir)
	}

	return kept, nil
}

// deleteRunFiles removes every remaining run-numbered file under one
// subject's session.
func deleteRunFiles(bidsDir, subject, session string) ([]string, error) {
	root := filepath.Join(bids.SubjectDir(bidsDir, subject), session)

	var deleted []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !bids.HasRun(d.Name()) {
			return nil
		}

		log.Println("Deleting", path)
		if err := os.Remove(path); err != nil {
			return err
		}
		deleted = append(deleted, path)
		return nil
	})
	if err != nil {
		return deleted, pfx.Err(err)
	}

	return deleted, nil
}

// subjectSessions returns the unique subject+session pairs, in first-seen
// order.
func subjectSessions(rows []*ExcludedRun) [][2]string {
	seen := map[[2]string]bool{}
	var pairs [][2]string
	for _, row := range rows {
		pair := [2]string{row.SubjectID, row.Session}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		pairs = append(pairs, pair)
	}
	return pairs
}
