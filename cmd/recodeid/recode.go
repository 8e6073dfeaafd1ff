package main

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/bidskit/bids"
	"github.com/carbocation/pfx"
)

// RecodeSubject renames the subject directory from the raw ID to the
// de-identified code, then renames every contained file whose name carries
// the raw ID and scrubs the raw ID from all JSON sidecars, including cross
// references like IntendedFor in files whose own names never held the ID.
func RecodeSubject(bidsDir, rawID, cid string) error {
	oldDir := bids.SubjectDir(bidsDir, rawID)
	newDir := bids.SubjectDir(bidsDir, cid)
	if err := os.Rename(oldDir, newDir); err != nil {
		return pfx.Err(err)
	}

	if err := renameContents(newDir, rawID, cid); err != nil {
		return err
	}
	return rewriteSidecars(newDir, rawID, cid)
}

func renameContents(dir, rawID, cid string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.Contains(d.Name(), rawID) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return pfx.Err(err)
	}

	for _, file := range files {
		base := strings.ReplaceAll(filepath.Base(file), rawID, cid)
		if err := os.Rename(file, filepath.Join(filepath.Dir(file), base)); err != nil {
			return pfx.Err(err)
		}
	}
	return nil
}

func rewriteSidecars(dir, rawID, cid string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return pfx.Err(err)
		}
		if !bytes.Contains(raw, []byte(rawID)) {
			return nil
		}
		replaced := bytes.ReplaceAll(raw, []byte(rawID), []byte(cid))
		return pfx.Err(os.WriteFile(path, replaced, 0644))
	})
}
