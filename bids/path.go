package bids

import (
	"path/filepath"
	"strings"
)

// SubjectDir returns the directory of a subject within a dataset.
func SubjectDir(bidsDir, subject string) string {
	return filepath.Join(bidsDir, "sub-"+subject)
}

// DatatypeDir returns the directory of one datatype (anat, dwi, func, fmap)
// within a subject's session.
func DatatypeDir(bidsDir, subject, session, datatype string) string {
	return filepath.Join(bidsDir, "sub-"+subject, session, datatype)
}

// SidecarPath returns the JSON sidecar path companion to an image path.
func SidecarPath(imgPath string) string {
	return trimImageExt(imgPath) + ".json"
}

// BvalPath returns the bval path companion to a DWI image path.
func BvalPath(imgPath string) string {
	return trimImageExt(imgPath) + ".bval"
}

// BvecPath returns the bvec path companion to a DWI image path.
func BvecPath(imgPath string) string {
	return trimImageExt(imgPath) + ".bvec"
}

// URI converts an absolute path within a dataset to the bids:: form used in
// IntendedFor fields (e.g. bids::sub-01/ses-02/dwi/sub-01_ses-02_dwi.nii.gz).
func URI(bidsDir, path string) string {
	rel, err := filepath.Rel(bidsDir, path)
	if err != nil {
		// Fall back to plain prefix trimming for paths outside the dataset.
		rel = strings.TrimPrefix(path, strings.TrimSuffix(bidsDir, "/")+"/")
	}
	return "bids::" + filepath.ToSlash(rel)
}

func trimImageExt(imgPath string) string {
	imgPath = strings.TrimSuffix(imgPath, ".gz")
	return strings.TrimSuffix(imgPath, ".nii")
}
