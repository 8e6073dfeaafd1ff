package main

import (
	"fmt"
	"os"

	"github.com/carbocation/bidskit/dwi"
	"github.com/carbocation/bidskit/nifti"
	"github.com/carbocation/pfx"
)

func isDir(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.IsDir()
}

func isFile(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && !stat.IsDir()
}

// loadChecked loads a series and verifies its volume count against what the
// wave's protocol acquired.
func loadChecked(path string, nvols int) (*nifti.Image, error) {
	img, err := nifti.Load(path)
	if err != nil {
		return nil, err
	}

	if img.NVols() != nvols {
		return nil, fmt.Errorf("%s: has %d volumes, not %d", path, img.NVols(), nvols)
	}
	return img, nil
}

// splitSeries divides a series and its gradient tables at volume n: the
// first n volumes stay at apImg/apBval/apBvec, the rest go to the pa paths.
func splitSeries(apImg, paImg, apBval, paBval, apBvec, paBvec string, n int) error {
	img, err := nifti.Load(apImg)
	if err != nil {
		return err
	}

	ap, err := img.VolumeRange(0, n)
	if err != nil {
		return err
	}
	pa, err := img.VolumeRange(n, img.NVols())
	if err != nil {
		return err
	}

	if err := ap.Save(apImg); err != nil {
		return err
	}
	if err := pa.Save(paImg); err != nil {
		return err
	}

	for _, v := range []struct{ src, apDst, paDst string }{
		{apBval, apBval, paBval},
		{apBvec, apBvec, paBvec},
	} {
		table, err := dwi.ReadTable(v.src)
		if err != nil {
			return err
		}
		first, rest, err := table.SplitColumns(n)
		if err != nil {
			return err
		}
		if err := first.Write(v.apDst); err != nil {
			return err
		}
		if err := rest.Write(v.paDst); err != nil {
			return err
		}
	}

	return nil
}

func rename(oldPath, newPath string) error {
	return pfx.Err(os.Rename(oldPath, newPath))
}
