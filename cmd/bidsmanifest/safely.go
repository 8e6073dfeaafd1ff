package main

import (
	"fmt"

	"github.com/henghuang/nifti"
)

// SafelyNiftiParse consumes panics emitted by the nifti library on malformed
// input, turning them into recoverable errors so one bad image does not kill
// the whole manifest.
func SafelyNiftiParse(filename string, rdata bool) (parsedData nifti.Nifti1Image, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	parsedData.LoadImage(filename, rdata)

	return
}

// SafelyNiftiHeaderParse is SafelyNiftiParse for the bare header, which
// carries the voxel sizes.
func SafelyNiftiHeaderParse(filename string) (parsedData nifti.Nifti1Header, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	parsedData.LoadHeader(filename)

	return
}
