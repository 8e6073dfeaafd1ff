package main

import (
	"fmt"
	"io"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/dicomtag"
)

// SeriesMeta holds the per-series fields needed when deciding which scanner
// series map to which BIDS modality.
type SeriesMeta struct {
	SeriesDescription string
	SeriesNumber      string
	AcquisitionDate   string
	Rows              int
	Cols              int
	Model             string
}

// manufacturerModelName is tag (0008,1090).
var manufacturerModelName = dicomtag.Tag{Group: 0x0008, Element: 0x1090}

// DicomToSeriesMeta reads one DICOM file's header and extracts the series
// identification fields.
func DicomToSeriesMeta(dicomReader io.Reader) (*SeriesMeta, error) {
	dcm, err := io.ReadAll(dicomReader)
	if err != nil {
		return nil, err
	}

	p, err := dicom.NewParserFromBytes(dcm, nil)
	if err != nil {
		return nil, err
	}

	parsedData, err := p.Parse(dicom.ParseOptions{
		DropPixelData: true,
	})
	if parsedData == nil || err != nil {
		return nil, fmt.Errorf("Error reading dicom: %v", err)
	}

	output := &SeriesMeta{}
	for _, elem := range parsedData.Elements {
		if elem.Tag == dicomtag.SeriesDescription {
			output.SeriesDescription = elem.Value[0].(string)
		}

		if elem.Tag == dicomtag.SeriesNumber {
			output.SeriesNumber = elem.Value[0].(string)
		}

		if elem.Tag == dicomtag.AcquisitionDate {
			output.AcquisitionDate = elem.Value[0].(string)
		}

		if elem.Tag == dicomtag.Rows {
			output.Rows = int(elem.Value[0].(uint16))
		}

		if elem.Tag == dicomtag.Columns {
			output.Cols = int(elem.Value[0].(uint16))
		}

		if elem.Tag.Compare(manufacturerModelName) == 0 {
			output.Model = elem.Value[0].(string)
		}
	}

	return output, nil
}
