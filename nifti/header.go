// Package nifti reads and writes single-file NIfTI-1 images (.nii and
// .nii.gz) and provides the volume-level operations the correction tools
// need: extracting sub-series along the time axis, interleaved splits and
// merges, and in-place flips along the phase-encoding (y) axis.
//
// Voxel data is carried as raw bytes and never reinterpreted, so every
// operation is lossless for every datatype the scanner emits. The header
// layout follows the official nifti1.h definition.
package nifti

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// HeaderSize is the on-disk size of a NIfTI-1 header.
const HeaderSize = 348

// voxOffset is where voxel data begins in files we write: the header plus
// the four-byte extension flag.
const voxOffset = 352

// Datatype codes from nifti1.h, limited to those seen in converter output.
const (
	DTUint8   int16 = 2
	DTInt16   int16 = 4
	DTInt32   int16 = 8
	DTFloat32 int16 = 16
	DTFloat64 int16 = 64
)

// Header is the NIfTI-1 file header with its exact on-disk layout.
type Header struct {
	SizeofHdr    int32
	DataType     [10]byte // unused, per the standard
	DBName       [18]byte // unused
	Extents      int32    // unused
	SessionError int16    // unused
	Regular      byte     // unused
	DimInfo      byte

	Dim        [8]int16 // Dim[0] = ndim, Dim[1] = nx, ..., Dim[4] = nt
	IntentP1   float32
	IntentP2   float32
	IntentP3   float32
	IntentCode int16
	Datatype   int16
	Bitpix     int16
	SliceStart int16
	Pixdim     [8]float32
	VoxOffset  float32
	SclSlope   float32
	SclInter   float32
	SliceEnd   int16
	SliceCode  int8
	XyztUnits  int8
	CalMax     float32
	CalMin     float32
	SliceDur   float32
	Toffset    float32
	Glmax      int32 // unused
	Glmin      int32 // unused

	Descrip [80]byte
	AuxFile [24]byte

	QformCode int16
	SformCode int16

	QuaternB float32
	QuaternC float32
	QuaternD float32
	QoffsetX float32
	QoffsetY float32
	QoffsetZ float32

	SrowX [4]float32
	SrowY [4]float32
	SrowZ [4]float32

	IntentName [16]byte

	Magic [4]byte // "n+1\x00" for single-file images
}

var magicSingleFile = [4]byte{'n', '+', '1', 0}

// decodeHeader parses the leading header bytes, inferring byte order from
// Dim[0] the way nifti1_io.c does.
func decodeHeader(raw []byte) (Header, binary.ByteOrder, error) {
	if len(raw) < HeaderSize {
		return Header{}, nil, fmt.Errorf("nifti: file truncated: %d bytes", len(raw))
	}

	var h Header
	var order binary.ByteOrder = binary.LittleEndian

	if err := binary.Read(bytes.NewReader(raw[:HeaderSize]), order, &h); err != nil {
		return h, nil, err
	}

	if h.Dim[0] < 1 || h.Dim[0] > 7 {
		h = Header{}
		order = binary.BigEndian
		if err := binary.Read(bytes.NewReader(raw[:HeaderSize]), order, &h); err != nil {
			return h, nil, err
		}
	}

	if h.Dim[0] < 1 || h.Dim[0] > 7 {
		return h, nil, fmt.Errorf("nifti: cannot infer byte order: dim[0] not in [1, 7] under either endianness")
	}

	if h.SizeofHdr != HeaderSize {
		return h, nil, fmt.Errorf("nifti: invalid header size %d", h.SizeofHdr)
	}

	if h.Magic != magicSingleFile {
		return h, nil, fmt.Errorf("nifti: unsupported magic %q: only single-file n+1 images are handled", h.Magic[:3])
	}

	return h, order, nil
}

func (h Header) encode(order binary.ByteOrder) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, order, &h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// nVox returns the spatial voxel count of one volume.
func (h Header) nVox() int {
	n := 1
	for i := int16(1); i <= 3; i++ {
		if d := int(h.Dim[i]); d > 0 {
			n *= d
		}
	}
	return n
}

func (h Header) nVols() int {
	if h.Dim[0] < 4 || h.Dim[4] < 1 {
		return 1
	}
	return int(h.Dim[4])
}
