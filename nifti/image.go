package nifti

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/carbocation/pfx"
)

// Image is a NIfTI-1 image held fully in memory: its header and the raw,
// uninterpreted voxel bytes.
type Image struct {
	Header    Header
	ByteOrder binary.ByteOrder
	Data      []byte
}

// New creates an empty image with the given dimensions and datatype, for
// building synthetic volumes. Pixdims default to 1.
func New(nx, ny, nz, nt int, datatype int16) *Image {
	h := Header{
		SizeofHdr: HeaderSize,
		Datatype:  datatype,
		Bitpix:    bitpix(datatype),
		VoxOffset: voxOffset,
		SclSlope:  1,
		Magic:     magicSingleFile,
	}

	h.Dim = [8]int16{4, int16(nx), int16(ny), int16(nz), int16(nt), 1, 1, 1}
	if nt <= 1 {
		h.Dim[0] = 3
		h.Dim[4] = 1
	}
	h.Pixdim = [8]float32{1, 1, 1, 1, 1, 0, 0, 0}

	img := &Image{
		Header:    h,
		ByteOrder: binary.LittleEndian,
	}
	img.Data = make([]byte, img.volBytes()*img.NVols())
	return img
}

// Load reads a .nii or .nii.gz file fully into memory.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, pfx.Err(err)
		}
		defer gz.Close()
		r = gz
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	h, order, err := decodeHeader(raw)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	img := &Image{Header: h, ByteOrder: order}

	offset := int(h.VoxOffset)
	if offset < HeaderSize {
		offset = voxOffset
	}

	need := img.volBytes() * img.NVols()
	if len(raw) < offset+need {
		return nil, pfx.Err(fmt.Errorf("nifti: %s: voxel data truncated: have %d bytes, need %d", path, len(raw)-offset, need))
	}
	img.Data = raw[offset : offset+need]

	return img, nil
}

// Save writes the image to path, gzipping when the path ends in .gz. The
// stored vox_offset is normalized and dims are kept as-is.
func (img *Image) Save(path string) error {
	h := img.Header
	h.SizeofHdr = HeaderSize
	h.VoxOffset = voxOffset
	h.Magic = magicSingleFile

	order := img.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}

	head, err := h.encode(order)
	if err != nil {
		return pfx.Err(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}

	if _, err := w.Write(head); err != nil {
		return pfx.Err(err)
	}
	// No extensions: four zero bytes pad the header out to vox_offset.
	if _, err := w.Write(make([]byte, voxOffset-HeaderSize)); err != nil {
		return pfx.Err(err)
	}
	if _, err := w.Write(img.Data); err != nil {
		return pfx.Err(err)
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return pfx.Err(err)
		}
	}

	return f.Close()
}

// Dims returns the x, y, z, and t extents.
func (img *Image) Dims() (nx, ny, nz, nt int) {
	return int(img.Header.Dim[1]), int(img.Header.Dim[2]), int(img.Header.Dim[3]), img.NVols()
}

// NVols returns the number of volumes along the time axis (1 for 3D images).
func (img *Image) NVols() int {
	return img.Header.nVols()
}

// volBytes is the byte length of one 3D volume.
func (img *Image) volBytes() int {
	return img.Header.nVox() * int(img.Header.Bitpix) / 8
}

func bitpix(datatype int16) int16 {
	switch datatype {
	case DTUint8:
		return 8
	case DTInt16:
		return 16
	case DTInt32, DTFloat32:
		return 32
	case DTFloat64:
		return 64
	}
	return 0
}
