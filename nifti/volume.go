package nifti

import (
	"fmt"
)

// VolumeRange returns a new image holding volumes [from, to) of the
// receiver. A single remaining volume collapses the result to 3D, matching
// how converter output represents b0 reference images.
func (img *Image) VolumeRange(from, to int) (*Image, error) {
	nt := img.NVols()
	if from < 0 || to > nt || from >= to {
		return nil, fmt.Errorf("nifti: volume range [%d, %d) outside series of %d volumes", from, to, nt)
	}

	vb := img.volBytes()
	out := img.withVols(to - from)
	copy(out.Data, img.Data[from*vb:to*vb])
	return out, nil
}

// Volumes returns a new image holding the given volume indices, in order.
func (img *Image) Volumes(indices []int) (*Image, error) {
	nt := img.NVols()
	vb := img.volBytes()

	out := img.withVols(len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= nt {
			return nil, fmt.Errorf("nifti: volume index %d outside series of %d volumes", idx, nt)
		}
		copy(out.Data[i*vb:(i+1)*vb], img.Data[idx*vb:(idx+1)*vb])
	}
	return out, nil
}

// EveryOther returns the volumes at indices offset, offset+2, offset+4, ...
// An alternating pepolar acquisition stores one phase-encoding direction at
// offset 0 and the other at offset 1.
func (img *Image) EveryOther(offset int) (*Image, error) {
	if offset != 0 && offset != 1 {
		return nil, fmt.Errorf("nifti: interleave offset must be 0 or 1, got %d", offset)
	}

	var indices []int
	for i := offset; i < img.NVols(); i += 2 {
		indices = append(indices, i)
	}
	return img.Volumes(indices)
}

// Interleave merges two series into one, alternating a[0], b[0], a[1], b[1],
// and so on. The inputs must agree on grid and datatype, and a may hold at
// most one more volume than b.
func Interleave(a, b *Image) (*Image, error) {
	if err := sameGrid(a, b); err != nil {
		return nil, err
	}

	na, nb := a.NVols(), b.NVols()
	if na != nb && na != nb+1 {
		return nil, fmt.Errorf("nifti: cannot interleave %d volumes with %d", na, nb)
	}

	vb := a.volBytes()
	out := a.withVols(na + nb)
	for i := 0; i < na; i++ {
		copy(out.Data[(2*i)*vb:(2*i+1)*vb], a.Data[i*vb:(i+1)*vb])
	}
	for i := 0; i < nb; i++ {
		copy(out.Data[(2*i+1)*vb:(2*i+2)*vb], b.Data[i*vb:(i+1)*vb])
	}
	return out, nil
}

// FlipY reverses the y axis of every volume in place. The phase-encoding
// direction of these acquisitions runs along y, so this converts between AP
// and PA orientation on disk.
func (img *Image) FlipY() {
	nx, ny, nz, nt := img.Dims()
	rowBytes := nx * int(img.Header.Bitpix) / 8
	planeBytes := rowBytes * ny

	tmp := make([]byte, rowBytes)
	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			plane := img.Data[(t*nz+z)*planeBytes : (t*nz+z+1)*planeBytes]
			for y := 0; y < ny/2; y++ {
				top := plane[y*rowBytes : (y+1)*rowBytes]
				bot := plane[(ny-1-y)*rowBytes : (ny-y)*rowBytes]
				copy(tmp, top)
				copy(top, bot)
				copy(bot, tmp)
			}
		}
	}
}

// withVols clones the receiver's header for a result with nt volumes and
// allocates its voxel buffer.
func (img *Image) withVols(nt int) *Image {
	h := img.Header
	h.Dim[4] = int16(nt)
	h.Dim[0] = 4
	if nt <= 1 {
		h.Dim[0] = 3
		h.Dim[4] = 1
	}

	out := &Image{Header: h, ByteOrder: img.ByteOrder}
	out.Data = make([]byte, out.volBytes()*out.NVols())
	return out
}

func sameGrid(a, b *Image) error {
	ax, ay, az, _ := a.Dims()
	bx, by, bz, _ := b.Dims()
	if ax != bx || ay != by || az != bz || a.Header.Datatype != b.Header.Datatype {
		return fmt.Errorf("nifti: images disagree on grid or datatype: %dx%dx%d dt %d vs %dx%dx%d dt %d",
			ax, ay, az, a.Header.Datatype, bx, by, bz, b.Header.Datatype)
	}
	return nil
}
