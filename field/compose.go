package field

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Overlay places a patch field inside a region field. All slices are per
// axis.
type Overlay struct {
	NSpace         []int // Cells per patch
	Oversize       []int // Patch ghost cells
	RegionOversize []int // Region ghost cells
	// PatchStart is the first owned cell of the patch, patch coordinates
	// times NSpace.
	PatchStart []int
	// RegionCellStart is the cell starting global index of the region,
	// ghost cells included.
	RegionCellStart []int
}

// blocks returns the patch block (the whole patch field, ghosts included)
// and the matching block of the region field.
func (ov *Overlay) blocks(patch, region *Field, isDual []int) (pb, rb box) {
	if patch.Arity() != region.Arity() {
		panic(fmt.Errorf("fields %s and %s: arity %d != %d",
			patch.Name, region.Name, patch.Arity(), region.Arity()))
	}
	pb = box{dims: patch.padded(), n: [3]int{1, 1, 1}}
	rb = box{dims: region.padded()}
	for d := 0; d < patch.Arity(); d++ {
		var (
			pd     = patch.padAxis(d)
			offset = ov.PatchStart[d] - (ov.RegionCellStart[d] + ov.RegionOversize[d])
		)
		pb.n[pd] = ov.NSpace[d] + 1 + isDual[d] + 2*ov.Oversize[d]
		rb.start[pd] = offset + ov.RegionOversize[d] - ov.Oversize[d]
	}
	rb.n = pb.n
	if !pb.fits() || !rb.fits() {
		panic(fmt.Errorf("fields %s and %s: overlay of %v points at %v does not fit %v in %v",
			patch.Name, region.Name, pb.n, rb.start, patch.Dims, region.Dims))
	}
	return
}

// Put overwrites the part of the region field out covered by this patch.
func (f *Field) Put(out *Field, ov Overlay) {
	pb, rb := ov.blocks(f, out, f.IsDual)
	src, dst := f.Data(), out.Data()
	forRows(host, pb, rb, func(ip, ir, n int) {
		copy(dst[ir:ir+n], src[ip:ip+n])
	})
}

// Add accumulates this patch into the region field out.
func (f *Field) Add(out *Field, ov Overlay) {
	pb, rb := ov.blocks(f, out, f.IsDual)
	src, dst := f.Data(), out.Data()
	forRows(host, pb, rb, func(ip, ir, n int) {
		floats.Add(dst[ir:ir+n], src[ip:ip+n])
	})
}

// Get fills this patch from the region field in, using the staggering of in.
func (f *Field) Get(in *Field, ov Overlay) {
	pb, rb := ov.blocks(f, in, in.IsDual)
	src, dst := in.Data(), f.Data()
	forRows(host, pb, rb, func(ip, ir, n int) {
		copy(dst[ip:ip+n], src[ir:ir+n])
	})
}
