package field

import (
	"fmt"

	"github.com/notargets/picgrid/profiles"
	"gonum.org/v1/gonum/floats"
)

// ShiftX moves the field delta slabs toward the origin along axis 0 and
// zeroes the delta slabs left at the far end. Used by moving windows.
func (f *Field) ShiftX(delta int) {
	data := f.Data()
	if delta < 0 {
		panic(fmt.Errorf("field %s: negative shift %d", f.Name, delta))
	}
	if delta == 0 {
		return
	}
	if delta >= f.Dims[0] {
		f.Zero()
		return
	}
	n := delta * (len(data) / f.Dims[0])
	copy(data, data[n:])
	tail := data[len(data)-n:]
	for i := range tail {
		tail[i] = 0
	}
}

// Norm2 is the sum of squares over a block. Along axis d the block starts at
// istart[d][IsDual[d]] and is bufsize[d][IsDual[d]] points long, so primal
// and dual fields select their own interior.
func (f *Field) Norm2(istart, bufsize [3][2]int) (nrm float64) {
	var (
		data = f.Data()
		b    = box{dims: f.padded(), n: [3]int{1, 1, 1}}
	)
	for d := 0; d < f.Arity(); d++ {
		pd := f.padAxis(d)
		b.start[pd] = istart[d][f.IsDual[d]]
		b.n[pd] = bufsize[d][f.IsDual[d]]
		if b.n[pd] <= 0 {
			return 0
		}
	}
	if !b.fits() {
		panic(fmt.Errorf("field %s: norm range start %v size %v outside %v",
			f.Name, b.start, b.n, f.Dims))
	}
	forRows(host, b, b, func(i, _, n int) {
		row := data[i : i+n]
		nrm += floats.Dot(row, row)
	})
	return
}

// ExtractSlice copies the plane fixedAxis == index of a 3D field into a 2D
// field whose extents are the two remaining axes in order.
func (f *Field) ExtractSlice(fixedAxis, index int, slice *Field) {
	if f.Arity() != 3 {
		panic(fmt.Errorf("field %s: slice extraction needs a 3D field, have %dD", f.Name, f.Arity()))
	}
	if fixedAxis < 0 || fixedAxis > 2 || index < 0 || index >= f.Dims[fixedAxis] {
		panic(fmt.Errorf("field %s: no plane %d along axis %d", f.Name, index, fixedAxis))
	}
	var free []int
	for d := 0; d < 3; d++ {
		if d != fixedAxis {
			free = append(free, d)
		}
	}
	want := []int{f.Dims[free[0]], f.Dims[free[1]]}
	if !sameDims(slice.Dims, want) {
		panic(fmt.Errorf("field %s: slice %s has extents %v, plane %d of axis %d has %v",
			f.Name, slice.Name, slice.Dims, index, fixedAxis, want))
	}
	var (
		data = f.Data()
		out  = slice.Data()
		idx  [3]int
	)
	idx[fixedAxis] = index
	for p := 0; p < want[0]; p++ {
		idx[free[0]] = p
		for q := 0; q < want[1]; q++ {
			idx[free[1]] = q
			out[p*want[1]+q] = data[f.Index(idx[0], idx[1], idx[2])]
		}
	}
}

func (f *Field) ExtractSliceYZ(ix int, slice *Field) { f.ExtractSlice(0, ix, slice) }
func (f *Field) ExtractSliceXZ(iy int, slice *Field) { f.ExtractSlice(1, iy, slice) }
func (f *Field) ExtractSliceXY(iz int, slice *Field) { f.ExtractSlice(2, iz, slice) }

// Initialize sets every point to p evaluated at its position. Point i of a
// primal axis sits at origin + i*cellLength, of a dual axis half a cell lower.
func (f *Field) Initialize(p profiles.Profile, origin, cellLength []float64) {
	var (
		data  = f.Data()
		arity = f.Arity()
		x     = make([]float64, arity)
	)
	if len(origin) < arity || len(cellLength) < arity {
		panic(fmt.Errorf("field %s: need %d origin and cell length components", f.Name, arity))
	}
	for k := range data {
		rem := k
		for d := arity - 1; d >= 0; d-- {
			i := rem % f.Dims[d]
			rem /= f.Dims[d]
			x[d] = origin[d] + (float64(i)-0.5*float64(f.IsDual[d]))*cellLength[d]
		}
		data[k] = p.ValueAt(x)
	}
}
