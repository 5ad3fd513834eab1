package field

import (
	"fmt"

	"github.com/notargets/picgrid/device"
)

var host device.Device = device.NewHost()

// padded returns the extents padded to three axes, missing leading axes of
// extent one, so 2D rows stay contiguous along the last axis.
func (f *Field) padded() (d [3]int) {
	d = [3]int{1, 1, 1}
	off := 3 - f.Arity()
	for j, n := range f.Dims {
		d[j+off] = n
	}
	return
}

func (f *Field) padAxis(axis int) int { return axis + 3 - f.Arity() }

// box is a block of n points starting at start inside a grid of extent dims.
type box struct {
	dims, start, n [3]int
}

func (b box) fits() bool {
	for d := 0; d < 3; d++ {
		if b.start[d] < 0 || b.n[d] < 0 || b.start[d]+b.n[d] > b.dims[d] {
			return false
		}
	}
	return true
}

// compact is the whole of a buffer of extent n.
func compact(n [3]int) box { return box{dims: n, n: n} }

// forRows walks two blocks of identical shape row by row along the last axis
// and hands fn the row offsets in each grid. Rows are distributed over dev.
func forRows(dev device.Device, a, b box, fn func(ia, ib, rowLen int)) {
	if a.n != b.n {
		panic(fmt.Errorf("block shapes differ: %v and %v", a.n, b.n))
	}
	var (
		n      = a.n
		nRows  = n[0] * n[1]
		rowLen = n[2]
	)
	if nRows == 0 || rowLen == 0 {
		return
	}
	dev.ParallelFor(nRows, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			i, j := r/n[1], r%n[1]
			ia := ((a.start[0]+i)*a.dims[1]+a.start[1]+j)*a.dims[2] + a.start[2]
			ib := ((b.start[0]+i)*b.dims[1]+b.start[1]+j)*b.dims[2] + b.start[2]
			fn(ia, ib, rowLen)
		}
	})
}
