package field

import (
	"fmt"

	"github.com/notargets/picgrid/device"
	"gonum.org/v1/gonum/floats"
)

/*
Halo exchange between neighbouring patches uses one pair of send/receive
slabs per face, face = 2*axis + side, side 0 facing the lower neighbour.

Point exchange (overwrite) moves a slab of g points taken inside the patch
into the ghost layer of the neighbour. Sum exchange (overlap-add) moves the
whole 2g+1+dual wide overlap and adds it into the neighbour, folding back the
contributions deposited in ghost cells. A patch always receives from the
opposite side of the face it sends on: what goes out on side 0 arrives in the
neighbour's side 1 receive slab.
*/

func (f *Field) checkFace(axis, side int) {
	if axis < 0 || axis >= f.Arity() || side < 0 || side > 1 {
		panic(fmt.Errorf("field %s: no face for axis %d side %d", f.Name, axis, side))
	}
}

// CreateSubFields makes the send/receive pair of the face width points wide.
// A pair of the same width is reused, a different width replaces it.
func (f *Field) CreateSubFields(axis, side, width int) {
	f.checkFace(axis, side)
	var (
		face = 2*axis + side
		dims = append([]int{}, f.Dims...)
	)
	dims[axis] = width
	if f.send[face] != nil {
		if sameDims(f.send[face].Dims, dims) {
			return
		}
		f.unmapFace(face)
	}
	suffix := fmt.Sprintf("%d%d", axis, side)
	f.send[face] = NewField(f.Name+"_send"+suffix, dims)
	f.recv[face] = NewField(f.Name+"_recv"+suffix, dims)
	f.mapFace(face)
}

// CreateSumSubFields makes the overlap wide pair used by the sum exchange.
func (f *Field) CreateSumSubFields(axis, side, ghost int) {
	f.checkFace(axis, side)
	f.CreateSubFields(axis, side, sumWidth(f, axis, ghost))
}

func sumWidth(f *Field, axis, ghost int) int { return 2*ghost + 1 + f.IsDual[axis] }

func (f *Field) SendField(axis, side int) *Field {
	f.checkFace(axis, side)
	return f.send[2*axis+side]
}

func (f *Field) RecvField(axis, side int) *Field {
	f.checkFace(axis, side)
	return f.recv[2*axis+side]
}

// offloaded reports whether exchanges of this quantity run on the device:
// magnetic fields for the point exchange, currents for the sum exchange.
func (f *Field) offloaded(kind byte) bool {
	return f.dev != nil && len(f.Name) > 0 && f.Name[0] == kind
}

func (f *Field) exec(kind byte) device.Device {
	if f.offloaded(kind) {
		return f.dev
	}
	return host
}

func (f *Field) mapFace(face int) {
	if f.send[face] == nil || !(f.offloaded('B') || f.offloaded('J')) {
		return
	}
	f.dev.Map(f.send[face].Name, f.send[face].data)
	f.dev.Map(f.recv[face].Name, f.recv[face].data)
}

func (f *Field) unmapFace(face int) {
	if f.dev == nil || f.send[face] == nil {
		return
	}
	f.dev.Unmap(f.send[face].data)
	f.dev.Unmap(f.recv[face].data)
}

func (f *Field) faceBuffer(table [6]*Field, axis, face, width int) (sub *Field) {
	if sub = table[face]; sub == nil {
		panic(fmt.Errorf("field %s: face %d buffer not created", f.Name, face))
	}
	dims := append([]int{}, f.Dims...)
	dims[axis] = width
	if !sameDims(sub.Dims, dims) {
		panic(fmt.Errorf("field %s: face %d buffer is %v, exchange needs %v",
			f.Name, face, sub.Dims, dims))
	}
	return
}

// slab is the block of width points along axis starting at start, full
// extent along the other axes.
func (f *Field) slab(axis, start, width int) (b box) {
	pa := f.padAxis(axis)
	b.dims = f.padded()
	b.n = b.dims
	b.start[pa] = start
	b.n[pa] = width
	if !b.fits() {
		panic(fmt.Errorf("field %s: slab [%d,%d) outside axis %d of extent %d",
			f.Name, start, start+width, axis, f.Dims[axis]))
	}
	return
}

func (f *Field) gather(dev device.Device, b box, sub *Field) {
	var (
		data = f.Data()
		buf  = sub.Data()
	)
	forRows(dev, b, compact(sub.padded()), func(ig, is, n int) {
		copy(buf[is:is+n], data[ig:ig+n])
	})
}

func (f *Field) scatter(dev device.Device, b box, sub *Field, add bool) {
	var (
		data = f.Data()
		buf  = sub.Data()
	)
	forRows(dev, b, compact(sub.padded()), func(ig, is, n int) {
		if add {
			floats.Add(data[ig:ig+n], buf[is:is+n])
		} else {
			copy(data[ig:ig+n], buf[is:is+n])
		}
	})
}

// ExtractFieldsExch copies the g points next to the neighbour's ghost layer
// into the send slab of the face.
func (f *Field) ExtractFieldsExch(axis, side, ghost int) {
	f.checkFace(axis, side)
	var (
		face  = 2*axis + side
		sub   = f.faceBuffer(f.send, axis, face, ghost)
		dual  = f.IsDual[axis]
		start = side*(f.Dims[axis]-(2*ghost+1+dual)) + (1-side)*(ghost+1+dual)
	)
	f.gather(f.exec('B'), f.slab(axis, start, ghost), sub)
}

// InjectFieldsExch completes a send toward side: what the neighbour on the
// opposite side extracted arrives in that face's receive slab and overwrites
// the ghost layer there.
func (f *Field) InjectFieldsExch(axis, side, ghost int) {
	f.checkFace(axis, side)
	var (
		face  = 2*axis + 1 - side
		sub   = f.faceBuffer(f.recv, axis, face, ghost)
		start = (1 - side) * (f.Dims[axis] - ghost)
	)
	f.scatter(f.exec('B'), f.slab(axis, start, ghost), sub, false)
}

func (f *Field) ExtractFieldsSum(axis, side, ghost int) {
	f.checkFace(axis, side)
	var (
		face  = 2*axis + side
		width = sumWidth(f, axis, ghost)
		sub   = f.faceBuffer(f.send, axis, face, width)
		start = side * (f.Dims[axis] - width)
	)
	f.gather(f.exec('J'), f.slab(axis, start, width), sub)
}

// InjectFieldsSum completes a send toward side by adding the overlap received
// on the opposite face. Injecting twice adds twice.
func (f *Field) InjectFieldsSum(axis, side, ghost int) {
	f.checkFace(axis, side)
	var (
		face  = 2*axis + 1 - side
		width = sumWidth(f, axis, ghost)
		sub   = f.faceBuffer(f.recv, axis, face, width)
		start = (1 - side) * (f.Dims[axis] - width)
	)
	f.scatter(f.exec('J'), f.slab(axis, start, width), sub, true)
}
