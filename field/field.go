// Package field holds the scalar grid container of the particle-in-cell
// core: a 2D or 3D staggered grid stored as one flat row-major buffer, with
// per-face send/receive slabs for halo exchange between patches and the
// region compositor that moves patch data in and out of larger fields.
package field

import (
	"fmt"

	"github.com/notargets/picgrid/device"
	"github.com/notargets/picgrid/utils"
	"gonum.org/v1/gonum/mat"
)

// Field is one scalar quantity on a staggered grid. Along axis j the grid is
// primal (IsDual[j] == 0) or dual (IsDual[j] == 1), dual axes carrying one
// more point. The element (i,j,k) lives at i*Dims[1]*Dims[2] + j*Dims[2] + k.
type Field struct {
	Name   string
	Dims   []int // Allocated extents, arity fixed at construction
	IsDual []int
	base   []int // Extents before staggering
	data   []float64
	// Face tables, indexed by 2*axis+side, nil until requested
	send, recv [6]*Field
	dev        device.Device
	adoptedBy  string
}

// NewField allocates a zeroed field that is primal along every axis.
func NewField(name string, dims []int) (f *Field) {
	f = NewDeferredField(name, dims)
	f.Allocate(dims)
	return
}

// NewStaggeredField allocates a zeroed field with the placement given by
// mainDim and isPrimal, see AllocateStaggered.
func NewStaggeredField(name string, dims []int, mainDim int, isPrimal bool) (f *Field) {
	f = NewDeferredField(name, dims)
	f.AllocateStaggered(mainDim, isPrimal)
	return
}

// NewDeferredField records name and extents without allocating storage.
func NewDeferredField(name string, dims []int) *Field {
	if len(dims) != 2 && len(dims) != 3 {
		panic(fmt.Errorf("field %s: arity %d not supported, need 2 or 3", name, len(dims)))
	}
	return &Field{
		Name:   name,
		Dims:   append([]int{}, dims...),
		IsDual: make([]int, len(dims)),
		base:   append([]int{}, dims...),
	}
}

func (f *Field) Arity() int { return len(f.Dims) }

// GlobalDims is the element count of the buffer.
func (f *Field) GlobalDims() int { return utils.Prod(f.Dims) }

// Allocate (re)allocates a zeroed, fully primal buffer of extent dims. Face
// buffers already created are kept.
func (f *Field) Allocate(dims []int) {
	if len(dims) != f.Arity() {
		panic(fmt.Errorf("field %s: cannot allocate %d dims on a field of arity %d",
			f.Name, len(dims), f.Arity()))
	}
	f.dropData()
	copy(f.base, dims)
	copy(f.Dims, dims)
	for j := range f.IsDual {
		f.IsDual[j] = 0
	}
	f.setData(make([]float64, f.GlobalDims()))
}

// AllocateStaggered derives the per axis placement from the field's main
// axis: dual along mainDim for a non primal field, dual along every other axis
// for a primal one. Each dual axis gains one point.
func (f *Field) AllocateStaggered(mainDim int, isPrimal bool) {
	if mainDim < 0 {
		panic(fmt.Errorf("field %s: negative main axis %d", f.Name, mainDim))
	}
	f.dropData()
	for j := range f.Dims {
		if (j == mainDim && !isPrimal) || (j != mainDim && isPrimal) {
			f.IsDual[j] = 1
		} else {
			f.IsDual[j] = 0
		}
		f.Dims[j] = f.base[j] + f.IsDual[j]
	}
	f.setData(make([]float64, f.GlobalDims()))
}

// AdoptBuffer releases the current storage and takes over donor's buffer and
// shape. The donor is left without storage and any later access to its data
// is fatal.
func (f *Field) AdoptBuffer(donor *Field) {
	if donor.Arity() != f.Arity() {
		panic(fmt.Errorf("field %s: cannot adopt the buffer of %s, arity %d != %d",
			f.Name, donor.Name, donor.Arity(), f.Arity()))
	}
	donor.checkValid()
	f.dropData()
	copy(f.Dims, donor.Dims)
	copy(f.IsDual, donor.IsDual)
	copy(f.base, donor.base)
	buf := donor.data
	if donor.dev != nil {
		donor.dev.Unmap(buf)
	}
	donor.data = nil
	donor.adoptedBy = f.Name
	f.setData(buf)
}

func (f *Field) setData(buf []float64) {
	f.data = buf
	f.adoptedBy = ""
	if f.dev != nil {
		f.dev.Map(f.Name, f.data)
	}
}

func (f *Field) checkValid() {
	if f.adoptedBy != "" {
		panic(fmt.Errorf("field %s: buffer was adopted by %s", f.Name, f.adoptedBy))
	}
	if f.data == nil {
		panic(fmt.Errorf("field %s: no buffer allocated", f.Name))
	}
}

// Data is the flat buffer, shared with the field.
func (f *Field) Data() []float64 {
	f.checkValid()
	return f.data
}

func (f *Field) Allocated() bool { return f.data != nil }

func (f *Field) Index(idx ...int) (k int) {
	switch len(idx) {
	case 2:
		k = idx[0]*f.Dims[1] + idx[1]
	case 3:
		k = (idx[0]*f.Dims[1]+idx[1])*f.Dims[2] + idx[2]
	default:
		panic(fmt.Errorf("field %s: index of arity %d", f.Name, len(idx)))
	}
	return
}

func (f *Field) At2(i, j int) float64     { return f.data[i*f.Dims[1]+j] }
func (f *Field) Set2(i, j int, v float64) { f.data[i*f.Dims[1]+j] = v }
func (f *Field) Add2(i, j int, v float64) { f.data[i*f.Dims[1]+j] += v }

func (f *Field) At3(i, j, k int) float64 {
	return f.data[(i*f.Dims[1]+j)*f.Dims[2]+k]
}
func (f *Field) Set3(i, j, k int, v float64) {
	f.data[(i*f.Dims[1]+j)*f.Dims[2]+k] = v
}
func (f *Field) Add3(i, j, k int, v float64) {
	f.data[(i*f.Dims[1]+j)*f.Dims[2]+k] += v
}

func (f *Field) Zero() {
	for i := range f.Data() {
		f.data[i] = 0
	}
}

// CopyFrom copies the values of a field of identical shape.
func (f *Field) CopyFrom(src *Field) {
	if !sameDims(f.Dims, src.Dims) {
		panic(fmt.Errorf("field %s: cannot copy from %s, dims %v != %v",
			f.Name, src.Name, f.Dims, src.Dims))
	}
	copy(f.Data(), src.Data())
}

// Dense is a matrix view of a 2D field, sharing its buffer.
func (f *Field) Dense() *mat.Dense {
	if f.Arity() != 2 {
		panic(fmt.Errorf("field %s: dense view needs a 2D field, have %dD", f.Name, f.Arity()))
	}
	return mat.NewDense(f.Dims[0], f.Dims[1], f.Data())
}

// SetDevice makes dev the execution environment of the field. The buffer and
// the face buffers of exchanged quantities become resident on dev.
func (f *Field) SetDevice(dev device.Device) {
	f.unmapAll()
	f.dev = dev
	if dev == nil {
		return
	}
	if f.data != nil {
		dev.Map(f.Name, f.data)
	}
	for face := range f.send {
		f.mapFace(face)
	}
}

func (f *Field) Device() device.Device { return f.dev }

// Release drops the buffer and the face buffers.
func (f *Field) Release() { f.release() }

// dropData frees the buffer only. Face buffers survive a reallocation and
// are replaced by CreateSubFields when the new shape no longer matches.
func (f *Field) dropData() {
	if f.dev != nil {
		f.dev.Unmap(f.data)
	}
	f.data = nil
}

func (f *Field) release() {
	f.unmapAll()
	for face := range f.send {
		f.send[face], f.recv[face] = nil, nil
	}
	f.data = nil
}

func (f *Field) unmapAll() {
	if f.dev == nil {
		return
	}
	f.dev.Unmap(f.data)
	for face := range f.send {
		f.unmapFace(face)
	}
}

func sameDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
