// Package patch describes the decomposition of the simulation box into
// patches: their placement, neighbours, field sets and particles, and the
// region that spans all of them.
package patch

import (
	"fmt"
	"math"

	"github.com/notargets/picgrid/InputParameters"
	"github.com/notargets/picgrid/device"
	"github.com/notargets/picgrid/field"
	"github.com/notargets/picgrid/particles"
	"github.com/notargets/picgrid/types"
)

// NoNeighbour marks a face on an open domain edge.
const NoNeighbour = -1

type Patch struct {
	Number     int
	Coords     []int
	NSpace     []int
	Oversize   []int
	NPatches   []int
	CellLength []float64
	Neighbours [6]int // Patch number per face, 2*axis + side
	EM         *ElectroMagn
	Species    []*particles.Particles
	Dynamics   []*particles.Dynamics
}

// CellStartingGlobalIndex is the global index of the first cell of the
// patch, ghost cells included.
func (p *Patch) CellStartingGlobalIndex(d int) int {
	return p.Coords[d]*p.NSpace[d] - p.Oversize[d]
}

func (p *Patch) CellStart() (cs []int) {
	cs = make([]int, len(p.Coords))
	for d := range cs {
		cs[d] = p.CellStartingGlobalIndex(d)
	}
	return
}

// Origin is the position of local primal point zero.
func (p *Patch) Origin() (x []float64) {
	x = make([]float64, len(p.Coords))
	for d := range x {
		x[d] = float64(p.CellStartingGlobalIndex(d)) * p.CellLength[d]
	}
	return
}

// Bounds is the owned interval [lo, hi) of positions along d.
func (p *Patch) Bounds(d int) (lo, hi float64) {
	lo = float64(p.Coords[d]*p.NSpace[d]) * p.CellLength[d]
	hi = lo + float64(p.NSpace[d])*p.CellLength[d]
	return
}

func (p *Patch) IsFirst(d int) bool { return p.Coords[d] == 0 }
func (p *Patch) IsLast(d int) bool  { return p.Coords[d] == p.NPatches[d]-1 }

// InteriorRanges are the Norm2 ranges covering the points owned by the
// patch, so that summing over all patches visits every global point once.
// Primal points own [Oversize, Oversize+NSpace), the last patch also owns
// the closing node. Dual points start one later except on the first patch.
func (p *Patch) InteriorRanges() (istart, bufsize [3][2]int) {
	for d := 0; d < 3; d++ {
		if d >= len(p.Coords) {
			bufsize[d] = [2]int{1, 1}
			continue
		}
		first, last := b2i(p.IsFirst(d)), b2i(p.IsLast(d))
		istart[d][0] = p.Oversize[d]
		istart[d][1] = p.Oversize[d] + 1 - first
		bufsize[d][0] = p.NSpace[d] + last
		bufsize[d][1] = p.NSpace[d] + first + last
	}
	return
}

// OwnedRanges are the InteriorRanges of p less the points repeated across a
// periodic edge, so that sums over all patches count every distinct point
// once.
func (dom *Domain) OwnedRanges(p *Patch) (istart, bufsize [3][2]int) {
	istart, bufsize = p.InteriorRanges()
	for d := range p.Coords {
		if dom.BCs[d] == types.BC_Periodic && p.IsLast(d) {
			bufsize[d][0]--
			bufsize[d][1] -= 2
		}
	}
	return
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// PrimalDims are the patch field extents before staggering.
func (p *Patch) PrimalDims() (dims []int) {
	dims = make([]int, len(p.NSpace))
	for d := range dims {
		dims[d] = p.NSpace[d] + 1 + 2*p.Oversize[d]
	}
	return
}

// ElectroMagn is the field set of a patch or region.
type ElectroMagn struct {
	Jx, Jy, Jz, Rho *field.Field
	Bx, By, Bz      *field.Field
	RhoOld          *field.Field // Charge density before the last deposition
}

// NewElectroMagn allocates the Yee staggered set on primal extents dims.
func NewElectroMagn(dims []int, suffix string, dev device.Device) (em *ElectroMagn) {
	em = &ElectroMagn{
		Jx:     field.NewStaggeredField("Jx"+suffix, dims, 0, false),
		Jy:     field.NewStaggeredField("Jy"+suffix, dims, 1, false),
		Jz:     field.NewStaggeredField("Jz"+suffix, dims, 2, false),
		Rho:    field.NewField("Rho"+suffix, dims),
		Bx:     field.NewStaggeredField("Bx"+suffix, dims, 0, true),
		By:     field.NewStaggeredField("By"+suffix, dims, 1, true),
		Bz:     field.NewStaggeredField("Bz"+suffix, dims, 2, true),
		RhoOld: field.NewField("RhoOld"+suffix, dims),
	}
	for _, f := range em.All() {
		f.SetDevice(dev)
	}
	return
}

func (em *ElectroMagn) All() []*field.Field {
	return []*field.Field{em.Jx, em.Jy, em.Jz, em.Rho, em.Bx, em.By, em.Bz, em.RhoOld}
}

func (em *ElectroMagn) Currents() []*field.Field {
	return []*field.Field{em.Jx, em.Jy, em.Jz, em.Rho}
}

func (em *ElectroMagn) Magnetic() []*field.Field {
	return []*field.Field{em.Bx, em.By, em.Bz}
}

// RestartRhoJ keeps the charge density in RhoOld and zeroes the deposits.
func (em *ElectroMagn) RestartRhoJ() {
	em.RhoOld.CopyFrom(em.Rho)
	for _, f := range em.Currents() {
		f.Zero()
	}
}

func (em *ElectroMagn) Release() {
	for _, f := range em.All() {
		f.Release()
	}
}

// Domain is the set of patches tiling the box, numbered row major over
// their coordinates.
type Domain struct {
	Params  *InputParameters.Params
	BCs     []types.BCFLAG
	Patches []*Patch
}

func NewDomain(ip *InputParameters.Params, dev device.Device) (dom *Domain) {
	var (
		nDim = ip.NDim()
		np   = 1
	)
	for _, n := range ip.NPatches {
		np *= n
	}
	dom = &Domain{Params: ip, BCs: ip.BCs(), Patches: make([]*Patch, np)}
	for n := 0; n < np; n++ {
		p := &Patch{
			Number:     n,
			Coords:     dom.Coords(n),
			NSpace:     ip.NSpace,
			Oversize:   ip.Oversize,
			NPatches:   ip.NPatches,
			CellLength: ip.CellLength,
		}
		for axis := 0; axis < nDim; axis++ {
			for side := 0; side < 2; side++ {
				p.Neighbours[2*axis+side] = dom.neighbour(p.Coords, axis, side)
			}
		}
		for face := 2 * nDim; face < 6; face++ {
			p.Neighbours[face] = NoNeighbour
		}
		p.EM = NewElectroMagn(p.PrimalDims(), "", dev)
		dom.Patches[n] = p
	}
	return
}

// Coords is the inverse of Number.
func (dom *Domain) Coords(n int) (c []int) {
	np := dom.Params.NPatches
	c = make([]int, len(np))
	for d := len(np) - 1; d >= 0; d-- {
		c[d] = n % np[d]
		n /= np[d]
	}
	return
}

func (dom *Domain) Number(c []int) (n int) {
	for d, np := range dom.Params.NPatches {
		n = n*np + c[d]
	}
	return
}

func (dom *Domain) neighbour(coords []int, axis, side int) int {
	var (
		np = dom.Params.NPatches[axis]
		c  = append([]int{}, coords...)
	)
	c[axis] += 2*side - 1
	if c[axis] < 0 || c[axis] >= np {
		if dom.BCs[axis] != types.BC_Periodic {
			return NoNeighbour
		}
		c[axis] = (c[axis] + np) % np
	}
	return dom.Number(c)
}

// Wrap folds a position back into a periodic box, reporting false when it
// has left through an open edge.
func (dom *Domain) Wrap(x []float64) bool {
	length := dom.Params.SimLength()
	for d := range x {
		if x[d] >= 0 && x[d] < length[d] {
			continue
		}
		if dom.BCs[d] != types.BC_Periodic {
			return false
		}
		if x[d] = math.Mod(x[d], length[d]); x[d] < 0 {
			x[d] += length[d]
		}
		// A tiny negative offset rounds up to the far edge
		if x[d] >= length[d] {
			x[d] = 0
		}
	}
	return true
}

// Owner is the number of the patch owning position x, which must be inside
// the box.
func (dom *Domain) Owner(x []float64) int {
	var (
		ip     = dom.Params
		length = ip.SimLength()
		c      = make([]int, len(x))
	)
	for d := range x {
		if x[d] < 0 || x[d] >= length[d] {
			panic(fmt.Errorf("position %v is outside the domain", x))
		}
		c[d] = int(x[d] / (float64(ip.NSpace[d]) * ip.CellLength[d]))
		// The quotient can round up to NPatches just below the far edge
		if c[d] >= ip.NPatches[d] {
			c[d] = ip.NPatches[d] - 1
		}
	}
	return dom.Number(c)
}

func (dom *Domain) Release() {
	for _, p := range dom.Patches {
		p.EM.Release()
	}
}
