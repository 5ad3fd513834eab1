package patch

import (
	"github.com/notargets/picgrid/InputParameters"
	"github.com/notargets/picgrid/field"
)

// Region is one large patch spanning the whole box with RegionOversize ghost
// cells, used to gather or scatter patch fields.
type Region struct {
	Params    *InputParameters.Params
	CellStart []int
	EM        *ElectroMagn
}

func NewRegion(ip *InputParameters.Params) (r *Region) {
	var (
		n    = ip.GlobalCells()
		dims = make([]int, len(n))
	)
	r = &Region{Params: ip, CellStart: make([]int, len(n))}
	for d := range n {
		r.CellStart[d] = -ip.RegionOversize[d]
		dims[d] = n[d] + 1 + 2*ip.RegionOversize[d]
	}
	r.EM = NewElectroMagn(dims, "_region", nil)
	return
}

// Overlay places patch p inside the region.
func (r *Region) Overlay(p *Patch) field.Overlay {
	start := make([]int, len(p.Coords))
	for d := range start {
		start[d] = p.Coords[d] * p.NSpace[d]
	}
	return field.Overlay{
		NSpace:          p.NSpace,
		Oversize:        p.Oversize,
		RegionOversize:  r.Params.RegionOversize,
		PatchStart:      start,
		RegionCellStart: r.CellStart,
	}
}

// Origin is the position of region point zero.
func (r *Region) Origin() (x []float64) {
	x = make([]float64, len(r.CellStart))
	for d := range x {
		x[d] = float64(r.CellStart[d]) * r.Params.CellLength[d]
	}
	return
}

// Gather copies one quantity of every patch into the region field out. The
// patches must agree on shared points, as they do after an exchange.
func (r *Region) Gather(dom *Domain, out *field.Field, pick func(em *ElectroMagn) *field.Field) {
	for _, p := range dom.Patches {
		pick(p.EM).Put(out, r.Overlay(p))
	}
}

// Accumulate sums one quantity of every patch into the zeroed region field
// out. Applied to raw deposits it yields the same totals as a sum exchange
// followed by Gather, except that deposits beyond a periodic edge stay in
// the region ghost cells.
func (r *Region) Accumulate(dom *Domain, out *field.Field, pick func(em *ElectroMagn) *field.Field) {
	out.Zero()
	for _, p := range dom.Patches {
		pick(p.EM).Add(out, r.Overlay(p))
	}
}

// Scatter fills one quantity of every patch, ghosts included, from the
// region field in.
func (r *Region) Scatter(dom *Domain, in *field.Field, pick func(em *ElectroMagn) *field.Field) {
	for _, p := range dom.Patches {
		pick(p.EM).Get(in, r.Overlay(p))
	}
}
