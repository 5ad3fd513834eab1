package particles

import (
	"fmt"
	"math"
)

// Dynamics caches what the pusher knows about each particle before it moves:
// the nearest primal node relative to the patch and the offset from it, both
// stored axis major (Iold[i + axis*N]), and the inverse Lorentz factor.
type Dynamics struct {
	Iold     []int
	DeltaOld []float64
	InvGamma []float64
}

func (d *Dynamics) Resize(n, nDim int) {
	if cap(d.Iold) < n*nDim {
		d.Iold = make([]int, n*nDim)
		d.DeltaOld = make([]float64, n*nDim)
	}
	d.Iold, d.DeltaOld = d.Iold[:n*nDim], d.DeltaOld[:n*nDim]
	if cap(d.InvGamma) < n {
		d.InvGamma = make([]float64, n)
	}
	d.InvGamma = d.InvGamma[:n]
}

// StoreOld records positions before a push for a patch whose first cell,
// ghosts included, is cellStart.
func (d *Dynamics) StoreOld(p *Particles, cellStart []int, cellLength []float64) {
	if len(cellStart) < p.NDim || len(cellLength) < p.NDim {
		panic(fmt.Errorf("dynamics: need %d axes of geometry, have %d", p.NDim, len(cellStart)))
	}
	n := p.Size()
	d.Resize(n, p.NDim)
	for axis := 0; axis < p.NDim; axis++ {
		var (
			inv = 1 / cellLength[axis]
			pos = p.Position[axis]
		)
		for i := 0; i < n; i++ {
			xpn := pos[i] * inv
			ip := math.Round(xpn)
			d.Iold[i+axis*n] = int(ip) - cellStart[axis]
			d.DeltaOld[i+axis*n] = xpn - ip
		}
	}
	for i := 0; i < n; i++ {
		d.InvGamma[i] = 1 / p.Lorentz(i)
	}
}
