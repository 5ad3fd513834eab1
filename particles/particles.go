// Package particles holds macro-particle batches as structures of arrays and
// the per-step buffers the pusher leaves behind for current deposition.
package particles

import (
	"fmt"
	"math"
)

type Particles struct {
	NDim     int
	Position [][]float64  // [NDim][N]
	Momentum [3][]float64 // Normalized, p/(mc)
	Charge   []int16
	Weight   []float64
}

func NewParticles(nDim, n int) (p *Particles) {
	if nDim < 1 || nDim > 3 {
		panic(fmt.Errorf("particles: dimensionality %d not supported", nDim))
	}
	p = &Particles{NDim: nDim, Position: make([][]float64, nDim)}
	p.Resize(n)
	return
}

func (p *Particles) Size() int { return len(p.Weight) }

// Resize grows or truncates every array to n particles, new entries zeroed.
func (p *Particles) Resize(n int) {
	for d := range p.Position {
		p.Position[d] = resize(p.Position[d], n)
	}
	for d := range p.Momentum {
		p.Momentum[d] = resize(p.Momentum[d], n)
	}
	p.Weight = resize(p.Weight, n)
	if n <= cap(p.Charge) {
		old := len(p.Charge)
		p.Charge = p.Charge[:n]
		for i := old; i < n; i++ {
			p.Charge[i] = 0
		}
	} else {
		c := make([]int16, n)
		copy(c, p.Charge)
		p.Charge = c
	}
}

func resize(s []float64, n int) []float64 {
	if n <= cap(s) {
		old := len(s)
		s = s[:n]
		for i := old; i < n; i++ {
			s[i] = 0
		}
		return s
	}
	ns := make([]float64, n)
	copy(ns, s)
	return ns
}

// Add appends one particle.
func (p *Particles) Add(pos []float64, mom [3]float64, charge int16, weight float64) {
	for d := range p.Position {
		p.Position[d] = append(p.Position[d], pos[d])
	}
	for d := range p.Momentum {
		p.Momentum[d] = append(p.Momentum[d], mom[d])
	}
	p.Charge = append(p.Charge, charge)
	p.Weight = append(p.Weight, weight)
}

// CopyParticle appends particle i of src.
func (p *Particles) CopyParticle(src *Particles, i int) {
	pos := make([]float64, p.NDim)
	for d := range pos {
		pos[d] = src.Position[d][i]
	}
	p.Add(pos, [3]float64{src.Momentum[0][i], src.Momentum[1][i], src.Momentum[2][i]},
		src.Charge[i], src.Weight[i])
}

func (p *Particles) Swap(i, j int) {
	for d := range p.Position {
		p.Position[d][i], p.Position[d][j] = p.Position[d][j], p.Position[d][i]
	}
	for d := range p.Momentum {
		p.Momentum[d][i], p.Momentum[d][j] = p.Momentum[d][j], p.Momentum[d][i]
	}
	p.Charge[i], p.Charge[j] = p.Charge[j], p.Charge[i]
	p.Weight[i], p.Weight[j] = p.Weight[j], p.Weight[i]
}

// EraseUnordered removes particle i by moving the last particle into its slot.
func (p *Particles) EraseUnordered(i int) {
	last := p.Size() - 1
	p.Swap(i, last)
	p.Resize(last)
}

func (p *Particles) Lorentz(i int) float64 {
	px, py, pz := p.Momentum[0][i], p.Momentum[1][i], p.Momentum[2][i]
	return math.Sqrt(1 + px*px + py*py + pz*pz)
}

// TotalCharge is the sum of charge times weight.
func (p *Particles) TotalCharge() (q float64) {
	for i, w := range p.Weight {
		q += float64(p.Charge[i]) * w
	}
	return
}
