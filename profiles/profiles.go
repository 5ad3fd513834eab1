// Package profiles holds the value functions used to initialize grids and
// particle densities: space profiles evaluated at a point and time envelopes
// evaluated at an instant.
package profiles

import (
	"math"

	"github.com/notargets/picgrid/utils"
)

type Profile interface {
	ValueAt(x []float64) float64
}

type TimeProfile interface {
	ValueAt(t float64) float64
}

// Func adapts an ordinary function to Profile.
type Func func(x []float64) float64

func (f Func) ValueAt(x []float64) float64 { return f(x) }

// TimeFunc adapts an ordinary function to TimeProfile.
type TimeFunc func(t float64) float64

func (f TimeFunc) ValueAt(t float64) float64 { return f(t) }

type Constant struct {
	Value  float64
	Vacuum []float64 // One per axis, points below it are empty
}

func (c *Constant) ValueAt(x []float64) float64 {
	for d, vac := range c.Vacuum {
		if x[d] < vac {
			return 0
		}
	}
	return c.Value
}

type Ramp struct {
	Vacuum, Plateau, Slope1, Slope2 float64
}

// trapeze is 0 before the vacuum edge, rises linearly over Slope1, holds 1
// over Plateau, falls linearly over Slope2, then is 0.
func (r Ramp) trapeze(x float64) float64 {
	x -= r.Vacuum
	switch {
	case x < 0:
		return 0
	case x < r.Slope1:
		return x / r.Slope1
	case x < r.Slope1+r.Plateau:
		return 1
	case x < r.Slope1+r.Plateau+r.Slope2:
		return 1 - (x-r.Slope1-r.Plateau)/r.Slope2
	}
	return 0
}

type Trapezoidal struct {
	Max  float64
	Axes []Ramp
}

func (tp *Trapezoidal) ValueAt(x []float64) (val float64) {
	val = tp.Max
	for d, r := range tp.Axes {
		val *= r.trapeze(x[d])
	}
	return
}

type Bell struct {
	Vacuum, Length, Center, Sigma float64
	Order                         int
}

// SigmaFromFWHM converts a full width at half maximum to the divisor used in
// exp(-(x-c)^order/sigma).
func SigmaFromFWHM(fwhm float64, order int) float64 {
	return utils.POW(0.5*fwhm, order) / math.Ln2
}

func (b Bell) value(x float64) float64 {
	if b.Order == 0 {
		return 1
	}
	if x < b.Vacuum || x >= b.Vacuum+b.Length {
		return 0
	}
	return math.Exp(-utils.POW(x-b.Center, b.Order) / b.Sigma)
}

type Gaussian struct {
	Max  float64
	Axes []Bell
}

func (g *Gaussian) ValueAt(x []float64) (val float64) {
	val = g.Max
	for d, b := range g.Axes {
		val *= b.value(x[d])
	}
	return
}

// Polygon is a piecewise linear function through Points, zero outside
// [Points[0], Points[N-1]).
type Polygon struct {
	Points, Values, slopes []float64
}

func NewPolygon(points, values []float64) (p *Polygon) {
	p = &Polygon{
		Points: points,
		Values: values,
		slopes: make([]float64, len(points)),
	}
	for i := 1; i < len(points); i++ {
		if points[i] == points[i-1] {
			continue
		}
		p.slopes[i-1] = (values[i] - values[i-1]) / (points[i] - points[i-1])
	}
	return
}

func (p *Polygon) value(x float64) float64 {
	if len(p.Points) == 0 || x < p.Points[0] {
		return 0
	}
	for i := 1; i < len(p.Points); i++ {
		if x < p.Points[i] {
			return p.Values[i-1] + p.slopes[i-1]*(x-p.Points[i-1])
		}
	}
	return 0
}

// Polygonal varies along the first axis only.
type Polygonal struct {
	*Polygon
}

func (p *Polygonal) ValueAt(x []float64) float64 { return p.value(x[0]) }

type Wave struct {
	Amplitude, Vacuum, Length, Phi, Number float64
}

type Cosine struct {
	Base float64
	Axes []Wave
}

func (c *Cosine) ValueAt(x []float64) (val float64) {
	val = 1
	for d, w := range c.Axes {
		xx := x[d]
		if xx < w.Vacuum || xx >= w.Vacuum+w.Length {
			return 0
		}
		val *= c.Base + w.Amplitude*math.Cos(w.Phi+2*math.Pi*w.Number*(xx-w.Vacuum)/w.Length)
	}
	return
}
