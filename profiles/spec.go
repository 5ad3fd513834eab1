package profiles

import (
	"fmt"
	"math"
	"strings"
)

// Spec is the input-file description of a profile. Params uses the axis
// prefixed names of the shape ("xvacuum", "yfwhm", ...), missing entries take
// the defaults derived from the simulation length or time.
type Spec struct {
	Name   string             `json:"Name"`
	Shape  string             `json:"Shape"`
	Params map[string]float64 `json:"Params"`
	Points []float64          `json:"Points"`
	Values []float64          `json:"Values"`
}

func (s *Spec) param(key string, def float64) float64 {
	if v, ok := s.Params[key]; ok {
		return v
	}
	return def
}

func (s *Spec) required(key string) (v float64, err error) {
	var ok bool
	if v, ok = s.Params[key]; !ok {
		err = fmt.Errorf("Profile `%s`: %s() requires parameter %q", s.Name, s.Shape, key)
	}
	return
}

var axisPrefix = []string{"x", "y"}

// New builds the space profile described by s for a simulation box of
// simLength; len(simLength) is the dimensionality.
func New(s Spec, simLength []float64) (p Profile, err error) {
	var (
		nDim  = len(simLength)
		shape = strings.ToLower(s.Shape)
	)
	if nDim < 1 || nDim > 2 {
		err = fmt.Errorf("Profile `%s`: %s() profile defined only in 1D or 2D", s.Name, shape)
		return
	}
	switch shape {
	case "constant":
		var value float64
		if value, err = s.required("value"); err != nil {
			return
		}
		c := &Constant{Value: value, Vacuum: make([]float64, nDim)}
		for d := 0; d < nDim; d++ {
			c.Vacuum[d] = s.param(axisPrefix[d]+"vacuum", math.Inf(-1))
		}
		p = c
	case "trapezoidal":
		var maxVal float64
		if maxVal, err = s.required("max"); err != nil {
			return
		}
		tp := &Trapezoidal{Max: maxVal, Axes: make([]Ramp, nDim)}
		for d := 0; d < nDim; d++ {
			a := axisPrefix[d]
			vac := s.param(a+"vacuum", 0)
			tp.Axes[d] = Ramp{
				Vacuum:  vac,
				Plateau: s.param(a+"plateau", simLength[d]-vac),
				Slope1:  s.param(a+"slope1", 0),
				Slope2:  s.param(a+"slope2", 0),
			}
		}
		p = tp
	case "gaussian":
		var maxVal float64
		if maxVal, err = s.required("max"); err != nil {
			return
		}
		g := &Gaussian{Max: maxVal, Axes: make([]Bell, nDim)}
		for d := 0; d < nDim; d++ {
			a := axisPrefix[d]
			var (
				vac    = s.param(a+"vacuum", 0)
				length = s.param(a+"length", simLength[d]-vac)
				fwhm   = s.param(a+"fwhm", length/3)
				order  = int(s.param(a+"order", 2))
			)
			g.Axes[d] = Bell{
				Vacuum: vac,
				Length: length,
				Center: s.param(a+"center", vac+0.5*length),
				Sigma:  SigmaFromFWHM(fwhm, order),
				Order:  order,
			}
		}
		p = g
	case "polygonal":
		var poly *Polygon
		if poly, err = s.polygon(0, simLength[0]); err != nil {
			return
		}
		p = &Polygonal{Polygon: poly}
	case "cosine":
		var base float64
		if base, err = s.required("base"); err != nil {
			return
		}
		c := &Cosine{Base: base, Axes: make([]Wave, nDim)}
		for d := 0; d < nDim; d++ {
			a := axisPrefix[d]
			vac := s.param(a+"vacuum", 0)
			c.Axes[d] = Wave{
				Amplitude: s.param(a+"amplitude", 1),
				Vacuum:    vac,
				Length:    s.param(a+"length", simLength[d]-vac),
				Phi:       s.param(a+"phi", 0),
				Number:    s.param(a+"number", 2),
			}
		}
		p = c
	default:
		err = fmt.Errorf("Profile `%s`: unknown profile shape %q", s.Name, s.Shape)
	}
	return
}

// polygon defaults to the unit value over [start, end).
func (s *Spec) polygon(start, end float64) (poly *Polygon, err error) {
	points, values := s.Points, s.Values
	if len(points) != len(values) {
		err = fmt.Errorf("Profile `%s`: %s() requires as many points as values, have %d and %d",
			s.Name, s.Shape, len(points), len(values))
		return
	}
	if len(points) == 0 {
		points, values = []float64{start, end}, []float64{1, 1}
	}
	poly = NewPolygon(points, values)
	return
}

// NewTime builds the time envelope described by s for a run of simTime.
func NewTime(s Spec, simTime float64) (tp TimeProfile, err error) {
	start := s.param("start", 0)
	switch strings.ToLower(s.Shape) {
	case "tconstant", "":
		tp = &TConstant{Start: start}
	case "ttrapezoidal":
		tp = &TTrapezoidal{Ramp: Ramp{
			Vacuum:  start,
			Plateau: s.param("plateau", simTime-start),
			Slope1:  s.param("slope1", 0),
			Slope2:  s.param("slope2", 0),
		}}
	case "tgaussian":
		var (
			duration = s.param("duration", simTime-start)
			fwhm     = s.param("fwhm", duration/3)
			order    = int(s.param("order", 2))
		)
		tp = &TGaussian{
			Start:    start,
			Duration: duration,
			Center:   s.param("center", start+0.5*duration),
			Sigma:    SigmaFromFWHM(fwhm, order),
			Order:    order,
		}
	case "tpolygonal":
		var poly *Polygon
		if poly, err = s.polygon(0, simTime); err != nil {
			return
		}
		tp = &TPolygonal{Polygon: poly}
	case "tcosine":
		tp = &TCosine{
			Base:      s.param("base", 0),
			Amplitude: s.param("amplitude", 1),
			Start:     start,
			Duration:  s.param("duration", simTime-start),
			Phi:       s.param("phi", 0),
			Freq:      s.param("freq", 1),
		}
	default:
		err = fmt.Errorf("Profile `%s`: unknown time profile shape %q", s.Name, s.Shape)
	}
	return
}
