package profiles

import "math"

type TConstant struct {
	Start float64
}

func (tc *TConstant) ValueAt(t float64) float64 {
	if t >= tc.Start {
		return 1
	}
	return 0
}

type TTrapezoidal struct {
	Ramp
}

func (tt *TTrapezoidal) ValueAt(t float64) float64 { return tt.trapeze(t) }

type TGaussian struct {
	Start, Duration, Center, Sigma float64
	Order                          int
}

func (tg *TGaussian) ValueAt(t float64) float64 {
	return Bell{
		Vacuum: tg.Start, Length: tg.Duration, Center: tg.Center,
		Sigma: tg.Sigma, Order: tg.Order,
	}.value(t)
}

type TPolygonal struct {
	*Polygon
}

func (tp *TPolygonal) ValueAt(t float64) float64 { return tp.value(t) }

type TCosine struct {
	Base, Amplitude, Start, Duration, Phi, Freq float64
}

func (tc *TCosine) ValueAt(t float64) float64 {
	if t < tc.Start || t >= tc.Start+tc.Duration {
		return 0
	}
	return tc.Base + tc.Amplitude*math.Cos(tc.Phi+tc.Freq*(t-tc.Start))
}
