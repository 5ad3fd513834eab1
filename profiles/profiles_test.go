package profiles

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpaceProfiles(t *testing.T) {
	simLength := []float64{10, 4}
	{ // Constant with a vacuum edge on each axis
		p, err := New(Spec{Name: "n0", Shape: "constant",
			Params: map[string]float64{"value": 2, "xvacuum": 1}}, simLength)
		require.NoError(t, err)
		assert.Equal(t, 0., p.ValueAt([]float64{0.5, 3}))
		assert.Equal(t, 2., p.ValueAt([]float64{1, 0}))
		assert.Equal(t, 2., p.ValueAt([]float64{9, -100}))
	}
	{ // Trapezoid: ramp up, plateau, ramp down
		p, err := New(Spec{Shape: "trapezoidal", Params: map[string]float64{
			"max": 4, "xvacuum": 1, "xslope1": 2, "xplateau": 3, "xslope2": 2,
		}}, simLength[:1])
		require.NoError(t, err)
		assert.Equal(t, 0., p.ValueAt([]float64{0.9}))
		assert.InDelta(t, 2., p.ValueAt([]float64{2}), 1.e-14)
		assert.Equal(t, 4., p.ValueAt([]float64{4}))
		assert.InDelta(t, 2., p.ValueAt([]float64{7}), 1.e-14)
		// No jump where the plateau ends
		assert.InDelta(t, 4., p.ValueAt([]float64{6 - 1.e-9}), 1.e-7)
		assert.InDelta(t, 4., p.ValueAt([]float64{6 + 1.e-9}), 1.e-7)
		assert.Equal(t, 0., p.ValueAt([]float64{8}))
	}
	{ // Gaussian is half maximum at center +- fwhm/2
		p, err := New(Spec{Shape: "Gaussian", Params: map[string]float64{
			"max": 1, "xfwhm": 2, "xcenter": 5, "yorder": 0,
		}}, simLength)
		require.NoError(t, err)
		assert.InDelta(t, 1., p.ValueAt([]float64{5, 1}), 1.e-14)
		assert.InDelta(t, 0.5, p.ValueAt([]float64{6, 3}), 1.e-14)
		assert.InDelta(t, 0.5, p.ValueAt([]float64{4, 0}), 1.e-14)
		assert.Equal(t, 0., p.ValueAt([]float64{10, 0}))
	}
	{ // Polygonal interpolates linearly, default is unit over the box
		p, err := New(Spec{Shape: "polygonal",
			Points: []float64{0, 2, 4}, Values: []float64{0, 1, 3}}, simLength)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, p.ValueAt([]float64{1, 0}), 1.e-14)
		assert.InDelta(t, 2., p.ValueAt([]float64{3, 0}), 1.e-14)
		assert.Equal(t, 0., p.ValueAt([]float64{4, 0}))
		p, err = New(Spec{Shape: "polygonal"}, simLength)
		require.NoError(t, err)
		assert.Equal(t, 1., p.ValueAt([]float64{9.9, 0}))
		_, err = New(Spec{Shape: "polygonal", Points: []float64{0}}, simLength)
		assert.Error(t, err)
	}
	{ // Cosine over one wavelength
		p, err := New(Spec{Shape: "cosine", Params: map[string]float64{
			"base": 1, "xamplitude": 0.5, "xnumber": 1,
		}}, simLength[:1])
		require.NoError(t, err)
		assert.InDelta(t, 1.5, p.ValueAt([]float64{0}), 1.e-14)
		assert.InDelta(t, 0.5, p.ValueAt([]float64{5}), 1.e-14)
	}
	{ // Errors
		_, err := New(Spec{Name: "rho", Shape: "gaussian", Params: map[string]float64{"max": 1}},
			[]float64{1, 1, 1})
		require.Error(t, err)
		assert.Equal(t, "Profile `rho`: gaussian() profile defined only in 1D or 2D", err.Error())
		_, err = New(Spec{Shape: "constant"}, simLength)
		assert.Error(t, err)
		_, err = New(Spec{Shape: "spiral"}, simLength)
		assert.Error(t, err)
	}
	{ // Closures
		var p Profile = Func(func(x []float64) float64 { return x[0] * x[1] })
		assert.Equal(t, 6., p.ValueAt([]float64{2, 3}))
	}
}

func TestTimeProfiles(t *testing.T) {
	simTime := 10.
	{
		tp, err := NewTime(Spec{Shape: "tconstant", Params: map[string]float64{"start": 2}}, simTime)
		require.NoError(t, err)
		assert.Equal(t, 0., tp.ValueAt(1.9))
		assert.Equal(t, 1., tp.ValueAt(2))
	}
	{
		tp, err := NewTime(Spec{Shape: "ttrapezoidal", Params: map[string]float64{
			"start": 1, "slope1": 1, "plateau": 2, "slope2": 4}}, simTime)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, tp.ValueAt(1.5), 1.e-14)
		assert.Equal(t, 1., tp.ValueAt(3))
		assert.InDelta(t, 0.75, tp.ValueAt(5), 1.e-14)
		assert.Equal(t, 0., tp.ValueAt(8))
	}
	{
		tp, err := NewTime(Spec{Shape: "tgaussian"}, simTime)
		require.NoError(t, err)
		// Default fwhm is a third of the run, centered mid run
		assert.InDelta(t, 1., tp.ValueAt(5), 1.e-14)
		assert.InDelta(t, 0.5, tp.ValueAt(5+simTime/6), 1.e-14)
	}
	{
		tp, err := NewTime(Spec{Shape: "tpolygonal"}, simTime)
		require.NoError(t, err)
		assert.Equal(t, 1., tp.ValueAt(3))
		assert.Equal(t, 0., tp.ValueAt(simTime))
	}
	{
		tp, err := NewTime(Spec{Shape: "tcosine", Params: map[string]float64{"freq": math.Pi}}, simTime)
		require.NoError(t, err)
		assert.InDelta(t, 1., tp.ValueAt(0), 1.e-14)
		assert.InDelta(t, -1., tp.ValueAt(1), 1.e-14)
	}
	_, err := NewTime(Spec{Shape: "pulse"}, simTime)
	assert.Error(t, err)
	assert.Equal(t, 0.25, TimeFunc(func(t float64) float64 { return t * t }).ValueAt(0.5))
}
