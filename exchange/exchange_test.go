package exchange

import (
	"math"
	"math/rand"
	"testing"

	"github.com/notargets/picgrid/InputParameters"
	"github.com/notargets/picgrid/device"
	"github.com/notargets/picgrid/field"
	"github.com/notargets/picgrid/patch"
	"github.com/notargets/picgrid/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	c := NewCodec(0)
	assert.Equal(t, 1, c.Level)
	smooth := make([]float64, 4096)
	for i := range smooth {
		smooth[i] = 1 + 0.5*math.Sin(float64(i)/100)
	}
	msg, err := c.Encode(smooth)
	require.NoError(t, err)
	assert.Less(t, len(msg), 8*len(smooth))
	out := make([]float64, len(smooth))
	require.NoError(t, c.Decode(msg, out))
	assert.Equal(t, smooth, out)

	special := []float64{0, math.Copysign(0, -1), math.Inf(1), -1.e-300, math.MaxFloat64}
	msg, err = c.Encode(special)
	require.NoError(t, err)
	out = make([]float64, len(special))
	require.NoError(t, c.Decode(msg, out))
	for i := range special {
		assert.Equal(t, math.Float64bits(special[i]), math.Float64bits(out[i]))
	}
	assert.Error(t, c.Decode(msg, make([]float64, 4)))
	assert.Error(t, c.Decode([]byte("not a frame"), out))
}

func testParams(np []int, bcy string) *InputParameters.Params {
	return &InputParameters.Params{
		CellLength:     []float64{1, 1},
		Timestep:       0.5,
		NSpace:         []int{8, 8},
		NPatches:       np,
		Oversize:       []int{2, 2},
		RegionOversize: []int{2, 2},
		Boundaries:     []string{"periodic", bcy},
	}
}

// globalKey maps a local point of p to its global point, folded into the box
// along periodic axes.
func globalKey(dom *patch.Domain, p *patch.Patch, i, j int) [2]int {
	var (
		g   = dom.Params.GlobalCells()
		key = [2]int{i - p.Oversize[0] + p.Coords[0]*p.NSpace[0], j - p.Oversize[1] + p.Coords[1]*p.NSpace[1]}
	)
	for d := range key {
		if dom.BCs[d] == types.BC_Periodic {
			key[d] = (key[d]%g[d] + g[d]) % g[d]
		}
	}
	return key
}

func TestSumDensities(t *testing.T) {
	type setup struct {
		np    []int
		bcy   string
		dev   device.Device
		codec *Codec
	}
	for _, s := range []setup{
		{[]int{1, 1}, "periodic", nil, nil},
		{[]int{3, 2}, "periodic", nil, nil},
		{[]int{3, 2}, "periodic", device.NewPool(4), NewCodec(1)},
		{[]int{2, 3}, "none", device.NewPool(2), nil},
	} {
		var (
			dom    = patch.NewDomain(testParams(s.np, s.bcy), s.dev)
			tr     = NewTransport(dom, s.codec)
			rnd    = rand.New(rand.NewSource(5))
			totals = make([]map[[2]int]float64, 4)
		)
		for k := range totals {
			totals[k] = make(map[[2]int]float64)
		}
		for _, p := range dom.Patches {
			for k, f := range Densities(p.EM) {
				for n := 0; n < 60; n++ {
					var (
						i, j = rnd.Intn(f.Dims[0]), rnd.Intn(f.Dims[1])
						v    = rnd.Float64()
					)
					f.Add2(i, j, v)
					totals[k][globalKey(dom, p, i, j)] += v
				}
			}
		}
		tr.SumDensities()
		for _, p := range dom.Patches {
			for k, f := range Densities(p.EM) {
				for i := 0; i < f.Dims[0]; i++ {
					for j := 0; j < f.Dims[1]; j++ {
						assert.InDelta(t, totals[k][globalKey(dom, p, i, j)], f.At2(i, j), 1.e-12,
							"%v %s patch %d (%d,%d)", s.np, f.Name, p.Number, i, j)
					}
				}
			}
		}
		raw, sent := tr.Traffic()
		assert.Greater(t, raw, int64(0))
		if s.codec == nil {
			assert.Equal(t, raw, sent)
		}
	}
}

func TestExchangeFields(t *testing.T) {
	for _, bcy := range []string{"periodic", "none"} {
		var (
			dom = patch.NewDomain(testParams([]int{3, 2}, bcy), device.NewPool(3))
			tr  = NewTransport(dom, NewCodec(3))
			h   = func(key [2]int) float64 { return float64(100*key[0] + key[1]) }
		)
		// Owned points hold the global function, ghosts hold garbage
		for _, p := range dom.Patches {
			for _, f := range Magnetic(p.EM) {
				for i := 0; i < f.Dims[0]; i++ {
					for j := 0; j < f.Dims[1]; j++ {
						v := -1.
						if i >= 2 && i < f.Dims[0]-2 && j >= 2 && j < f.Dims[1]-2 {
							v = h(globalKey(dom, p, i, j))
						}
						f.Set2(i, j, v)
					}
				}
			}
		}
		tr.ExchangeFields()
		for _, p := range dom.Patches {
			for _, f := range Magnetic(p.EM) {
				for i := 0; i < f.Dims[0]; i++ {
					for j := 0; j < f.Dims[1]; j++ {
						want := h(globalKey(dom, p, i, j))
						outside := (j < 2 && p.IsFirst(1)) || (j >= f.Dims[1]-2 && p.IsLast(1))
						if bcy == "none" && outside {
							want = -1
						}
						assert.Equal(t, want, f.At2(i, j), "%s %s patch %d (%d,%d)", bcy, f.Name, p.Number, i, j)
					}
				}
			}
		}
	}
}

func TestRegionAgreement(t *testing.T) {
	var (
		ip     = testParams([]int{2, 2}, "periodic")
		dom    = patch.NewDomain(ip, nil)
		region = patch.NewRegion(ip)
		rnd    = rand.New(rand.NewSource(9))
		rho    = func(em *patch.ElectroMagn) *field.Field { return em.Rho }
	)
	for _, p := range dom.Patches {
		for n := 0; n < 30; n++ {
			// Owned points off the periodic edges
			p.EM.Rho.Add2(3+rnd.Intn(7), 3+rnd.Intn(7), rnd.Float64())
		}
	}
	region.Accumulate(dom, region.EM.Rho, rho)
	NewTransport(dom, nil).SumDensities()
	summed := field.NewField("Rho_summed", region.EM.Rho.Dims)
	region.Gather(dom, summed, rho)
	// The region does not fold its ghosts, compare the box points only
	for i := 2; i <= 2+16; i++ {
		for j := 2; j <= 2+16; j++ {
			assert.InDelta(t, region.EM.Rho.At2(i, j), summed.At2(i, j), 1.e-12, "(%d,%d)", i, j)
		}
	}
	assert.Greater(t, summed.Norm2([3][2]int{}, [3][2]int{{21, 21}, {21, 21}, {1, 1}}), 0.)
}
