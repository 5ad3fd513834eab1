package projector

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/notargets/picgrid/InputParameters"
	"github.com/notargets/picgrid/device"
	"github.com/notargets/picgrid/field"
	"github.com/notargets/picgrid/particles"
	"github.com/notargets/picgrid/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams(pxr bool) *InputParameters.Params {
	return &InputParameters.Params{
		CellLength:     []float64{0.5, 0.25},
		Timestep:       0.1,
		NSpace:         []int{8, 8},
		NPatches:       []int{1, 1},
		Oversize:       []int{2, 2},
		RegionOversize: []int{2, 2},
		Boundaries:     []string{"periodic", "periodic"},
		IsPXR:          pxr,
	}
}

func testPatch(ip *InputParameters.Params) *patch.Patch {
	return patch.NewDomain(ip, nil).Patches[0]
}

// moveParticles places n particles away from the patch edges, records their
// old state and moves each by less than one cell per axis.
func moveParticles(ip *InputParameters.Params, p *patch.Patch, n int, seed int64) (
	old, parts *particles.Particles, dyn *particles.Dynamics) {
	var (
		rnd = rand.New(rand.NewSource(seed))
		dx  = ip.CellLength
	)
	parts = particles.NewParticles(2, 0)
	for i := 0; i < n; i++ {
		charge := int16(1)
		if i%3 == 0 {
			charge = -1
		}
		parts.Add([]float64{1 + 2*rnd.Float64(), 0.5 + rnd.Float64()},
			[3]float64{rnd.NormFloat64(), rnd.NormFloat64(), rnd.NormFloat64()},
			charge, 0.5+rnd.Float64())
	}
	old = particles.NewParticles(2, 0)
	for i := 0; i < n; i++ {
		old.CopyParticle(parts, i)
	}
	dyn = &particles.Dynamics{}
	dyn.StoreOld(parts, p.CellStart(), dx)
	for i := 0; i < n; i++ {
		for d := 0; d < 2; d++ {
			parts.Position[d][i] += 0.95 * dx[d] * (2*rnd.Float64() - 1)
		}
	}
	return
}

func TestChargeConservation(t *testing.T) {
	for _, dev := range []device.Device{device.NewHost(), device.NewPool(4)} {
		var (
			ip              = testParams(false)
			p               = testPatch(ip)
			pr              = NewProjector2D2Order(ip, p, dev)
			em              = patch.NewElectroMagn(p.PrimalDims(), "", nil)
			old, parts, dyn = moveParticles(ip, p, 200, 7)
			rho0            = field.NewField("Rho0", p.PrimalDims())
			dx, dy, dt      = ip.CellLength[0], ip.CellLength[1], ip.Timestep
			nprimx, nprimy  = ip.NPrim(0), ip.NPrim(1)
		)
		var maxDiv, maxDrho float64
		pr.DensityAll(rho0, old, 0, old.Size())
		pr.DensityAll(em.Rho, parts, 0, parts.Size())
		pr.CurrentsAndDensityWrapper(em, parts, dyn, 0, parts.Size(), false, false)
		require.Equal(t, []int{nprimx + 1, nprimy}, em.Jx.Dims)
		require.Equal(t, []int{nprimx, nprimy + 1}, em.Jy.Dims)
		for P := 0; P < nprimx; P++ {
			for Q := 0; Q < nprimy; Q++ {
				var (
					drho = (em.Rho.At2(P, Q) - rho0.At2(P, Q)) / dt
					div  = (em.Jx.At2(P+1, Q)-em.Jx.At2(P, Q))/dx + (em.Jy.At2(P, Q+1)-em.Jy.At2(P, Q))/dy
				)
				assert.InDelta(t, 0., drho+div, 1.e-9, "%s node (%d,%d)", dev.Name(), P, Q)
				maxDiv = math.Max(maxDiv, math.Abs(div))
				maxDrho = math.Max(maxDrho, math.Abs(drho))
			}
		}
		// The check is not vacuous
		assert.Greater(t, maxDiv, 1.)
		assert.Greater(t, maxDrho, 1.)
		assert.Greater(t, em.Jz.Norm2(p.InteriorRanges()), 0.)
	}
}

func TestDeviceEquivalence(t *testing.T) {
	var (
		ip            = testParams(false)
		p             = testPatch(ip)
		_, parts, dyn = moveParticles(ip, p, 500, 11)
		host          = patch.NewElectroMagn(p.PrimalDims(), "", nil)
		pool          = patch.NewElectroMagn(p.PrimalDims(), "", nil)
	)
	NewProjector2D2Order(ip, p, device.NewHost()).Currents(host.Jx, host.Jy, host.Jz, parts, dyn, 0, parts.Size())
	NewProjector2D2Order(ip, p, device.NewPool(8)).Currents(pool.Jx, pool.Jy, pool.Jz, parts, dyn, 0, parts.Size())
	for _, pair := range [][2]*field.Field{{host.Jx, pool.Jx}, {host.Jy, pool.Jy}, {host.Jz, pool.Jz}} {
		assert.InDeltaSlice(t, pair[0].Data(), pair[1].Data(), 1.e-10, pair[0].Name)
	}
	// Sub ranges add up to the whole batch
	split := patch.NewElectroMagn(p.PrimalDims(), "", nil)
	pr := NewProjector2D2Order(ip, p, nil)
	pr.Currents(split.Jx, split.Jy, split.Jz, parts, dyn, 0, 123)
	pr.Currents(split.Jx, split.Jy, split.Jz, parts, dyn, 123, parts.Size())
	pr.Currents(split.Jx, split.Jy, split.Jz, parts, dyn, 7, 7)
	assert.InDeltaSlice(t, host.Jx.Data(), split.Jx.Data(), 1.e-10)
	assert.Panics(t, func() { pr.Currents(split.Jx, split.Jy, split.Jz, parts, &particles.Dynamics{}, 0, 1) })
}

func TestBasic(t *testing.T) {
	var (
		ip    = testParams(false)
		p     = testPatch(ip)
		pr    = NewProjector2D2Order(ip, p, nil)
		parts = particles.NewParticles(2, 0)
		dims  = p.PrimalDims()
		invV  = 1 / ip.CellVolume()
	)
	parts.Add([]float64{1.7, 0.61}, [3]float64{0.3, -0.4, 1.2}, -1, 2.5)
	gamma := parts.Lorentz(0)
	for _, tc := range []struct {
		kind   Kind
		target *field.Field
		factor float64
	}{
		{Density, field.NewField("Rho", dims), 1},
		{CurrentX, field.NewStaggeredField("Jx", dims, 0, false), 0.3 / gamma},
		{CurrentY, field.NewStaggeredField("Jy", dims, 1, false), -0.4 / gamma},
		{CurrentZ, field.NewStaggeredField("Jz", dims, 2, false), 1.2 / gamma},
	} {
		pr.Basic(tc.target, parts, 0, tc.kind)
		var total float64
		for _, v := range tc.target.Data() {
			total += v
		}
		assert.InDelta(t, -2.5*invV*tc.factor, total, 1.e-12, "kind %d", tc.kind)
	}
	{ // Density peaks on the nearest node: x/dx = 3.4 -> 3, y/dy = 2.44 -> 2
		rho := field.NewField("Rho", dims)
		pr.Basic(rho, parts, 0, Density)
		var (
			iMax, jMax int
			vMin       = math.Inf(1)
		)
		for i := 0; i < dims[0]; i++ {
			for j := 0; j < dims[1]; j++ {
				if v := rho.At2(i, j); v < vMin {
					vMin, iMax, jMax = v, i, j
				}
			}
		}
		assert.Equal(t, [2]int{3 + 2, 2 + 2}, [2]int{iMax, jMax})
	}
	assert.Panics(t, func() { pr.Basic(field.NewField("Rho", dims), parts, 0, Kind(9)) })
}

func TestPICSARLayout(t *testing.T) {
	var (
		ip            = testParams(false)
		p             = testPatch(ip)
		_, parts, dyn = moveParticles(ip, p, 50, 3)
		std           = patch.NewElectroMagn(p.PrimalDims(), "", nil)
		jx            = field.NewStaggeredField("Jx", p.PrimalDims(), 0, false)
		jy            = field.NewField("Jy", p.PrimalDims())
		jz            = field.NewField("Jz", p.PrimalDims())
	)
	NewProjector2D2Order(ip, p, nil).Currents(std.Jx, std.Jy, std.Jz, parts, dyn, 0, parts.Size())
	NewProjector2D2Order(testParams(true), p, nil).Currents(jx, jy, jz, parts, dyn, 0, parts.Size())
	// Same values, rows of Jy packed without the dual padding
	for P := 0; P < jy.Dims[0]; P++ {
		for Q := 0; Q < jy.Dims[1]; Q++ {
			assert.Equal(t, std.Jy.At2(P, Q), jy.At2(P, Q))
		}
	}
	assert.Equal(t, std.Jx.Data(), jx.Data())
	assert.Equal(t, std.Jz.Data(), jz.Data())
}

func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	fn()
	return
}

func TestUnimplemented(t *testing.T) {
	var (
		ip            = testParams(false)
		p             = testPatch(ip)
		pr            = NewProjector2D2Order(ip, p, nil)
		_, parts, dyn = moveParticles(ip, p, 4, 1)
	)
	for _, fn := range []func(){
		func() { pr.CurrentsAndDensityWrapper(p.EM, parts, dyn, 0, parts.Size(), false, true) },
		func() { pr.CurrentsAndDensity(p.EM, parts, dyn, 0) },
		func() { pr.IonizationCurrents(p.EM.Jx, p.EM.Jy, p.EM.Jz, parts, 0, [3]float64{}) },
		func() { pr.Susceptibility(p.EM, parts, 1, 0, parts.Size()) },
	} {
		err := recoverError(fn)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotImplemented), err.Error())
	}
	// Diagnostic steps always take the currents path
	assert.NoError(t, recoverError(func() {
		pr.CurrentsAndDensityWrapper(p.EM, parts, dyn, 0, parts.Size(), true, true)
	}))
	assert.Greater(t, p.EM.Jx.Norm2(p.InteriorRanges()), 0.)
	ip3 := testParams(false)
	ip3.NSpace = []int{4, 4, 4}
	assert.Panics(t, func() { NewProjector2D2Order(ip3, p, nil) })
}
