package diagnostics

import (
	"fmt"
	"strings"
	"testing"

	"github.com/notargets/picgrid/field"
	"github.com/stretchr/testify/assert"
)

func TestDivergence2D(t *testing.T) {
	var (
		nx, ny = 6, 5
		dx, dy = 0.5, 0.25
		dv     = NewDivergence2D(nx, ny, dx, dy)
		jx     = field.NewStaggeredField("Jx", []int{nx, ny}, 0, false)
		jy     = field.NewStaggeredField("Jy", []int{nx, ny}, 1, false)
	)
	r, c := dv.Op.Dims()
	assert.Equal(t, [2]int{nx * ny, (nx+1)*ny + nx*(ny+1)}, [2]int{r, c})
	assert.Equal(t, 4*nx*ny, dv.Op.NNZ())
	for P := 0; P < jx.Dims[0]; P++ {
		for Q := 0; Q < jx.Dims[1]; Q++ {
			jx.Set2(P, Q, float64(P)*dx)
		}
	}
	for P := 0; P < jy.Dims[0]; P++ {
		for Q := 0; Q < jy.Dims[1]; Q++ {
			jy.Set2(P, Q, 2*float64(Q)*dy+7)
		}
	}
	for _, d := range dv.Apply(jx, jy) {
		assert.InDelta(t, 3., d, 1.e-12)
	}
	{ // Matching density change gives no residual
		var (
			dt   = 0.2
			rho0 = field.NewField("Rho0", []int{nx, ny})
			rho1 = field.NewField("Rho1", []int{nx, ny})
		)
		for P := 0; P < nx; P++ {
			for Q := 0; Q < ny; Q++ {
				rho0.Set2(P, Q, float64(P+Q))
				rho1.Set2(P, Q, float64(P+Q)-3*dt)
			}
		}
		assert.InDelta(t, 0., dv.ContinuityResidual(jx, jy, rho0, rho1, dt), 1.e-12)
		rho1.Add2(2, 3, 0.1)
		assert.InDelta(t, 0.5, dv.ContinuityResidual(jx, jy, rho0, rho1, dt), 1.e-12)
	}
	assert.Panics(t, func() { dv.Apply(jy, jx) })
}

func TestScalars(t *testing.T) {
	var (
		rho = field.NewField("Rho", []int{7, 6})
		bz  = field.NewStaggeredField("Bz", []int{7, 6}, 2, true)
	)
	for _, f := range []*field.Field{rho, bz} {
		data := f.Data()
		for k := range data {
			data[k] = 2
		}
	}
	var (
		istart  = [3][2]int{{2, 2}, {1, 2}}
		bufsize = [3][2]int{{3, 4}, {4, 4}, {1, 1}}
	)
	assert.InDelta(t, 2*3*4*0.5, TotalCharge(rho, 0.5, istart, bufsize), 1.e-14)
	assert.InDelta(t, 0.5*0.5*(4*3*4+4*4*4), FieldEnergy([]*field.Field{rho, bz}, 0.5, istart, bufsize), 1.e-14)
	assert.Panics(t, func() { TotalCharge(field.NewField("Rho", []int{2, 2, 2}), 1, istart, bufsize) })

	small := field.NewField("Rho", []int{2, 2})
	small.Set2(1, 1, 4)
	out := fmt.Sprintf("%v", Format(small))
	assert.True(t, strings.Contains(out, "4"), out)
}
