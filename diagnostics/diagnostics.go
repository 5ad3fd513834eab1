// Package diagnostics computes scalar checks on patch fields: charge
// conservation, total charge and field energy.
package diagnostics

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"github.com/notargets/picgrid/field"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Divergence2D is the discrete divergence of a Yee current on nx x ny
// primal nodes. The operator acts on Jx then Jy, each flattened row major:
//
//	(div J)[P,Q] = (Jx[P+1,Q] - Jx[P,Q])/dx + (Jy[P,Q+1] - Jy[P,Q])/dy
type Divergence2D struct {
	Nx, Ny int
	Op     *sparse.CSR
	x, y   []float64
}

func NewDivergence2D(nx, ny int, dx, dy float64) (dv *Divergence2D) {
	var (
		nJx = (nx + 1) * ny
		nJy = nx * (ny + 1)
		dok = sparse.NewDOK(nx*ny, nJx+nJy)
	)
	for P := 0; P < nx; P++ {
		for Q := 0; Q < ny; Q++ {
			row := P*ny + Q
			dok.Set(row, (P+1)*ny+Q, 1/dx)
			dok.Set(row, P*ny+Q, -1/dx)
			dok.Set(row, nJx+P*(ny+1)+Q+1, 1/dy)
			dok.Set(row, nJx+P*(ny+1)+Q, -1/dy)
		}
	}
	return &Divergence2D{
		Nx: nx, Ny: ny,
		Op: dok.ToCSR(),
		x:  make([]float64, nJx+nJy),
		y:  make([]float64, nx*ny),
	}
}

// Apply returns the node divergence of (jx, jy). The result is reused by the
// next call.
func (dv *Divergence2D) Apply(jx, jy *field.Field) []float64 {
	if !sameDims(jx.Dims, dv.Nx+1, dv.Ny) || !sameDims(jy.Dims, dv.Nx, dv.Ny+1) {
		panic(fmt.Errorf("divergence on %dx%d nodes: currents %s%v, %s%v",
			dv.Nx, dv.Ny, jx.Name, jx.Dims, jy.Name, jy.Dims))
	}
	nJx := copy(dv.x, jx.Data())
	copy(dv.x[nJx:], jy.Data())
	for i := range dv.y {
		dv.y[i] = 0
	}
	dv.Op.DoNonZero(func(i, j int, v float64) {
		dv.y[i] += v * dv.x[j]
	})
	return dv.y
}

func sameDims(dims []int, nx, ny int) bool {
	return len(dims) == 2 && dims[0] == nx && dims[1] == ny
}

// ContinuityResidual is the largest violation of
// (rho1 - rho0)/dt + div J = 0 over the nodes.
func (dv *Divergence2D) ContinuityResidual(jx, jy, rho0, rho1 *field.Field, dt float64) (res float64) {
	var (
		div = dv.Apply(jx, jy)
		r0  = rho0.Data()
		r1  = rho1.Data()
	)
	if len(r0) != len(div) || len(r1) != len(div) {
		panic(fmt.Errorf("continuity on %d nodes: densities hold %d and %d", len(div), len(r0), len(r1)))
	}
	for i, d := range div {
		res = math.Max(res, math.Abs((r1[i]-r0[i])/dt+d))
	}
	return
}

// TotalCharge integrates a 2D density over the block selected the same way
// as for field.Norm2.
func TotalCharge(rho *field.Field, cellVolume float64, istart, bufsize [3][2]int) (q float64) {
	if rho.Arity() != 2 {
		panic(fmt.Errorf("total charge of %s: need a 2D field", rho.Name))
	}
	var (
		data   = rho.Data()
		ny     = rho.Dims[1]
		i0, j0 = istart[0][rho.IsDual[0]], istart[1][rho.IsDual[1]]
		ni, nj = bufsize[0][rho.IsDual[0]], bufsize[1][rho.IsDual[1]]
	)
	for i := i0; i < i0+ni; i++ {
		q += floats.Sum(data[i*ny+j0 : i*ny+j0+nj])
	}
	return q * cellVolume
}

// FieldEnergy is the sum of |f|^2 dV / 2 over fields.
func FieldEnergy(fields []*field.Field, cellVolume float64, istart, bufsize [3][2]int) (w float64) {
	for _, f := range fields {
		w += f.Norm2(istart, bufsize)
	}
	return 0.5 * w * cellVolume
}

// Format renders a small 2D field for printing.
func Format(f *field.Field) fmt.Formatter {
	return mat.Formatted(f.Dense(), mat.Prefix("    "), mat.Squeeze())
}
