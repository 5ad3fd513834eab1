// Package projector deposits particle currents and densities on the patch
// grid. Projector2D2Order implements the charge conserving scheme of
// Esirkepov with second order (three point) shape functions.
package projector

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/picgrid/InputParameters"
	"github.com/notargets/picgrid/device"
	"github.com/notargets/picgrid/field"
	"github.com/notargets/picgrid/particles"
	"github.com/notargets/picgrid/patch"
)

var ErrNotImplemented = errors.New("not implemented")

// Kind selects the quantity deposited by Basic.
type Kind uint8

const (
	Density Kind = iota // Charge density
	CurrentX            // Charge times vx, on the x dual grid
	CurrentY            // Charge times vy, on the y dual grid
	CurrentZ            // Charge times vz
)

type Projector2D2Order struct {
	dxInv, dyInv               float64
	dxOvDt, dyOvDt             float64
	iDomainBegin, jDomainBegin int
	nprimy                     int
	invCellVolume              float64
	oneThird                   float64
	pxr                        int // Jy row padding, zero for the PICSAR layout
	dev                        device.Device
}

func NewProjector2D2Order(ip *InputParameters.Params, p *patch.Patch, dev device.Device) *Projector2D2Order {
	if ip.NDim() != 2 {
		panic(fmt.Errorf("Projector2D2Order: geometry has %d axes", ip.NDim()))
	}
	if dev == nil {
		dev = device.NewHost()
	}
	pxr := 1
	if ip.IsPXR {
		pxr = 0
	}
	return &Projector2D2Order{
		dxInv:         1 / ip.CellLength[0],
		dyInv:         1 / ip.CellLength[1],
		dxOvDt:        ip.CellLength[0] / ip.Timestep,
		dyOvDt:        ip.CellLength[1] / ip.Timestep,
		iDomainBegin:  p.CellStartingGlobalIndex(0),
		jDomainBegin:  p.CellStartingGlobalIndex(1),
		nprimy:        ip.NSpace[1] + 2*ip.Oversize[1] + 1,
		invCellVolume: 1 / ip.CellVolume(),
		oneThird:      1. / 3.,
		pxr:           pxr,
		dev:           dev,
	}
}

func (pr *Projector2D2Order) Device() device.Device { return pr.dev }

// accumulator returns the add used for grid writes: atomic when particles
// are processed concurrently.
func (pr *Projector2D2Order) accumulator() func(dst []float64, i int, v float64) {
	if pr.dev.Concurrent() {
		return pr.dev.AtomicAdd
	}
	return func(dst []float64, i int, v float64) { dst[i] += v }
}

// shape fills the three nonzero weights of the quadratic spline centered at
// offset+2 for a particle delta cells from its nearest node.
func shape(s *[5]float64, offset int, delta float64) {
	delta2 := delta * delta
	s[offset+1] = 0.5 * (delta2 - delta + 0.25)
	s[offset+2] = 0.75 - delta2
	s[offset+3] = 0.5 * (delta2 + delta + 0.25)
}

// Currents deposits Jx, Jy, Jz for particles [istart, iend). dyn holds the
// positions before the push, nodes relative to this patch.
func (pr *Projector2D2Order) Currents(Jx, Jy, Jz *field.Field, parts *particles.Particles,
	dyn *particles.Dynamics, istart, iend int) {
	if iend <= istart {
		return
	}
	var (
		jx, jy, jz = Jx.Data(), Jy.Data(), Jz.Data()
		nparts     = parts.Size()
		add        = pr.accumulator()
	)
	if len(dyn.InvGamma) < nparts || len(dyn.Iold) < 2*nparts {
		panic(fmt.Errorf("Currents: dynamics buffers sized for %d particles, batch has %d",
			len(dyn.InvGamma), nparts))
	}
	pr.dev.ParallelFor(iend-istart, func(lo, hi int) {
		for ipart := istart + lo; ipart < istart+hi; ipart++ {
			pr.deposit(jx, jy, jz, parts, dyn, nparts, ipart, add)
		}
	})
}

func (pr *Projector2D2Order) deposit(Jx, Jy, Jz []float64, parts *particles.Particles,
	dyn *particles.Dynamics, nparts, ipart int, add func([]float64, int, float64)) {
	var (
		Sx0, Sx1, Sy0, Sy1 [5]float64
		chargeWeight       = pr.invCellVolume * float64(parts.Charge[ipart]) * parts.Weight[ipart]
		crx                = chargeWeight * pr.dxOvDt
		cry                = chargeWeight * pr.dyOvDt
		crz                = chargeWeight * pr.oneThird * parts.Momentum[2][ipart] * dyn.InvGamma[ipart]
	)
	// Former position, on the primal grid
	shape(&Sx0, 0, dyn.DeltaOld[ipart])
	shape(&Sy0, 0, dyn.DeltaOld[ipart+nparts])

	// Current position, at most one cell away
	xpn := parts.Position[0][ipart] * pr.dxInv
	ip := int(math.Round(xpn))
	ipo := dyn.Iold[ipart]
	shape(&Sx1, ip-ipo-pr.iDomainBegin, xpn-float64(ip))

	ypn := parts.Position[1][ipart] * pr.dyInv
	jp := int(math.Round(ypn))
	jpo := dyn.Iold[ipart+nparts]
	shape(&Sy1, jp-jpo-pr.jDomainBegin, ypn-float64(jp))

	// Five point stencil from -2 to +2
	ipo -= 2
	jpo -= 2

	var tmpJx [5]float64
	for i := 0; i < 5; i++ {
		var (
			iloc  = (i+ipo)*pr.nprimy + jpo
			wx    = Sx0[i] + 0.5*(Sx1[i]-Sx0[i])
			tmpJy float64
		)
		if i > 0 {
			dSx := Sx1[i-1] - Sx0[i-1]
			for j := 0; j < 5; j++ {
				tmpJx[j] -= crx * dSx * (Sy0[j] + 0.5*(Sy1[j]-Sy0[j]))
				add(Jx, iloc+j, tmpJx[j])
			}
		}
		add(Jz, iloc, crz*Sy1[0]*(0.5*Sx0[i]+Sx1[i]))
		for j := 1; j < 5; j++ {
			tmpJy -= cry * (Sy1[j-1] - Sy0[j-1]) * wx
			add(Jy, iloc+j+pr.pxr*(i+ipo), tmpJy)
			add(Jz, iloc+j, crz*(Sy0[j]*(0.5*Sx1[i]+Sx0[i])+Sy1[j]*(0.5*Sx0[i]+Sx1[i])))
		}
	}
}

// Basic deposits one quantity of particle ipart at its current position with
// no time recursion. Used for frozen species and for the charge density.
func (pr *Projector2D2Order) Basic(rhoj *field.Field, parts *particles.Particles, ipart int, kind Kind) {
	var (
		data         = rhoj.Data()
		ny           = pr.nprimy
		chargeWeight = pr.invCellVolume * float64(parts.Charge[ipart]) * parts.Weight[ipart]
		xShift       float64
		yShift       float64
	)
	if kind > Density {
		chargeWeight /= parts.Lorentz(ipart)
		switch kind {
		case CurrentX:
			chargeWeight *= parts.Momentum[0][ipart]
			xShift = 0.5
		case CurrentY:
			chargeWeight *= parts.Momentum[1][ipart]
			yShift = 0.5
			ny++
		case CurrentZ:
			chargeWeight *= parts.Momentum[2][ipart]
		default:
			panic(fmt.Errorf("Basic: unknown projection kind %d", kind))
		}
	}
	var Sx1, Sy1 [5]float64
	xpn := parts.Position[0][ipart] * pr.dxInv
	ip := int(math.Round(xpn + xShift))
	shape(&Sx1, 0, xpn-float64(ip))
	ypn := parts.Position[1][ipart] * pr.dyInv
	jp := int(math.Round(ypn + yShift))
	shape(&Sy1, 0, ypn-float64(jp))

	ip -= pr.iDomainBegin + 2
	jp -= pr.jDomainBegin + 2
	for i := 0; i < 5; i++ {
		iloc := (i+ip)*ny + jp
		for j := 0; j < 5; j++ {
			data[iloc+j] += chargeWeight * Sx1[i] * Sy1[j]
		}
	}
}

// DensityAll deposits the charge density of particles [istart, iend).
func (pr *Projector2D2Order) DensityAll(rho *field.Field, parts *particles.Particles, istart, iend int) {
	for ipart := istart; ipart < iend; ipart++ {
		pr.Basic(rho, parts, ipart, Density)
	}
}

// CurrentsAndDensityWrapper projects onto the field set of a patch. Field
// diagnostics steps and non spectral solvers take the currents only path,
// spectral solvers also need the density.
func (pr *Projector2D2Order) CurrentsAndDensityWrapper(em *patch.ElectroMagn, parts *particles.Particles,
	dyn *particles.Dynamics, istart, iend int, diagFlag, isSpectral bool) {
	if diagFlag || !isSpectral {
		pr.Currents(em.Jx, em.Jy, em.Jz, parts, dyn, istart, iend)
		return
	}
	for ipart := istart; ipart < iend; ipart++ {
		pr.CurrentsAndDensity(em, parts, dyn, ipart)
	}
}

func (pr *Projector2D2Order) CurrentsAndDensity(em *patch.ElectroMagn, parts *particles.Particles,
	dyn *particles.Dynamics, ipart int) {
	panic(fmt.Errorf("CurrentsAndDensity(): %w", ErrNotImplemented))
}

func (pr *Projector2D2Order) IonizationCurrents(Jx, Jy, Jz *field.Field, parts *particles.Particles,
	ipart int, jion [3]float64) {
	panic(fmt.Errorf("IonizationCurrents(): %w", ErrNotImplemented))
}

func (pr *Projector2D2Order) Susceptibility(em *patch.ElectroMagn, parts *particles.Particles,
	speciesMass float64, istart, iend int) {
	panic(fmt.Errorf("Susceptibility(): %w", ErrNotImplemented))
}
