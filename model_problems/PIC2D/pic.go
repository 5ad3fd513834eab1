package PIC2D

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/notargets/picgrid/InputParameters"
	"github.com/notargets/picgrid/device"
	"github.com/notargets/picgrid/diagnostics"
	"github.com/notargets/picgrid/exchange"
	"github.com/notargets/picgrid/field"
	"github.com/notargets/picgrid/particles"
	"github.com/notargets/picgrid/patch"
	"github.com/notargets/picgrid/profiles"
	"github.com/notargets/picgrid/projector"
	"github.com/notargets/picgrid/utils"
	"gonum.org/v1/gonum/floats"
)

// PIC2D advances particles through a fixed magnetic field on a patch
// decomposed 2D box. Each step stores the old particle state, pushes
// ballistically, deposits the current and the density, sums the patch
// overlaps, migrates particles to their new patch and refreshes the ghost
// layers of B.
type PIC2D struct {
	Params     *InputParameters.Params
	Domain     *patch.Domain
	Region     *patch.Region
	Transport  *exchange.Transport
	Projectors []*projector.Projector2D2Order // One per patch
	Div        *diagnostics.Divergence2D
	History    []Record // One per diagnostic step
	dev        device.Device
	mb         *utils.MailBox[migrant]
	lost       []int // Per patch, particles gone through open edges
	verbose    bool
}

type Record struct {
	Step         int
	Time         float64
	Particles    int
	Lost         int     // Since the start of the run
	Charge       float64 // Owned points of the summed patch densities
	RegionCharge float64 // Raw deposits composed on the region
	Residual     float64 // Largest continuity violation
	Current      float64 // |J|^2 over owned points
	Magnetic     float64 // Magnetic energy
}

type migrant struct {
	species int
	pos     [2]float64
	mom     [3]float64
	charge  int16
	weight  float64
}

var (
	pickRho = func(em *patch.ElectroMagn) *field.Field { return em.Rho }
	pickB   = map[string]func(em *patch.ElectroMagn) *field.Field{
		"Bx": func(em *patch.ElectroMagn) *field.Field { return em.Bx },
		"By": func(em *patch.ElectroMagn) *field.Field { return em.By },
		"Bz": func(em *patch.ElectroMagn) *field.Field { return em.Bz },
	}
)

// NewPIC2D builds the domain, loads the particles and the initial fields.
// dev is used for the deposition and the exchanges of J and B, a nil codec
// moves halo buffers uncompressed.
func NewPIC2D(ip *InputParameters.Params, dev device.Device, codec *exchange.Codec, verbose bool) (c *PIC2D, err error) {
	if err = ip.Validate(); err != nil {
		return
	}
	// Particles below light speed cross at most one cell per step
	for d, dx := range ip.CellLength {
		if ip.Timestep >= dx {
			err = fmt.Errorf("%s: Timestep %g is not below CellLength[%d] = %g", ip.Title, ip.Timestep, d, dx)
			return
		}
	}
	if dev == nil {
		dev = device.NewHost()
	}
	dom := patch.NewDomain(ip, dev)
	c = &PIC2D{
		Params:     ip,
		Domain:     dom,
		Region:     patch.NewRegion(ip),
		Transport:  exchange.NewTransport(dom, codec),
		Projectors: make([]*projector.Projector2D2Order, len(dom.Patches)),
		Div:        diagnostics.NewDivergence2D(ip.NPrim(0), ip.NPrim(1), ip.CellLength[0], ip.CellLength[1]),
		dev:        dev,
		mb:         utils.NewMailBox[migrant](len(dom.Patches)),
		lost:       make([]int, len(dom.Patches)),
		verbose:    verbose,
	}
	for _, p := range dom.Patches {
		c.Projectors[p.Number] = projector.NewProjector2D2Order(ip, p, dev)
	}
	if err = c.initFields(); err != nil {
		return nil, err
	}
	if err = c.initSpecies(); err != nil {
		return nil, err
	}
	c.forEachPatch(func(p *patch.Patch) {
		for _, parts := range p.Species {
			c.Projectors[p.Number].DensityAll(p.EM.Rho, parts, 0, parts.Size())
		}
	})
	c.Transport.SumDensities()
	if verbose {
		fmt.Printf("PIC in 2 Dimensions\n")
		fmt.Printf("Using %d patches of %v cells on device %s\n", len(dom.Patches), ip.NSpace, dev.Name())
		fmt.Printf("Particles loaded: %d, total charge = %8.5f\n", c.NumParticles(), c.particleCharge())
	}
	return
}

// initFields sets the magnetic field on the region and scatters it into the
// patches, ghost layers included.
func (c *PIC2D) initFields() (err error) {
	var (
		ip    = c.Params
		names = make([]string, 0, len(ip.Fields))
	)
	for name := range ip.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pick, ok := pickB[name]
		if !ok {
			return fmt.Errorf("%s: no initial value for field %s, only Bx, By and Bz", ip.Title, name)
		}
		spec := ip.Fields[name]
		if spec.Name == "" {
			spec.Name = name
		}
		var prof profiles.Profile
		if prof, err = profiles.New(spec, ip.SimLength()); err != nil {
			return
		}
		f := pick(c.Region.EM)
		f.Initialize(prof, c.Region.Origin(), ip.CellLength)
		c.Region.Scatter(c.Domain, f, pick)
	}
	return
}

// initSpecies places ParticlesPerCell particles regularly in every owned
// cell, weighted by the density profile.
func (c *PIC2D) initSpecies() (err error) {
	ip := c.Params
	for k, sp := range ip.Species {
		spec := sp.Density
		if spec.Shape == "" {
			spec = profiles.Spec{Shape: "constant", Params: map[string]float64{"value": 1}}
		}
		if spec.Name == "" {
			spec.Name = sp.Name
		}
		var density profiles.Profile
		if density, err = profiles.New(spec, ip.SimLength()); err != nil {
			return
		}
		var (
			ppc = sp.ParticlesPerCell
			w   = ip.CellVolume() / float64(ppc[0]*ppc[1])
		)
		for _, p := range c.Domain.Patches {
			var (
				parts  = particles.NewParticles(2, 0)
				rnd    = rand.New(rand.NewSource(sp.Seed + int64(k*len(c.Domain.Patches)+p.Number)))
				x0, _  = p.Bounds(0)
				y0, _  = p.Bounds(1)
				dx, dy = ip.CellLength[0], ip.CellLength[1]
				pos    = make([]float64, 2)
			)
			for i := 0; i < p.NSpace[0]; i++ {
				for j := 0; j < p.NSpace[1]; j++ {
					for a := 0; a < ppc[0]; a++ {
						for b := 0; b < ppc[1]; b++ {
							pos[0] = x0 + (float64(i)+(float64(a)+0.5)/float64(ppc[0]))*dx
							pos[1] = y0 + (float64(j)+(float64(b)+0.5)/float64(ppc[1]))*dy
							n := density.ValueAt(pos)
							if n <= 0 {
								continue
							}
							var mom [3]float64
							for d := range mom {
								mom[d] = sp.Drift[d] + sp.Spread*rnd.NormFloat64()
							}
							parts.Add(pos, mom, sp.Charge, n*w)
						}
					}
				}
			}
			p.Species = append(p.Species, parts)
			p.Dynamics = append(p.Dynamics, &particles.Dynamics{})
		}
	}
	return
}

func (c *PIC2D) forEachPatch(fn func(p *patch.Patch)) {
	var wg sync.WaitGroup
	for _, p := range c.Domain.Patches {
		wg.Add(1)
		go func(p *patch.Patch) {
			defer wg.Done()
			fn(p)
		}(p)
	}
	wg.Wait()
}

func (c *PIC2D) NumParticles() (n int) {
	for _, p := range c.Domain.Patches {
		for _, parts := range p.Species {
			n += parts.Size()
		}
	}
	return
}

func (c *PIC2D) particleCharge() (q float64) {
	for _, p := range c.Domain.Patches {
		for _, parts := range p.Species {
			q += parts.TotalCharge()
		}
	}
	return
}

func (c *PIC2D) Run() {
	var (
		ip    = c.Params
		start = time.Now()
	)
	if c.verbose {
		c.PrintInitialization()
	}
	for step := 1; step <= ip.Steps; step++ {
		c.Step(step)
	}
	if c.verbose {
		c.PrintFinal(time.Since(start), ip.Steps)
	}
}

// Step advances every patch by one timestep.
func (c *PIC2D) Step(step int) {
	diag := step%c.Params.DiagEvery == 0
	c.forEachPatch(func(p *patch.Patch) { c.advance(p, diag) })
	if diag {
		c.Region.Accumulate(c.Domain, c.Region.EM.Rho, pickRho)
	}
	c.Transport.SumDensities()
	c.migrate()
	c.Transport.ExchangeFields()
	if diag {
		rec := c.diagnose(step)
		c.History = append(c.History, rec)
		if c.verbose {
			c.PrintUpdate(rec)
		}
	}
}

func (c *PIC2D) advance(p *patch.Patch, diag bool) {
	var (
		ip = c.Params
		em = p.EM
		pr = c.Projectors[p.Number]
	)
	em.RestartRhoJ()
	for k, parts := range p.Species {
		dyn := p.Dynamics[k]
		dyn.StoreOld(parts, p.CellStart(), ip.CellLength)
		for d := 0; d < 2; d++ {
			var (
				x = parts.Position[d]
				u = parts.Momentum[d]
			)
			for i := range x {
				x[i] += ip.Timestep * u[i] * dyn.InvGamma[i]
			}
		}
		pr.CurrentsAndDensityWrapper(em, parts, dyn, 0, parts.Size(), diag, false)
		pr.DensityAll(em.Rho, parts, 0, parts.Size())
	}
}

// migrate folds particles back into a periodic box, drops those gone through
// an open edge and hands the others to the patch owning them.
func (c *PIC2D) migrate() {
	c.forEachPatch(func(p *patch.Patch) {
		x := make([]float64, 2)
		for k, parts := range p.Species {
			for i := parts.Size() - 1; i >= 0; i-- {
				x[0], x[1] = parts.Position[0][i], parts.Position[1][i]
				if !c.Domain.Wrap(x) {
					parts.EraseUnordered(i)
					c.lost[p.Number]++
					continue
				}
				parts.Position[0][i], parts.Position[1][i] = x[0], x[1]
				owner := c.Domain.Owner(x)
				if owner == p.Number {
					continue
				}
				c.mb.PostMessage(p.Number, owner, migrant{
					species: k,
					pos:     [2]float64{x[0], x[1]},
					mom:     [3]float64{parts.Momentum[0][i], parts.Momentum[1][i], parts.Momentum[2][i]},
					charge:  parts.Charge[i],
					weight:  parts.Weight[i],
				})
				parts.EraseUnordered(i)
			}
		}
		c.mb.DeliverMyMessages(p.Number)
	})
	c.forEachPatch(func(p *patch.Patch) {
		for _, m := range c.mb.ReceiveMyMessages(p.Number) {
			p.Species[m.species].Add(m.pos[:], m.mom, m.charge, m.weight)
		}
		c.mb.ClearMyMessages(p.Number)
	})
}

func (c *PIC2D) diagnose(step int) (rec Record) {
	var (
		ip = c.Params
		V  = ip.CellVolume()
	)
	rec.Step = step
	rec.Time = float64(step) * ip.Timestep
	for _, p := range c.Domain.Patches {
		var (
			em              = p.EM
			istart, bufsize = c.Domain.OwnedRanges(p)
		)
		for _, f := range em.All() {
			utils.IsNanPanic(f.Name, f.Data())
		}
		rec.Charge += diagnostics.TotalCharge(em.Rho, V, istart, bufsize)
		rec.Residual = math.Max(rec.Residual, c.Div.ContinuityResidual(em.Jx, em.Jy, em.RhoOld, em.Rho, ip.Timestep))
		for _, f := range []*field.Field{em.Jx, em.Jy, em.Jz} {
			rec.Current += f.Norm2(istart, bufsize)
		}
		rec.Magnetic += diagnostics.FieldEnergy(em.Magnetic(), V, istart, bufsize)
		for _, parts := range p.Species {
			rec.Particles += parts.Size()
		}
		rec.Lost += c.lost[p.Number]
	}
	rec.RegionCharge = floats.Sum(c.Region.EM.Rho.Data()) * V
	return
}

func (c *PIC2D) PrintInitialization() {
	ip := c.Params
	fmt.Printf("Solving %d steps until time = %8.5f, dt = %8.5f\n", ip.Steps, ip.SimTime(), ip.Timestep)
	fmt.Printf("    step    time  particles")
	fmt.Printf("     Charge  RegCharge   Residual")
	fmt.Printf("      |J|^2         WB\n")
}

func (c *PIC2D) PrintUpdate(rec Record) {
	format := "%11.4e"
	fmt.Printf("%8d%8.4f%11d", rec.Step, rec.Time, rec.Particles)
	for _, v := range []float64{rec.Charge, rec.RegionCharge, rec.Residual, rec.Current, rec.Magnetic} {
		fmt.Printf(format, v)
	}
	fmt.Printf("\n")
}

func (c *PIC2D) PrintFinal(elapsed time.Duration, steps int) {
	n := c.NumParticles()
	if n > 0 && steps > 0 {
		rate := float64(elapsed.Microseconds()) / float64(n*steps)
		fmt.Printf("\nRate of execution = %8.5f us/(particle*iteration) over %d iterations\n", rate, steps)
	}
	raw, sent := c.Transport.Traffic()
	fmt.Printf("Halo traffic: %d bytes, %d sent\n", raw, sent)
	fmt.Println(utils.GetMemUsage())
}
