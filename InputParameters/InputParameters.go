package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
	"github.com/notargets/picgrid/profiles"
	"github.com/notargets/picgrid/types"
)

// Parameters obtained from the YAML input file
type Params struct {
	Title          string                   `json:"Title"`
	CellLength     []float64                `json:"CellLength"`
	Timestep       float64                  `json:"Timestep"`
	NSpace         []int                    `json:"NSpace"`   // Cells per patch, per axis
	NPatches       []int                    `json:"NPatches"` // Patches per axis
	Oversize       []int                    `json:"Oversize"` // Ghost cells per patch side
	RegionOversize []int                    `json:"RegionOversize"`
	Boundaries     []string                 `json:"Boundaries"` // One per axis: periodic | none
	IsPXR          bool                     `json:"IsPXR"`      // PICSAR current layout
	Steps          int                      `json:"Steps"`
	DiagEvery      int                      `json:"DiagEvery"`
	Species        []SpeciesParams          `json:"Species"`
	Fields         map[string]profiles.Spec `json:"Fields"` // Initial Bx, By, Bz
}

type SpeciesParams struct {
	Name             string        `json:"Name"`
	Charge           int16         `json:"Charge"`
	ParticlesPerCell []int         `json:"ParticlesPerCell"`
	Density          profiles.Spec `json:"Density"`
	Drift            [3]float64    `json:"Drift"`  // Mean momentum
	Spread           float64       `json:"Spread"` // Momentum standard deviation
	Seed             int64         `json:"Seed"`
}

func (ip *Params) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	ip.setDefaults()
	return ip.Validate()
}

func (ip *Params) setDefaults() {
	nDim := len(ip.NSpace)
	if len(ip.NPatches) == 0 {
		ip.NPatches = fill(nDim, 1)
	}
	if len(ip.Oversize) == 0 {
		ip.Oversize = fill(nDim, 2)
	}
	if len(ip.RegionOversize) == 0 {
		ip.RegionOversize = append([]int{}, ip.Oversize...)
	}
	if len(ip.Boundaries) == 0 {
		ip.Boundaries = make([]string, nDim)
		for d := range ip.Boundaries {
			ip.Boundaries[d] = "periodic"
		}
	}
	if ip.DiagEvery == 0 {
		ip.DiagEvery = 1
	}
	for i := range ip.Species {
		if len(ip.Species[i].ParticlesPerCell) == 0 {
			ip.Species[i].ParticlesPerCell = fill(nDim, 1)
		}
	}
}

func fill(n, v int) (s []int) {
	s = make([]int, n)
	for i := range s {
		s[i] = v
	}
	return
}

func (ip *Params) NDim() int { return len(ip.NSpace) }

func (ip *Params) Validate() error {
	nDim := ip.NDim()
	if nDim != 2 {
		return fmt.Errorf("%s: only 2D geometry is supported, NSpace has %d axes", ip.Title, nDim)
	}
	for _, s := range []struct {
		name string
		n    int
	}{
		{"CellLength", len(ip.CellLength)}, {"NPatches", len(ip.NPatches)},
		{"Oversize", len(ip.Oversize)}, {"RegionOversize", len(ip.RegionOversize)},
		{"Boundaries", len(ip.Boundaries)},
	} {
		if s.n != nDim {
			return fmt.Errorf("%s: %s has %d entries, need %d", ip.Title, s.name, s.n, nDim)
		}
	}
	if ip.Timestep <= 0 {
		return fmt.Errorf("%s: Timestep must be positive, have %g", ip.Title, ip.Timestep)
	}
	for d := 0; d < nDim; d++ {
		if ip.CellLength[d] <= 0 || ip.NSpace[d] < 1 || ip.NPatches[d] < 1 {
			return fmt.Errorf("%s: axis %d needs positive CellLength, NSpace and NPatches", ip.Title, d)
		}
		// Deposition reaches two cells around a particle that moved at most one
		if ip.Oversize[d] < 2 {
			return fmt.Errorf("%s: Oversize[%d] = %d, order 2 deposition needs at least 2",
				ip.Title, d, ip.Oversize[d])
		}
		// Only adjacent patches may share points
		if ip.NSpace[d] <= 2*ip.Oversize[d]+1 {
			return fmt.Errorf("%s: NSpace[%d] = %d, need more than 2*Oversize+1 = %d",
				ip.Title, d, ip.NSpace[d], 2*ip.Oversize[d]+1)
		}
		if ip.RegionOversize[d] < ip.Oversize[d] {
			return fmt.Errorf("%s: RegionOversize[%d] = %d is smaller than Oversize %d",
				ip.Title, d, ip.RegionOversize[d], ip.Oversize[d])
		}
		if _, err := types.NewBCFLAG(ip.Boundaries[d]); err != nil {
			return fmt.Errorf("%s: axis %d: %w", ip.Title, d, err)
		}
	}
	for _, sp := range ip.Species {
		if len(sp.ParticlesPerCell) != nDim {
			return fmt.Errorf("%s: species %s: ParticlesPerCell needs %d entries", ip.Title, sp.Name, nDim)
		}
	}
	return nil
}

func (ip *Params) BCs() (bcs []types.BCFLAG) {
	bcs = make([]types.BCFLAG, ip.NDim())
	for d := range bcs {
		bcs[d], _ = types.NewBCFLAG(ip.Boundaries[d])
	}
	return
}

// CellVolume is the product of the cell lengths.
func (ip *Params) CellVolume() (v float64) {
	v = 1
	for _, dx := range ip.CellLength {
		v *= dx
	}
	return
}

// GlobalCells is the number of cells of the whole domain along each axis.
func (ip *Params) GlobalCells() (n []int) {
	n = make([]int, ip.NDim())
	for d := range n {
		n[d] = ip.NSpace[d] * ip.NPatches[d]
	}
	return
}

func (ip *Params) SimLength() (l []float64) {
	l = make([]float64, ip.NDim())
	for d, n := range ip.GlobalCells() {
		l[d] = float64(n) * ip.CellLength[d]
	}
	return
}

func (ip *Params) SimTime() float64 { return float64(ip.Steps) * ip.Timestep }

// NPrim is the number of primal points of a patch field along axis d, ghosts
// included.
func (ip *Params) NPrim(d int) int { return ip.NSpace[d] + 2*ip.Oversize[d] + 1 }

func (ip *Params) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%v\t\t= Cell Length\n", ip.CellLength)
	fmt.Printf("%8.5f\t\t= Timestep\n", ip.Timestep)
	fmt.Printf("%v x %v\t\t= Cells per patch x Patches\n", ip.NSpace, ip.NPatches)
	fmt.Printf("%v / %v\t\t= Oversize / Region Oversize\n", ip.Oversize, ip.RegionOversize)
	fmt.Printf("%v\t= Boundaries\n", ip.Boundaries)
	fmt.Printf("[%d]\t\t\t= Steps\n", ip.Steps)
	for _, sp := range ip.Species {
		fmt.Printf("Species[%s] charge %d, %v per cell, density %s\n",
			sp.Name, sp.Charge, sp.ParticlesPerCell, sp.Density.Shape)
	}
	keys := make([]string, len(ip.Fields))
	i := 0
	for k := range ip.Fields {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Fields[%s] = %s %v\n", key, ip.Fields[key].Shape, ip.Fields[key].Params)
	}
}
