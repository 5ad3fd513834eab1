package InputParameters

import (
	"testing"

	"github.com/notargets/picgrid/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	fileInput := []byte(`
Title: Drifting plasma
CellLength: [0.5, 0.25]
Timestep: 0.1
NSpace: [8, 6]
NPatches: [2, 3]
Oversize: [2, 2]
RegionOversize: [3, 2]
Boundaries: [periodic, none]
Steps: 10
Species:
  - Name: electron
    Charge: -1
    ParticlesPerCell: [2, 2]
    Drift: [0.1, 0, 0]
    Density:
      Shape: trapezoidal
      Params:
        max: 1.
        xslope1: 2.
Fields:
  Bz:
    Shape: constant
    Params:
      value: 0.5
`)
	var ip Params
	require.NoError(t, ip.Parse(fileInput))
	ip.Print()
	assert.Equal(t, "Drifting plasma", ip.Title)
	assert.Equal(t, []int{16, 18}, ip.GlobalCells())
	assert.Equal(t, []float64{8, 4.5}, ip.SimLength())
	assert.InDelta(t, 1., ip.SimTime(), 1.e-14)
	assert.Equal(t, 0.125, ip.CellVolume())
	assert.Equal(t, 13, ip.NPrim(0))
	assert.Equal(t, []types.BCFLAG{types.BC_Periodic, types.BC_None}, ip.BCs())
	require.Len(t, ip.Species, 1)
	assert.Equal(t, int16(-1), ip.Species[0].Charge)
	assert.Equal(t, 2., ip.Species[0].Density.Params["xslope1"])
	assert.Equal(t, 0.5, ip.Fields["Bz"].Params["value"])
	assert.Equal(t, 1, ip.DiagEvery)

	{ // Defaults
		var d Params
		require.NoError(t, d.Parse([]byte("Title: d\nCellLength: [1, 1]\nTimestep: 0.5\nNSpace: [8, 8]\n")))
		assert.Equal(t, []int{1, 1}, d.NPatches)
		assert.Equal(t, []int{2, 2}, d.Oversize)
		assert.Equal(t, d.Oversize, d.RegionOversize)
		assert.Equal(t, []string{"periodic", "periodic"}, d.Boundaries)
	}
	{ // Rejections
		bad := []string{
			"NSpace: [4, 4, 4]\nCellLength: [1, 1, 1]\nTimestep: 1",
			"NSpace: [8, 8]\nCellLength: [1]\nTimestep: 1",
			"NSpace: [8, 8]\nCellLength: [1, 1]\nTimestep: 0",
			"NSpace: [8, 8]\nCellLength: [1, 1]\nTimestep: 1\nOversize: [1, 2]",
			"NSpace: [8, 8]\nCellLength: [1, 1]\nTimestep: 1\nRegionOversize: [1, 2]",
			"NSpace: [8, 8]\nCellLength: [1, 1]\nTimestep: 1\nBoundaries: [periodic, wall]",
			"NSpace: [8, 8]\nCellLength: [1, 1]\nTimestep: 1\nSpecies: [{Name: e, ParticlesPerCell: [1]}]",
			"NSpace: [5, 8]\nCellLength: [1, 1]\nTimestep: 1",
			"NSpace: [8, 4\n",
		}
		for _, in := range bad {
			var p Params
			assert.Error(t, p.Parse([]byte(in)), in)
		}
	}
}
