/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/notargets/picgrid/InputParameters"
	"github.com/notargets/picgrid/device"
	"github.com/notargets/picgrid/exchange"
	"github.com/notargets/picgrid/model_problems/PIC2D"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type RunOptions struct {
	InputFile string
	Device    string
	Workers   int
	Compress  int // zstd level of the halo traffic, 0 sends raw buffers
	Steps     int // Overrides the input file when positive
	Profile   string
}

const exampleFile = `
########################################
Title: "Drifting electrons"
CellLength: [0.5, 0.5]
Timestep: 0.25
NSpace: [16, 16]
NPatches: [2, 2]
Boundaries: [periodic, periodic]
Steps: 100
DiagEvery: 10
Species:
  - Name: electron
    Charge: -1
    ParticlesPerCell: [2, 2]
    Drift: [0.1, 0, 0]
    Spread: 0.1
    Density:
      Shape: trapezoidal
      Params:
        max: 1.
        xslope1: 2.
Fields:
  Bz:
    Shape: constant
    Params:
      value: 0.1
########################################
`

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Two dimensional PIC run: deposition, halo sums and exchanges, diagnostics",
	Long: `
Loads the particles described by the input file, then advances them for the
requested number of steps, printing the charge, continuity residual, current
and magnetic energy every DiagEvery steps.

picgrid run -I input.yaml --device pool --workers 8`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		opts := &RunOptions{}
		if opts.InputFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		opts.Device = viper.GetString("device")
		opts.Workers = viper.GetInt("workers")
		opts.Compress = viper.GetInt("compress")
		opts.Steps, _ = cmd.Flags().GetInt("steps")
		opts.Profile, _ = cmd.Flags().GetString("profile")
		ip := processInput(opts)
		if err = RunPIC(opts, ip); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- NSpace, NPatches\n\t- Species")
	RunCmd.Flags().StringP("device", "D", "host", "execution device: host or pool")
	RunCmd.Flags().IntP("workers", "w", 0, "goroutines of the pool device, 0 is one per CPU")
	RunCmd.Flags().IntP("compress", "z", 0, "zstd level for halo buffers, 0 disables compression")
	RunCmd.Flags().IntP("steps", "n", 0, "number of steps, overrides the input file")
	RunCmd.Flags().StringP("profile", "p", "", "write a cpu or mem profile to the current directory")
	for _, name := range []string{"device", "workers", "compress"} {
		if err := viper.BindPFlag(name, RunCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func processInput(opts *RunOptions) (ip *InputParameters.Params) {
	var err error
	if len(opts.InputFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	if ip, err = loadInput(opts.InputFile); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	return
}

func loadInput(fileName string) (ip *InputParameters.Params, err error) {
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	ip = &InputParameters.Params{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return
}

func newDevice(label string, workers int) (dev device.Device, err error) {
	var kind device.Kind
	if kind, err = device.NewKind(label); err != nil {
		return
	}
	return device.New(kind, workers), nil
}

func RunPIC(opts *RunOptions, ip *InputParameters.Params) (err error) {
	var (
		dev   device.Device
		codec *exchange.Codec
		c     *PIC2D.PIC2D
	)
	if opts.Steps > 0 {
		ip.Steps = opts.Steps
	}
	if dev, err = newDevice(opts.Device, opts.Workers); err != nil {
		return
	}
	if opts.Compress > 0 {
		codec = exchange.NewCodec(opts.Compress)
	}
	switch opts.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile %q, use cpu or mem", opts.Profile)
	}
	ip.Print()
	if c, err = PIC2D.NewPIC2D(ip, dev, codec, true); err != nil {
		return
	}
	c.Run()
	return
}

// stepper advances c by one step per call, numbering steps from 1.
func stepper(c *PIC2D.PIC2D) func() error {
	var step int
	return func() error {
		step++
		c.Step(step)
		return nil
	}
}
