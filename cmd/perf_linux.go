//go:build linux

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

	perf "github.com/hodgesds/perf-utils"
	"github.com/notargets/picgrid/model_problems/PIC2D"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// PerfCmd represents the perf command
var PerfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Count CPU instructions and cycles of the first steps",
	Long: `
Builds the run described by the input file, counts instructions over its
first step and cycles over the second. Needs perf_event access (perf_event_paranoid <= 2).

picgrid perf -I input.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := &RunOptions{}
		opts.InputFile, _ = cmd.Flags().GetString("inputConditionsFile")
		opts.Device = viper.GetString("device")
		opts.Workers = viper.GetInt("workers")
		ip := processInput(opts)
		dev, err := newDevice(opts.Device, opts.Workers)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		c, err := PIC2D.NewPIC2D(ip, dev, nil, false)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		step := stepper(c)
		instructions, err := perf.CPUInstructions(step)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		cycles, err := perf.CPUCycles(step)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		n := float64(c.NumParticles())
		fmt.Printf("%d particles on %s\n", c.NumParticles(), dev.Name())
		fmt.Printf("step 1: %12d instructions, %8.2f per particle\n", instructions.Value, float64(instructions.Value)/n)
		fmt.Printf("step 2: %12d cycles, %8.2f per particle\n", cycles.Value, float64(cycles.Value)/n)
	},
}

func init() {
	rootCmd.AddCommand(PerfCmd)
	PerfCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters")
}
