package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/DemianMArin/rv32pipe/pkg/sim"
)

func main() {
	log.SetFlags(0)

	var cfg sim.Config

	cmd := &cobra.Command{
		Use:   "rv32pipe",
		Short: "Run the single-cycle and five-stage RV32I simulators in lockstep",
		RunE: func(_ *cobra.Command, _ []string) error {
			return sim.Run(cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.IODir, "iodir", ".", "directory containing input images and destination for outputs")
	cmd.Flags().StringVar(&cfg.TestPath, "testpath", "", "alternative root; when set, images are read from <testpath>/TC1/")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
