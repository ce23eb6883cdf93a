package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/skillbridge/skillbridge/internal/career"
	"github.com/skillbridge/skillbridge/internal/config"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Print the pipeline tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.LoadSettings()
		spec, err := career.LoadTopology(settings.PipelineFile, settings.WritingLoopMax)
		if err != nil {
			return err
		}
		known := career.PipelineStageNames()
		if err := spec.Validate(func(name string) bool { return slices.Contains(known, name) }); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), spec.Tree())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topologyCmd)
}
