package main

import (
	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <tree> [next]",
	Short: "Export the boundary hierarchy visualization",
	Long: `Partitions the tree and outputs a Mermaid diagram (graph TD) of its boundaries.
Given a second tree, the pass that renders it is overlaid: created boundaries
and boundaries that received a host call are highlighted.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		g := cli.GraphOptions{Options: opts, Path: args[0]}
		if len(args) == 2 {
			g.Next = args[1]
		}
		return cli.RunGraph(cmd.Context(), cmd.OutOrStdout(), g)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
