package main

import (
	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <stream.yaml>",
	Short: "Render every document of a YAML stream in order",
	Long: `Treats each '---' separated document as a successive render of one page.
With --flush deferred every render after the mount is coalesced into a single pass.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return cli.RunReplay(cmd.Context(), cmd.OutOrStdout(), cli.ReplayOptions{Options: opts, Path: args[0], JSON: asJSON})
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Bool("json", false, "Print the pass reports as JSON")
}
