package main

import (
	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var partitionCmd = &cobra.Command{
	Use:   "partition <tree>",
	Short: "List the update boundaries of a tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		views, _ := cmd.Flags().GetBool("views")
		asJSON, _ := cmd.Flags().GetBool("json")
		return cli.RunPartition(cmd.Context(), cmd.OutOrStdout(), cli.PartitionOptions{
			Options: opts,
			Path:    args[0],
			Views:   views,
			JSON:    asJSON,
		})
	},
}

func init() {
	rootCmd.AddCommand(partitionCmd)
	partitionCmd.Flags().Bool("json", false, "Print the boundaries as JSON")
	partitionCmd.Flags().Bool("views", false, "Include the host view of every boundary (JSON only)")
}
