package main

import (
	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <prev> <next>",
	Short: "Show the host calls that turn one tree into another",
	Long: `Mounts the previous tree document on an in-memory host, renders the next one
and prints the patches every changed boundary receives.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		views, _ := cmd.Flags().GetBool("views")
		asJSON, _ := cmd.Flags().GetBool("json")
		return cli.RunDiff(cmd.Context(), cmd.OutOrStdout(), cli.DiffOptions{
			Options: opts,
			Prev:    args[0],
			Next:    args[1],
			Views:   views,
			JSON:    asJSON,
		})
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().Bool("views", false, "Also print a line diff of every changed boundary view")
	diffCmd.Flags().Bool("json", false, "Print the pass report and host calls as JSON")
}
