package main

import (
	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the page HTTP server",
	Long: `Keeps pages in memory (or in Redis when redis.addr is configured) and exposes them
over a JSON API. Every update call is streamed to the page's /events subscribers
and Prometheus metrics are served on /metrics.`,
	Annotations: map[string]string{longRunning: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		tui.PrintBanner(cmd.OutOrStdout())
		return cli.RunServe(ctx, cmd.OutOrStdout(), cli.ServeOptions{Options: opts, Addr: addr})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides http.addr)")
}
