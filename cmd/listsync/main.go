// Command listsync replays list operation scripts and serves observable
// collections over a websocket change feed.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeusync/listsync/internal/core/observability/log"
)

type app struct {
	logLevel string
	logger   *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "listsync",
		Short: "Observable ordered collections",
		Long: `listsync drives observable ordered collections.

Available subcommands:
  replay - apply operation scripts and print every change they produce
  serve  - host collections and stream their changes over websockets`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(a.logLevel)
			if err != nil {
				return err
			}
			a.logger = log.New(level)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error, silent)")

	rootCmd.AddCommand(newReplayCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
