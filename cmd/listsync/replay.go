package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/zeusync/listsync/internal/core/observability/log"
	"github.com/zeusync/listsync/internal/script"
	"github.com/zeusync/listsync/pkg/concurrent"
	"github.com/zeusync/listsync/pkg/sequence"
)

type replayOptions struct {
	jobs      int
	quiet     bool
	showView  bool
	failEarly bool
}

func newReplayCmd(a *app) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <script.yaml>...",
		Short: "Replay operation scripts",
		Long: `Replay applies each script to a fresh collection and prints the changes
it produced, the final values and their digest. Scripts run concurrently;
output keeps the order of the arguments.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), cmd.OutOrStdout(), a.logger, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "Scripts replayed at once")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only print digests")
	cmd.Flags().BoolVar(&opts.showView, "view", false, "Also print calls a bound table view received")
	cmd.Flags().BoolVar(&opts.failEarly, "fail-fast", false, "Stop starting scripts after the first failure")
	return cmd
}

type replayOutcome struct {
	path   string
	result *script.Result
	err    error
}

func runReplay(ctx context.Context, out io.Writer, logger log.Log, paths []string, opts *replayOptions) error {
	if logger == nil {
		logger = log.Nop()
	}

	mode := concurrent.IgnoreErrors
	if opts.failEarly {
		mode = concurrent.StopAllOnError
	}

	results, err := concurrent.Pipeline(ctx, sequence.From(paths), opts.jobs, mode,
		func(_ context.Context, path string) (*script.Result, error) {
			s, err := script.LoadFile(path)
			if err != nil {
				return nil, err
			}
			return script.Run(s, logger)
		})

	failed := 0
	for i, res := range results {
		if errors.Is(res.Error, concurrent.ErrSkipped) {
			continue
		}
		printOutcome(out, replayOutcome{path: paths[i], result: res.Result, err: res.Error}, opts)
		if res.Error != nil {
			failed++
		}
	}

	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(paths))
	}
	return nil
}

func printOutcome(out io.Writer, o replayOutcome, opts *replayOptions) {
	if opts.quiet {
		if o.err != nil {
			fmt.Fprintf(out, "%s\terror: %v\n", o.path, o.err)
			return
		}
		fmt.Fprintf(out, "%s\t%s\n", o.path, o.result.DigestHex())
		return
	}

	fmt.Fprintf(out, "== %s\n", o.path)
	if o.result != nil {
		for _, line := range o.result.Trace {
			fmt.Fprintf(out, "  %s\n", line)
		}
		if opts.showView {
			fmt.Fprintln(out, "view:")
			for _, line := range o.result.View {
				fmt.Fprintf(out, "  %s\n", line)
			}
		}
		fmt.Fprintf(out, "values: %q\n", o.result.Values)
		fmt.Fprintf(out, "digest: %s\n", o.result.DigestHex())
	}
	if o.err != nil {
		fmt.Fprintf(out, "error: %v\n", o.err)
	}
}
