package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/scalebar/pkg/observability"
	"github.com/matzehuels/scalebar/pkg/pipeline"
)

type runOptions struct {
	workers int
	open    bool
	report  string
}

func (c *CLI) runCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Write every queued image with its scale bar",
		Long: `Process the queue in order. A task that fails is reported and the rest
still run. When every task succeeds the queue is emptied; otherwise it is
kept so the failures can be fixed and the run repeated.

Ctrl+C stops before the next image; the image in progress is finished.`,
		Example: `  scalebar run
  scalebar run --workers 4 --open
  scalebar run --report run.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 1, fmt.Sprintf("parallel workers (max %d); duplicate outputs force 1", pipeline.MaxWorkers))
	cmd.Flags().BoolVar(&opts.open, "open", false, "open the output directory when done")
	cmd.Flags().StringVar(&opts.report, "report", "", "write the run report as YAML")

	return cmd
}

func (c *CLI) runBatch(ctx context.Context, opts runOptions) error {
	cfg, _, err := c.loadSettings()
	if err != nil {
		return err
	}
	q, store, err := c.loadQueue(ctx)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	observability.SetBatchHooks(newBatchProgress(ctx))
	defer observability.Reset()

	prog := newProgress(c.Logger)
	report, err := runner.RunBatch(ctx, q, pipeline.BatchOptions{
		MarginLeft:   cfg.ScaleBarLeftMargin,
		MarginBottom: cfg.ScaleBarBottomMargin,
		Workers:      opts.workers,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Processed %d image(s)", report.Total()-report.Skipped))

	if err := store.Save(ctx, q); err != nil {
		return err
	}
	if opts.report != "" {
		if err := writeReport(opts.report, report); err != nil {
			return err
		}
	}

	printNewline()
	printCounts(
		countPart{len(report.Succeeded), "succeeded", StyleSuccess},
		countPart{len(report.Failed), "failed", styleFailed},
		countPart{report.Skipped, "not started", StyleWarning},
	)
	if opts.report != "" {
		printFile(opts.report)
	}

	if !report.OK() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		printNextStep("Fix the failures and retry with", "scalebar run")
		return report.Err()
	}

	if report.OutputDir != "" {
		printSuccess("Outputs in %s", report.OutputDir)
		if opts.open {
			if err := openPath(report.OutputDir); err != nil {
				printWarning("Could not open %s: %v", report.OutputDir, err)
			}
		}
	}
	return nil
}

func writeReport(path string, report *pipeline.BatchReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
