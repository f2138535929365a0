package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"seafoodpulse/internal/app"
	"seafoodpulse/internal/config"
	"seafoodpulse/internal/exporter"
	"seafoodpulse/internal/operations"
	"seafoodpulse/pkg/contracts/domain"
)

var continueOnError bool

func init() {
	pipelineCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Keep running independent steps after a failure")
	rootCmd.AddCommand(scrapeCmd, processCmd, analyzeCmd, fishingCmd, pipelineCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Discovers and downloads the latest weekly market workbooks.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			_, err := runStep(ctx, cmd.OutOrStdout(), a, operations.StepIDScraping, nil)
			return err
		}, keepStdout)
	},
}

var processCmd = &cobra.Command{
	Use:   "process [dir|url]",
	Short: "Combines downloaded workbooks into the market table. Reads the downloads directory unless a dir or a workbook url is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := processParam(args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			_, err := runStep(ctx, cmd.OutOrStdout(), a, operations.StepIDProcessing, params)
			return err
		}, keepStdout)
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Builds the analysis report from the combined market table and prints it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			out := cmd.OutOrStdout()
			snap, err := runStep(ctx, out, a, operations.StepIDAnalysis, nil)
			if err != nil {
				return err
			}
			if len(snap.Steps) == 1 && snap.Steps[0].Status == domain.StepStatusCompleted {
				return renderReport(ctx, out, a)
			}
			return nil
		}, keepStdout)
	},
}

var fishingCmd = &cobra.Command{
	Use:   "fishing [file]",
	Short: "Summarises port visits from a fishing activity CSV. Uses the newest CSV in the fishing directory unless file is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := pathParam(operations.ParamInputFile, args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			_, err := runStep(ctx, cmd.OutOrStdout(), a, operations.StepIDFishing, params)
			return err
		}, keepStdout)
	},
}

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Runs scraping, processing, analysis and fishing in dependency order.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		setContinue := func(cfg *config.Config) {
			if cmd.Flags().Changed("continue-on-error") {
				cfg.Pipeline.ContinueOnError = continueOnError
			}
		}
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			_, err := runStep(ctx, cmd.OutOrStdout(), a, operations.FullPipeline, nil)
			return err
		}, keepStdout, setContinue)
	},
}

// pathParam turns an optional positional path into an absolute step parameter
func pathParam(name string, args []string) (map[string]any, error) {
	if len(args) == 0 || args[0] == "" {
		return nil, nil
	}
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", args[0], err)
	}
	return map[string]any{name: abs}, nil
}

// processParam sends http(s) arguments to the processing step as a workbook
// url and everything else as an input directory
func processParam(args []string) (map[string]any, error) {
	if len(args) > 0 {
		lower := strings.ToLower(args[0])
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			return map[string]any{operations.ParamInputURL: args[0]}, nil
		}
	}
	return pathParam(operations.ParamInputDir, args)
}

// runStep executes step in the foreground and prints the per-step outcome
func runStep(ctx context.Context, out io.Writer, a *app.Application, step string, params map[string]any) (domain.OperationSnapshot, error) {
	req := operations.OperationRequest{Parameters: map[string]any{operations.ParamStep: step}}
	for k, v := range params {
		req.Parameters[k] = v
	}

	snap, err := a.Execute(ctx, req)
	if snap.ID != "" {
		exporter.NewTableRenderer(out).Operation(snap)
	}
	if err != nil {
		return snap, fmt.Errorf("%s: %w", step, err)
	}
	return snap, nil
}
