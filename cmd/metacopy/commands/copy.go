// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/metacopy/cmd/metacopy/opts"
	"github.com/walteh/metacopy/pkg/config"
	"github.com/walteh/metacopy/pkg/log"
	"github.com/walteh/metacopy/pkg/operation"
	"github.com/walteh/metacopy/pkg/record"
	"github.com/walteh/metacopy/pkg/report"
	"github.com/walteh/metacopy/pkg/store"
	"gitlab.com/tozd/go/errors"
)

// copyFlags mirror the config fields they override
type copyFlags struct {
	inputDir      string
	pattern       string
	workspace     string
	output        string
	progressEvery int
	workers       int
}

// NewCopyCmd creates the copy command
func NewCopyCmd(rootOpts *opts.RootOpts) *cobra.Command {
	flags := &copyFlags{}

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy every referenced file and write its metadata",
		Long: `Reads every CSV in the input directory, copies each referenced source file
into <output>/files and writes a JSON sidecar into <output>/metadata.
A summary report and a master metadata list are written at the output root.

Records whose source is missing are counted as failed; they never stop the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := applyCopyFlags(cmd, rootOpts.Config, flags)
			if err != nil {
				return err
			}
			return runCopy(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&flags.inputDir, "input-dir", config.DefaultInputDir, "directory holding the ground-truth CSV files")
	cmd.Flags().StringVar(&flags.pattern, "pattern", config.DefaultInputPattern, "glob selecting CSV files inside the input directory")
	cmd.Flags().StringVar(&flags.workspace, "workspace", config.DefaultWorkspaceRoot, "root that stored file paths are relative to")
	cmd.Flags().StringVar(&flags.output, "output", config.DefaultOutputDir, "output root")
	cmd.Flags().IntVar(&flags.progressEvery, "progress-every", config.DefaultProgressEvery, "report progress every N records (0 disables)")
	cmd.Flags().IntVar(&flags.workers, "workers", config.DefaultWorkers, "number of records processed concurrently")

	return cmd
}

// applyCopyFlags returns a copy of base with every explicitly set flag applied.
func applyCopyFlags(cmd *cobra.Command, base *config.Config, flags *copyFlags) (*config.Config, error) {
	cfg := config.Default()
	if base != nil {
		c := *base
		cfg = &c
	}

	changed := cmd.Flags().Changed
	if changed("input-dir") {
		cfg.InputDir = flags.inputDir
	}
	if changed("pattern") {
		cfg.InputPattern = flags.pattern
	}
	if changed("workspace") {
		cfg.WorkspaceRoot = flags.workspace
	}
	if changed("output") {
		cfg.OutputDir = flags.output
	}
	if changed("progress-every") {
		cfg.ProgressEvery = flags.progressEvery
	}
	if changed("workers") {
		cfg.Workers = flags.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runCopy(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	console := log.FromContext(ctx)

	console.Header("copying files with metadata")
	console.Infof("Configuration: %s", cfg)

	records, err := record.ReadDir(ctx, cfg.InputDir, cfg.InputPattern)
	if err != nil {
		console.Errorf("Failed to read ground truth: %v", err)
		return err
	}

	if dups := record.DuplicateIDs(records); len(dups) > 0 {
		console.Warningf("Duplicate record ids: %s", strings.Join(dups, ", "))
	}
	if len(records) == 0 {
		console.Warning("No records found; writing empty reports")
	}
	console.Infof("Loaded %d records", len(records))

	out := store.New(cfg.OutputDir)
	if err := out.EnsureDirs(ctx, "files", "metadata"); err != nil {
		return errors.Errorf("preparing output directory: %w", err)
	}

	runner, err := operation.New(operation.Options{
		WorkspaceRoot: cfg.WorkspaceRoot,
		Store:         out,
		ProgressEvery: cfg.ProgressEvery,
		Workers:       cfg.Workers,
		Observer:      console,
	})
	if err != nil {
		return errors.Errorf("creating runner: %w", err)
	}

	result, err := runner.Run(ctx, records)
	if err != nil {
		return err
	}

	summary := report.Build(result.Records, result.Succeeded)
	if err := report.Write(ctx, out, summary, report.BuildMaster(result.Records)); err != nil {
		// the copies are already in place, a missing report is not fatal
		console.Errorf("Failed to write reports: %v", err)
	}

	console.LogNewline()
	if err := printSummary(cmd, cfg, summary); err != nil {
		return err
	}

	console.Successf("Successfully copied %d/%d files", summary.SuccessfullyCopied, summary.TotalRecords)
	return nil
}

// printSummary renders the end-of-run table
func printSummary(cmd *cobra.Command, cfg *config.Config, summary report.Summary) error {
	data := pterm.TableData{
		{"Metric", "Value"},
		{"Total records", fmt.Sprint(summary.TotalRecords)},
		{"Copied", fmt.Sprint(summary.SuccessfullyCopied)},
		{"Failed", fmt.Sprint(summary.FailedToCopy)},
		{"True positives", fmt.Sprint(summary.Statistics.ByGroundTruth[string(record.TruePositive)])},
		{"False positives", fmt.Sprint(summary.Statistics.ByGroundTruth[string(record.FalsePositive)])},
		{"Repositories", fmt.Sprint(len(summary.Statistics.ByRepo))},
		{"Output", cfg.OutputDir},
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering summary: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), table)
	return err
}
