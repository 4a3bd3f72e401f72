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

package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/metacopy/cmd/metacopy/commands"
	"github.com/walteh/metacopy/cmd/metacopy/opts"
	"github.com/walteh/metacopy/pkg/config"
	"github.com/walteh/metacopy/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// rootFlags holds the persistent flags
type rootFlags struct {
	configFile string
	debug      bool
}

// newRootCmd builds the command tree. Shared options are resolved in
// PersistentPreRunE so flags are parsed first.
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "metacopy",
		Short: "Copy ground-truth sample files into a self-describing archive",
		Long: `metacopy reads ground-truth CSV records, copies every referenced source
file into an output tree and writes a JSON metadata sidecar next to each copy,
plus a summary report and a master metadata list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd.Context(), cmd.ErrOrStderr(), flags.debug)
			console := log.New(cmd.OutOrStdout(), *zerolog.Ctx(ctx)).WithVerbose(flags.debug)
			cmd.SetContext(console.WithContext(ctx))

			resolved, err := newRootOpts(ctx, flags)
			if err != nil {
				return err
			}
			*rootOpts = *resolved
			return nil
		},
	}

	// Add shared flags
	addRootFlags(rootCmd, flags)

	// Add commands
	rootCmd.AddCommand(
		commands.NewCopyCmd(rootOpts),
		commands.NewLookupCmd(rootOpts),
		newVersionCmd(),
	)

	return rootCmd
}

// newRootOpts creates the shared options with initialized dependencies
func newRootOpts(ctx context.Context, flags *rootFlags) (*opts.RootOpts, error) {
	cfg := config.Default()
	if flags.configFile != "" {
		loaded, err := config.Load(ctx, flags.configFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	return &opts.RootOpts{
		Config: cfg,
		Debug:  flags.debug,
	}, nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path (.json, .yaml, .yml or .hcl)")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags and attaches it to ctx
func setupLogging(ctx context.Context, w io.Writer, debug bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if w == nil {
		w = os.Stderr
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}
