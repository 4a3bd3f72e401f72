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
	"path"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/metacopy/cmd/metacopy/opts"
	"github.com/walteh/metacopy/pkg/config"
	"github.com/walteh/metacopy/pkg/log"
	"github.com/walteh/metacopy/pkg/record"
	"github.com/walteh/metacopy/pkg/snapshot"
	"gitlab.com/tozd/go/errors"
)

type lookupFlags struct {
	snapshot string
	inputDir string
	verify   bool
}

// NewLookupCmd creates the lookup command
func NewLookupCmd(rootOpts *opts.RootOpts) *cobra.Command {
	flags := &lookupFlags{}

	cmd := &cobra.Command{
		Use:   "lookup [ids...]",
		Short: "Resolve short repository ids to repositories",
		Long: `Resolves 8 character repository ids against the snapshot file.

Without arguments the ids are taken from the CSV file names in the input
directory, so 39def7b4.csv is looked up as 39def7b4.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if rootOpts.Config != nil {
				c := *rootOpts.Config
				cfg = &c
			}
			if cmd.Flags().Changed("snapshot") {
				cfg.Snapshot = flags.snapshot
			}
			if cmd.Flags().Changed("input-dir") {
				cfg.InputDir = flags.inputDir
			}

			ids := args
			if len(ids) == 0 {
				var err error
				if ids, err = inputIDs(cfg); err != nil {
					return err
				}
			}

			var verifier *snapshot.Verifier
			if flags.verify {
				verifier = snapshot.NewVerifier(nil)
			}

			return runLookup(cmd, cfg.Snapshot, ids, verifier)
		},
	}

	cmd.Flags().StringVar(&flags.snapshot, "snapshot", config.DefaultSnapshot, "snapshot file mapping repository hashes to urls")
	cmd.Flags().StringVar(&flags.inputDir, "input-dir", config.DefaultInputDir, "directory whose CSV names are used when no ids are given")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "check each resolved repository on GitHub")

	return cmd
}

// inputIDs strips the extension from every input file name.
func inputIDs(cfg *config.Config) ([]string, error) {
	names, err := record.Inputs(cfg.InputDir, cfg.InputPattern)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.Errorf("no ids given and no inputs found in %s", cfg.InputDir)
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		base := path.Base(name)
		ids = append(ids, strings.TrimSuffix(base, path.Ext(base)))
	}
	return ids, nil
}

func runLookup(cmd *cobra.Command, snapshotPath string, ids []string, verifier *snapshot.Verifier) error {
	ctx := cmd.Context()
	console := log.FromContext(ctx)

	idx, err := snapshot.Load(ctx, snapshotPath)
	if err != nil {
		return err
	}
	console.Infof("Loaded %d repositories from %s", idx.Len(), snapshotPath)

	header := []string{"ID", "Repository", "Commit", "URL"}
	if verifier != nil {
		header = append(header, "GitHub")
	}
	data := pterm.TableData{header}

	missing := 0
	for _, id := range ids {
		repo, err := idx.Lookup(id)
		if err != nil {
			if !errors.Is(err, snapshot.ErrNotFound) {
				return err
			}
			missing++
			row := []string{id, "-", "-", "-"}
			if verifier != nil {
				row = append(row, "-")
			}
			data = append(data, row)
			continue
		}

		row := []string{id, repo.RepoName, repo.CommitSHA, repo.RepoURL}
		if verifier != nil {
			row = append(row, verifyStatus(cmd, verifier, repo))
		}
		data = append(data, row)
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering lookup table: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), table); err != nil {
		return err
	}

	if missing > 0 {
		console.Warningf("%d/%d ids not found in snapshot", missing, len(ids))
	} else {
		console.Successf("Resolved %d ids", len(ids))
	}
	return nil
}

// verifyStatus describes what GitHub reports for repo
func verifyStatus(cmd *cobra.Command, verifier *snapshot.Verifier, repo snapshot.Repo) string {
	info, err := verifier.Verify(cmd.Context(), repo)
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		return "gone"
	case err != nil:
		return "error: " + err.Error()
	}

	status := "ok"
	if info.Archived {
		status = "archived"
	}
	if info.License != "" {
		status += " (" + info.License + ")"
	}
	return status
}
