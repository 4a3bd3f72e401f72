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

// Package testutils writes input fixtures shaped like the ground-truth CSV schema.
package testutils

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/walteh/metacopy/pkg/record"
)

// 🧪 Row is one fixture row; empty fields stay empty cells
type Row struct {
	ID                string
	FileID            string
	Domain            string
	RepoName          string
	FilePath          string
	LineStart         string
	LineEnd           string
	GroundTruth       string
	ValueStart        string
	ValueEnd          string
	CryptographyKey   string
	PredefinedPattern string
	Category          string
}

// Fields returns the row in record.Columns order.
func (r Row) Fields() []string {
	return []string{
		r.ID,
		r.FileID,
		r.Domain,
		r.RepoName,
		r.FilePath,
		r.LineStart,
		r.LineEnd,
		r.GroundTruth,
		r.ValueStart,
		r.ValueEnd,
		r.CryptographyKey,
		r.PredefinedPattern,
		r.Category,
	}
}

// WriteCSV writes rows under the standard header to dir/name and returns the path.
func WriteCSV(t testing.TB, dir, name string, rows ...Row) string {
	t.Helper()

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Fields())
	}
	return WriteRawCSV(t, dir, name, record.Columns, records...)
}

// WriteRawCSV writes an arbitrary header and rows, for malformed-input cases.
func WriteRawCSV(t testing.TB, dir, name string, header []string, rows ...[]string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0755), "creating fixture directory")

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err, "creating fixture file")
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(header), "writing header")
	require.NoError(t, w.WriteAll(rows), "writing rows")
	require.NoError(t, f.Sync(), "syncing fixture file")

	return path
}

// WriteSource creates a workspace file at the slash-separated rel path.
func WriteSource(t testing.TB, workspace, rel, content string) string {
	t.Helper()

	path := filepath.Join(workspace, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "creating source directory")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "writing source file")
	return path
}

// Context returns a context carrying a logger that writes to the test log.
func Context(t testing.TB) context.Context {
	t.Helper()

	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

// Sample returns a small mixed set of rows across two repositories, modeled on
// the trimmed ground-truth inputs.
func Sample() map[string][]Row {
	return map[string][]Row{
		"39def7b4.csv": {
			{ID: "17247", FileID: "d97e408a", Domain: "GitHub", RepoName: "39def7b4", FilePath: "data/39def7b4/spec/d97e408a.rb", LineStart: "91", LineEnd: "91", GroundTruth: "T", ValueStart: "51", ValueEnd: "112", Category: "Credential"},
			{ID: "22029", FileID: "2d217115", Domain: "GitHub", RepoName: "39def7b4", FilePath: "data/39def7b4/spec/api/2d217115.rb", LineStart: "36", LineEnd: "36", GroundTruth: "X", ValueStart: "21", ValueEnd: "27", Category: "Secret"},
			{ID: "255", FileID: "64efeea8", Domain: "GitHub", RepoName: "39def7b4", FilePath: "data/39def7b4/lib/64efeea8.rb", LineStart: "13", LineEnd: "13", GroundTruth: "F", Category: "Secret"},
		},
		"b133f43d.csv": {
			{ID: "35495", FileID: "a844bf5e", Domain: "GitHub", RepoName: "b133f43d", FilePath: "data/b133f43d/example/a844bf5e.p8", LineStart: "1", LineEnd: "28", GroundTruth: "T", CryptographyKey: "Private", Category: "PEM Private Key"},
			{ID: "483", FileID: "044e7d55", Domain: "GitHub", RepoName: "b133f43d", FilePath: "data/b133f43d/_/044e7d55.md", LineStart: "14", LineEnd: "14", GroundTruth: "F", Category: "API"},
		},
	}
}
