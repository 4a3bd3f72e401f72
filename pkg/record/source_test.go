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

package record_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/metacopy/pkg/record"
	"github.com/walteh/metacopy/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func TestReadDir(t *testing.T) {
	ctx := testutils.Context(t)
	dir := t.TempDir()

	for name, rows := range testutils.Sample() {
		testutils.WriteCSV(t, dir, name, rows...)
	}
	testutils.WriteSource(t, dir, "notes.txt", "not an input")

	recs, err := record.ReadDir(ctx, dir, "")
	require.NoError(t, err, "reading inputs")
	require.Len(t, recs, 5, "all rows from both files")

	// files are read in name order, rows in file order
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"17247", "22029", "255", "35495", "483"}, ids)

	for _, r := range recs {
		assert.Equal(t, r.RepoName+".csv", r.SourceInput, "record %s tagged with its own input", r.ID)
	}

	first := recs[0]
	assert.Equal(t, "d97e408a", first.FileID)
	assert.Equal(t, "GitHub", first.Domain)
	assert.Equal(t, "data/39def7b4/spec/d97e408a.rb", first.FilePath)
	require.NotNil(t, first.LineStart)
	assert.Equal(t, 91, *first.LineStart)
	require.NotNil(t, first.ValueEnd)
	assert.Equal(t, 112, *first.ValueEnd)
	assert.Equal(t, record.TruePositive, first.GroundTruth)
	assert.Nil(t, first.CryptographyKey)
	assert.Nil(t, first.PredefinedPattern)
	assert.Equal(t, "Credential", first.Category)

	noValue := recs[2]
	assert.Nil(t, noValue.ValueStart, "empty cell is nil, not zero")
	assert.Nil(t, noValue.ValueEnd)
	require.NotNil(t, noValue.LineStart, "line presence is independent of value presence")

	key := recs[3]
	require.NotNil(t, key.CryptographyKey)
	assert.Equal(t, "Private", *key.CryptographyKey)
	assert.Equal(t, "PEM Private Key", key.Category)
}

func TestReadDirPattern(t *testing.T) {
	ctx := testutils.Context(t)
	dir := t.TempDir()

	sample := testutils.Sample()
	testutils.WriteCSV(t, dir, "keep_trimmed.csv", sample["39def7b4.csv"]...)
	testutils.WriteCSV(t, dir, "skip.csv", sample["b133f43d.csv"]...)

	recs, err := record.ReadDir(ctx, dir, "*_trimmed.csv")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "keep_trimmed.csv", recs[0].SourceInput)
}

func TestReadDirEmpty(t *testing.T) {
	recs, err := record.ReadDir(testutils.Context(t), t.TempDir(), record.DefaultPattern)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReadDirErrors(t *testing.T) {
	valid := testutils.Sample()["39def7b4.csv"][0].Fields()

	tests := []struct {
		name        string
		setup       func(t *testing.T, dir string) string
		errContains string
	}{
		{
			name: "missing_directory",
			setup: func(t *testing.T, dir string) string {
				return filepath.Join(dir, "nope")
			},
			errContains: "reading input directory",
		},
		{
			name: "missing_column",
			setup: func(t *testing.T, dir string) string {
				header := append([]string{}, record.Columns[:12]...)
				testutils.WriteRawCSV(t, dir, "a.csv", header, valid[:12])
				return dir
			},
			errContains: "missing columns: Category",
		},
		{
			name: "ragged_row",
			setup: func(t *testing.T, dir string) string {
				testutils.WriteRawCSV(t, dir, "a.csv", record.Columns, valid, valid[:5])
				return dir
			},
			errContains: "reading row",
		},
		{
			name: "bad_integer",
			setup: func(t *testing.T, dir string) string {
				row := append([]string{}, valid...)
				row[5] = "forty"
				testutils.WriteRawCSV(t, dir, "a.csv", record.Columns, row)
				return dir
			},
			errContains: "column LineStart",
		},
		{
			name: "zero_is_not_absent",
			setup: func(t *testing.T, dir string) string {
				row := append([]string{}, valid...)
				row[8] = "0"
				testutils.WriteRawCSV(t, dir, "a.csv", record.Columns, row)
				return dir
			},
			errContains: "must be positive",
		},
		{
			name: "unknown_ground_truth",
			setup: func(t *testing.T, dir string) string {
				row := append([]string{}, valid...)
				row[7] = "maybe"
				testutils.WriteRawCSV(t, dir, "a.csv", record.Columns, row)
				return dir
			},
			errContains: "unknown ground truth",
		},
		{
			name: "one_bad_file_fails_all",
			setup: func(t *testing.T, dir string) string {
				testutils.WriteRawCSV(t, dir, "a.csv", record.Columns, valid)
				testutils.WriteRawCSV(t, dir, "b.csv", []string{"Id"}, []string{"1"})
				return dir
			},
			errContains: "b.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t, t.TempDir())

			recs, err := record.ReadDir(testutils.Context(t), dir, record.DefaultPattern)
			require.Error(t, err)
			assert.Nil(t, recs, "no partial results")
			assert.True(t, errors.Is(err, record.ErrIngest), "error should be an ingest error: %v", err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, recs []record.Record)
	}{
		{
			name: "columns_in_any_order_with_extras",
			input: "Category,Extra,Id,FileID,Domain,RepoName,FilePath,LineStart,LineEnd,GroundTruth,ValueStart,ValueEnd,CryptographyKey,PredefinedPattern\n" +
				"Token,zzz,1,f1,GitHub,r1,data/r1/a.py,3,4,X,,,,AKIA\n",
			check: func(t *testing.T, recs []record.Record) {
				require.Len(t, recs, 1)
				assert.Equal(t, "1", recs[0].ID)
				assert.Equal(t, "Token", recs[0].Category)
				assert.Equal(t, record.Ambiguous, recs[0].GroundTruth)
				require.NotNil(t, recs[0].PredefinedPattern)
				assert.Equal(t, "AKIA", *recs[0].PredefinedPattern)
				assert.Nil(t, recs[0].ValueStart)
			},
		},
		{
			name:  "bom_header",
			input: "\uFEFF" + strings.Join(record.Columns, ",") + "\n1,f,GitHub,r,a.py,,,F,,,,,Auth\n",
			check: func(t *testing.T, recs []record.Record) {
				require.Len(t, recs, 1)
				assert.Equal(t, "1", recs[0].ID)
				assert.Nil(t, recs[0].LineStart)
				assert.Nil(t, recs[0].LineEnd)
			},
		},
		{
			name:  "quoted_fields",
			input: strings.Join(record.Columns, ",") + "\n1,f,GitHub,r,\"dir, with comma/a.py\",1,1,T,,,,,URL Credentials\n",
			check: func(t *testing.T, recs []record.Record) {
				require.Len(t, recs, 1)
				assert.Equal(t, "dir, with comma/a.py", recs[0].FilePath)
				assert.Equal(t, "URL Credentials", recs[0].Category)
			},
		},
		{
			name:  "header_only",
			input: strings.Join(record.Columns, ",") + "\n",
			check: func(t *testing.T, recs []record.Record) {
				assert.Empty(t, recs)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := record.Parse(strings.NewReader(tt.input), "in.csv")
			require.NoError(t, err)
			for _, r := range recs {
				assert.Equal(t, "in.csv", r.SourceInput)
			}
			tt.check(t, recs)
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, err := record.Parse(strings.NewReader(""), "in.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header")
}

func TestDuplicateIDs(t *testing.T) {
	recs := []record.Record{{ID: "1"}, {ID: "2"}, {ID: "1"}, {ID: "3"}, {ID: "1"}, {ID: "2"}}
	assert.Equal(t, []string{"1", "2"}, record.DuplicateIDs(recs))
	assert.Empty(t, record.DuplicateIDs(recs[:2]))
}

func TestGroundTruth(t *testing.T) {
	gt, err := record.ParseGroundTruth(" F ")
	require.NoError(t, err)
	assert.Equal(t, record.FalsePositive, gt)
	assert.Equal(t, "false-positive", gt.String())
	assert.Equal(t, "true-positive", record.TruePositive.String())
	assert.Equal(t, "ambiguous", record.Ambiguous.String())

	_, err = record.ParseGroundTruth("t")
	assert.Error(t, err, "codes are case sensitive")
}

func TestInputs(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteSource(t, dir, "b.csv", "")
	testutils.WriteSource(t, dir, "a.csv", "")
	testutils.WriteSource(t, dir, "nested/c.csv", "")
	testutils.WriteSource(t, dir, "readme.md", "")

	names, err := record.Inputs(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, names, "default pattern is not recursive")

	names, err = record.Inputs(dir, "**/*.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv", "nested/c.csv"}, names)

	_, err = record.Inputs(dir, "[")
	require.Error(t, err)
	assert.True(t, errors.Is(err, record.ErrIngest))
}
