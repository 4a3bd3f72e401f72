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

package report

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/metacopy/pkg/record"
	"github.com/walteh/metacopy/pkg/store"
	"github.com/walteh/metacopy/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func sampleRecords(t *testing.T) []record.Record {
	t.Helper()

	dir := t.TempDir()
	for name, rows := range testutils.Sample() {
		testutils.WriteCSV(t, dir, name, rows...)
	}
	recs, err := record.ReadDir(testutils.Context(t), dir, record.DefaultPattern)
	require.NoError(t, err)
	return recs
}

func sum(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func TestBuild(t *testing.T) {
	recs := sampleRecords(t)

	s := Build(recs, 3)

	assert.Equal(t, 5, s.TotalRecords)
	assert.Equal(t, 3, s.SuccessfullyCopied)
	assert.Equal(t, 2, s.FailedToCopy)
	assert.Equal(t, s.TotalRecords, s.SuccessfullyCopied+s.FailedToCopy)

	assert.Equal(t, map[string]int{"T": 2, "F": 2, "X": 1}, s.Statistics.ByGroundTruth)
	assert.Equal(t, map[string]int{"Credential": 1, "Secret": 2, "PEM Private Key": 1, "API": 1}, s.Statistics.ByCategory)
	assert.Equal(t, map[string]int{"39def7b4": 3, "b133f43d": 2}, s.Statistics.ByRepo)
	assert.Equal(t, map[string]int{"39def7b4.csv": 3, "b133f43d.csv": 2}, s.Statistics.BySourceCSV)

	for name, grouping := range map[string]map[string]int{
		"ground_truth": s.Statistics.ByGroundTruth,
		"category":     s.Statistics.ByCategory,
		"repo":         s.Statistics.ByRepo,
		"source_csv":   s.Statistics.BySourceCSV,
	} {
		assert.Equal(t, s.TotalRecords, sum(grouping), "grouping %s sums to the total", name)
	}
}

func TestBuildEmpty(t *testing.T) {
	s := Build(nil, 0)

	content, err := store.EncodeJSON(s)
	require.NoError(t, err)

	want := `{
  "total_records": 0,
  "successfully_copied": 0,
  "failed_to_copy": 0,
  "statistics": {
    "by_ground_truth": {},
    "by_category": {},
    "by_repo": {},
    "by_source_csv": {}
  }
}
`
	assert.Equal(t, want, string(content))

	master, err := store.EncodeJSON(BuildMaster(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(master))
}

func TestBuildMaster(t *testing.T) {
	recs := sampleRecords(t)

	m := BuildMaster(recs)

	require.Len(t, m, len(recs), "one entry per record regardless of outcome")
	for i, doc := range m {
		assert.Equal(t, recs[i].ID, doc.ID, "ingestion order kept")
		assert.Empty(t, doc.CopiedFilePath)
		assert.Equal(t, recs[i].SourceInput, doc.SourceCSV)
	}
}

func TestWrite(t *testing.T) {
	ctx := testutils.Context(t)
	out := store.New(t.TempDir())
	recs := sampleRecords(t)

	require.NoError(t, Write(ctx, out, Build(recs, 4), BuildMaster(recs)))

	content, err := os.ReadFile(out.Path(SummaryFile))
	require.NoError(t, err)
	var summary Summary
	require.NoError(t, json.Unmarshal(content, &summary))
	assert.Equal(t, 4, summary.SuccessfullyCopied)
	assert.Equal(t, 1, summary.FailedToCopy)

	content, err = os.ReadFile(out.Path(MasterFile))
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(content, &entries))
	require.Len(t, entries, 5)
	for _, e := range entries {
		assert.NotContains(t, e, "copied_file_path")
		assert.Contains(t, e, "value_start", "absent values are explicit nulls")
	}
	assert.Nil(t, entries[2]["value_start"])
	assert.Equal(t, "Private", entries[3]["cryptography_key"])
}

// selectiveWriter fails writes to the named files
type selectiveWriter struct {
	fail    map[string]bool
	written []string
}

func (w *selectiveWriter) WriteJSON(ctx context.Context, rel string, v any) error {
	if w.fail[rel] {
		return errors.Errorf("cannot write %s", rel)
	}
	w.written = append(w.written, rel)
	return nil
}

func TestWriteIndependent(t *testing.T) {
	tests := []struct {
		name        string
		fail        []string
		wantWritten []string
		errContains []string
	}{
		{
			name:        "summary_fails",
			fail:        []string{SummaryFile},
			wantWritten: []string{MasterFile},
			errContains: []string{"writing summary report"},
		},
		{
			name:        "master_fails",
			fail:        []string{MasterFile},
			wantWritten: []string{SummaryFile},
			errContains: []string{"writing master metadata"},
		},
		{
			name:        "both_fail",
			fail:        []string{SummaryFile, MasterFile},
			errContains: []string{"writing summary report", "writing master metadata"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &selectiveWriter{fail: map[string]bool{}}
			for _, f := range tt.fail {
				w.fail[f] = true
			}

			err := Write(testutils.Context(t), w, Build(nil, 0), BuildMaster(nil))
			require.Error(t, err)
			for _, s := range tt.errContains {
				assert.Contains(t, err.Error(), s)
			}
			assert.Equal(t, tt.wantWritten, w.written)
		})
	}
}
