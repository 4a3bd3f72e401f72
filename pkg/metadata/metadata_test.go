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

package metadata_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/metacopy/pkg/layout"
	"github.com/walteh/metacopy/pkg/metadata"
	"github.com/walteh/metacopy/pkg/record"
	"github.com/walteh/metacopy/pkg/store"
	"github.com/walteh/metacopy/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func ptr[T any](v T) *T {
	return &v
}

func sampleRecord() record.Record {
	return record.Record{
		ID:          "9001",
		FileID:      "abcd1234",
		Domain:      "GitHub",
		RepoName:    "39def7b4",
		FilePath:    "data/pkgA/mod/x.py",
		LineStart:   ptr(41),
		LineEnd:     ptr(41),
		GroundTruth: record.TruePositive,
		Category:    "Token & Secret <test>",
		SourceInput: "39def7b4.csv",
	}
}

func TestEmit(t *testing.T) {
	ctx := testutils.Context(t)
	out := store.New(t.TempDir())

	rec := sampleRecord()
	paths := layout.Resolve(".", rec.FilePath)

	doc, err := metadata.Emit(ctx, out, rec, paths)
	require.NoError(t, err)
	assert.Equal(t, "files/pkgA/mod/x.py", doc.CopiedFilePath)

	content, err := os.ReadFile(out.Path("metadata/pkgA/mod/x.py.meta.json"))
	require.NoError(t, err)

	want := `{
  "id": "9001",
  "file_id": "abcd1234",
  "domain": "GitHub",
  "repo_name": "39def7b4",
  "original_file_path": "data/pkgA/mod/x.py",
  "copied_file_path": "files/pkgA/mod/x.py",
  "line_start": 41,
  "line_end": 41,
  "ground_truth": "T",
  "value_start": null,
  "value_end": null,
  "cryptography_key": null,
  "predefined_pattern": null,
  "category": "Token & Secret <test>",
  "source_csv": "39def7b4.csv"
}
`
	assert.Equal(t, want, string(content))
}

func TestEmitOverwrites(t *testing.T) {
	ctx := testutils.Context(t)
	out := store.New(t.TempDir())

	rec := sampleRecord()
	paths := layout.Resolve(".", rec.FilePath)

	_, err := metadata.Emit(ctx, out, rec, paths)
	require.NoError(t, err)
	first, err := os.ReadFile(out.Path(paths.MetadataPath))
	require.NoError(t, err)

	_, err = metadata.Emit(ctx, out, rec, paths)
	require.NoError(t, err)
	second, err := os.ReadFile(out.Path(paths.MetadataPath))
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-emitting is byte identical")
}

func TestFromRecord(t *testing.T) {
	rec := sampleRecord()
	rec.ValueStart = ptr(5)
	rec.ValueEnd = ptr(9)
	rec.CryptographyKey = ptr("Private")
	rec.PredefinedPattern = ptr("AWS")

	doc := metadata.FromRecord(rec)

	assert.Empty(t, doc.CopiedFilePath, "master projections carry no destination")
	assert.Equal(t, "data/pkgA/mod/x.py", doc.OriginalFilePath)
	assert.Equal(t, "T", doc.GroundTruth)
	assert.Equal(t, 5, *doc.ValueStart)
	assert.Equal(t, 9, *doc.ValueEnd)
	assert.Equal(t, "Private", *doc.CryptographyKey)
	assert.Equal(t, "AWS", *doc.PredefinedPattern)
	assert.Equal(t, "39def7b4.csv", doc.SourceCSV)

	content, err := store.EncodeJSON(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "copied_file_path")
}

type failingWriter struct{}

func (failingWriter) WriteJSON(ctx context.Context, rel string, v any) error {
	return errors.New("disk full")
}

func TestEmitErrors(t *testing.T) {
	tests := []struct {
		name        string
		out         metadata.Writer
		filePath    string
		errContains string
	}{
		{
			name:        "write_fails",
			out:         failingWriter{},
			filePath:    "data/a.py",
			errContains: "disk full",
		},
		{
			name:        "empty_destination",
			out:         store.New(t.TempDir()),
			filePath:    "data",
			errContains: "no destination",
		},
		{
			name:        "escaping_destination",
			out:         store.New(t.TempDir()),
			filePath:    "../outside.py",
			errContains: "no destination",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord()
			rec.FilePath = tt.filePath

			_, err := metadata.Emit(testutils.Context(t), tt.out, rec, layout.Resolve(".", tt.filePath))
			require.Error(t, err)
			assert.True(t, errors.Is(err, metadata.ErrWriteFailed), "unexpected error: %v", err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
