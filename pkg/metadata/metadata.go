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

// Package metadata builds and writes the sidecar document of a copied file.
package metadata

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/metacopy/pkg/layout"
	"github.com/walteh/metacopy/pkg/record"
	"gitlab.com/tozd/go/errors"
)

// ErrWriteFailed marks a sidecar that could not be encoded or written.
var ErrWriteFailed = errors.Base("metadata write failed")

// 📝 Document is the normalized projection of a record. Field order is the
// serialized key order. Absent optional values encode as null.
type Document struct {
	ID                string  `json:"id"`
	FileID            string  `json:"file_id"`
	Domain            string  `json:"domain"`
	RepoName          string  `json:"repo_name"`
	OriginalFilePath  string  `json:"original_file_path"`
	CopiedFilePath    string  `json:"copied_file_path,omitempty"`
	LineStart         *int    `json:"line_start"`
	LineEnd           *int    `json:"line_end"`
	GroundTruth       string  `json:"ground_truth"`
	ValueStart        *int    `json:"value_start"`
	ValueEnd          *int    `json:"value_end"`
	CryptographyKey   *string `json:"cryptography_key"`
	PredefinedPattern *string `json:"predefined_pattern"`
	Category          string  `json:"category"`
	SourceCSV         string  `json:"source_csv"`
}

// FromRecord projects rec without a copied path. Ground truth keeps its
// single-character code.
func FromRecord(rec record.Record) Document {
	return Document{
		ID:                rec.ID,
		FileID:            rec.FileID,
		Domain:            rec.Domain,
		RepoName:          rec.RepoName,
		OriginalFilePath:  rec.FilePath,
		LineStart:         rec.LineStart,
		LineEnd:           rec.LineEnd,
		GroundTruth:       string(rec.GroundTruth),
		ValueStart:        rec.ValueStart,
		ValueEnd:          rec.ValueEnd,
		CryptographyKey:   rec.CryptographyKey,
		PredefinedPattern: rec.PredefinedPattern,
		Category:          rec.Category,
		SourceCSV:         rec.SourceInput,
	}
}

// Writer is the subset of the output store Emit needs.
type Writer interface {
	WriteJSON(ctx context.Context, rel string, v any) error
}

// 📤 Emit writes the document for rec at paths.MetadataPath through out,
// replacing any existing sidecar.
func Emit(ctx context.Context, out Writer, rec record.Record, paths layout.Paths) (Document, error) {
	if paths.Empty() || paths.Escapes() {
		return Document{}, errors.Errorf("%w: record %s has no destination", ErrWriteFailed, rec.ID)
	}

	doc := FromRecord(rec)
	doc.CopiedFilePath = paths.FilePath

	if err := out.WriteJSON(ctx, paths.MetadataPath, doc); err != nil {
		return Document{}, errors.Errorf("%w: %w", ErrWriteFailed, err)
	}

	zerolog.Ctx(ctx).Trace().Str("id", rec.ID).Str("path", paths.MetadataPath).Msg("wrote metadata")

	return doc, nil
}
