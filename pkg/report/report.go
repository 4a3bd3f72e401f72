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

// Package report aggregates a finished pass into the summary and master documents.
package report

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/metacopy/pkg/metadata"
	"github.com/walteh/metacopy/pkg/record"
	"gitlab.com/tozd/go/errors"
)

const (
	// SummaryFile is written at the output root.
	SummaryFile = "summary_report.json"
	// MasterFile is written at the output root.
	MasterFile = "master_metadata.json"
)

// 📊 Summary holds the totals of one pass
type Summary struct {
	TotalRecords       int        `json:"total_records"`
	SuccessfullyCopied int        `json:"successfully_copied"`
	FailedToCopy       int        `json:"failed_to_copy"`
	Statistics         Statistics `json:"statistics"`
}

// Statistics groups every record by four labels. Each grouping sums to the
// total record count.
type Statistics struct {
	ByGroundTruth map[string]int `json:"by_ground_truth"`
	ByCategory    map[string]int `json:"by_category"`
	ByRepo        map[string]int `json:"by_repo"`
	BySourceCSV   map[string]int `json:"by_source_csv"`
}

// Master lists every record regardless of outcome, without copied paths.
type Master []metadata.Document

// Build computes the summary in one pass over records.
func Build(records []record.Record, succeeded int) Summary {
	s := Summary{
		TotalRecords:       len(records),
		SuccessfullyCopied: succeeded,
		FailedToCopy:       len(records) - succeeded,
		Statistics: Statistics{
			ByGroundTruth: map[string]int{},
			ByCategory:    map[string]int{},
			ByRepo:        map[string]int{},
			BySourceCSV:   map[string]int{},
		},
	}

	for _, rec := range records {
		s.Statistics.ByGroundTruth[string(rec.GroundTruth)]++
		s.Statistics.ByCategory[rec.Category]++
		s.Statistics.ByRepo[rec.RepoName]++
		s.Statistics.BySourceCSV[rec.SourceInput]++
	}

	return s
}

// BuildMaster projects records in ingestion order.
func BuildMaster(records []record.Record) Master {
	m := make(Master, 0, len(records))
	for _, rec := range records {
		m = append(m, metadata.FromRecord(rec))
	}
	return m
}

// Writer is the subset of the output store reports need.
type Writer interface {
	WriteJSON(ctx context.Context, rel string, v any) error
}

// 💾 Write stores both documents. A failure of one does not prevent the
// other; all failures are returned together.
func Write(ctx context.Context, out Writer, summary Summary, master Master) error {
	logger := zerolog.Ctx(ctx)

	var errs []error
	if err := out.WriteJSON(ctx, SummaryFile, summary); err != nil {
		errs = append(errs, errors.Errorf("writing summary report: %w", err))
	} else {
		logger.Debug().Str("file", SummaryFile).Msg("summary report written")
	}

	if err := out.WriteJSON(ctx, MasterFile, master); err != nil {
		errs = append(errs, errors.Errorf("writing master metadata: %w", err))
	} else {
		logger.Debug().Str("file", MasterFile).Int("entries", len(master)).Msg("master metadata written")
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
