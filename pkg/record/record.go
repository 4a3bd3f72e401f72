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

// Package record reads ground-truth sample rows from CSV inputs into typed records.
package record

import (
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrIngest marks malformed or unreadable input. It aborts a run before any copying.
var ErrIngest = errors.Base("ingest error")

// 📋 CSV column names, in the order the fixture writer emits them
const (
	ColumnID                = "Id"
	ColumnFileID            = "FileID"
	ColumnDomain            = "Domain"
	ColumnRepoName          = "RepoName"
	ColumnFilePath          = "FilePath"
	ColumnLineStart         = "LineStart"
	ColumnLineEnd           = "LineEnd"
	ColumnGroundTruth       = "GroundTruth"
	ColumnValueStart        = "ValueStart"
	ColumnValueEnd          = "ValueEnd"
	ColumnCryptographyKey   = "CryptographyKey"
	ColumnPredefinedPattern = "PredefinedPattern"
	ColumnCategory          = "Category"
)

// Columns is the full header every input file must carry.
var Columns = []string{
	ColumnID,
	ColumnFileID,
	ColumnDomain,
	ColumnRepoName,
	ColumnFilePath,
	ColumnLineStart,
	ColumnLineEnd,
	ColumnGroundTruth,
	ColumnValueStart,
	ColumnValueEnd,
	ColumnCryptographyKey,
	ColumnPredefinedPattern,
	ColumnCategory,
}

// 🏷️ GroundTruth is the correctness label of a finding
type GroundTruth string

const (
	TruePositive  GroundTruth = "T"
	FalsePositive GroundTruth = "F"
	Ambiguous     GroundTruth = "X"
)

// ParseGroundTruth accepts the single-character codes T, F and X.
func ParseGroundTruth(s string) (GroundTruth, error) {
	switch gt := GroundTruth(strings.TrimSpace(s)); gt {
	case TruePositive, FalsePositive, Ambiguous:
		return gt, nil
	default:
		return "", errors.Errorf("unknown ground truth %q", s)
	}
}

// String returns the long form of the label.
func (g GroundTruth) String() string {
	switch g {
	case TruePositive:
		return "true-positive"
	case FalsePositive:
		return "false-positive"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// 📄 Record is one parsed row pointing at a single line of a source file
type Record struct {
	ID                string
	FileID            string
	Domain            string
	RepoName          string
	FilePath          string
	LineStart         *int
	LineEnd           *int
	GroundTruth       GroundTruth
	ValueStart        *int
	ValueEnd          *int
	CryptographyKey   *string
	PredefinedPattern *string
	Category          string

	// SourceInput is the base name of the CSV file the row was read from.
	SourceInput string
}

// FromRow builds a record from a header-keyed row.
func FromRow(row map[string]string, sourceInput string) (Record, error) {
	rec := Record{
		ID:                row[ColumnID],
		FileID:            row[ColumnFileID],
		Domain:            row[ColumnDomain],
		RepoName:          row[ColumnRepoName],
		FilePath:          row[ColumnFilePath],
		CryptographyKey:   optionalString(row[ColumnCryptographyKey]),
		PredefinedPattern: optionalString(row[ColumnPredefinedPattern]),
		Category:          row[ColumnCategory],
		SourceInput:       sourceInput,
	}

	gt, err := ParseGroundTruth(row[ColumnGroundTruth])
	if err != nil {
		return Record{}, errors.Errorf("column %s: %w", ColumnGroundTruth, err)
	}
	rec.GroundTruth = gt

	ints := []struct {
		column string
		dst    **int
	}{
		{ColumnLineStart, &rec.LineStart},
		{ColumnLineEnd, &rec.LineEnd},
		{ColumnValueStart, &rec.ValueStart},
		{ColumnValueEnd, &rec.ValueEnd},
	}
	for _, f := range ints {
		v, err := optionalInt(row[f.column])
		if err != nil {
			return Record{}, errors.Errorf("column %s: %w", f.column, err)
		}
		*f.dst = v
	}

	return rec, nil
}

// optionalInt maps an empty cell to nil. Present values must be positive.
func optionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, errors.Errorf("parsing integer %q: %w", s, err)
	}
	if n <= 0 {
		return nil, errors.Errorf("value %d must be positive", n)
	}
	return &n, nil
}

func optionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// DuplicateIDs returns every ID that appears more than once, in first-seen order.
func DuplicateIDs(records []Record) []string {
	seen := make(map[string]int, len(records))
	var dups []string
	for _, rec := range records {
		seen[rec.ID]++
		if seen[rec.ID] == 2 {
			dups = append(dups, rec.ID)
		}
	}
	return dups
}
