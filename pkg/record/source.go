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

package record

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultPattern matches the CSV inputs of a directory.
const DefaultPattern = "*.csv"

const utf8BOM = "\uFEFF"

// 📥 ReadDir reads every input in dir matching pattern, sorted by file name.
// Records keep file order then row order. Any failure wraps ErrIngest and no
// records are returned.
func ReadDir(ctx context.Context, dir, pattern string) ([]Record, error) {
	logger := zerolog.Ctx(ctx)

	names, err := Inputs(dir, pattern)
	if err != nil {
		return nil, err
	}

	var all []Record
	for _, name := range names {
		logger.Debug().Str("file", name).Msg("reading input")

		recs, err := ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}

	logger.Debug().Int("files", len(names)).Int("records", len(all)).Msg("inputs read")

	return all, nil
}

// Inputs lists the slash-separated names of files in dir matching pattern,
// sorted. An empty pattern means DefaultPattern.
func Inputs(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("%w: invalid input pattern %q", ErrIngest, pattern)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Errorf("%w: reading input directory: %w", ErrIngest, err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%w: input path %s is not a directory", ErrIngest, dir)
	}

	names, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("%w: listing inputs: %w", ErrIngest, err)
	}
	sort.Strings(names)

	return names, nil
}

// ReadFile parses one input file. SourceInput is set to the file's base name.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("%w: opening %s: %w", ErrIngest, path, err)
	}
	defer f.Close()

	recs, err := Parse(f, filepath.Base(path))
	if err != nil {
		return nil, errors.Errorf("%w: %s: %w", ErrIngest, path, err)
	}
	return recs, nil
}

// Parse reads CSV rows from r. The header must name every column in Columns.
func Parse(r io.Reader, sourceInput string) ([]Record, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("missing header")
	}
	if err != nil {
		return nil, errors.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	var recs []Record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Errorf("reading row: %w", err)
		}

		line, _ := reader.FieldPos(0)
		row := make(map[string]string, len(Columns))
		for _, col := range Columns {
			row[col] = fields[index[col]]
		}

		rec, err := FromRow(row, sourceInput)
		if err != nil {
			return nil, errors.Errorf("line %d: %w", line, err)
		}
		recs = append(recs, rec)
	}

	return recs, nil
}
