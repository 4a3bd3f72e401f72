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

// Package store owns the output tree. Every write lands in a temporary
// sibling first and is renamed into place, so readers never observe a
// partially written file.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrSourceMissing means the source is absent or not a regular file. Nothing was written.
	ErrSourceMissing = errors.Base("source missing")
	// ErrCopyFailed wraps any I/O failure while transferring a file.
	ErrCopyFailed = errors.Base("copy failed")
)

const (
	dirPerm  fs.FileMode = 0755
	filePerm fs.FileMode = 0644
)

// 📦 Store writes files relative to an output root
type Store struct {
	root string
}

// 🏭 New creates a store rooted at root. The directory is created lazily.
func New(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// Path returns the absolute location of a slash-separated path under the root.
func (s *Store) Path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// EnsureDirs creates each directory under the root. Existing directories are fine.
func (s *Store) EnsureDirs(ctx context.Context, rels ...string) error {
	for _, rel := range rels {
		if err := os.MkdirAll(s.Path(rel), dirPerm); err != nil {
			return errors.Errorf("creating directory %s: %w", rel, err)
		}
	}
	return nil
}

// WriteFileAtomic writes content to rel, creating parent directories.
func (s *Store) WriteFileAtomic(ctx context.Context, rel string, content []byte) error {
	err := s.replace(s.Path(rel), func(tmp *os.File) error {
		if _, err := tmp.Write(content); err != nil {
			return errors.Errorf("writing content: %w", err)
		}
		if err := tmp.Chmod(filePerm); err != nil {
			return errors.Errorf("setting permissions: %w", err)
		}
		return nil
	}, nil)
	if err != nil {
		return errors.Errorf("writing %s: %w", rel, err)
	}
	return nil
}

// WriteJSON encodes v indented by two spaces, without HTML escaping, and
// writes it atomically to rel.
func (s *Store) WriteJSON(ctx context.Context, rel string, v any) error {
	content, err := EncodeJSON(v)
	if err != nil {
		return errors.Errorf("encoding %s: %w", rel, err)
	}
	return s.WriteFileAtomic(ctx, rel, content)
}

// EncodeJSON is the encoding used for every document in the output tree.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Exists reports whether rel is present under the root.
func (s *Store) Exists(ctx context.Context, rel string) (bool, error) {
	_, err := os.Stat(s.Path(rel))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, errors.Errorf("checking %s: %w", rel, err)
}

// Remove deletes rel. A missing file is not an error.
func (s *Store) Remove(ctx context.Context, rel string) error {
	if err := os.Remove(s.Path(rel)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Errorf("removing %s: %w", rel, err)
	}
	return nil
}

// replace stages content via fill and after, then renames it over target.
func (s *Store) replace(target string, fill func(*os.File) error, after func(string) error) error {
	tmpPath, err := stage(target, fill, after)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// stage fills a temporary sibling of target via fill and applies after to
// the closed temp path. It returns the temp path; the temp file is removed
// on any failure.
func stage(target string, fill func(*os.File) error, after func(string) error) (_ string, err error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", errors.Errorf("creating parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return "", errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err := fill(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Errorf("closing temp file: %w", err)
	}

	if after != nil {
		if err := after(tmpPath); err != nil {
			return "", err
		}
	}

	return tmpPath, nil
}
