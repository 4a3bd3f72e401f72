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

package store

import (
	"context"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🧺 Batch stages writes under temporary names. Nothing it writes is visible
// at a target until Commit, and Discard leaves every target untouched.
// A Batch is not safe for concurrent use.
type Batch struct {
	store  *Store
	staged []staged
	done   bool
}

type staged struct {
	rel     string
	temp    string
	existed bool
}

// Begin starts an empty batch.
func (s *Store) Begin() *Batch {
	return &Batch{store: s}
}

// 📋 CopyFile stages a copy of src for dst (relative to the root), keeping the
// source's permission bits and modification time.
func (b *Batch) CopyFile(ctx context.Context, src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return errors.Errorf("%w: stat %s: %w", ErrCopyFailed, src, err)
	}
	if !info.Mode().IsRegular() {
		return errors.Errorf("%w: %s is not a regular file", ErrSourceMissing, src)
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("%w: opening source: %w", ErrCopyFailed, err)
	}
	defer in.Close()

	err = b.add(ctx, dst, func(tmp *os.File) error {
		if _, err := io.Copy(tmp, in); err != nil {
			return errors.Errorf("copying content: %w", err)
		}
		if err := tmp.Chmod(info.Mode().Perm()); err != nil {
			return errors.Errorf("setting permissions: %w", err)
		}
		return nil
	}, func(tmpPath string) error {
		if err := os.Chtimes(tmpPath, info.ModTime(), info.ModTime()); err != nil {
			return errors.Errorf("setting modification time: %w", err)
		}
		return nil
	})
	if err != nil {
		return errors.Errorf("%w: %s: %w", ErrCopyFailed, dst, err)
	}

	zerolog.Ctx(ctx).Trace().Str("src", src).Str("dst", dst).Int64("bytes", info.Size()).Msg("staged copy")

	return nil
}

// WriteJSON stages v for rel, encoded with EncodeJSON.
func (b *Batch) WriteJSON(ctx context.Context, rel string, v any) error {
	content, err := EncodeJSON(v)
	if err != nil {
		return errors.Errorf("encoding %s: %w", rel, err)
	}

	err = b.add(ctx, rel, func(tmp *os.File) error {
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

func (b *Batch) add(ctx context.Context, rel string, fill func(*os.File) error, after func(string) error) error {
	if b.done {
		return errors.New("batch already finished")
	}

	existed, err := b.store.Exists(ctx, rel)
	if err != nil {
		return err
	}

	tmpPath, err := stage(b.store.Path(rel), fill, after)
	if err != nil {
		return err
	}

	b.staged = append(b.staged, staged{rel: rel, temp: tmpPath, existed: existed})
	return nil
}

// ✅ Commit renames every staged file over its target in staging order. If a
// rename fails, targets this batch created are removed again and the
// remaining temp files are discarded.
func (b *Batch) Commit(ctx context.Context) error {
	if b.done {
		return errors.New("batch already finished")
	}
	b.done = true

	for i, st := range b.staged {
		if err := os.Rename(st.temp, b.store.Path(st.rel)); err != nil {
			errs := []error{errors.Errorf("committing %s: %w", st.rel, err)}
			for _, rest := range b.staged[i:] {
				os.Remove(rest.temp)
			}
			for _, prev := range b.staged[:i] {
				if prev.existed {
					continue
				}
				if err := b.store.Remove(ctx, prev.rel); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}
	}

	zerolog.Ctx(ctx).Trace().Int("files", len(b.staged)).Msg("committed batch")

	return nil
}

// Discard removes every staged temp file. It is a no-op after Commit.
func (b *Batch) Discard(ctx context.Context) error {
	if b.done {
		return nil
	}
	b.done = true

	var errs []error
	for _, st := range b.staged {
		if err := os.Remove(st.temp); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, errors.Errorf("discarding %s: %w", st.rel, err))
		}
	}
	return errors.Join(errs...)
}
