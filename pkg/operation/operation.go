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

package operation

import (
	"context"

	"github.com/walteh/metacopy/pkg/layout"
	"github.com/walteh/metacopy/pkg/metadata"
	"github.com/walteh/metacopy/pkg/record"
	"github.com/walteh/metacopy/pkg/store"
	"gitlab.com/tozd/go/errors"
)

// DefaultProgressEvery is the progress cadence used when none is configured.
const DefaultProgressEvery = 100

// 💾 Store is the output tree the runner copies into. Each record's copy and
// sidecar are staged in one batch.
type Store interface {
	Begin() *store.Batch
}

// 📤 Emitter writes the sidecar of a copied file through out
type Emitter interface {
	Emit(ctx context.Context, out metadata.Writer, rec record.Record, paths layout.Paths) (metadata.Document, error)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, out metadata.Writer, rec record.Record, paths layout.Paths) (metadata.Document, error)

func (f EmitterFunc) Emit(ctx context.Context, out metadata.Writer, rec record.Record, paths layout.Paths) (metadata.Document, error) {
	return f(ctx, out, rec, paths)
}

// 👀 Observer receives per-record results and periodic progress.
// With more than one worker it is called from several goroutines.
type Observer interface {
	Progress(ctx context.Context, processed, total int)
	RecordCopied(ctx context.Context, out Outcome)
	RecordFailed(ctx context.Context, out Outcome)
}

// 🔧 Options configures a Runner
type Options struct {
	// WorkspaceRoot is joined with every record's FilePath to find the source.
	WorkspaceRoot string
	// Store receives copies and sidecars. Required.
	Store Store
	// Emitter defaults to metadata.Emit.
	Emitter Emitter
	// ProgressEvery is the progress cadence in records. Zero disables periodic
	// progress; negative means DefaultProgressEvery.
	ProgressEvery int
	// Workers above one enables the worker pool. Zero means one.
	Workers int
	// Observer defaults to a no-op.
	Observer Observer
}

// 📊 Outcome is the result of one record
type Outcome struct {
	Index  int
	Record record.Record
	Paths  layout.Paths
	// Err is nil when both the copy and the sidecar were written.
	Err error
}

// OK reports whether the record was copied with its sidecar.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// 📈 Result is everything a finished pass hands to reporting
type Result struct {
	Records   []record.Record
	Outcomes  []Outcome
	Succeeded int
}

// Failed is the number of records that were not copied.
func (r Result) Failed() int {
	return len(r.Records) - r.Succeeded
}

// 🏭 New creates a runner with the given options
func New(opts Options) (*Runner, error) {
	if opts.Store == nil {
		return nil, errors.Errorf("store is required")
	}
	if opts.Workers < 0 {
		return nil, errors.Errorf("workers must not be negative, got %d", opts.Workers)
	}
	if opts.Workers == 0 {
		opts.Workers = 1
	}
	if opts.ProgressEvery < 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if opts.Emitter == nil {
		opts.Emitter = EmitterFunc(metadata.Emit)
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	return &Runner{
		workspaceRoot: opts.WorkspaceRoot,
		store:         opts.Store,
		emitter:       opts.Emitter,
		progressEvery: opts.ProgressEvery,
		workers:       opts.Workers,
		observer:      opts.Observer,
	}, nil
}

type nopObserver struct{}

func (nopObserver) Progress(context.Context, int, int)   {}
func (nopObserver) RecordCopied(context.Context, Outcome) {}
func (nopObserver) RecordFailed(context.Context, Outcome) {}
