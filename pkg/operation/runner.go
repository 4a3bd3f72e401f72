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
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/metacopy/pkg/layout"
	"github.com/walteh/metacopy/pkg/record"
	"github.com/walteh/metacopy/pkg/store"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🏃 Runner copies every record with its sidecar
type Runner struct {
	workspaceRoot string
	store         Store
	emitter       Emitter
	progressEvery int
	workers       int
	observer      Observer
}

// 🏃 Run processes records in order. A failed record never stops the pass;
// only cancellation of ctx does.
func (r *Runner) Run(ctx context.Context, records []record.Record) (Result, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Int("records", len(records)).
		Int("workers", r.workers).
		Str("workspace", r.workspaceRoot).
		Msg("starting copy pass")

	outcomes := make([]Outcome, len(records))
	tracker := &progress{every: r.progressEvery, total: len(records), observer: r.observer}

	var err error
	if r.workers > 1 {
		err = r.runPool(ctx, records, outcomes, tracker)
	} else {
		err = r.runSync(ctx, records, outcomes, tracker)
	}
	if err != nil {
		return Result{}, errors.Errorf("copy pass cancelled: %w", err)
	}

	tracker.finish(ctx)

	res := Result{Records: records, Outcomes: outcomes}
	for _, out := range outcomes {
		if out.OK() {
			res.Succeeded++
		}
	}

	logger.Debug().Int("succeeded", res.Succeeded).Int("failed", res.Failed()).Msg("copy pass finished")

	return res, nil
}

// 🔄 runSync processes one record at a time
func (r *Runner) runSync(ctx context.Context, records []record.Record, outcomes []Outcome, tracker *progress) error {
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcomes[i] = r.process(ctx, i, rec)
		r.notify(ctx, outcomes[i])
		tracker.step(ctx)
	}
	return nil
}

// ⚡ runPool spreads records over a bounded set of goroutines. Each outcome
// lands at its record's index so order is stable.
func (r *Runner) runPool(ctx context.Context, records []record.Record, outcomes []Outcome, tracker *progress) error {
	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, rec := range records {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = r.process(ctx, i, rec)
			r.notify(ctx, outcomes[i])
			tracker.step(ctx)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

// process resolves, copies and emits one record. The copy and the sidecar
// are staged together and only become visible when both succeed, so a
// failure never disturbs an existing pair at the same destination.
func (r *Runner) process(ctx context.Context, i int, rec record.Record) Outcome {
	out := Outcome{
		Index:  i,
		Record: rec,
		Paths:  layout.Resolve(r.workspaceRoot, rec.FilePath),
	}

	switch {
	case out.Paths.Escapes():
		out.Err = errors.Errorf("%w: %q leaves the output tree", store.ErrCopyFailed, rec.FilePath)
		return out
	case out.Paths.Empty():
		out.Err = errors.Errorf("%w: %q has no path below the data directory", store.ErrCopyFailed, rec.FilePath)
		return out
	}

	batch := r.store.Begin()
	if err := r.stage(ctx, batch, rec, out.Paths); err != nil {
		out.Err = errors.Join(err, batch.Discard(ctx))
		return out
	}

	if err := batch.Commit(ctx); err != nil {
		out.Err = errors.Errorf("%w: %w", store.ErrCopyFailed, err)
	}

	return out
}

func (r *Runner) stage(ctx context.Context, batch *store.Batch, rec record.Record, paths layout.Paths) error {
	if err := batch.CopyFile(ctx, paths.SourceLocation, paths.FilePath); err != nil {
		return err
	}
	if _, err := r.emitter.Emit(ctx, batch, rec, paths); err != nil {
		return err
	}
	return nil
}

func (r *Runner) notify(ctx context.Context, out Outcome) {
	if out.OK() {
		r.observer.RecordCopied(ctx, out)
		return
	}
	r.observer.RecordFailed(ctx, out)
}

// 📊 progress reports every N processed records, then once at the end
type progress struct {
	every    int
	total    int
	observer Observer

	mu        sync.Mutex
	processed int
	reported  int
}

func (p *progress) step(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if p.every > 0 && p.processed%p.every == 0 {
		p.reported = p.processed
		p.observer.Progress(ctx, p.processed, p.total)
	}
}

func (p *progress) finish(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reported == p.processed && p.processed > 0 {
		return
	}
	p.reported = p.processed
	p.observer.Progress(ctx, p.processed, p.total)
}
