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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/metacopy/pkg/metadata"
	"github.com/walteh/metacopy/pkg/operation"
	"github.com/walteh/metacopy/pkg/store"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Display configuration
const (
	recordIndent = 4  // spaces to indent record entries
	pathWidth    = 45 // width for the destination path
	labelWidth   = 3  // width for the ground truth code
	idWidth      = 8  // width for the record id
)

// 🎯 Logger prints run events to a console and mirrors them to zerolog.
// It satisfies operation.Observer and is safe for concurrent use.
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	verbose bool

	mu sync.Mutex
}

var _ operation.Observer = (*Logger)(nil)

// 🏭 New creates a new logger. Console lines go to console, structured
// events to zlog.
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// WithVerbose also prints a line for every copied record.
func (l *Logger) WithVerbose(verbose bool) *Logger {
	l.verbose = verbose
	return l
}

type consoleKey struct{}

// WithContext returns a copy of ctx carrying l.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, consoleKey{}, l)
}

// 🎯 FromContext returns the console logger carried by ctx. Without one, console
// output is dropped and events still reach the zerolog logger of ctx.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(consoleKey{}).(*Logger); ok {
		return l
	}
	return New(io.Discard, *zerolog.Ctx(ctx))
}

// reason names the failing stage of an outcome.
func reason(err error) string {
	switch {
	case errors.Is(err, store.ErrSourceMissing):
		return "source missing"
	case errors.Is(err, metadata.ErrWriteFailed):
		return "metadata write failed"
	case errors.Is(err, store.ErrCopyFailed):
		return "copy failed"
	default:
		return "failed"
	}
}

// 📝 formatRecord formats one outcome for display
func (l *Logger) formatRecord(out operation.Outcome) string {
	symbol, symbolColor := '✓', color.FgGreen
	status := "copied"
	if !out.OK() {
		symbol, symbolColor = '✗', color.FgRed
		status = reason(out.Err)
	}

	dest := out.Paths.FilePath
	if dest == "" {
		dest = out.Record.FilePath
	}

	return fmt.Sprintf("%s%s %s %s %s %s",
		fmt.Sprintf("%*s", recordIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		color.New(color.Faint).Sprint(fmt.Sprintf("%-*s", idWidth, out.Record.ID)),
		fmt.Sprintf("%-*s", pathWidth, dest),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", labelWidth, string(out.Record.GroundTruth))),
		status)
}

// RecordCopied prints a copied record in verbose mode.
func (l *Logger) RecordCopied(ctx context.Context, out operation.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.verbose {
		fmt.Fprintln(l.console, l.formatRecord(out))
	}

	l.zlog.Debug().
		Str("id", out.Record.ID).
		Str("file", out.Paths.FilePath).
		Str("metadata", out.Paths.MetadataPath).
		Msg("record copied")
}

// RecordFailed always prints the record with its reason.
func (l *Logger) RecordFailed(ctx context.Context, out operation.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatRecord(out))

	l.zlog.Warn().
		Err(out.Err).
		Str("id", out.Record.ID).
		Str("source", out.Paths.SourceLocation).
		Msg("record failed")
}

// Progress prints a progress line.
func (l *Logger) Progress(ctx context.Context, processed, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, FormatProgress(processed, total))
	l.zlog.Info().Int("processed", processed).Int("total", total).Msg("progress")
}

// FormatProgress formats a progress message with percentage
func FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Processed %d/%d files (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Processed %d/%d files (%.0f%%)", current, total, percentage)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("metacopy")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
