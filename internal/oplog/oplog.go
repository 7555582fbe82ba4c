// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package oplog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/matt-FFFFFF/ssdtrim/internal/ctxlog"
	"github.com/spf13/afero"
)

const (
	// FileName is the name of the log file inside the base folder.
	FileName = "SSD_Trim_Log.txt"
	// TimestampFormat is the layout of the timestamp that prefixes every line.
	TimestampFormat = "2006-01-02 15:04:05"

	retryDelay = 50 * time.Millisecond
	filePerm   = 0o644
	dirPerm    = 0o755
)

// ErrCreateBaseFolder is returned when the base folder cannot be created.
var ErrCreateBaseFolder = errors.New("could not create base folder")

// Listener receives each formatted line after it has been written.
type Listener func(line string)

// Log appends timestamped messages to the log file.
type Log struct {
	mu        sync.Mutex
	fs        afero.Fs
	path      string
	clock     clockwork.Clock
	listeners []Listener
}

// Option configures a Log.
type Option func(*Log)

// WithClock sets the clock used for timestamps and the retry delay.
func WithClock(c clockwork.Clock) Option {
	return func(l *Log) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithListener registers a listener at construction time.
func WithListener(fn Listener) Option {
	return func(l *Log) {
		if fn != nil {
			l.listeners = append(l.listeners, fn)
		}
	}
}

// New creates the base folder if needed and returns a Log writing to
// <baseFolder>/SSD_Trim_Log.txt.
func New(baseFolder string, opts ...Option) (*Log, error) {
	l := &Log{
		fs:    FsFactory(),
		path:  filepath.Join(baseFolder, FileName),
		clock: clockwork.NewRealClock(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if err := l.fs.MkdirAll(baseFolder, dirPerm); err != nil {
		return nil, errors.Join(ErrCreateBaseFolder, err)
	}

	return l, nil
}

// Path returns the full path of the log file.
func (l *Log) Path() string {
	return l.path
}

// AddListener registers fn to receive every subsequent line.
func (l *Log) AddListener(fn Listener) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.listeners = append(l.listeners, fn)
}

// Log writes message to the file and notifies the listeners.
// A failed write is retried once; if that also fails the line is only
// delivered to the listeners.
func (l *Log) Log(ctx context.Context, message string) {
	line := fmt.Sprintf("%s\t%s", l.clock.Now().Format(TimestampFormat), message)

	l.mu.Lock()

	if err := l.append(line); err != nil {
		l.clock.Sleep(retryDelay)

		if err := l.append(line); err != nil {
			ctxlog.Debug(ctx, "operation log write failed", "path", l.path, "error", err)
		}
	}

	listeners := append([]Listener(nil), l.listeners...)

	l.mu.Unlock()

	for _, fn := range listeners {
		fn(line)
	}
}

// Logf formats according to a format specifier and logs the result.
func (l *Log) Logf(ctx context.Context, format string, args ...any) {
	l.Log(ctx, fmt.Sprintf(format, args...))
}

func (l *Log) append(line string) error {
	f, err := l.fs.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("opening %s: %w", l.path, err)
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", l.path, err)
	}

	return f.Close() //nolint:wrapcheck
}
