// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
)

// ChannelReporter implements Reporter on top of a buffered channel.
// Sends never block: events are dropped when the buffer is full, except for
// the final Completed/Failed event, which waits for room until the reporter is closed.
type ChannelReporter struct {
	ch     chan Event
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewChannelReporter creates a ChannelReporter with the given buffer size.
func NewChannelReporter(ctx context.Context, bufferSize int) *ChannelReporter {
	reporterCtx, cancel := context.WithCancel(ctx)

	return &ChannelReporter{
		ch:     make(chan Event, bufferSize),
		ctx:    reporterCtx,
		cancel: cancel,
	}
}

// Report implements Reporter.
func (cr *ChannelReporter) Report(event Event) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.closed {
		return
	}

	if event.Finished() {
		select {
		case cr.ch <- event:
		case <-cr.ctx.Done():
		}

		return
	}

	select {
	case cr.ch <- event:
	default:
	}
}

// Close implements Reporter. It waits for a running Listen goroutine to drain the channel.
func (cr *ChannelReporter) Close() {
	cr.cancel()

	cr.mu.Lock()
	if !cr.closed {
		cr.closed = true
		close(cr.ch)
	}
	cr.mu.Unlock()

	cr.wg.Wait()
}

// Listen forwards events to listener from a new goroutine until the reporter is closed.
func (cr *ChannelReporter) Listen(listener Listener) {
	cr.wg.Add(1)

	go func() {
		defer cr.wg.Done()

		for event := range cr.ch {
			listener.OnEvent(event)
		}
	}()
}

// Events returns the underlying channel for manual consumption.
func (cr *ChannelReporter) Events() <-chan Event {
	return cr.ch
}
