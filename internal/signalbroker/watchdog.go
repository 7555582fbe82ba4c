// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/ssdtrim/internal/ctxlog"
)

// Watch drains sigCh until it is closed or the same signal is received twice,
// in which case it closes sigCh and calls cancel.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for sig := range sigCh {
		if _, ok := seen[sig]; ok {
			ctxlog.Info(ctx, "watchdog", "detail", "second signal received, cancelling", "signal", sig.String())
			Stop(sigCh)
			close(sigCh)
			cancel()

			return
		}

		ctxlog.Info(ctx, "watchdog", "detail", "signal received, press again to abort", "signal", sig.String())

		seen[sig] = struct{}{}
	}
}
