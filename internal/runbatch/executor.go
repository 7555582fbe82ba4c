// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import "context"

// Executor runs commands. Maintenance operations take an Executor so they
// can be exercised without the Windows tools present.
type Executor interface {
	Execute(ctx context.Context, cmd *OSCommand) *Result
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, cmd *OSCommand) *Result

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, cmd *OSCommand) *Result {
	return f(ctx, cmd)
}

// OSExecutor starts real processes.
type OSExecutor struct{}

// Execute implements Executor.
func (OSExecutor) Execute(ctx context.Context, cmd *OSCommand) *Result {
	return cmd.Run(ctx)
}

// DefaultExecutor is used when no executor is configured.
var DefaultExecutor Executor = OSExecutor{}
