// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ErrNonZeroExit is reported for results that failed only because of their exit code.
var ErrNonZeroExit = errors.New("process exited with an unexpected exit code")

// ResultStatus is the outcome of a command.
type ResultStatus int

const (
	// ResultStatusUnknown is the zero value, before the process has been waited on.
	ResultStatusUnknown ResultStatus = iota
	// ResultStatusSuccess means the exit code was one of the success codes.
	ResultStatusSuccess
	// ResultStatusError means the process failed to start, was killed or exited badly.
	ResultStatusError
)

// String implements fmt.Stringer.
func (s ResultStatus) String() string {
	switch s {
	case ResultStatusSuccess:
		return "success"
	case ResultStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of running one OSCommand.
type Result struct {
	Label    string
	ExitCode int
	Error    error
	Status   ResultStatus
	StdOut   []byte
	StdErr   []byte
	Duration time.Duration
}

// NewErrorResult returns a failed result for a step that never started a process.
func NewErrorResult(label string, err error) *Result {
	return &Result{
		Label:    label,
		ExitCode: -1,
		Error:    err,
		Status:   ResultStatusError,
	}
}

// Failed reports whether the result should be treated as a failure.
func (r *Result) Failed() bool {
	return r.Status == ResultStatusError || r.Error != nil
}

// Err returns the result's error, or ErrNonZeroExit when it failed without one.
// It returns nil for successful results.
func (r *Result) Err() error {
	if !r.Failed() {
		return nil
	}

	if r.Error != nil {
		return fmt.Errorf("%s: %w", r.Label, r.Error)
	}

	return fmt.Errorf("%s: %w (exit code %d)", r.Label, ErrNonZeroExit, r.ExitCode)
}

// Results is a slice of Result pointers.
type Results []*Result

// HasError reports whether any result failed.
func (r Results) HasError() bool {
	return slices.ContainsFunc(r, func(res *Result) bool {
		return res != nil && res.Failed()
	})
}

// Errors aggregates the errors of all failed results, or returns nil.
func (r Results) Errors() error {
	var merr *multierror.Error

	for _, res := range r {
		if res == nil {
			continue
		}

		if err := res.Err(); err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	return merr.ErrorOrNil()
}

// WriteText writes one summary line per result.
func (r Results) WriteText(w io.Writer) error {
	for _, res := range r {
		if res == nil {
			continue
		}

		line := fmt.Sprintf("%s: %s (exit code %d, %s)\n",
			res.Label, res.Status, res.ExitCode, res.Duration.Round(time.Millisecond))
		if res.Error != nil {
			line = fmt.Sprintf("%s: %s (exit code %d): %v\n", res.Label, res.Status, res.ExitCode, res.Error)
		}

		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
	}

	return nil
}
