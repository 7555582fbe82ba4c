// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package maintenance

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/ssdtrim/internal/drive"
	"github.com/matt-FFFFFF/ssdtrim/internal/runbatch"
)

const fsutilExe = "fsutil.exe"

var (
	// ErrTrimStatus is returned when fsutil cannot be run.
	ErrTrimStatus = errors.New("TRIM status query failed")
	// ErrTrimFailed is returned when Optimize-Volume fails for a drive.
	ErrTrimFailed = errors.New("TRIM failed")

	deleteNotifyRe = regexp.MustCompile(`(?i)^\s*(?:(\w+)\s+)?DisableDeleteNotify\s*=\s*(\d+)`)
)

// TrimStatus is the parsed output of fsutil behavior query DisableDeleteNotify.
type TrimStatus struct {
	// FileSystems maps a file system name ("NTFS", "ReFS") to whether TRIM is
	// enabled for it. Older Windows versions report a single unnamed value
	// under the empty key.
	FileSystems map[string]bool
	// Lines is the raw, non-blank output.
	Lines []string
}

// Enabled reports whether TRIM is enabled for every file system reported.
func (t TrimStatus) Enabled() bool {
	if len(t.FileSystems) == 0 {
		return false
	}

	for _, on := range t.FileSystems {
		if !on {
			return false
		}
	}

	return true
}

// CheckTrimStatus queries whether Windows sends TRIM commands to storage.
func (s *Service) CheckTrimStatus(ctx context.Context) (TrimStatus, error) {
	var status TrimStatus

	err := s.do(ctx, "check TRIM status", "Checking TRIM status...", func() error {
		var err error

		status, err = s.checkTrimStatus(ctx)

		return err
	})

	return status, err
}

func (s *Service) checkTrimStatus(ctx context.Context) (TrimStatus, error) {
	s.logf(ctx, "0%% - Starting TRIM status check...")
	s.logf(ctx, "25%% - Preparing fsutil command...")

	cmd := s.command(ctx, "fsutil query", fsutilExe, "behavior", "query", "DisableDeleteNotify")
	cmd.OnLine = nil

	s.logf(ctx, "50%% - Executing fsutil query...")

	res := s.exec.Execute(ctx, cmd)
	if res.ExitCode == -1 && res.Error != nil {
		s.logf(ctx, "TRIM status query failed: %v", res.Error)
		return TrimStatus{}, errors.Join(ErrTrimStatus, res.Error)
	}

	s.logf(ctx, "75%% - Reading results...")

	status := parseTrimStatus(res.StdOut)
	for _, line := range status.Lines {
		s.logf(ctx, "%s", line)
	}

	if stderr := strings.TrimSpace(string(res.StdErr)); stderr != "" {
		s.logf(ctx, "fsutil error: %s", stderr)
	}

	s.logf(ctx, "100%% - TRIM status check complete.")

	if err := res.Err(); err != nil {
		return status, errors.Join(ErrTrimStatus, err)
	}

	return status, nil
}

func parseTrimStatus(out []byte) TrimStatus {
	status := TrimStatus{
		FileSystems: make(map[string]bool),
	}

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		status.Lines = append(status.Lines, line)

		m := deleteNotifyRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		v, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}

		status.FileSystems[m[1]] = v == 0
	}

	return status
}

// TrimDrive runs Optimize-Volume -ReTrim on one drive.
func (s *Service) TrimDrive(ctx context.Context, letter string) error {
	l, err := drive.Normalise(letter)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return s.do(ctx, "TRIM on drive "+l, fmt.Sprintf("Running TRIM on drive %s...", l), func() error {
		return s.trimDrive(ctx, l).Err()
	})
}

// TrimAll trims every fixed drive that is not excluded by configuration.
// Drives are processed one after another and all failures are returned together.
func (s *Service) TrimAll(ctx context.Context) error {
	return s.do(ctx, "TRIM on all drives", "Running TRIM on all drives...", func() error {
		return s.trimAll(ctx)
	})
}

func (s *Service) trimAll(ctx context.Context) error {
	drives, err := s.eligibleDrives(ctx)
	if err != nil {
		return err
	}

	if len(drives) == 0 {
		s.logf(ctx, "No fixed drives found for TRIM.")
		return nil
	}

	results := make(runbatch.Results, 0, len(drives))

	for i, d := range drives {
		if err := ctx.Err(); err != nil {
			s.logResults(ctx, results)
			return multierror.Append(results.Errors(), err)
		}

		s.logf(ctx, "Processing drive %d of %d...", i+1, len(drives))

		results = append(results, s.trimDrive(ctx, d.Letter))
	}

	s.logResults(ctx, results)

	return results.Errors()
}

// trimDrive expects a normalised letter and an active run. A failed result
// carries an error wrapping ErrTrimFailed.
func (s *Service) trimDrive(ctx context.Context, letter string) *runbatch.Result {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()

	if r != nil {
		s.resetSession(r)
	}

	s.logf(ctx, "TRIM on drive %s started.", letter)

	cmd := s.command(ctx, "TRIM drive "+letter, powershellExe,
		"-NoProfile", "-Command", fmt.Sprintf("Optimize-Volume -DriveLetter %s -ReTrim -Verbose", letter))

	res := s.exec.Execute(ctx, cmd)
	if res.ExitCode == -1 && res.Error != nil {
		s.logf(ctx, "TRIM on drive %s failed: %v", letter, res.Error)
	} else {
		s.logf(ctx, "TRIM on drive %s completed with exit code %d.", letter, res.ExitCode)
	}

	if res.Failed() {
		cause := res.Error
		if cause == nil {
			cause = fmt.Errorf("%w (exit code %d)", runbatch.ErrNonZeroExit, res.ExitCode)
		}

		res.Error = fmt.Errorf("%w on drive %s: %w", ErrTrimFailed, letter, cause)
	}

	return res
}

// eligibleDrives lists fixed drives minus the configured exclusions.
func (s *Service) eligibleDrives(ctx context.Context) ([]Drive, error) {
	drives, err := s.listDrives(ctx)
	if err != nil {
		s.logf(ctx, "Could not list drives: %v", err)
		return nil, err
	}

	eligible := make([]Drive, 0, len(drives))

	for _, d := range drives {
		if s.cfg.Excluded(d.Letter) {
			s.logf(ctx, "Skipping excluded drive %s.", d.Letter)
			continue
		}

		eligible = append(eligible, d)
	}

	return eligible, nil
}
