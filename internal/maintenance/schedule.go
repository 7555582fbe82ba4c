// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package maintenance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matt-FFFFFF/ssdtrim/internal/drive"
	"github.com/matt-FFFFFF/ssdtrim/internal/oplog"
	"github.com/matt-FFFFFF/ssdtrim/internal/runbatch"
	"github.com/spf13/afero"
)

const (
	schtasksExe    = "schtasks.exe"
	taskNamePrefix = "MonthlySSDTrim_"
	scriptPerm     = 0o644
	folderPerm     = 0o755
)

var (
	// ErrWriteWrapper is returned when a task wrapper script cannot be written.
	ErrWriteWrapper = errors.New("could not write task wrapper script")
	// ErrRegisterTask is returned when schtasks.exe fails.
	ErrRegisterTask = errors.New("could not register scheduled task")
)

// TaskName returns the scheduled task name for a drive letter.
func TaskName(letter string) string {
	return taskNamePrefix + letter
}

// ScheduleMonthly registers a monthly TRIM task for each letter. With no
// letters, every eligible fixed drive is scheduled.
func (s *Service) ScheduleMonthly(ctx context.Context, letters ...string) error {
	normalised, err := drive.NormaliseAll(letters)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return s.do(ctx, "schedule monthly TRIM", "Setting up monthly tasks...", func() error {
		if len(normalised) == 0 {
			drives, err := s.eligibleDrives(ctx)
			if err != nil {
				return err
			}

			for _, d := range drives {
				normalised = append(normalised, d.Letter)
			}
		}

		if len(normalised) == 0 {
			s.logf(ctx, "No fixed drives found to schedule.")
			return nil
		}

		results := make(runbatch.Results, 0, len(normalised))

		for i, l := range normalised {
			res := s.createMonthlyTask(ctx, l, i+1, len(normalised))
			if res.Failed() {
				s.logf(ctx, "Failed to create task for drive %s: %v", l, res.Error)
			}

			results = append(results, res)
		}

		s.logResults(ctx, results)

		return results.Errors()
	})
}

// createMonthlyTask writes the wrapper script for letter and registers it.
// index is 1-based; progress for the drive spans index-1 to index of total.
// A failed result carries an error wrapping ErrWriteWrapper or ErrRegisterTask.
func (s *Service) createMonthlyTask(ctx context.Context, letter string, index, total int) *runbatch.Result {
	base := (index - 1) * 100 / total
	step := 100 / total

	s.logf(ctx, "%d%% - Setting up task for drive %s...", base, letter)

	wrapperPath := filepath.Join(s.cfg.WrapperFolder(), fmt.Sprintf("Trim_%s.ps1", letter))
	logFile := filepath.Join(s.cfg.BaseFolder, oplog.FileName)

	s.logf(ctx, "%d%% - Creating PowerShell script...", base+step/4)

	taskName := TaskName(letter)
	label := "register " + taskName

	if err := s.fs.MkdirAll(s.cfg.WrapperFolder(), folderPerm); err != nil {
		return runbatch.NewErrorResult(label, fmt.Errorf("%w: %w", ErrWriteWrapper, err))
	}

	if err := afero.WriteFile(s.fs, wrapperPath, []byte(wrapperScript(letter, logFile)), scriptPerm); err != nil {
		return runbatch.NewErrorResult(label, fmt.Errorf("%w: %w", ErrWriteWrapper, err))
	}

	s.logf(ctx, "%d%% - Configuring scheduled task...", base+step/2)

	args := []string{
		"/Create", "/F",
		"/SC", "MONTHLY",
		"/D", strconv.Itoa(s.cfg.Schedule.DayOfMonth),
		"/TN", taskName,
		"/TR", fmt.Sprintf(`powershell.exe -NoProfile -ExecutionPolicy Bypass -File "%s"`, wrapperPath),
		"/RU", s.cfg.Schedule.RunAs,
	}

	s.logf(ctx, "%d%% - Registering task...", base+(step*3)/4)

	res := s.exec.Execute(ctx, s.command(ctx, label, schtasksExe, args...))
	if res.Failed() {
		cause := res.Error
		if cause == nil {
			cause = fmt.Errorf("%w (exit code %d)", runbatch.ErrNonZeroExit, res.ExitCode)
		}

		res.Error = fmt.Errorf("%w: %w", ErrRegisterTask, cause)

		return res
	}

	s.logf(ctx, "%d%% - Task %s created for drive %s.", index*100/total, taskName, letter)

	return res
}

// wrapperScript is the PowerShell script a scheduled task runs. It appends
// a marker line and the Optimize-Volume verbose output to the operation log.
func wrapperScript(letter, logFile string) string {
	lines := []string{
		`$timestamp = Get-Date -Format "yyyy-MM-dd HH:mm:ss"`,
		fmt.Sprintf("$line = \"$timestamp`tTRIM run on drive %s\"", letter),
		fmt.Sprintf(`Add-Content -Path "%s" -Value $line`, logFile),
		fmt.Sprintf(`Optimize-Volume -DriveLetter %s -ReTrim -Verbose 4>&1 | Out-File -Append -Encoding utf8 "%s"`, letter, logFile),
	}

	return strings.Join(lines, "\r\n") + "\r\n"
}
