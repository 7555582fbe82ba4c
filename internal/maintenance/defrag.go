// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package maintenance

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	scExe          = "sc.exe"
	defragService  = "defragsvc"
	startTimeout   = 10 * time.Second
	startPollDelay = 500 * time.Millisecond
)

var (
	// ErrServiceNotFound is returned when defragsvc cannot be queried.
	ErrServiceNotFound = errors.New("defragsvc not found")
	// ErrServiceStart is returned when defragsvc does not reach the running state.
	ErrServiceStart = errors.New("failed to start defragsvc")

	serviceStateRe = regexp.MustCompile(`(?m)^\s*STATE\s*:\s*\d+\s+(\w+)`)
)

// ServiceStatus is the state of a Windows service as reported by sc.exe.
type ServiceStatus string

// Service states, named as the service control manager reports them.
const (
	ServiceUnknown         ServiceStatus = "Unknown"
	ServiceStopped         ServiceStatus = "Stopped"
	ServiceStartPending    ServiceStatus = "StartPending"
	ServiceStopPending     ServiceStatus = "StopPending"
	ServiceRunning         ServiceStatus = "Running"
	ServiceContinuePending ServiceStatus = "ContinuePending"
	ServicePausePending    ServiceStatus = "PausePending"
	ServicePaused          ServiceStatus = "Paused"
)

var scStates = map[string]ServiceStatus{
	"STOPPED":          ServiceStopped,
	"START_PENDING":    ServiceStartPending,
	"STOP_PENDING":     ServiceStopPending,
	"RUNNING":          ServiceRunning,
	"CONTINUE_PENDING": ServiceContinuePending,
	"PAUSE_PENDING":    ServicePausePending,
	"PAUSED":           ServicePaused,
}

// parseServiceState extracts the STATE line of sc.exe query output.
func parseServiceState(out []byte) ServiceStatus {
	m := serviceStateRe.FindSubmatch(out)
	if m == nil {
		return ServiceUnknown
	}

	if st, ok := scStates[strings.ToUpper(string(m[1]))]; ok {
		return st
	}

	return ServiceUnknown
}

// RepairDefrag makes sure the Optimize Drives service (defragsvc) is set to
// manual start and is running. It returns the final service status.
func (s *Service) RepairDefrag(ctx context.Context) (ServiceStatus, error) {
	var status ServiceStatus

	err := s.do(ctx, "repair defrag service", "Repairing defrag service...", func() error {
		var err error

		status, err = s.repairDefrag(ctx)

		return err
	})

	return status, err
}

func (s *Service) repairDefrag(ctx context.Context) (ServiceStatus, error) {
	s.logf(ctx, "0%% - Checking Optimize Drives service (%s)...", defragService)

	status, err := s.queryService(ctx)
	if err != nil {
		s.logf(ctx, "defragsvc not found: %v", err)
		return ServiceUnknown, err
	}

	s.logf(ctx, "20%% - Current defragsvc status: %s", status)

	var failures error

	s.logf(ctx, "40%% - Configuring service start type...")

	cfgRes := s.exec.Execute(ctx, s.command(ctx, "configure defragsvc", scExe, "config", defragService, "start=", "demand"))
	if err := cfgRes.Err(); err != nil {
		s.logf(ctx, "Failed to set defragsvc start type: %v", err)
		failures = errors.Join(failures, err)
	} else {
		s.logf(ctx, "60%% - Set defragsvc start type to 'demand' (Manual).")
	}

	s.logf(ctx, "70%% - Refreshing service status...")

	status, _ = s.queryService(ctx)

	if status != ServiceRunning {
		s.logf(ctx, "80%% - Starting defragsvc...")

		if err := s.startService(ctx); err != nil {
			s.logf(ctx, "Failed to start defragsvc: %v", err)
			failures = errors.Join(failures, err)
		}
	}

	s.logf(ctx, "95%% - Final status check...")

	status, _ = s.queryService(ctx)

	s.logf(ctx, "100%% - defragsvc repair complete. Status: %s", status)

	return status, failures
}

func (s *Service) queryService(ctx context.Context) (ServiceStatus, error) {
	cmd := s.command(ctx, "query defragsvc", scExe, "query", defragService)
	cmd.OnLine = nil

	res := s.exec.Execute(ctx, cmd)
	if err := res.Err(); err != nil {
		return ServiceUnknown, errors.Join(ErrServiceNotFound, err)
	}

	return parseServiceState(res.StdOut), nil
}

// startService starts defragsvc and waits up to startTimeout for it to run.
func (s *Service) startService(ctx context.Context) error {
	res := s.exec.Execute(ctx, s.command(ctx, "start defragsvc", scExe, "start", defragService))
	if err := res.Err(); err != nil {
		return errors.Join(ErrServiceStart, err)
	}

	deadline := s.clock.Now().Add(startTimeout)

	for {
		status, err := s.queryService(ctx)
		if err == nil && status == ServiceRunning {
			return nil
		}

		if !s.clock.Now().Before(deadline) {
			return fmt.Errorf("%w: still %s after %s", ErrServiceStart, status, startTimeout)
		}

		select {
		case <-ctx.Done():
			return errors.Join(ErrServiceStart, ctx.Err())
		case <-s.clock.After(startPollDelay):
		}
	}
}
