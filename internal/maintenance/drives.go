// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package maintenance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/ssdtrim/internal/drive"
)

const (
	powershellExe = "powershell.exe"
	unknownValue  = "Unknown"

	listDrivesScript = "Get-Volume | " +
		"Where-Object { $_.DriveType -eq 'Fixed' -and $_.DriveLetter } | " +
		"Sort-Object DriveLetter | " +
		"Select-Object @{n='DriveLetter';e={[string]$_.DriveLetter}}," +
		"@{n='FileSystem';e={[string]$_.FileSystemType}}," +
		"@{n='Label';e={[string]$_.FileSystemLabel}}," +
		"@{n='Health';e={[string]$_.HealthStatus}} | " +
		"ConvertTo-Json -Compress"
)

// ErrListDrives is returned when the volume query fails.
var ErrListDrives = errors.New("could not list fixed drives")

// Drive is a fixed volume with a drive letter.
type Drive struct {
	Letter     string `json:"DriveLetter"`
	FileSystem string `json:"FileSystem"`
	Label      string `json:"Label"`
	Health     string `json:"Health"`
}

// String renders the drive as shown by the drives command.
func (d Drive) String() string {
	label := d.Label
	if label == "" {
		label = "(no label)"
	}

	return fmt.Sprintf("%s:  %-6s  %-20s  %s", d.Letter, d.FileSystem, label, d.Health)
}

// ListDrives returns the fixed drives that have a drive letter.
func (s *Service) ListDrives(ctx context.Context) ([]Drive, error) {
	var drives []Drive

	err := s.do(ctx, "refresh drives", "Refreshing drives...", func() error {
		var err error

		drives, err = s.listDrives(ctx)
		if err != nil {
			return err
		}

		s.logf(ctx, "Drive list refreshed.")

		return nil
	})

	return drives, err
}

func (s *Service) listDrives(ctx context.Context) ([]Drive, error) {
	cmd := s.command(ctx, "list drives", powershellExe, "-NoProfile", "-NonInteractive", "-Command", listDrivesScript)
	// The JSON document is parsed, not logged.
	cmd.OnLine = nil

	res := s.exec.Execute(ctx, cmd)
	if err := res.Err(); err != nil {
		return nil, errors.Join(ErrListDrives, err)
	}

	drives, err := parseDrives(res.StdOut)
	if err != nil {
		return nil, errors.Join(ErrListDrives, err)
	}

	return drives, nil
}

// parseDrives decodes ConvertTo-Json output, which is a single object for
// one volume and an array for several.
func parseDrives(out []byte) ([]Drive, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, nil
	}

	var drives []Drive

	if out[0] == '[' {
		if err := json.Unmarshal(out, &drives); err != nil {
			return nil, fmt.Errorf("decoding volumes: %w", err)
		}
	} else {
		var d Drive
		if err := json.Unmarshal(out, &d); err != nil {
			return nil, fmt.Errorf("decoding volume: %w", err)
		}

		drives = append(drives, d)
	}

	result := make([]Drive, 0, len(drives))

	for _, d := range drives {
		letter, err := drive.Normalise(d.Letter)
		if err != nil {
			continue
		}

		d.Letter = letter

		if d.FileSystem == "" {
			d.FileSystem = unknownValue
		}

		if d.Health == "" {
			d.Health = unknownValue
		}

		result = append(result, d)
	}

	return result, nil
}
