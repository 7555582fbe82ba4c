// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package maintenance

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// Summary is the result of StatusSummary.
type Summary struct {
	DefragService ServiceStatus
	Trim          TrimStatus
}

// StatusSummary repairs the defrag service and then checks the TRIM status,
// as a single run.
func (s *Service) StatusSummary(ctx context.Context) (Summary, error) {
	var sum Summary

	err := s.do(ctx, "status summary", "Checking status...", func() error {
		var merr *multierror.Error

		s.logf(ctx, "Status summary requested.")

		status, err := s.repairDefrag(ctx)
		sum.DefragService = status

		if err != nil {
			merr = multierror.Append(merr, err)
		}

		trim, err := s.checkTrimStatus(ctx)
		sum.Trim = trim

		if err != nil {
			merr = multierror.Append(merr, err)
		}

		return merr.ErrorOrNil()
	})

	return sum, err
}
