// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

const maxPercentage = 100

var (
	verboseRetrimRegex   = regexp.MustCompile(`(?i)VERBOSE:\s*Retrim:\s*(\d+)%\s*complete`)
	verboseRetrimOfRegex = regexp.MustCompile(`(?i)VERBOSE:\s*Retrim\s+of\s+([A-Z]:?)`)
	percentageRegex      = regexp.MustCompile(`(\d+)\s*%`)
)

type matchKind int

const (
	matchNone matchKind = iota
	matchRetrimPercent
	matchRetrimTarget
	matchPercent
)

type match struct {
	kind       matchKind
	percentage int
	drive      string
}

// classify applies the patterns in priority order. A capture that is not a
// valid percentage makes the line a non-match rather than falling through.
func classify(line string) match {
	if m := verboseRetrimRegex.FindStringSubmatch(line); m != nil {
		p, ok := parsePercentage(m[1])
		if !ok {
			return match{}
		}

		return match{kind: matchRetrimPercent, percentage: p}
	}

	if m := verboseRetrimOfRegex.FindStringSubmatch(line); m != nil {
		return match{kind: matchRetrimTarget, drive: normaliseDrive(m[1])}
	}

	if m := percentageRegex.FindStringSubmatch(line); m != nil {
		p, ok := parsePercentage(m[1])
		if !ok {
			return match{}
		}

		return match{kind: matchPercent, percentage: p}
	}

	return match{}
}

func parsePercentage(s string) (int, bool) {
	p, err := strconv.Atoi(s)
	if err != nil || p < 0 || p > maxPercentage {
		return 0, false
	}

	return p, true
}

func normaliseDrive(s string) string {
	return strings.ToUpper(strings.TrimSuffix(s, ":"))
}
