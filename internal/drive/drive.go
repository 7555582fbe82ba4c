// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package drive normalises Windows drive letters.
package drive

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLetter is returned for anything that is not a single letter A-Z,
// optionally followed by a colon and a backslash.
var ErrInvalidLetter = errors.New("invalid drive letter")

// Normalise trims whitespace, strips a trailing ":" or "\" and upper-cases
// the result, so "e:\", " E: " and "e" all become "E".
func Normalise(s string) (string, error) {
	letter := strings.ToUpper(strings.TrimRight(strings.TrimSpace(s), `:\`))

	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return "", fmt.Errorf("%w: %q", ErrInvalidLetter, s)
	}

	return letter, nil
}

// NormaliseAll normalises every entry, returning the first error.
func NormaliseAll(letters []string) ([]string, error) {
	out := make([]string, 0, len(letters))

	for _, l := range letters {
		n, err := Normalise(l)
		if err != nil {
			return nil, err
		}

		out = append(out, n)
	}

	return out, nil
}
