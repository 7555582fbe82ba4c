// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries real-time updates from a running maintenance
// operation to whoever is displaying it: the TUI, the console printer or
// nothing at all.
package progress
