// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides an interactive terminal view of a maintenance run
// using Bubble Tea. It shows the busy message with a spinner, a progress bar
// for the latest percentage and the most recent lines of the operation log.
package tui
