// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package extractor turns free-form output from Optimize-Volume, fsutil and
// friends into percentage and busy-message events.
//
// Lines are matched in priority order:
//
//  1. "VERBOSE: Retrim: N% complete" - throttled percentage.
//  2. "VERBOSE: Retrim of X:"        - busy message, only while the run is busy.
//  3. any "N%"                        - percentage, emitted immediately.
//
// Throttled percentages are never repeated back to back and are at least the
// throttle interval apart. An update that arrives too early is held in a single
// pending slot per State; later updates in the same window replace it, so a
// burst collapses to its latest value. The pending update fires from a
// cancellable timer which re-checks the State before emitting.
package extractor
