// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package maintenance implements the SSD maintenance operations: listing
// fixed drives, checking and running TRIM, repairing the Optimize Drives
// service and registering monthly TRIM tasks.
//
// Every public operation is a run. A run reports a started event carrying
// its busy message, then every line written to the operation log, the
// progress derived from those lines, and finally a completed or failed
// event. Percentages come from the extractor, so a run shows progress for
// whatever its tools print, including the staged "NN% - ..." messages the
// operations log themselves.
package maintenance
