// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs the operating system tools behind each maintenance
// operation. Standard output and standard error are read concurrently, line
// by line, and every line is handed to the command's LineHandler as it arrives
// so that progress can be shown while the tool is still running.
package runbatch
