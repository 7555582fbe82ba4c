// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger on a context.Context.
//
// The default logger writes human-readable lines to stdout using PrettyHandler.
// The level is read from the SSDTRIM_LOG_LEVEL environment variable and can be
// changed later through LevelVar, e.g. from the configuration file.
package ctxlog
