// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads the ssdtrim YAML configuration.
//
// A configuration file is optional. When given it can be any go-getter URL,
// so a shared configuration can be fetched from a git repository or an HTTP
// server as easily as it is read from disk. An example:
//
//	base_folder: C:\Users\me\Documents\SSDTools
//	log_level: info
//	throttle_interval: 500ms
//	schedule:
//	  day_of_month: 1
//	  run_as: SYSTEM
//	exclude_drives:
//	  - D
//	  - E:
//
// Entries in exclude_drives may be written with or without the colon.
package config
