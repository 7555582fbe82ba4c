// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package oplog is the operation log. Every message from a maintenance
// operation is appended, with a timestamp, to SSD_Trim_Log.txt in the base
// folder and then handed to the registered listeners.
package oplog
