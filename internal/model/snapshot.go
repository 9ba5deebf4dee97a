// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "time"

// Snapshot describes a collection saved to the local store for offline
// browsing: which profile it came from, when, and how many records it holds.
type Snapshot struct {
	ID          int64
	Name        string
	Profile     string
	RecordCount int
	CreatedAt   time.Time
}
