// ///////////////////////////////////////////////////////////////////////////
//
// # Parity - Tabular Data Reconciliation Engine
//
// Copyright (C) 2024 - 2026, Parityworks (https://www.parityworks.io/)
//
// This software is released under the PostgreSQL License:
// https://opensource.org/license/postgresql
//
// ///////////////////////////////////////////////////////////////////////////

package types

import (
	"time"
)

// Task carries the lifecycle fields shared by every runnable task.
type Task struct {
	TaskID      string
	TaskType    string
	TaskStatus  string
	TaskContext string
	StartedAt   time.Time
	FinishedAt  time.Time
	TimeTaken   float64
}

// ReconOutput holds the structured result of one reconciliation run.
type ReconOutput struct {
	Summary Summary     `json:"summary"`
	Rows    []RowRecord `json:"rows"`
}

// RowRecord is one merged row in the machine readable report.
type RowRecord struct {
	Key       string                  `json:"key"`
	KeyParts  []string                `json:"key_parts"`
	RowSource string                  `json:"row_source"` // BOTH, LEFT_ONLY, RIGHT_ONLY
	Overall   string                  `json:"overall"`    // MATCH, MISMATCH, LEFT_ONLY, RIGHT_ONLY
	Columns   map[string]ColumnRecord `json:"columns,omitempty"`
}

// ColumnRecord is one compared pair inside a RowRecord, keyed by label.
type ColumnRecord struct {
	Left      any    `json:"left"`
	Right     any    `json:"right"`
	Diff      any    `json:"diff,omitempty"`
	Verdict   string `json:"verdict"`
	Direction string `json:"direction,omitempty"`
}

// Summary provides metadata and dataset wide statistics for one run.
type Summary struct {
	State          string          `json:"state,omitempty"`
	LeftSource     string          `json:"left_source,omitempty"`
	RightSource    string          `json:"right_source,omitempty"`
	StartTime      string          `json:"start_time,omitempty"`
	EndTime        string          `json:"end_time,omitempty"`
	TimeTaken      string          `json:"time_taken,omitempty"`
	TotalRows      int             `json:"total_rows"`
	BothRows       int             `json:"both_rows"`
	MatchedRows    int             `json:"matched_rows"`
	MismatchedRows int             `json:"mismatched_rows"`
	LeftOnlyRows   int             `json:"left_only_rows"`
	RightOnlyRows  int             `json:"right_only_rows"`
	MatchRate      float64         `json:"match_rate"` // matched / both, as a percentage
	RegionColumn   string          `json:"region_column,omitempty"`
	UniqueRegions  int             `json:"unique_regions,omitempty"`
	Columns        []ColumnStats   `json:"columns"`
	Categories     []CategoryStats `json:"categories,omitempty"`
	LeftDetailIDs  int             `json:"left_detail_ids,omitempty"` // distinct detail identifiers, e.g. NPIs
	RightDetailIDs int             `json:"right_detail_ids,omitempty"`
	LeftZeroRows   int             `json:"left_zero_rows,omitempty"` // rows whose configured zero column is 0
	RightZeroRows  int             `json:"right_zero_rows,omitempty"`
	Diagnostics    Diagnostics     `json:"diagnostics"`
}

// ColumnStats counts per column verdicts across all merged rows.
type ColumnStats struct {
	Label      string `json:"label"`
	Kind       string `json:"kind"`
	Matched    int    `json:"matched"`
	Mismatched int    `json:"mismatched"`
	Missing    int    `json:"one_side_missing"`
	Higher     int    `json:"higher,omitempty"`
	Lower      int    `json:"lower,omitempty"`
	Same       int    `json:"same,omitempty"`
}

// CategoryStats breaks one numeric column's directional outcomes down by a
// categorical key attribute, e.g. per specialty group.
type CategoryStats struct {
	Category    string `json:"category"`
	Label       string `json:"label"`
	Same        int    `json:"same"`
	LeftHigher  int    `json:"left_higher"`
	RightHigher int    `json:"right_higher"`
}

// Diagnostics counts the data quality conditions a run tolerates without
// failing: duplicate keys, null key parts, and double absent value pairs.
type Diagnostics struct {
	LeftRows           int `json:"left_rows"`
	RightRows          int `json:"right_rows"`
	LeftDuplicateKeys  int `json:"left_duplicate_keys"`
	RightDuplicateKeys int `json:"right_duplicate_keys"`
	LeftNullKeyRows    int `json:"left_null_key_rows"`
	RightNullKeyRows   int `json:"right_null_key_rows"`
	BothAbsentPairs    int `json:"both_absent_pairs"`
}
