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

// Package compare implements the reconciliation engine: key and value
// normalization, the composite key outer join, per column verdicts, overall
// verdicts, and template driven output assembly. Every entry point is a pure
// function over immutable inputs, so independent runs can execute in
// parallel without coordination.
package compare

import "slices"

// Row is a single record keyed by column name. A missing key and an explicit
// nil value both mean the cell is null.
type Row map[string]any

// Dataset is a fully materialized, ordered table. Column order mirrors the
// physical source; row order is load order, which the merge preserves.
type Dataset struct {
	Columns []string
	Rows    []Row
}

func NewDataset(columns ...string) *Dataset {
	return &Dataset{Columns: columns}
}

func (d *Dataset) Append(rows ...Row) {
	d.Rows = append(d.Rows, rows...)
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

func (d *Dataset) HasColumn(name string) bool {
	return d != nil && slices.Contains(d.Columns, name)
}

// Side identifies which input a column or value belongs to. Left is the
// authoritative dataset, right the candidate being checked against it.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)
