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

package compare

import (
	"github.com/parityworks/parity/pkg/types"
)

// RowResult is the structured record behind one assembled output row.
// Columns is keyed by mapping label and only populated for joined rows;
// only-rows have nothing to reconcile.
type RowResult struct {
	Key        string
	KeyParts   []string
	Provenance Provenance
	Overall    Verdict
	Columns    map[string]ColumnResult
}

// Result is everything one run produces for the renderer and the
// aggregator: the template ordered table, the structured records behind it,
// and the data quality diagnostics. Rows and Records are index aligned.
type Result struct {
	Columns     []OutputColumn
	Rows        [][]any
	Records     []RowResult
	Diagnostics types.Diagnostics
}

// Header returns the output column names in order.
func (r *Result) Header() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// Run executes one full reconciliation: spec validation, shape checks, the
// outer join, per column verdicts, overall verdicts, and template ordered
// assembly. Synchronous and pure; both datasets must be fully materialized.
func Run(spec Spec, left, right *Dataset) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := checkShape(spec, left, right); err != nil {
		return nil, err
	}
	columns, err := ResolveColumns(spec)
	if err != nil {
		return nil, err
	}

	merged, diag, err := Merge(spec, left, right)
	if err != nil {
		return nil, err
	}

	asm := newAssembler(spec, columns)
	result := &Result{
		Columns:     columns,
		Rows:        make([][]any, 0, len(merged)),
		Records:     make([]RowResult, 0, len(merged)),
		Diagnostics: diag,
	}

	for _, mr := range merged {
		rec := RowResult{Key: mr.Key, KeyParts: mr.KeyParts, Provenance: mr.Provenance}
		switch mr.Provenance {
		case ProvenanceBoth:
			rec.Columns = make(map[string]ColumnResult, len(spec.Compare))
			mismatch := false
			for _, m := range spec.Compare {
				cr := Reconcile(m, mr.Left[m.Left], mr.Right[m.Right])
				if cr.Left == nil && cr.Right == nil {
					result.Diagnostics.BothAbsentPairs++
				}
				if cr.Verdict != VerdictMatch {
					mismatch = true
				}
				rec.Columns[m.Label] = cr
			}
			if mismatch {
				rec.Overall = VerdictMismatch
			} else {
				rec.Overall = VerdictMatch
			}
		case ProvenanceLeftOnly:
			rec.Overall = VerdictLeftOnly
		case ProvenanceRightOnly:
			rec.Overall = VerdictRightOnly
		}
		result.Records = append(result.Records, rec)
		result.Rows = append(result.Rows, asm.row(mr, rec))
	}
	return result, nil
}

// checkShape verifies every declared column exists in the dataset it was
// declared against, so a typo in a mapping fails the run up front instead
// of comparing phantom nulls.
func checkShape(spec Spec, left, right *Dataset) error {
	if err := checkKeyShape(spec, left, right); err != nil {
		return err
	}
	for _, m := range spec.Compare {
		if !left.HasColumn(m.Left) {
			return &ShapeError{Side: SideLeft, Column: m.Left}
		}
		if !right.HasColumn(m.Right) {
			return &ShapeError{Side: SideRight, Column: m.Right}
		}
	}
	for _, m := range spec.Additional {
		if m.Left != "" && !left.HasColumn(m.Left) {
			return &ShapeError{Side: SideLeft, Column: m.Left}
		}
		if m.Right != "" && !right.HasColumn(m.Right) {
			return &ShapeError{Side: SideRight, Column: m.Right}
		}
	}
	return nil
}

// assembler turns one merged row plus its record into template ordered
// cells. Value cells carry the raw source values for display fidelity;
// normalization only ever decides verdicts.
type assembler struct {
	spec        Spec
	columns     []OutputColumn
	labels      Labels
	compares    map[string]Mapping
	additionals map[string]Mapping
	leftKeyIdx  map[string]int
	leftOnly    string
	rightOnly   string
}

func newAssembler(spec Spec, columns []OutputColumn) *assembler {
	lp, rp := spec.prefixes()
	idx := make(map[string]int, len(spec.LeftKeys))
	for i, name := range spec.LeftKeys {
		idx[name] = i
	}
	return &assembler{
		spec:        spec,
		columns:     columns,
		labels:      spec.Labels.withDefaults(),
		compares:    spec.compareByLabel(),
		additionals: spec.additionalByLabel(),
		leftKeyIdx:  idx,
		leftOnly:    lp + " Only",
		rightOnly:   rp + " Only",
	}
}

func (a *assembler) row(mr MergedRow, rec RowResult) []any {
	cells := make([]any, len(a.columns))
	for i, col := range a.columns {
		switch col.Role {
		case RoleKey:
			cells[i] = a.keyCell(mr, col.Name)
		case RoleRowSource:
			cells[i] = a.rowSource(mr.Provenance)
		case RoleOverall:
			cells[i] = a.overall(rec.Overall)
		case RoleLeftValue:
			if mr.Left != nil {
				cells[i] = mr.Left[a.sideColumn(col.Label, SideLeft)]
			}
		case RoleRightValue:
			if mr.Right != nil {
				cells[i] = mr.Right[a.sideColumn(col.Label, SideRight)]
			}
		case RoleDiff:
			cells[i] = a.diffCell(mr.Provenance, rec, col.Label)
		case RoleVerdict:
			cells[i] = a.verdictCell(mr.Provenance, rec, col.Label)
		case RoleDirection:
			if cr, ok := rec.Columns[col.Label]; ok {
				cells[i] = a.direction(cr.Direction)
			} else {
				cells[i] = ""
			}
		}
	}
	return cells
}

func (a *assembler) keyCell(mr MergedRow, leftName string) any {
	if mr.Left != nil {
		return mr.Left[leftName]
	}
	return mr.Right[a.spec.RightKeys[a.leftKeyIdx[leftName]]]
}

// sideColumn resolves a label to the physical column name on one side,
// checking compared mappings first, then additional ones.
func (a *assembler) sideColumn(label string, side Side) string {
	m, ok := a.compares[label]
	if !ok {
		m = a.additionals[label]
	}
	if side == SideLeft {
		return m.Left
	}
	return m.Right
}

func (a *assembler) rowSource(p Provenance) string {
	switch p {
	case ProvenanceLeftOnly:
		return a.leftOnly
	case ProvenanceRightOnly:
		return a.rightOnly
	default:
		return "Both"
	}
}

func (a *assembler) overall(v Verdict) string {
	switch v {
	case VerdictLeftOnly:
		return a.labels.OverallLeftOnly
	case VerdictRightOnly:
		return a.labels.OverallRightOnly
	case VerdictMismatch:
		return a.labels.OverallMismatch
	default:
		return a.labels.OverallMatch
	}
}

func (a *assembler) diffCell(p Provenance, rec RowResult, label string) any {
	switch p {
	case ProvenanceLeftOnly:
		return a.labels.NALeftOnly
	case ProvenanceRightOnly:
		return a.labels.NARightOnly
	}
	cr := rec.Columns[label]
	if cr.Verdict == VerdictMissing {
		return nil
	}
	return cr.Diff
}

func (a *assembler) verdictCell(p Provenance, rec RowResult, label string) any {
	switch p {
	case ProvenanceLeftOnly, ProvenanceRightOnly:
		return a.labels.Warning
	}
	switch rec.Columns[label].Verdict {
	case VerdictMismatch:
		return a.labels.Mismatch
	case VerdictMissing:
		return a.labels.OneSideMissing
	default:
		return a.labels.Match
	}
}

func (a *assembler) direction(d Direction) string {
	switch d {
	case DirectionHigher:
		return a.labels.Higher
	case DirectionLower:
		return a.labels.Lower
	case DirectionSame:
		return a.labels.Same
	default:
		return ""
	}
}
