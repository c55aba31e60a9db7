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
	"strings"

	"github.com/parityworks/parity/pkg/types"
)

// Provenance classifies where a merged row was found.
type Provenance string

const (
	ProvenanceBoth      Provenance = "BOTH"
	ProvenanceLeftOnly  Provenance = "LEFT_ONLY"
	ProvenanceRightOnly Provenance = "RIGHT_ONLY"
)

// KeySeparator joins normalized key parts into the composite join key.
const KeySeparator = "||"

// MergedRow pairs up the two sides of one composite key. The side a
// provenance says is absent is nil.
type MergedRow struct {
	Key        string
	KeyParts   []string
	Provenance Provenance
	Left       Row
	Right      Row
}

// KeyOf normalizes a row's key columns into its composite key. ok is false
// when any part is null; such a row can never join and stays on its own
// side.
func KeyOf(row Row, cols []string) (parts []string, key string, ok bool) {
	parts = make([]string, len(cols))
	ok = true
	for i, col := range cols {
		p, valid := NormalizeKeyPart(row[col])
		if !valid {
			ok = false
			continue
		}
		parts[i] = p
	}
	return parts, strings.Join(parts, KeySeparator), ok
}

type mergeEntry struct {
	key     string
	parts   []string
	row     Row
	nullKey bool
}

// Merge outer joins the two datasets on their normalized composite keys.
// The first occurrence of a key wins on each side; later duplicates only
// bump a diagnostic counter. Rows with a null key part never join and are
// emitted as only-rows for their side, one output row per input row. Output
// order is left rows in their original order followed by right-only rows in
// theirs, so repeated runs over the same inputs produce the same table.
func Merge(spec Spec, left, right *Dataset) ([]MergedRow, types.Diagnostics, error) {
	diag := types.Diagnostics{LeftRows: left.Len(), RightRows: right.Len()}

	if err := checkKeyShape(spec, left, right); err != nil {
		return nil, diag, err
	}

	leftEntries, leftIndex := indexSide(left, spec.LeftKeys, &diag.LeftDuplicateKeys, &diag.LeftNullKeyRows)
	rightEntries, rightIndex := indexSide(right, spec.RightKeys, &diag.RightDuplicateKeys, &diag.RightNullKeyRows)

	merged := make([]MergedRow, 0, len(leftEntries)+len(rightEntries))
	for _, e := range leftEntries {
		mr := MergedRow{Key: e.key, KeyParts: e.parts, Left: e.row}
		if !e.nullKey {
			if rrow, ok := rightIndex[e.key]; ok {
				mr.Provenance = ProvenanceBoth
				mr.Right = rrow
				merged = append(merged, mr)
				continue
			}
		}
		mr.Provenance = ProvenanceLeftOnly
		merged = append(merged, mr)
	}
	for _, e := range rightEntries {
		if !e.nullKey {
			if _, ok := leftIndex[e.key]; ok {
				continue
			}
		}
		merged = append(merged, MergedRow{
			Key:        e.key,
			KeyParts:   e.parts,
			Provenance: ProvenanceRightOnly,
			Right:      e.row,
		})
	}
	return merged, diag, nil
}

// indexSide walks one dataset in order, keeping the first row per key and
// counting duplicates and null key rows. Null key rows are returned as
// entries of their own so each one surfaces as a separate only-row.
func indexSide(d *Dataset, keyCols []string, dupCount, nullCount *int) ([]mergeEntry, map[string]Row) {
	entries := make([]mergeEntry, 0, d.Len())
	index := make(map[string]Row, d.Len())
	for _, row := range d.Rows {
		parts, key, ok := KeyOf(row, keyCols)
		if !ok {
			*nullCount++
			entries = append(entries, mergeEntry{key: key, parts: parts, row: row, nullKey: true})
			continue
		}
		if _, dup := index[key]; dup {
			*dupCount++
			continue
		}
		index[key] = row
		entries = append(entries, mergeEntry{key: key, parts: parts, row: row})
	}
	return entries, index
}

func checkKeyShape(spec Spec, left, right *Dataset) error {
	for _, col := range spec.LeftKeys {
		if !left.HasColumn(col) {
			return &ShapeError{Side: SideLeft, Column: col}
		}
	}
	for _, col := range spec.RightKeys {
		if !right.HasColumn(col) {
			return &ShapeError{Side: SideRight, Column: col}
		}
	}
	return nil
}
