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

import "fmt"

// Verdict classifies one compared value pair, or a whole merged row.
type Verdict string

const (
	VerdictMatch    Verdict = "MATCH"
	VerdictMismatch Verdict = "MISMATCH"

	// VerdictMissing marks a pair where exactly one side is null. It is
	// kept distinct from a plain mismatch so aggregation can separate
	// structural absence from value disagreement.
	VerdictMissing Verdict = "ONE_SIDE_MISSING"

	// Overall verdicts for rows that never joined.
	VerdictLeftOnly  Verdict = "LEFT_ONLY"
	VerdictRightOnly Verdict = "RIGHT_ONLY"
)

// Direction records which side of a numeric pair is larger once the
// difference exceeds tolerance. Within tolerance the direction is SAME;
// pairs with a missing side have no direction.
type Direction string

const (
	DirectionNone   Direction = ""
	DirectionHigher Direction = "HIGHER"
	DirectionLower  Direction = "LOWER"
	DirectionSame   Direction = "SAME"
)

// ColumnResult is the verdict for one mapping on one merged row. Left and
// Right hold the normalized, map-translated values the verdict was computed
// from; Diff holds the numeric difference for numeric pairs and a text
// rendering otherwise.
type ColumnResult struct {
	Label     string
	Left      any
	Right     any
	Diff      any
	Verdict   Verdict
	Direction Direction
}

// Reconcile compares one value pair under one mapping. Pure function; the
// engine calls it once per compared mapping per joined row.
func Reconcile(m Mapping, left, right any) ColumnResult {
	res := ColumnResult{Label: m.Label}
	l := m.translate(SideLeft, NormalizeValue(left))
	r := m.translate(SideRight, NormalizeValue(right))
	res.Left, res.Right = l, r

	switch {
	case l == nil && r == nil:
		// Nothing to disagree on. Double absence counts as a match so
		// optional fields do not flood the results; the engine counts these
		// pairs separately to keep the volume visible.
		res.Verdict = VerdictMatch
		res.Diff = float64(0)
		return res
	case l == nil || r == nil:
		res.Verdict = VerdictMissing
		return res
	}

	if m.numeric() {
		lf, lok := l.(float64)
		rf, rok := r.(float64)
		if lok && rok {
			diff := round6(rf - lf)
			res.Diff = diff
			switch {
			case diff > m.Tolerance:
				res.Verdict = VerdictMismatch
				res.Direction = DirectionHigher
			case -diff > m.Tolerance:
				res.Verdict = VerdictMismatch
				res.Direction = DirectionLower
			default:
				res.Verdict = VerdictMatch
				res.Direction = DirectionSame
			}
			return res
		}
		// At least one side refused to normalize to a number. Fall back to
		// exact text equality so the pair still gets a verdict.
		res.Diff = fmt.Sprintf("%s vs %s", FormatValue(l), FormatValue(r))
		if FormatValue(l) == FormatValue(r) {
			res.Verdict = VerdictMatch
		} else {
			res.Verdict = VerdictMismatch
		}
		return res
	}

	if l == r {
		res.Verdict = VerdictMatch
		return res
	}
	res.Verdict = VerdictMismatch
	res.Diff = fmt.Sprintf("%s -> %s", FormatValue(l), FormatValue(r))
	return res
}
