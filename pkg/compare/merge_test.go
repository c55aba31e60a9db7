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
	"testing"

	"github.com/stretchr/testify/require"
)

func mergeSpec() Spec {
	return Spec{
		LeftKeys:  []string{"State", "County", "Specialty"},
		RightKeys: []string{"state", "county_code", "specialty"},
		Compare: []Mapping{
			{Label: "Members", Left: "Members", Right: "total_members", Kind: KindNumeric},
		},
	}
}

func leftRow(state, county, specialty string, members any) Row {
	return Row{"State": state, "County": county, "Specialty": specialty, "Members": members}
}

func rightRow(state, county, specialty string, members any) Row {
	return Row{"state": state, "county_code": county, "specialty": specialty, "total_members": members}
}

func newLeftDataset(rows ...Row) *Dataset {
	d := NewDataset("State", "County", "Specialty", "Members")
	d.Append(rows...)
	return d
}

func newRightDataset(rows ...Row) *Dataset {
	d := NewDataset("state", "county_code", "specialty", "total_members")
	d.Append(rows...)
	return d
}

func TestMergeCompleteness(t *testing.T) {
	left := newLeftDataset(
		leftRow("TX", "011", "CARD", 10),
		leftRow("TX", "012", "CARD", 20),
		leftRow("TX", "013", "CARD", 30),
	)
	right := newRightDataset(
		rightRow("TX", "11", "CARD", 10),
		rightRow("TX", "14", "CARD", 40),
	)

	merged, diag, err := Merge(mergeSpec(), left, right)
	require.NoError(t, err)

	// Every key from either side appears exactly once.
	counts := map[Provenance]int{}
	seen := map[string]int{}
	for _, mr := range merged {
		counts[mr.Provenance]++
		seen[mr.Key]++
	}
	require.Len(t, merged, 4)
	require.Equal(t, 1, counts[ProvenanceBoth])
	require.Equal(t, 2, counts[ProvenanceLeftOnly])
	require.Equal(t, 1, counts[ProvenanceRightOnly])
	for key, n := range seen {
		require.Equal(t, 1, n, "key %s appeared %d times", key, n)
	}

	require.Equal(t, 3, diag.LeftRows)
	require.Equal(t, 2, diag.RightRows)
	require.Zero(t, diag.LeftDuplicateKeys)
	require.Zero(t, diag.RightDuplicateKeys)
}

func TestMergeKeyNormalizationJoins(t *testing.T) {
	// "011" on the left and "11" on the right are the same county once the
	// spreadsheet zero padding damage is undone.
	left := newLeftDataset(leftRow("TX", "011", "Cardiology", 15))
	right := newRightDataset(rightRow("TX", "11", "Cardiology", 15))

	merged, _, err := Merge(mergeSpec(), left, right)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	require.Equal(t, ProvenanceBoth, merged[0].Provenance)
	require.Equal(t, "TX||11||Cardiology", merged[0].Key)
	require.Equal(t, []string{"TX", "11", "Cardiology"}, merged[0].KeyParts)
}

func TestMergeOrderIsDeterministic(t *testing.T) {
	// Output order is left rows in original order, then right-only rows in
	// original right order, regardless of how the keys hash.
	left := newLeftDataset(
		leftRow("TX", "3", "A", 1),
		leftRow("TX", "1", "A", 2),
		leftRow("TX", "2", "A", 3),
	)
	right := newRightDataset(
		rightRow("TX", "9", "A", 4),
		rightRow("TX", "1", "A", 2),
		rightRow("TX", "8", "A", 5),
	)

	merged, _, err := Merge(mergeSpec(), left, right)
	require.NoError(t, err)

	var keys []string
	for _, mr := range merged {
		keys = append(keys, mr.Key)
	}
	require.Equal(t, []string{
		"TX||3||A", "TX||1||A", "TX||2||A", // left order
		"TX||9||A", "TX||8||A", // right-only, right order
	}, keys)
}

func TestMergeDuplicateKeysKeepFirst(t *testing.T) {
	left := newLeftDataset(
		leftRow("TX", "011", "CARD", 10),
		leftRow("TX", "11", "CARD", 99), // same key after normalization
		leftRow("TX", "012", "CARD", 20),
	)
	right := newRightDataset(
		rightRow("TX", "11", "CARD", 10),
		rightRow("TX", "11", "CARD", 55),
	)

	merged, diag, err := Merge(mergeSpec(), left, right)
	require.NoError(t, err)

	require.Equal(t, 1, diag.LeftDuplicateKeys)
	require.Equal(t, 1, diag.RightDuplicateKeys)

	// First occurrence wins on both sides.
	require.Len(t, merged, 2)
	require.Equal(t, ProvenanceBoth, merged[0].Provenance)
	require.Equal(t, 10, merged[0].Left["Members"])
	require.Equal(t, 10, merged[0].Right["total_members"])
}

func TestMergeNullKeyPartsNeverJoin(t *testing.T) {
	// A null key part routes the row to its side's only-provenance. Two
	// null keyed rows do not join each other either, not even on the same
	// side, so each one stays a separate row.
	left := newLeftDataset(
		leftRow("TX", "011", "CARD", 10),
		Row{"State": "TX", "County": nil, "Specialty": "CARD", "Members": 20},
		Row{"State": "TX", "County": nil, "Specialty": "CARD", "Members": 30},
	)
	right := newRightDataset(
		rightRow("TX", "11", "CARD", 10),
		Row{"state": "TX", "county_code": nil, "specialty": "CARD", "total_members": 40},
	)

	merged, diag, err := Merge(mergeSpec(), left, right)
	require.NoError(t, err)

	require.Equal(t, 2, diag.LeftNullKeyRows)
	require.Equal(t, 1, diag.RightNullKeyRows)

	counts := map[Provenance]int{}
	for _, mr := range merged {
		counts[mr.Provenance]++
	}
	require.Equal(t, 1, counts[ProvenanceBoth])
	require.Equal(t, 2, counts[ProvenanceLeftOnly])
	require.Equal(t, 1, counts[ProvenanceRightOnly])
}

func TestMergeMissingKeyColumn(t *testing.T) {
	left := NewDataset("State", "County") // no Specialty column
	left.Append(Row{"State": "TX", "County": "011"})
	right := newRightDataset(rightRow("TX", "11", "CARD", 10))

	_, _, err := Merge(mergeSpec(), left, right)
	require.Error(t, err)

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	require.Equal(t, SideLeft, shapeErr.Side)
	require.Equal(t, "Specialty", shapeErr.Column)
}
