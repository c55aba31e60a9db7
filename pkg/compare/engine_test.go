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

func engineSpec() Spec {
	return Spec{
		LeftKeys:    []string{"State", "County"},
		RightKeys:   []string{"state", "county"},
		LeftPrefix:  "QES",
		RightPrefix: "NIQ",
		Compare: []Mapping{
			{Label: "Members", Left: "Members", Right: "total_members", Kind: KindNumeric},
			{Label: "Rate", Left: "Rate", Right: "rate_pct", Kind: KindNumeric, Tolerance: 0.01},
			{Label: "Status", Left: "Status", Right: "status", Kind: KindText,
				Values: &ValueMap{Left: map[string]string{"Y": "Met", "N": "Not Met"}}},
		},
		Additional: []Mapping{
			{Label: "Filing", Right: "filing_type"},
		},
	}
}

func qesRow(county string, members, rate, status any) Row {
	return Row{"State": "TX", "County": county, "Members": members, "Rate": rate, "Status": status}
}

func niqRow(county string, members, rate, status, filing any) Row {
	return Row{"state": "TX", "county": county, "total_members": members,
		"rate_pct": rate, "status": status, "filing_type": filing}
}

func qesDataset(rows ...Row) *Dataset {
	d := NewDataset("State", "County", "Members", "Rate", "Status")
	d.Append(rows...)
	return d
}

func niqDataset(rows ...Row) *Dataset {
	d := NewDataset("state", "county", "total_members", "rate_pct", "status", "filing_type")
	d.Append(rows...)
	return d
}

// rowCells maps one assembled row by header name so assertions can name
// columns instead of counting offsets.
func rowCells(res *Result, i int) map[string]any {
	cells := make(map[string]any, len(res.Columns))
	for j, name := range res.Header() {
		cells[name] = res.Rows[i][j]
	}
	return cells
}

func TestRunHeaderOrder(t *testing.T) {
	res, err := Run(engineSpec(), qesDataset(), niqDataset())
	require.NoError(t, err)
	require.Equal(t, []string{
		"State", "County",
		"Row_Source",
		"QES_Members", "NIQ_Members", "Diff_Members", "Match_Members", "Direction_Members",
		"QES_Rate", "NIQ_Rate", "Diff_Rate", "Match_Rate", "Direction_Rate",
		"QES_Status", "NIQ_Status", "Match_Status",
		"NIQ_Filing",
		"Overall_Match",
	}, res.Header())
	require.Empty(t, res.Rows)
}

func TestRunJoinedMatch(t *testing.T) {
	// Keys join through normalization, every compared column agrees once
	// percent strings and the status vocabulary are normalized.
	left := qesDataset(qesRow("011", 15, "95.5%", "Y"))
	right := niqDataset(niqRow("11", 15, 95.5, "Met", "Initial"))

	res, err := Run(engineSpec(), left, right)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	cells := rowCells(res, 0)
	require.Equal(t, "Both", cells["Row_Source"])
	require.Equal(t, "MATCH", cells["Overall_Match"])

	// Value cells keep the raw source values; normalization only decides
	// verdicts.
	require.Equal(t, "011", cells["County"])
	require.Equal(t, "95.5%", cells["QES_Rate"])
	require.Equal(t, 95.5, cells["NIQ_Rate"])
	require.Equal(t, "Y", cells["QES_Status"])
	require.Equal(t, "Met", cells["NIQ_Status"])
	require.Equal(t, "Initial", cells["NIQ_Filing"])

	require.Equal(t, float64(0), cells["Diff_Members"])
	require.Equal(t, "MATCH", cells["Match_Members"])
	require.Equal(t, "SAME", cells["Direction_Members"])
	require.Equal(t, "MATCH", cells["Match_Rate"])
	require.Equal(t, "MATCH", cells["Match_Status"])

	rec := res.Records[0]
	require.Equal(t, "TX||11", rec.Key)
	require.Equal(t, []string{"TX", "11"}, rec.KeyParts)
	require.Equal(t, ProvenanceBoth, rec.Provenance)
	require.Equal(t, VerdictMatch, rec.Overall)
}

func TestRunMismatchWithDirection(t *testing.T) {
	left := qesDataset(qesRow("1", 100, 90.0, "Y"))
	right := niqDataset(niqRow("1", 102, 90.0, "Met", nil))

	res, err := Run(engineSpec(), left, right)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	cells := rowCells(res, 0)
	require.Equal(t, float64(2), cells["Diff_Members"])
	require.Equal(t, "MISMATCH", cells["Match_Members"])
	require.Equal(t, "HIGHER", cells["Direction_Members"])

	// One mismatched column is enough to fail the row.
	require.Equal(t, "MATCH", cells["Match_Rate"])
	require.Equal(t, "MISMATCH", cells["Overall_Match"])
	require.Equal(t, VerdictMismatch, res.Records[0].Overall)
	require.Equal(t, VerdictMismatch, res.Records[0].Columns["Members"].Verdict)
	require.Equal(t, DirectionHigher, res.Records[0].Columns["Members"].Direction)
}

func TestRunLeftOnlyRow(t *testing.T) {
	left := qesDataset(qesRow("5", 10, 80.0, "Y"))
	right := niqDataset()

	res, err := Run(engineSpec(), left, right)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	cells := rowCells(res, 0)
	require.Equal(t, "QES Only", cells["Row_Source"])
	require.Equal(t, "Left Only", cells["Overall_Match"])
	require.Equal(t, 10, cells["QES_Members"])
	require.Nil(t, cells["NIQ_Members"])
	require.Nil(t, cells["NIQ_Filing"])
	require.Equal(t, "N/A - Left Only", cells["Diff_Members"])
	require.Equal(t, "WARNING", cells["Match_Members"])
	require.Equal(t, "", cells["Direction_Members"])
	require.Equal(t, VerdictLeftOnly, res.Records[0].Overall)
}

func TestRunRightOnlyRow(t *testing.T) {
	left := qesDataset()
	right := niqDataset(niqRow("08", 40, 70.0, "Met", "Renewal"))

	res, err := Run(engineSpec(), left, right)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	cells := rowCells(res, 0)
	require.Equal(t, "NIQ Only", cells["Row_Source"])
	require.Equal(t, "Right Only", cells["Overall_Match"])

	// Key cells live under the left key names but carry the raw right
	// values, zero padding and all.
	require.Equal(t, "TX", cells["State"])
	require.Equal(t, "08", cells["County"])

	require.Nil(t, cells["QES_Members"])
	require.Equal(t, 40, cells["NIQ_Members"])
	require.Equal(t, "Renewal", cells["NIQ_Filing"])
	require.Equal(t, "N/A - Right Only", cells["Diff_Members"])
	require.Equal(t, "WARNING", cells["Match_Status"])
	require.Equal(t, "TX||8", res.Records[0].Key)
}

func TestRunOneSideMissingValue(t *testing.T) {
	// A null against a value is its own verdict, not a mismatch with a
	// made-up magnitude. The diff cell stays empty.
	left := qesDataset(qesRow("1", nil, 90.0, "Y"))
	right := niqDataset(niqRow("1", 10, 90.0, "Met", nil))

	res, err := Run(engineSpec(), left, right)
	require.NoError(t, err)

	cells := rowCells(res, 0)
	require.Equal(t, "NULL vs value", cells["Match_Members"])
	require.Nil(t, cells["Diff_Members"])
	require.Equal(t, "", cells["Direction_Members"])
	require.Equal(t, "MISMATCH", cells["Overall_Match"])
	require.Equal(t, VerdictMissing, res.Records[0].Columns["Members"].Verdict)
}

func TestRunBothNullPair(t *testing.T) {
	left := qesDataset(qesRow("1", nil, 90.0, "Y"))
	right := niqDataset(niqRow("1", nil, 90.0, "Met", nil))

	res, err := Run(engineSpec(), left, right)
	require.NoError(t, err)

	// Both sides silent counts as agreement for the verdict, but the pair
	// is surfaced in diagnostics so a column of all nulls is still visible.
	cells := rowCells(res, 0)
	require.Equal(t, "MATCH", cells["Match_Members"])
	require.Equal(t, float64(0), cells["Diff_Members"])
	require.Equal(t, "MATCH", cells["Overall_Match"])
	require.Equal(t, 1, res.Diagnostics.BothAbsentPairs)
}

func TestRunCustomLabels(t *testing.T) {
	spec := engineSpec()
	spec.Labels = Labels{
		OverallLeftOnly:  "QES ONLY",
		OverallRightOnly: "NIQ ONLY",
		NARightOnly:      "N/A - NIQ Only",
	}

	left := qesDataset()
	right := niqDataset(niqRow("2", 5, 50.0, "Met", nil))

	res, err := Run(spec, left, right)
	require.NoError(t, err)

	cells := rowCells(res, 0)
	require.Equal(t, "NIQ ONLY", cells["Overall_Match"])
	require.Equal(t, "N/A - NIQ Only", cells["Diff_Members"])
	// Unset labels keep their defaults.
	require.Equal(t, "WARNING", cells["Match_Members"])
}

func TestRunShapeErrorOnMissingCompareColumn(t *testing.T) {
	right := &Dataset{Columns: []string{"state", "county", "rate_pct", "status", "filing_type"}}

	_, err := Run(engineSpec(), qesDataset(), right)
	require.Error(t, err)

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	require.Equal(t, SideRight, shapeErr.Side)
	require.Equal(t, "total_members", shapeErr.Column)
}

func TestRunRejectsInvalidSpec(t *testing.T) {
	spec := engineSpec()
	spec.Compare = nil

	_, err := Run(spec, qesDataset(), niqDataset())
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRunDeterministic(t *testing.T) {
	left := qesDataset(
		qesRow("3", 10, 90.0, "Y"),
		qesRow("1", 20, 91.0, "N"),
		qesRow("2", 30, 92.0, "Y"),
	)
	right := niqDataset(
		niqRow("9", 40, 93.0, "Met", "Initial"),
		niqRow("1", 20, 91.0, "Met", "Renewal"),
	)

	first, err := Run(engineSpec(), left, right)
	require.NoError(t, err)
	second, err := Run(engineSpec(), left, right)
	require.NoError(t, err)

	require.Equal(t, first.Header(), second.Header())
	require.Equal(t, first.Rows, second.Rows)
	require.Equal(t, first.Records, second.Records)
	require.Len(t, first.Rows, len(first.Records))
}
