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

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/parityworks/parity/pkg/compare"
	"github.com/parityworks/parity/pkg/config"
	"github.com/parityworks/parity/pkg/logger"
	"github.com/parityworks/parity/pkg/types"
)

var reportStamp = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

// testInput builds a four row run: one clean match, one count drift, one
// row per side that the other side is missing.
func testInput(t *testing.T) Input {
	t.Helper()

	spec := compare.Spec{
		LeftKeys:    []string{"State", "CountySSA", "Specialty_Code"},
		RightKeys:   []string{"state_code", "county_ssa", "specialty_code"},
		LeftPrefix:  "QES",
		RightPrefix: "NIQ",
		Compare: []compare.Mapping{
			{Label: "Provider Count", Left: "Provider_Count", Right: "provider_cnt", Kind: compare.KindNumeric},
			{Label: "Meets Standard", Left: "Meets_Standard", Right: "meets_standard_flag", Kind: compare.KindText},
		},
	}

	leftSummary := compare.NewDataset("State", "CountySSA", "Specialty_Code", "Provider_Count", "Meets_Standard")
	leftSummary.Append(
		compare.Row{"State": "TX", "CountySSA": "00200", "Specialty_Code": "CARD", "Provider_Count": "12", "Meets_Standard": "Yes"},
		compare.Row{"State": "TX", "CountySSA": "00113", "Specialty_Code": "CARD", "Provider_Count": "8", "Meets_Standard": "Yes"},
		compare.Row{"State": "TX", "CountySSA": "00439", "Specialty_Code": "DERM", "Provider_Count": "5", "Meets_Standard": "No"},
	)
	rightSummary := compare.NewDataset("state_code", "county_ssa", "specialty_code", "provider_cnt", "meets_standard_flag")
	rightSummary.Append(
		compare.Row{"state_code": "TX", "county_ssa": "200", "specialty_code": "CARD", "provider_cnt": 12, "meets_standard_flag": "Yes"},
		compare.Row{"state_code": "TX", "county_ssa": "113", "specialty_code": "CARD", "provider_cnt": 6, "meets_standard_flag": "Yes"},
		compare.Row{"state_code": "TX", "county_ssa": "29", "specialty_code": "PCP", "provider_cnt": 9, "meets_standard_flag": "Yes"},
	)

	leftDetail := compare.NewDataset("State", "CountySSA", "Specialty_Code", "Provider_NPI")
	leftDetail.Append(
		compare.Row{"State": "TX", "CountySSA": "00200", "Specialty_Code": "CARD", "Provider_NPI": "1111111111"},
		compare.Row{"State": "TX", "CountySSA": "00200", "Specialty_Code": "CARD", "Provider_NPI": "2222222222"},
		compare.Row{"State": "TX", "CountySSA": "00113", "Specialty_Code": "CARD", "Provider_NPI": "3333333333"},
	)
	rightDetail := compare.NewDataset("state_code", "county_ssa", "specialty_code", "provider_npi")
	rightDetail.Append(
		compare.Row{"state_code": "TX", "county_ssa": "200", "specialty_code": "CARD", "provider_npi": "1111111111"},
	)

	res, err := compare.Run(spec, leftSummary, rightSummary)
	require.NoError(t, err)
	sum, err := compare.Summarize(spec, res, compare.SummaryOptions{
		RegionColumn:   "CountySSA",
		CategoryColumn: "Specialty_Code",
	})
	require.NoError(t, err)
	sum.State = "TX"
	sum.LeftDetailIDs = 3
	sum.RightDetailIDs = 1

	return Input{
		Spec:    spec,
		Result:  res,
		Summary: sum,
		State:   "TX",

		OutputDir: t.TempDir(),
		Prefix:    "parity",
		Drilldown: config.DrilldownConfig{
			LinkColumn:      "CountySSA",
			LeftDetailKeys:  []string{"State", "CountySSA", "Specialty_Code"},
			RightDetailKeys: []string{"state_code", "county_ssa", "specialty_code"},
			MaxSheets:       10,
		},
		SummaryCfg: config.SummaryConfig{
			RegionColumn:   "CountySSA",
			CategoryColumn: "Specialty_Code",
			DetailIDColumn: config.SideColumn{Left: "Provider_NPI", Right: "provider_npi"},
		},

		LeftSummary:  leftSummary,
		LeftDetail:   leftDetail,
		RightSummary: rightSummary,
		RightDetail:  rightDetail,

		Timestamp: reportStamp,
	}
}

func TestWriteJSONReport(t *testing.T) {
	in := testInput(t)

	path, err := WriteJSON(in)
	require.NoError(t, err)
	require.Equal(t, "parity_TX_recon-20260315103000.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out types.ReconOutput
	require.NoError(t, json.Unmarshal(data, &out))

	require.Equal(t, 4, out.Summary.TotalRows)
	require.Equal(t, 2, out.Summary.BothRows)
	require.Equal(t, 1, out.Summary.MismatchedRows)
	require.InDelta(t, 50.0, out.Summary.MatchRate, 0.01)
	require.Equal(t, 4, out.Summary.UniqueRegions)
	require.Equal(t, "Provider Count", out.Summary.Columns[0].Label)
	require.Equal(t, 1, out.Summary.Columns[0].Mismatched)

	require.Len(t, out.Rows, 4)
	byKey := make(map[string]types.RowRecord, len(out.Rows))
	for _, r := range out.Rows {
		byKey[r.Key] = r
	}

	drifted := byKey["TX||113||CARD"]
	require.Equal(t, "BOTH", drifted.RowSource)
	require.Equal(t, "MISMATCH", drifted.Overall)
	count := drifted.Columns["Provider Count"]
	require.Equal(t, "MISMATCH", count.Verdict)
	require.Equal(t, "LOWER", count.Direction)
	require.Equal(t, -2.0, count.Diff)

	leftOnly := byKey["TX||439||DERM"]
	require.Equal(t, "LEFT_ONLY", leftOnly.RowSource)
	require.Empty(t, leftOnly.Columns)
}

func TestWriteWorkbookReport(t *testing.T) {
	in := testInput(t)

	path, err := WriteWorkbook(in)
	require.NoError(t, err)
	require.Equal(t, "parity_TX_recon-20260315103000.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{
		"Summary", "Comparison_Results",
		"QES_200_CARD", "NIQ_200_CARD", "QES_113_CARD",
		"QES_Summary", "QES_Detail", "NIQ_Summary", "NIQ_Detail",
	}, f.GetSheetList())

	rows, err := f.GetRows(sheetComparison)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	require.Equal(t, []string{
		"State", "CountySSA", "Specialty_Code", "Row_Source",
		"QES_Provider Count", "NIQ_Provider Count", "Diff_Provider Count",
		"Match_Provider Count", "Direction_Provider Count",
		"QES_Meets Standard", "NIQ_Meets Standard", "Match_Meets Standard",
		"Overall_Match",
	}, rows[0])

	rowSource, err := f.GetCellValue(sheetComparison, "D4")
	require.NoError(t, err)
	require.Equal(t, "QES Only", rowSource)
	overall, err := f.GetCellValue(sheetComparison, "M5")
	require.NoError(t, err)
	require.Equal(t, "Right Only", overall)

	// Key cells link to their drill-down sheet, and only when one exists.
	ok, target, err := f.GetCellHyperLink(sheetComparison, "B2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "'QES_200_CARD'!A1", target)
	ok, _, err = f.GetCellHyperLink(sheetComparison, "B4")
	require.NoError(t, err)
	require.False(t, ok)

	title, err := f.GetCellValue(sheetSummary, "B2")
	require.NoError(t, err)
	require.Equal(t, "Parity Reconciliation Report", title)
	state, err := f.GetCellValue(sheetSummary, "B3")
	require.NoError(t, err)
	require.Equal(t, "State: TX", state)

	dTitle, err := f.GetCellValue("QES_200_CARD", "A1")
	require.NoError(t, err)
	require.Equal(t, "QES Detail: TX / 200 / CARD", dTitle)
	dTotal, err := f.GetCellValue("QES_200_CARD", "A3")
	require.NoError(t, err)
	require.Equal(t, "Total Rows: 2", dTotal)
	ok, target, err = f.GetCellHyperLink("QES_200_CARD", "A2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Comparison_Results!A1", target)
	ok, target, err = f.GetCellHyperLink("QES_200_CARD", "D2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "'NIQ_200_CARD'!A1", target)
}

func TestWriteBothFormatsShareTimestamp(t *testing.T) {
	in := testInput(t)

	paths, err := Write(in, []string{"json", "xlsx"})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		require.FileExists(t, p)
	}
	require.Equal(t,
		strings.TrimSuffix(filepath.Base(paths[0]), ".json"),
		strings.TrimSuffix(filepath.Base(paths[1]), ".xlsx"))
}

func TestWriteUnknownFormat(t *testing.T) {
	in := testInput(t)

	_, err := Write(in, []string{"pdf"})
	require.ErrorContains(t, err, `unknown report format "pdf"`)
}

func TestSafeSheetName(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		existing []string
		want     string
	}{
		{"plain", "QES_200_CARD", nil, "QES_200_CARD"},
		{"slash replaced", "QES_Harris/CARD", nil, "QES_Harris_CARD"},
		{"brackets replaced", "QES[200]", nil, "QES_200_"},
		{"truncated", strings.Repeat("A", 40), nil, strings.Repeat("A", 31)},
		{"deduped", "QES_200", []string{"QES_200"}, "QES_200_1"},
		{"deduped twice", "QES_200", []string{"QES_200", "QES_200_1"}, "QES_200_2"},
		{"deduped at limit", strings.Repeat("B", 31), []string{strings.Repeat("B", 31)}, strings.Repeat("B", 29) + "_1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, safeSheetName(tc.in, tc.existing))
		})
	}
}

func TestFilterDetail(t *testing.T) {
	ds := compare.NewDataset("State", "CountySSA", "Code")
	ds.Append(
		compare.Row{"State": "TX", "CountySSA": "00200", "Code": "CARD"},
		compare.Row{"State": "TX", "CountySSA": "00200", "Code": "DERM"},
		compare.Row{"State": "TX", "CountySSA": "113", "Code": "CARD"},
	)
	keys := []string{"State", "CountySSA", "Code"}

	rows := filterDetail(ds, keys, []string{"TX", "200", "CARD"})
	require.Len(t, rows, 1)
	require.Equal(t, "CARD", rows[0]["Code"])

	require.Nil(t, filterDetail(nil, keys, []string{"TX", "200", "CARD"}))
	require.Nil(t, filterDetail(ds, keys[:2], []string{"TX", "200", "CARD"}))
	require.Nil(t, filterDetail(ds, keys, []string{"TX", "999", "CARD"}))
}

func TestPrintSummaryVerdict(t *testing.T) {
	capture := func(t *testing.T, in Input) string {
		t.Helper()
		f, err := os.CreateTemp(t.TempDir(), "log")
		require.NoError(t, err)
		logger.SetOutput(f)
		defer logger.SetOutput(os.Stderr)
		PrintSummary(in)
		require.NoError(t, f.Close())
		data, err := os.ReadFile(f.Name())
		require.NoError(t, err)
		return string(data)
	}

	in := testInput(t)
	out := capture(t, in)
	require.Contains(t, out, "DATASETS DO NOT MATCH")
	require.Contains(t, out, "rows with differences")
	require.Contains(t, out, "Match rate: 50.0%")

	clean := Input{
		Spec:    in.Spec,
		Summary: &types.Summary{TotalRows: 2, BothRows: 2, MatchedRows: 2, MatchRate: 100},
	}
	out = capture(t, clean)
	require.Contains(t, out, "DATASETS MATCH")
}
