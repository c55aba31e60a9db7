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
	"fmt"
	"os"
	"strings"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"github.com/xuri/excelize/v2"

	"github.com/parityworks/parity/pkg/compare"
	"github.com/parityworks/parity/pkg/logger"
)

const (
	sheetSummary    = "Summary"
	sheetComparison = "Comparison_Results"

	sheetNameLimit = 31
	// Sheets past this row count skip column width fitting.
	widthFitLimit = 50000
	// Runs past this row count show a progress bar while drill-down
	// sheets are scanned out.
	drilldownBarLimit = 1000
)

const (
	colorHeader        = "1F4E79"
	colorMatch         = "C6EFCE"
	colorMismatch      = "FFC7CE"
	colorLeftOnly      = "FCE4D6"
	colorRightOnly     = "D6E4FC"
	colorHyperlink     = "0563C1"
	colorBorder        = "D9D9D9"
	colorSectionHeader = "D6DCE4"
)

// WriteWorkbook renders the full workbook report and returns its path. The
// sheet set follows the review workflow: Summary first, the full comparison
// behind it, per-key drill-down sheets, then the raw inputs.
func WriteWorkbook(in Input) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyles(f)
	if err != nil {
		return "", err
	}

	lp, rp := in.prefixes()
	b := &workbook{
		f:       f,
		styles:  styles,
		in:      in,
		lp:      lp,
		rp:      rp,
		names:   []string{sheetSummary, sheetComparison},
		leftDD:  map[string]string{},
		rightDD: map[string]string{},
	}

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(sheetComparison); err != nil {
		return "", err
	}

	// Drill-downs first so the comparison sheet can link to them.
	if err := b.buildDrilldowns(); err != nil {
		return "", err
	}
	if err := b.writeComparison(); err != nil {
		return "", err
	}
	if err := b.writeSummarySheet(); err != nil {
		return "", err
	}
	if err := b.writeRawSheets(); err != nil {
		return "", err
	}

	idx, err := f.GetSheetIndex(sheetSummary)
	if err != nil {
		return "", err
	}
	f.SetActiveSheet(idx)

	if err := os.MkdirAll(in.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := in.path("xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	logger.Info("Workbook report written to %s (%d sheets)", path, len(f.GetSheetList()))
	return path, nil
}

type workbook struct {
	f      *excelize.File
	styles *styleSet
	in     Input
	lp, rp string

	names   []string
	leftDD  map[string]string // result key -> drill-down sheet
	rightDD map[string]string
}

// addSheet creates a sheet under a collision free, length safe name.
func (b *workbook) addSheet(name string) (string, error) {
	safe := safeSheetName(name, b.names)
	if _, err := b.f.NewSheet(safe); err != nil {
		return "", err
	}
	b.names = append(b.names, safe)
	return safe, nil
}

func (b *workbook) buildDrilldowns() error {
	dd := b.in.Drilldown
	if dd.LinkColumn == "" || b.in.Result == nil {
		return nil
	}
	max := dd.MaxSheets
	if max <= 0 {
		max = 200
	}

	var progress *mpb.Progress
	var bar *mpb.Bar
	if len(b.in.Result.Records) >= drilldownBarLimit {
		progress = mpb.New(mpb.WithOutput(os.Stderr))
		bar = progress.AddBar(int64(len(b.in.Result.Records)),
			mpb.BarRemoveOnComplete(),
			mpb.PrependDecorators(
				decor.Name("Building drill-down sheets:"),
				decor.CountersNoUnit(" %d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}

	for i := range b.in.Result.Records {
		if bar != nil {
			bar.Increment()
		}
		if len(b.leftDD)+len(b.rightDD) >= max {
			logger.Warn("Drill-down sheet cap of %d reached; remaining rows are not linked", max)
			break
		}
		rec := &b.in.Result.Records[i]
		display := displayKey(rec.KeyParts)

		leftRows := filterDetail(b.in.LeftDetail, dd.LeftDetailKeys, rec.KeyParts)
		rightRows := filterDetail(b.in.RightDetail, dd.RightDetailKeys, rec.KeyParts)

		var leftName, rightName string
		var err error
		if len(leftRows) > 0 {
			if leftName, err = b.addSheet(b.lp + "_" + display); err != nil {
				return err
			}
			b.leftDD[rec.Key] = leftName
		}
		if len(rightRows) > 0 {
			if rightName, err = b.addSheet(b.rp + "_" + display); err != nil {
				return err
			}
			b.rightDD[rec.Key] = rightName
		}

		if leftName != "" {
			if err := b.writeDrilldown(leftName, b.lp, b.rp, rec, leftRows, b.in.LeftDetail.Columns, rightName); err != nil {
				return err
			}
		}
		if rightName != "" {
			if err := b.writeDrilldown(rightName, b.rp, b.lp, rec, rightRows, b.in.RightDetail.Columns, leftName); err != nil {
				return err
			}
		}
	}

	if progress != nil {
		bar.SetTotal(-1, true)
		progress.Wait()
	}
	if built := len(b.leftDD) + len(b.rightDD); built > 0 {
		logger.Debug("Built %d drill-down sheets", built)
	}
	return nil
}

func (b *workbook) writeDrilldown(sheet, sideLabel, otherLabel string, rec *compare.RowResult, rows []compare.Row, columns []string, otherSheet string) error {
	w := newSheetWriter(b.f, sheet)

	w.set(1, 1, fmt.Sprintf("%s Detail: %s", sideLabel, strings.Join(rec.KeyParts, " / ")), b.styles.title)
	if len(columns) > 1 {
		w.merge(1, 1, min(len(columns), 9), 1)
	}

	w.set(1, 2, "<< Back to Comparison Results", b.styles.hyperlink)
	w.link(1, 2, sheetComparison+"!A1")
	if otherSheet != "" {
		w.set(4, 2, fmt.Sprintf(">> See %s rows", otherLabel), b.styles.hyperlink)
		w.link(4, 2, "'"+otherSheet+"'!A1")
	}
	w.set(1, 3, fmt.Sprintf("Total Rows: %d", len(rows)), b.styles.bold)

	const headerRow = 5
	for c, name := range columns {
		w.set(c+1, headerRow, name, b.styles.header)
	}
	for r, row := range rows {
		for c, name := range columns {
			w.set(c+1, headerRow+1+r, row[name], b.styles.data)
		}
	}
	w.freeze(headerRow)
	w.fitWidths()
	return w.err
}

func (b *workbook) writeComparison() error {
	res := b.in.Result
	w := newSheetWriter(b.f, sheetComparison)

	header := res.Header()
	for c, name := range header {
		w.set(c+1, 1, name, b.styles.header)
	}

	linkCol := b.in.Drilldown.LinkColumn
	for i, vals := range res.Rows {
		rec := &res.Records[i]
		r := i + 2
		for c, col := range res.Columns {
			if col.Role == compare.RoleKey && col.Name == linkCol {
				if target, ok := b.leftDD[rec.Key]; ok {
					w.set(c+1, r, vals[c], b.styles.hyperlink)
					w.link(c+1, r, "'"+target+"'!A1")
					continue
				}
			}
			w.set(c+1, r, vals[c], b.resultCellStyle(col, rec))
		}
	}

	w.freeze(1)
	if len(header) > 0 {
		last := cellName(len(header), len(res.Rows)+1)
		if err := b.f.AutoFilter(sheetComparison, "A1:"+last, nil); err != nil {
			return err
		}
	}
	w.fitWidths()
	return w.err
}

// resultCellStyle picks the fill from the structured verdicts rather than
// the rendered labels, so custom label vocabularies keep their colors.
func (b *workbook) resultCellStyle(col compare.OutputColumn, rec *compare.RowResult) int {
	s := b.styles
	switch col.Role {
	case compare.RoleVerdict:
		switch rec.Provenance {
		case compare.ProvenanceLeftOnly:
			return s.leftOnly
		case compare.ProvenanceRightOnly:
			return s.rightOnly
		}
		switch rec.Columns[col.Label].Verdict {
		case compare.VerdictMatch:
			return s.match
		case compare.VerdictMismatch:
			return s.mismatch
		case compare.VerdictMissing:
			// One side null: flagged in the warning tone, not as a hard
			// mismatch.
			return s.leftOnly
		}
	case compare.RoleOverall:
		switch rec.Overall {
		case compare.VerdictMatch:
			return s.match
		case compare.VerdictMismatch:
			return s.mismatch
		case compare.VerdictLeftOnly:
			return s.leftOnly
		case compare.VerdictRightOnly:
			return s.rightOnly
		}
	case compare.RoleDiff:
		if rec.Provenance == compare.ProvenanceBoth && rec.Columns[col.Label].Verdict == compare.VerdictMismatch {
			return s.mismatch
		}
	case compare.RoleDirection:
		switch rec.Columns[col.Label].Direction {
		case compare.DirectionHigher, compare.DirectionLower:
			return s.mismatch
		case compare.DirectionSame:
			return s.match
		}
	}
	return s.data
}

func (b *workbook) writeSummarySheet() error {
	sum := b.in.Summary
	w := newSheetWriter(b.f, sheetSummary)
	s := b.styles

	for col, width := range map[string]float64{"A": 3, "B": 45, "C": 20, "D": 20, "E": 20, "F": 20, "G": 20} {
		if err := b.f.SetColWidth(sheetSummary, col, col, width); err != nil {
			return err
		}
	}

	r := 2
	w.set(2, r, "Parity Reconciliation Report", s.title)
	r++
	w.set(2, r, "State: "+b.in.State, s.subtitle)
	r++
	if sum.LeftSource != "" {
		w.set(2, r, fmt.Sprintf("%s Source: %s", b.lp, sum.LeftSource), s.metric)
		r++
	}
	if sum.RightSource != "" {
		w.set(2, r, fmt.Sprintf("%s Source: %s", b.rp, sum.RightSource), s.metric)
		r++
	}
	r++

	w.set(2, r, "Overall Metrics", s.subtitle)
	r++
	matchRate := "N/A"
	if sum.BothRows > 0 {
		matchRate = fmt.Sprintf("%.1f%%", sum.MatchRate)
	}
	metrics := []struct {
		label string
		value any
		style int
	}{
		{"Total Key Combinations", sum.TotalRows, s.bold},
		{"Present in Both", sum.BothRows, s.bold},
		{"Fully Matching", sum.MatchedRows, s.bold},
		{"With Differences", sum.MismatchedRows, s.bold},
		{fmt.Sprintf("In %s Only", b.lp), sum.LeftOnlyRows, s.bold},
		{fmt.Sprintf("In %s Only", b.rp), sum.RightOnlyRows, s.bold},
		{"Match Rate", matchRate, s.bigNumber},
	}
	for _, m := range metrics {
		w.set(2, r, m.label, s.metric)
		w.set(3, r, m.value, m.style)
		r++
	}
	r++

	if sum.RegionColumn != "" {
		w.set(2, r, "i) Distinct Regions", s.subtitle)
		r++
		w.set(2, r, fmt.Sprintf("Unique %s Values", sum.RegionColumn), s.metric)
		w.set(3, r, sum.UniqueRegions, s.bigNumber)
		r += 2
	}

	idCfg := b.in.SummaryCfg.DetailIDColumn
	if idCfg.Left != "" || idCfg.Right != "" {
		w.set(2, r, "ii) Distinct Detail Identifiers", s.subtitle)
		r++
		for c, h := range []string{"Source", "State", "Distinct Count"} {
			w.set(2+c, r, h, s.sectionHeader)
		}
		r++
		if idCfg.Left != "" {
			w.set(2, r, b.lp, s.metric)
			w.set(3, r, b.in.State, s.metric)
			w.set(4, r, sum.LeftDetailIDs, s.bold)
			r++
		}
		if idCfg.Right != "" {
			w.set(2, r, b.rp, s.metric)
			w.set(3, r, b.in.State, s.metric)
			w.set(4, r, sum.RightDetailIDs, s.bold)
			r++
		}
		r++
	}

	if len(sum.Categories) > 0 {
		label := sum.Categories[0].Label
		category := b.in.SummaryCfg.CategoryColumn
		w.set(2, r, fmt.Sprintf("iii) %s by %s", label, category), s.subtitle)
		r++
		headers := []string{category, "Matching", b.lp + " > " + b.rp, b.rp + " > " + b.lp}
		for c, h := range headers {
			w.set(2+c, r, h, s.header)
		}
		r++
		for _, cs := range sum.Categories {
			if cs.Label != label {
				continue
			}
			w.set(2, r, cs.Category, s.metricBordered)
			w.set(3, r, cs.Same, s.match)
			w.set(4, r, cs.LeftHigher, s.leftOnly)
			w.set(5, r, cs.RightHigher, s.rightOnly)
			r++
		}
		r++
	}

	zeroCfg := b.in.SummaryCfg.ZeroColumn
	if zeroCfg.Left != "" || zeroCfg.Right != "" {
		w.set(2, r, "iv) Zero Value Rows", s.subtitle)
		r++
		if zeroCfg.Left != "" {
			w.set(2, r, fmt.Sprintf("%s rows where %s = 0", b.lp, zeroCfg.Left), s.metric)
			w.set(3, r, sum.LeftZeroRows, s.bold)
			r++
		}
		if zeroCfg.Right != "" {
			w.set(2, r, fmt.Sprintf("%s rows where %s = 0", b.rp, zeroCfg.Right), s.metric)
			w.set(3, r, sum.RightZeroRows, s.bold)
			r++
		}
		r++
	}

	if len(sum.Columns) > 0 {
		w.set(2, r, "v) Mismatches by Column", s.subtitle)
		r++
		for _, cs := range sum.Columns {
			w.set(2, r, cs.Label, s.metric)
			w.set(3, r, cs.Mismatched, s.bold)
			r++
		}
		r++
	}

	w.set(2, r, ">> View Full Comparison Details", s.hyperlink)
	w.link(2, r, sheetComparison+"!A1")
	return w.err
}

func (b *workbook) writeRawSheets() error {
	sheets := []struct {
		name string
		ds   *compare.Dataset
	}{
		{b.lp + "_Summary", b.in.LeftSummary},
		{b.lp + "_Detail", b.in.LeftDetail},
		{b.rp + "_Summary", b.in.RightSummary},
		{b.rp + "_Detail", b.in.RightDetail},
	}
	for _, sh := range sheets {
		if sh.ds == nil {
			continue
		}
		name, err := b.addSheet(sh.name)
		if err != nil {
			return err
		}
		w := newSheetWriter(b.f, name)
		for c, col := range sh.ds.Columns {
			w.set(c+1, 1, col, b.styles.header)
		}
		for r, row := range sh.ds.Rows {
			for c, col := range sh.ds.Columns {
				w.set(c+1, r+2, row[col], b.styles.data)
			}
		}
		w.freeze(1)
		if sh.ds.Len() < widthFitLimit {
			w.fitWidths()
		}
		if w.err != nil {
			return w.err
		}
	}
	return nil
}

// filterDetail selects the detail rows whose key columns normalize to the
// same parts as a result row. Nil when the side has no detail dataset or
// the configured key list does not line up with the join keys.
func filterDetail(ds *compare.Dataset, keys []string, parts []string) []compare.Row {
	if ds == nil || len(keys) == 0 || len(keys) != len(parts) {
		return nil
	}
	var out []compare.Row
	for _, row := range ds.Rows {
		matched := true
		for i, k := range keys {
			part, ok := compare.NormalizeKeyPart(row[k])
			if !ok || part != parts[i] {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, row)
		}
	}
	return out
}

// displayKey renders a row key for sheet names and titles. The leading part
// is the state and repeats on every row, so it is dropped when more parts
// exist.
func displayKey(parts []string) string {
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, "_")
}

func safeSheetName(name string, existing []string) string {
	for _, ch := range []string{"\\", "/", "*", "?", ":", "[", "]"} {
		name = strings.ReplaceAll(name, ch, "_")
	}
	if len(name) > sheetNameLimit {
		name = name[:sheetNameLimit]
	}
	base := name
	for counter := 1; contains(existing, name); counter++ {
		suffix := fmt.Sprintf("_%d", counter)
		cut := sheetNameLimit - len(suffix)
		if cut > len(base) {
			cut = len(base)
		}
		name = base[:cut] + suffix
	}
	return name
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// sheetWriter batches cell writes with width tracking and a sticky error,
// so sheet builders read as data layout instead of error plumbing.
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	widths []float64
	err    error
}

func newSheetWriter(f *excelize.File, sheet string) *sheetWriter {
	return &sheetWriter{f: f, sheet: sheet}
}

func (w *sheetWriter) set(col, row int, v any, style int) {
	if w.err != nil {
		return
	}
	cell := cellName(col, row)
	if v != nil {
		if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
			w.err = err
			return
		}
		w.note(col, v)
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(w.sheet, cell, cell, style)
	}
}

func (w *sheetWriter) link(col, row int, location string) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellHyperLink(w.sheet, cellName(col, row), location, "Location")
}

func (w *sheetWriter) merge(c1, r1, c2, r2 int) {
	if w.err != nil {
		return
	}
	w.err = w.f.MergeCell(w.sheet, cellName(c1, r1), cellName(c2, r2))
}

func (w *sheetWriter) freeze(rows int) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetPanes(w.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      rows,
		TopLeftCell: cellName(1, rows+1),
		ActivePane:  "bottomLeft",
	})
}

func (w *sheetWriter) note(col int, v any) {
	for len(w.widths) < col {
		w.widths = append(w.widths, 0)
	}
	if l := float64(len(fmt.Sprint(v))); l > w.widths[col-1] {
		w.widths[col-1] = l
	}
}

// fitWidths sizes every written column between 10 and 40 characters.
func (w *sheetWriter) fitWidths() {
	if w.err != nil {
		return
	}
	for i, width := range w.widths {
		width += 2
		if width < 10 {
			width = 10
		}
		if width > 40 {
			width = 40
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetColWidth(w.sheet, name, name, width); err != nil {
			w.err = err
			return
		}
	}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

type styleSet struct {
	header         int
	data           int
	match          int
	mismatch       int
	leftOnly       int
	rightOnly      int
	hyperlink      int
	title          int
	subtitle       int
	metric         int
	metricBordered int
	bigNumber      int
	bold           int
	sectionHeader  int
}

func newStyles(f *excelize.File) (*styleSet, error) {
	border := []excelize.Border{
		{Type: "left", Color: colorBorder, Style: 1},
		{Type: "right", Color: colorBorder, Style: 1},
		{Type: "top", Color: colorBorder, Style: 1},
		{Type: "bottom", Color: colorBorder, Style: 1},
	}
	solid := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}

	var (
		s   styleSet
		err error
	)
	build := func(dst *int, style *excelize.Style) {
		if err != nil {
			return
		}
		*dst, err = f.NewStyle(style)
	}

	build(&s.header, &excelize.Style{
		Fill:      solid(colorHeader),
		Font:      &excelize.Font{Family: "Arial", Bold: true, Size: 10, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
		Border:    border,
	})
	build(&s.data, &excelize.Style{
		Font:   &excelize.Font{Family: "Arial", Size: 10},
		Border: border,
	})
	build(&s.match, &excelize.Style{
		Fill:   solid(colorMatch),
		Font:   &excelize.Font{Family: "Arial", Size: 10},
		Border: border,
	})
	build(&s.mismatch, &excelize.Style{
		Fill:   solid(colorMismatch),
		Font:   &excelize.Font{Family: "Arial", Size: 10},
		Border: border,
	})
	build(&s.leftOnly, &excelize.Style{
		Fill:   solid(colorLeftOnly),
		Font:   &excelize.Font{Family: "Arial", Size: 10},
		Border: border,
	})
	build(&s.rightOnly, &excelize.Style{
		Fill:   solid(colorRightOnly),
		Font:   &excelize.Font{Family: "Arial", Size: 10},
		Border: border,
	})
	build(&s.hyperlink, &excelize.Style{
		Font:   &excelize.Font{Family: "Arial", Size: 10, Underline: "single", Color: colorHyperlink},
		Border: border,
	})
	build(&s.title, &excelize.Style{
		Font: &excelize.Font{Family: "Arial", Bold: true, Size: 14, Color: colorHeader},
	})
	build(&s.subtitle, &excelize.Style{
		Font: &excelize.Font{Family: "Arial", Bold: true, Size: 11, Color: colorHeader},
	})
	build(&s.metric, &excelize.Style{
		Font: &excelize.Font{Family: "Arial", Size: 11},
	})
	build(&s.metricBordered, &excelize.Style{
		Font:   &excelize.Font{Family: "Arial", Size: 11},
		Border: border,
	})
	build(&s.bigNumber, &excelize.Style{
		Font:      &excelize.Font{Family: "Arial", Bold: true, Size: 16, Color: colorHeader},
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
	build(&s.bold, &excelize.Style{
		Font: &excelize.Font{Family: "Arial", Bold: true, Size: 11},
	})
	build(&s.sectionHeader, &excelize.Style{
		Fill:   solid(colorSectionHeader),
		Font:   &excelize.Font{Family: "Arial", Bold: true, Size: 11},
		Border: border,
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}
