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

// Package report renders a finished reconciliation run: a machine readable
// JSON file, a styled multi-sheet workbook, and a console verdict. All
// renderers consume the same Input and never mutate it.
package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/parityworks/parity/pkg/compare"
	"github.com/parityworks/parity/pkg/config"
	"github.com/parityworks/parity/pkg/types"
)

const (
	CheckMark = "✔"
	CrossMark = "✘"
)

// Input is everything a renderer may need from one run. The four raw
// datasets are optional; renderers skip what is nil.
type Input struct {
	Spec    compare.Spec
	Result  *compare.Result
	Summary *types.Summary
	State   string

	OutputDir  string
	Prefix     string
	Drilldown  config.DrilldownConfig
	SummaryCfg config.SummaryConfig

	LeftSummary  *compare.Dataset
	LeftDetail   *compare.Dataset
	RightSummary *compare.Dataset
	RightDetail  *compare.Dataset

	// Timestamp names the output files; both formats of one run share it.
	// Zero means now.
	Timestamp time.Time
}

// Write renders every requested format and returns the paths written.
func Write(in Input, formats []string) ([]string, error) {
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now()
	}
	var paths []string
	for _, format := range formats {
		var (
			path string
			err  error
		)
		switch format {
		case "json":
			path, err = WriteJSON(in)
		case "xlsx":
			path, err = WriteWorkbook(in)
		default:
			err = fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (in Input) path(ext string) string {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	name := fmt.Sprintf("%s_%s_recon-%s.%s", in.Prefix, in.State, ts.Format("20060102150405"), ext)
	return filepath.Join(in.OutputDir, name)
}

// prefixes returns the display names for the two sides.
func (in Input) prefixes() (string, string) {
	lp, rp := in.Spec.LeftPrefix, in.Spec.RightPrefix
	if lp == "" {
		lp = "Left"
	}
	if rp == "" {
		rp = "Right"
	}
	return lp, rp
}
