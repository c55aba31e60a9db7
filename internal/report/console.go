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
	"github.com/parityworks/parity/pkg/logger"
)

// PrintSummary logs the run verdict in the form operators scan for first.
func PrintSummary(in Input) {
	sum := in.Summary
	lp, rp := in.prefixes()

	clean := sum.MismatchedRows == 0 && sum.LeftOnlyRows == 0 && sum.RightOnlyRows == 0
	if clean {
		logger.Info("%s DATASETS MATCH", CheckMark)
	} else {
		logger.Warn("%s DATASETS DO NOT MATCH", CrossMark)
		if sum.MismatchedRows > 0 {
			logger.Warn("Found %d rows with differences", sum.MismatchedRows)
		}
		if sum.LeftOnlyRows > 0 {
			logger.Warn("Found %d rows only in %s", sum.LeftOnlyRows, lp)
		}
		if sum.RightOnlyRows > 0 {
			logger.Warn("Found %d rows only in %s", sum.RightOnlyRows, rp)
		}
		for _, cs := range sum.Columns {
			if cs.Mismatched > 0 {
				logger.Warn("  %s: %d mismatches", cs.Label, cs.Mismatched)
			}
		}
	}

	if sum.BothRows > 0 {
		logger.Info("Match rate: %.1f%% (%d/%d rows in both)", sum.MatchRate, sum.MatchedRows, sum.BothRows)
	}
}
