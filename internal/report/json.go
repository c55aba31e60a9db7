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
	"fmt"
	"os"

	"github.com/parityworks/parity/pkg/compare"
	"github.com/parityworks/parity/pkg/logger"
	"github.com/parityworks/parity/pkg/types"
)

// WriteJSON writes the machine readable report and returns its path.
func WriteJSON(in Input) (string, error) {
	out := types.ReconOutput{
		Summary: *in.Summary,
		Rows:    rowRecords(in.Result),
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := in.path("json")
	if err := os.MkdirAll(in.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	logger.Info("JSON report written to %s", path)
	return path, nil
}

func rowRecords(res *compare.Result) []types.RowRecord {
	records := make([]types.RowRecord, 0, len(res.Records))
	for _, rec := range res.Records {
		rr := types.RowRecord{
			Key:       rec.Key,
			KeyParts:  rec.KeyParts,
			RowSource: string(rec.Provenance),
			Overall:   string(rec.Overall),
		}
		if len(rec.Columns) > 0 {
			rr.Columns = make(map[string]types.ColumnRecord, len(rec.Columns))
			for label, cr := range rec.Columns {
				rr.Columns[label] = types.ColumnRecord{
					Left:      cr.Left,
					Right:     cr.Right,
					Diff:      cr.Diff,
					Verdict:   string(cr.Verdict),
					Direction: string(cr.Direction),
				}
			}
		}
		records = append(records, rr)
	}
	return records
}
