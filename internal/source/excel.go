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

package source

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/parityworks/parity/pkg/compare"
	"github.com/parityworks/parity/pkg/config"
	"github.com/parityworks/parity/pkg/logger"
)

type excelSource struct {
	cfg         *config.ExcelSource
	stateColumn string
	chunked     config.ChunkedConfig
}

func (s *excelSource) Load(ctx context.Context, state string) (*Datasets, error) {
	summary, err := s.readSheet(ctx, s.cfg.SummaryPath, s.cfg.SummarySheet, state)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d summary rows from %s", summary.Len(), s.cfg.SummaryPath)

	detail, err := s.readSheet(ctx, s.cfg.DetailPath, s.cfg.DetailSheet, state)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d detail rows from %s", detail.Len(), s.cfg.DetailPath)

	return &Datasets{Summary: summary, Detail: detail}, nil
}

func (s *excelSource) Describe() string {
	return "excel:" + s.cfg.SummaryPath
}

// readSheet streams one worksheet row by row, so a large provider workbook
// never has to fit in memory twice.
func (s *excelSource) readSheet(ctx context.Context, path, sheet, state string) (*compare.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("open sheet %q in %s: %w", sheet, path, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("sheet %q in %s is empty", sheet, path)
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read header of %q in %s: %w", sheet, path, err)
	}

	ds := compare.NewDataset(header...)
	filterIdx := slices.Index(header, s.stateColumn)
	chunkSize := s.chunked.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 50000
	}

	read := 0
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row in %q of %s: %w", sheet, path, err)
		}

		read++
		if read%chunkSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			logger.Debug("%s[%s]: processed %d rows", filepath.Base(path), sheet, read)
		}

		// Trailing blank cells are dropped by the reader; treat them as
		// empty strings so every row has the header's width.
		if filterIdx >= 0 && cellAt(cells, filterIdx) != state {
			continue
		}

		row := make(compare.Row, len(header))
		for i, name := range header {
			row[name] = cellAt(cells, i)
		}
		ds.Append(row)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("iterate sheet %q in %s: %w", sheet, path, err)
	}
	return ds, nil
}

func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
