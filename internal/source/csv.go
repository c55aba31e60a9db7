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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/parityworks/parity/pkg/compare"
	"github.com/parityworks/parity/pkg/config"
	"github.com/parityworks/parity/pkg/logger"
)

type csvSource struct {
	cfg         *config.CSVSource
	stateColumn string
	chunked     config.ChunkedConfig
}

func (s *csvSource) Load(ctx context.Context, state string) (*Datasets, error) {
	summary, err := s.readFile(ctx, s.cfg.SummaryPath, state)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d summary rows from %s", summary.Len(), s.cfg.SummaryPath)

	detail, err := s.readFile(ctx, s.cfg.DetailPath, state)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d detail rows from %s", detail.Len(), s.cfg.DetailPath)

	return &Datasets{Summary: summary, Detail: detail}, nil
}

func (s *csvSource) Describe() string {
	return "csv:" + s.cfg.SummaryPath
}

func (s *csvSource) readFile(ctx context.Context, path, state string) (*compare.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	var src io.Reader = f
	var progress *mpb.Progress
	if shouldChunk(path, s.chunked) {
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat csv %s: %w", path, err)
		}
		progress = mpb.New(mpb.WithOutput(os.Stderr))
		bar := progress.AddBar(info.Size(),
			mpb.BarRemoveOnComplete(),
			mpb.PrependDecorators(
				decor.Name("Loading "+filepath.Base(path)+":"),
				decor.CountersKibiByte(" % .1f / % .1f"),
			),
			mpb.AppendDecorators(
				decor.Elapsed(decor.ET_STYLE_GO),
			),
		)
		reader := bar.ProxyReader(f)
		defer reader.Close()
		src = reader
	}

	r := csv.NewReader(src)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header %s: %w", path, err)
	}

	ds := compare.NewDataset(header...)
	filterIdx := slices.Index(header, s.stateColumn)
	chunkSize := s.chunked.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 50000
	}

	read := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", path, err)
		}

		read++
		if read%chunkSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			logger.Debug("%s: processed %d rows", filepath.Base(path), read)
		}

		if filterIdx >= 0 && record[filterIdx] != state {
			continue
		}

		row := make(compare.Row, len(header))
		for i, name := range header {
			row[name] = record[i]
		}
		ds.Append(row)
	}

	if progress != nil {
		progress.Wait()
	}
	return ds, nil
}
