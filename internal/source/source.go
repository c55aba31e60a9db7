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

// Package source loads the summary and detail datasets for one side of a
// reconciliation run. The engine never sees where rows came from; every
// implementation produces the same column-named tabular shape.
package source

import (
	"context"
	"fmt"
	"os"

	"github.com/parityworks/parity/pkg/compare"
	"github.com/parityworks/parity/pkg/config"
)

// Datasets is one side's pair of tables: the summary rows the engine
// reconciles and the detail rows the report links to them.
type Datasets struct {
	Summary *compare.Dataset
	Detail  *compare.Dataset
}

// Source loads both datasets for one side of a run, filtered to the
// requested state wherever the state column is present.
type Source interface {
	Load(ctx context.Context, state string) (*Datasets, error)
	Describe() string
}

// New builds the source declared for one side. role says which half of
// the run this side is, which matters only for mock sources (generation
// produces both halves at once and the source keeps its own). stateColumn
// is that side's first key column; file based sources use it to cut
// multi-state files down to the run's state.
func New(role compare.Side, side config.SideConfig, stateColumn string, chunked config.ChunkedConfig) (Source, error) {
	switch side.Source.Kind {
	case config.SourceCSV:
		return &csvSource{cfg: side.Source.CSV, stateColumn: stateColumn, chunked: chunked}, nil
	case config.SourceExcel:
		return &excelSource{cfg: side.Source.Excel, stateColumn: stateColumn, chunked: chunked}, nil
	case config.SourcePostgres:
		return &pgSource{cfg: side.Source.Postgres}, nil
	case config.SourceMock:
		return &mockSource{cfg: side.Source.Mock, role: role}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", side.Source.Kind)
	}
}

// NewStatic wraps already materialized datasets.
func NewStatic(desc string, d *Datasets) Source {
	return &staticSource{desc: desc, datasets: d}
}

type staticSource struct {
	desc     string
	datasets *Datasets
}

func (s *staticSource) Load(ctx context.Context, state string) (*Datasets, error) {
	return s.datasets, nil
}

func (s *staticSource) Describe() string {
	return s.desc
}

// shouldChunk reports whether a file is large enough to stream with
// progress reporting.
func shouldChunk(path string, chunked config.ChunkedConfig) bool {
	if !chunked.Enabled {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() > int64(chunked.DetailThresholdMB)*1024*1024
}
