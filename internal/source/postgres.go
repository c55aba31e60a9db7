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
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/parityworks/parity/pkg/compare"
	"github.com/parityworks/parity/pkg/config"
	"github.com/parityworks/parity/pkg/logger"
)

// SQLSTATE codes that mean the configured query names something that does
// not exist, which is a shape problem rather than a connectivity one.
const (
	undefinedTableError  = "42P01"
	undefinedColumnError = "42703"
)

type pgSource struct {
	cfg *config.PostgresSource
}

func (s *pgSource) Load(ctx context.Context, state string) (*Datasets, error) {
	dsn, err := s.cfg.DSN()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", s.Describe(), err)
	}
	defer pool.Close()

	summary, err := queryDataset(ctx, pool, s.cfg.SummaryQuery, state)
	if err != nil {
		return nil, fmt.Errorf("summary query: %w", err)
	}
	logger.Info("Loaded %d summary rows from %s", summary.Len(), s.Describe())

	detail, err := queryDataset(ctx, pool, s.cfg.DetailQuery, state)
	if err != nil {
		return nil, fmt.Errorf("detail query: %w", err)
	}
	logger.Info("Loaded %d detail rows from %s", detail.Len(), s.Describe())

	return &Datasets{Summary: summary, Detail: detail}, nil
}

func (s *pgSource) Describe() string {
	return fmt.Sprintf("postgres:%s/%s", s.cfg.Host, s.cfg.Database)
}

func queryDataset(ctx context.Context, pool *pgxpool.Pool, query, state string) (*compare.Dataset, error) {
	rows, err := pool.Query(ctx, query, state)
	if err != nil {
		return nil, describeQueryError(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = string(f.Name)
	}
	ds := compare.NewDataset(columns...)

	for rows.Next() {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, err
		}
		ds.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, describeQueryError(err)
	}
	return ds, nil
}

// scanRow converts one pgx row into the engine's native value set: driver
// types that the normalizer understands (float64, int64, string, nil)
// instead of pgtype wrappers.
func scanRow(rows pgx.Rows, columns []string) (compare.Row, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, fmt.Errorf("read row: %w", err)
	}

	row := make(compare.Row, len(columns))
	for i, name := range columns {
		row[name] = nativeValue(values[i])
	}
	return row, nil
}

func nativeValue(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		if val.Status != pgtype.Present {
			return nil
		}
		var f float64
		if err := val.AssignTo(&f); err != nil {
			return nil
		}
		return f
	case pgtype.Text:
		if val.Status != pgtype.Present {
			return nil
		}
		return val.String
	case pgtype.Varchar:
		if val.Status != pgtype.Present {
			return nil
		}
		return val.String
	case []byte:
		return string(val)
	default:
		return v
	}
}

func describeQueryError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case undefinedTableError, undefinedColumnError:
			return fmt.Errorf("dataset shape: %s (SQLSTATE %s)", pgErr.Message, pgErr.Code)
		}
		return fmt.Errorf("%s (SQLSTATE %s)", pgErr.Message, pgErr.Code)
	}
	return err
}
