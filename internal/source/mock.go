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

	"github.com/parityworks/parity/internal/mock"
	"github.com/parityworks/parity/pkg/compare"
	"github.com/parityworks/parity/pkg/config"
)

// mockSource serves one half of a generated pair. Generation is seeded, so
// when both sides of a run are mock each regenerates the identical pair
// and keeps its own half; the injected discrepancies still line up.
type mockSource struct {
	cfg  *config.MockSource
	role compare.Side
}

func (s *mockSource) Load(ctx context.Context, state string) (*Datasets, error) {
	pair, err := mock.Generate(s.cfg, state)
	if err != nil {
		return nil, err
	}
	half := pair.Left
	if s.role == compare.SideRight {
		half = pair.Right
	}
	return &Datasets{Summary: half.Summary, Detail: half.Detail}, nil
}

func (s *mockSource) Describe() string {
	return fmt.Sprintf("mock:seed=%d", mock.Seed(s.cfg))
}
