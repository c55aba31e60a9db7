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

package compare

import "fmt"

// ConfigError reports an invalid reconciliation spec. It is always a caller
// mistake and is surfaced before any row work begins, never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid compare spec: %s", e.Reason)
	}
	return fmt.Sprintf("invalid compare spec: %s: %s", e.Field, e.Reason)
}

func configErrf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ShapeError reports a declared column that is absent from the dataset it
// was declared against. Fatal for the run, with enough context to point at
// the offending declaration.
type ShapeError struct {
	Side   Side
	Column string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("declared column %q not present in %s dataset", e.Column, e.Side)
}
