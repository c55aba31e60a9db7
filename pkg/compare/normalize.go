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

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeKeyPart canonicalizes one composite key part to text so that
// heterogeneous renderings of the same identifier join. Whole numbers render
// without a decimal point and digit-only text loses its leading zeros, which
// makes "011", 11 and "11" all produce "11". Spreadsheet readers coerce
// zero padded codes into numbers and drop the padding; this undoes the
// damage on both sides. Nil, empty and whitespace-only input is a null key
// part: ok is false and the part can never join, not even with another null.
// Idempotent.
func NormalizeKeyPart(v any) (part string, ok bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		if isDigits(s) {
			return stripLeadingZeros(s), true
		}
		return s, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		s := strings.TrimSpace(fmt.Sprint(t))
		if s == "" {
			return "", false
		}
		return s, true
	}
}

// NormalizeValue canonicalizes one cell for comparison, independent of key
// handling. Percent text ("95.5%") and fully numeric text become float64,
// other text is trimmed, nil stays nil. Empty and whitespace-only text also
// normalizes to nil so that blanks and explicit nulls behave the same.
// Idempotent.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if f, ok := parsePercent(s); ok {
			return f
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return t
	}
}

func parsePercent(s string) (float64, bool) {
	if !strings.HasSuffix(s, "%") {
		return 0, false
	}
	num := strings.TrimSpace(strings.TrimSuffix(s, "%"))
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func stripLeadingZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// round6 rounds differences to 6 decimal places before tolerance checks,
// so float noise from the subtraction never flips a verdict.
func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

// FormatValue renders a cell value for text output. Floats use plain
// notation so large counts never come out in scientific form.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
