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

import "strings"

// TemplateKind enumerates the output template's variants. The template is a
// closed set: every configured token must parse to one of these, anything
// else is a configuration error rather than a passthrough column.
type TemplateKind string

const (
	TemplateKeys       TemplateKind = "keys"
	TemplateRowSource  TemplateKind = "row_source"
	TemplateCompare    TemplateKind = "compare"
	TemplateAdditional TemplateKind = "additional"
	TemplateOverall    TemplateKind = "overall_match"
)

// TemplateEntry is one element of the declarative output column order.
// Compare and Additional entries carry the mapping label they expand.
type TemplateEntry struct {
	Kind  TemplateKind
	Label string
}

const (
	tokenKeys      = "{keys}"
	tokenRowSource = "{row_source}"
	tokenOverall   = "{overall_match}"

	tokenComparePrefix    = "{compare:"
	tokenAdditionalPrefix = "{additional:"
)

// ParseTemplate converts the configuration token vocabulary into template
// entries. Recognized tokens: {keys}, {row_source}, {overall_match},
// {compare:<label>} and {additional:<label>}.
func ParseTemplate(tokens []string) ([]TemplateEntry, error) {
	entries := make([]TemplateEntry, 0, len(tokens))
	for _, raw := range tokens {
		token := strings.TrimSpace(raw)
		switch {
		case token == tokenKeys:
			entries = append(entries, TemplateEntry{Kind: TemplateKeys})
		case token == tokenRowSource:
			entries = append(entries, TemplateEntry{Kind: TemplateRowSource})
		case token == tokenOverall:
			entries = append(entries, TemplateEntry{Kind: TemplateOverall})
		case strings.HasPrefix(token, tokenComparePrefix) && strings.HasSuffix(token, "}"):
			label := strings.TrimSpace(token[len(tokenComparePrefix) : len(token)-1])
			entries = append(entries, TemplateEntry{Kind: TemplateCompare, Label: label})
		case strings.HasPrefix(token, tokenAdditionalPrefix) && strings.HasSuffix(token, "}"):
			label := strings.TrimSpace(token[len(tokenAdditionalPrefix) : len(token)-1])
			entries = append(entries, TemplateEntry{Kind: TemplateAdditional, Label: label})
		default:
			return nil, configErrf("result_column_order", "unrecognized template token %q", raw)
		}
	}
	return entries, nil
}

// ColumnRole tells a consumer what an output column holds without string
// matching on header names.
type ColumnRole string

const (
	RoleKey        ColumnRole = "key"
	RoleRowSource  ColumnRole = "row_source"
	RoleLeftValue  ColumnRole = "left_value"
	RoleRightValue ColumnRole = "right_value"
	RoleDiff       ColumnRole = "diff"
	RoleVerdict    ColumnRole = "verdict"
	RoleDirection  ColumnRole = "direction"
	RoleOverall    ColumnRole = "overall"
)

// OutputColumn is one resolved column of the assembled table. Label carries
// the mapping label for value, diff, verdict and direction columns and is
// empty for keys, row source and the overall verdict.
type OutputColumn struct {
	Name  string
	Role  ColumnRole
	Label string
}

// ResolveColumns expands the spec's template into the concrete output
// columns. Compared groups expand by kind: numeric mappings get left value,
// right value, diff, verdict and direction columns; text mappings get left
// value, right value and verdict. Additional groups expand to whichever
// sides the mapping declares. A template entry naming an undeclared label
// fails here, before any row work.
func ResolveColumns(spec Spec) ([]OutputColumn, error) {
	entries := spec.Order
	if len(entries) == 0 {
		entries = defaultTemplate(spec)
	}

	lp, rp := spec.prefixes()
	compares := spec.compareByLabel()
	additionals := spec.additionalByLabel()

	var cols []OutputColumn
	for _, e := range entries {
		switch e.Kind {
		case TemplateKeys:
			for _, name := range spec.LeftKeys {
				cols = append(cols, OutputColumn{Name: name, Role: RoleKey})
			}
		case TemplateRowSource:
			cols = append(cols, OutputColumn{Name: "Row_Source", Role: RoleRowSource})
		case TemplateOverall:
			cols = append(cols, OutputColumn{Name: "Overall_Match", Role: RoleOverall})
		case TemplateCompare:
			m, ok := compares[e.Label]
			if !ok {
				return nil, configErrf("result_column_order", "template references undeclared compare label %q", e.Label)
			}
			cols = append(cols,
				OutputColumn{Name: lp + "_" + m.Label, Role: RoleLeftValue, Label: m.Label},
				OutputColumn{Name: rp + "_" + m.Label, Role: RoleRightValue, Label: m.Label},
			)
			if m.numeric() {
				cols = append(cols, OutputColumn{Name: "Diff_" + m.Label, Role: RoleDiff, Label: m.Label})
			}
			cols = append(cols, OutputColumn{Name: "Match_" + m.Label, Role: RoleVerdict, Label: m.Label})
			if m.numeric() {
				cols = append(cols, OutputColumn{Name: "Direction_" + m.Label, Role: RoleDirection, Label: m.Label})
			}
		case TemplateAdditional:
			m, ok := additionals[e.Label]
			if !ok {
				return nil, configErrf("result_column_order", "template references undeclared additional label %q", e.Label)
			}
			if m.Left != "" {
				cols = append(cols, OutputColumn{Name: lp + "_" + m.Label, Role: RoleLeftValue, Label: m.Label})
			}
			if m.Right != "" {
				cols = append(cols, OutputColumn{Name: rp + "_" + m.Label, Role: RoleRightValue, Label: m.Label})
			}
		default:
			return nil, configErrf("result_column_order", "unknown template entry kind %q", e.Kind)
		}
	}
	return cols, nil
}

func defaultTemplate(spec Spec) []TemplateEntry {
	entries := []TemplateEntry{
		{Kind: TemplateKeys},
		{Kind: TemplateRowSource},
	}
	for _, m := range spec.Compare {
		entries = append(entries, TemplateEntry{Kind: TemplateCompare, Label: m.Label})
	}
	for _, m := range spec.Additional {
		entries = append(entries, TemplateEntry{Kind: TemplateAdditional, Label: m.Label})
	}
	return append(entries, TemplateEntry{Kind: TemplateOverall})
}
