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
	"slices"
	"sort"

	"github.com/parityworks/parity/pkg/types"
)

// SummaryOptions selects the optional breakdowns the aggregator computes.
// Both columns must be left key columns since their values come from the
// composite key; an empty field skips its section.
type SummaryOptions struct {
	// RegionColumn is counted distinctly across all rows, e.g. CountySSA.
	RegionColumn string
	// CategoryColumn groups directional outcomes of numeric mappings,
	// e.g. a specialty code.
	CategoryColumn string
}

// Summarize computes dataset wide statistics from one run's result. Read
// only over the records; run metadata such as sources and timing is the
// caller's to fill in.
func Summarize(spec Spec, res *Result, opts SummaryOptions) (*types.Summary, error) {
	s := &types.Summary{
		TotalRows:   len(res.Records),
		Diagnostics: res.Diagnostics,
	}

	regionIdx := -1
	if opts.RegionColumn != "" {
		regionIdx = slices.Index(spec.LeftKeys, opts.RegionColumn)
		if regionIdx < 0 {
			return nil, configErrf("summary.region_column", "%q is not a left key column", opts.RegionColumn)
		}
		s.RegionColumn = opts.RegionColumn
	}
	categoryIdx := -1
	if opts.CategoryColumn != "" {
		categoryIdx = slices.Index(spec.LeftKeys, opts.CategoryColumn)
		if categoryIdx < 0 {
			return nil, configErrf("summary.category_column", "%q is not a left key column", opts.CategoryColumn)
		}
	}

	colStats := make([]types.ColumnStats, len(spec.Compare))
	colIdx := make(map[string]int, len(spec.Compare))
	for i, m := range spec.Compare {
		kind := KindText
		if m.numeric() {
			kind = KindNumeric
		}
		colStats[i] = types.ColumnStats{Label: m.Label, Kind: string(kind)}
		colIdx[m.Label] = i
	}

	regions := make(map[string]bool)
	type catKey struct {
		category string
		label    string
	}
	catStats := make(map[catKey]*types.CategoryStats)

	for _, rec := range res.Records {
		switch rec.Overall {
		case VerdictLeftOnly:
			s.LeftOnlyRows++
		case VerdictRightOnly:
			s.RightOnlyRows++
		case VerdictMismatch:
			s.BothRows++
			s.MismatchedRows++
		default:
			s.BothRows++
			s.MatchedRows++
		}
		if regionIdx >= 0 && regionIdx < len(rec.KeyParts) {
			regions[rec.KeyParts[regionIdx]] = true
		}

		for label, cr := range rec.Columns {
			cs := &colStats[colIdx[label]]
			switch cr.Verdict {
			case VerdictMatch:
				cs.Matched++
			case VerdictMismatch:
				cs.Mismatched++
			case VerdictMissing:
				cs.Missing++
			}
			switch cr.Direction {
			case DirectionHigher:
				cs.Higher++
			case DirectionLower:
				cs.Lower++
			case DirectionSame:
				cs.Same++
			}

			if categoryIdx >= 0 && cr.Direction != DirectionNone && categoryIdx < len(rec.KeyParts) {
				key := catKey{category: rec.KeyParts[categoryIdx], label: label}
				entry := catStats[key]
				if entry == nil {
					entry = &types.CategoryStats{Category: key.category, Label: label}
					catStats[key] = entry
				}
				switch cr.Direction {
				case DirectionHigher:
					entry.RightHigher++
				case DirectionLower:
					entry.LeftHigher++
				case DirectionSame:
					entry.Same++
				}
			}
		}
	}

	if s.BothRows > 0 {
		s.MatchRate = float64(s.MatchedRows) / float64(s.BothRows) * 100
	}
	if regionIdx >= 0 {
		s.UniqueRegions = len(regions)
	}
	s.Columns = colStats

	if len(catStats) > 0 {
		categories := make([]types.CategoryStats, 0, len(catStats))
		for _, entry := range catStats {
			categories = append(categories, *entry)
		}
		sort.Slice(categories, func(i, j int) bool {
			if categories[i].Category != categories[j].Category {
				return categories[i].Category < categories[j].Category
			}
			return categories[i].Label < categories[j].Label
		})
		s.Categories = categories
	}
	return s, nil
}
