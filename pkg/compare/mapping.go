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

// Kind classifies how a mapped column pair is compared. An empty kind
// behaves as text, mirroring the configuration default.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
)

// ValueMap rewrites one side's categorical vocabulary into the other's
// before text comparison, e.g. {"Y": "Met", "N": "Not Met"} on the left.
// Values with no entry pass through unchanged. Each map applies to its own
// side only.
type ValueMap struct {
	Left  map[string]string
	Right map[string]string
}

// Mapping declares one logical attribute across the two datasets. Compared
// mappings name a column on both sides and receive a verdict; additional
// mappings name at least one side and are carried into output for context
// only.
type Mapping struct {
	Label     string
	Left      string
	Right     string
	Kind      Kind
	Tolerance float64
	Values    *ValueMap
}

func (m Mapping) numeric() bool {
	return m.Kind == KindNumeric
}

// translate applies the mapping's value map for one side. Only string
// values are translated; numbers and nulls pass through.
func (m Mapping) translate(side Side, v any) any {
	if m.Values == nil {
		return v
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	table := m.Values.Left
	if side == SideRight {
		table = m.Values.Right
	}
	if mapped, ok := table[s]; ok {
		return mapped
	}
	return v
}

// Labels is the display vocabulary written into assembled cells. Zero
// valued fields fall back to the defaults below, so a spec only has to
// override what it wants to rename.
type Labels struct {
	Match            string
	Mismatch         string
	Warning          string
	OverallMatch     string
	OverallMismatch  string
	OverallLeftOnly  string
	OverallRightOnly string
	NALeftOnly       string
	NARightOnly      string
	OneSideMissing   string
	Higher           string
	Lower            string
	Same             string
	MatchIndicator   string
	NoMatchIndicator string
}

// DefaultLabels returns the stock display vocabulary.
func DefaultLabels() Labels {
	return Labels{
		Match:            "MATCH",
		Mismatch:         "MISMATCH",
		Warning:          "WARNING",
		OverallMatch:     "MATCH",
		OverallMismatch:  "MISMATCH",
		OverallLeftOnly:  "Left Only",
		OverallRightOnly: "Right Only",
		NALeftOnly:       "N/A - Left Only",
		NARightOnly:      "N/A - Right Only",
		OneSideMissing:   "NULL vs value",
		Higher:           "HIGHER",
		Lower:            "LOWER",
		Same:             "SAME",
		MatchIndicator:   "Match",
		NoMatchIndicator: "Don't Match",
	}
}

func (l Labels) withDefaults() Labels {
	def := DefaultLabels()
	fill := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Labels{
		Match:            fill(l.Match, def.Match),
		Mismatch:         fill(l.Mismatch, def.Mismatch),
		Warning:          fill(l.Warning, def.Warning),
		OverallMatch:     fill(l.OverallMatch, def.OverallMatch),
		OverallMismatch:  fill(l.OverallMismatch, def.OverallMismatch),
		OverallLeftOnly:  fill(l.OverallLeftOnly, def.OverallLeftOnly),
		OverallRightOnly: fill(l.OverallRightOnly, def.OverallRightOnly),
		NALeftOnly:       fill(l.NALeftOnly, def.NALeftOnly),
		NARightOnly:      fill(l.NARightOnly, def.NARightOnly),
		OneSideMissing:   fill(l.OneSideMissing, def.OneSideMissing),
		Higher:           fill(l.Higher, def.Higher),
		Lower:            fill(l.Lower, def.Lower),
		Same:             fill(l.Same, def.Same),
		MatchIndicator:   fill(l.MatchIndicator, def.MatchIndicator),
		NoMatchIndicator: fill(l.NoMatchIndicator, def.NoMatchIndicator),
	}
}

// Spec is the complete, immutable description of one reconciliation run.
// Engine entry points take it explicitly; no component reads ambient
// configuration, which is what makes parallel independent runs safe.
type Spec struct {
	LeftKeys   []string
	RightKeys  []string
	Compare    []Mapping
	Additional []Mapping

	// Order is the declarative output column template. Empty means keys,
	// row source, every compared group in declared order, every additional
	// group, then the overall verdict.
	Order []TemplateEntry

	Labels Labels

	// LeftPrefix and RightPrefix name the per side value columns in the
	// assembled output, e.g. QES/NIQ. They default to Left and Right.
	LeftPrefix  string
	RightPrefix string
}

func (s Spec) prefixes() (string, string) {
	lp, rp := s.LeftPrefix, s.RightPrefix
	if lp == "" {
		lp = "Left"
	}
	if rp == "" {
		rp = "Right"
	}
	return lp, rp
}

// Validate checks every configuration level invariant: key arity, label
// uniqueness, per kind requirements, and template references. It never
// touches data, so a failing spec is rejected before any loading happens.
func (s Spec) Validate() error {
	if len(s.LeftKeys) == 0 {
		return configErrf("key_columns", "at least one key column is required per side")
	}
	if len(s.LeftKeys) != len(s.RightKeys) {
		return configErrf("key_columns", "left declares %d key columns, right declares %d; arity must match",
			len(s.LeftKeys), len(s.RightKeys))
	}
	if len(s.Compare) == 0 {
		return configErrf("compare_columns", "at least one compared mapping is required")
	}

	seen := make(map[string]bool, len(s.Compare)+len(s.Additional))
	for i, m := range s.Compare {
		field := fmt.Sprintf("compare_columns[%d]", i)
		if m.Label == "" {
			return configErrf(field, "label is required")
		}
		if seen[m.Label] {
			return configErrf(field, "duplicate label %q", m.Label)
		}
		seen[m.Label] = true
		if m.Left == "" || m.Right == "" {
			return configErrf(field, "compared mapping %q must name a column on both sides", m.Label)
		}
		switch m.Kind {
		case KindNumeric:
			if m.Tolerance < 0 {
				return configErrf(field, "mapping %q has negative tolerance %v", m.Label, m.Tolerance)
			}
		case KindText, "":
		default:
			return configErrf(field, "mapping %q has unknown kind %q", m.Label, m.Kind)
		}
	}
	for i, m := range s.Additional {
		field := fmt.Sprintf("additional_result_columns[%d]", i)
		if m.Label == "" {
			return configErrf(field, "label is required")
		}
		if seen[m.Label] {
			return configErrf(field, "duplicate label %q", m.Label)
		}
		seen[m.Label] = true
		if m.Left == "" && m.Right == "" {
			return configErrf(field, "additional mapping %q must name a column on at least one side", m.Label)
		}
	}

	// Resolving the template validates every label it references.
	if _, err := ResolveColumns(s); err != nil {
		return err
	}
	return nil
}

func (s Spec) compareByLabel() map[string]Mapping {
	out := make(map[string]Mapping, len(s.Compare))
	for _, m := range s.Compare {
		out[m.Label] = m
	}
	return out
}

func (s Spec) additionalByLabel() map[string]Mapping {
	out := make(map[string]Mapping, len(s.Additional))
	for _, m := range s.Additional {
		out[m.Label] = m
	}
	return out
}
