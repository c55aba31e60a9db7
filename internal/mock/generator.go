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

// Package mock generates paired synthetic network-adequacy datasets for
// demos and tests. Both sides are derived from one shared truth per
// county/specialty cell, then discrepancies are injected at configurable
// rates, so the comparison engine has known-good and known-bad rows to
// find. The same seed always yields the same pair.
package mock

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/parityworks/parity/pkg/compare"
	"github.com/parityworks/parity/pkg/config"
	"github.com/parityworks/parity/pkg/logger"
)

// SideData is one side's summary and detail datasets.
type SideData struct {
	Summary *compare.Dataset
	Detail  *compare.Dataset
}

// Pair is a full generated run: both sides plus the injection tallies, so
// callers (and tests) know how many discrepancies to expect.
type Pair struct {
	Left  SideData
	Right SideData

	LeftOnly   int
	RightOnly  int
	Mismatched int
}

type county struct {
	ssa  string
	name string
}

type specialtyGroup struct {
	code string
	name string
}

// Vocabulary pools. County SSA codes are carried zero-padded on the left
// side and trimmed on the right, the same mismatched-but-equivalent keys
// the real extracts exhibit.
var counties = []county{
	{"200", "Harris"},
	{"113", "Dallas"},
	{"439", "Tarrant"},
	{"029", "Bexar"},
	{"453", "Travis"},
	{"085", "Collin"},
	{"121", "Denton"},
	{"157", "Fort Bend"},
	{"215", "Hidalgo"},
	{"141", "El Paso"},
	{"355", "Nueces"},
	{"303", "Lubbock"},
	{"167", "Galveston"},
	{"491", "Williamson"},
	{"061", "Cameron"},
}

var specialties = []specialtyGroup{
	{"CARD", "Cardiology"},
	{"DERM", "Dermatology"},
	{"ENDO", "Endocrinology"},
	{"GAST", "Gastroenterology"},
	{"NEUR", "Neurology"},
	{"OBGY", "Obstetrics/Gynecology"},
	{"ONCO", "Oncology"},
	{"OPHT", "Ophthalmology"},
	{"ORTH", "Orthopedic Surgery"},
	{"PCP", "Primary Care"},
	{"PEDS", "Pediatrics"},
	{"PSYC", "Psychiatry"},
	{"PULM", "Pulmonology"},
	{"RHEU", "Rheumatology"},
	{"UROL", "Urology"},
}

var (
	leftSummaryColumns = []string{
		"State", "CountySSA", "County_Name", "Specialty_Code", "Specialty",
		"Provider_Count", "Meets_Standard", "Avg_Distance_Miles", "Access_Pct",
		"Member_Count",
	}
	leftDetailColumns = []string{
		"State", "CountySSA", "County_Name", "Specialty_Code", "Provider_NPI",
		"Provider_TIN", "Provider_Name", "Provider_Address", "Provider_City",
		"Provider_Zip", "Latitude", "Longitude", "Accepting_Patients",
	}
	rightSummaryColumns = []string{
		"state_code", "county_ssa", "county_name", "specialty_code",
		"specialty_type", "provider_cnt", "meets_standard_flag", "avg_distance",
		"access_pct", "member_cnt",
	}
	rightDetailColumns = []string{
		"state_code", "county_ssa", "specialty_code", "provider_npi",
		"provider_tin", "provider_name", "provider_addr", "provider_city",
		"provider_zip", "lat", "lon", "accepting_flag",
	}
)

type provider struct {
	npi       string
	tin       string
	name      string
	street    string
	city      string
	zip       string
	lat       float64
	lon       float64
	accepting string
}

// cell is the shared truth for one county/specialty combination before any
// discrepancy is injected.
type cell struct {
	county    county
	specialty specialtyGroup
	providers []provider
	distance  float64
	access    float64
	members   int
	meets     bool
}

// Generate builds a deterministic mock pair for one state. The left side
// mimics a file extract (every value a string, percent signs, zero-padded
// region codes), the right side a database pull (native ints and floats,
// trimmed codes).
func Generate(cfg *config.MockSource, state string) (*Pair, error) {
	settings := withDefaults(cfg)
	f := gofakeit.New(settings.Seed)

	pair := &Pair{
		Left: SideData{
			Summary: compare.NewDataset(leftSummaryColumns...),
			Detail:  compare.NewDataset(leftDetailColumns...),
		},
		Right: SideData{
			Summary: compare.NewDataset(rightSummaryColumns...),
			Detail:  compare.NewDataset(rightDetailColumns...),
		},
	}

	for _, cty := range counties[:settings.Counties] {
		for _, spec := range specialties[:settings.Specialties] {
			c := newCell(f, cty, spec, settings.Providers)

			roll := f.Float64Range(0, 1)
			switch {
			case roll < settings.OnlyRate:
				appendLeft(pair, state, c)
				pair.LeftOnly++
			case roll < 2*settings.OnlyRate:
				appendRight(pair, state, c, c)
				pair.RightOnly++
			default:
				appendLeft(pair, state, c)
				right := c
				if f.Float64Range(0, 1) < settings.MismatchRate {
					right = injectMismatch(f, c)
					pair.Mismatched++
				}
				appendRight(pair, state, c, right)
			}
		}
	}

	if settings.SaveDir != "" {
		if err := save(settings.SaveDir, state, pair); err != nil {
			return nil, err
		}
	}

	logger.Info("Generated mock pair for %s: %d left rows, %d right rows (%d mismatched, %d left-only, %d right-only)",
		state, pair.Left.Summary.Len(), pair.Right.Summary.Len(),
		pair.Mismatched, pair.LeftOnly, pair.RightOnly)
	return pair, nil
}

// Seed reports the seed a config resolves to, for logging and source
// descriptions.
func Seed(cfg *config.MockSource) int64 {
	if cfg == nil || cfg.Seed == 0 {
		return defaultSeed
	}
	return cfg.Seed
}

const defaultSeed = 42

func withDefaults(cfg *config.MockSource) config.MockSource {
	s := config.MockSource{}
	if cfg != nil {
		s = *cfg
	}
	if s.Seed == 0 {
		s.Seed = defaultSeed
	}
	if s.Counties <= 0 {
		s.Counties = 8
	}
	if s.Counties > len(counties) {
		s.Counties = len(counties)
	}
	if s.Specialties <= 0 {
		s.Specialties = 6
	}
	if s.Specialties > len(specialties) {
		s.Specialties = len(specialties)
	}
	if s.Providers <= 0 {
		s.Providers = 25
	} else if s.Providers < 3 {
		s.Providers = 3
	}
	if s.MismatchRate == 0 {
		s.MismatchRate = 0.15
	} else if s.MismatchRate < 0 {
		s.MismatchRate = 0
	}
	if s.OnlyRate == 0 {
		s.OnlyRate = 0.05
	} else if s.OnlyRate < 0 {
		s.OnlyRate = 0
	}
	return s
}

func newCell(f *gofakeit.Faker, cty county, spec specialtyGroup, maxProviders int) cell {
	n := f.Number(3, maxProviders)
	providers := make([]provider, n)
	for i := range providers {
		providers[i] = newProvider(f)
	}
	distance := round2(f.Float64Range(1.5, 35.0))
	return cell{
		county:    cty,
		specialty: spec,
		providers: providers,
		distance:  distance,
		access:    round1(f.Float64Range(62.0, 99.9)),
		members:   f.Number(500, 50000),
		meets:     meetsStandard(n, distance),
	}
}

func newProvider(f *gofakeit.Faker) provider {
	addr := f.Address()
	return provider{
		npi:       f.DigitN(10),
		tin:       f.DigitN(9),
		name:      "Dr. " + f.Name(),
		street:    addr.Street,
		city:      addr.City,
		zip:       addr.Zip,
		lat:       round6(addr.Latitude),
		lon:       round6(addr.Longitude),
		accepting: f.RandomString([]string{"Yes", "Yes", "Yes", "No"}),
	}
}

// meetsStandard is the adequacy rule the summaries encode: at least five
// providers within thirty miles on average.
func meetsStandard(providerCount int, distance float64) bool {
	return providerCount >= 5 && distance <= 30.0
}

// injectMismatch derives a drifted copy of the truth for the right side.
// Exactly one field family drifts per cell so every injected discrepancy
// is attributable.
func injectMismatch(f *gofakeit.Faker, c cell) cell {
	right := c
	right.providers = append([]provider(nil), c.providers...)

	switch f.Number(0, 4) {
	case 0: // provider count drift
		deltas := []int{-2, -1, 1, 2, 3}
		n := len(right.providers) + deltas[f.Number(0, len(deltas)-1)]
		if n < 1 {
			n = 1
		}
		for len(right.providers) < n {
			right.providers = append(right.providers, newProvider(f))
		}
		right.providers = right.providers[:n]
		right.meets = meetsStandard(n, right.distance)
	case 1: // distance drift
		right.distance = round2(math.Max(0.1, c.distance+f.Float64Range(-3, 5)))
		right.meets = meetsStandard(len(right.providers), right.distance)
	case 2: // standard flag flip
		right.meets = !c.meets
	case 3: // access percentage drift
		right.access = round1(math.Min(100, math.Max(0, c.access+f.Float64Range(-4, 3))))
	default: // provider roster swap
		right.providers[f.Number(0, len(right.providers)-1)] = newProvider(f)
	}
	return right
}

func appendLeft(pair *Pair, state string, c cell) {
	pair.Left.Summary.Append(compare.Row{
		"State":              state,
		"CountySSA":          zeroPad(c.county.ssa, 5),
		"County_Name":        c.county.name,
		"Specialty_Code":     c.specialty.code,
		"Specialty":          c.specialty.name,
		"Provider_Count":     strconv.Itoa(len(c.providers)),
		"Meets_Standard":     yesNo(c.meets),
		"Avg_Distance_Miles": strconv.FormatFloat(c.distance, 'f', 2, 64),
		"Access_Pct":         strconv.FormatFloat(c.access, 'f', 1, 64) + "%",
		"Member_Count":       strconv.Itoa(c.members),
	})
	for _, p := range c.providers {
		pair.Left.Detail.Append(compare.Row{
			"State":              state,
			"CountySSA":          zeroPad(c.county.ssa, 5),
			"County_Name":        c.county.name,
			"Specialty_Code":     c.specialty.code,
			"Provider_NPI":       p.npi,
			"Provider_TIN":       p.tin,
			"Provider_Name":      p.name,
			"Provider_Address":   p.street,
			"Provider_City":      p.city,
			"Provider_Zip":       p.zip,
			"Latitude":           strconv.FormatFloat(p.lat, 'f', 6, 64),
			"Longitude":          strconv.FormatFloat(p.lon, 'f', 6, 64),
			"Accepting_Patients": p.accepting,
		})
	}
}

// appendRight writes the right-side rows. truth carries the cell identity
// (keys, member count); right carries the possibly drifted measures.
func appendRight(pair *Pair, state string, truth, right cell) {
	pair.Right.Summary.Append(compare.Row{
		"state_code":          state,
		"county_ssa":          strings.TrimLeft(truth.county.ssa, "0"),
		"county_name":         truth.county.name,
		"specialty_code":      truth.specialty.code,
		"specialty_type":      truth.specialty.name,
		"provider_cnt":        len(right.providers),
		"meets_standard_flag": yesNo(right.meets),
		"avg_distance":        right.distance,
		"access_pct":          right.access,
		"member_cnt":          truth.members,
	})
	for _, p := range right.providers {
		pair.Right.Detail.Append(compare.Row{
			"state_code":     state,
			"county_ssa":     strings.TrimLeft(truth.county.ssa, "0"),
			"specialty_code": truth.specialty.code,
			"provider_npi":   p.npi,
			"provider_tin":   p.tin,
			"provider_name":  p.name,
			"provider_addr":  p.street,
			"provider_city":  p.city,
			"provider_zip":   p.zip,
			"lat":            p.lat,
			"lon":            p.lon,
			"accepting_flag": p.accepting,
		})
	}
}

func save(dir, state string, pair *Pair) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mock: create save dir: %w", err)
	}
	files := []struct {
		name string
		ds   *compare.Dataset
	}{
		{"left_summary", pair.Left.Summary},
		{"left_detail", pair.Left.Detail},
		{"right_summary", pair.Right.Summary},
		{"right_detail", pair.Right.Detail},
	}
	for _, file := range files {
		path := filepath.Join(dir, fmt.Sprintf("mock_%s_%s.csv", strings.ToLower(state), file.name))
		if err := writeCSV(path, file.ds); err != nil {
			return err
		}
		logger.Debug("Saved mock dataset %s (%d rows)", path, file.ds.Len())
	}
	return nil
}

func writeCSV(path string, ds *compare.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mock: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ds.Columns); err != nil {
		return fmt.Errorf("mock: write %s: %w", path, err)
	}
	record := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i, col := range ds.Columns {
			record[i] = cellString(row[col])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("mock: write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("mock: write %s: %w", path, err)
	}
	return nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func yesNo(meets bool) string {
	if meets {
		return "Y"
	}
	return "N"
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
