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

package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/parityworks/parity/pkg/compare"
)

type Config struct {
	// State selects the run; States fans out one independent run per entry.
	State  string   `yaml:"state"`
	States []string `yaml:"states"`

	Left  SideConfig `yaml:"left"`
	Right SideConfig `yaml:"right"`

	Keys       KeyColumns         `yaml:"key_columns"`
	Compare    []CompareColumn    `yaml:"compare_columns"`
	Additional []AdditionalColumn `yaml:"additional_result_columns"`

	ColumnOrder []string `yaml:"result_column_order"`

	Output         OutputConfig    `yaml:"output"`
	ChunkedLoading ChunkedConfig   `yaml:"chunked_loading"`
	Drilldown      DrilldownConfig `yaml:"drilldown"`
	Summary        SummaryConfig   `yaml:"summary"`

	Concurrency int    `yaml:"concurrency"`
	TaskDB      string `yaml:"task_db"`
	DebugMode   bool   `yaml:"debug_mode"`
}

type SideConfig struct {
	// Name prefixes this side's value columns in the output, e.g. QES.
	Name   string       `yaml:"name"`
	Source SourceConfig `yaml:"source"`
}

type SourceConfig struct {
	Kind     string          `yaml:"kind"`
	CSV      *CSVSource      `yaml:"csv,omitempty"`
	Excel    *ExcelSource    `yaml:"excel,omitempty"`
	Postgres *PostgresSource `yaml:"postgres,omitempty"`
	Mock     *MockSource     `yaml:"mock,omitempty"`
}

const (
	SourceCSV      = "csv"
	SourceExcel    = "excel"
	SourcePostgres = "postgres"
	SourceMock     = "mock"
)

type CSVSource struct {
	SummaryPath string `yaml:"summary_path"`
	DetailPath  string `yaml:"detail_path"`
}

// ExcelSource names a sheet per dataset. The two paths may point at the
// same workbook.
type ExcelSource struct {
	SummaryPath  string `yaml:"summary_path"`
	SummarySheet string `yaml:"summary_sheet"`
	DetailPath   string `yaml:"detail_path"`
	DetailSheet  string `yaml:"detail_sheet"`
}

// PostgresSource runs one query per dataset. Queries receive the state
// filter as $1. The password is never written into the file; it comes from
// the environment variable named by password_env_var.
type PostgresSource struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username"`
	PasswordEnvVar string `yaml:"password_env_var"`
	SSLMode        string `yaml:"sslmode"`

	SummaryQuery string `yaml:"summary_query"`
	DetailQuery  string `yaml:"detail_query"`
}

type MockSource struct {
	Seed         int64   `yaml:"seed"`
	Counties     int     `yaml:"counties"`
	Specialties  int     `yaml:"specialties"`
	Providers    int     `yaml:"providers"`
	MismatchRate float64 `yaml:"mismatch_rate"`
	OnlyRate     float64 `yaml:"only_rate"`
	// SaveDir optionally writes the generated datasets out as CSV for
	// inspection.
	SaveDir string `yaml:"save_dir"`
}

type KeyColumns struct {
	Left  []string `yaml:"left"`
	Right []string `yaml:"right"`
}

type CompareColumn struct {
	Label     string       `yaml:"label"`
	Left      string       `yaml:"left"`
	Right     string       `yaml:"right"`
	Kind      string       `yaml:"kind"`
	Tolerance float64      `yaml:"tolerance"`
	ValueMap  *ValueMapDef `yaml:"value_map,omitempty"`
}

type ValueMapDef struct {
	Left  map[string]string `yaml:"left,omitempty"`
	Right map[string]string `yaml:"right,omitempty"`
}

// AdditionalColumn carries context columns into the output without a
// verdict. The compact form omits label, which is then derived from the
// left (or right) column name.
type AdditionalColumn struct {
	Label string `yaml:"label"`
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

type OutputConfig struct {
	Dir     string       `yaml:"dir"`
	Prefix  string       `yaml:"prefix"`
	Formats []string     `yaml:"formats"`
	Labels  LabelsConfig `yaml:"labels"`
}

type LabelsConfig struct {
	Match            string `yaml:"match"`
	Mismatch         string `yaml:"mismatch"`
	Warning          string `yaml:"warning"`
	OverallMatch     string `yaml:"overall_match"`
	OverallMismatch  string `yaml:"overall_mismatch"`
	OverallLeftOnly  string `yaml:"overall_left_only"`
	OverallRightOnly string `yaml:"overall_right_only"`
	NALeftOnly       string `yaml:"na_left_only"`
	NARightOnly      string `yaml:"na_right_only"`
	NullVsValue      string `yaml:"null_vs_value"`
	Higher           string `yaml:"higher"`
	Lower            string `yaml:"lower"`
	Same             string `yaml:"same"`
	MatchIndicator   string `yaml:"match_indicator"`
	NoMatchIndicator string `yaml:"no_match_indicator"`
}

type ChunkedConfig struct {
	Enabled           bool `yaml:"enabled"`
	ChunkSize         int  `yaml:"chunk_size"`
	DetailThresholdMB int  `yaml:"detail_file_threshold_mb"`
}

// DrilldownConfig wires detail rows to summary rows in the workbook
// report. LinkColumn is the summary-side left key the drill-down sheets
// group on; the detail key lists name the matching detail columns per side.
type DrilldownConfig struct {
	LinkColumn      string   `yaml:"link_column"`
	LeftDetailKeys  []string `yaml:"left_detail_keys"`
	RightDetailKeys []string `yaml:"right_detail_keys"`
	MaxSheets       int      `yaml:"max_sheets"`
}

type SummaryConfig struct {
	RegionColumn   string     `yaml:"region_column"`
	CategoryColumn string     `yaml:"category_column"`
	DetailIDColumn SideColumn `yaml:"detail_id_columns"`
	ZeroColumn     SideColumn `yaml:"zero_columns"`
}

type SideColumn struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// Cfg holds the loaded config for the whole app.
var Cfg *Config

// Load reads and parses path into a Config and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	c.normalize()
	return &c, nil
}

// Init loads the config and assigns it to the package variable.
func Init(path string) error {
	c, err := Load(path)
	if err != nil {
		return err
	}
	Cfg = c
	return nil
}

// normalize fills defaults and rewrites compact forms so the rest of the
// program only ever sees the verbose shape.
func (c *Config) normalize() {
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Output.Prefix == "" {
		c.Output.Prefix = "parity"
	}
	if len(c.Output.Formats) == 0 {
		c.Output.Formats = []string{"xlsx"}
	}
	if c.ChunkedLoading.ChunkSize == 0 {
		c.ChunkedLoading.ChunkSize = 50000
	}
	if c.ChunkedLoading.DetailThresholdMB == 0 {
		c.ChunkedLoading.DetailThresholdMB = 100
	}
	if c.Drilldown.MaxSheets == 0 {
		c.Drilldown.MaxSheets = 200
	}
	if c.Concurrency == 0 {
		c.Concurrency = 2
	}
	for i := range c.Additional {
		if c.Additional[i].Label == "" {
			if c.Additional[i].Left != "" {
				c.Additional[i].Label = c.Additional[i].Left
			} else {
				c.Additional[i].Label = c.Additional[i].Right
			}
		}
	}
}

// StateList returns the configured states, one run each.
func (c *Config) StateList() []string {
	if len(c.States) > 0 {
		return c.States
	}
	if c.State != "" {
		return []string{c.State}
	}
	return nil
}

// Validate checks everything that can be checked without touching data:
// state selection, source declarations, output formats, and the full
// mapping surface via Spec.
func (c *Config) Validate() error {
	if len(c.StateList()) == 0 {
		return fmt.Errorf("config: state or states is required")
	}
	if err := c.Left.Source.validate("left"); err != nil {
		return err
	}
	if err := c.Right.Source.validate("right"); err != nil {
		return err
	}
	for _, f := range c.Output.Formats {
		if f != "xlsx" && f != "json" {
			return fmt.Errorf("config: output.formats entry %q is not xlsx or json", f)
		}
	}
	if c.ChunkedLoading.Enabled && c.ChunkedLoading.ChunkSize <= 0 {
		return fmt.Errorf("config: chunked_loading.chunk_size must be positive when enabled")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("config: concurrency must be at least 1")
	}
	if c.Drilldown.LinkColumn != "" && !slices.Contains(c.Keys.Left, c.Drilldown.LinkColumn) {
		return fmt.Errorf("config: drilldown.link_column %q is not a left key column", c.Drilldown.LinkColumn)
	}
	if _, err := c.Spec(); err != nil {
		return err
	}
	return nil
}

func (s SourceConfig) validate(side string) error {
	switch s.Kind {
	case SourceCSV:
		if s.CSV == nil || s.CSV.SummaryPath == "" || s.CSV.DetailPath == "" {
			return fmt.Errorf("config: %s.source.csv requires summary_path and detail_path", side)
		}
	case SourceExcel:
		if s.Excel == nil || s.Excel.SummaryPath == "" || s.Excel.DetailPath == "" {
			return fmt.Errorf("config: %s.source.excel requires summary_path and detail_path", side)
		}
	case SourcePostgres:
		if s.Postgres == nil || s.Postgres.Host == "" || s.Postgres.Database == "" {
			return fmt.Errorf("config: %s.source.postgres requires host and database", side)
		}
		if s.Postgres.SummaryQuery == "" || s.Postgres.DetailQuery == "" {
			return fmt.Errorf("config: %s.source.postgres requires summary_query and detail_query", side)
		}
	case SourceMock:
	case "":
		return fmt.Errorf("config: %s.source.kind is required", side)
	default:
		return fmt.Errorf("config: %s.source.kind %q is not csv, excel, postgres or mock", side, s.Kind)
	}
	return nil
}

// Spec compiles the mapping surface into the engine's immutable run spec.
func (c *Config) Spec() (compare.Spec, error) {
	spec := compare.Spec{
		LeftKeys:    c.Keys.Left,
		RightKeys:   c.Keys.Right,
		LeftPrefix:  c.Left.Name,
		RightPrefix: c.Right.Name,
		Labels:      c.Output.Labels.toLabels(),
	}

	for _, cc := range c.Compare {
		m := compare.Mapping{
			Label:     cc.Label,
			Left:      cc.Left,
			Right:     cc.Right,
			Kind:      compare.Kind(cc.Kind),
			Tolerance: cc.Tolerance,
		}
		if cc.ValueMap != nil {
			m.Values = &compare.ValueMap{Left: cc.ValueMap.Left, Right: cc.ValueMap.Right}
		}
		spec.Compare = append(spec.Compare, m)
	}
	for _, ac := range c.Additional {
		spec.Additional = append(spec.Additional, compare.Mapping{
			Label: ac.Label,
			Left:  ac.Left,
			Right: ac.Right,
		})
	}

	if len(c.ColumnOrder) > 0 {
		entries, err := compare.ParseTemplate(c.ColumnOrder)
		if err != nil {
			return compare.Spec{}, err
		}
		spec.Order = entries
	}

	if err := spec.Validate(); err != nil {
		return compare.Spec{}, err
	}
	return spec, nil
}

func (l LabelsConfig) toLabels() compare.Labels {
	return compare.Labels{
		Match:            l.Match,
		Mismatch:         l.Mismatch,
		Warning:          l.Warning,
		OverallMatch:     l.OverallMatch,
		OverallMismatch:  l.OverallMismatch,
		OverallLeftOnly:  l.OverallLeftOnly,
		OverallRightOnly: l.OverallRightOnly,
		NALeftOnly:       l.NALeftOnly,
		NARightOnly:      l.NARightOnly,
		OneSideMissing:   l.NullVsValue,
		Higher:           l.Higher,
		Lower:            l.Lower,
		Same:             l.Same,
		MatchIndicator:   l.MatchIndicator,
		NoMatchIndicator: l.NoMatchIndicator,
	}
}

// DSN assembles a pgx connection string, reading the password from the
// configured environment variable.
func (p *PostgresSource) DSN() (string, error) {
	envVar := p.PasswordEnvVar
	if envVar == "" {
		envVar = "PARITY_DB_PASSWORD"
	}
	password := os.Getenv(envVar)
	if password == "" {
		return "", fmt.Errorf("config: database password not found; set %s", envVar)
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "prefer"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.Username, password, p.Host, port, p.Database, sslmode), nil
}
