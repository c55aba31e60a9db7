package compare

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeKeyPart(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
		ok    bool
	}{
		// Spreadsheet readers coerce zero padded codes into numbers, so the
		// padded and de-padded renderings must land on the same part.
		{"zero padded text", "011", "11", true},
		{"int", 11, "11", true},
		{"plain text digits", "11", "11", true},
		{"padded single digit", "007", "7", true},
		{"single digit int", 7, "7", true},
		{"unpadded code", "45130", "45130", true},
		{"all zeros collapse to one", "000", "0", true},
		{"zero", "0", "0", true},
		{"state abbreviation", "TX", "TX", true},
		{"whitespace trimmed", "  TX  ", "TX", true},
		{"whole float", float64(11), "11", true},
		{"fractional float", 11.5, "11.5", true},
		{"int64", int64(45130), "45130", true},
		{"mixed alphanumeric passes through", "A01", "A01", true},
		{"decimal text passes through", "11.0", "11.0", true},
		{"nil is null", nil, "", false},
		{"empty is null", "", "", false},
		{"whitespace only is null", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part, ok := NormalizeKeyPart(tt.input)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, part)
		})
	}
}

func TestNormalizeKeyPartIdempotent(t *testing.T) {
	inputs := []any{"011", 11, "45130", "TX", "0", 11.5, "A01"}
	for _, in := range inputs {
		once, ok := NormalizeKeyPart(in)
		require.True(t, ok)
		twice, ok := NormalizeKeyPart(once)
		require.True(t, ok)
		require.Equal(t, once, twice, "normalizing %v twice must not change it", in)
	}
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"percent text", "95.5%", 95.5},
		{"percent with inner space", "95.5 %", 95.5},
		{"percent with surrounding space", "  95.5%  ", 95.5},
		{"negative percent", "-5%", -5.0},
		{"numeric text", "123.45", 123.45},
		{"integer text", "100", 100.0},
		{"zero padded numeric text", "00123", 123.0},
		{"plain text", "hello", "hello"},
		{"trimmed text", "  hello  ", "hello"},
		{"percent sign without number stays text", "n/a %", "n/a %"},
		{"float passes through", 95.5, 95.5},
		{"int becomes float", 15, 15.0},
		{"int64 becomes float", int64(15), 15.0},
		{"nil stays nil", nil, nil},
		{"empty text becomes nil", "", nil},
		{"whitespace only becomes nil", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeValue(tt.input))
		})
	}
}

func TestNormalizeValueIdempotent(t *testing.T) {
	inputs := []any{"95.5%", "123.45", "hello", 95.5, 15, nil, ""}
	for _, in := range inputs {
		once := NormalizeValue(in)
		require.Equal(t, once, NormalizeValue(once))
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"whole float without decimals", float64(3000), "3000"},
		// Large counts must never render in scientific notation.
		{"large float", float64(15000000), "15000000"},
		{"fractional float", 95.5, "95.5"},
		{"negative float", -5.5, "-5.5"},
		{"int", 42, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatValue(tt.input))
		})
	}
}
