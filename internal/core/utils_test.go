package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parityworks/parity/pkg/config"
)

func TestParseStates(t *testing.T) {
	cfg := &config.Config{States: []string{"TX", "CA"}}

	t.Run("argument wins over config", func(t *testing.T) {
		states, err := ParseStates("NY, NJ", cfg)
		require.NoError(t, err)
		require.Equal(t, []string{"NY", "NJ"}, states)
	})

	t.Run("config fallback", func(t *testing.T) {
		states, err := ParseStates("", cfg)
		require.NoError(t, err)
		require.Equal(t, []string{"TX", "CA"}, states)
	})

	t.Run("single state config", func(t *testing.T) {
		states, err := ParseStates("", &config.Config{State: "TX"})
		require.NoError(t, err)
		require.Equal(t, []string{"TX"}, states)
	})

	t.Run("duplicates dropped", func(t *testing.T) {
		states, err := ParseStates("TX,TX,CA", nil)
		require.NoError(t, err)
		require.Equal(t, []string{"TX", "CA"}, states)
	})

	t.Run("nothing selected", func(t *testing.T) {
		_, err := ParseStates("  ", nil)
		require.ErrorContains(t, err, "no state selected")
	})
}
