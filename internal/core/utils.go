package core

import (
	"fmt"
	"strings"

	"github.com/parityworks/parity/pkg/config"
	"github.com/parityworks/parity/pkg/logger"
)

// ParseStates resolves the run's state list. An explicit comma separated
// argument wins over the configured state/states; duplicates are dropped.
func ParseStates(arg string, cfg *config.Config) ([]string, error) {
	var states []string
	if strings.TrimSpace(arg) != "" {
		for _, s := range strings.Split(arg, ",") {
			if s = strings.TrimSpace(s); s != "" {
				states = append(states, s)
			}
		}
	} else if cfg != nil {
		states = cfg.StateList()
	}

	if len(states) > 0 {
		seen := make(map[string]bool)
		unique := []string{}

		for _, state := range states {
			if _, ok := seen[state]; !ok {
				seen[state] = true
				unique = append(unique, state)
			}
		}

		if len(unique) < len(states) {
			logger.Info("Ignoring duplicate state names")
			states = unique
		}
	}

	if len(states) == 0 {
		return nil, fmt.Errorf("no state selected; set state in the config or pass --state")
	}
	return states, nil
}
