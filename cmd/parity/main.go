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

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/parityworks/parity/internal/cli"
	"github.com/parityworks/parity/pkg/config"
	"github.com/parityworks/parity/pkg/logger"
)

func main() {
	args := os.Args[1:]
	if !shouldSkipConfig(args) {
		var cfgPath string
		potentialPaths := []string{}

		// This is the order of precedence for finding the config file.
		// 1. env var (PARITY_CONFIG)
		// 2. current dir
		// 3. $HOME/.config/parity/
		// 4. /etc/parity/
		if envPath := os.Getenv("PARITY_CONFIG"); envPath != "" {
			potentialPaths = append(potentialPaths, envPath)
		}

		potentialPaths = append(potentialPaths, "parity.yaml")
		if home, err := os.UserHomeDir(); err == nil {
			p := filepath.Join(home, ".config", "parity", "parity.yaml")
			potentialPaths = append(potentialPaths, p)
		}

		potentialPaths = append(potentialPaths, "/etc/parity/parity.yaml")

		for _, p := range potentialPaths {
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
				break
			}
		}

		switch {
		case cfgPath != "":
			if err := config.Init(cfgPath); err != nil {
				logger.Fatal("loading config (%s): %v", cfgPath, err)
			}
		case configRequired(args):
			logger.Fatal("config file 'parity.yaml' not found")
		}
	}

	app := cli.SetupCLI()
	err := app.Run(os.Args)
	if err != nil {
		logger.Error("%v", err)
	}
}

// shouldSkipConfig reports whether this invocation never reads the config,
// so the file is not even searched for (help output and config init).
func shouldSkipConfig(args []string) bool {
	if len(args) == 0 {
		return true
	}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" || arg == "help" {
			return true
		}
	}

	var commandPath []string
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if strings.HasPrefix(arg, "-") {
			continue
		}
		commandPath = append(commandPath, arg)
		if len(commandPath) >= 2 {
			break
		}
	}

	if len(commandPath) == 0 {
		return true
	}

	if commandPath[0] == "config" {
		if len(commandPath) == 1 || commandPath[1] == "init" {
			return true
		}
	}

	return false
}

// configRequired reports whether the command cannot run without a loaded
// config. mockgen and task inspection are flag-driven and only borrow the
// task DB path from the config when one happens to be present.
func configRequired(args []string) bool {
	cmd := firstCommand(args)
	return cmd != "mockgen" && cmd != "task"
}

func firstCommand(args []string) string {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if strings.HasPrefix(arg, "-") {
			continue
		}
		return arg
	}
	return ""
}
