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

package cli

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/parityworks/parity/internal/core"
	"github.com/parityworks/parity/internal/scheduler"
	"github.com/parityworks/parity/pkg/config"
	"github.com/parityworks/parity/pkg/logger"
	"github.com/parityworks/parity/pkg/taskstore"
)

//go:embed default_config.yaml
var defaultConfigYAML string

func SetupCLI() *cli.App {
	compareFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "state",
			Aliases: []string{"s"},
			Usage:   "Comma-separated list of states to reconcile (default: from config)",
			Value:   "",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Whether to suppress the console summary",
			Value:   false,
		},
		&cli.BoolFlag{
			Name:    "schedule",
			Aliases: []string{"S"},
			Usage:   "Keep running the comparison on a schedule",
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "every",
			Aliases: []string{"e"},
			Usage:   "Time duration between scheduled runs (e.g., 30m, 6h)",
			Value:   "",
		},
		&cli.StringFlag{
			Name:  "cron",
			Usage: "Crontab expression for scheduled runs (e.g., '0 2 * * *')",
			Value: "",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
			Value:   false,
		},
	}

	mockgenFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "state",
			Aliases: []string{"s"},
			Usage:   "State code stamped on the generated rows",
			Value:   "TX",
		},
		&cli.Int64Flag{
			Name:  "seed",
			Usage: "Generator seed; the same seed always yields the same files",
			Value: 42,
		},
		&cli.IntFlag{
			Name:  "counties",
			Usage: "Number of counties to generate",
			Value: 8,
		},
		&cli.IntFlag{
			Name:  "specialties",
			Usage: "Number of specialties per county",
			Value: 6,
		},
		&cli.IntFlag{
			Name:  "providers",
			Usage: "Providers per county/specialty combination",
			Value: 4,
		},
		&cli.Float64Flag{
			Name:  "mismatch-rate",
			Usage: "Fraction of shared rows given a value discrepancy (0-1)",
			Value: 0.15,
		},
		&cli.Float64Flag{
			Name:  "only-rate",
			Usage: "Fraction of rows present on a single side only (0-0.5)",
			Value: 0.05,
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Directory to write the generated CSV files",
			Value:   "mock_data",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
			Value:   false,
		},
	}

	configInitFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "path",
			Aliases: []string{"p"},
			Usage:   "Path for the config file",
		},
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "Overwrite the file if it already exists",
		},
		&cli.BoolFlag{
			Name:    "stdout",
			Aliases: []string{"c"},
			Usage:   "Print the config to stdout instead of writing a file",
		},
	}

	taskListFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "state",
			Aliases: []string{"s"},
			Usage:   "Only show runs for this state",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of runs to show",
			Value:   20,
		},
	}

	app := &cli.App{
		Name:  "parity",
		Usage: "Parity - Tabular Data Reconciliation Engine",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Manage parity configuration files",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Create a default parity.yaml file",
						Flags:  configInitFlags,
						Action: ConfigInitCLI,
					},
				},
			},
			{
				Name:  "compare",
				Usage: "Reconcile the configured left and right datasets",
				Description: "Loads both sides for each selected state, joins them on the " +
					"configured keys, and writes the difference reports",
				Action: func(ctx *cli.Context) error {
					if ctx.Args().Len() > 0 {
						return fmt.Errorf("unexpected arguments for compare (states are passed with --state)")
					}
					return CompareCLI(ctx)
				},
				Flags: compareFlags,
				Before: func(ctx *cli.Context) error {
					if ctx.Bool("debug") {
						logger.SetLevel(log.DebugLevel)
					} else {
						logger.SetLevel(log.InfoLevel)
					}
					return nil
				},
			},
			{
				Name:  "mockgen",
				Usage: "Generate a seeded pair of mock extract files",
				Description: "Writes left and right CSV extracts with injected discrepancies, " +
					"shaped for a compare run against them",
				Flags:  mockgenFlags,
				Action: MockgenCLI,
				Before: func(ctx *cli.Context) error {
					if ctx.Bool("debug") {
						logger.SetLevel(log.DebugLevel)
					} else {
						logger.SetLevel(log.InfoLevel)
					}
					return nil
				},
			},
			{
				Name:  "task",
				Usage: "Inspect recorded runs",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List recorded runs, newest first",
						Flags:  taskListFlags,
						Action: TaskListCLI,
					},
					{
						Name:      "status",
						Usage:     "Show the full record of one run",
						ArgsUsage: "<task-id>",
						Action:    TaskStatusCLI,
					},
				},
			},
		},
	}

	return app
}

func CompareCLI(ctx *cli.Context) error {
	cfg := config.Cfg
	if cfg == nil {
		return fmt.Errorf("no configuration loaded; run 'parity config init' to create one")
	}

	states, err := core.ParseStates(ctx.String("state"), cfg)
	if err != nil {
		return err
	}
	quiet := ctx.Bool("quiet")

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !ctx.Bool("schedule") {
		if err := core.RunStates(runCtx, cfg, states, quiet); err != nil {
			return fmt.Errorf("error during comparison: %w", err)
		}
		return nil
	}

	every := ctx.String("every")
	cron := ctx.String("cron")
	if every == "" && cron == "" {
		return fmt.Errorf("--every or --cron is required with --schedule")
	}
	if every != "" && cron != "" {
		return fmt.Errorf("set either --every or --cron, not both")
	}

	job := scheduler.Job{
		Name:       fmt.Sprintf("compare:%s", strings.Join(states, ",")),
		Cron:       cron,
		RunOnStart: true,
		Task: func(taskCtx context.Context) error {
			if err := core.RunStates(taskCtx, cfg, states, quiet); err != nil {
				return fmt.Errorf("error during comparison: %w", err)
			}
			return nil
		},
	}
	if every != "" {
		freq, err := scheduler.ParseFrequency(every)
		if err != nil {
			return err
		}
		job.Frequency = freq
	}

	return scheduler.RunSingleJob(runCtx, job)
}

func MockgenCLI(ctx *cli.Context) error {
	settings := config.MockSource{
		Seed:         ctx.Int64("seed"),
		Counties:     ctx.Int("counties"),
		Specialties:  ctx.Int("specialties"),
		Providers:    ctx.Int("providers"),
		MismatchRate: ctx.Float64("mismatch-rate"),
		OnlyRate:     ctx.Float64("only-rate"),
		SaveDir:      ctx.String("out"),
	}

	task := core.NewMockgenTask(settings, ctx.String("state"))
	if config.Cfg != nil {
		task.TaskStorePath = config.Cfg.TaskDB
	}

	if err := task.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := task.ExecuteTask(); err != nil {
		return fmt.Errorf("error during generation: %w", err)
	}
	return nil
}

func initTemplateFile(ctx *cli.Context, content string, defaultPath string, label string, perm os.FileMode) error {
	outputPath := ctx.String("path")
	if outputPath == "" {
		outputPath = defaultPath
	}

	if ctx.Bool("stdout") || outputPath == "-" {
		fmt.Println(content)
		return nil
	}

	if !ctx.Bool("force") {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("%s already exists at %s (use --force to overwrite)", label, outputPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unable to verify existing %s at %s: %w", label, outputPath, err)
		}
	}

	dir := filepath.Dir(outputPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(outputPath, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write %s to %s: %w", label, outputPath, err)
	}

	fmt.Printf("Wrote %s to %s\n", label, outputPath)
	return nil
}

func ConfigInitCLI(ctx *cli.Context) error {
	return initTemplateFile(ctx, defaultConfigYAML, "parity.yaml", "config file", 0o644)
}

// openTaskStore opens the run history database named in the loaded config,
// falling back to the default resolution when no config is loaded.
func openTaskStore() (*taskstore.Store, error) {
	path := ""
	if config.Cfg != nil {
		path = config.Cfg.TaskDB
	}
	return taskstore.New(path)
}

func TaskListCLI(ctx *cli.Context) error {
	store, err := openTaskStore()
	if err != nil {
		return fmt.Errorf("unable to open task store: %w", err)
	}
	defer store.Close()

	recs, err := store.List(ctx.String("state"), ctx.Int("limit"))
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	fmt.Printf("%-36s  %-8s  %-9s  %-6s  %-19s  %s\n",
		"TASK ID", "TYPE", "STATUS", "STATE", "STARTED", "TIME")
	for _, rec := range recs {
		fmt.Printf("%-36s  %-8s  %-9s  %-6s  %-19s  %.2fs\n",
			rec.TaskID, rec.TaskType, rec.Status, rec.State,
			rec.StartedAt.Format("2006-01-02 15:04:05"), rec.TimeTaken)
	}
	return nil
}

func TaskStatusCLI(ctx *cli.Context) error {
	args := ctx.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("missing required argument for task status: needs <task-id>")
	}
	if len(args) > 1 {
		return fmt.Errorf("unexpected arguments for task status (usage: <task-id>)")
	}

	store, err := openTaskStore()
	if err != nil {
		return fmt.Errorf("unable to open task store: %w", err)
	}
	defer store.Close()

	rec, err := store.Get(args[0])
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			return fmt.Errorf("no run recorded with task ID %s", args[0])
		}
		return err
	}

	fmt.Printf("Task ID:      %s\n", rec.TaskID)
	fmt.Printf("Type:         %s\n", rec.TaskType)
	fmt.Printf("Status:       %s\n", rec.Status)
	fmt.Printf("State:        %s\n", rec.State)
	fmt.Printf("Left source:  %s\n", rec.LeftSource)
	fmt.Printf("Right source: %s\n", rec.RightSource)
	if rec.ReportPath != "" {
		fmt.Printf("Reports:      %s\n", rec.ReportPath)
	}
	fmt.Printf("Started:      %s\n", rec.StartedAt.Format(time.RFC3339))
	if !rec.FinishedAt.IsZero() {
		fmt.Printf("Finished:     %s\n", rec.FinishedAt.Format(time.RFC3339))
		fmt.Printf("Time taken:   %.2fs\n", rec.TimeTaken)
	}
	if rec.RawTaskContext != "" {
		fmt.Printf("Context:      %s\n", rec.RawTaskContext)
	}
	return nil
}
