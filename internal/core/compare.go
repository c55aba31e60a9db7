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

// Package core drives complete reconciliation runs: one CompareTask per
// state, fanned out over a bounded worker pool when several states are
// configured.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parityworks/parity/internal/report"
	"github.com/parityworks/parity/internal/source"
	"github.com/parityworks/parity/pkg/compare"
	"github.com/parityworks/parity/pkg/config"
	"github.com/parityworks/parity/pkg/logger"
	"github.com/parityworks/parity/pkg/taskstore"
	"github.com/parityworks/parity/pkg/types"
)

// CompareTask reconciles one state end to end: load both sides, run the
// engine, aggregate, render reports, record the run in the task store.
type CompareTask struct {
	TaskID     string
	TaskStatus string

	Cfg   *config.Config
	State string

	QuietMode bool

	// Spec is derived from Cfg by Validate.
	Spec compare.Spec

	TaskStore     *taskstore.Store
	TaskStorePath string
	SkipDBUpdate  bool

	Ctx context.Context

	Result      *compare.Result
	Summary     *types.Summary
	ReportPaths []string

	leftSrc  source.Source
	rightSrc source.Source
}

func NewCompareTask(cfg *config.Config, state string) *CompareTask {
	return &CompareTask{
		TaskID:     uuid.NewString(),
		TaskStatus: taskstore.StatusPending,
		Cfg:        cfg,
		State:      state,
	}
}

// Validate checks the configuration and derives the run's spec and both
// sources. No data moves here.
func (t *CompareTask) Validate() error {
	if t.Cfg == nil {
		return fmt.Errorf("compare: configuration is required")
	}
	if strings.TrimSpace(t.State) == "" {
		return fmt.Errorf("compare: state is a required argument")
	}
	if err := t.Cfg.Validate(); err != nil {
		return err
	}

	spec, err := t.Cfg.Spec()
	if err != nil {
		return err
	}
	t.Spec = spec

	left, err := source.New(compare.SideLeft, t.Cfg.Left, spec.LeftKeys[0], t.Cfg.ChunkedLoading)
	if err != nil {
		return fmt.Errorf("left source: %w", err)
	}
	right, err := source.New(compare.SideRight, t.Cfg.Right, spec.RightKeys[0], t.Cfg.ChunkedLoading)
	if err != nil {
		return fmt.Errorf("right source: %w", err)
	}
	t.leftSrc, t.rightSrc = left, right
	return nil
}

// RunChecks verifies what can be verified before any data moves.
func (t *CompareTask) RunChecks(skipValidation bool) error {
	if !skipValidation {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(t.Cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("output dir %s is not writable: %w", t.Cfg.Output.Dir, err)
	}
	logger.Debug("Comparing %s against %s", t.leftSrc.Describe(), t.rightSrc.Describe())
	return nil
}

// ExecuteTask runs the comparison. The task record moves RUNNING ->
// COMPLETED/FAILED around it; a broken task store degrades to warnings
// and never fails the run.
func (t *CompareTask) ExecuteTask() (err error) {
	startTime := time.Now()

	if strings.TrimSpace(t.TaskID) == "" {
		t.TaskID = uuid.NewString()
	}
	t.TaskStatus = taskstore.StatusRunning

	ctx := t.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	var recorder *taskstore.Recorder
	if !t.SkipDBUpdate {
		rec, recErr := taskstore.NewRecorder(t.TaskStore, t.TaskStorePath)
		if recErr != nil {
			logger.Warn("compare: unable to initialise task store (%v)", recErr)
		} else {
			recorder = rec
			if t.TaskStore == nil && rec.Store() != nil {
				t.TaskStore = rec.Store()
			}
			record := taskstore.Record{
				TaskID:      t.TaskID,
				TaskType:    taskstore.TaskTypeCompare,
				Status:      taskstore.StatusRunning,
				State:       t.State,
				LeftSource:  t.leftSrc.Describe(),
				RightSource: t.rightSrc.Describe(),
				StartedAt:   startTime,
			}
			if createErr := recorder.Create(record); createErr != nil {
				logger.Warn("compare: unable to write initial task status (%v)", createErr)
			}
		}
	}

	defer func() {
		finishedAt := time.Now()
		timeTaken := finishedAt.Sub(startTime).Seconds()

		status := taskstore.StatusFailed
		if err == nil {
			status = taskstore.StatusCompleted
		}
		t.TaskStatus = status

		if recorder != nil && recorder.Created() {
			taskCtx := map[string]any{}
			if t.Summary != nil {
				taskCtx["total_rows"] = t.Summary.TotalRows
				taskCtx["matched_rows"] = t.Summary.MatchedRows
				taskCtx["mismatched_rows"] = t.Summary.MismatchedRows
				taskCtx["left_only_rows"] = t.Summary.LeftOnlyRows
				taskCtx["right_only_rows"] = t.Summary.RightOnlyRows
				taskCtx["match_rate"] = t.Summary.MatchRate
			}
			if err != nil {
				taskCtx["error"] = err.Error()
			}
			update := taskstore.Record{
				TaskID:      t.TaskID,
				Status:      status,
				FinishedAt:  finishedAt,
				TimeTaken:   timeTaken,
				TaskContext: taskCtx,
			}
			if len(t.ReportPaths) > 0 {
				update.ReportPath = strings.Join(t.ReportPaths, ", ")
			}
			if updateErr := recorder.Update(update); updateErr != nil {
				logger.Warn("compare: unable to update task status (%v)", updateErr)
			}
		}

		if recorder != nil && recorder.OwnsStore() {
			storePtr := recorder.Store()
			if closeErr := recorder.Close(); closeErr != nil {
				logger.Warn("compare: failed to close task store (%v)", closeErr)
			}
			if storePtr != nil && t.TaskStore == storePtr {
				t.TaskStore = nil
			}
		}
	}()

	lp, rp := t.prefixes()
	logger.Info("Starting comparison for state %s", t.State)

	left, err := t.leftSrc.Load(ctx, t.State)
	if err != nil {
		return fmt.Errorf("failed to load %s datasets: %w", lp, err)
	}
	logger.Info("%s: %d summary rows, %d detail rows", lp, left.Summary.Len(), left.Detail.Len())

	right, err := t.rightSrc.Load(ctx, t.State)
	if err != nil {
		return fmt.Errorf("failed to load %s datasets: %w", rp, err)
	}
	logger.Info("%s: %d summary rows, %d detail rows", rp, right.Summary.Len(), right.Detail.Len())

	res, err := compare.Run(t.Spec, left.Summary, right.Summary)
	if err != nil {
		return err
	}
	t.Result = res

	sum, err := compare.Summarize(t.Spec, res, compare.SummaryOptions{
		RegionColumn:   t.Cfg.Summary.RegionColumn,
		CategoryColumn: t.Cfg.Summary.CategoryColumn,
	})
	if err != nil {
		return err
	}
	sum.State = t.State
	sum.LeftSource = t.leftSrc.Describe()
	sum.RightSource = t.rightSrc.Describe()
	fillDatasetStats(sum, t.Cfg.Summary, left, right)

	endTime := time.Now()
	sum.StartTime = startTime.Format(time.RFC3339)
	sum.EndTime = endTime.Format(time.RFC3339)
	sum.TimeTaken = fmt.Sprintf("%.2fs", endTime.Sub(startTime).Seconds())
	t.Summary = sum

	in := report.Input{
		Spec:    t.Spec,
		Result:  res,
		Summary: sum,
		State:   t.State,

		OutputDir:  t.Cfg.Output.Dir,
		Prefix:     t.Cfg.Output.Prefix,
		Drilldown:  t.Cfg.Drilldown,
		SummaryCfg: t.Cfg.Summary,

		LeftSummary:  left.Summary,
		LeftDetail:   left.Detail,
		RightSummary: right.Summary,
		RightDetail:  right.Detail,

		Timestamp: startTime,
	}
	paths, err := report.Write(in, t.Cfg.Output.Formats)
	t.ReportPaths = paths
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}

	if !t.QuietMode {
		report.PrintSummary(in)
	}
	logger.Info("Comparison for %s finished in %.2fs", t.State, time.Since(startTime).Seconds())
	return nil
}

func (t *CompareTask) prefixes() (string, string) {
	lp, rp := t.Spec.LeftPrefix, t.Spec.RightPrefix
	if lp == "" {
		lp = "left"
	}
	if rp == "" {
		rp = "right"
	}
	return lp, rp
}

// fillDatasetStats computes the summary numbers that come from the raw
// datasets rather than the merged result.
func fillDatasetStats(sum *types.Summary, cfg config.SummaryConfig, left, right *source.Datasets) {
	if cfg.DetailIDColumn.Left != "" {
		sum.LeftDetailIDs = distinctCount(left.Detail, cfg.DetailIDColumn.Left)
	}
	if cfg.DetailIDColumn.Right != "" {
		sum.RightDetailIDs = distinctCount(right.Detail, cfg.DetailIDColumn.Right)
	}
	if cfg.ZeroColumn.Left != "" {
		sum.LeftZeroRows = zeroCount(left.Summary, cfg.ZeroColumn.Left)
	}
	if cfg.ZeroColumn.Right != "" {
		sum.RightZeroRows = zeroCount(right.Summary, cfg.ZeroColumn.Right)
	}
}

// distinctCount counts distinct non-null values of one column, normalized
// the same way key parts are so "007" and "7" collapse.
func distinctCount(ds *compare.Dataset, column string) int {
	if ds == nil || !ds.HasColumn(column) {
		return 0
	}
	seen := make(map[string]bool)
	for _, row := range ds.Rows {
		if part, ok := compare.NormalizeKeyPart(row[column]); ok {
			seen[part] = true
		}
	}
	return len(seen)
}

// zeroCount counts rows whose column normalizes to numeric zero.
func zeroCount(ds *compare.Dataset, column string) int {
	if ds == nil || !ds.HasColumn(column) {
		return 0
	}
	count := 0
	for _, row := range ds.Rows {
		if v, ok := compare.NormalizeValue(row[column]).(float64); ok && v == 0 {
			count++
		}
	}
	return count
}

// RunStates fans the configured comparison out over states, one
// independent task per state, at most cfg.Concurrency at a time. Every
// failed state is reported; the returned error joins them all.
func RunStates(ctx context.Context, cfg *config.Config, states []string, quiet bool) error {
	if len(states) == 0 {
		return fmt.Errorf("compare: no states to run")
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 2
	}
	if len(states) > 1 {
		logger.Info("Running %d states, %d at a time", len(states), concurrency)
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	errs := make([]error, len(states))

	for i, state := range states {
		wg.Add(1)
		go func(i int, state string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			task := NewCompareTask(cfg, state)
			task.QuietMode = quiet
			task.Ctx = ctx
			task.TaskStorePath = cfg.TaskDB
			if err := task.RunChecks(false); err != nil {
				errs[i] = fmt.Errorf("%s: %w", state, err)
				return
			}
			if err := task.ExecuteTask(); err != nil {
				errs[i] = fmt.Errorf("%s: %w", state, err)
			}
		}(i, state)
	}
	wg.Wait()
	return errors.Join(errs...)
}
