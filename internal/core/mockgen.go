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

package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parityworks/parity/internal/mock"
	"github.com/parityworks/parity/pkg/config"
	"github.com/parityworks/parity/pkg/logger"
	"github.com/parityworks/parity/pkg/taskstore"
)

// MockgenTask generates a seeded pair of mock extract files for one state
// and records the run in the task store. The generated CSVs are shaped like
// a real left/right extract pair, discrepancies included, so a compare run
// against them exercises every verdict.
type MockgenTask struct {
	TaskID     string
	TaskStatus string

	Settings config.MockSource
	State    string

	TaskStore     *taskstore.Store
	TaskStorePath string
	SkipDBUpdate  bool

	Pair *mock.Pair
}

// NewMockgenTask builds a pending generation task for one state.
func NewMockgenTask(settings config.MockSource, state string) *MockgenTask {
	return &MockgenTask{
		TaskID:     uuid.NewString(),
		TaskStatus: taskstore.StatusPending,
		Settings:   settings,
		State:      state,
	}
}

// Validate checks the task arguments before any generation work starts.
func (t *MockgenTask) Validate() error {
	if strings.TrimSpace(t.State) == "" {
		return fmt.Errorf("mockgen: state is a required argument")
	}
	if t.Settings.SaveDir == "" {
		return fmt.Errorf("mockgen: an output directory is required")
	}
	if t.Settings.MismatchRate < 0 || t.Settings.MismatchRate > 1 {
		return fmt.Errorf("mockgen: mismatch rate must be between 0 and 1")
	}
	if t.Settings.OnlyRate < 0 || t.Settings.OnlyRate >= 0.5 {
		return fmt.Errorf("mockgen: only rate must be between 0 and 0.5")
	}
	return nil
}

// ExecuteTask generates the pair, writes it to the save directory, and
// records the outcome.
func (t *MockgenTask) ExecuteTask() (err error) {
	startedAt := time.Now()
	if t.TaskID == "" {
		t.TaskID = uuid.NewString()
	}
	t.TaskStatus = taskstore.StatusRunning

	source := fmt.Sprintf("mock:seed=%d", mock.Seed(&t.Settings))

	var recorder *taskstore.Recorder
	if !t.SkipDBUpdate {
		recorder, err = taskstore.NewRecorder(t.TaskStore, t.TaskStorePath)
		if err != nil {
			logger.Warn("mockgen: unable to initialise task store (%v); run will not be recorded", err)
			err = nil
		} else {
			t.TaskStore = recorder.Store()
			if createErr := recorder.Create(taskstore.Record{
				TaskID:      t.TaskID,
				TaskType:    taskstore.TaskTypeMockgen,
				Status:      taskstore.StatusRunning,
				State:       t.State,
				LeftSource:  source,
				RightSource: source,
				StartedAt:   startedAt,
			}); createErr != nil {
				logger.Warn("mockgen: unable to record task start: %v", createErr)
			}
		}
	}

	defer func() {
		finishedAt := time.Now()
		if err != nil {
			t.TaskStatus = taskstore.StatusFailed
		} else {
			t.TaskStatus = taskstore.StatusCompleted
		}
		if recorder == nil || !recorder.Created() {
			return
		}
		taskCtx := map[string]any{"save_dir": t.Settings.SaveDir}
		if t.Pair != nil {
			taskCtx["left_rows"] = t.Pair.Left.Summary.Len()
			taskCtx["right_rows"] = t.Pair.Right.Summary.Len()
			taskCtx["mismatched"] = t.Pair.Mismatched
			taskCtx["left_only"] = t.Pair.LeftOnly
			taskCtx["right_only"] = t.Pair.RightOnly
		}
		if err != nil {
			taskCtx["error"] = err.Error()
		}
		upd := taskstore.Record{
			TaskID:      t.TaskID,
			Status:      t.TaskStatus,
			FinishedAt:  finishedAt,
			TimeTaken:   finishedAt.Sub(startedAt).Seconds(),
			TaskContext: taskCtx,
		}
		if err == nil {
			upd.ReportPath = t.Settings.SaveDir
		}
		if updErr := recorder.Update(upd); updErr != nil {
			logger.Warn("mockgen: unable to record task result: %v", updErr)
		}
		if recorder.OwnsStore() {
			if closeErr := recorder.Close(); closeErr != nil {
				logger.Warn("mockgen: closing task store: %v", closeErr)
			}
			t.TaskStore = nil
		}
	}()

	logger.Info("Generating mock datasets for state %s into %s (seed %d)",
		t.State, t.Settings.SaveDir, mock.Seed(&t.Settings))

	pair, err := mock.Generate(&t.Settings, t.State)
	if err != nil {
		return fmt.Errorf("failed to generate mock datasets: %w", err)
	}
	t.Pair = pair

	logger.Info("Mock CSV files written to %s", t.Settings.SaveDir)
	return nil
}
