package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{name: "minutes", raw: "5m", want: 5 * time.Minute},
		{name: "hours with whitespace", raw: " 6h ", want: 6 * time.Hour},
		{name: "empty", raw: "", wantErr: true},
		{name: "not a duration", raw: "nightly", wantErr: true},
		{name: "negative", raw: "-5m", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrequency(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRunJobsRunsOnStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	job := Job{
		Name:       "compare:TX",
		Frequency:  time.Hour,
		RunOnStart: true,
		Task: func(context.Context) error {
			runs.Add(1)
			cancel()
			return nil
		},
	}

	require.NoError(t, RunSingleJob(ctx, job))
	require.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestRunJobsFailureIsNotFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := Job{
		Name:       "compare:TX",
		Frequency:  time.Hour,
		RunOnStart: true,
		Task: func(context.Context) error {
			cancel()
			return fmt.Errorf("load failed")
		},
	}

	require.NoError(t, RunSingleJob(ctx, job))
}

func TestRunJobsValidates(t *testing.T) {
	ctx := context.Background()

	err := RunJobs(ctx, []Job{{Name: "no-task", Frequency: time.Hour}})
	require.ErrorContains(t, err, "has no task")

	err = RunJobs(ctx, []Job{{Name: "no-schedule", Task: func(context.Context) error { return nil }}})
	require.ErrorContains(t, err, "requires either frequency or cron")

	require.NoError(t, RunJobs(ctx, nil))
}
