package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatch_TriState(t *testing.T) {
	type params struct {
		Name *Patch[string]    `json:"name,omitempty"`
		Job  *Patch[JobConfig] `json:"job,omitempty"`
	}

	t.Run("untouched", func(t *testing.T) {
		var p params
		require.NoError(t, json.Unmarshal([]byte(`{}`), &p))
		assert.Nil(t, p.Name)
		assert.Nil(t, p.Job)
	})

	t.Run("cleared", func(t *testing.T) {
		var p params
		require.NoError(t, json.Unmarshal([]byte(`{"job":null}`), &p))
		require.NotNil(t, p.Job)
		assert.True(t, p.Job.Set())
		assert.Nil(t, p.Job.Value())
	})

	t.Run("replaced", func(t *testing.T) {
		var p params
		require.NoError(t, json.Unmarshal([]byte(`{"name":"new-name","job":{"schedule":"@hourly"}}`), &p))
		require.NotNil(t, p.Name)
		require.NotNil(t, p.Name.Value())
		assert.Equal(t, "new-name", *p.Name.Value())
		require.NotNil(t, p.Job.Value())
		assert.Equal(t, "@hourly", p.Job.Value().Schedule)
	})
}

func TestPatch_Apply(t *testing.T) {
	current := strPtr("old")

	assert.Equal(t, current, Patch[string]{}.Apply(current))
	assert.Nil(t, Clear[string]().Apply(current))

	replaced := Replace("new").Apply(current)
	require.NotNil(t, replaced)
	assert.Equal(t, "new", *replaced)
}

func TestSchedulerJob_Due(t *testing.T) {
	now := mustParseTime(t, "2026-01-02T15:04:05Z")
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name string
		job  SchedulerJob
		want bool
	}{
		{"next run in the past", SchedulerJob{NextRunAt: &past}, true},
		{"next run in the future", SchedulerJob{NextRunAt: &future}, false},
		{"no next run", SchedulerJob{}, false},
		{"stopped without retry", SchedulerJob{NextRunAt: &past, Stopped: true}, false},
		{
			"stopped with matured retry",
			SchedulerJob{Stopped: true, Retry: RetryMeta{Attempts: 1, NextAt: &past}},
			true,
		},
		{
			"stopped with pending retry",
			SchedulerJob{Stopped: true, Retry: RetryMeta{Attempts: 1, NextAt: &future}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.job.Due(now))
		})
	}
}

func TestJobConfig_Equal(t *testing.T) {
	base := &JobConfig{Schedule: "0 0 * * * *"}
	withRetry := &JobConfig{
		Schedule: "0 0 * * * *",
		RetryStrategy: &RetryStrategy{
			Type:        RetryStrategyConstant,
			Interval:    ms(time.Minute),
			MaxAttempts: 3,
		},
	}

	assert.True(t, base.Equal(&JobConfig{Schedule: "0 0 * * * *"}))
	assert.False(t, base.Equal(&JobConfig{Schedule: "@daily"}))
	assert.False(t, base.Equal(withRetry))
	assert.True(t, withRetry.Equal(withRetry))
	assert.False(t, base.Equal(nil))

	var nilConfig *JobConfig
	assert.True(t, nilConfig.Equal(nil))
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}
