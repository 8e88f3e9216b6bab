package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(d time.Duration) Duration {
	return Duration(d)
}

func TestRetryStrategy_DelayForAttempt_Exponential(t *testing.T) {
	// initial=1s multiplier=2 max=10s → 1,2,4,8,10 across attempts 1..5.
	strategy := RetryStrategy{
		Type:            RetryStrategyExponential,
		InitialInterval: ms(time.Second),
		Multiplier:      2,
		MaxInterval:     ms(10 * time.Second),
		MaxAttempts:     5,
	}

	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
	}
	for attempt, expected := range want {
		assert.Equal(t, expected, strategy.DelayForAttempt(attempt+1), "attempt %d", attempt+1)
	}
}

func TestRetryStrategy_DelayForAttempt_Constant(t *testing.T) {
	strategy := RetryStrategy{
		Type:        RetryStrategyConstant,
		Interval:    ms(30 * time.Second),
		MaxAttempts: 3,
	}

	for attempt := 1; attempt <= 5; attempt++ {
		assert.Equal(t, 30*time.Second, strategy.DelayForAttempt(attempt))
	}
}

func TestRetryStrategy_DelayForAttempt_Linear(t *testing.T) {
	strategy := RetryStrategy{
		Type:            RetryStrategyLinear,
		InitialInterval: ms(time.Second),
		Increment:       ms(2 * time.Second),
		MaxInterval:     ms(6 * time.Second),
		MaxAttempts:     5,
	}

	want := []time.Duration{
		time.Second,
		3 * time.Second,
		5 * time.Second,
		6 * time.Second,
		6 * time.Second,
	}
	for attempt, expected := range want {
		assert.Equal(t, expected, strategy.DelayForAttempt(attempt+1), "attempt %d", attempt+1)
	}
}

func TestRetryStrategy_MinInterval(t *testing.T) {
	tests := []struct {
		name     string
		strategy RetryStrategy
		want     time.Duration
	}{
		{
			name:     "constant",
			strategy: RetryStrategy{Type: RetryStrategyConstant, Interval: ms(time.Minute), MaxAttempts: 1},
			want:     time.Minute,
		},
		{
			name: "exponential",
			strategy: RetryStrategy{
				Type:            RetryStrategyExponential,
				InitialInterval: ms(5 * time.Second),
				Multiplier:      2,
				MaxInterval:     ms(time.Minute),
				MaxAttempts:     3,
			},
			want: 5 * time.Second,
		},
		{
			name: "linear",
			strategy: RetryStrategy{
				Type:            RetryStrategyLinear,
				InitialInterval: ms(2 * time.Second),
				Increment:       ms(time.Second),
				MaxInterval:     ms(time.Minute),
				MaxAttempts:     3,
			},
			want: 2 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.strategy.MinInterval())
		})
	}
}

func TestRetryStrategy_Validate(t *testing.T) {
	tests := []struct {
		name     string
		strategy RetryStrategy
		wantErr  bool
	}{
		{
			name:     "valid constant",
			strategy: RetryStrategy{Type: RetryStrategyConstant, Interval: ms(time.Second), MaxAttempts: 1},
		},
		{
			name:     "constant without interval",
			strategy: RetryStrategy{Type: RetryStrategyConstant, MaxAttempts: 1},
			wantErr:  true,
		},
		{
			name:     "zero attempts",
			strategy: RetryStrategy{Type: RetryStrategyConstant, Interval: ms(time.Second)},
			wantErr:  true,
		},
		{
			name: "exponential max below initial",
			strategy: RetryStrategy{
				Type:            RetryStrategyExponential,
				InitialInterval: ms(time.Minute),
				Multiplier:      2,
				MaxInterval:     ms(time.Second),
				MaxAttempts:     3,
			},
			wantErr: true,
		},
		{
			name: "exponential zero multiplier",
			strategy: RetryStrategy{
				Type:            RetryStrategyExponential,
				InitialInterval: ms(time.Second),
				MaxInterval:     ms(time.Minute),
				MaxAttempts:     3,
			},
			wantErr: true,
		},
		{
			name:     "unknown type",
			strategy: RetryStrategy{Type: "quadratic", MaxAttempts: 3},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.strategy.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
