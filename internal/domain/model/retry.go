package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// RetryStrategyType discriminates retry strategy variants.
type RetryStrategyType string

const (
	// RetryStrategyConstant waits a fixed interval between attempts.
	RetryStrategyConstant RetryStrategyType = "constant"
	// RetryStrategyExponential multiplies the interval after every attempt,
	// capped at a maximum.
	RetryStrategyExponential RetryStrategyType = "exponential"
	// RetryStrategyLinear adds a fixed increment after every attempt, capped
	// at a maximum.
	RetryStrategyLinear RetryStrategyType = "linear"
)

// Valid returns true if the retry strategy type is a known variant.
func (t RetryStrategyType) Valid() bool {
	switch t {
	case RetryStrategyConstant, RetryStrategyExponential, RetryStrategyLinear:
		return true
	default:
		return false
	}
}

// RetryStrategy describes how failed fetches or tasks are retried. It is a
// tagged union; only the fields of the active variant are meaningful.
type RetryStrategy struct {
	Type RetryStrategyType `json:"type"`
	// Interval is the fixed delay of the constant strategy.
	Interval Duration `json:"interval,omitempty"`
	// InitialInterval seeds the exponential and linear strategies.
	InitialInterval Duration `json:"initialInterval,omitempty"`
	// Multiplier grows the exponential delay (≥ 1).
	Multiplier int `json:"multiplier,omitempty"`
	// Increment grows the linear delay per attempt.
	Increment Duration `json:"increment,omitempty"`
	// MaxInterval caps the exponential and linear delays.
	MaxInterval Duration `json:"maxInterval,omitempty"`
	// MaxAttempts bounds the number of retries before the failure is final.
	MaxAttempts int `json:"maxAttempts"`
}

// DelayForAttempt returns the delay preceding the given attempt (1-based).
func (s RetryStrategy) DelayForAttempt(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	switch s.Type {
	case RetryStrategyConstant:
		return s.Interval.Std()
	case RetryStrategyExponential:
		delay := s.InitialInterval.Std()
		maxDelay := s.MaxInterval.Std()
		for i := 1; i < attempt; i++ {
			delay *= time.Duration(s.Multiplier)
			if delay >= maxDelay {
				return maxDelay
			}
		}
		return min(delay, maxDelay)
	case RetryStrategyLinear:
		delay := s.InitialInterval.Std() + s.Increment.Std()*time.Duration(attempt-1)
		return min(delay, s.MaxInterval.Std())
	default:
		return 0
	}
}

// MinInterval returns the smallest delay the strategy can produce, used to
// enforce the server's retry interval floor.
func (s RetryStrategy) MinInterval() time.Duration {
	switch s.Type {
	case RetryStrategyConstant:
		return s.Interval.Std()
	case RetryStrategyExponential, RetryStrategyLinear:
		return s.InitialInterval.Std()
	default:
		return 0
	}
}

// Validate checks the variant-specific field constraints.
func (s RetryStrategy) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("unknown retry strategy type %q", s.Type)
	}
	if s.MaxAttempts < 1 {
		return fmt.Errorf("retry strategy requires at least one attempt")
	}

	switch s.Type {
	case RetryStrategyConstant:
		if s.Interval <= 0 {
			return fmt.Errorf("constant retry strategy requires a positive interval")
		}
	case RetryStrategyExponential:
		if s.InitialInterval <= 0 || s.MaxInterval < s.InitialInterval {
			return fmt.Errorf("exponential retry strategy requires 0 < initial ≤ max interval")
		}
		if s.Multiplier < 1 {
			return fmt.Errorf("exponential retry strategy requires a multiplier ≥ 1")
		}
	case RetryStrategyLinear:
		if s.InitialInterval <= 0 || s.MaxInterval < s.InitialInterval {
			return fmt.Errorf("linear retry strategy requires 0 < initial ≤ max interval")
		}
		if s.Increment < 0 {
			return fmt.Errorf("linear retry strategy requires a non-negative increment")
		}
	}
	return nil
}

// UnmarshalJSON decodes the strategy and rejects unknown variants early.
func (s *RetryStrategy) UnmarshalJSON(data []byte) error {
	type plain RetryStrategy
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if !RetryStrategyType(decoded.Type).Valid() {
		return fmt.Errorf("unknown retry strategy type %q", decoded.Type)
	}
	*s = RetryStrategy(decoded)
	return nil
}
