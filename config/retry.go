package config

import (
	"fmt"
	"regexp"

	"github.com/retrack-dev/retrack/internal/domain/model"
)

// RetryStrategyConfig is the TOML shape of a task retry strategy.
type RetryStrategyConfig struct {
	// Type is one of constant, exponential or linear.
	Type string `toml:"type" env:"TYPE"`
	// Interval is the fixed delay of the constant strategy.
	Interval Duration `toml:"interval" env:"INTERVAL"`
	// Initial seeds the exponential and linear strategies.
	Initial Duration `toml:"initial" env:"INITIAL"`
	// Multiplier grows the exponential delay.
	Multiplier int `toml:"multiplier" env:"MULTIPLIER"`
	// Increment grows the linear delay per attempt.
	Increment Duration `toml:"increment" env:"INCREMENT"`
	// Max caps the exponential and linear delays.
	Max Duration `toml:"max" env:"MAX"`
	// MaxAttempts bounds delivery retries before the task is dropped.
	MaxAttempts int `toml:"max_attempts" env:"MAX_ATTEMPTS"`
}

// ToModel converts and validates the strategy.
func (c RetryStrategyConfig) ToModel() (model.RetryStrategy, error) {
	strategy := model.RetryStrategy{
		Type:            model.RetryStrategyType(c.Type),
		Interval:        model.Duration(c.Interval),
		InitialInterval: model.Duration(c.Initial),
		Multiplier:      c.Multiplier,
		Increment:       model.Duration(c.Increment),
		MaxInterval:     model.Duration(c.Max),
		MaxAttempts:     c.MaxAttempts,
	}
	if err := strategy.Validate(); err != nil {
		return model.RetryStrategy{}, fmt.Errorf("invalid retry strategy: %w", err)
	}
	return strategy, nil
}

// Compile builds the catch-all body matcher.
func (c CatchAllConfig) Compile() (*regexp.Regexp, error) {
	if c.TextMatcher == "" {
		return nil, fmt.Errorf("text matcher is required")
	}
	return regexp.Compile(c.TextMatcher)
}
