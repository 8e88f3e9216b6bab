package scripting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
)

// ConfiguratorScriptArgs is the JSON context passed to a configurator script.
type ConfiguratorScriptArgs struct {
	// Tags are the tracker's tags.
	Tags []string `json:"tags"`
	// PreviousContent is the latest revision value, when one exists.
	PreviousContent *model.TrackerDataValue `json:"previousContent,omitempty"`
	// Requests are the declared API requests, ready to be issued.
	Requests []model.APIRequest `json:"requests"`
}

// ConfiguratorScriptResponse is a response synthesized by a configurator
// script, bypassing HTTP entirely.
type ConfiguratorScriptResponse struct {
	Status  *int              `json:"status,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body"`
}

// ConfiguratorScriptResult is the union a configurator script returns: either
// a rewritten request list or a synthesized response.
type ConfiguratorScriptResult struct {
	Requests []model.APIRequest          `json:"requests,omitempty"`
	Response *ConfiguratorScriptResponse `json:"response,omitempty"`
}

// ExtractorScriptArgs is the JSON context passed to an extractor script.
type ExtractorScriptArgs struct {
	// PreviousContent is the latest revision value, when one exists.
	PreviousContent *model.TrackerDataValue `json:"previousContent,omitempty"`
	// Responses are the raw response bodies in declaration order.
	Responses []string `json:"responses"`
}

// Executor is the interface the pipeline uses to run scripts; satisfied by
// *Runtime.
type Executor interface {
	Execute(ctx context.Context, params ExecuteParams) (json.RawMessage, error)
}

// RunConfigurator executes a configurator script and validates its result.
// Returning both a request rewrite and a synthesized response is a script
// error rather than a guess at precedence.
func RunConfigurator(
	ctx context.Context,
	executor Executor,
	source string,
	args ConfiguratorScriptArgs,
	timeout time.Duration,
) (*ConfiguratorScriptResult, error) {
	raw, err := executor.Execute(ctx, ExecuteParams{Source: source, Args: args, Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("execute configurator script: %w", err)
	}

	var result ConfiguratorScriptResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeScript, "configurator script returned an unexpected value")
	}
	if len(result.Requests) > 0 && result.Response != nil {
		return nil, apperrors.Script("configurator script returned both requests and a response")
	}
	return &result, nil
}

// RunExtractor executes an extractor script against the collected response
// bodies and returns the candidate revision body.
func RunExtractor(
	ctx context.Context,
	executor Executor,
	source string,
	args ExtractorScriptArgs,
	timeout time.Duration,
) ([]byte, error) {
	raw, err := executor.Execute(ctx, ExecuteParams{Source: source, Args: args, Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("execute extractor script: %w", err)
	}

	// A plain string result is the body itself; anything else is kept as its
	// JSON encoding.
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return []byte(asString), nil
	}
	return raw, nil
}

// RunFormatter executes a formatter script against a revision value and
// returns the transformed JSON value.
func RunFormatter(
	ctx context.Context,
	executor Executor,
	source string,
	value json.RawMessage,
	timeout time.Duration,
) (json.RawMessage, error) {
	raw, err := executor.Execute(ctx, ExecuteParams{Source: source, Args: value, Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("execute formatter script: %w", err)
	}
	return raw, nil
}
