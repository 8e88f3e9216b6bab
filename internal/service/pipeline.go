package service

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retrack-dev/retrack/internal/core"
	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
	"github.com/retrack-dev/retrack/internal/scraper"
	"github.com/retrack-dev/retrack/internal/scripting"
)

// maxFetchErrorBodyBytes bounds how much of a failed response is quoted in
// the error message.
const maxFetchErrorBodyBytes = 1024

// PipelineStores groups the persistence dependencies of the pipeline.
type PipelineStores struct {
	Trackers      core.TrackerRepository
	Revisions     core.RevisionRepository
	Jobs          core.SchedulerJobRepository
	Notifications core.NotificationRepository
}

// PipelineEngines groups the execution dependencies of the pipeline.
type PipelineEngines struct {
	Scripts core.ScriptExecutor
	Scraper core.PageScraper
	Parsers core.ContentParser
	Guard   core.URLGuard
}

// PipelineOptions groups dependencies for Pipeline.
type PipelineOptions struct {
	Stores  PipelineStores
	Engines PipelineEngines
	// Tasks receives the email and webhook fan-out.
	Tasks *TasksService
	// HTTPClient issues API target requests. A TLS-relaxed variant is derived
	// from it for requests that accept invalid certificates.
	HTTPClient *http.Client
	Policy     core.TrackersPolicy
}

// Pipeline runs a single tracker fetch cycle: configure, fetch, extract,
// parse, persist, notify.
type Pipeline struct {
	stores   PipelineStores
	engines  PipelineEngines
	tasks    *TasksService
	http     *http.Client
	insecure *http.Client
	policy   core.TrackersPolicy
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline constructs a Pipeline.
func NewPipeline(opts PipelineOptions, logger *slog.Logger) *Pipeline {
	if opts.Stores.Trackers == nil || opts.Stores.Revisions == nil ||
		opts.Stores.Jobs == nil || opts.Stores.Notifications == nil {
		panic("pipeline stores are required")
	}
	if opts.Engines.Scripts == nil || opts.Engines.Scraper == nil || opts.Engines.Parsers == nil {
		panic("pipeline engines are required")
	}
	if opts.Policy.RestrictToPublicURLs && opts.Engines.Guard == nil {
		panic("URLGuard is required when trackers are restricted to public URLs")
	}
	if opts.Tasks == nil {
		panic("TasksService is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// No client-level timeout on either client: requests are bounded per call
	// by the tracker-derived context deadline, which may exceed any fixed cap.
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	insecure := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 -- per-request opt-in
		},
	}

	return &Pipeline{
		stores:   opts.Stores,
		engines:  opts.Engines,
		tasks:    opts.Tasks,
		http:     httpClient,
		insecure: insecure,
		policy:   opts.Policy,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes a manual fetch cycle for a tracker, bypassing its schedule.
func (p *Pipeline) Run(ctx context.Context, trackerID uuid.UUID) error {
	tracker, err := p.stores.Trackers.Get(ctx, trackerID)
	if err != nil {
		return err
	}
	if !tracker.Enabled {
		return apperrors.Validation("tracker is disabled")
	}
	if tracker.Config.Revisions == 0 {
		return apperrors.Validation("tracker does not keep revisions")
	}
	return p.runOnce(ctx, tracker)
}

// RunScheduled executes one scheduled fetch cycle for a per-tracker job,
// applying the tracker's retry strategy on failure. Fetch failures are
// absorbed here; a non-nil return means the job itself is broken.
func (p *Pipeline) RunScheduled(ctx context.Context, job model.SchedulerJob) error {
	if job.TrackerID == nil {
		return apperrors.Internalf("scheduler job %s has no tracker", job.ID)
	}

	tracker, err := p.stores.Trackers.Get(ctx, *job.TrackerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// The tracker is gone; drop the orphaned job row.
			return p.stores.Jobs.Delete(ctx, job.ID)
		}
		return err
	}

	// Display-only and unscheduled trackers lose their job row.
	if !tracker.Enabled || tracker.Config.Revisions == 0 || tracker.Config.Job == nil {
		return p.removeTrackerJob(ctx, tracker, job.ID)
	}

	runErr := p.runOnce(ctx, tracker)
	if runErr == nil {
		if job.Retry.Attempts > 0 {
			if err := p.stores.Jobs.ClearRetry(ctx, job.ID); err != nil {
				return fmt.Errorf("clear retry state: %w", err)
			}
		}
		return nil
	}
	if apperrors.IsCanceled(runErr) {
		return runErr
	}

	return p.handleRunFailure(ctx, tracker, job, runErr)
}

// handleRunFailure defers the job per its retry strategy, or notifies the
// final failure once the budget is spent.
func (p *Pipeline) handleRunFailure(
	ctx context.Context,
	tracker model.Tracker,
	job model.SchedulerJob,
	runErr error,
) error {
	strategy := tracker.Config.Job.RetryStrategy
	if strategy != nil && job.Retry.Attempts < strategy.MaxAttempts {
		attempt := job.Retry.Attempts + 1
		nextAt := p.now().UTC().Add(strategy.DelayForAttempt(attempt))
		p.logger.WarnContext(ctx, "tracker fetch failed, scheduling retry",
			"tracker_id", tracker.ID, "attempt", attempt, "next_at", nextAt, "error", runErr)
		if err := p.stores.Jobs.SetRetry(ctx, job.ID, model.RetryMeta{
			Attempts: attempt,
			NextAt:   &nextAt,
		}); err != nil {
			return fmt.Errorf("persist retry state: %w", err)
		}
		return nil
	}

	p.logger.ErrorContext(ctx, "tracker fetch failed permanently",
		"tracker_id", tracker.ID, "attempts", job.Retry.Attempts, "error", runErr)
	p.notify(ctx, tracker, model.ErrResult(runErr.Error()))

	if job.Retry.Attempts > 0 {
		if err := p.stores.Jobs.ClearRetry(ctx, job.ID); err != nil {
			return fmt.Errorf("clear retry state: %w", err)
		}
	}
	return nil
}

// removeTrackerJob drops a per-tracker job row and unbinds it from the
// tracker.
func (p *Pipeline) removeTrackerJob(ctx context.Context, tracker model.Tracker, jobID uuid.UUID) error {
	if err := p.stores.Jobs.Delete(ctx, jobID); err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("remove tracker job: %w", err)
	}
	if err := p.stores.Trackers.SetJobID(ctx, tracker.ID, nil); err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("unbind tracker job: %w", err)
	}
	p.logger.InfoContext(ctx, "removed scheduler job for unschedulable tracker",
		"tracker_id", tracker.ID, "job_id", jobID)
	return nil
}

// fetchedBody is one collected response body plus the media type that should
// drive its parsing.
type fetchedBody struct {
	data      []byte
	mediaType string
}

// runOnce performs the fetch cycle itself. Any returned error is a failed
// cycle subject to the caller's retry handling.
func (p *Pipeline) runOnce(ctx context.Context, tracker model.Tracker) error {
	start := p.now()

	previous, err := p.latestValue(ctx, tracker.ID)
	if err != nil {
		return err
	}

	bodies, err := p.collectResponses(ctx, tracker, previous)
	if err != nil {
		return err
	}

	candidate, err := p.extract(ctx, tracker, previous, bodies)
	if err != nil {
		return err
	}

	parsed, err := p.engines.Parsers.Parse(candidate.mediaType, candidate.data)
	if err != nil {
		return err
	}

	revision, changed, err := p.stores.Revisions.AppendIfChanged(
		ctx, tracker.ID, model.NewTrackerDataValue(asJSON(parsed)), tracker.Config.Revisions,
	)
	if err != nil {
		return fmt.Errorf("persist revision: %w", err)
	}
	if !changed {
		p.logger.DebugContext(ctx, "tracker content unchanged",
			"tracker_id", tracker.ID, "duration", time.Since(start))
		return nil
	}

	p.logger.InfoContext(ctx, "tracker recorded new revision",
		"tracker_id", tracker.ID, "revision_id", revision.ID, "duration", time.Since(start))
	p.notify(ctx, tracker, model.OkResult(revision.Data.Value()))
	return nil
}

// latestValue returns the latest revision value, or nil for a fresh tracker.
func (p *Pipeline) latestValue(ctx context.Context, trackerID uuid.UUID) (*model.TrackerDataValue, error) {
	latest, err := p.stores.Revisions.Latest(ctx, trackerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load latest revision: %w", err)
	}
	return &latest.Data, nil
}

// collectResponses runs steps two to four: configure requests, apply the
// network guard, and issue the fetches.
func (p *Pipeline) collectResponses(
	ctx context.Context,
	tracker model.Tracker,
	previous *model.TrackerDataValue,
) ([]fetchedBody, error) {
	switch tracker.Target.Type {
	case model.TargetTypePage:
		return p.fetchPage(ctx, tracker, previous)
	case model.TargetTypeAPI:
		return p.fetchAPI(ctx, tracker, previous)
	default:
		return nil, apperrors.Validationf("unknown target type %q", tracker.Target.Type)
	}
}

func (p *Pipeline) fetchPage(
	ctx context.Context,
	tracker model.Tracker,
	previous *model.TrackerDataValue,
) ([]fetchedBody, error) {
	page := tracker.Target.Page
	body, err := p.engines.Scraper.Execute(ctx, scraper.ExecuteRequest{
		Extractor:                 page.Extractor,
		ExtractorParams:           page.Params,
		Tags:                      tracker.Tags,
		PreviousContent:           previous,
		UserAgent:                 page.UserAgent,
		AcceptInvalidCertificates: page.AcceptInvalidCertificates,
		Timeout:                   tracker.Config.Timeout,
		Engine:                    page.Engine,
	})
	if err != nil {
		return nil, err
	}
	return []fetchedBody{{data: body, mediaType: "application/json"}}, nil
}

func (p *Pipeline) fetchAPI(
	ctx context.Context,
	tracker model.Tracker,
	previous *model.TrackerDataValue,
) ([]fetchedBody, error) {
	api := tracker.Target.API
	requests := api.Requests

	if api.Configurator != nil {
		result, err := scripting.RunConfigurator(ctx, p.engines.Scripts, *api.Configurator,
			scripting.ConfiguratorScriptArgs{
				Tags:            tracker.Tags,
				PreviousContent: previous,
				Requests:        requests,
			}, tracker.Config.Timeout.Std())
		if err != nil {
			return nil, err
		}
		if result.Response != nil {
			// The configurator synthesized the response; no HTTP happens.
			return []fetchedBody{{
				data:      result.Response.Body,
				mediaType: synthesizedMediaType(result.Response.Headers),
			}}, nil
		}
		if len(result.Requests) > 0 {
			requests = result.Requests
		}
	}

	if p.policy.RestrictToPublicURLs {
		for _, request := range requests {
			if !p.engines.Guard.IsPublicWebURL(ctx, request.URL) {
				return nil, apperrors.Validationf("url %q is not publicly reachable", request.URL)
			}
		}
	}

	bodies := make([]fetchedBody, 0, len(requests))
	for _, request := range requests {
		body, err := p.issueRequest(ctx, request, tracker.Config.Timeout.Std())
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	return bodies, nil
}

// synthesizedMediaType reads a content type from configurator-synthesized
// response headers, defaulting to JSON.
func synthesizedMediaType(headers map[string]string) string {
	for name, value := range headers {
		if strings.EqualFold(name, "Content-Type") {
			return value
		}
	}
	return "application/json"
}

// issueRequest performs one declared API request under the tracker timeout.
func (p *Pipeline) issueRequest(
	ctx context.Context,
	request model.APIRequest,
	timeout time.Duration,
) (fetchedBody, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	method := http.MethodGet
	if request.Method != nil {
		method = strings.ToUpper(*request.Method)
	}
	var payload io.Reader
	if len(request.Body) > 0 {
		payload = strings.NewReader(string(request.Body))
	}

	req, err := http.NewRequestWithContext(ctx, method, request.URL, payload)
	if err != nil {
		return fetchedBody{}, apperrors.Wrapf(err, apperrors.ErrCodeFetch,
			"build request to %q", request.URL)
	}
	for name, value := range request.Headers {
		req.Header.Set(name, value)
	}

	client := p.http
	if request.AcceptInvalidCertificates {
		client = p.insecure
	}
	resp, err := client.Do(req)
	if err != nil {
		return fetchedBody{}, apperrors.Wrapf(err, apperrors.ErrCodeFetch,
			"request to %q failed", request.URL)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if !acceptedStatus(resp.StatusCode, request.AcceptStatuses) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxFetchErrorBodyBytes))
		return fetchedBody{}, apperrors.Fetchf("request to %q returned status %d: %s",
			request.URL, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fetchedBody{}, apperrors.Wrapf(err, apperrors.ErrCodeFetch,
			"read response from %q", request.URL)
	}

	mediaType := resp.Header.Get("Content-Type")
	if request.MediaType != nil {
		mediaType = *request.MediaType
	}
	return fetchedBody{data: data, mediaType: mediaType}, nil
}

func acceptedStatus(status int, accept []int) bool {
	if status >= 200 && status < 300 {
		return true
	}
	for _, code := range accept {
		if status == code {
			return true
		}
	}
	return false
}

// extract reduces the collected bodies to the single candidate revision body.
func (p *Pipeline) extract(
	ctx context.Context,
	tracker model.Tracker,
	previous *model.TrackerDataValue,
	bodies []fetchedBody,
) (fetchedBody, error) {
	if len(bodies) == 0 {
		return fetchedBody{}, apperrors.Fetch("tracker produced no responses")
	}

	if tracker.Target.Type == model.TargetTypeAPI && tracker.Target.API.Extractor != nil {
		responses := make([]string, len(bodies))
		for i, body := range bodies {
			responses[i] = string(body.data)
		}
		extracted, err := scripting.RunExtractor(ctx, p.engines.Scripts, *tracker.Target.API.Extractor,
			scripting.ExtractorScriptArgs{
				PreviousContent: previous,
				Responses:       responses,
			}, tracker.Config.Timeout.Std())
		if err != nil {
			return fetchedBody{}, err
		}
		// Extractor output is structured already; parsers pass JSON through.
		return fetchedBody{data: extracted, mediaType: "application/json"}, nil
	}

	return bodies[0], nil
}

// asJSON guarantees the stored value is a JSON document: non-JSON payloads
// (plain text bodies) are stored as JSON strings.
func asJSON(data []byte) json.RawMessage {
	trimmed := strings.TrimSpace(string(data))
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	encoded, err := json.Marshal(string(data))
	if err != nil {
		return json.RawMessage(`null`)
	}
	return encoded
}

// notify fans a run result out to the tracker's actions and records each
// dispatch. Notification failures are logged, never retried.
func (p *Pipeline) notify(ctx context.Context, tracker model.Tracker, result model.TrackerRunResult) {
	now := p.now().UTC()

	for i, action := range tracker.Actions {
		payload := result
		if action.Formatter != nil && result.Err == nil {
			formatted, err := scripting.RunFormatter(ctx, p.engines.Scripts, *action.Formatter,
				result.OK, tracker.Config.Timeout.Std())
			if err != nil {
				p.logger.ErrorContext(ctx, "formatter script failed, skipping action",
					"tracker_id", tracker.ID, "action", i, "error", err)
				continue
			}
			payload = model.OkResult(formatted)
		}

		if err := p.dispatchAction(ctx, tracker, action, payload, now); err != nil {
			p.logger.ErrorContext(ctx, "failed to dispatch action",
				"tracker_id", tracker.ID, "action", i, "type", action.Type, "error", err)
		}
	}
}

func (p *Pipeline) dispatchAction(
	ctx context.Context,
	tracker model.Tracker,
	action model.TrackerAction,
	payload model.TrackerRunResult,
	now time.Time,
) error {
	content, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode action payload: %w", err)
	}

	var destination model.NotificationDestination
	switch action.Type {
	case model.ActionTypeServerLog:
		destination = model.NotificationDestination{ServerLog: true}
		if payload.Err != nil {
			p.logger.ErrorContext(ctx, "tracker failed",
				"tracker_id", tracker.ID, "tracker_name", tracker.Name, "error", *payload.Err)
		} else {
			p.logger.InfoContext(ctx, "tracker changes",
				"tracker_id", tracker.ID, "tracker_name", tracker.Name, "value", string(payload.OK))
		}

	case model.ActionTypeEmail:
		destination = model.NotificationDestination{Email: action.Email.To}
		taskType := model.TaskType{
			Kind: model.TaskKindEmail,
			Email: &model.EmailTaskType{
				To: action.Email.To,
				Content: model.EmailContent{
					Template: &model.EmailTemplate{
						TrackerChanges: &model.TrackerChangesTemplate{
							TrackerID:   tracker.ID,
							TrackerName: tracker.Name,
							Result:      payload,
						},
					},
				},
			},
		}
		if _, err := p.tasks.Schedule(ctx, taskType, now, trackerTaskTags(tracker)); err != nil {
			return err
		}

	case model.ActionTypeWebhook:
		destination = model.NotificationDestination{Webhook: &action.Webhook.URL}
		taskType := model.TaskType{
			Kind: model.TaskKindHTTP,
			HTTP: &model.HTTPTaskType{
				URL:     action.Webhook.URL,
				Method:  action.Webhook.Method,
				Headers: action.Webhook.Headers,
				Body:    webhookBody(payload),
			},
		}
		if _, err := p.tasks.Schedule(ctx, taskType, now, trackerTaskTags(tracker)); err != nil {
			return err
		}

	default:
		return apperrors.Internalf("unknown action type %q", action.Type)
	}

	if _, err := p.stores.Notifications.Record(ctx, model.Notification{
		ID:          uuid.New(),
		Destination: destination,
		Content:     content,
		ScheduledAt: now,
	}); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}

// webhookBody is the request body handed to webhook tasks: the revision value
// on success, an error object on final failure.
func webhookBody(payload model.TrackerRunResult) json.RawMessage {
	if payload.Err == nil {
		return payload.OK
	}
	encoded, err := json.Marshal(map[string]string{"error": *payload.Err})
	if err != nil {
		return json.RawMessage(`{"error": "tracker fetch failed"}`)
	}
	return encoded
}

func trackerTaskTags(tracker model.Tracker) []string {
	return append([]string{"tracker:" + tracker.ID.String()}, tracker.Tags...)
}
