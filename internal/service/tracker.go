package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retrack-dev/retrack/internal/core"
	"github.com/retrack-dev/retrack/internal/domain/cron"
	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
)

// maxTrackerNameLength bounds tracker names; the unique index on the name
// column is not a substitute for a sane upper bound.
const maxTrackerNameLength = 100

// TrackersServiceOptions groups dependencies for TrackersService.
type TrackersServiceOptions struct {
	Trackers core.TrackerRepository
	// Guard is consulted for target and webhook URLs when the policy restricts
	// trackers to public URLs.
	Guard  core.URLGuard
	Policy core.TrackersPolicy
}

// TrackersService provides tracker CRUD with server-policy validation.
type TrackersService struct {
	trackers core.TrackerRepository
	guard    core.URLGuard
	policy   core.TrackersPolicy
	logger   *slog.Logger
}

// NewTrackersService constructs a new TrackersService.
func NewTrackersService(opts TrackersServiceOptions, logger *slog.Logger) *TrackersService {
	if opts.Trackers == nil {
		panic("TrackerRepository is required")
	}
	if opts.Policy.RestrictToPublicURLs && opts.Guard == nil {
		panic("URLGuard is required when trackers are restricted to public URLs")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TrackersService{
		trackers: opts.Trackers,
		guard:    opts.Guard,
		policy:   opts.Policy,
		logger:   logger,
	}
}

// Create validates and creates a tracker.
func (s *TrackersService) Create(ctx context.Context, req model.CreateTrackerRequest) (model.Tracker, error) {
	config := model.DefaultTrackerConfig()
	if req.Config != nil {
		config = *req.Config
	}
	tracker := model.Tracker{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(req.Name),
		Enabled: req.Enabled == nil || *req.Enabled,
		Target:  req.Target,
		Config:  config,
		Tags:    req.Tags,
		Actions: req.Actions,
	}
	if err := s.validate(ctx, tracker); err != nil {
		return model.Tracker{}, err
	}

	created, err := s.trackers.Create(ctx, tracker)
	if err != nil {
		return model.Tracker{}, fmt.Errorf("create tracker: %w", err)
	}

	s.logger.InfoContext(ctx, "tracker created",
		"tracker_id", created.ID, "name", created.Name)
	return created, nil
}

// Get retrieves a tracker by ID.
func (s *TrackersService) Get(ctx context.Context, id uuid.UUID) (model.Tracker, error) {
	return s.trackers.Get(ctx, id)
}

// GetByName retrieves a tracker by its unique name.
func (s *TrackersService) GetByName(ctx context.Context, name string) (model.Tracker, error) {
	return s.trackers.GetByName(ctx, name)
}

// List returns trackers matching the filters.
func (s *TrackersService) List(ctx context.Context, params model.ListTrackersParams) ([]model.Tracker, error) {
	return s.trackers.List(ctx, params)
}

// Update applies a partial update to a tracker and revalidates the result.
// The scheduler picks up schedule changes on its next reconciliation pass.
func (s *TrackersService) Update(
	ctx context.Context,
	id uuid.UUID,
	req model.UpdateTrackerRequest,
) (model.Tracker, error) {
	if req.Empty() {
		return model.Tracker{}, apperrors.Validation("update request has no fields to update")
	}

	tracker, err := s.trackers.Get(ctx, id)
	if err != nil {
		return model.Tracker{}, err
	}

	if req.Name != nil {
		tracker.Name = strings.TrimSpace(*req.Name)
	}
	if req.Enabled != nil {
		tracker.Enabled = *req.Enabled
	}
	if req.Target != nil {
		tracker.Target = *req.Target
	}
	if req.Config != nil {
		tracker.Config = *req.Config
	}
	if req.Tags.Set() {
		if tags := req.Tags.Value(); tags != nil {
			tracker.Tags = *tags
		} else {
			tracker.Tags = nil
		}
	}
	if req.Actions.Set() {
		if actions := req.Actions.Value(); actions != nil {
			tracker.Actions = *actions
		} else {
			tracker.Actions = nil
		}
	}

	if err := s.validate(ctx, tracker); err != nil {
		return model.Tracker{}, err
	}

	updated, err := s.trackers.Update(ctx, tracker)
	if err != nil {
		return model.Tracker{}, fmt.Errorf("update tracker: %w", err)
	}

	s.logger.InfoContext(ctx, "tracker updated",
		"tracker_id", updated.ID, "name", updated.Name)
	return updated, nil
}

// Delete removes a tracker. Revisions and the per-tracker scheduler job are
// removed by cascade.
func (s *TrackersService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.trackers.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tracker: %w", err)
	}
	s.logger.InfoContext(ctx, "tracker deleted", "tracker_id", id)
	return nil
}

// validate enforces the server policy over the whole tracker.
func (s *TrackersService) validate(ctx context.Context, tracker model.Tracker) error {
	if tracker.Name == "" {
		return apperrors.ValidationField("name", "tracker name cannot be empty")
	}
	if len(tracker.Name) > maxTrackerNameLength {
		return apperrors.ValidationField("name",
			fmt.Sprintf("tracker name cannot be longer than %d characters", maxTrackerNameLength))
	}

	if err := s.validateConfig(tracker.Config); err != nil {
		return err
	}
	if err := s.validateTarget(ctx, tracker.Target); err != nil {
		return err
	}
	return s.validateActions(ctx, tracker.Actions)
}

func (s *TrackersService) validateConfig(config model.TrackerConfig) error {
	if config.Revisions < 0 || config.Revisions > s.policy.MaxRevisions {
		return apperrors.ValidationField("config.revisions",
			fmt.Sprintf("revision limit must be between 0 and %d", s.policy.MaxRevisions))
	}
	if config.Timeout < 0 || config.Timeout.Std() > s.policy.MaxTimeout {
		return apperrors.ValidationField("config.timeout",
			fmt.Sprintf("timeout cannot exceed %s", s.policy.MaxTimeout))
	}
	if config.Job != nil {
		return s.validateJobConfig(*config.Job)
	}
	return nil
}

func (s *TrackersService) validateJobConfig(job model.JobConfig) error {
	if len(s.policy.Schedules) > 0 && !contains(s.policy.Schedules, job.Schedule) {
		return apperrors.ValidationField("config.job.schedule",
			fmt.Sprintf("schedule %q is not allowed on this server", job.Schedule))
	}

	minInterval, err := cron.MinInterval(job.Schedule, time.Now())
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation,
			fmt.Sprintf("invalid schedule %q", job.Schedule))
	}
	if minInterval > 0 && minInterval < s.policy.MinScheduleInterval {
		return apperrors.ValidationField("config.job.schedule",
			fmt.Sprintf("schedule interval cannot be shorter than %s", s.policy.MinScheduleInterval))
	}

	if job.RetryStrategy != nil {
		if err := job.RetryStrategy.Validate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid retry strategy")
		}
		if job.RetryStrategy.MinInterval() < s.policy.MinRetryInterval {
			return apperrors.ValidationField("config.job.retryStrategy",
				fmt.Sprintf("retry interval cannot be shorter than %s", s.policy.MinRetryInterval))
		}
	}
	return nil
}

func (s *TrackersService) validateTarget(ctx context.Context, target model.TrackerTarget) error {
	switch target.Type {
	case model.TargetTypePage:
		if target.Page == nil {
			return apperrors.ValidationField("target", "page target payload is not set")
		}
		if strings.TrimSpace(target.Page.Extractor) == "" {
			return apperrors.ValidationField("target.extractor", "page extractor cannot be empty")
		}
		return s.validateScript("target.extractor", target.Page.Extractor)

	case model.TargetTypeAPI:
		if target.API == nil {
			return apperrors.ValidationField("target", "api target payload is not set")
		}
		if len(target.API.Requests) == 0 {
			return apperrors.ValidationField("target.requests", "api target requires at least one request")
		}
		for i, request := range target.API.Requests {
			field := fmt.Sprintf("target.requests[%d].url", i)
			if err := s.validateOutboundURL(ctx, field, request.URL); err != nil {
				return err
			}
		}
		if target.API.Configurator != nil {
			if err := s.validateScript("target.configurator", *target.API.Configurator); err != nil {
				return err
			}
		}
		if target.API.Extractor != nil {
			if err := s.validateScript("target.extractor", *target.API.Extractor); err != nil {
				return err
			}
		}
		return nil

	default:
		return apperrors.ValidationField("target", fmt.Sprintf("unknown target type %q", target.Type))
	}
}

func (s *TrackersService) validateActions(ctx context.Context, actions []model.TrackerAction) error {
	for i, action := range actions {
		switch action.Type {
		case model.ActionTypeServerLog:
			// Nothing to check beyond the formatter below.
		case model.ActionTypeEmail:
			if action.Email == nil || len(action.Email.To) == 0 {
				return apperrors.ValidationField(fmt.Sprintf("actions[%d].to", i),
					"email action requires at least one recipient")
			}
			for _, to := range action.Email.To {
				if _, err := mail.ParseAddress(to); err != nil {
					return apperrors.ValidationField(fmt.Sprintf("actions[%d].to", i),
						fmt.Sprintf("invalid email address %q", to))
				}
			}
		case model.ActionTypeWebhook:
			if action.Webhook == nil || action.Webhook.URL == "" {
				return apperrors.ValidationField(fmt.Sprintf("actions[%d].url", i),
					"webhook action requires a url")
			}
			field := fmt.Sprintf("actions[%d].url", i)
			if err := s.validateOutboundURL(ctx, field, action.Webhook.URL); err != nil {
				return err
			}
		default:
			return apperrors.ValidationField(fmt.Sprintf("actions[%d]", i),
				fmt.Sprintf("unknown action type %q", action.Type))
		}

		if action.Formatter != nil {
			field := fmt.Sprintf("actions[%d].formatter", i)
			if err := s.validateScript(field, *action.Formatter); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateOutboundURL checks shape always, reachability policy when enabled.
func (s *TrackersService) validateOutboundURL(ctx context.Context, field, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return apperrors.ValidationField(field, fmt.Sprintf("invalid http(s) url %q", rawURL))
	}
	if s.policy.RestrictToPublicURLs && !s.guard.IsPublicWebURL(ctx, rawURL) {
		return apperrors.ValidationField(field,
			fmt.Sprintf("url %q is not publicly reachable", rawURL))
	}
	return nil
}

func (s *TrackersService) validateScript(field, source string) error {
	if len(source) > s.policy.MaxScriptSize {
		return apperrors.ValidationField(field,
			fmt.Sprintf("script cannot be larger than %d bytes", s.policy.MaxScriptSize))
	}
	return nil
}

func contains(haystack []string, needle string) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}
