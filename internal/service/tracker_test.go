package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/retrack-dev/retrack/internal/core"
	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
	"github.com/retrack-dev/retrack/internal/mocks"
)

// newTrackersService creates mock repositories and a service for testing. The
// guard is wired but only consulted when the policy restricts URLs.
func newTrackersService(
	t *testing.T,
	policy core.TrackersPolicy,
) (*mocks.MockTrackerRepository, *mocks.MockURLGuard, *TrackersService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	trackerRepo := mocks.NewMockTrackerRepository(ctrl)
	guard := mocks.NewMockURLGuard(ctrl)

	service := NewTrackersService(TrackersServiceOptions{
		Trackers: trackerRepo,
		Guard:    guard,
		Policy:   policy,
	}, nil)

	return trackerRepo, guard, service
}

func openPolicy() core.TrackersPolicy {
	policy := core.DefaultTrackersPolicy()
	policy.RestrictToPublicURLs = false
	return policy
}

func validPageRequest() model.CreateTrackerRequest {
	return model.CreateTrackerRequest{
		Name: "price-watch",
		Target: model.TrackerTarget{
			Type: model.TargetTypePage,
			Page: &model.PageTarget{Extractor: "export function execute(p) { return p.content; }"},
		},
		Config: &model.TrackerConfig{Revisions: 5},
	}
}

func validAPIRequest() model.CreateTrackerRequest {
	return model.CreateTrackerRequest{
		Name: "api-watch",
		Target: model.TrackerTarget{
			Type: model.TargetTypeAPI,
			API: &model.APITarget{
				Requests: []model.APIRequest{{URL: "https://api.example.com/v1/items"}},
			},
		},
		Config: &model.TrackerConfig{Revisions: 3},
	}
}

func TestTrackersService_Create_Success(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newTrackersService(t, openPolicy())

	ctx := context.Background()
	req := validPageRequest()

	trackerRepo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, tracker model.Tracker) (model.Tracker, error) {
			assert.NotEqual(t, uuid.Nil, tracker.ID)
			assert.Equal(t, "price-watch", tracker.Name)
			assert.True(t, tracker.Enabled)
			tracker.CreatedAt = time.Now()
			tracker.UpdatedAt = tracker.CreatedAt
			return tracker, nil
		}).
		Times(1)

	created, err := service.Create(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, "price-watch", created.Name)
	assert.True(t, created.Enabled)
}

func TestTrackersService_Create_DisabledExplicitly(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newTrackersService(t, openPolicy())

	ctx := context.Background()
	req := validPageRequest()
	req.Enabled = boolPtr(false)

	trackerRepo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, tracker model.Tracker) (model.Tracker, error) {
			assert.False(t, tracker.Enabled)
			return tracker, nil
		}).
		Times(1)

	_, err := service.Create(ctx, req)
	require.NoError(t, err)
}

func TestTrackersService_Create_TrimsName(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newTrackersService(t, openPolicy())

	ctx := context.Background()
	req := validPageRequest()
	req.Name = "  padded-name  "

	trackerRepo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, tracker model.Tracker) (model.Tracker, error) {
			assert.Equal(t, "padded-name", tracker.Name)
			return tracker, nil
		}).
		Times(1)

	_, err := service.Create(ctx, req)
	require.NoError(t, err)
}

func TestTrackersService_Create_DefaultsConfig(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newTrackersService(t, openPolicy())

	ctx := context.Background()
	req := validPageRequest()
	req.Config = nil

	trackerRepo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, tracker model.Tracker) (model.Tracker, error) {
			return tracker, nil
		}).
		Times(1)

	created, err := service.Create(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, model.DefaultTrackerConfig(), created.Config)
	assert.Equal(t, 3, created.Config.Revisions, "trackers created without a config keep history")
	assert.Zero(t, created.Config.Timeout)
	assert.Nil(t, created.Config.Job)
}

func TestTrackersService_Create_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(req *model.CreateTrackerRequest)
		wantMsg string
	}{
		{
			name:    "empty name",
			mutate:  func(req *model.CreateTrackerRequest) { req.Name = "   " },
			wantMsg: "name cannot be empty",
		},
		{
			name:    "name too long",
			mutate:  func(req *model.CreateTrackerRequest) { req.Name = strings.Repeat("x", 101) },
			wantMsg: "cannot be longer than 100",
		},
		{
			name:    "negative revisions",
			mutate:  func(req *model.CreateTrackerRequest) { req.Config.Revisions = -1 },
			wantMsg: "revision limit",
		},
		{
			name:    "revisions over cap",
			mutate:  func(req *model.CreateTrackerRequest) { req.Config.Revisions = 31 },
			wantMsg: "revision limit",
		},
		{
			name: "timeout over cap",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Config.Timeout = model.Duration(301 * time.Second)
			},
			wantMsg: "timeout cannot exceed",
		},
		{
			name: "invalid schedule",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Config.Job = &model.JobConfig{Schedule: "not a cron"}
			},
			wantMsg: "invalid schedule",
		},
		{
			name: "retry interval too short",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Config.Job = &model.JobConfig{
					Schedule: "@hourly",
					RetryStrategy: &model.RetryStrategy{
						Type:        model.RetryStrategyConstant,
						Interval:    model.Duration(time.Second),
						MaxAttempts: 3,
					},
				}
			},
			wantMsg: "retry interval",
		},
		{
			name: "page target without payload",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Target = model.TrackerTarget{Type: model.TargetTypePage}
			},
			wantMsg: "page target payload",
		},
		{
			name: "page target with empty extractor",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Target.Page.Extractor = "  "
			},
			wantMsg: "extractor cannot be empty",
		},
		{
			name: "page extractor over script size",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Target.Page.Extractor = strings.Repeat("a", 4*1024+1)
			},
			wantMsg: "script cannot be larger",
		},
		{
			name: "unknown target type",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Target = model.TrackerTarget{Type: "ftp"}
			},
			wantMsg: "unknown target type",
		},
		{
			name: "email action without recipients",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Actions = []model.TrackerAction{
					{Type: model.ActionTypeEmail, Email: &model.EmailAction{}},
				}
			},
			wantMsg: "at least one recipient",
		},
		{
			name: "email action with invalid address",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Actions = []model.TrackerAction{
					{Type: model.ActionTypeEmail, Email: &model.EmailAction{To: []string{"not-an-email"}}},
				}
			},
			wantMsg: "invalid email address",
		},
		{
			name: "webhook action without url",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Actions = []model.TrackerAction{
					{Type: model.ActionTypeWebhook, Webhook: &model.WebhookAction{}},
				}
			},
			wantMsg: "requires a url",
		},
		{
			name: "webhook action with non-http url",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Actions = []model.TrackerAction{
					{Type: model.ActionTypeWebhook, Webhook: &model.WebhookAction{URL: "ftp://example.com"}},
				}
			},
			wantMsg: "invalid http(s) url",
		},
		{
			name: "unknown action type",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Actions = []model.TrackerAction{{Type: "sms"}}
			},
			wantMsg: "unknown action type",
		},
		{
			name: "formatter over script size",
			mutate: func(req *model.CreateTrackerRequest) {
				req.Actions = []model.TrackerAction{
					{Type: model.ActionTypeServerLog, Formatter: stringPtr(strings.Repeat("b", 4*1024+1))},
				}
			},
			wantMsg: "script cannot be larger",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, service := newTrackersService(t, openPolicy())

			req := validPageRequest()
			tt.mutate(&req)

			_, err := service.Create(context.Background(), req)

			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTrackersService_Create_ScheduleWhitelist(t *testing.T) {
	t.Parallel()

	policy := openPolicy()
	policy.Schedules = []string{"@hourly", "0 0 * * * *"}
	_, _, service := newTrackersService(t, policy)

	req := validPageRequest()
	req.Config.Job = &model.JobConfig{Schedule: "0/10 * * * * *"}

	_, err := service.Create(context.Background(), req)

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "not allowed on this server")
}

func TestTrackersService_Create_ScheduleBelowMinInterval(t *testing.T) {
	t.Parallel()
	_, _, service := newTrackersService(t, openPolicy())

	req := validPageRequest()
	req.Config.Job = &model.JobConfig{Schedule: "* * * * * *"}

	_, err := service.Create(context.Background(), req)

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "cannot be shorter than")
}

func TestTrackersService_Create_APITargetValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing payload", func(t *testing.T) {
		t.Parallel()
		_, _, service := newTrackersService(t, openPolicy())

		req := validAPIRequest()
		req.Target.API = nil

		_, err := service.Create(context.Background(), req)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Contains(t, err.Error(), "api target payload")
	})

	t.Run("no requests", func(t *testing.T) {
		t.Parallel()
		_, _, service := newTrackersService(t, openPolicy())

		req := validAPIRequest()
		req.Target.API.Requests = nil

		_, err := service.Create(context.Background(), req)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Contains(t, err.Error(), "at least one request")
	})

	t.Run("invalid request url", func(t *testing.T) {
		t.Parallel()
		_, _, service := newTrackersService(t, openPolicy())

		req := validAPIRequest()
		req.Target.API.Requests[0].URL = "://broken"

		_, err := service.Create(context.Background(), req)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("valid with configurator and extractor", func(t *testing.T) {
		t.Parallel()
		trackerRepo, _, service := newTrackersService(t, openPolicy())

		req := validAPIRequest()
		req.Target.API.Configurator = stringPtr("export function execute() { return { requests: [] }; }")
		req.Target.API.Extractor = stringPtr("export function execute(b) { return b[0]; }")

		trackerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tracker model.Tracker) (model.Tracker, error) {
				return tracker, nil
			}).Times(1)

		_, err := service.Create(context.Background(), req)
		require.NoError(t, err)
	})
}

func TestTrackersService_Create_PublicURLPolicy(t *testing.T) {
	t.Parallel()

	policy := core.DefaultTrackersPolicy()
	require.True(t, policy.RestrictToPublicURLs)

	t.Run("private target url rejected", func(t *testing.T) {
		t.Parallel()
		_, guard, service := newTrackersService(t, policy)

		req := validAPIRequest()
		req.Target.API.Requests[0].URL = "http://169.254.169.254/latest/meta-data"

		guard.EXPECT().
			IsPublicWebURL(gomock.Any(), "http://169.254.169.254/latest/meta-data").
			Return(false).
			Times(1)

		_, err := service.Create(context.Background(), req)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Contains(t, err.Error(), "not publicly reachable")
	})

	t.Run("private webhook url rejected", func(t *testing.T) {
		t.Parallel()
		_, guard, service := newTrackersService(t, policy)

		req := validAPIRequest()
		req.Actions = []model.TrackerAction{
			{Type: model.ActionTypeWebhook, Webhook: &model.WebhookAction{URL: "http://localhost:9000/hook"}},
		}

		guard.EXPECT().
			IsPublicWebURL(gomock.Any(), "https://api.example.com/v1/items").
			Return(true).
			Times(1)
		guard.EXPECT().
			IsPublicWebURL(gomock.Any(), "http://localhost:9000/hook").
			Return(false).
			Times(1)

		_, err := service.Create(context.Background(), req)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestTrackersService_Update_Success(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newTrackersService(t, openPolicy())

	ctx := context.Background()
	trackerID := uuid.New()
	existing := model.Tracker{
		ID:      trackerID,
		Name:    "old-name",
		Enabled: true,
		Target: model.TrackerTarget{
			Type: model.TargetTypePage,
			Page: &model.PageTarget{Extractor: "export function execute() {}"},
		},
		Config: model.TrackerConfig{Revisions: 5},
		Tags:   []string{"prices"},
	}

	trackerRepo.EXPECT().Get(ctx, trackerID).Return(existing, nil).Times(1)
	trackerRepo.EXPECT().
		Update(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, tracker model.Tracker) (model.Tracker, error) {
			assert.Equal(t, "new-name", tracker.Name)
			assert.False(t, tracker.Enabled)
			assert.Equal(t, []string{"prices"}, tracker.Tags, "untouched field must survive")
			return tracker, nil
		}).
		Times(1)

	updated, err := service.Update(ctx, trackerID, model.UpdateTrackerRequest{
		Name:    stringPtr("new-name"),
		Enabled: boolPtr(false),
	})

	require.NoError(t, err)
	assert.Equal(t, "new-name", updated.Name)
}

func TestTrackersService_Update_ClearsTagsAndActions(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newTrackersService(t, openPolicy())

	ctx := context.Background()
	trackerID := uuid.New()
	existing := model.Tracker{
		ID:   trackerID,
		Name: "tracker",
		Target: model.TrackerTarget{
			Type: model.TargetTypePage,
			Page: &model.PageTarget{Extractor: "export function execute() {}"},
		},
		Tags:    []string{"a", "b"},
		Actions: []model.TrackerAction{{Type: model.ActionTypeServerLog}},
	}

	trackerRepo.EXPECT().Get(ctx, trackerID).Return(existing, nil).Times(1)
	trackerRepo.EXPECT().
		Update(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, tracker model.Tracker) (model.Tracker, error) {
			assert.Nil(t, tracker.Tags)
			assert.Nil(t, tracker.Actions)
			return tracker, nil
		}).
		Times(1)

	_, err := service.Update(ctx, trackerID, model.UpdateTrackerRequest{
		Tags:    model.Clear[[]string](),
		Actions: model.Clear[[]model.TrackerAction](),
	})
	require.NoError(t, err)
}

func TestTrackersService_Update_EmptyRequest(t *testing.T) {
	t.Parallel()
	_, _, service := newTrackersService(t, openPolicy())

	_, err := service.Update(context.Background(), uuid.New(), model.UpdateTrackerRequest{})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "no fields to update")
}

func TestTrackersService_Update_NotFound(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newTrackersService(t, openPolicy())

	ctx := context.Background()
	trackerID := uuid.New()
	trackerRepo.EXPECT().Get(ctx, trackerID).
		Return(model.Tracker{}, apperrors.NotFound("tracker not found")).Times(1)

	_, err := service.Update(ctx, trackerID, model.UpdateTrackerRequest{Name: stringPtr("x")})

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTrackersService_Update_RevalidatesResult(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newTrackersService(t, openPolicy())

	ctx := context.Background()
	trackerID := uuid.New()
	existing := model.Tracker{
		ID:   trackerID,
		Name: "tracker",
		Target: model.TrackerTarget{
			Type: model.TargetTypePage,
			Page: &model.PageTarget{Extractor: "export function execute() {}"},
		},
	}

	trackerRepo.EXPECT().Get(ctx, trackerID).Return(existing, nil).Times(1)

	_, err := service.Update(ctx, trackerID, model.UpdateTrackerRequest{
		Config: &model.TrackerConfig{Revisions: 1000},
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestTrackersService_Delete(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newTrackersService(t, openPolicy())

	ctx := context.Background()
	trackerID := uuid.New()
	trackerRepo.EXPECT().Delete(ctx, trackerID).Return(nil).Times(1)

	require.NoError(t, service.Delete(ctx, trackerID))
}

func TestTrackersService_List_PassesFilters(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newTrackersService(t, openPolicy())

	ctx := context.Background()
	params := model.ListTrackersParams{Tags: []string{"prices"}, Enabled: boolPtr(true)}
	trackerRepo.EXPECT().List(ctx, params).Return([]model.Tracker{}, nil).Times(1)

	result, err := service.List(ctx, params)

	require.NoError(t, err)
	assert.Empty(t, result)
}
