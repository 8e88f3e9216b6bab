package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
	"github.com/retrack-dev/retrack/internal/mocks"
)

func newRevisionsService(t *testing.T) (*mocks.MockTrackerRepository, *mocks.MockRevisionRepository, *RevisionsService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	trackerRepo := mocks.NewMockTrackerRepository(ctrl)
	revisionRepo := mocks.NewMockRevisionRepository(ctrl)

	service := NewRevisionsService(RevisionsServiceOptions{
		Trackers:  trackerRepo,
		Revisions: revisionRepo,
	}, nil)

	return trackerRepo, revisionRepo, service
}

// storedRevisions builds an oldest-first history, the order the store returns.
func storedRevisions(trackerID uuid.UUID, values ...string) []model.TrackerRevision {
	revisions := make([]model.TrackerRevision, 0, len(values))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, value := range values {
		revisions = append(revisions, model.TrackerRevision{
			ID:        uuid.New(),
			TrackerID: trackerID,
			Data:      model.NewTrackerDataValue(json.RawMessage(value)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return revisions
}

func TestRevisionsService_List_NewestFirst(t *testing.T) {
	t.Parallel()
	trackerRepo, revisionRepo, service := newRevisionsService(t)

	ctx := context.Background()
	trackerID := uuid.New()
	stored := storedRevisions(trackerID, `"one"`, `"two"`, `"three"`)

	trackerRepo.EXPECT().Get(ctx, trackerID).Return(model.Tracker{ID: trackerID}, nil).Times(1)
	revisionRepo.EXPECT().List(ctx, trackerID).Return(stored, nil).Times(1)

	result, err := service.List(ctx, trackerID, ListRevisionsParams{})

	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, json.RawMessage(`"three"`), result[0].Data.Value())
	assert.Equal(t, json.RawMessage(`"one"`), result[2].Data.Value())
}

func TestRevisionsService_List_Limit(t *testing.T) {
	t.Parallel()
	trackerRepo, revisionRepo, service := newRevisionsService(t)

	ctx := context.Background()
	trackerID := uuid.New()
	stored := storedRevisions(trackerID, `1`, `2`, `3`, `4`)

	trackerRepo.EXPECT().Get(ctx, trackerID).Return(model.Tracker{ID: trackerID}, nil).Times(1)
	revisionRepo.EXPECT().List(ctx, trackerID).Return(stored, nil).Times(1)

	result, err := service.List(ctx, trackerID, ListRevisionsParams{Limit: 2})

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, json.RawMessage(`4`), result[0].Data.Value())
	assert.Equal(t, json.RawMessage(`3`), result[1].Data.Value())
}

func TestRevisionsService_List_TrackerNotFound(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newRevisionsService(t)

	ctx := context.Background()
	trackerID := uuid.New()
	trackerRepo.EXPECT().Get(ctx, trackerID).
		Return(model.Tracker{}, apperrors.NotFound("tracker not found")).Times(1)

	_, err := service.List(ctx, trackerID, ListRevisionsParams{})

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRevisionsService_List_Diffs(t *testing.T) {
	t.Parallel()
	trackerRepo, revisionRepo, service := newRevisionsService(t)

	ctx := context.Background()
	trackerID := uuid.New()
	stored := storedRevisions(trackerID,
		`{"price": 10}`,
		`{"price": 12}`,
	)

	trackerRepo.EXPECT().Get(ctx, trackerID).Return(model.Tracker{ID: trackerID}, nil).Times(1)
	revisionRepo.EXPECT().List(ctx, trackerID).Return(stored, nil).Times(1)

	result, err := service.List(ctx, trackerID, ListRevisionsParams{CalculateDiff: true})

	require.NoError(t, err)
	require.Len(t, result, 2)

	// The newest revision carries a diff against the previous one.
	var diff string
	require.NoError(t, json.Unmarshal(result[0].Data.Value(), &diff))
	assert.Contains(t, diff, `-  "price": 10`)
	assert.Contains(t, diff, `+  "price": 12`)

	// The oldest revision in the page keeps its full value.
	assert.JSONEq(t, `{"price": 10}`, string(result[1].Data.Value()))
}

func TestRevisionsService_List_DiffUsesEffectiveValue(t *testing.T) {
	t.Parallel()
	trackerRepo, revisionRepo, service := newRevisionsService(t)

	ctx := context.Background()
	trackerID := uuid.New()
	older := model.TrackerRevision{
		ID:        uuid.New(),
		TrackerID: trackerID,
		Data:      model.NewTrackerDataValue(json.RawMessage(`"raw"`)),
	}
	older.Data.AddMod(json.RawMessage(`"formatted-old"`))
	newer := model.TrackerRevision{
		ID:        uuid.New(),
		TrackerID: trackerID,
		Data:      model.NewTrackerDataValue(json.RawMessage(`"formatted-new"`)),
		CreatedAt: older.CreatedAt.Add(time.Minute),
	}

	trackerRepo.EXPECT().Get(ctx, trackerID).Return(model.Tracker{ID: trackerID}, nil).Times(1)
	revisionRepo.EXPECT().List(ctx, trackerID).
		Return([]model.TrackerRevision{older, newer}, nil).Times(1)

	result, err := service.List(ctx, trackerID, ListRevisionsParams{CalculateDiff: true})

	require.NoError(t, err)
	var diff string
	require.NoError(t, json.Unmarshal(result[0].Data.Value(), &diff))
	assert.Contains(t, diff, "formatted-old")
	assert.Contains(t, diff, "formatted-new")
}

func TestRevisionsService_Get(t *testing.T) {
	t.Parallel()
	_, revisionRepo, service := newRevisionsService(t)

	ctx := context.Background()
	trackerID, revisionID := uuid.New(), uuid.New()
	want := model.TrackerRevision{ID: revisionID, TrackerID: trackerID}
	revisionRepo.EXPECT().Get(ctx, trackerID, revisionID).Return(want, nil).Times(1)

	got, err := service.Get(ctx, trackerID, revisionID)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRevisionsService_Remove(t *testing.T) {
	t.Parallel()
	_, revisionRepo, service := newRevisionsService(t)

	ctx := context.Background()
	trackerID, revisionID := uuid.New(), uuid.New()
	revisionRepo.EXPECT().Delete(ctx, trackerID, revisionID).Return(nil).Times(1)

	require.NoError(t, service.Remove(ctx, trackerID, revisionID))
}

func TestRevisionsService_Clear(t *testing.T) {
	t.Parallel()
	trackerRepo, revisionRepo, service := newRevisionsService(t)

	ctx := context.Background()
	trackerID := uuid.New()
	trackerRepo.EXPECT().Get(ctx, trackerID).Return(model.Tracker{ID: trackerID}, nil).Times(1)
	revisionRepo.EXPECT().Clear(ctx, trackerID).Return(nil).Times(1)

	require.NoError(t, service.Clear(ctx, trackerID))
}

func TestRevisionsService_Clear_TrackerNotFound(t *testing.T) {
	t.Parallel()
	trackerRepo, _, service := newRevisionsService(t)

	ctx := context.Background()
	trackerID := uuid.New()
	trackerRepo.EXPECT().Get(ctx, trackerID).
		Return(model.Tracker{}, apperrors.NotFound("tracker not found")).Times(1)

	err := service.Clear(ctx, trackerID)

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
