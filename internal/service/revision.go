package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/retrack-dev/retrack/internal/core"
	"github.com/retrack-dev/retrack/internal/domain/model"
)

// RevisionsServiceOptions groups dependencies for RevisionsService.
type RevisionsServiceOptions struct {
	Trackers  core.TrackerRepository
	Revisions core.RevisionRepository
}

// RevisionsService exposes revision history operations.
type RevisionsService struct {
	trackers  core.TrackerRepository
	revisions core.RevisionRepository
	logger    *slog.Logger
}

// NewRevisionsService constructs a new RevisionsService.
func NewRevisionsService(opts RevisionsServiceOptions, logger *slog.Logger) *RevisionsService {
	if opts.Trackers == nil {
		panic("TrackerRepository is required")
	}
	if opts.Revisions == nil {
		panic("RevisionRepository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RevisionsService{
		trackers:  opts.Trackers,
		revisions: opts.Revisions,
		logger:    logger,
	}
}

// ListRevisionsParams shapes the revision listing.
type ListRevisionsParams struct {
	// Limit, when positive, caps the number of revisions returned.
	Limit int
	// CalculateDiff replaces each returned value with a unified diff against
	// the preceding revision. Response shaping only, storage is untouched.
	CalculateDiff bool
}

// List returns a tracker's revisions newest-first.
func (s *RevisionsService) List(
	ctx context.Context,
	trackerID uuid.UUID,
	params ListRevisionsParams,
) ([]model.TrackerRevision, error) {
	if _, err := s.trackers.Get(ctx, trackerID); err != nil {
		return nil, err
	}

	revisions, err := s.revisions.List(ctx, trackerID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}

	// The store returns oldest-first; the API serves newest-first.
	reverse(revisions)
	if params.Limit > 0 && len(revisions) > params.Limit {
		revisions = revisions[:params.Limit]
	}
	if params.CalculateDiff {
		s.attachDiffs(ctx, revisions)
	}
	return revisions, nil
}

// Get returns a single revision of a tracker.
func (s *RevisionsService) Get(ctx context.Context, trackerID, revisionID uuid.UUID) (model.TrackerRevision, error) {
	return s.revisions.Get(ctx, trackerID, revisionID)
}

// Remove deletes a single revision of a tracker.
func (s *RevisionsService) Remove(ctx context.Context, trackerID, revisionID uuid.UUID) error {
	return s.revisions.Delete(ctx, trackerID, revisionID)
}

// Clear deletes all revisions of a tracker.
func (s *RevisionsService) Clear(ctx context.Context, trackerID uuid.UUID) error {
	if _, err := s.trackers.Get(ctx, trackerID); err != nil {
		return err
	}
	if err := s.revisions.Clear(ctx, trackerID); err != nil {
		return fmt.Errorf("clear revisions: %w", err)
	}
	s.logger.InfoContext(ctx, "revisions cleared", "tracker_id", trackerID)
	return nil
}

// attachDiffs rewrites each revision's value (newest-first input) to a
// unified diff against the next-older revision. The oldest revision in the
// page keeps its full value.
func (s *RevisionsService) attachDiffs(ctx context.Context, revisions []model.TrackerRevision) {
	for i := 0; i < len(revisions)-1; i++ {
		diff, err := diffValues(revisions[i+1].Data.Value(), revisions[i].Data.Value())
		if err != nil {
			s.logger.WarnContext(ctx, "failed to compute revision diff",
				"revision_id", revisions[i].ID, "error", err)
			continue
		}
		encoded, err := json.Marshal(diff)
		if err != nil {
			continue
		}
		revisions[i].Data = model.NewTrackerDataValue(encoded)
	}
}

// diffValues renders a stable line-based diff between two JSON values.
func diffValues(before, after json.RawMessage) (string, error) {
	a, err := prettyJSON(before)
	if err != nil {
		return "", err
	}
	b, err := prettyJSON(after)
	if err != nil {
		return "", err
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:       difflib.SplitLines(a),
		B:       difflib.SplitLines(b),
		Context: 3,
	})
}

// prettyJSON renders a canonical, indented form so the diff is line-stable.
func prettyJSON(raw json.RawMessage) (string, error) {
	canonical, err := model.CanonicalJSON(raw)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, canonical, "", "  "); err != nil {
		return "", err
	}
	out.WriteString("\n")
	return out.String(), nil
}

func reverse(revisions []model.TrackerRevision) {
	for i, j := 0, len(revisions)-1; i < j; i, j = i+1, j-1 {
		revisions[i], revisions[j] = revisions[j], revisions[i]
	}
}
