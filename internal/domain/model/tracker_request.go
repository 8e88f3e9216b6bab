package model

// ListTrackersParams filters the tracker listing.
type ListTrackersParams struct {
	// Tags, when non-empty, keeps only trackers carrying every listed tag.
	Tags []string
	// Enabled, when set, filters on the enabled flag.
	Enabled *bool
}

// CreateTrackerRequest is the payload for creating a tracker.
type CreateTrackerRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	// Enabled defaults to true when absent.
	Enabled *bool           `json:"enabled,omitempty"`
	Target TrackerTarget `json:"target"`
	// Config defaults to DefaultTrackerConfig when absent.
	Config  *TrackerConfig  `json:"config,omitempty"`
	Tags    []string        `json:"tags,omitempty"`
	Actions []TrackerAction `json:"actions,omitempty"`
}

// UpdateTrackerRequest is the payload for updating a tracker. Absent fields
// are left untouched. Tags and Actions are tri-state: an explicit null clears
// them.
type UpdateTrackerRequest struct {
	Name    *string                `json:"name,omitempty" validate:"omitempty,max=100"`
	Enabled *bool                  `json:"enabled,omitempty"`
	Target  *TrackerTarget         `json:"target,omitempty"`
	Config  *TrackerConfig         `json:"config,omitempty"`
	Tags    Patch[[]string]        `json:"tags"`
	Actions Patch[[]TrackerAction] `json:"actions"`
}

// Empty reports whether the update touches nothing.
func (r UpdateTrackerRequest) Empty() bool {
	return r.Name == nil && r.Enabled == nil && r.Target == nil && r.Config == nil &&
		!r.Tags.Set() && !r.Actions.Set()
}
