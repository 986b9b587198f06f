package models

import (
	"fmt"
	"time"
)

// base holds the fields shared by every persisted entity.
type base struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newBase(sequence int) base {
	now := time.Now()
	return base{sequence: sequence, createdAt: now, updatedAt: now}
}

func (b *base) ID() string               { return b.id }
func (b *base) Sequence() int            { return b.sequence }
func (b *base) CreatedAt() time.Time     { return b.createdAt }
func (b *base) UpdatedAt() time.Time     { return b.updatedAt }
func (b *base) DeletedAt() *time.Time    { return b.deletedAt }
func (b *base) SetID(id string)          { b.id = id }
func (b *base) SetSequence(seq int)      { b.sequence = seq }
func (b *base) SetCreatedAt(t time.Time) { b.createdAt = t }
func (b *base) SetUpdatedAt(t time.Time) { b.updatedAt = t }
func (b *base) SetDeletedAt(t *time.Time) {
	b.deletedAt = t
}

// PersistedTrack caches track metadata so later runs can show names for ids without a lookup.
type PersistedTrack struct {
	base
	service   string
	serviceID string
	name      string
	album     string
	isrc      string
	uri       string
}

// NewPersistedTrack creates a [PersistedTrack] from a [Track] fetched from service.
func NewPersistedTrack(sequence int, service, serviceID string, t Track) *PersistedTrack {
	return &PersistedTrack{
		base:      newBase(sequence),
		service:   service,
		serviceID: serviceID,
		name:      t.Name,
		album:     t.Album.Name,
		isrc:      t.ISRC,
		uri:       t.URI,
	}
}

func (t *PersistedTrack) Service() string   { return t.service }
func (t *PersistedTrack) ServiceID() string { return t.serviceID }
func (t *PersistedTrack) Name() string      { return t.name }
func (t *PersistedTrack) Album() string     { return t.album }
func (t *PersistedTrack) ISRC() string      { return t.isrc }
func (t *PersistedTrack) URI() string       { return t.uri }

// Track converts the row back into a [Track] DTO.
func (t *PersistedTrack) Track() Track {
	return Track{
		ID:    t.serviceID,
		Name:  t.name,
		URI:   t.uri,
		Type:  "track",
		ISRC:  t.isrc,
		Album: Album{Name: t.album},
	}
}

// Update replaces the metadata with that of tr.
func (t *PersistedTrack) Update(tr Track) {
	t.name = tr.Name
	t.album = tr.Album.Name
	t.isrc = tr.ISRC
	t.uri = tr.URI
}

func (t *PersistedTrack) Validate() error {
	switch {
	case t.id == "":
		return fmt.Errorf("track id is required")
	case t.service == "":
		return fmt.Errorf("track service is required")
	case t.serviceID == "":
		return fmt.Errorf("track service id is required")
	case t.name == "":
		return fmt.Errorf("track name is required")
	}
	return nil
}

// JobStatus is the outcome of a [ReplacementJob].
type JobStatus string

const (
	JobStatusPlanned   JobStatus = "planned" // recorded by --dry-run
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPlanned, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// ReplacementJob records the execution of one [PlaylistSelection].
type ReplacementJob struct {
	base
	runID        string
	playlistID   string
	playlistName string
	inserted     int
	removed      int
	status       JobStatus
	errorMessage string
}

// NewReplacementJob creates a job for plan. A nil err marks it completed.
func NewReplacementJob(runID string, plan PlaylistSelection, err error) *ReplacementJob {
	j := &ReplacementJob{
		base:         newBase(0),
		runID:        runID,
		playlistID:   plan.ID,
		playlistName: plan.Name,
		inserted:     len(plan.NewTracks),
		removed:      len(plan.StolenIDsToRemove),
		status:       JobStatusCompleted,
	}
	if err != nil {
		j.status = JobStatusFailed
		j.errorMessage = err.Error()
	}
	return j
}

// RestoreReplacementJob rebuilds a job from stored columns.
func RestoreReplacementJob(runID, playlistID, playlistName string, inserted, removed int, status JobStatus, errorMessage string) *ReplacementJob {
	return &ReplacementJob{
		runID:        runID,
		playlistID:   playlistID,
		playlistName: playlistName,
		inserted:     inserted,
		removed:      removed,
		status:       status,
		errorMessage: errorMessage,
	}
}

func (j *ReplacementJob) RunID() string        { return j.runID }
func (j *ReplacementJob) PlaylistID() string   { return j.playlistID }
func (j *ReplacementJob) PlaylistName() string { return j.playlistName }
func (j *ReplacementJob) Inserted() int        { return j.inserted }
func (j *ReplacementJob) Removed() int         { return j.removed }
func (j *ReplacementJob) Status() JobStatus    { return j.status }
func (j *ReplacementJob) ErrorMessage() string { return j.errorMessage }

// SetStatus changes the status, e.g. to [JobStatusPlanned] for dry runs.
func (j *ReplacementJob) SetStatus(s JobStatus) { j.status = s }

func (j *ReplacementJob) Validate() error {
	switch {
	case j.id == "":
		return fmt.Errorf("job id is required")
	case j.runID == "":
		return fmt.Errorf("job run id is required")
	case j.playlistID == "":
		return fmt.Errorf("job playlist id is required")
	case !j.status.Valid():
		return fmt.Errorf("invalid job status %q", j.status)
	case j.status == JobStatusFailed && j.errorMessage == "":
		return fmt.Errorf("failed job requires an error message")
	}
	return nil
}
