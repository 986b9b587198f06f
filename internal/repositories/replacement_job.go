package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/shared"
)

const jobColumns = "id, sequence, run_id, playlist_id, playlist_name, inserted, removed, status, error, created_at, updated_at, deleted_at"

// ReplacementJobRepository implements models.Repository[*models.ReplacementJob] for replacement history.
//
// Every playlist plan executed by a replace run is stored as one job sharing the run's id.
type ReplacementJobRepository struct {
	db *sql.DB
}

// NewReplacementJobRepository creates a new ReplacementJobRepository with the given database connection
func NewReplacementJobRepository(db *sql.DB) *ReplacementJobRepository {
	return &ReplacementJobRepository{db: db}
}

// Create inserts a new replacement job into the database with generated ID and sequence
func (r *ReplacementJobRepository) Create(job *models.ReplacementJob) error {
	sequence, err := NextSequence(r.db, "replacement_jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	job.SetID(id)
	job.SetSequence(sequence)

	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO replacement_jobs (
			id, sequence, run_id, playlist_id, playlist_name,
			inserted, removed, status, error, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		job.RunID(),
		job.PlaylistID(),
		job.PlaylistName(),
		job.Inserted(),
		job.Removed(),
		string(job.Status()),
		job.ErrorMessage(),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert replacement job: %w", err)
	}

	return nil
}

// CreateAll records every job of a run in order, stopping at the first failure.
func (r *ReplacementJobRepository) CreateAll(jobs []*models.ReplacementJob) error {
	for _, job := range jobs {
		if err := r.Create(job); err != nil {
			return fmt.Errorf("failed to record job for %s: %w", job.PlaylistID(), err)
		}
	}
	return nil
}

// Get retrieves a replacement job by ID, excluding soft-deleted jobs
func (r *ReplacementJobRepository) Get(id string) (*models.ReplacementJob, error) {
	query := "SELECT " + jobColumns + " FROM replacement_jobs WHERE id = ? AND deleted_at IS NULL"
	return r.scan(r.db.QueryRow(query, id))
}

// Update modifies the status and error of an existing job
func (r *ReplacementJobRepository) Update(job *models.ReplacementJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	job.SetUpdatedAt(now)

	query := `
		UPDATE replacement_jobs
		SET status = ?, error = ?, inserted = ?, removed = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(job.Status()),
		job.ErrorMessage(),
		job.Inserted(),
		job.Removed(),
		now,
		job.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update replacement job: %w", err)
	}

	return affectedOne(result, "replacement job", job.ID())
}

// Delete soft-deletes a replacement job by ID
func (r *ReplacementJobRepository) Delete(id string) error {
	query := `
		UPDATE replacement_jobs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete replacement job: %w", err)
	}

	return affectedOne(result, "replacement job", id)
}

// List retrieves jobs matching the given criteria, newest first, excluding soft-deleted jobs.
//
// Supported criteria: "run_id", "playlist_id", "status" (string) and "limit" (int).
func (r *ReplacementJobRepository) List(criteria map[string]any) ([]*models.ReplacementJob, error) {
	query := "SELECT " + jobColumns + " FROM replacement_jobs WHERE deleted_at IS NULL"
	args := []any{}

	for _, column := range []string{"run_id", "playlist_id", "status"} {
		if v, ok := criteria[column].(string); ok && v != "" {
			query += " AND " + column + " = ?"
			args = append(args, v)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query replacement jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.ReplacementJob
	for rows.Next() {
		job, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// scan reads one row into a [models.ReplacementJob]
func (r *ReplacementJobRepository) scan(row rowScanner) (*models.ReplacementJob, error) {
	var (
		id           string
		sequence     int
		runID        string
		playlistID   string
		playlistName string
		inserted     int
		removed      int
		status       string
		errorMessage string
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &runID, &playlistID, &playlistName,
		&inserted, &removed, &status, &errorMessage,
		&createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: replacement job", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan replacement job: %w", err)
	}

	job := models.RestoreReplacementJob(runID, playlistID, playlistName, inserted, removed, models.JobStatus(status), errorMessage)
	job.SetID(id)
	job.SetSequence(sequence)
	job.SetCreatedAt(createdAt)
	job.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		job.SetDeletedAt(&deletedAt.Time)
	}

	return job, nil
}
