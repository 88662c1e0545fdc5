package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "clipscan/internal/domain/analysis"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Enqueue(ctx context.Context, j *domain.Job) error {
	const q = `
INSERT INTO screening_jobs (id, channel_id, video_id, priority, status, enqueued_at, error)
VALUES ($1,$2,$3,$4,$5,$6,$7);
`
	enqueued := j.EnqueuedAt
	if enqueued.IsZero() {
		enqueued = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		j.ID, j.ChannelID, j.VideoID, j.Priority, string(j.Status), enqueued, j.Error,
	)
	return err
}

func (r *JobRepository) MarkRunning(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, domain.JobRunning, "")
}

func (r *JobRepository) MarkDone(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, domain.JobDone, "")
}

func (r *JobRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.setStatus(ctx, id, domain.JobFailed, reason)
}

func (r *JobRepository) setStatus(ctx context.Context, id string, status domain.JobStatus, reason string) error {
	const q = `
UPDATE screening_jobs
SET status = $1, error = $2
WHERE id = $3;
`
	_, err := r.db.ExecContext(ctx, q, string(status), reason, id)
	return err
}
