package analysis

import (
	"context"
	"time"
)

// Summary aggregates verdict outcomes for a channel over a window.
type Summary struct {
	Total       int `json:"total"`
	Investigate int `json:"investigate"`
	Monitor     int `json:"monitor"`
	Ignore      int `json:"ignore"`
}

// VerdictRepository port (persistence for verdicts)
type VerdictRepository interface {
	Save(ctx context.Context, v *Verdict) error
	Get(ctx context.Context, channel string, id string) (*Verdict, error)
	Latest(ctx context.Context, channel string, limit int) ([]*Verdict, error)
	Summary(ctx context.Context, channel string, sinceDays int) (Summary, error)
}

// JobStatus enum for screening jobs
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is one queued video-level screening run. The queue bounds concurrent
// runs; the core assumes exactly one job per video trigger.
type Job struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channel_id"`
	VideoID    string    `json:"video_id"`
	Priority   int       `json:"priority"`
	Status     JobStatus `json:"status"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Error      string    `json:"error,omitempty"`
}

// JobQueue port (task queue for video-level runs)
type JobQueue interface {
	Enqueue(ctx context.Context, j *Job) error
	MarkRunning(ctx context.Context, id string) error
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}
