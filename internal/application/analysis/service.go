package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"clipscan/internal/aggregate"
	"clipscan/internal/application"
	domain "clipscan/internal/domain/analysis"
	"clipscan/internal/prefilter"
)

// Runner is the coordinator boundary: execute the full multi-stream state
// machine and return the terminal process snapshot.
type Runner interface {
	Run(ctx context.Context, videoRef, videoID string) []*domain.Process
}

// Gate is the pre-filter boundary.
type Gate interface {
	Check(ctx context.Context, videoID, thumbnailURL string) (prefilter.Decision, error)
}

// ReportStore uploads the verdict report artifact and returns its URL.
type ReportStore interface {
	UploadReport(ctx context.Context, key string, data []byte) (string, error)
}

// Service implements the screening use-cases. Safe for concurrent use.
type Service struct {
	Gate        Gate
	Coordinator Runner
	Verdicts    domain.VerdictRepository
	Jobs        domain.JobQueue
	Reports     ReportStore
	Clock       application.Clock
	Log         *slog.Logger
}

// ScreenVideoCommand triggers one video-level screening run.
type ScreenVideoCommand struct {
	ChannelID    string
	VideoID      string
	VideoRef     string
	ThumbnailURL string
	Priority     int
}

// EnqueueScreening records a job row for the run and returns its id. The
// caller starts RunJob in the background so the webhook can answer
// immediately.
func (s *Service) EnqueueScreening(ctx context.Context, cmd ScreenVideoCommand) (string, error) {
	job := &domain.Job{
		ID:         uuid.New().String(),
		ChannelID:  cmd.ChannelID,
		VideoID:    cmd.VideoID,
		Priority:   cmd.Priority,
		Status:     domain.JobQueued,
		EnqueuedAt: s.Clock.Now(),
	}
	if err := s.Jobs.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("enqueue screening job: %w", err)
	}
	return job.ID, nil
}

// RunJob drives one queued run to completion with a background context so a
// closed webhook connection cannot cancel it.
func (s *Service) RunJob(jobID string, cmd ScreenVideoCommand) error {
	ctx := context.Background()
	_ = s.Jobs.MarkRunning(ctx, jobID)

	verdict, err := s.Screen(ctx, cmd)
	if err != nil {
		s.Log.Error("screening run failed", "job_id", jobID, "video_id", cmd.VideoID, "error", err)
		_ = s.Jobs.MarkFailed(ctx, jobID, err.Error())
		return err
	}
	_ = s.Jobs.MarkDone(ctx, jobID)
	s.Log.Info("screening run finished",
		"job_id", jobID, "video_id", cmd.VideoID,
		"action", verdict.Action, "detections", len(verdict.Detections))
	return nil
}

// Screen runs the whole pipeline for one video: gate, coordinate, aggregate,
// persist. It returns an error only for the single setup-level failure (the
// pre-filter provider being unreachable) or when the verdict cannot be
// persisted; partial detector data still yields a full verdict.
func (s *Service) Screen(ctx context.Context, cmd ScreenVideoCommand) (*domain.Verdict, error) {
	start := s.Clock.Now()

	decision, err := s.Gate.Check(ctx, cmd.VideoID, cmd.ThumbnailURL)
	if err != nil {
		return nil, fmt.Errorf("pre-filter gate: %w", err)
	}

	var procs []*domain.Process
	if decision.Proceed {
		procs = s.Coordinator.Run(ctx, cmd.VideoRef, cmd.VideoID)
	}

	verdict := aggregate.Build(cmd.ChannelID, cmd.VideoID, s.Clock.Now(), s.Clock.Now().Sub(start), procs)
	verdict.ID = uuid.New().String()

	s.uploadReport(ctx, verdict, procs)

	if err := s.Verdicts.Save(ctx, verdict); err != nil {
		return nil, fmt.Errorf("persist verdict: %w", err)
	}
	return verdict, nil
}

// uploadReport archives the verdict plus its full process trail as a JSON
// artifact. Best effort: a failed upload is logged, never fatal.
func (s *Service) uploadReport(ctx context.Context, verdict *domain.Verdict, procs []*domain.Process) {
	if s.Reports == nil {
		return
	}
	report := struct {
		Verdict   *domain.Verdict   `json:"verdict"`
		Processes []*domain.Process `json:"processes"`
	}{verdict, procs}
	data, err := json.Marshal(report)
	if err != nil {
		s.Log.Warn("report marshal failed", "video_id", verdict.VideoID, "error", err)
		return
	}
	key := fmt.Sprintf("reports/%s/%s/%s.json", verdict.ChannelID, verdict.VideoID, verdict.ID)
	url, err := s.Reports.UploadReport(ctx, key, data)
	if err != nil {
		s.Log.Warn("report upload failed", "video_id", verdict.VideoID, "error", err)
		return
	}
	verdict.ReportURL = url
}

// Latest returns the most recent verdicts for a channel.
func (s *Service) Latest(ctx context.Context, channel string, limit int) ([]*domain.Verdict, error) {
	return s.Verdicts.Latest(ctx, channel, limit)
}

// Get returns one verdict by id.
func (s *Service) Get(ctx context.Context, channel, id string) (*domain.Verdict, error) {
	return s.Verdicts.Get(ctx, channel, id)
}

// Summary tallies verdict actions for the last N days.
func (s *Service) Summary(ctx context.Context, channel string, sinceDays int) (domain.Summary, error) {
	return s.Verdicts.Summary(ctx, channel, sinceDays)
}
