package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"clipscan/internal/application"
	appanalysis "clipscan/internal/application/analysis"
	domain "clipscan/internal/domain/analysis"
	"clipscan/internal/domain/codes"
	"clipscan/internal/domain/providers"
	"clipscan/internal/prefilter"
)

type fakeGate struct {
	decision prefilter.Decision
	err      error
}

func (f *fakeGate) Check(ctx context.Context, videoID, thumbnailURL string) (prefilter.Decision, error) {
	return f.decision, f.err
}

type fakeRunner struct {
	procs []*domain.Process
	runs  int
}

func (f *fakeRunner) Run(ctx context.Context, videoRef, videoID string) []*domain.Process {
	f.runs++
	return f.procs
}

type memVerdicts struct {
	saved []*domain.Verdict
}

func (m *memVerdicts) Save(ctx context.Context, v *domain.Verdict) error {
	m.saved = append(m.saved, v)
	return nil
}

func (m *memVerdicts) Get(ctx context.Context, channel, id string) (*domain.Verdict, error) {
	for _, v := range m.saved {
		if v.ChannelID == channel && v.ID == id {
			return v, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *memVerdicts) Latest(ctx context.Context, channel string, limit int) ([]*domain.Verdict, error) {
	return m.saved, nil
}

func (m *memVerdicts) Summary(ctx context.Context, channel string, sinceDays int) (domain.Summary, error) {
	return domain.Summary{Total: len(m.saved)}, nil
}

type memJobs struct {
	jobs map[string]*domain.Job
}

func newMemJobs() *memJobs { return &memJobs{jobs: make(map[string]*domain.Job)} }

func (m *memJobs) Enqueue(ctx context.Context, j *domain.Job) error {
	m.jobs[j.ID] = j
	return nil
}

func (m *memJobs) MarkRunning(ctx context.Context, id string) error {
	m.jobs[id].Status = domain.JobRunning
	return nil
}

func (m *memJobs) MarkDone(ctx context.Context, id string) error {
	m.jobs[id].Status = domain.JobDone
	return nil
}

func (m *memJobs) MarkFailed(ctx context.Context, id, reason string) error {
	m.jobs[id].Status = domain.JobFailed
	m.jobs[id].Error = reason
	return nil
}

func newService(gate *fakeGate, runner *fakeRunner, verdicts *memVerdicts, jobs *memJobs) *appanalysis.Service {
	return &appanalysis.Service{
		Gate:        gate,
		Coordinator: runner,
		Verdicts:    verdicts,
		Jobs:        jobs,
		Clock:       application.SystemClock{},
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func cmd() appanalysis.ScreenVideoCommand {
	return appanalysis.ScreenVideoCommand{
		ChannelID:    "chan-1",
		VideoID:      "vid-1",
		VideoRef:     "ref-1",
		ThumbnailURL: "https://example.com/thumb.jpg",
	}
}

func TestScreenNegativeGateSkipsCoordinator(t *testing.T) {
	gate := &fakeGate{decision: prefilter.Decision{Proceed: false}}
	runner := &fakeRunner{}
	verdicts := &memVerdicts{}
	svc := newService(gate, runner, verdicts, newMemJobs())

	v, err := svc.Screen(context.Background(), cmd())
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if runner.runs != 0 {
		t.Fatalf("coordinator ran %d times behind a negative gate", runner.runs)
	}
	if v.Action != domain.ActionIgnore {
		t.Fatalf("expected ignore verdict, got %q", v.Action)
	}
	if len(verdicts.saved) != 1 {
		t.Fatalf("negative-gate verdict not persisted, saved %d", len(verdicts.saved))
	}
}

func TestScreenUnavailableGateAborts(t *testing.T) {
	gate := &fakeGate{err: fmt.Errorf("%w: timeout", providers.ErrUnavailable)}
	runner := &fakeRunner{}
	verdicts := &memVerdicts{}
	svc := newService(gate, runner, verdicts, newMemJobs())

	_, err := svc.Screen(context.Background(), cmd())
	if !errors.Is(err, providers.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if runner.runs != 0 {
		t.Fatal("coordinator must not run when setup fails")
	}
	if len(verdicts.saved) != 0 {
		t.Fatalf("no verdict should persist on abort, saved %d", len(verdicts.saved))
	}
}

func TestScreenPositiveGateAggregatesAndPersists(t *testing.T) {
	gate := &fakeGate{decision: prefilter.Decision{Proceed: true}}
	runner := &fakeRunner{procs: []*domain.Process{
		{
			Kind:  domain.KindFullScan,
			State: domain.StateCompleted,
			Result: &domain.ProcessResult{
				Detections: []codes.Detection{{Code: "GIFT-REDEEM-CODE", Confidence: 0.93}},
			},
		},
	}}
	verdicts := &memVerdicts{}
	svc := newService(gate, runner, verdicts, newMemJobs())

	v, err := svc.Screen(context.Background(), cmd())
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if runner.runs != 1 {
		t.Fatalf("coordinator ran %d times, want 1", runner.runs)
	}
	if v.Action != domain.ActionInvestigate {
		t.Fatalf("expected investigate, got %q", v.Action)
	}
	if v.ID == "" {
		t.Fatal("verdict id not assigned")
	}
	if len(verdicts.saved) != 1 || verdicts.saved[0] != v {
		t.Fatal("verdict not persisted")
	}
}

func TestRunJobMarksLifecycle(t *testing.T) {
	gate := &fakeGate{decision: prefilter.Decision{Proceed: false}}
	jobs := newMemJobs()
	svc := newService(gate, &fakeRunner{}, &memVerdicts{}, jobs)

	id, err := svc.EnqueueScreening(context.Background(), cmd())
	if err != nil {
		t.Fatalf("EnqueueScreening: %v", err)
	}
	if jobs.jobs[id].Status != domain.JobQueued {
		t.Fatalf("job status after enqueue: %q", jobs.jobs[id].Status)
	}

	if err := svc.RunJob(id, cmd()); err != nil {
		t.Fatalf("RunJob: %v", err)
	}
	if jobs.jobs[id].Status != domain.JobDone {
		t.Fatalf("job status after run: %q", jobs.jobs[id].Status)
	}
}

func TestRunJobRecordsFailure(t *testing.T) {
	gate := &fakeGate{err: fmt.Errorf("%w: down", providers.ErrUnavailable)}
	jobs := newMemJobs()
	svc := newService(gate, &fakeRunner{}, &memVerdicts{}, jobs)

	id, err := svc.EnqueueScreening(context.Background(), cmd())
	if err != nil {
		t.Fatalf("EnqueueScreening: %v", err)
	}
	if err := svc.RunJob(id, cmd()); err == nil {
		t.Fatal("expected RunJob to surface the failure")
	}
	if jobs.jobs[id].Status != domain.JobFailed {
		t.Fatalf("job status after failed run: %q", jobs.jobs[id].Status)
	}
	if jobs.jobs[id].Error == "" {
		t.Fatal("failure reason not recorded")
	}
}
