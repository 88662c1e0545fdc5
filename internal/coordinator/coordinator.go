// Package coordinator runs the multi-stream analysis state machine for one
// video: dispatch the three base detectors concurrently, wait for the two
// time-anchored ones, fan out targeted re-scans around every extracted
// laughter cue, then wait for everything with a bounded ceiling. Both waits
// prefer partial results over completeness: on timeout the run proceeds with
// whatever reached a terminal state and abandons the rest.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipscan/internal/application"
	"clipscan/internal/detect"
	"clipscan/internal/domain/analysis"
)

// FrameScanner is the frame-scan detector boundary.
type FrameScanner interface {
	Scan(ctx context.Context, videoRef, videoID string) detect.FrameScanResult
	ScanWindow(ctx context.Context, videoRef, videoID string, start, end, step float64) detect.FrameScanResult
}

// AudioScanner is the audio-event detector boundary.
type AudioScanner interface {
	Scan(ctx context.Context, videoRef, videoID string) detect.AudioScanResult
}

// TranscriptScanner is the transcript-event detector boundary.
type TranscriptScanner interface {
	Scan(ctx context.Context, videoID string) detect.TranscriptScanResult
}

// Config carries the tuning knobs for the two wait phases and the targeted
// re-scan window.
type Config struct {
	AnchorWaitTimeout  time.Duration // ceiling for the audio+transcript wait
	AnchorPollInterval time.Duration
	FullWaitTimeout    time.Duration // ceiling for the all-processes wait
	FullPollInterval   time.Duration

	TargetedLeadSeconds   float64 // window starts at anchor + lead
	TargetedWindowSeconds float64
	TargetedStepSeconds   float64 // sample interval inside the window

	// MaxTargetedConcurrency bounds the fan-out of targeted scans. The
	// dispatch count is still one process per anchor event; only execution
	// is throttled.
	MaxTargetedConcurrency int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		AnchorWaitTimeout:      5 * time.Minute,
		AnchorPollInterval:     time.Second,
		FullWaitTimeout:        10 * time.Minute,
		FullPollInterval:       2 * time.Second,
		TargetedLeadSeconds:    5,
		TargetedWindowSeconds:  60,
		TargetedStepSeconds:    0.5,
		MaxTargetedConcurrency: 8,
	}
}

// Coordinator owns the per-run process map for the lifetime of a run and
// hands a read-only snapshot to the aggregator at the end.
type Coordinator struct {
	frames     FrameScanner
	audio      AudioScanner
	transcript TranscriptScanner
	clock      application.Clock
	log        *slog.Logger
	cfg        Config
}

func New(frames FrameScanner, audio AudioScanner, transcript TranscriptScanner, clock application.Clock, log *slog.Logger, cfg Config) *Coordinator {
	return &Coordinator{
		frames:     frames,
		audio:      audio,
		transcript: transcript,
		clock:      clock,
		log:        log,
		cfg:        cfg,
	}
}

// run is the per-video arena of process records. Each process is mutated
// only by the goroutine that owns it; everything else reads under the lock.
type run struct {
	mu    sync.Mutex
	procs map[analysis.ProcessID]*analysis.Process
	order []analysis.ProcessID
	seq   int
}

// Run executes the full state machine and returns the final process
// snapshot in dispatch order. It never fails: individual process failures
// are recorded on their records and excluded from aggregation by the caller.
func (c *Coordinator) Run(ctx context.Context, videoRef, videoID string) []*analysis.Process {
	r := &run{procs: make(map[analysis.ProcessID]*analysis.Process)}

	// BaseDispatch
	c.dispatch(r, analysis.KindFullScan, func(ctx context.Context) (*analysis.ProcessResult, error) {
		res := c.frames.Scan(ctx, videoRef, videoID)
		return &analysis.ProcessResult{Detections: res.Detections, Samples: res.Samples}, nil
	})
	audioID := c.dispatch(r, analysis.KindAudio, func(ctx context.Context) (*analysis.ProcessResult, error) {
		res := c.audio.Scan(ctx, videoRef, videoID)
		return &analysis.ProcessResult{Events: res.Events, SuspiciousWindows: res.SuspiciousWindows}, nil
	})
	transcriptID := c.dispatch(r, analysis.KindTranscript, func(ctx context.Context) (*analysis.ProcessResult, error) {
		res := c.transcript.Scan(ctx, videoID)
		return &analysis.ProcessResult{Events: res.Events, Keywords: res.Keywords}, nil
	})

	// AwaitingAnchors: both time-anchored processes, bounded.
	if !c.wait(ctx, r, []analysis.ProcessID{audioID, transcriptID}, c.cfg.AnchorWaitTimeout, c.cfg.AnchorPollInterval) {
		c.log.Warn("anchor wait timed out, proceeding with partial events", "video_id", videoID)
	}
	anchors := r.completedEvents(audioID, transcriptID)
	sort.SliceStable(anchors, func(i, j int) bool { return anchors[i].Timestamp < anchors[j].Timestamp })

	// TargetedDispatch: one process per anchor event; execution throttled by
	// a semaphore so unbounded fan-out cannot exhaust the OCR provider.
	sem := make(chan struct{}, c.targetedConcurrency())
	for _, ev := range anchors {
		start := ev.Timestamp + c.cfg.TargetedLeadSeconds
		end := start + c.cfg.TargetedWindowSeconds
		c.dispatch(r, analysis.KindTargetedScan, func(ctx context.Context) (*analysis.ProcessResult, error) {
			sem <- struct{}{}
			defer func() { <-sem }()
			res := c.frames.ScanWindow(ctx, videoRef, videoID, start, end, c.cfg.TargetedStepSeconds)
			return &analysis.ProcessResult{Detections: res.Detections, Samples: res.Samples}, nil
		})
		c.log.Info("targeted re-scan dispatched",
			"video_id", videoID, "anchor", ev.Timestamp, "source", ev.Source,
			"window_start", start, "window_end", end)
	}

	// AwaitingAll: every dispatched process, bounded. Still-running
	// processes are abandoned; their eventual results are discarded.
	if !c.wait(ctx, r, r.ids(), c.cfg.FullWaitTimeout, c.cfg.FullPollInterval) {
		c.log.Warn("full wait timed out, abandoning running processes",
			"video_id", videoID, "pending", r.pendingCount())
	}

	return r.snapshot()
}

func (c *Coordinator) targetedConcurrency() int {
	if c.cfg.MaxTargetedConcurrency <= 0 {
		return 1
	}
	return c.cfg.MaxTargetedConcurrency
}

// dispatch creates a process record and starts its owning goroutine. The
// goroutine is the only writer of the record after creation.
func (c *Coordinator) dispatch(r *run, kind analysis.ProcessKind, fn func(ctx context.Context) (*analysis.ProcessResult, error)) analysis.ProcessID {
	id := analysis.ProcessID(fmt.Sprintf("%s-%s", uuid.New().String(), kind))
	r.mu.Lock()
	p := &analysis.Process{
		ID:        id,
		Kind:      kind,
		Seq:       r.seq,
		State:     analysis.StatePending,
		StartedAt: c.clock.Now(),
	}
	r.seq++
	r.procs[id] = p
	r.order = append(r.order, id)
	r.mu.Unlock()

	// Abandoned processes are not forcibly cancelled by contract, so the
	// goroutine gets a detached context; results arriving after the
	// full-wait ceiling are simply discarded with the live record.
	go func() {
		r.setRunning(id)
		res, err := fn(context.Background())
		if err != nil {
			r.complete(id, nil, err.Error(), c.clock.Now())
			return
		}
		r.complete(id, res, "", c.clock.Now())
	}()
	return id
}

// wait polls at a fixed interval until every listed process is terminal,
// the timeout elapses, or the caller's context is done. Returns true only
// when all listed processes reached a terminal state.
func (c *Coordinator) wait(ctx context.Context, r *run, ids []analysis.ProcessID, timeout, poll time.Duration) bool {
	if len(ids) == 0 {
		return true
	}
	if poll <= 0 {
		poll = time.Second
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		if r.allTerminal(ids) {
			return true
		}
		select {
		case <-ctx.Done():
			return r.allTerminal(ids)
		case <-deadline.C:
			return r.allTerminal(ids)
		case <-ticker.C:
		}
	}
}

func (r *run) setRunning(id analysis.ProcessID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.procs[id]; p != nil && p.State == analysis.StatePending {
		p.State = analysis.StateRunning
	}
}

// complete moves a process to its single terminal state. A process already
// terminal is left untouched.
func (r *run) complete(id analysis.ProcessID, res *analysis.ProcessResult, failure string, endedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.procs[id]
	if p == nil || p.Terminal() {
		return
	}
	p.EndedAt = endedAt
	if failure != "" {
		p.State = analysis.StateFailed
		p.FailureReason = failure
		return
	}
	p.State = analysis.StateCompleted
	p.Result = res
}

func (r *run) allTerminal(ids []analysis.ProcessID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if p := r.procs[id]; p == nil || !p.Terminal() {
			return false
		}
	}
	return true
}

func (r *run) ids() []analysis.ProcessID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]analysis.ProcessID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *run) pendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.procs {
		if !p.Terminal() {
			n++
		}
	}
	return n
}

// completedEvents merges the time-anchored events of whichever of the given
// processes completed. Near-coincident events from different sources are
// deliberately kept separate; they carry independent evidentiary value.
func (r *run) completedEvents(ids ...analysis.ProcessID) []analysis.TimeAnchoredEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []analysis.TimeAnchoredEvent
	for _, id := range ids {
		p := r.procs[id]
		if p == nil || p.State != analysis.StateCompleted || p.Result == nil {
			continue
		}
		out = append(out, p.Result.Events...)
	}
	return out
}

// snapshot returns value copies of every process record in dispatch order.
// Abandoned goroutines may still write to the live records afterwards; the
// copies are immune to that.
func (r *run) snapshot() []*analysis.Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*analysis.Process, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.procs[id]
		out = append(out, &cp)
	}
	return out
}
