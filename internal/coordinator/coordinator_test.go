package coordinator_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"clipscan/internal/application"
	"clipscan/internal/coordinator"
	"clipscan/internal/detect"
	"clipscan/internal/domain/analysis"
)

type windowCall struct {
	start, end, step float64
}

type fakeFrames struct {
	mu      sync.Mutex
	windows []windowCall
	scans   int
}

func (f *fakeFrames) Scan(ctx context.Context, videoRef, videoID string) detect.FrameScanResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	return detect.FrameScanResult{}
}

func (f *fakeFrames) ScanWindow(ctx context.Context, videoRef, videoID string, start, end, step float64) detect.FrameScanResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, windowCall{start, end, step})
	return detect.FrameScanResult{}
}

func (f *fakeFrames) windowCalls() []windowCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]windowCall, len(f.windows))
	copy(out, f.windows)
	return out
}

type fakeAudio struct {
	result detect.AudioScanResult
	block  chan struct{} // when non-nil, Scan blocks until closed
}

func (f *fakeAudio) Scan(ctx context.Context, videoRef, videoID string) detect.AudioScanResult {
	if f.block != nil {
		<-f.block
	}
	return f.result
}

type fakeTranscript struct {
	result detect.TranscriptScanResult
}

func (f *fakeTranscript) Scan(ctx context.Context, videoID string) detect.TranscriptScanResult {
	return f.result
}

func testConfig() coordinator.Config {
	return coordinator.Config{
		AnchorWaitTimeout:      2 * time.Second,
		AnchorPollInterval:     5 * time.Millisecond,
		FullWaitTimeout:        2 * time.Second,
		FullPollInterval:       5 * time.Millisecond,
		TargetedLeadSeconds:    5,
		TargetedWindowSeconds:  60,
		TargetedStepSeconds:    0.5,
		MaxTargetedConcurrency: 4,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCoordinator(frames coordinator.FrameScanner, audio coordinator.AudioScanner, transcript coordinator.TranscriptScanner, cfg coordinator.Config) *coordinator.Coordinator {
	return coordinator.New(frames, audio, transcript, application.SystemClock{}, testLogger(), cfg)
}

func TestRunDispatchesOneTargetedScanPerAnchor(t *testing.T) {
	frames := &fakeFrames{}
	audio := &fakeAudio{}
	transcript := &fakeTranscript{result: detect.TranscriptScanResult{
		Events: []analysis.TimeAnchoredEvent{
			{Timestamp: 42.0, Confidence: 0.85, Source: analysis.SourceTranscript},
		},
	}}

	c := newCoordinator(frames, audio, transcript, testConfig())
	procs := c.Run(context.Background(), "ref-1", "vid-1")

	calls := frames.windowCalls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one targeted window scan, got %d", len(calls))
	}
	if calls[0].start != 47.0 || calls[0].end != 107.0 {
		t.Fatalf("unexpected window [%v, %v], want [47, 107]", calls[0].start, calls[0].end)
	}
	if calls[0].step != 0.5 {
		t.Fatalf("unexpected step %v", calls[0].step)
	}

	if len(procs) != 4 {
		t.Fatalf("expected 3 base + 1 targeted process, got %d", len(procs))
	}
	if procs[3].Kind != analysis.KindTargetedScan {
		t.Fatalf("expected last dispatched process to be targeted, got %q", procs[3].Kind)
	}
	for _, p := range procs {
		if p.State != analysis.StateCompleted {
			t.Fatalf("process %s in state %q, want completed", p.Kind, p.State)
		}
		if p.EndedAt.IsZero() {
			t.Fatalf("terminal process %s missing EndedAt", p.Kind)
		}
	}
}

func TestRunWithoutAnchorsDispatchesNoTargetedScans(t *testing.T) {
	frames := &fakeFrames{}
	c := newCoordinator(frames, &fakeAudio{}, &fakeTranscript{}, testConfig())
	procs := c.Run(context.Background(), "ref-1", "vid-1")

	if calls := frames.windowCalls(); len(calls) != 0 {
		t.Fatalf("expected no targeted scans, got %d", len(calls))
	}
	if len(procs) != 3 {
		t.Fatalf("expected 3 base processes, got %d", len(procs))
	}
}

func TestRunProceedsPastHungAudioDetector(t *testing.T) {
	frames := &fakeFrames{}
	block := make(chan struct{})
	defer close(block)
	audio := &fakeAudio{block: block}
	transcript := &fakeTranscript{result: detect.TranscriptScanResult{
		Events: []analysis.TimeAnchoredEvent{
			{Timestamp: 10.0, Confidence: 0.85, Source: analysis.SourceTranscript},
		},
	}}

	cfg := testConfig()
	cfg.AnchorWaitTimeout = 50 * time.Millisecond
	cfg.FullWaitTimeout = 50 * time.Millisecond

	c := newCoordinator(frames, audio, transcript, cfg)
	procs := c.Run(context.Background(), "ref-1", "vid-1")

	// The transcript anchor still drives a targeted dispatch.
	if calls := frames.windowCalls(); len(calls) != 1 {
		t.Fatalf("expected one targeted scan despite hung audio, got %d", len(calls))
	}

	var audioProc *analysis.Process
	for _, p := range procs {
		if p.Kind == analysis.KindAudio {
			audioProc = p
		}
	}
	if audioProc == nil {
		t.Fatal("audio process missing from snapshot")
	}
	if audioProc.Terminal() {
		t.Fatalf("hung audio process should be abandoned non-terminal, got %q", audioProc.State)
	}
}

func TestRunAnchorsFromBothSourcesStaySeparate(t *testing.T) {
	frames := &fakeFrames{}
	audio := &fakeAudio{result: detect.AudioScanResult{
		Events: []analysis.TimeAnchoredEvent{
			{Timestamp: 42.0, Confidence: 0.6, Source: analysis.SourceAudio},
		},
	}}
	transcript := &fakeTranscript{result: detect.TranscriptScanResult{
		Events: []analysis.TimeAnchoredEvent{
			{Timestamp: 42.2, Confidence: 0.85, Source: analysis.SourceTranscript},
		},
	}}

	c := newCoordinator(frames, audio, transcript, testConfig())
	c.Run(context.Background(), "ref-1", "vid-1")

	// Near-coincident cues from different sources each get their own pass.
	if calls := frames.windowCalls(); len(calls) != 2 {
		t.Fatalf("expected two targeted scans, got %d", len(calls))
	}
}

func TestRunSnapshotPreservesDispatchOrder(t *testing.T) {
	c := newCoordinator(&fakeFrames{}, &fakeAudio{}, &fakeTranscript{}, testConfig())
	procs := c.Run(context.Background(), "ref-1", "vid-1")

	want := []analysis.ProcessKind{analysis.KindFullScan, analysis.KindAudio, analysis.KindTranscript}
	for i, kind := range want {
		if procs[i].Kind != kind {
			t.Fatalf("snapshot[%d] = %q, want %q", i, procs[i].Kind, kind)
		}
		if procs[i].Seq != i {
			t.Fatalf("snapshot[%d].Seq = %d, want %d", i, procs[i].Seq, i)
		}
	}
}
