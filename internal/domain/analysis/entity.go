package analysis

import (
	"time"

	"clipscan/internal/domain/codes"
)

// ProcessID identifier type, unique per dispatch
type ProcessID string

// ProcessKind enum
type ProcessKind string

const (
	KindFullScan     ProcessKind = "full-scan"
	KindAudio        ProcessKind = "audio"
	KindTranscript   ProcessKind = "transcript"
	KindTargetedScan ProcessKind = "targeted-scan"
)

// ProcessState enum. Completed and failed are terminal; a process never
// leaves a terminal state.
type ProcessState string

const (
	StatePending   ProcessState = "pending"
	StateRunning   ProcessState = "running"
	StateCompleted ProcessState = "completed"
	StateFailed    ProcessState = "failed"
)

// Process is one unit of concurrent analysis work. It is created by the
// coordinator at dispatch time and mutated only by its owning goroutine;
// the coordinator's wait loops and the aggregator only read it.
type Process struct {
	ID            ProcessID      `json:"id"`
	Kind          ProcessKind    `json:"kind"`
	Seq           int            `json:"seq"` // dispatch order, fixes snapshot iteration
	State         ProcessState   `json:"state"`
	StartedAt     time.Time      `json:"started_at"`
	EndedAt       time.Time      `json:"ended_at,omitzero"` // set iff terminal
	Result        *ProcessResult `json:"result,omitempty"`  // present only when completed
	FailureReason string         `json:"failure_reason,omitempty"`
}

// Terminal reports whether the process reached completed or failed.
func (p *Process) Terminal() bool {
	return p.State == StateCompleted || p.State == StateFailed
}

// ProcessResult is the kind-specific payload of a completed process. Frame
// and targeted scans fill Detections and Samples; audio fills Events and
// SuspiciousWindows; transcript fills Events and Keywords.
type ProcessResult struct {
	Detections        []codes.Detection   `json:"detections,omitempty"`
	Samples           []FrameSample       `json:"samples,omitempty"`
	Events            []TimeAnchoredEvent `json:"events,omitempty"`
	SuspiciousWindows []AudioWindow       `json:"suspicious_windows,omitempty"`
	Keywords          []string            `json:"keywords,omitempty"`
}

// EventSource enum
type EventSource string

const (
	SourceAudio      EventSource = "audio"
	SourceTranscript EventSource = "transcript"
)

// maxEventContext bounds the free-text context carried by an event.
const maxEventContext = 100

// TimeAnchoredEvent is a point-in-time behavioral cue (a laugh) extracted
// from the audio or transcript process.
type TimeAnchoredEvent struct {
	Timestamp  float64     `json:"timestamp"` // seconds from video start
	Confidence float64     `json:"confidence"`
	Source     EventSource `json:"source"`
	Context    string      `json:"context,omitempty"`
}

// NewTimeAnchoredEvent builds an event, truncating context to 100 characters.
func NewTimeAnchoredEvent(ts, confidence float64, source EventSource, context string) TimeAnchoredEvent {
	if len(context) > maxEventContext {
		context = context[:maxEventContext]
	}
	return TimeAnchoredEvent{Timestamp: ts, Confidence: confidence, Source: source, Context: context}
}

// FrameSample records one sampled frame, kept so targeted re-scans and
// later audits can reuse it.
type FrameSample struct {
	Timestamp float64 `json:"timestamp"`
	ObjectKey string  `json:"object_key,omitempty"`
}

// AudioWindow is a transcribed audio slice flagged by keyword heuristics.
type AudioWindow struct {
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
	Transcript string  `json:"transcript,omitempty"`
	Keyword    string  `json:"keyword,omitempty"`
}

// Action enum: the recommended follow-up for a verdict
type Action string

const (
	ActionInvestigate Action = "investigate"
	ActionMonitor     Action = "monitor"
	ActionIgnore      Action = "ignore"
)

// Verdict is the aggregate outcome for one video. Action is a pure function
// of the deduplicated detections and their confidences.
type Verdict struct {
	ID          string              `json:"id"`
	ChannelID   string              `json:"channel_id"`
	VideoID     string              `json:"video_id"`
	ProcessedAt time.Time           `json:"processed_at"`
	DurationMS  int64               `json:"duration_ms"`
	Detections  []codes.Detection   `json:"detections"`
	Events      []TimeAnchoredEvent `json:"events"`
	Action      Action              `json:"action"`
	Confidence  float64             `json:"confidence"`
	Findings    []string            `json:"findings"`
	ReportURL   string              `json:"report_url,omitempty"`
}
