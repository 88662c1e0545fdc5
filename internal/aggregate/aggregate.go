// Package aggregate merges the terminal process snapshot of a run into a
// single confidence-scored verdict. Build is a pure function: identical
// snapshots always produce identical verdicts.
package aggregate

import (
	"fmt"
	"time"

	"clipscan/internal/domain/analysis"
	"clipscan/internal/domain/codes"
)

// investigateThreshold is the deduplicated-detection confidence above which
// the verdict recommends investigation.
const investigateThreshold = 0.8

// Build aggregates detections and events across every completed process in
// the snapshot (failed and abandoned processes contribute nothing), dedups
// by normalized code across all processes, and derives the recommended
// action. Snapshot order is dispatch order, which fixes dedup tie-breaks.
func Build(channelID, videoID string, processedAt time.Time, elapsed time.Duration, procs []*analysis.Process) *analysis.Verdict {
	var detections []codes.Detection
	var events []analysis.TimeAnchoredEvent
	for _, p := range procs {
		if p.State != analysis.StateCompleted || p.Result == nil {
			continue
		}
		detections = append(detections, p.Result.Detections...)
		events = append(events, p.Result.Events...)
	}
	detections = codes.Dedup(detections)

	confidence := 0.0
	high := 0
	for _, d := range detections {
		confidence += d.Confidence
		if d.Confidence > investigateThreshold {
			high++
		}
	}
	if len(detections) > 0 {
		confidence /= float64(len(detections))
	}

	action := analysis.ActionIgnore
	switch {
	case high > 0:
		action = analysis.ActionInvestigate
	case len(detections) > 0:
		action = analysis.ActionMonitor
	}

	return &analysis.Verdict{
		ChannelID:   channelID,
		VideoID:     videoID,
		ProcessedAt: processedAt,
		DurationMS:  elapsed.Milliseconds(),
		Detections:  detections,
		Events:      events,
		Action:      action,
		Confidence:  confidence,
		Findings:    findings(len(detections), high, len(events)),
	}
}

func findings(detections, highConfidence, events int) []string {
	var out []string
	if detections > 0 {
		out = append(out, fmt.Sprintf("%d candidate code(s) detected", detections))
	}
	if highConfidence > 0 {
		out = append(out, fmt.Sprintf("%d high-confidence detection(s)", highConfidence))
	}
	if events > 0 {
		out = append(out, fmt.Sprintf("%d laughter cue(s) anchored in time", events))
	}
	if len(out) == 0 {
		out = append(out, "no significant findings")
	}
	return out
}
