package detect

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"clipscan/internal/domain/analysis"
	"clipscan/internal/domain/providers"
)

// AudioScanResult is what an audio pass reports: one time-anchored event per
// window whose transcript contains a laughter marker, plus windows matching
// the unrelated suspicious-keyword heuristics.
type AudioScanResult struct {
	Events            []analysis.TimeAnchoredEvent
	SuspiciousWindows []analysis.AudioWindow
}

// Base confidence for an audio laughter hit; each extra marker in the same
// window adds a small increment.
const (
	audioEventBaseConfidence = 0.6
	audioEventHitIncrement   = 0.1
)

// AudioScanner splits audio into fixed-duration windows, transcribes each
// and flags laughter markers. Window failures are logged and skipped.
type AudioScanner struct {
	media       providers.MediaSource
	transcriber providers.Transcriber
	log         *slog.Logger

	windowSeconds float64
	maxDuration   float64
	laughMarkers  []string
	suspicious    []string
}

func NewAudioScanner(media providers.MediaSource, transcriber providers.Transcriber, log *slog.Logger, windowSeconds, maxDuration float64, laughMarkers, suspicious []string) *AudioScanner {
	return &AudioScanner{
		media:         media,
		transcriber:   transcriber,
		log:           log,
		windowSeconds: windowSeconds,
		maxDuration:   maxDuration,
		laughMarkers:  laughMarkers,
		suspicious:    suspicious,
	}
}

func (s *AudioScanner) Scan(ctx context.Context, videoRef, videoID string) AudioScanResult {
	var res AudioScanResult
	if s.windowSeconds <= 0 {
		s.log.Warn("audio scan skipped, non-positive window", "video_id", videoID)
		return res
	}
	for start := 0.0; start < s.maxDuration; start += s.windowSeconds {
		if ctx.Err() != nil {
			s.log.Warn("audio scan interrupted", "video_id", videoID, "start", start, "error", ctx.Err())
			return res
		}
		wav, err := s.media.AudioWindowAt(ctx, videoRef, start, s.windowSeconds)
		if err != nil {
			if !errors.Is(err, providers.ErrNotStaged) {
				s.log.Warn("audio window fetch failed, skipping", "video_id", videoID, "start", start, "error", err)
			}
			continue
		}
		text, err := s.transcriber.Transcribe(ctx, wav)
		if err != nil {
			s.log.Warn("transcription failed, skipping window", "video_id", videoID, "start", start, "error", err)
			continue
		}
		lower := strings.ToLower(text)

		if hits := countMarkers(lower, s.laughMarkers); hits > 0 {
			conf := audioEventBaseConfidence + audioEventHitIncrement*float64(hits-1)
			if conf > 1.0 {
				conf = 1.0
			}
			ev := analysis.NewTimeAnchoredEvent(start, conf, analysis.SourceAudio, text)
			res.Events = append(res.Events, ev)
			s.log.Info("laughter cue in audio", "video_id", videoID, "timestamp", start, "confidence", conf)
		}
		if kw := firstMarker(lower, s.suspicious); kw != "" {
			res.SuspiciousWindows = append(res.SuspiciousWindows, analysis.AudioWindow{
				Start:      start,
				Duration:   s.windowSeconds,
				Transcript: text,
				Keyword:    kw,
			})
		}
	}
	return res
}

func countMarkers(lower string, markers []string) int {
	n := 0
	for _, m := range markers {
		n += strings.Count(lower, m)
	}
	return n
}

func firstMarker(lower string, markers []string) string {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return ""
}
