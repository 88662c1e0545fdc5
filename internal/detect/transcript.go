package detect

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"clipscan/internal/domain/analysis"
	"clipscan/internal/domain/providers"
)

// TranscriptScanResult is what a caption pass reports: time-anchored events
// for segments matching the laughter-keyword set, plus the distinct keywords
// that matched.
type TranscriptScanResult struct {
	Events   []analysis.TimeAnchoredEvent
	Keywords []string
}

// Caption text is explicit, so matched segments score higher than audio
// heuristics.
const transcriptEventConfidence = 0.85

// TranscriptScanner fetches the caption track (preferring a configured
// language, falling back to the first available) and flags segments whose
// text matches a laughter keyword. Provider failure yields an empty result.
type TranscriptScanner struct {
	captions providers.CaptionSource
	log      *slog.Logger

	preferredLanguage string
	laughMarkers      []string
}

func NewTranscriptScanner(captions providers.CaptionSource, log *slog.Logger, preferredLanguage string, laughMarkers []string) *TranscriptScanner {
	return &TranscriptScanner{
		captions:          captions,
		log:               log,
		preferredLanguage: preferredLanguage,
		laughMarkers:      laughMarkers,
	}
}

func (s *TranscriptScanner) Scan(ctx context.Context, videoID string) TranscriptScanResult {
	var res TranscriptScanResult
	tracks, err := s.captions.ListTracks(ctx, videoID)
	if err != nil {
		if errors.Is(err, providers.ErrNoCaptions) {
			s.log.Info("no caption tracks", "video_id", videoID)
		} else {
			s.log.Warn("caption track listing failed", "video_id", videoID, "error", err)
		}
		return res
	}
	if len(tracks) == 0 {
		return res
	}
	track := tracks[0]
	for _, t := range tracks {
		if t.Language == s.preferredLanguage {
			track = t
			break
		}
	}

	segments, err := s.captions.FetchTrack(ctx, videoID, track)
	if err != nil {
		s.log.Warn("caption fetch failed", "video_id", videoID, "language", track.Language, "error", err)
		return res
	}

	matched := make(map[string]bool)
	for _, seg := range segments {
		lower := strings.ToLower(seg.Text)
		kw := firstMarker(lower, s.laughMarkers)
		if kw == "" {
			continue
		}
		matched[kw] = true
		ev := analysis.NewTimeAnchoredEvent(seg.Start, transcriptEventConfidence, analysis.SourceTranscript, seg.Text)
		res.Events = append(res.Events, ev)
		s.log.Info("laughter cue in transcript", "video_id", videoID, "timestamp", seg.Start, "keyword", kw)
	}
	for kw := range matched {
		res.Keywords = append(res.Keywords, kw)
	}
	sort.Strings(res.Keywords)
	return res
}
