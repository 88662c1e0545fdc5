package detect_test

import (
	"context"
	"testing"

	"clipscan/internal/detect"
	"clipscan/internal/domain/analysis"
	"clipscan/internal/domain/providers"
)

type fakeCaptions struct {
	tracks   []providers.CaptionTrack
	segments map[string][]providers.CaptionSegment // language -> segments
	listErr  error
	fetchErr error
}

func (f *fakeCaptions) ListTracks(ctx context.Context, videoID string) ([]providers.CaptionTrack, error) {
	return f.tracks, f.listErr
}

func (f *fakeCaptions) FetchTrack(ctx context.Context, videoID string, track providers.CaptionTrack) ([]providers.CaptionSegment, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.segments[track.Language], nil
}

func TestTranscriptScanAnchorsLaughterSegments(t *testing.T) {
	caps := &fakeCaptions{
		tracks: []providers.CaptionTrack{{Language: "en"}},
		segments: map[string][]providers.CaptionSegment{
			"en": {
				{Start: 10, End: 13, Text: "welcome to the stream"},
				{Start: 42, End: 45, Text: "[Laughter] oh that is great"},
				{Start: 90, End: 92, Text: "haha no way"},
			},
		},
	}

	s := detect.NewTranscriptScanner(caps, testLogger(), "en", defaultMarkers)
	res := s.Scan(context.Background(), "vid-1")

	if len(res.Events) != 2 {
		t.Fatalf("expected two events, got %d", len(res.Events))
	}
	if res.Events[0].Timestamp != 42 || res.Events[1].Timestamp != 90 {
		t.Fatalf("events anchored at %v and %v", res.Events[0].Timestamp, res.Events[1].Timestamp)
	}
	for _, ev := range res.Events {
		if ev.Source != analysis.SourceTranscript {
			t.Fatalf("unexpected source %q", ev.Source)
		}
		if ev.Confidence != 0.85 {
			t.Fatalf("unexpected confidence %v", ev.Confidence)
		}
	}
	if len(res.Keywords) != 2 || res.Keywords[0] != "[laughter]" || res.Keywords[1] != "haha" {
		t.Fatalf("unexpected keywords: %v", res.Keywords)
	}
}

func TestTranscriptScanPrefersConfiguredLanguage(t *testing.T) {
	caps := &fakeCaptions{
		tracks: []providers.CaptionTrack{{Language: "de"}, {Language: "en"}},
		segments: map[string][]providers.CaptionSegment{
			"de": {{Start: 5, End: 8, Text: "haha"}},
			"en": {{Start: 42, End: 45, Text: "haha"}},
		},
	}

	s := detect.NewTranscriptScanner(caps, testLogger(), "en", defaultMarkers)
	res := s.Scan(context.Background(), "vid-1")

	if len(res.Events) != 1 || res.Events[0].Timestamp != 42 {
		t.Fatalf("expected the english track's event, got %+v", res.Events)
	}
}

func TestTranscriptScanFallsBackToFirstTrack(t *testing.T) {
	caps := &fakeCaptions{
		tracks: []providers.CaptionTrack{{Language: "de"}, {Language: "fr"}},
		segments: map[string][]providers.CaptionSegment{
			"de": {{Start: 5, End: 8, Text: "haha"}},
		},
	}

	s := detect.NewTranscriptScanner(caps, testLogger(), "en", defaultMarkers)
	res := s.Scan(context.Background(), "vid-1")

	if len(res.Events) != 1 || res.Events[0].Timestamp != 5 {
		t.Fatalf("expected the first track's event, got %+v", res.Events)
	}
}

func TestTranscriptScanNoCaptionsYieldsEmptyResult(t *testing.T) {
	caps := &fakeCaptions{listErr: providers.ErrNoCaptions}

	s := detect.NewTranscriptScanner(caps, testLogger(), "en", defaultMarkers)
	res := s.Scan(context.Background(), "vid-1")

	if len(res.Events) != 0 || len(res.Keywords) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}
