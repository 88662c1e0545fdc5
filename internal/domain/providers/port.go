package providers

import (
	"context"

	"clipscan/internal/domain/codes"
)

// ScreenDetection is one raw hit from the cheap pre-filter provider.
type ScreenDetection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ScreenResult is the pre-filter provider's answer for one image.
type ScreenResult struct {
	Positive   bool              `json:"positive_signal"`
	Detections []ScreenDetection `json:"detections"`
}

// Screener is the cheap single-image pre-filter provider.
type Screener interface {
	Screen(ctx context.Context, imageURL string) (ScreenResult, error)
}

// Recognition is one OCR pass over a frame.
type Recognition struct {
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	Region     codes.Region `json:"region"`
}

// TextRecognizer is the OCR provider, called once per sampled frame.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, image []byte) (Recognition, error)
}

// Transcriber is the speech-to-text provider, called once per audio window.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// CaptionTrack identifies one caption track for a video.
type CaptionTrack struct {
	Language string
	Name     string
}

// CaptionSegment is a natively timed slice of a caption track.
type CaptionSegment struct {
	Start float64
	End   float64
	Text  string
}

// CaptionSource is the caption/transcript fetcher.
type CaptionSource interface {
	ListTracks(ctx context.Context, videoID string) ([]CaptionTrack, error)
	FetchTrack(ctx context.Context, videoID string, track CaptionTrack) ([]CaptionSegment, error)
}

// MediaSource serves frames and audio windows staged by the upstream ripper.
// Codec handling and frame extraction happen outside this system; detectors
// only read the materialized units.
type MediaSource interface {
	FrameAt(ctx context.Context, videoRef string, ts float64) ([]byte, error)
	AudioWindowAt(ctx context.Context, videoRef string, start, duration float64) ([]byte, error)
}
