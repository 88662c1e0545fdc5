package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clipscan/internal/domain/analysis"
	"clipscan/internal/domain/codes"
	"clipscan/internal/domain/providers"
)

// FrameScanResult is what a frame-scan pass reports: validated candidate
// detections plus the frame samples it consumed.
type FrameScanResult struct {
	Detections []codes.Detection
	Samples    []analysis.FrameSample
}

// FrameScanner samples frames at a fixed interval, runs OCR on each and
// feeds the recognized text through the code validator. Individual frame
// failures are logged and skipped; the scanner never fails a whole pass.
type FrameScanner struct {
	media providers.MediaSource
	ocr   providers.TextRecognizer
	log   *slog.Logger

	interval    float64 // seconds between samples on a full scan
	maxDuration float64 // seconds of video covered by a full scan
}

func NewFrameScanner(media providers.MediaSource, ocr providers.TextRecognizer, log *slog.Logger, interval, maxDuration float64) *FrameScanner {
	return &FrameScanner{media: media, ocr: ocr, log: log, interval: interval, maxDuration: maxDuration}
}

// Scan runs the full-duration base pass.
func (s *FrameScanner) Scan(ctx context.Context, videoRef, videoID string) FrameScanResult {
	return s.ScanWindow(ctx, videoRef, videoID, 0, s.maxDuration, s.interval)
}

// ScanWindow samples frames in [start, end) every step seconds. Targeted
// re-scans use this directly with a finer step.
func (s *FrameScanner) ScanWindow(ctx context.Context, videoRef, videoID string, start, end, step float64) FrameScanResult {
	var res FrameScanResult
	if step <= 0 {
		s.log.Warn("frame scan skipped, non-positive step", "video_id", videoID, "step", step)
		return res
	}
	for ts := start; ts < end; ts += step {
		if ctx.Err() != nil {
			s.log.Warn("frame scan interrupted", "video_id", videoID, "timestamp", ts, "error", ctx.Err())
			return res
		}
		frame, err := s.media.FrameAt(ctx, videoRef, ts)
		if err != nil {
			if !errors.Is(err, providers.ErrNotStaged) {
				s.log.Warn("frame fetch failed, skipping", "video_id", videoID, "timestamp", ts, "error", err)
			}
			continue
		}
		res.Samples = append(res.Samples, analysis.FrameSample{
			Timestamp: ts,
			ObjectKey: frameKey(videoRef, ts),
		})
		rec, err := s.ocr.RecognizeText(ctx, frame)
		if err != nil {
			s.log.Warn("ocr failed, skipping frame", "video_id", videoID, "timestamp", ts, "error", err)
			continue
		}
		if rec.Text == "" {
			continue
		}
		found := codes.Extract(rec.Text, rec.Confidence, ts, codes.ProvenanceVideoFrame, rec.Region)
		for _, d := range found {
			s.log.Info("candidate code detected",
				"video_id", videoID, "code", codes.Mask(d.Code),
				"confidence", d.Confidence, "timestamp", ts, "method", d.Method)
		}
		res.Detections = append(res.Detections, found...)
	}
	return res
}

// frameKey mirrors the staging layout used by the object-store media source.
func frameKey(videoRef string, ts float64) string {
	return fmt.Sprintf("%s/frames/%.1f.jpg", videoRef, ts)
}
