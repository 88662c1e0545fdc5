// Package prefilter gates the expensive analysis pipeline behind a cheap
// single-image screen. Historically this rejects roughly an order of
// magnitude of candidate videos before any detector runs.
package prefilter

import (
	"context"
	"errors"
	"log/slog"

	"clipscan/internal/domain/providers"
)

// Decision is the gate's answer: whether the pipeline should run, plus the
// raw screening detections for observability.
type Decision struct {
	Proceed    bool
	Detections []providers.ScreenDetection
}

// Gate wraps the screening provider. A per-call provider failure fails open
// (proceed) because wasted compute is cheaper than a missed detection; only
// provider unavailability propagates and aborts the run.
type Gate struct {
	screener providers.Screener
	log      *slog.Logger
}

func NewGate(screener providers.Screener, log *slog.Logger) *Gate {
	return &Gate{screener: screener, log: log}
}

func (g *Gate) Check(ctx context.Context, videoID, thumbnailURL string) (Decision, error) {
	res, err := g.screener.Screen(ctx, thumbnailURL)
	if err != nil {
		if errors.Is(err, providers.ErrUnavailable) {
			return Decision{}, err
		}
		g.log.Warn("pre-filter screen failed, failing open", "video_id", videoID, "error", err)
		return Decision{Proceed: true}, nil
	}
	if !res.Positive {
		g.log.Info("pre-filter negative, skipping deep analysis", "video_id", videoID)
	}
	return Decision{Proceed: res.Positive, Detections: res.Detections}, nil
}
