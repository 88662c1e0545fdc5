package providers

import "errors"

// ErrUnavailable indicates a provider could not be reached at all (transport
// failure). For the pre-filter this is the one condition that aborts a run.
var ErrUnavailable = errors.New("provider unavailable")

// ErrNoCaptions indicates the video has no caption track.
var ErrNoCaptions = errors.New("no captions available")

// ErrNotStaged indicates a requested frame or audio window has not been
// materialized in the media store. Detectors skip the unit.
var ErrNotStaged = errors.New("media unit not staged")
