package codes

// Provenance enum: where the frame that produced a detection came from
type Provenance string

const (
	ProvenanceVideoFrame Provenance = "video-frame"
	ProvenanceThumbnail  Provenance = "thumbnail"
)

// Region is the bounding box of recognized text in the source frame
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detection is one validated candidate code. Immutable after creation;
// uniqueness is defined solely by the normalized Code value.
type Detection struct {
	Code       string     `json:"code"` // canonical dashed form XXXX-XXXXXX-XXXX
	Confidence float64    `json:"confidence"`
	Region     Region     `json:"region"`
	Timestamp  float64    `json:"timestamp"` // seconds from video start, 0 if not frame-anchored
	Provenance Provenance `json:"provenance"`
	RawText    string     `json:"raw_text"`
	Method     string     `json:"method"` // which pattern matched
}
