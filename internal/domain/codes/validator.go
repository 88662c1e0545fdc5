package codes

import (
	"regexp"
	"strings"
)

// Confidence scoring constants. A candidate is never rejected for looking
// implausible, only scored lower.
const (
	dashedFormatBonus    = 0.15
	ambiguousCharPenalty = 0.02
	plausibilityBonus    = 0.05

	minConfidence = 0.1
	maxConfidence = 1.0
)

// Characters OCR commonly confuses with one another (0/O, 1/I/L, 5/S, 8/B).
const ambiguousChars = "0O1IL5S8B"

// Candidate patterns, applied in order. The dashed form is canonical and
// earns a format bonus.
var patterns = []struct {
	method string
	dashed bool
	re     *regexp.Regexp
}{
	{"dashed", true, regexp.MustCompile(`\b[A-Za-z0-9]{4}-[A-Za-z0-9]{6}-[A-Za-z0-9]{4}\b`)},
	{"spaced", false, regexp.MustCompile(`\b[A-Za-z0-9]{4} [A-Za-z0-9]{6} [A-Za-z0-9]{4}\b`)},
	{"mixed", false, regexp.MustCompile(`\b[A-Za-z0-9]{4}[-_ .][A-Za-z0-9]{6}[-_ .][A-Za-z0-9]{4}\b`)},
	{"block", false, regexp.MustCompile(`\b[A-Za-z0-9]{14}\b`)},
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

// Normalize strips separators, uppercases, and reassembles the canonical
// dashed 4-6-4 form. Returns false when the stripped input is not exactly
// 14 alphanumeric characters.
func Normalize(raw string) (string, bool) {
	stripped := strings.ToUpper(nonAlnum.ReplaceAllString(raw, ""))
	if len(stripped) != 14 {
		return "", false
	}
	for _, r := range stripped {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", false
		}
	}
	return stripped[0:4] + "-" + stripped[4:10] + "-" + stripped[10:14], true
}

// Extract applies the candidate patterns in order against raw recognized text
// and returns all validated detections. ocrConfidence is the recognizer's
// confidence for the whole text block; timestamp and provenance are carried
// through to the detections. Duplicate matches of the same normalized code
// within one text block are collapsed, first pattern wins.
func Extract(raw string, ocrConfidence float64, timestamp float64, prov Provenance, region Region) []Detection {
	var out []Detection
	seen := make(map[string]bool)
	for _, p := range patterns {
		for _, match := range p.re.FindAllString(raw, -1) {
			normalized, ok := Normalize(match)
			if !ok || seen[normalized] {
				continue
			}
			seen[normalized] = true
			out = append(out, Detection{
				Code:       normalized,
				Confidence: Score(normalized, ocrConfidence, p.dashed),
				Region:     region,
				Timestamp:  timestamp,
				Provenance: prov,
				RawText:    match,
				Method:     p.method,
			})
		}
	}
	return out
}

// Score derives a detection confidence from the source OCR confidence:
// bonus for the canonical dashed format, penalty per ambiguous character,
// small bonus when the code does not look like a typical implausible string.
// The result is clamped to [0.1, 1.0].
func Score(normalized string, ocrConfidence float64, dashed bool) float64 {
	conf := ocrConfidence
	if dashed {
		conf += dashedFormatBonus
	}
	conf -= ambiguousCharPenalty * float64(countAmbiguous(normalized))
	if !Implausible(normalized) {
		conf += plausibilityBonus
	}
	return Clamp(conf)
}

// Clamp bounds a confidence to [0.1, 1.0].
func Clamp(conf float64) float64 {
	if conf < minConfidence {
		return minConfidence
	}
	if conf > maxConfidence {
		return maxConfidence
	}
	return conf
}

func countAmbiguous(code string) int {
	n := 0
	for _, r := range code {
		if strings.ContainsRune(ambiguousChars, r) {
			n++
		}
	}
	return n
}

// Implausible reports whether a code exhibits a typical junk pattern:
// four or more repeated consecutive characters, or a sequential run of
// four or more consecutive characters (ABCD, 1234).
func Implausible(code string) bool {
	stripped := nonAlnum.ReplaceAllString(code, "")
	repeat, ascend := 1, 1
	for i := 1; i < len(stripped); i++ {
		if stripped[i] == stripped[i-1] {
			repeat++
		} else {
			repeat = 1
		}
		if stripped[i] == stripped[i-1]+1 {
			ascend++
		} else {
			ascend = 1
		}
		if repeat >= 4 || ascend >= 4 {
			return true
		}
	}
	return false
}

// Dedup collapses detections sharing a normalized code; the first occurrence
// wins. Input order is preserved.
func Dedup(list []Detection) []Detection {
	if len(list) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(list))
	out := make([]Detection, 0, len(list))
	for _, d := range list {
		if seen[d.Code] {
			continue
		}
		seen[d.Code] = true
		out = append(out, d)
	}
	return out
}

// Mask hides the middle of a code for log output, keeping the first group
// and the last two characters.
func Mask(normalized string) string {
	if len(normalized) != 16 {
		return "****"
	}
	return normalized[0:4] + "-******-**" + normalized[14:16]
}
