package codes_test

import (
	"testing"

	"clipscan/internal/domain/codes"
)

func TestNormalizeCanonicalizesSeparatorsAndCase(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"GIFT-REDEEM-CODE", "GIFT-REDEEM-CODE"},
		{"gift redeem code", "GIFT-REDEEM-CODE"},
		{"gift_redeem_code", "GIFT-REDEEM-CODE"},
		{"GIFTREDEEMCODE", "GIFT-REDEEM-CODE"},
		{"ab12 cd34ef 5678", "AB12-CD34EF-5678"},
	}
	for _, tc := range cases {
		got, ok := codes.Normalize(tc.raw)
		if !ok {
			t.Fatalf("Normalize(%q) rejected", tc.raw)
		}
		if got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeRejectsWrongLength(t *testing.T) {
	for _, raw := range []string{"", "ABC-DEF", "GIFT-REDEEM-CODES", "GIFT-REDEEM-COD"} {
		if got, ok := codes.Normalize(raw); ok {
			t.Fatalf("Normalize(%q) accepted as %q, want rejection", raw, got)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once, ok := codes.Normalize("ab12 cd34ef 5678")
	if !ok {
		t.Fatal("first Normalize rejected")
	}
	twice, ok := codes.Normalize(once)
	if !ok {
		t.Fatalf("Normalize(%q) rejected its own output", once)
	}
	if twice != once {
		t.Fatalf("Normalize not idempotent: %q then %q", once, twice)
	}
}

func TestExtractCollapsesSameCodeAcrossFormats(t *testing.T) {
	raw := "Use code GIFT-REDEEM-CODE or GIFT REDEEM CODE today"
	got := codes.Extract(raw, 0.9, 12.5, codes.ProvenanceVideoFrame, codes.Region{})
	if len(got) != 1 {
		t.Fatalf("expected one detection, got %d", len(got))
	}
	d := got[0]
	if d.Code != "GIFT-REDEEM-CODE" {
		t.Fatalf("unexpected code: %q", d.Code)
	}
	if d.Method != "dashed" {
		t.Fatalf("expected first pattern to win, got method %q", d.Method)
	}
	if d.Timestamp != 12.5 {
		t.Fatalf("timestamp not carried: %v", d.Timestamp)
	}
	if d.Provenance != codes.ProvenanceVideoFrame {
		t.Fatalf("provenance not carried: %q", d.Provenance)
	}
}

func TestExtractFindsMultipleDistinctCodes(t *testing.T) {
	raw := "GIFT-REDEEM-CODE and also WXYZ-QQWWEE-RRTT"
	got := codes.Extract(raw, 0.8, 0, codes.ProvenanceThumbnail, codes.Region{})
	if len(got) != 2 {
		t.Fatalf("expected two detections, got %d", len(got))
	}
}

func TestExtractIgnoresNonMatchingText(t *testing.T) {
	got := codes.Extract("thanks for watching, like and subscribe", 0.9, 0, codes.ProvenanceVideoFrame, codes.Region{})
	if len(got) != 0 {
		t.Fatalf("expected no detections, got %d", len(got))
	}
}

func TestScoreDashedHighConfidenceCrossesThreshold(t *testing.T) {
	norm, ok := codes.Normalize("AAAA-112233-BBBB")
	if !ok {
		t.Fatal("Normalize rejected")
	}
	dashed := codes.Score(norm, 0.9, true)
	if dashed <= 0.8 {
		t.Fatalf("dashed score %v, want > 0.8", dashed)
	}
	block := codes.Score(norm, 0.5, false)
	if block > 0.8 {
		t.Fatalf("unseparated score %v, want <= 0.8", block)
	}
	if dashed <= block {
		t.Fatalf("dashed %v should outrank unseparated %v", dashed, block)
	}
}

func TestScoreStaysInBounds(t *testing.T) {
	for _, tc := range []struct {
		conf   float64
		dashed bool
	}{{0, false}, {0, true}, {1, true}, {1, false}, {-5, false}, {5, true}} {
		got := codes.Score("AAAA-112233-BBBB", tc.conf, tc.dashed)
		if got < 0.1 || got > 1.0 {
			t.Fatalf("Score(%v, %v) = %v, out of [0.1, 1.0]", tc.conf, tc.dashed, got)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := codes.Clamp(-1); got != 0.1 {
		t.Fatalf("Clamp(-1) = %v", got)
	}
	if got := codes.Clamp(2); got != 1.0 {
		t.Fatalf("Clamp(2) = %v", got)
	}
	if got := codes.Clamp(0.55); got != 0.55 {
		t.Fatalf("Clamp(0.55) = %v", got)
	}
}

func TestImplausible(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"AAAA-112233-BBBB", true},  // four repeated characters
		{"AB12-CD3456-EF78", true},  // 3456 ascending run
		{"GIFT-REDEEM-CODE", false}, // EE is only a pair
		{"WXYZ-QQWWEE-RRTT", true},  // WXYZ ascending run
		{"XK42-PQ9M7D-FH21", false},
	}
	for _, tc := range cases {
		if got := codes.Implausible(tc.code); got != tc.want {
			t.Fatalf("Implausible(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestDedupFirstOccurrenceWins(t *testing.T) {
	in := []codes.Detection{
		{Code: "GIFT-REDEEM-CODE", Confidence: 0.9, Method: "dashed"},
		{Code: "WXYZ-QQWWEE-RRTT", Confidence: 0.5},
		{Code: "GIFT-REDEEM-CODE", Confidence: 0.99, Method: "block"},
	}
	out := codes.Dedup(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(out))
	}
	if out[0].Code != "GIFT-REDEEM-CODE" || out[0].Method != "dashed" {
		t.Fatalf("first occurrence did not win: %+v", out[0])
	}
	if out[1].Code != "WXYZ-QQWWEE-RRTT" {
		t.Fatalf("order not preserved: %+v", out[1])
	}

	again := codes.Dedup(out)
	if len(again) != len(out) {
		t.Fatalf("Dedup not idempotent: %d then %d", len(out), len(again))
	}
	for i := range again {
		if again[i] != out[i] {
			t.Fatalf("Dedup changed element %d: %+v vs %+v", i, out[i], again[i])
		}
	}
}

func TestDedupEmpty(t *testing.T) {
	if got := codes.Dedup(nil); got != nil {
		t.Fatalf("Dedup(nil) = %v, want nil", got)
	}
}

func TestMask(t *testing.T) {
	if got := codes.Mask("GIFT-REDEEM-CODE"); got != "GIFT-******-**DE" {
		t.Fatalf("Mask = %q", got)
	}
	if got := codes.Mask("short"); got != "****" {
		t.Fatalf("Mask fallback = %q", got)
	}
}
