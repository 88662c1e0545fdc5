package prompt

import "fmt"

// GetScreenSystemPrompt provides strict directions and schema for the cheap
// thumbnail screen. The model only answers whether monetary/redemption
// markers are visible at all.
func GetScreenSystemPrompt() string {
	return `You are a screening assistant for video thumbnails. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- positive_signal is true only when the image shows monetary or redemption markers: gift-card imagery, currency symbols or amounts, the words "code", "redeem", "giveaway", "free", or partially visible alphanumeric code blocks.
- detections lists each marker you saw with a confidence between 0.0 and 1.0.
- When the image is unreadable, return positive_signal false with an empty detections array.

Schema (example with empty values):
{
  "positive_signal": false,
  "detections": [
    {"label": "<string>", "confidence": 0.0}
  ]
}`
}

// GetScreenUserPrompt builds the compact user message for a thumbnail URL.
func GetScreenUserPrompt(imageURL string) string {
	return fmt.Sprintf("Screen this thumbnail for monetary or redemption markers and respond with the JSON per schema. Image: %s", imageURL)
}
