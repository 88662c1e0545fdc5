package prompt

// GetOCRSystemPrompt provides strict directions and schema for per-frame
// text recognition.
func GetOCRSystemPrompt() string {
	return `You are an OCR engine for video frames. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- text is every piece of machine-printed or overlaid text visible in the frame, in reading order, joined with spaces. Preserve dashes, underscores and spacing inside code-like blocks exactly as rendered.
- confidence is your overall confidence in the transcription, between 0.0 and 1.0.
- region is the pixel bounding box of the dominant text block; use zeros when no text is visible.
- When no text is visible, return an empty text with confidence 0.

Schema (example with empty values):
{
  "text": "<string>",
  "confidence": 0.0,
  "region": {"x": 0, "y": 0, "width": 0, "height": 0}
}`
}

// GetOCRUserPrompt is the fixed user message accompanying each frame.
func GetOCRUserPrompt() string {
	return "Transcribe all visible text in this frame and respond with the JSON per schema."
}
