package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"clipscan/internal/domain/providers"
	"clipscan/internal/infra/ai/prompt"
)

const maxTokens = 1024

// Client backs three provider ports with one OpenAI account: the thumbnail
// Screener and the frame TextRecognizer via vision chat completions, and the
// Transcriber via Whisper.
type Client struct {
	*openai.Client
	Model           string
	TranscribeModel string
}

func NewClient(apiKey, model, transcribeModel string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model, TranscribeModel: transcribeModel}
}

func (c *Client) visionModel() string {
	if c.Model == "" {
		return "gpt-4o-mini"
	}
	return c.Model
}

// Screen implements providers.Screener. Transport failures map to
// providers.ErrUnavailable so the gate can distinguish setup-level failure
// from a bad per-call answer.
func (c *Client) Screen(ctx context.Context, imageURL string) (providers.ScreenResult, error) {
	content, err := c.visionJSON(ctx, prompt.GetScreenSystemPrompt(), prompt.GetScreenUserPrompt(imageURL), imageURL, openai.ImageURLDetailLow)
	if err != nil {
		return providers.ScreenResult{}, err
	}
	var res providers.ScreenResult
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return providers.ScreenResult{}, fmt.Errorf("decode screen response: %w", err)
	}
	return res, nil
}

// RecognizeText implements providers.TextRecognizer for raw frame bytes.
func (c *Client) RecognizeText(ctx context.Context, image []byte) (providers.Recognition, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	content, err := c.visionJSON(ctx, prompt.GetOCRSystemPrompt(), prompt.GetOCRUserPrompt(), dataURL, openai.ImageURLDetailHigh)
	if err != nil {
		return providers.Recognition{}, err
	}
	var rec providers.Recognition
	if err := json.Unmarshal([]byte(content), &rec); err != nil {
		return providers.Recognition{}, fmt.Errorf("decode ocr response: %w", err)
	}
	return rec, nil
}

// Transcribe implements providers.Transcriber for one audio window.
func (c *Client) Transcribe(ctx context.Context, wav []byte) (string, error) {
	model := c.TranscribeModel
	if model == "" {
		model = openai.Whisper1
	}
	resp, err := c.CreateTranscription(ctx, openai.AudioRequest{
		Model:    model,
		FilePath: "window.wav",
		Reader:   bytes.NewReader(wav),
	})
	if err != nil {
		return "", classify(fmt.Errorf("create transcription: %w", err))
	}
	return resp.Text, nil
}

func (c *Client) visionJSON(ctx context.Context, system, user, imageURL string, detail openai.ImageURLDetail) (string, error) {
	model := c.visionModel()
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: user},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL, Detail: detail},
					},
				},
			},
		},
	}
	// Reasoning models take MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(fmt.Errorf("create chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// classify tags transport-level failures as provider unavailability. An API
// error means the provider answered, however unhelpfully, and stays a plain
// call failure.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
}
