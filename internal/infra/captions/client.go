// Package captions fetches caption tracks over the timedtext HTTP endpoint
// and exposes them as natively timed segments.
package captions

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"clipscan/internal/domain/providers"
)

const defaultBaseURL = "https://video.google.com/timedtext"

type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 20 * time.Second},
		baseURL: baseURL,
	}
}

// ListTracks implements providers.CaptionSource.
func (c *Client) ListTracks(ctx context.Context, videoID string) ([]providers.CaptionTrack, error) {
	q := url.Values{"type": {"list"}, "v": {videoID}}
	body, err := c.get(ctx, q)
	if err != nil {
		return nil, err
	}
	tracks, err := parseTrackList(body)
	if err != nil {
		return nil, fmt.Errorf("parse track list: %w", err)
	}
	if len(tracks) == 0 {
		return nil, providers.ErrNoCaptions
	}
	return tracks, nil
}

// FetchTrack implements providers.CaptionSource.
func (c *Client) FetchTrack(ctx context.Context, videoID string, track providers.CaptionTrack) ([]providers.CaptionSegment, error) {
	q := url.Values{"v": {videoID}, "lang": {track.Language}}
	if track.Name != "" {
		q.Set("name", track.Name)
	}
	body, err := c.get(ctx, q)
	if err != nil {
		return nil, err
	}
	segments, err := parseTranscript(body)
	if err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return segments, nil
}

func (c *Client) get(ctx context.Context, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, providers.ErrNoCaptions
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timedtext status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type trackListXML struct {
	Tracks []struct {
		LangCode string `xml:"lang_code,attr"`
		Name     string `xml:"name,attr"`
	} `xml:"track"`
}

func parseTrackList(body []byte) ([]providers.CaptionTrack, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var list trackListXML
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, err
	}
	out := make([]providers.CaptionTrack, 0, len(list.Tracks))
	for _, t := range list.Tracks {
		out = append(out, providers.CaptionTrack{Language: t.LangCode, Name: t.Name})
	}
	return out, nil
}

type transcriptXML struct {
	Texts []struct {
		Start float64 `xml:"start,attr"`
		Dur   string  `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

func parseTranscript(body []byte) ([]providers.CaptionSegment, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var tr transcriptXML
	if err := xml.Unmarshal(body, &tr); err != nil {
		return nil, err
	}
	out := make([]providers.CaptionSegment, 0, len(tr.Texts))
	for _, t := range tr.Texts {
		dur, _ := strconv.ParseFloat(strings.TrimSpace(t.Dur), 64)
		text := strings.TrimSpace(html.UnescapeString(t.Body))
		if text == "" {
			continue
		}
		out = append(out, providers.CaptionSegment{
			Start: t.Start,
			End:   t.Start + dur,
			Text:  text,
		})
	}
	return out, nil
}
