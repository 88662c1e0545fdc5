package middleware

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Input validation and sanitization for webhook payloads

var (
	videoIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)
	channelIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	videoRefPattern  = regexp.MustCompile(`^[A-Za-z0-9._/-]{1,256}$`)
)

// ValidateVideoID checks the platform video identifier format.
func ValidateVideoID(id string) error {
	if id == "" {
		return fmt.Errorf("video_id is required")
	}
	if !videoIDPattern.MatchString(id) {
		return fmt.Errorf("invalid video_id format")
	}
	return nil
}

// ValidateChannelID checks the channel identifier format.
func ValidateChannelID(id string) error {
	if id == "" {
		return fmt.Errorf("channel is required")
	}
	if !channelIDPattern.MatchString(id) {
		return fmt.Errorf("invalid channel format")
	}
	return nil
}

// ValidateVideoRef checks the media staging reference (an object-store
// prefix, so path traversal must be rejected).
func ValidateVideoRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("video_ref is required")
	}
	if strings.Contains(ref, "..") {
		return fmt.Errorf("invalid video_ref: path traversal")
	}
	if !videoRefPattern.MatchString(ref) {
		return fmt.Errorf("invalid video_ref format")
	}
	return nil
}

// ValidateURL validates and sanitizes URLs
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}

	// Check for localhost/internal IPs (SSRF protection)
	host := strings.ToLower(u.Hostname())
	blocked := []string{"localhost", "127.0.0.1", "0.0.0.0", "[::]", "::1"}
	for _, b := range blocked {
		if strings.Contains(host, b) {
			return fmt.Errorf("localhost/internal IPs are not allowed")
		}
	}

	// Block private IP ranges (basic check)
	if strings.HasPrefix(host, "10.") ||
		strings.HasPrefix(host, "192.168.") ||
		strings.HasPrefix(host, "172.16.") ||
		strings.HasPrefix(host, "172.31.") {
		return fmt.Errorf("private IP ranges are not allowed")
	}

	return nil
}

// ValidatePriority bounds the job priority hint.
func ValidatePriority(p int) error {
	if p < 0 || p > 10 {
		return fmt.Errorf("priority must be between 0 and 10")
	}
	return nil
}
