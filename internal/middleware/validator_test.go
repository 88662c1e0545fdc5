package middleware_test

import (
	"testing"

	"clipscan/internal/middleware"
)

func TestValidateVideoID(t *testing.T) {
	for _, id := range []string{"dQw4w9WgXcQ", "abc_123-XYZ"} {
		if err := middleware.ValidateVideoID(id); err != nil {
			t.Fatalf("ValidateVideoID(%q): %v", id, err)
		}
	}
	for _, id := range []string{"", "short", "has space", "semi;colon"} {
		if err := middleware.ValidateVideoID(id); err == nil {
			t.Fatalf("ValidateVideoID(%q) accepted", id)
		}
	}
}

func TestValidateVideoRefRejectsTraversal(t *testing.T) {
	if err := middleware.ValidateVideoRef("channel/vid-1"); err != nil {
		t.Fatalf("valid ref rejected: %v", err)
	}
	for _, ref := range []string{"", "../etc/passwd", "a/../../b"} {
		if err := middleware.ValidateVideoRef(ref); err == nil {
			t.Fatalf("ValidateVideoRef(%q) accepted", ref)
		}
	}
}

func TestValidateURLBlocksInternalHosts(t *testing.T) {
	if err := middleware.ValidateURL("https://i.ytimg.com/vi/abc/hq720.jpg"); err != nil {
		t.Fatalf("valid url rejected: %v", err)
	}
	bad := []string{
		"",
		"ftp://example.com/x",
		"http://localhost/thumb.jpg",
		"http://127.0.0.1:8080/x",
		"http://192.168.1.5/x",
		"http://10.0.0.1/x",
	}
	for _, u := range bad {
		if err := middleware.ValidateURL(u); err == nil {
			t.Fatalf("ValidateURL(%q) accepted", u)
		}
	}
}

func TestValidatePriority(t *testing.T) {
	for _, p := range []int{0, 5, 10} {
		if err := middleware.ValidatePriority(p); err != nil {
			t.Fatalf("ValidatePriority(%d): %v", p, err)
		}
	}
	for _, p := range []int{-1, 11} {
		if err := middleware.ValidatePriority(p); err == nil {
			t.Fatalf("ValidatePriority(%d) accepted", p)
		}
	}
}
