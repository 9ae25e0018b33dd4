package app

import "testing"

func TestIsValidAdvertiserURL(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"https://example.com", true},
		{"http://example.com", true},
		{"https://example.com/path/to/page", true},
		{"https://example.com:8080/path", true},
		{"http://localhost", true},
		{"http://localhost:3000/debug", true},
		{"http://192.168.1.1", true},
		{"http://192.168.1.1:8080/admin", true},
		{"https://sub.domain.example.com", true},
		{"example.com", false},
		{"ftp://example.com", false},
		{"https://", false},
		{"https://noTLD", false},
		{"https://example.com path", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isValidAdvertiserURL(tt.in); got != tt.ok {
			t.Fatalf("isValidAdvertiserURL(%q) = %v; want %v", tt.in, got, tt.ok)
		}
	}
}

func TestSplitAdvertiserURLs(t *testing.T) {
	got := splitAdvertiserURLs("https://a.com, https://b.com\nhttps://c.com\r\n,  ")
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %#v", len(got), got)
	}
	if got[0] != "https://a.com" || got[2] != "https://c.com" {
		t.Fatalf("unexpected candidates: %#v", got)
	}
}

func TestParseAdvertiserURLsAllOrNothing(t *testing.T) {
	// Одна невалидная ссылка бракует весь список.
	urls, invalid := parseAdvertiserURLs("https://a.com, bad-url, https://b.com")
	if urls != nil {
		t.Fatalf("expected no urls on partial failure, got %#v", urls)
	}
	if len(invalid) != 1 || invalid[0] != "bad-url" {
		t.Fatalf("unexpected invalid list: %#v", invalid)
	}

	urls, invalid = parseAdvertiserURLs("https://a.com\nhttps://b.com")
	if invalid != nil {
		t.Fatalf("unexpected invalid entries: %#v", invalid)
	}
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %#v", urls)
	}
}
