package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateUTF8(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "short", text: "résumé", limit: 40, want: "résumé"},
		{name: "ascii", text: "abcdef", limit: 4, want: "abcd"},
		{name: "inside two-byte rune", text: "aé", limit: 2, want: "a"},
		{name: "on rune boundary", text: "aéb", limit: 3, want: "aé"},
		{name: "inside four-byte rune", text: "go🚀", limit: 4, want: "go"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncateUTF8(tc.text, tc.limit)
			if got != tc.want {
				t.Fatalf("truncateUTF8(%q, %d) = %q, want %q", tc.text, tc.limit, got, tc.want)
			}
		})
	}
}

func TestTruncateUTF8LongInput(t *testing.T) {
	text := strings.Repeat("日本語", maxEmbeddingInput)

	got := truncateUTF8(text, maxEmbeddingInput)
	if len(got) > maxEmbeddingInput {
		t.Fatalf("len = %d, want at most %d", len(got), maxEmbeddingInput)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8")
	}
}
