package services

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText groups paragraphs into chunks of at most maxChunkSize runes.
// Oversized paragraphs are split on sentence boundaries. Each new chunk
// starts with the last overlap runes of the previous one.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	var units []string
	for _, para := range strings.Split(normalizeNewlines(text), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= maxChunkSize {
			units = append(units, para)
			continue
		}
		units = append(units, splitIntoSentences(para)...)
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen == 0 {
			return
		}
		chunk := current.String()
		chunks = append(chunks, chunk)
		current.Reset()
		currentLen = 0
		if tail := lastRunes(chunk, overlap); tail != "" {
			current.WriteString(tail)
			currentLen = utf8.RuneCountInString(tail)
		}
	}

	for _, unit := range units {
		unitLen := utf8.RuneCountInString(unit)
		if currentLen > 0 && currentLen+unitLen+1 > maxChunkSize {
			flush()
		}
		if currentLen > 0 {
			current.WriteString("\n")
			currentLen++
		}
		current.WriteString(unit)
		currentLen += unitLen
	}

	// A trailing overlap-only buffer carries nothing new.
	if currentLen > 0 && (len(chunks) == 0 || current.String() != lastRunes(chunks[len(chunks)-1], overlap)) {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// splitIntoSentences keeps terminal punctuation attached to its sentence.
func splitIntoSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
