package services

import (
	"bytes"
	"encoding/json"
	"strings"
)

const codeFence = "```"

// ParsedPayload is a decoded model response. When decoding failed Object is
// nil and RawText carries the original response.
type ParsedPayload struct {
	Object  map[string]any
	JSON    []byte
	RawText string
}

// ParseResponse recovers a JSON object from model output. It never fails:
// the boolean reports whether a structured payload was recovered.
func ParseResponse(raw string) (ParsedPayload, bool) {
	text := strings.TrimSpace(raw)

	// A bare object wins, even when its string values contain fences.
	if obj, ok := decodeObject(text); ok {
		return ParsedPayload{Object: obj, JSON: []byte(text)}, true
	}

	if strings.Contains(text, codeFence) {
		text = extractFenced(text)
		if obj, ok := decodeObject(text); ok {
			return ParsedPayload{Object: obj, JSON: []byte(text)}, true
		}
	}

	// Prose around a bare object, e.g. "Here is the result: {...}".
	if candidate := extractJSONObject(text); candidate != "" && candidate != text {
		if obj, ok := decodeObject(candidate); ok {
			return ParsedPayload{Object: obj, JSON: []byte(candidate)}, true
		}
	}

	return ParsedPayload{RawText: raw}, false
}

// extractFenced returns the content between the first fence and the next
// one, dropping a "json" label. An unterminated fence runs to the end.
func extractFenced(text string) string {
	start := strings.Index(text, codeFence)
	if start == -1 {
		return text
	}

	body := text[start+len(codeFence):]
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}

	if end := strings.Index(body, codeFence); end != -1 {
		body = body[:end]
	}

	return strings.TrimSpace(body)
}

func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func decodeObject(text string) (map[string]any, bool) {
	if text == "" {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}

	// Trailing garbage after the object means the decode was partial.
	if dec.More() {
		return nil, false
	}

	return obj, true
}

// decodeInto unmarshals a recovered payload into a typed value.
func decodeInto(payload ParsedPayload, target any) error {
	return json.Unmarshal(payload.JSON, target)
}
