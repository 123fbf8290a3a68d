package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Fallback is the degraded payload substituted when a model response could
// not be decoded into the expected schema.
type Fallback struct {
	RawText string `json:"raw_text"`
}

// StageOutput is the result of one model stage: either a structured value or
// a raw-text fallback. Exactly one side is set.
type StageOutput[T any] struct {
	Structured *T
	Fallback   *Fallback
}

func StructuredOutput[T any](v *T) StageOutput[T] {
	return StageOutput[T]{Structured: v}
}

func FallbackOutput[T any](rawText string) StageOutput[T] {
	return StageOutput[T]{Fallback: &Fallback{RawText: rawText}}
}

func (o StageOutput[T]) IsFallback() bool {
	return o.Structured == nil
}

// RawText returns the fallback text, or "" for structured outputs.
func (o StageOutput[T]) RawText() string {
	if o.Fallback == nil {
		return ""
	}
	return o.Fallback.RawText
}

func (o StageOutput[T]) MarshalJSON() ([]byte, error) {
	switch {
	case o.Structured != nil:
		return json.Marshal(o.Structured)
	case o.Fallback != nil:
		return json.Marshal(o.Fallback)
	default:
		return []byte("null"), nil
	}
}

func (o *StageOutput[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = StageOutput[T]{}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("stage output must be an object: %w", err)
	}

	if _, ok := fields["raw_text"]; ok && len(fields) == 1 {
		var fb Fallback
		if err := json.Unmarshal(data, &fb); err != nil {
			return err
		}
		*o = StageOutput[T]{Fallback: &fb}
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = StageOutput[T]{Structured: &v}
	return nil
}
