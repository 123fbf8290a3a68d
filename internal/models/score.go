package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Score is a numeric model field. Models regularly emit scores as strings
// ("7", "7/10", "85%"), so decoding accepts both forms. A string that holds
// no number decodes as 0.
type Score float64

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	if data[0] != '"' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("invalid score %s: %w", data, err)
		}
		*s = Score(f)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	str = strings.TrimSpace(str)
	if idx := strings.Index(str, "/"); idx != -1 {
		str = str[:idx]
	}
	str = strings.TrimSpace(strings.TrimSuffix(str, "%"))
	if str == "" {
		*s = 0
		return nil
	}

	// Placeholders such as "N/A" read as not provided rather than failing
	// the whole payload.
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		*s = 0
		return nil
	}
	*s = Score(f)
	return nil
}

// Clamp bounds a present score into [lo, hi]. Zero means "not provided" and is kept.
func (s Score) Clamp(lo, hi float64) Score {
	if s == 0 {
		return s
	}
	if float64(s) < lo {
		return Score(lo)
	}
	if float64(s) > hi {
		return Score(hi)
	}
	return s
}
