package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Timestamp accepts RFC3339 strings, date-only strings (YYYY-MM-DD) and unix
// milliseconds.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		return nil
	}

	if data[0] != '"' {
		ms, err := ParseUnixMilli(string(data))
		if err != nil {
			return err
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return goerr.Wrap(err, "invalid timestamp string")
	}
	if s == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}

	return goerr.New("unsupported timestamp format", goerr.V("value", s))
}

// ParseUnixMilli parses a JSON number holding unix milliseconds. Integral values
// written with a fraction or exponent, such as 1.7e12, are accepted.
func ParseUnixMilli(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid numeric timestamp", goerr.V("value", s))
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, goerr.New("numeric timestamp is not an integer", goerr.V("value", s))
	}
	return int64(f), nil
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// TimeOf returns the time of a possibly nil timestamp
func TimeOf(t *Timestamp) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}
