package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// hostLayouts are the shapes the host and callers use for local timestamps.
var hostLayouts = []string{
	dateTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	dateLayout,
}

// Timestamp is a local wall-clock time in the host's "YYYY-MM-DD[ HH:mm]" convention.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, converted to local time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.In(time.Local)}
}

// Now returns the current local time truncated to the minute.
func Now() Timestamp {
	return Timestamp{time.Now().Truncate(time.Minute)}
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// ParseTimestamp parses host-formatted local timestamps. RFC 3339 values
// (with a zone) are accepted and converted to local time.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range hostLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{t}, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewTimestamp(t), nil
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q: expected YYYY-MM-DD or YYYY-MM-DD HH:mm", s)
}

// HasClock reports whether the timestamp carries a time of day other than midnight.
func (ts Timestamp) HasClock() bool {
	return ts.Hour() != 0 || ts.Minute() != 0
}

// String formats the timestamp, omitting the clock at midnight.
func (ts Timestamp) String() string {
	if ts.HasClock() {
		return ts.Format(dateTimeLayout)
	}
	return ts.Format(dateLayout)
}

// HostString always includes the clock; used when handing dates to scripts.
func (ts Timestamp) HostString() string {
	return ts.Format(dateTimeLayout)
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// Ptr returns a pointer to a copy of ts.
func (ts Timestamp) Ptr() *Timestamp {
	return &ts
}
