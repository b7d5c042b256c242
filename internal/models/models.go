package models

import (
	"errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Entity is a record whose id is assigned by the remote system.
type Entity interface {
	Key() string
}

// Ack is the body returned by update and delete calls. It never carries the
// mutated entity.
type Ack struct {
	Message string `json:"message"`
}

// TimestampLayout matches the ISO-8601 strings produced by the remote API
// and sorts lexically in chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RelativeTime renders s as "3 minutes ago" relative to now, or "unknown"
// when s is not a timestamp.
func RelativeTime(s string, now time.Time) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return "unknown"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

var ErrValidation = errors.New("validation failed")

// ValidationError lists the required fields a draft is missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "please fill in all required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// requireFields takes name/value pairs and reports every empty value.
func requireFields(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
