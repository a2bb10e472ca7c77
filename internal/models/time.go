package models

import "time"

// TimeFormat is ISO-8601 UTC with millisecond precision. Values sort lexically in time order.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in TimeFormat.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// Clock returns the current time. Services take one so tests can pin timestamps.
type Clock func() time.Time
