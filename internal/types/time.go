package types

import "time"

const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date at midnight UTC
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
