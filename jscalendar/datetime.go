package jscalendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	localDateTimeFormat = "2006-01-02T15:04:05"
	utcDateTimeFormat   = "2006-01-02T15:04:05Z"
)

// LocalDateTime is a date-time string without a UTC offset, e.g.
// "2026-01-15T10:00:00". See RFC 8984 section 1.4.4. The offset is implied by
// the time zone of the object carrying it.
type LocalDateTime string

// NewLocalDateTime formats t as a LocalDateTime, dropping its zone.
func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime(t.Format(localDateTimeFormat))
}

// Time parses the date-time in the given location.
func (dt LocalDateTime) Time(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(localDateTimeFormat, string(dt), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("jscalendar: invalid local date-time %q", string(dt))
	}
	return t, nil
}

// UTCDateTime is a date-time string in UTC with a trailing "Z", see RFC 8984
// section 1.4.5.
type UTCDateTime string

func NewUTCDateTime(t time.Time) UTCDateTime {
	return UTCDateTime(t.UTC().Format(utcDateTimeFormat))
}

func (dt UTCDateTime) Time() (time.Time, error) {
	t, err := time.Parse(utcDateTimeFormat, string(dt))
	if err != nil {
		return time.Time{}, fmt.Errorf("jscalendar: invalid UTC date-time %q", string(dt))
	}
	return t, nil
}

// Duration is a signed ISO 8601 duration string, e.g. "PT1H" or "-PT15M".
// See RFC 8984 section 1.4.6.
type Duration string

// NewDuration formats d, truncating (not rounding) fractional seconds.
func NewDuration(d time.Duration) Duration {
	neg := d < 0
	if neg {
		d = -d
	}
	secs := int64(d / time.Second)

	if secs == 0 {
		return "PT0S"
	}

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	sb.WriteByte('P')
	if days := secs / 86400; days > 0 {
		fmt.Fprintf(&sb, "%vD", days)
		secs -= days * 86400
	}
	if secs > 0 {
		sb.WriteByte('T')
		if h := secs / 3600; h > 0 {
			fmt.Fprintf(&sb, "%vH", h)
			secs -= h * 3600
		}
		if m := secs / 60; m > 0 {
			fmt.Fprintf(&sb, "%vM", m)
			secs -= m * 60
		}
		if secs > 0 {
			fmt.Fprintf(&sb, "%vS", secs)
		}
	}
	return Duration(sb.String())
}

// TimeDuration parses the duration. Fractional seconds are preserved here:
// truncation happens when formatting, not when parsing.
func (d Duration) TimeDuration() (time.Duration, error) {
	s := string(d)
	orig := s

	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("jscalendar: invalid duration %q", orig)
	}
	s = s[1:]

	var out time.Duration
	inTime := false
	seen := false
	for len(s) > 0 {
		if s[0] == 'T' {
			inTime = true
			s = s[1:]
			continue
		}

		i := 0
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.' || s[i] == ',') {
			i++
		}
		if i == 0 || i == len(s) {
			return 0, fmt.Errorf("jscalendar: invalid duration %q", orig)
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(s[:i], ",", "."), 64)
		if err != nil {
			return 0, fmt.Errorf("jscalendar: invalid duration %q", orig)
		}

		var unit time.Duration
		switch s[i] {
		case 'W':
			unit = 7 * 24 * time.Hour
		case 'D':
			unit = 24 * time.Hour
		case 'H':
			unit = time.Hour
		case 'M':
			if inTime {
				unit = time.Minute
			} else {
				return 0, fmt.Errorf("jscalendar: months are not supported in duration %q", orig)
			}
		case 'S':
			unit = time.Second
		default:
			return 0, fmt.Errorf("jscalendar: invalid duration %q", orig)
		}

		out += time.Duration(value * float64(unit))
		s = s[i+1:]
		seen = true
	}
	if !seen {
		return 0, fmt.Errorf("jscalendar: invalid duration %q", orig)
	}

	if neg {
		out = -out
	}
	return out, nil
}
