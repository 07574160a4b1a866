package jscalendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

const (
	TypeRecurrenceRule = "RecurrenceRule"
	TypeNDay           = "NDay"
)

// RecurrenceRule is a structured recurrence rule, see RFC 8984 section 4.3.1.
// It maps to an iCalendar RRULE or EXRULE property value.
type RecurrenceRule struct {
	Type           string        `json:"@type,omitempty"`
	Frequency      string        `json:"frequency"`
	Interval       int           `json:"interval,omitempty"`
	RScale         string        `json:"rscale,omitempty"`
	Skip           string        `json:"skip,omitempty"`
	FirstDayOfWeek string        `json:"firstDayOfWeek,omitempty"`
	ByDay          []NDay        `json:"byDay,omitempty"`
	ByMonthDay     []int         `json:"byMonthDay,omitempty"`
	ByMonth        []string      `json:"byMonth,omitempty"`
	ByYearDay      []int         `json:"byYearDay,omitempty"`
	ByWeekNo       []int         `json:"byWeekNo,omitempty"`
	ByHour         []int         `json:"byHour,omitempty"`
	ByMinute       []int         `json:"byMinute,omitempty"`
	BySecond       []int         `json:"bySecond,omitempty"`
	BySetPosition  []int         `json:"bySetPosition,omitempty"`
	Count          int           `json:"count,omitempty"`
	Until          LocalDateTime `json:"until,omitempty"`
}

// NDay is a day of the week, with an optional occurrence ("the second Monday
// of the month"). See RFC 8984 section 4.3.1.
type NDay struct {
	Type        string `json:"@type,omitempty"`
	Day         string `json:"day"`
	NthOfPeriod int    `json:"nthOfPeriod,omitempty"`
}

// weekdayNames is indexed by rrule.Weekday.Day() (Monday first).
var weekdayNames = [...]string{"mo", "tu", "we", "th", "fr", "sa", "su"}

var frequencyNames = map[rrule.Frequency]string{
	rrule.YEARLY:   "yearly",
	rrule.MONTHLY:  "monthly",
	rrule.WEEKLY:   "weekly",
	rrule.DAILY:    "daily",
	rrule.HOURLY:   "hourly",
	rrule.MINUTELY: "minutely",
	rrule.SECONDLY: "secondly",
}

const rruleUntilFormat = "20060102T150405Z"

// parseRecurrenceRule parses an iCalendar RRULE (or EXRULE) property value
// into a structured rule. RSCALE and SKIP parts (RFC 7529) are split off
// before handing the rest to the rrule parser, which doesn't know them.
func parseRecurrenceRule(value string) (RecurrenceRule, error) {
	var rscale, skip string
	var parts []string
	for _, part := range strings.Split(value, ";") {
		switch {
		case strings.HasPrefix(strings.ToUpper(part), "RSCALE="):
			rscale = strings.ToLower(part[len("RSCALE="):])
		case strings.HasPrefix(strings.ToUpper(part), "SKIP="):
			skip = strings.ToLower(part[len("SKIP="):])
		default:
			parts = append(parts, part)
		}
	}

	opt, err := rrule.StrToROption(strings.Join(parts, ";"))
	if err != nil {
		return RecurrenceRule{}, fmt.Errorf("jscalendar: invalid recurrence rule %q: %v", value, err)
	}

	rule := RecurrenceRule{
		Type:          TypeRecurrenceRule,
		Frequency:     frequencyNames[opt.Freq],
		RScale:        rscale,
		Skip:          skip,
		ByMonthDay:    opt.Bymonthday,
		ByYearDay:     opt.Byyearday,
		ByWeekNo:      opt.Byweekno,
		ByHour:        opt.Byhour,
		ByMinute:      opt.Byminute,
		BySecond:      opt.Bysecond,
		BySetPosition: opt.Bysetpos,
		Count:         opt.Count,
	}
	if rule.Frequency == "" {
		return RecurrenceRule{}, fmt.Errorf("jscalendar: recurrence rule %q is missing a frequency", value)
	}
	if opt.Interval > 1 {
		rule.Interval = opt.Interval
	}
	if d := opt.Wkst.Day(); d != 0 {
		rule.FirstDayOfWeek = weekdayNames[d]
	}
	for _, wd := range opt.Byweekday {
		rule.ByDay = append(rule.ByDay, NDay{
			Type:        TypeNDay,
			Day:         weekdayNames[wd.Day()],
			NthOfPeriod: wd.N(),
		})
	}
	for _, m := range opt.Bymonth {
		rule.ByMonth = append(rule.ByMonth, strconv.Itoa(m))
	}
	if !opt.Until.IsZero() {
		// UNTIL is parsed as a UTC instant but recorded as a zone-less
		// local time, so for rules attached to a non-UTC event the value is
		// shifted by the zone offset. The shift is symmetric: iCalString
		// re-reads the value as UTC, so round trips are exact. Mapping into
		// the event's zone would need the zone resolved, which opaque TZID
		// passthrough deliberately doesn't guarantee.
		rule.Until = NewLocalDateTime(opt.Until)
	}
	return rule, nil
}

// iCalString serializes the rule as an RRULE property value. The emission is
// hand-built so the part order is stable; parsing still goes through the
// rrule grammar.
func (rule *RecurrenceRule) iCalString() (string, error) {
	freq := strings.ToUpper(rule.Frequency)
	valid := false
	for _, name := range frequencyNames {
		if name == rule.Frequency {
			valid = true
			break
		}
	}
	if !valid {
		return "", fmt.Errorf("jscalendar: invalid recurrence frequency %q", rule.Frequency)
	}

	parts := []string{"FREQ=" + freq}
	if rule.RScale != "" {
		parts = append(parts, "RSCALE="+strings.ToUpper(rule.RScale))
	}
	if rule.Skip != "" {
		parts = append(parts, "SKIP="+strings.ToUpper(rule.Skip))
	}
	if rule.Interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(rule.Interval))
	}
	if len(rule.ByDay) > 0 {
		days := make([]string, 0, len(rule.ByDay))
		for _, nday := range rule.ByDay {
			day := strings.ToUpper(nday.Day)
			ok := false
			for _, name := range weekdayNames {
				if name == nday.Day {
					ok = true
					break
				}
			}
			if !ok {
				return "", fmt.Errorf("jscalendar: invalid day of week %q", nday.Day)
			}
			if nday.NthOfPeriod != 0 {
				day = strconv.Itoa(nday.NthOfPeriod) + day
			}
			days = append(days, day)
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	parts = appendIntsPart(parts, "BYMONTHDAY", rule.ByMonthDay)
	if len(rule.ByMonth) > 0 {
		for _, m := range rule.ByMonth {
			if _, err := strconv.Atoi(m); err != nil {
				return "", fmt.Errorf("jscalendar: unsupported month value %q", m)
			}
		}
		parts = append(parts, "BYMONTH="+strings.Join(rule.ByMonth, ","))
	}
	parts = appendIntsPart(parts, "BYYEARDAY", rule.ByYearDay)
	parts = appendIntsPart(parts, "BYWEEKNO", rule.ByWeekNo)
	parts = appendIntsPart(parts, "BYHOUR", rule.ByHour)
	parts = appendIntsPart(parts, "BYMINUTE", rule.ByMinute)
	parts = appendIntsPart(parts, "BYSECOND", rule.BySecond)
	parts = appendIntsPart(parts, "BYSETPOS", rule.BySetPosition)
	if rule.Count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(rule.Count))
	}
	if rule.Until != "" {
		t, err := rule.Until.Time(time.UTC)
		if err != nil {
			return "", err
		}
		parts = append(parts, "UNTIL="+t.Format(rruleUntilFormat))
	}
	if rule.FirstDayOfWeek != "" && rule.FirstDayOfWeek != "mo" {
		ok := false
		for _, name := range weekdayNames {
			if name == rule.FirstDayOfWeek {
				ok = true
				break
			}
		}
		if !ok {
			return "", fmt.Errorf("jscalendar: invalid day of week %q", rule.FirstDayOfWeek)
		}
		parts = append(parts, "WKST="+strings.ToUpper(rule.FirstDayOfWeek))
	}

	return strings.Join(parts, ";"), nil
}

func appendIntsPart(parts []string, name string, values []int) []string {
	if len(values) == 0 {
		return parts
	}
	strs := make([]string, 0, len(values))
	for _, v := range values {
		strs = append(strs, strconv.Itoa(v))
	}
	return append(parts, name+"="+strings.Join(strs, ","))
}
