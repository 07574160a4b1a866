package jscalendar

import (
	"reflect"
	"testing"
)

func TestParseRecurrenceRule(t *testing.T) {
	tests := []struct {
		str  string
		want RecurrenceRule
	}{
		{
			str:  "FREQ=DAILY",
			want: RecurrenceRule{Type: TypeRecurrenceRule, Frequency: "daily"},
		},
		{
			str: "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE,FR",
			want: RecurrenceRule{
				Type:      TypeRecurrenceRule,
				Frequency: "weekly",
				Interval:  2,
				ByDay: []NDay{
					{Type: TypeNDay, Day: "mo"},
					{Type: TypeNDay, Day: "we"},
					{Type: TypeNDay, Day: "fr"},
				},
			},
		},
		{
			str: "FREQ=MONTHLY;BYDAY=-1SU",
			want: RecurrenceRule{
				Type:      TypeRecurrenceRule,
				Frequency: "monthly",
				ByDay:     []NDay{{Type: TypeNDay, Day: "su", NthOfPeriod: -1}},
			},
		},
		{
			str: "FREQ=YEARLY;BYMONTH=3;BYMONTHDAY=15;COUNT=10",
			want: RecurrenceRule{
				Type:       TypeRecurrenceRule,
				Frequency:  "yearly",
				ByMonth:    []string{"3"},
				ByMonthDay: []int{15},
				Count:      10,
			},
		},
		{
			str: "FREQ=DAILY;UNTIL=20261231T235959Z",
			want: RecurrenceRule{
				Type:      TypeRecurrenceRule,
				Frequency: "daily",
				Until:     "2026-12-31T23:59:59",
			},
		},
		{
			str: "FREQ=WEEKLY;WKST=SU;BYDAY=TU",
			want: RecurrenceRule{
				Type:           TypeRecurrenceRule,
				Frequency:      "weekly",
				FirstDayOfWeek: "su",
				ByDay:          []NDay{{Type: TypeNDay, Day: "tu"}},
			},
		},
		{
			// INTERVAL=1 is the default and is normalized away.
			str:  "FREQ=DAILY;INTERVAL=1",
			want: RecurrenceRule{Type: TypeRecurrenceRule, Frequency: "daily"},
		},
		{
			str: "RSCALE=GREGORIAN;FREQ=YEARLY;SKIP=BACKWARD;BYMONTHDAY=31",
			want: RecurrenceRule{
				Type:       TypeRecurrenceRule,
				Frequency:  "yearly",
				RScale:     "gregorian",
				Skip:       "backward",
				ByMonthDay: []int{31},
			},
		},
		{
			str: "FREQ=MONTHLY;BYSETPOS=1,-1;BYDAY=MO,TU,WE,TH,FR",
			want: RecurrenceRule{
				Type:      TypeRecurrenceRule,
				Frequency: "monthly",
				ByDay: []NDay{
					{Type: TypeNDay, Day: "mo"},
					{Type: TypeNDay, Day: "tu"},
					{Type: TypeNDay, Day: "we"},
					{Type: TypeNDay, Day: "th"},
					{Type: TypeNDay, Day: "fr"},
				},
				BySetPosition: []int{1, -1},
			},
		},
	}

	for _, tc := range tests {
		rule, err := parseRecurrenceRule(tc.str)
		if err != nil {
			t.Errorf("parseRecurrenceRule(%q) = %v", tc.str, err)
			continue
		}
		if !reflect.DeepEqual(rule, tc.want) {
			t.Errorf("parseRecurrenceRule(%q) = \n%#v\nwant \n%#v", tc.str, rule, tc.want)
		}
	}
}

func TestRecurrenceRuleICalString(t *testing.T) {
	tests := []string{
		"FREQ=DAILY",
		"FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE,FR",
		"FREQ=MONTHLY;BYDAY=-1SU",
		"FREQ=YEARLY;BYMONTHDAY=15;BYMONTH=3;COUNT=10",
		"FREQ=DAILY;UNTIL=20261231T235959Z",
		"FREQ=MONTHLY;BYDAY=MO,TU,WE,TH,FR;BYSETPOS=1,-1",
	}

	for _, str := range tests {
		rule, err := parseRecurrenceRule(str)
		if err != nil {
			t.Fatalf("parseRecurrenceRule(%q) = %v", str, err)
		}
		out, err := rule.iCalString()
		if err != nil {
			t.Errorf("iCalString() = %v for %q", err, str)
			continue
		}
		if out != str {
			t.Errorf("iCalString() = %q, want %q", out, str)
		}
	}
}

func TestRecurrenceRuleICalString_Invalid(t *testing.T) {
	rule := &RecurrenceRule{Type: TypeRecurrenceRule, Frequency: "fortnightly"}
	if _, err := rule.iCalString(); err == nil {
		t.Error("expected error for unknown frequency")
	}

	rule = &RecurrenceRule{
		Type:      TypeRecurrenceRule,
		Frequency: "weekly",
		ByDay:     []NDay{{Type: TypeNDay, Day: "xx"}},
	}
	if _, err := rule.iCalString(); err == nil {
		t.Error("expected error for unknown weekday")
	}
}
