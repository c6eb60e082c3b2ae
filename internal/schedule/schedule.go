// Package schedule models when a ticker item is on air: an optional date
// window, a set of time-of-day ranges and a set of weekdays. Every dimension
// left empty is unconstrained.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// MinutesPerDay is the length of a day on the Clock scale.
const MinutesPerDay = 24 * 60

// Clock is a time of day expressed in minutes since midnight.
type Clock int

// ParseClock parses an "HH:MM" value. Anything after the two minute digits
// (seconds, stray characters) is ignored. The second return value is false
// when no valid clock time can be read.
func ParseClock(s string) (Clock, bool) {
	s = strings.TrimSpace(s)
	colon := strings.IndexByte(s, ':')
	if colon < 1 || colon > 2 || len(s) < colon+3 {
		return 0, false
	}
	h, ok := atoiDigits(s[:colon])
	if !ok || h > 23 {
		return 0, false
	}
	m, ok := atoiDigits(s[colon+1 : colon+3])
	if !ok || m > 59 {
		return 0, false
	}
	return Clock(h*60 + m), true
}

func atoiDigits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, len(s) > 0
}

// ClockOf returns the clock time of t in t's own location.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// MustClock is ParseClock for literals; it panics on invalid input.
func MustClock(s string) Clock {
	c, ok := ParseClock(s)
	if !ok {
		panic(fmt.Sprintf("schedule: invalid clock %q", s))
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Ptr returns a pointer to c, for building ranges inline.
func (c Clock) Ptr() *Clock { return &c }

// TimeRange is one time-of-day window. Either bound may be unset; a range
// with neither bound places no restriction and is dropped by normalization.
// End before Start is an overnight range that wraps past midnight.
type TimeRange struct {
	Start *Clock
	End   *Clock
}

// Between builds a range with both bounds set.
func Between(start, end Clock) TimeRange {
	return TimeRange{Start: start.Ptr(), End: end.Ptr()}
}

// IsEmpty reports whether neither bound is set.
func (r TimeRange) IsEmpty() bool {
	return r.Start == nil && r.End == nil
}

// IsOvernight reports whether the range crosses midnight.
func (r TimeRange) IsOvernight() bool {
	return r.Start != nil && r.End != nil && *r.Start > *r.End
}

// Contains reports whether clock c falls inside the range. Normal ranges are
// half-open [start, end); overnight ranges are [start, 24:00) ∪ [00:00, end).
// A missing start means midnight, a missing end means end of day.
func (r TimeRange) Contains(c Clock) bool {
	switch {
	case r.IsEmpty():
		return true
	case r.Start == nil:
		return c < *r.End
	case r.End == nil:
		return c >= *r.Start
	case r.IsOvernight():
		return c >= *r.Start || c < *r.End
	default:
		return *r.Start <= c && c < *r.End
	}
}

func (r TimeRange) String() string {
	start, end := "00:00", "24:00"
	if r.Start != nil {
		start = r.Start.String()
	}
	if r.End != nil {
		end = r.End.String()
	}
	return start + "–" + end
}

// WeekdaySet is a non-empty set of weekdays. Bit 0 is Monday, bit 6 Sunday.
type WeekdaySet uint8

// NewWeekdaySet returns the set of the given days, or nil when no day is
// given: nil is the "every day" value.
func NewWeekdaySet(days ...time.Weekday) *WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << mondayIndex(d)
	}
	if s == 0 {
		return nil
	}
	return &s
}

// mondayIndex maps time.Weekday (Sunday=0) onto Monday=0..Sunday=6.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<mondayIndex(d)) != 0
}

// Flags returns the set as seven booleans, Monday first.
func (s WeekdaySet) Flags() []bool {
	flags := make([]bool, 7)
	for i := range flags {
		flags[i] = s&(1<<i) != 0
	}
	return flags
}

var weekdayAbbrev = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func (s WeekdaySet) String() string {
	var parts []string
	for i, name := range weekdayAbbrev {
		if s&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ",")
}

// ParseWeekday accepts English weekday names or their three letter prefix.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) >= 3 {
		for i, name := range weekdayNames {
			if strings.HasPrefix(strings.ToLower(name), s) {
				return time.Weekday((i + 1) % 7), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Schedule describes when an item is active. Nil pointers and empty slices
// are the unconstrained values of their dimension; Ranges never contains an
// empty range once normalized.
type Schedule struct {
	StartDate *time.Time
	EndDate   *time.Time
	Ranges    []TimeRange
	Days      *WeekdaySet
}

// IsEmpty reports whether the schedule constrains nothing.
func (s *Schedule) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.StartDate == nil && s.EndDate == nil && s.Days == nil && allDay(s.Ranges)
}

func allDay(ranges []TimeRange) bool {
	for _, r := range ranges {
		if !r.IsEmpty() {
			return false
		}
	}
	return true
}

// Normalized returns a copy with empty ranges removed and an empty weekday
// set collapsed to nil.
func (s *Schedule) Normalized() *Schedule {
	if s == nil {
		return &Schedule{}
	}
	out := &Schedule{StartDate: s.StartDate, EndDate: s.EndDate}
	for _, r := range s.Ranges {
		if !r.IsEmpty() {
			out.Ranges = append(out.Ranges, r)
		}
	}
	if s.Days != nil && *s.Days != 0 {
		d := *s.Days
		out.Days = &d
	}
	return out
}
