package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Wire is the stored form of a Schedule. It keeps the editor's conventions
// (empty strings, seven booleans) so any stored value can be read back;
// Schedule() normalizes it.
type Wire struct {
	StartDate  *time.Time  `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate    *time.Time  `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	TimeRanges []WireRange `json:"timeRanges,omitempty" yaml:"timeRanges,omitempty"`
	DaysOfWeek []bool      `json:"daysOfWeek,omitempty" yaml:"daysOfWeek,omitempty"`
}

// WireRange is one stored time range.
type WireRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Schedule converts the stored form, treating malformed parts as unset.
func (w Wire) Schedule() *Schedule {
	s := &Schedule{StartDate: w.StartDate, EndDate: w.EndDate}
	for _, wr := range w.TimeRanges {
		var r TimeRange
		if c, ok := ParseClock(wr.Start); ok {
			r.Start = c.Ptr()
		}
		if c, ok := ParseClock(wr.End); ok {
			r.End = c.Ptr()
		}
		if !r.IsEmpty() {
			s.Ranges = append(s.Ranges, r)
		}
	}
	var days WeekdaySet
	for i, on := range w.DaysOfWeek {
		if i >= 7 {
			break
		}
		if on {
			days |= 1 << i
		}
	}
	if days != 0 {
		s.Days = &days
	}
	return s
}

// Wire returns the stored form of s.
func (s *Schedule) Wire() Wire {
	if s == nil {
		return Wire{}
	}
	w := Wire{StartDate: s.StartDate, EndDate: s.EndDate}
	for _, r := range s.Ranges {
		var wr WireRange
		if r.Start != nil {
			wr.Start = r.Start.String()
		}
		if r.End != nil {
			wr.End = r.End.String()
		}
		w.TimeRanges = append(w.TimeRanges, wr)
	}
	if s.Days != nil {
		w.DaysOfWeek = s.Days.Flags()
	} else {
		w.DaysOfWeek = make([]bool, 7)
	}
	return w
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Wire())
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding schedule: %w", err)
	}
	*s = *w.Schedule()
	return nil
}

// Decode reads a stored schedule. Empty input and undecodable values yield
// nil (no schedule), never an error.
func Decode(raw []byte) *Schedule {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var w Wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil
	}
	return w.Schedule()
}

// Encode returns the stored form of s, or nil for a nil schedule.
func Encode(s *Schedule) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s.Wire())
}

// ParseRange parses "HH:MM-HH:MM". Either side may be blank.
func ParseRange(s string) (TimeRange, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return TimeRange{}, fmt.Errorf("time range %q must look like HH:MM-HH:MM", s)
	}
	var r TimeRange
	if strings.TrimSpace(startStr) != "" {
		c, ok := ParseClock(startStr)
		if !ok {
			return TimeRange{}, fmt.Errorf("invalid start %q in range %q", startStr, s)
		}
		r.Start = c.Ptr()
	}
	if strings.TrimSpace(endStr) != "" {
		c, ok := ParseClock(endStr)
		if !ok {
			return TimeRange{}, fmt.Errorf("invalid end %q in range %q", endStr, s)
		}
		r.End = c.Ptr()
	}
	return r, nil
}

// Summary renders s in one line, e.g. "Mon,Tue 22:00–02:00 from 2026-01-01".
func (s *Schedule) Summary() string {
	if s.IsEmpty() {
		return "always"
	}
	var parts []string
	if s.Days != nil {
		parts = append(parts, s.Days.String())
	}
	var ranges []string
	for _, r := range s.Ranges {
		label := r.String()
		if r.IsOvernight() {
			label += " (overnight)"
		}
		ranges = append(ranges, label)
	}
	if len(ranges) > 0 {
		parts = append(parts, strings.Join(ranges, " | "))
	}
	if s.StartDate != nil {
		parts = append(parts, "from "+s.StartDate.Format("2006-01-02 15:04"))
	}
	if s.EndDate != nil {
		parts = append(parts, "until "+s.EndDate.Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, " ")
}
