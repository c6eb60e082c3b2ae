package schedule

import "time"

// IsActive reports whether s allows activity at now. The date window, the
// weekday set and the time ranges are combined with AND; the ranges among
// themselves with OR. A nil or empty schedule is always active.
func IsActive(s *Schedule, now time.Time) bool {
	if s.IsEmpty() {
		return true
	}
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	if s.Days != nil && *s.Days != 0 && !s.Days.Has(now.Weekday()) {
		return false
	}
	if allDay(s.Ranges) {
		return true
	}
	clock := ClockOf(now)
	for _, r := range s.Ranges {
		if r.IsEmpty() {
			continue
		}
		if r.Contains(clock) {
			return true
		}
	}
	return false
}

// IsOvernight reports whether r wraps past midnight.
func IsOvernight(r TimeRange) bool {
	return r.IsOvernight()
}

// HasOvernightEndDateConflict reports whether endDate cuts an overnight range
// short: its clock time lands inside the range before the range finishes,
// either on the same-day segment or on the next-day segment.
func HasOvernightEndDateConflict(endDate *time.Time, ranges []TimeRange) bool {
	if endDate == nil {
		return false
	}
	endClock := int(ClockOf(*endDate))
	for _, r := range ranges {
		if !r.IsOvernight() {
			continue
		}
		rangeStart, rangeEnd := int(*r.Start), int(*r.End)
		switch {
		case endClock > 0 && endClock < rangeEnd:
			return true
		case endClock == 0 && rangeEnd > 0:
			return true
		case rangeStart <= endClock && endClock < MinutesPerDay:
			return true
		}
	}
	return false
}

// Warnings returns authoring problems in s. They are guidance only; the
// schedule is still stored and evaluated as given.
func (s *Schedule) Warnings() []string {
	if s == nil {
		return nil
	}
	var warnings []string
	if s.StartDate != nil && s.EndDate != nil && s.EndDate.Before(*s.StartDate) {
		warnings = append(warnings, "end date is before start date; the item will never be active")
	}
	if HasOvernightEndDateConflict(s.EndDate, s.Ranges) {
		warnings = append(warnings, "end date falls inside an overnight range; the last night will be cut short")
	}
	return warnings
}
