package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/schedule"
)

// RenderSchedule renders the schedule box of one item: its date window,
// ranges and days, whether it is on air at now, and any authoring warnings.
func RenderSchedule(path string, n *domain.Node, now time.Time) string {
	s := n.Schedule
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", Dim(fmt.Sprintf("%-8s", label)), value)
	}

	line("Item", Bold(path))
	state := StateLive
	switch {
	case !n.Active:
		state = StateOff
	case !schedule.IsActive(s, now):
		state = StateIdle
	}
	line("Now", StateLabel(state))

	if s.IsEmpty() {
		line("Window", "always")
	} else {
		line("From", dateOrDash(s.StartDate))
		line("Until", dateOrDash(s.EndDate))
		if len(s.Ranges) == 0 {
			line("Hours", "all day")
		}
		for i, r := range s.Ranges {
			label := ""
			if i == 0 {
				label = "Hours"
			}
			value := r.String()
			if r.IsOvernight() {
				value += Dim(" (overnight)")
			}
			line(label, value)
		}
		days := "every day"
		if s.Days != nil {
			days = s.Days.String()
		}
		line("Days", days)
	}

	if warnings := s.Warnings(); len(warnings) > 0 {
		b.WriteString("\n")
		for _, w := range warnings {
			b.WriteString(Warn(w) + "\n")
		}
	}
	return RenderBox("Schedule", strings.TrimRight(b.String(), "\n"))
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return Dim("--")
	}
	return t.Format("2006-01-02 15:04")
}
