package dashboard

import (
	"time"

	"mprs/internal/domain"
)

// Summary holds the read-only status counts shown on the dashboard.
type Summary struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Ordered  int `json:"ordered"`
}

// Summarize is a pure function of the loaded history.
func Summarize(hist []domain.Requisition) Summary {
	s := Summary{Total: len(hist)}
	for _, req := range hist {
		switch req.Status {
		case domain.StatusPending:
			s.Pending++
		case domain.StatusApproved:
			s.Approved++
		case domain.StatusOrdered:
			s.Ordered++
		}
	}
	return s
}

// WeekdayCount is one bar of the weekly activity chart.
type WeekdayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

var weekdays = [...]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeeklyActivity buckets stored requisitions by the weekday of their
// date, Monday first. Unparsable dates are skipped.
func WeeklyActivity(hist []domain.Requisition) []WeekdayCount {
	counts := map[time.Weekday]int{}
	for _, req := range hist {
		d, err := time.Parse("2006-01-02", req.MPRSDate)
		if err != nil {
			continue
		}
		counts[d.Weekday()]++
	}
	out := make([]WeekdayCount, 0, len(weekdays))
	for _, wd := range weekdays {
		out = append(out, WeekdayCount{Day: wd.String()[:3], Count: counts[wd]})
	}
	return out
}
