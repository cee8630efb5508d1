package workouts

import "time"

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod resolves the dashboard selector. Empty means week,
// anything unknown falls back to all.
func ParsePeriod(raw string) Period {
	switch Period(raw) {
	case "":
		return PeriodWeek
	case PeriodWeek, PeriodMonth, PeriodAll:
		return Period(raw)
	default:
		return PeriodAll
	}
}

// DateRange is inclusive on both ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (p Period) Range(today time.Time) DateRange {
	today = truncateDay(today)
	switch p {
	case PeriodWeek:
		// Monday = 0
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return DateRange{Start: start, End: start.AddDate(0, 0, 6)}
	case PeriodMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		// day 28 + 4 always lands in the next month; stepping back by its
		// day of month gives the last day of this one
		nextMonth := time.Date(today.Year(), today.Month(), 28, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 4)
		end := nextMonth.AddDate(0, 0, -nextMonth.Day())
		return DateRange{Start: start, End: end}
	default:
		return DateRange{Start: MinDate, End: MaxDate}
	}
}
