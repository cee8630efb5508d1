package workouts

import "github.com/2beens/fitlog/internal/flash"

// HomeView is everything the list page shows.
type HomeView struct {
	Workouts []Workout     `json:"workouts"`
	Today    string        `json:"today"`
	Status   *flash.Status `json:"status,omitempty"`
}

// DashboardView carries the per-day series as parallel slices, the shape chart widgets consume.
type DashboardView struct {
	Title         string        `json:"title"`
	Period        Period        `json:"period"`
	Start         string        `json:"start"`
	End           string        `json:"end"`
	Dates         []string      `json:"dates"`
	Calories      []int64       `json:"calories"`
	Durations     []int64       `json:"durations"`
	TotalCalories *int64        `json:"totalCalories"`
	TotalDuration *int64        `json:"totalDuration"`
	Status        *flash.Status `json:"status,omitempty"`
}

func newDashboardView(period Period, title string, r DateRange) DashboardView {
	return DashboardView{
		Title:     title,
		Period:    period,
		Start:     formatDay(r.Start),
		End:       formatDay(r.End),
		Dates:     []string{},
		Calories:  []int64{},
		Durations: []int64{},
	}
}

func (v *DashboardView) fill(aggregate *Aggregate) {
	for _, day := range aggregate.Days {
		v.Dates = append(v.Dates, formatDay(day.Date))
		v.Calories = append(v.Calories, day.Calories)
		v.Durations = append(v.Durations, day.Duration)
	}
	v.TotalCalories = aggregate.Totals.Calories
	v.TotalDuration = aggregate.Totals.Duration
}
