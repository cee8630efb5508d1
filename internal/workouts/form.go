package workouts

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	FieldDate            = "date"
	FieldActivityType    = "activity_type"
	FieldDurationMinutes = "duration_minutes"
	FieldCaloriesBurned  = "calories_burned"
)

// RawWorkout is the submitted form, untouched.
type RawWorkout struct {
	Date            string
	ActivityType    string
	DurationMinutes string
	CaloriesBurned  string
}

func RawWorkoutFromForm(form url.Values) RawWorkout {
	return RawWorkout{
		Date:            form.Get(FieldDate),
		ActivityType:    form.Get(FieldActivityType),
		DurationMinutes: form.Get(FieldDurationMinutes),
		CaloriesBurned:  form.Get(FieldCaloriesBurned),
	}
}

// WorkoutForm is a submission that passed validation.
type WorkoutForm struct {
	Date            time.Time
	ActivityType    string
	DurationMinutes int64
	CaloriesBurned  int64
}

func (f WorkoutForm) Workout() Workout {
	return Workout{
		Date:            f.Date,
		ActivityType:    f.ActivityType,
		DurationMinutes: f.DurationMinutes,
		CaloriesBurned:  f.CaloriesBurned,
	}
}

// DecodeWorkoutForm validates raw in a fixed order and stops at the first
// failing rule: presence, numeric fields, date format, non-negative numbers.
// Every failure is a *ValidationError.
func DecodeWorkoutForm(raw RawWorkout) (WorkoutForm, error) {
	fields := []struct {
		name  string
		value string
	}{
		{FieldDate, raw.Date},
		{FieldActivityType, raw.ActivityType},
		{FieldDurationMinutes, raw.DurationMinutes},
		{FieldCaloriesBurned, raw.CaloriesBurned},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return WorkoutForm{}, &ValidationError{Reason: ReasonMissingField, Field: f.name}
		}
	}

	duration, err := strconv.ParseInt(strings.TrimSpace(raw.DurationMinutes), 10, 64)
	if err != nil {
		return WorkoutForm{}, &ValidationError{Reason: ReasonNonNumeric, Field: FieldDurationMinutes}
	}
	calories, err := strconv.ParseInt(strings.TrimSpace(raw.CaloriesBurned), 10, 64)
	if err != nil {
		return WorkoutForm{}, &ValidationError{Reason: ReasonNonNumeric, Field: FieldCaloriesBurned}
	}

	date, err := parseDay(strings.TrimSpace(raw.Date))
	// year 0 parses, but falls outside the "all" range and the postgres DATE type
	if err != nil || date.Before(MinDate) {
		return WorkoutForm{}, &ValidationError{Reason: ReasonBadDateFormat, Field: FieldDate}
	}

	if duration < 0 {
		return WorkoutForm{}, &ValidationError{Reason: ReasonNegativeValue, Field: FieldDurationMinutes}
	}
	if calories < 0 {
		return WorkoutForm{}, &ValidationError{Reason: ReasonNegativeValue, Field: FieldCaloriesBurned}
	}

	return WorkoutForm{
		Date:            date,
		ActivityType:    strings.TrimSpace(raw.ActivityType),
		DurationMinutes: duration,
		CaloriesBurned:  calories,
	}, nil
}
