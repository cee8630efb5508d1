package workouts

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// message keys double as the English text
const (
	msgTitleWeek      = "for the week (%s–%s)"
	msgTitleMonth     = "for the month (%s–%s)"
	msgTitleAll       = "for all time"
	msgSaved          = "Workout saved: %s, %d min, %d kcal."
	msgMissingField   = "All fields are required."
	msgNonNumeric     = "Duration and calories must be whole numbers."
	msgBadDateFormat  = "Date must be in YYYY-MM-DD format."
	msgNegativeValue  = "Duration and calories cannot be negative."
	msgDatabaseError  = "Database error: %s"
	msgLoadListFailed = "Could not load workouts: %s"
)

var supportedLanguages = []language.Tag{
	language.English,
	language.Russian,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

func init() {
	ru := map[string]string{
		msgTitleWeek:      "за неделю (%s–%s)",
		msgTitleMonth:     "за месяц (%s–%s)",
		msgTitleAll:       "за всё время",
		msgSaved:          "Тренировка сохранена: %s, %d мин, %d ккал.",
		msgMissingField:   "Пожалуйста, заполните все поля.",
		msgNonNumeric:     "Длительность и калории должны быть целыми числами.",
		msgBadDateFormat:  "Дата должна быть в формате ГГГГ-ММ-ДД.",
		msgNegativeValue:  "Длительность и калории не могут быть отрицательными.",
		msgDatabaseError:  "Ошибка базы данных: %s",
		msgLoadListFailed: "Не удалось загрузить тренировки: %s",
	}
	for key, translation := range ru {
		if err := message.SetString(language.Russian, key, translation); err != nil {
			panic(err)
		}
	}
}

// Localizer renders user facing texts in the configured language.
type Localizer struct {
	tag language.Tag
}

func NewLocalizer(locale string) *Localizer {
	tag, _ := language.MatchStrings(languageMatcher, locale)
	base, _ := tag.Base()
	return &Localizer{tag: language.Make(base.String())}
}

func (l *Localizer) Language() language.Tag {
	return l.tag
}

func (l *Localizer) printer() *message.Printer {
	return message.NewPrinter(l.tag)
}

// Title describes the resolved dashboard range: week as day.month,
// month as day.month.year, all without a range.
func (l *Localizer) Title(p Period, r DateRange) string {
	switch p {
	case PeriodWeek:
		return l.printer().Sprintf(msgTitleWeek, r.Start.Format("02.01"), r.End.Format("02.01"))
	case PeriodMonth:
		return l.printer().Sprintf(msgTitleMonth, r.Start.Format("02.01.2006"), r.End.Format("02.01.2006"))
	default:
		return l.printer().Sprintf(msgTitleAll)
	}
}

func (l *Localizer) Saved(w Workout) string {
	return l.printer().Sprintf(msgSaved, w.ActivityType, w.DurationMinutes, w.CaloriesBurned)
}

func (l *Localizer) Validation(reason ValidationReason) string {
	switch reason {
	case ReasonMissingField:
		return l.printer().Sprintf(msgMissingField)
	case ReasonNonNumeric:
		return l.printer().Sprintf(msgNonNumeric)
	case ReasonBadDateFormat:
		return l.printer().Sprintf(msgBadDateFormat)
	default:
		return l.printer().Sprintf(msgNegativeValue)
	}
}

func (l *Localizer) Persistence(err error) string {
	return l.printer().Sprintf(msgDatabaseError, err.Error())
}

func (l *Localizer) LoadFailed(err error) string {
	return l.printer().Sprintf(msgLoadListFailed, err.Error())
}

// chart labels and form defaults stay ISO formatted regardless of locale
func formatDay(t time.Time) string {
	return t.Format(DateLayout)
}
