package workouts

import (
	"context"
	"net/http"
	"time"

	"github.com/2beens/fitlog/internal/flash"
	"github.com/2beens/fitlog/internal/telemetry/metrics"
	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Renderer turns views into responses.
type Renderer interface {
	RenderHome(w http.ResponseWriter, r *http.Request, view HomeView)
	RenderDashboard(w http.ResponseWriter, r *http.Request, view DashboardView)
}

type Clock func() time.Time

type Handler struct {
	store     Store
	renderer  Renderer
	flash     *flash.Carrier
	localizer *Localizer
	metrics   *metrics.Manager
	now       Clock
}

func NewHandler(
	store Store,
	renderer Renderer,
	flashCarrier *flash.Carrier,
	localizer *Localizer,
	metricsManager *metrics.Manager,
	clock Clock,
) *Handler {
	if clock == nil {
		clock = time.Now
	}
	return &Handler{
		store:     store,
		renderer:  renderer,
		flash:     flashCarrier,
		localizer: localizer,
		metrics:   metricsManager,
		now:       clock,
	}
}

// withSession borrows a session for the duration of fn and always gives it back.
func (handler *Handler) withSession(ctx context.Context, op string, fn func(Session) error) error {
	session, err := handler.store.Acquire(ctx)
	if err != nil {
		return newPersistenceError(op, err)
	}
	defer session.Release()

	return newPersistenceError(op, fn(session))
}

func (handler *Handler) reportPersistenceError(op string, err error) {
	handler.metrics.CounterPersistenceErrors.WithLabelValues(op).Inc()
	if pkg.IsConstraintViolationError(err) {
		log.Warnf("workouts %s: constraint violation: %s", op, err)
		return
	}
	log.Errorf("workouts %s: %s", op, err)
}

// Home lists all workouts, newest first. A failing store yields an empty list and a danger status.
func (handler *Handler) Home(ctx context.Context) HomeView {
	view := HomeView{
		Workouts: []Workout{},
		Today:    formatDay(handler.now()),
	}

	var workouts []Workout
	err := handler.withSession(ctx, "list", func(session Session) error {
		var err error
		workouts, err = session.ListAll(ctx)
		return err
	})
	if err != nil {
		handler.reportPersistenceError("list", err)
		status := flash.Danger(handler.localizer.LoadFailed(err))
		view.Status = &status
		return view
	}

	if workouts != nil {
		view.Workouts = workouts
	}
	return view
}

// LogWorkout validates and stores a submitted workout. It never fails, the
// outcome is reported only through the returned status.
func (handler *Handler) LogWorkout(ctx context.Context, raw RawWorkout) flash.Status {
	form, err := DecodeWorkoutForm(raw)
	if err != nil {
		validationErr := err.(*ValidationError)
		handler.metrics.CounterValidationFailures.WithLabelValues(string(validationErr.Reason)).Inc()
		log.Debugf("log workout rejected: %s", validationErr)
		return flash.Warning(handler.localizer.Validation(validationErr.Reason))
	}

	workout := form.Workout()
	err = handler.withSession(ctx, "insert", func(session Session) error {
		id, err := session.Insert(ctx, workout)
		workout.ID = id
		return err
	})
	if err != nil {
		handler.reportPersistenceError("insert", err)
		return flash.Danger(handler.localizer.Persistence(err))
	}

	handler.metrics.CounterWorkoutsLogged.Inc()
	log.Debugf("workout logged: %d [%s] %s", workout.ID, workout.Day(), workout.ActivityType)
	return flash.Success(handler.localizer.Saved(workout))
}

// Dashboard aggregates the workouts of the requested period.
func (handler *Handler) Dashboard(ctx context.Context, rawPeriod string) DashboardView {
	period := ParsePeriod(rawPeriod)
	dateRange := period.Range(handler.now())
	view := newDashboardView(period, handler.localizer.Title(period, dateRange), dateRange)

	var aggregate *Aggregate
	err := handler.withSession(ctx, "aggregate", func(session Session) error {
		var err error
		aggregate, err = session.AggregateByDateRange(ctx, dateRange.Start, dateRange.End)
		return err
	})
	if err != nil {
		handler.reportPersistenceError("aggregate", err)
		status := flash.Danger(handler.localizer.Persistence(err))
		view.Status = &status
		return view
	}

	if aggregate != nil {
		view.fill(aggregate)
	}
	return view
}

func (handler *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.home")
	defer span.End()

	pending := handler.flash.Pop(w, r)
	view := handler.Home(ctx)
	if view.Status == nil {
		view.Status = pending
	}
	span.SetAttributes(attribute.Int("workouts.count", len(view.Workouts)))

	handler.renderer.RenderHome(w, r, view)
}

func (handler *Handler) HandleLogWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.log")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		// an unreadable body leaves the form empty, which decodes as a missing field
		log.Warnf("log workout, parse form: %s", err)
	}

	status := handler.LogWorkout(ctx, RawWorkoutFromForm(r.Form))
	span.SetAttributes(attribute.String("status", string(status.Severity)))

	handler.flash.Set(w, status)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (handler *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.dashboard")
	defer span.End()

	rawPeriod := mux.Vars(r)["period"]
	if rawPeriod == "" {
		rawPeriod = r.URL.Query().Get("period")
	}

	pending := handler.flash.Pop(w, r)
	view := handler.Dashboard(ctx, rawPeriod)
	if view.Status == nil {
		view.Status = pending
	}
	span.SetAttributes(attribute.String("period", string(view.Period)))

	handler.renderer.RenderDashboard(w, r, view)
}
