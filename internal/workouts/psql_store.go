package workouts

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/fitlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var psqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS workouts (
		id BIGSERIAL PRIMARY KEY,
		date DATE NOT NULL,
		activity_type TEXT NOT NULL,
		duration_minutes BIGINT NOT NULL,
		calories_burned BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_workouts_date ON workouts (date)`,
}

var _ Store = (*PsqlStore)(nil)

type PsqlStore struct {
	db *pgxpool.Pool
}

func NewPsqlStore(db *pgxpool.Pool) *PsqlStore {
	return &PsqlStore{
		db: db,
	}
}

func (s *PsqlStore) Initialize(ctx context.Context) error {
	for _, stmt := range psqlSchema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return newPersistenceError("initialize", fmt.Errorf("exec schema: %w", err))
		}
	}
	return nil
}

func (s *PsqlStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PsqlStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PsqlStore) Acquire(ctx context.Context) (Session, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, newPersistenceError("acquire", err)
	}
	return &psqlSession{conn: conn}, nil
}

type psqlSession struct {
	conn *pgxpool.Conn
}

func (s *psqlSession) Release() {
	s.conn.Release()
}

func (s *psqlSession) Insert(ctx context.Context, workout Workout) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.workouts.insert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id int64
	if err := s.conn.QueryRow(
		ctx,
		`
			INSERT INTO workouts (date, activity_type, duration_minutes, calories_burned)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
		truncateDay(workout.Date), workout.ActivityType, workout.DurationMinutes, workout.CaloriesBurned,
	).Scan(&id); err != nil {
		return 0, newPersistenceError("insert", err)
	}

	span.SetAttributes(attribute.Int64("workout.id", id))
	return id, nil
}

func (s *psqlSession) ListAll(ctx context.Context) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.workouts.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.conn.Query(
		ctx,
		`
			SELECT id, date, activity_type, duration_minutes, calories_burned
			FROM workouts
			ORDER BY date DESC, id DESC`,
	)
	if err != nil {
		return nil, newPersistenceError("list", err)
	}
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		var w Workout
		if err := rows.Scan(&w.ID, &w.Date, &w.ActivityType, &w.DurationMinutes, &w.CaloriesBurned); err != nil {
			return nil, newPersistenceError("list", fmt.Errorf("rows scan: %w", err))
		}
		w.Date = truncateDay(w.Date)
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("list", err)
	}

	span.SetAttributes(attribute.Int("workouts.count", len(workouts)))
	return workouts, nil
}

func (s *psqlSession) AggregateByDateRange(ctx context.Context, start, end time.Time) (_ *Aggregate, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.workouts.aggregate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	start, end = truncateDay(start), truncateDay(end)
	span.SetAttributes(
		attribute.String("from", start.Format(DateLayout)),
		attribute.String("to", end.Format(DateLayout)),
	)

	rows, err := s.conn.Query(
		ctx,
		`
			SELECT date, SUM(calories_burned)::BIGINT, SUM(duration_minutes)::BIGINT
			FROM workouts
			WHERE date BETWEEN $1 AND $2
			GROUP BY date
			ORDER BY date ASC`,
		start, end,
	)
	if err != nil {
		return nil, newPersistenceError("aggregate", err)
	}
	defer rows.Close()

	aggregate := &Aggregate{}
	for rows.Next() {
		var summary DaySummary
		if err := rows.Scan(&summary.Date, &summary.Calories, &summary.Duration); err != nil {
			return nil, newPersistenceError("aggregate", fmt.Errorf("rows scan: %w", err))
		}
		summary.Date = truncateDay(summary.Date)
		aggregate.Days = append(aggregate.Days, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("aggregate", err)
	}

	if err := s.conn.QueryRow(
		ctx,
		`
			SELECT SUM(calories_burned)::BIGINT, SUM(duration_minutes)::BIGINT
			FROM workouts
			WHERE date BETWEEN $1 AND $2`,
		start, end,
	).Scan(&aggregate.Totals.Calories, &aggregate.Totals.Duration); err != nil {
		return nil, newPersistenceError("aggregate", fmt.Errorf("totals: %w", err))
	}

	return aggregate, nil
}
