package workouts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/2beens/fitlog/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS workouts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		calories_burned INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_workouts_date ON workouts (date)`,
}

var _ Store = (*SqliteStore)(nil)

// SqliteStore keeps workouts in a sqlite database file. Dates are stored
// as YYYY-MM-DD text, so lexical order is date order.
type SqliteStore struct {
	db *sql.DB
}

func NewSqliteStore(db *sql.DB) *SqliteStore {
	return &SqliteStore{
		db: db,
	}
}

// Initialize creates the schema if it is not there yet; safe to run on every start.
func (s *SqliteStore) Initialize(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return newPersistenceError("initialize", fmt.Errorf("exec schema: %w", err))
		}
	}
	return nil
}

func (s *SqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) Acquire(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, newPersistenceError("acquire", err)
	}
	return &sqliteSession{conn: conn}, nil
}

type sqliteSession struct {
	conn *sql.Conn
}

func (s *sqliteSession) Release() {
	// returns the connection to the pool
	_ = s.conn.Close()
}

func (s *sqliteSession) Insert(ctx context.Context, workout Workout) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.sqlite.workouts.insert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id int64
	if err := s.conn.QueryRowContext(
		ctx,
		`
			INSERT INTO workouts (date, activity_type, duration_minutes, calories_burned)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
		workout.Day(), workout.ActivityType, workout.DurationMinutes, workout.CaloriesBurned,
	).Scan(&id); err != nil {
		return 0, newPersistenceError("insert", err)
	}

	span.SetAttributes(attribute.Int64("workout.id", id))
	return id, nil
}

func (s *sqliteSession) ListAll(ctx context.Context) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.sqlite.workouts.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.conn.QueryContext(
		ctx,
		`
			SELECT id, date, activity_type, duration_minutes, calories_burned
			FROM workouts
			ORDER BY date DESC, id DESC`,
	)
	if err != nil {
		return nil, newPersistenceError("list", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var workouts []Workout
	for rows.Next() {
		var w Workout
		var day string
		if err := rows.Scan(&w.ID, &day, &w.ActivityType, &w.DurationMinutes, &w.CaloriesBurned); err != nil {
			return nil, newPersistenceError("list", fmt.Errorf("rows scan: %w", err))
		}
		if w.Date, err = parseDay(day); err != nil {
			return nil, newPersistenceError("list", fmt.Errorf("workout %d: parse date %q: %w", w.ID, day, err))
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("list", err)
	}

	span.SetAttributes(attribute.Int("workouts.count", len(workouts)))
	return workouts, nil
}

func (s *sqliteSession) AggregateByDateRange(ctx context.Context, start, end time.Time) (_ *Aggregate, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.sqlite.workouts.aggregate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	from, to := start.Format(DateLayout), end.Format(DateLayout)
	span.SetAttributes(attribute.String("from", from), attribute.String("to", to))

	rows, err := s.conn.QueryContext(
		ctx,
		`
			SELECT date, SUM(calories_burned), SUM(duration_minutes)
			FROM workouts
			WHERE date BETWEEN ? AND ?
			GROUP BY date
			ORDER BY date ASC`,
		from, to,
	)
	if err != nil {
		return nil, newPersistenceError("aggregate", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	aggregate := &Aggregate{}
	for rows.Next() {
		var day string
		var summary DaySummary
		if err := rows.Scan(&day, &summary.Calories, &summary.Duration); err != nil {
			return nil, newPersistenceError("aggregate", fmt.Errorf("rows scan: %w", err))
		}
		if summary.Date, err = parseDay(day); err != nil {
			return nil, newPersistenceError("aggregate", fmt.Errorf("parse date %q: %w", day, err))
		}
		aggregate.Days = append(aggregate.Days, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("aggregate", err)
	}

	var calories, duration sql.NullInt64
	if err := s.conn.QueryRowContext(
		ctx,
		`SELECT SUM(calories_burned), SUM(duration_minutes) FROM workouts WHERE date BETWEEN ? AND ?`,
		from, to,
	).Scan(&calories, &duration); err != nil {
		return nil, newPersistenceError("aggregate", fmt.Errorf("totals: %w", err))
	}
	if calories.Valid {
		aggregate.Totals.Calories = &calories.Int64
	}
	if duration.Valid {
		aggregate.Totals.Duration = &duration.Int64
	}

	return aggregate, nil
}
