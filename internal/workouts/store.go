package workouts

import (
	"context"
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=workouts_mocks_test.go -package=workouts_test

// Store hands out request scoped sessions. Every acquired Session must be released.
type Store interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session is a single connection borrowed from the store for one request.
type Session interface {
	Insert(ctx context.Context, workout Workout) (int64, error)
	ListAll(ctx context.Context) ([]Workout, error)
	AggregateByDateRange(ctx context.Context, start, end time.Time) (*Aggregate, error)
	Release()
}
