// Command seed fills the configured workouts store with generated workouts.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/fitlog/internal"
	"github.com/2beens/fitlog/internal/config"
	"github.com/2beens/fitlog/internal/logging"
	"github.com/2beens/fitlog/internal/workouts"
)

var activities = []string{
	"running",
	"cycling",
	"swimming",
	"rowing",
	"yoga",
	"hiking",
	"strength training",
	"walking",
}

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	count := flag.Int("count", 60, "number of workouts to add")
	days := flag.Int("days", 90, "spread workouts over this many past days")
	seed := flag.Int64("seed", 0, "random seed, 0 picks one")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		log.Fatalf("load secrets: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, _, err := internal.OpenWorkoutsStore(ctx, cfg, secrets)
	if err != nil {
		log.Fatalf("open workouts store: %s", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("close workouts store: %s", err)
		}
	}()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(*seed)
	to := time.Now()
	from := to.AddDate(0, 0, -*days)

	added, err := insertAll(ctx, store, generateWorkouts(faker, *count, from, to))
	if err != nil {
		log.Errorf("seed stopped after %d workouts: %s", added, err)
		return
	}
	log.Infof("added %d workouts between %s and %s (seed %d)", added, from.Format(workouts.DateLayout), to.Format(workouts.DateLayout), *seed)
}

func generateWorkouts(faker *gofakeit.Faker, count int, from, to time.Time) []workouts.Workout {
	generated := make([]workouts.Workout, 0, count)
	for i := 0; i < count; i++ {
		date := faker.DateRange(from, to)
		generated = append(generated, workouts.Workout{
			Date:            time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			ActivityType:    faker.RandomString(activities),
			DurationMinutes: int64(faker.Number(10, 120)),
			CaloriesBurned:  int64(faker.Number(50, 1200)),
		})
	}
	return generated
}

func insertAll(ctx context.Context, store workouts.Store, toAdd []workouts.Workout) (int, error) {
	session, err := store.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer session.Release()

	for i, w := range toAdd {
		if _, err := session.Insert(ctx, w); err != nil {
			return i, err
		}
	}
	return len(toAdd), nil
}
