package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/fitlog/internal/config"
	"github.com/2beens/fitlog/internal/db"
	"github.com/2beens/fitlog/internal/flash"
	"github.com/2beens/fitlog/internal/middleware"
	"github.com/2beens/fitlog/internal/telemetry/metrics"
	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/internal/web"
	"github.com/2beens/fitlog/internal/workouts"
	"github.com/2beens/fitlog/pkg"
)

const serviceName = "fitlog"

// WorkoutsBackend is a workouts store with a lifecycle: it is pinged by /healthz and closed on shutdown.
type WorkoutsBackend interface {
	workouts.Store
	Ping(ctx context.Context) error
	Close() error
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config       *config.Config
	store        WorkoutsBackend
	redisClient  *redis.Client
	flashCarrier *flash.Carrier
	localizer    *workouts.Localizer
	renderer     *web.Renderer
	clock        workouts.Clock

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config  *config.Config
	Secrets *config.Secrets
	// Clock defaults to time.Now
	Clock workouts.Clock
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	secrets := params.Secrets
	if secrets == nil {
		secrets = &config.Secrets{}
	}

	// everything that can fail without side effects goes before opening the store
	flashSecret := secrets.FlashSecret
	if flashSecret == "" {
		log.Warnln("flash secret not set, using a random one; pending status messages will not survive a restart")
		var err error
		if flashSecret, err = pkg.GenerateRandomString(32); err != nil {
			return nil, fmt.Errorf("generate flash secret: %w", err)
		}
	}
	flashCarrier, err := flash.NewCarrier([]byte(flashSecret))
	if err != nil {
		return nil, fmt.Errorf("new flash carrier: %w", err)
	}

	localizer := workouts.NewLocalizer(cfg.Locale)
	renderer, err := web.NewRenderer(localizer.Language().String())
	if err != nil {
		return nil, fmt.Errorf("new renderer: %w", err)
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(secrets.HoneycombEnabled, serviceName)
	if err != nil {
		return nil, err
	}

	store, collectors, err := OpenWorkoutsStore(ctx, cfg, secrets)
	if err != nil {
		otelShutdown()
		return nil, err
	}

	promRegistry := metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager(serviceName, "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	var rdb *redis.Client
	if cfg.RateLimitEnabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: secrets.RedisPassword,
			DB:       0, // use default DB
		})
		if secrets.HoneycombEnabled {
			rdb.AddHook(redisotel.NewTracingHook())
		}

		rdbStatus := rdb.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis, submit rate limit will let requests through: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	} else {
		log.Infoln("submit rate limiting disabled")
	}

	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Server{
		config:       cfg,
		store:        store,
		redisClient:  rdb,
		flashCarrier: flashCarrier,
		localizer:    localizer,
		renderer:     renderer,
		clock:        clock,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

// OpenWorkoutsStore opens the configured backend and makes sure its schema exists.
// The returned collectors export backend specific metrics.
func OpenWorkoutsStore(
	ctx context.Context,
	cfg *config.Config,
	secrets *config.Secrets,
) (WorkoutsBackend, []prometheus.Collector, error) {
	switch cfg.DBDriver {
	case config.DBDriverPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     secrets.PostgresPassword,
			TracingEnabled: secrets.HoneycombEnabled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("new db pool: %w", err)
		}

		store := workouts.NewPsqlStore(dbPool)
		if err := store.Initialize(ctx); err != nil {
			dbPool.Close()
			return nil, nil, fmt.Errorf("initialize postgres store: %w", err)
		}

		pgxpoolCollector := pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		)
		log.Infof("workouts stored in postgres [%s/%s]", cfg.PostgresHost, cfg.PostgresDBName)
		return store, []prometheus.Collector{pgxpoolCollector}, nil
	default:
		sqliteDB, err := db.OpenSqlite(ctx, db.OpenSqliteParams{
			Path: cfg.SqlitePath,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}

		store := workouts.NewSqliteStore(sqliteDB)
		if err := store.Initialize(ctx); err != nil {
			_ = sqliteDB.Close()
			return nil, nil, fmt.Errorf("initialize sqlite store: %w", err)
		}

		log.Infof("workouts stored in sqlite [%s]", cfg.SqlitePath)
		return store, nil, nil
	}
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware(serviceName + "-router"))

	workoutsHandler := workouts.NewHandler(
		s.store,
		s.renderer,
		s.flashCarrier,
		s.localizer,
		s.metricsManager,
		s.clock,
	)

	var logWorkout http.Handler = http.HandlerFunc(workoutsHandler.HandleLogWorkout)
	if s.redisClient != nil {
		logWorkout = middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			"log-workout",
			s.config.SubmitRateLimitPerMin,
			s.metricsManager,
		)(logWorkout)
	}

	r.HandleFunc("/", workoutsHandler.HandleHome).Methods("GET").Name("home")
	r.Handle("/log_workout", logWorkout).Methods("POST").Name("log-workout")
	r.HandleFunc("/dashboard", workoutsHandler.HandleDashboard).Methods("GET").Name("dashboard")
	r.HandleFunc("/dashboard/{period}", workoutsHandler.HandleDashboard).Methods("GET").Name("dashboard-period")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET").Name("health")

	// all the rest - unhandled paths
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Name("unknown")

	r.Use(middleware.LogRequest())
	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		log.Errorf("health check, store ping: %s", err)
		pkg.WriteResponse(w, pkg.ContentType.Text, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	pkg.WriteTextResponseOK(w, "ok")
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	if s.config.PrometheusMetricsPort != "" {
		metricsRouter := mux.NewRouter()
		metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
			s.promRegistry,
			promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		))
		metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
		s.metricsHttpServer = &http.Server{
			Addr:              metricsAddr,
			Handler:           metricsRouter,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Debugf(" > metrics listening on: [%s]", metricsAddr)
			err := s.metricsHttpServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("metrics service, listen and serve: %s", err)
			}
		}()
	}

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests first, in-flight ones still need the store
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown http server: %s", err)
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown metrics http server: %s", err)
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.store != nil {
		log.Debugln("closing workouts store ...")
		if err := s.store.Close(); err != nil {
			log.Errorf("failed to close workouts store: %s", err)
		}
		log.Debugln("workouts store closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeOpenConnections.Inc()
	case http.StateHijacked, http.StateClosed:
		s.metricsManager.GaugeOpenConnections.Dec()
	default:
		// do nothing
	}
}
