// Package main is the race-day operator console. It loads the entry list (or
// resumes a stored race), wires storage, the live board and the event bus,
// then hands the terminal to the operator.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/livetiming/race-hub/config"
	"github.com/livetiming/race-hub/internal/application/command"
	"github.com/livetiming/race-hub/internal/domain/athlete"
	"github.com/livetiming/race-hub/internal/domain/race"
	"github.com/livetiming/race-hub/internal/domain/shared"
	"github.com/livetiming/race-hub/internal/infrastructure/entrylist"
	"github.com/livetiming/race-hub/internal/infrastructure/i18n"
	"github.com/livetiming/race-hub/internal/infrastructure/messaging"
	"github.com/livetiming/race-hub/internal/infrastructure/persistence/memory"
	"github.com/livetiming/race-hub/internal/infrastructure/persistence/postgres"
	"github.com/livetiming/race-hub/internal/infrastructure/persistence/redis"
	"github.com/livetiming/race-hub/internal/interface/console"
	"github.com/livetiming/race-hub/pkg/logger"
	"github.com/livetiming/race-hub/pkg/timeutil"
)

// resumeLatest as RACE_RESUME_ID picks the most recently updated stored race.
const resumeLatest = "latest"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

type eventBus interface {
	shared.EventBus
	Close() error
	Metrics() *messaging.EventBusMetrics
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, closeLog, err := setupLogger(cfg.Observability)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Info("starting race hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Timezone),
		logger.String("locale", cfg.App.Locale),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		repo   race.Repository
		pgRepo *postgres.RaceRepository
	)
	if cfg.Database.Enabled() {
		conn, err := postgres.NewConnection(ctx, postgresConfig(cfg.Database), log)
		if err != nil {
			return err
		}
		defer conn.Close()

		if cfg.Database.Migrate {
			n, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				return err
			}
			log.Info("database ready", logger.Int("migrations_applied", n))
		}
		pgRepo = postgres.NewRaceRepository(conn)
		repo = pgRepo
	} else {
		log.Warn("no database configured, results are kept in memory only")
		repo = memory.NewRaceRepository()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. LIVE BOARD & EVENTS
	// ─────────────────────────────────────────────────────────────────────────
	var (
		board race.Board
		bus   eventBus
	)
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log

	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(ctx, redisConfig(cfg.Redis), log)
		if err != nil {
			return err
		}
		defer cache.Close()
		board = redis.NewLiveBoard(cache)

		if cfg.Redis.PublishEvents {
			client := messaging.NewGoRedisClient(cache.Client())
			defer client.Close()

			bus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
				Client:         client,
				LocalBusConfig: busConfig,
				Logger:         log,
			})
			if err != nil {
				return err
			}
		}
	}
	if bus == nil {
		bus = messaging.NewInMemoryEventBus(busConfig)
	}
	defer func() {
		m := bus.Metrics().Snapshot()
		log.Info("event bus closed",
			logger.Int64("published", m.TotalPublished),
			logger.Int64("handler_failures", m.HandlerFailures),
		)
		_ = bus.Close()
	}()

	if err := bus.SubscribeAll(auditLog(log)); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. RACE
	// ─────────────────────────────────────────────────────────────────────────
	clock := timeutil.SystemClock{}
	svc := command.NewRaceService(repo, board, bus, command.RaceServiceConfig{
		SideEffectTimeout: cfg.Race.SideEffectTimeout,
		Clock:             clock,
		Logger:            log,
	})

	tr := i18n.NewTranslator(cfg.App.Locale, log)
	presenter := console.NewPresenter(tr, cfg.Race.Colors, cfg.App.Location)

	if cfg.Race.ResumeID != "" {
		id := cfg.Race.ResumeID
		if id == resumeLatest && pgRepo != nil {
			recent, err := pgRepo.RecentRaces(ctx, 1)
			if err != nil {
				return err
			}
			if len(recent) == 0 {
				return shared.ErrRaceNotFound
			}
			id = recent[0].ID
		}

		res, err := svc.LoadRace(ctx, command.LoadRaceCommand{RaceID: id})
		if err != nil {
			return fmt.Errorf("failed to resume race %s: %w", id, err)
		}
		presenter.Message(os.Stdout, "race_loaded", map[string]any{"Name": res.Name, "Count": res.Competitors})
	} else {
		classifier := athlete.NewAgeClassifier(clock, cfg.App.Location)
		list, err := entrylist.Load(cfg.Race.EntryList, classifier)
		if err != nil {
			return err
		}

		name := cfg.Race.Name
		if name == "" {
			name = list.RaceName
		}

		res, err := svc.CreateRace(ctx, command.CreateRaceCommand{Name: name, Athletes: list.Athletes})
		if err != nil {
			return fmt.Errorf("failed to create race: %w", err)
		}
		presenter.Message(os.Stdout, "race_created", map[string]any{"Name": res.Name, "Count": res.Competitors})
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. CONSOLE
	// ─────────────────────────────────────────────────────────────────────────
	con := console.New(svc, tr, os.Stdout, console.Config{
		Colors:   cfg.Race.Colors,
		Location: cfg.App.Location,
		Logger:   log,
	})
	con.Execute(ctx, "list")

	if err := con.Run(ctx, os.Stdin); err != nil {
		return fmt.Errorf("console: %w", err)
	}

	log.Info("race hub stopped")
	return nil
}

// auditLog records every race event in the log file.
func auditLog(log *logger.Logger) shared.EventHandler {
	return func(e shared.Event) error {
		fields := []logger.Field{
			logger.String("event", string(e.EventType())),
			logger.RaceID(e.AggregateID()),
		}
		for k, v := range e.Payload() {
			fields = append(fields, logger.Any(k, v))
		}
		log.Info("race event", fields...)
		return nil
	}
}

// setupLogger logs to the configured file so the console stays readable.
func setupLogger(cfg config.ObservabilityConfig) (*logger.Logger, func(), error) {
	var (
		out     io.Writer = os.Stderr
		closeFn           = func() {}
	)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	log := logger.New(logger.Options{
		Output: out,
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.Format(cfg.LogFormat),
	})
	return log, closeFn, nil
}

func postgresConfig(c config.DatabaseConfig) postgres.Config {
	pc := postgres.DefaultConfig()
	pc.URL = c.URL
	if c.Host != "" {
		pc.Host = c.Host
	}
	pc.Port = c.Port
	pc.Database = c.Name
	pc.User = c.User
	pc.Password = c.Password
	pc.SSLMode = c.SSLMode
	pc.MaxConns = int32(c.MaxConns)
	pc.MaxConnLifetime = c.ConnMaxLifetime
	pc.MaxConnIdleTime = c.ConnMaxIdleTime
	return pc
}

func redisConfig(c config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = c.Host
	rc.Port = c.Port
	rc.Password = c.Password
	rc.DB = c.DB
	rc.PoolSize = c.PoolSize
	rc.MinIdleConns = c.MinIdleConns
	rc.DialTimeout = c.DialTimeout
	rc.ReadTimeout = c.ReadTimeout
	rc.WriteTimeout = c.WriteTimeout
	rc.BoardTTL = c.BoardTTL
	return rc
}
