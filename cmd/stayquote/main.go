package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stayquote/internal/app/commands"
	"stayquote/internal/app/handlers"
	"stayquote/internal/app/handlers/selection"
	"stayquote/internal/app/middleware"
	"stayquote/internal/app/outbox"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainrooms "stayquote/internal/domain/rooms"
	domainselection "stayquote/internal/domain/selection"
	"stayquote/internal/infra/broker/kafka"
	rediscache "stayquote/internal/infra/cache/redis"
	"stayquote/internal/infra/config"
	mongostore "stayquote/internal/infra/db/mongo"
	"stayquote/internal/infra/fixtures"
	ginserver "stayquote/internal/infra/http/gin"
	"stayquote/internal/infra/inbox"
	"stayquote/internal/infra/obs"
	outboxrelay "stayquote/internal/infra/outbox"
	"stayquote/internal/infra/reservations"
	"stayquote/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg = config.Fallback()
		cfg.Env = env
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if _, err := fixtures.Load(ctx, cfg.RoomFixtures, cfg.Currency, app.rooms, app.calendars, logger); err != nil {
		logger.Warn("room fixtures load failed", "error", err, "path", cfg.RoomFixtures)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	for _, r := range app.runners {
		g.Go(func() error {
			logger.Info("background runner starting", "runner", r.name)
			if err := r.run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", r.name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", "error", err)
		app.close(logger)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type runner struct {
	name string
	run  func(ctx context.Context) error
}

type application struct {
	handlers  ginserver.Handlers
	health    obs.HealthHandlers
	rooms     domainrooms.Repository
	calendars domainavailability.Repository
	runners   []runner
	closers   []func(context.Context) error
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// storage is what one persistence mode contributes.
type storage struct {
	factory     uow.UoWFactory
	rooms       domainrooms.Repository
	calendars   domainavailability.Repository
	sessions    domainselection.Repository
	outbox      outbox.Outbox
	idempotency middleware.IdempotencyStore
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{health: obs.HealthHandlers{Checks: map[string]obs.Check{}}}

	var (
		st     storage
		client *mongostore.Client
		relay  *outboxrelay.Store
	)
	switch cfg.StorageMode {
	case config.StorageMongo:
		var err error
		client, err = mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		app.health.Checks["mongo"] = client.Ping
		relay = outboxrelay.NewStore(client.DB)
		st = storage{
			rooms:       mongostore.NewRoomRepository(client.DB),
			calendars:   mongostore.NewCalendarRepository(client.DB),
			sessions:    memory.NewSessionRepository(cfg.SessionTTL),
			outbox:      relay,
			idempotency: mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL),
		}
		if cfg.SessionStore == config.SessionsMongo {
			st.sessions = mongostore.NewSessionRepository(client.DB, cfg.SessionTTL)
		}
	default:
		st = storage{
			rooms:       memory.NewRoomRepository(),
			calendars:   memory.NewCalendarRepository(),
			sessions:    memory.NewSessionRepository(cfg.SessionTTL),
			outbox:      memory.NewOutbox(logSink(logger)),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		}
	}

	if cfg.SessionStore == config.SessionsRedis {
		rdb := rediscache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })
		app.health.Checks["redis"] = rediscache.Ping(rdb)
		st.sessions = rediscache.NewSessionRepository(rdb, cfg.SessionTTL)
		st.idempotency = rediscache.NewIdempotencyStore(rdb, cfg.IdempotencyTTL)
	}

	if client != nil {
		st.factory = mongostore.Factory{DB: client.DB, RoomsRepo: st.rooms, CalendarsRepo: st.calendars, SessionsRepo: st.sessions}
	} else {
		st.factory = memory.Factory{RoomsRepo: st.rooms, CalendarsRepo: st.calendars, SessionsRepo: st.sessions}
	}
	app.rooms, app.calendars = st.rooms, st.calendars

	encoder := outbox.JSONEventEncoder{}
	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	handlers.Register(commandBus, queryBus, handlers.Dependencies{
		UoWFactory: st.factory,
		Session: selection.Deps{
			Outbox:  st.outbox,
			Encoder: encoder,
			Logger:  logger,
		},
		CheckoutURL: cfg.CheckoutBaseURL,
	})
	logger.Debug("handlers registered", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(middleware.MessageValidator{}),
		middleware.Idempotency(st.idempotency, nil),
		middleware.Transaction(st.factory, nil),
		middleware.OutboxFlush(st.outbox),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(middleware.MessageValidator{}),
	)

	app.handlers = ginserver.Handlers{
		Rooms:    ginserver.RoomsHandler{Queries: queryBusWithMiddleware, Currency: cfg.Currency},
		Sessions: ginserver.SessionHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
	}

	if cfg.KafkaEnabled() {
		if err := wireKafka(app, cfg, logger, st, client, relay, encoder); err != nil {
			app.close(logger)
			return nil, err
		}
	}
	return app, nil
}

// wireKafka starts the outbox relay and the reservation consumer. Config validation
// guarantees Mongo storage whenever brokers are set.
func wireKafka(app *application, cfg config.Config, logger *slog.Logger, st storage, client *mongostore.Client, relay *outboxrelay.Store, encoder outbox.EventEncoder) error {
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("stayquote-outbox"))
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
	worker := &outboxrelay.Worker{
		Store:       relay,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger.With("component", "outbox"),
	}
	app.runners = append(app.runners, runner{name: "outbox", run: worker.Run})

	handler := &reservations.Handler{
		UoWFactory: st.factory,
		Inbox:      inbox.NewStore(client.DB, cfg.KafkaGroupID),
		Outbox:     st.outbox,
		Encoder:    encoder,
		Logger:     logger.With("component", "reservations"),
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, kafka.NewConfig("stayquote-reservations"), handler, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
	app.runners = append(app.runners, runner{
		name: "reservations",
		run: func(ctx context.Context) error {
			return consumer.Run(ctx, []string{cfg.ReservationEventsTopic})
		},
	})
	return nil
}

// logSink stands in for the broker when running fully in memory.
func logSink(logger *slog.Logger) memory.Sink {
	return func(ctx context.Context, records []outbox.EventRecord) error {
		for _, rec := range records {
			logger.DebugContext(ctx, "domain event", "name", rec.Name, "aggregate", rec.Aggregate, "id", rec.ID)
		}
		return nil
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
