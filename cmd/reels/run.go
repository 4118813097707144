package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prasannasamana/ai-reel-generator/internal/app"
	"github.com/prasannasamana/ai-reel-generator/internal/config"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/httpapi"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/kafka"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/openai"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/outbox"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/repository"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/runpod"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/service"
	mediastore "github.com/prasannasamana/ai-reel-generator/internal/storage/media"
	pg "github.com/prasannasamana/ai-reel-generator/internal/storage/postgres"
)

func runner(cfg *config.Config, log zerolog.Logger) app.Runner {
	return func(ctx context.Context) error {
		return run(ctx, cfg, log)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var (
		repo       repository.ReelRepository
		outboxRepo *pg.OutboxRepo
	)

	if cfg.DatabaseURL != "" {
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer db.Close()

		repo = pg.NewReelRepo(db)
		outboxRepo = pg.NewOutboxRepo(db)
		log.Info().Msg("using postgres repository")
	} else {
		repo = repository.NewMemoryRepository()
		log.Warn().Msg("DATABASE_URL not set, using in-memory repository")
	}

	store, err := mediastore.NewStore(cfg.MediaRoot)
	if err != nil {
		return fmt.Errorf("media store: %w", err)
	}

	dispatcher := service.NewDispatcher(cfg.DispatcherWorkers, cfg.DispatcherQueue, log)
	defer dispatcher.Close()

	ai := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, log)

	svc := service.New(service.Deps{
		Repo:       repo,
		Media:      store,
		Rewriter:   ai,
		Speech:     ai,
		Video:      runpod.NewClient(cfg.RunpodEndpointURL, cfg.RunpodAPIKey, log),
		Dispatcher: dispatcher,
		Logger:     log,
	})

	// Outbox publishing needs both a durable outbox and brokers.
	if outboxRepo != nil && len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Logger:  log,
		})
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()

		publisher, err := outbox.NewPublisher(outbox.PublisherConfig{
			OutboxRepo: outboxRepo,
			Producer:   producer,
			Interval:   cfg.OutboxInterval,
			BatchSize:  cfg.OutboxBatchSize,
			Logger:     log,
		})
		if err != nil {
			return fmt.Errorf("outbox publisher: %w", err)
		}
		go func() { _ = publisher.Start(ctx) }()
	}

	h := httpapi.New(svc, cfg.BackendBaseURL, log)
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           httpapi.NewRouter(h, store.Root()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Address).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	}
}
