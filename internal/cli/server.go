package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/config"
	"quizroom-service/internal/infra/llm"
	"quizroom-service/internal/infra/memory"
	pgstore "quizroom-service/internal/infra/postgres"
	redisstore "quizroom-service/internal/infra/redis"
	transport "quizroom-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	settings := gameSettings(cfg)
	codes := app.RandomCodes(config.IntOr(cfg.Game.CodeLength, app.DefaultCodeLength))

	var rooms app.RoomStore
	if redisClient != nil {
		rooms = redisstore.NewRoomStore(redisClient, redisTTL, codes)
	} else {
		rooms = memory.NewRoomStore(codes)
	}

	var stores app.Fanout
	if pool != nil {
		stores = append(stores, pgstore.NewRoomMirror(pool))
	}
	if redisClient != nil {
		stores = append(stores, redisstore.NewRoomMirror(redisClient, redisTTL))
	}
	var mirror app.Mirror = app.NopMirror{}
	if len(stores) > 0 {
		writer := app.NewWriteBehind(stores, cfg.Mirror.Buffer, config.TTLDuration(cfg.Mirror.Timeout, 5*time.Second), log)
		go writer.Run(ctx)
		defer writer.Close()
		mirror = writer
	}

	hub := transport.NewHub(log)
	service := app.NewGameService(rooms, questionSource(cfg, pool, redisClient, log), hub,
		app.WithSettings(settings),
		app.WithMirror(mirror),
		app.WithLogger(log),
	)
	wsHandler := transport.NewWSHandler(service, hub, log)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(wsHandler, service),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz room service", "port", finalPort, "redis", redisClient != nil, "postgres", pool != nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func gameSettings(cfg config.Config) app.Settings {
	def := app.DefaultSettings()
	return app.Settings{
		MaxPlayers:        config.IntOr(cfg.Game.MaxPlayers, def.MaxPlayers),
		RoundDuration:     config.TTLDuration(cfg.Game.RoundDuration, def.RoundDuration),
		PointsPerCorrect:  config.IntOr(cfg.Game.PointsPerCorrect, def.PointsPerCorrect),
		QuestionCount:     config.IntOr(cfg.Game.QuestionCount, def.QuestionCount),
		GenerationTimeout: config.TTLDuration(cfg.Game.GenerationTimeout, def.GenerationTimeout),
	}
}

// questionSource assembles the question pipeline: the configured origin, an optional
// placeholder fallback, then a batch cache (Redis when available).
func questionSource(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log *slog.Logger) app.QuestionSource {
	var source app.QuestionSource
	switch {
	case cfg.Generator.Source == "static":
		source = memory.NewStaticSource(nil)
	case cfg.Generator.Source == "bank" && pool != nil:
		source = pgstore.NewQuestionBank(pool)
	default:
		if cfg.Generator.APIKey == "" {
			log.Warn("no generator api key configured, requests will likely be rejected")
		}
		source = llm.NewGenerator(llm.Options{
			URL:         cfg.Generator.URL,
			APIKey:      cfg.Generator.APIKey,
			Model:       cfg.Generator.Model,
			Temperature: cfg.Generator.Temperature,
			MaxTokens:   cfg.Generator.MaxTokens,
		})
	}

	// Only the primary source is cached; placeholder batches must not outlive the outage.
	cacheTTL := config.TTLDuration(cfg.Generator.CacheTTL, 0)
	if redisClient != nil {
		source = redisstore.NewQuestionCache(redisClient, source, cacheTTL)
	} else {
		source = memory.NewQuestionCache(source, cacheTTL)
	}

	if cfg.Generator.Fallback {
		source = memory.NewFallbackSource(source, memory.NewStaticSource(nil), func(err error) {
			log.Warn("question source failed, using placeholder questions", "error", err)
		})
	}
	return source
}
