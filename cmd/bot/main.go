package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PoluyanbIch/GoQuizBot/internal/config"
	"github.com/PoluyanbIch/GoQuizBot/internal/generator"
	"github.com/PoluyanbIch/GoQuizBot/internal/logger"
	"github.com/PoluyanbIch/GoQuizBot/internal/schedule"
	"github.com/PoluyanbIch/GoQuizBot/internal/server"
	"github.com/PoluyanbIch/GoQuizBot/internal/service"
	"github.com/PoluyanbIch/GoQuizBot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	os.Exit(finish(lg, run(cfg, lg)))
}

// finish logs how run ended and flushes the logger, returning the exit code.
func finish(lg *zap.Logger, err error) int {
	code := 0
	if err != nil {
		lg.Error("bot exited", zap.Error(err))
		code = 1
	}
	_ = lg.Sync()
	return code
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := generator.NewModel(ctx, generator.ModelConfig{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey(),
		Model:    cfg.LLM.Model(),
	})
	if err != nil {
		return err
	}
	provider := generator.NewLLMProvider(model, lg.Named("generator"))

	rdb, err := newRedis(ctx, cfg.Redis, lg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}
	leaderboard := service.NewLeaderboardService(rdb, lg.Named("leaderboard"))

	opts := []service.EngineOption{
		service.WithQuestionCount(cfg.Quiz.QuestionCount),
		service.WithLogger(lg.Named("engine")),
	}
	if cfg.Quiz.ShuffleOptions {
		opts = append(opts, service.WithOptionShuffle(rand.New(rand.NewSource(time.Now().UnixNano()))))
	}
	engine := service.NewEngine(provider, opts...)

	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.Debug, lg.Named("telegram"))
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	deferred := schedule.NewDeferred[service.SessionKey](lg.Named("schedule"))
	defer deferred.Stop()

	dispatcher := service.NewDispatcher(engine, bot, deferred, leaderboard, service.DispatcherConfig{
		NextQuestionDelay: cfg.Quiz.NextQuestionDelay,
		GenerationTimeout: cfg.Quiz.GenerationTimeout,
	}, lg.Named("dispatcher"))

	router := server.NewRouter(engine, lg.Named("http"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, ":"+cfg.Server.Port, router, lg.Named("http"))
	})
	g.Go(func() error {
		lg.Info("bot is starting", zap.String("llm_provider", cfg.LLM.Provider))
		return bot.Run(gctx, dispatcher)
	})

	return g.Wait()
}

// newRedis connects to Redis when an address is configured. A nil client means the
// leaderboard stays in memory.
func newRedis(ctx context.Context, cfg config.RedisConfig, lg *zap.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		lg.Info("redis not configured, leaderboard kept in memory")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	lg.Info("redis client connected", zap.String("addr", cfg.Addr))
	return rdb, nil
}
