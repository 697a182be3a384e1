package main

import (
	"context"
	goerrors "errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ipvgo_bridge/internal/adapters"
	"ipvgo_bridge/internal/bootstrap"
	"ipvgo_bridge/internal/repository"
	"ipvgo_bridge/internal/usecase/bridge"
	"ipvgo_bridge/internal/usecase/record"
)

func main() {
	logger := NewLogger()
	defer logger.Sync()

	flags := bootstrap.Flags("bridge")
	if err := flags.Parse(os.Args[1:]); err != nil {
		logger.Fatalw("Failed to parse flags", "error", err)
	}
	cfgPath, _ := flags.GetString("config")

	cfg, err := bootstrap.Setup(cfgPath, flags)
	if err != nil {
		logger.Errorw("Failed to setup configuration", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	host := adapters.NewAdapterHost(cfg, logger)
	if err := host.Init(ctx); err != nil {
		logger.Fatalw("Failed to connect to host", "error", err)
	}
	defer host.Close(ctx)

	recorder, closeRecorder := initRecorder(ctx, logger, cfg)
	defer closeRecorder()

	engine := repository.NewEngineRepository(cfg, logger)
	driver := bridge.NewBridgeUseCase(host, engine, recorder, bridge.OptionsFromConfig(cfg), logger)

	logger.Infow("bridge started", "opponent", cfg.Opponent, "size", cfg.BoardSize, "engine", cfg.EngineUrl)
	err = driver.Run(ctx)
	switch {
	case goerrors.Is(err, context.Canceled):
		logger.Info("bridge stopped")
	case err != nil:
		logger.Errorw("bridge failed", "error", err)
		os.Exit(1)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

// initRecorder returns nil when REDIS_URL is not configured.
func initRecorder(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) (bridge.Recorder, func()) {
	if cfg.RedisUrl == "" {
		log.Info("game recording disabled")
		return nil, func() {}
	}

	redisAdapter := adapters.NewAdapterRedis(cfg, log)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatalw("Failed to init redis", "error", err)
	}

	mongoAdapter := adapters.NewAdapterMongo(cfg, log)
	if cfg.MongoUri != "" {
		if err := mongoAdapter.Init(ctx); err != nil {
			log.Fatalw("Failed to init mongo", "error", err)
		}
	}

	store := repository.NewRecordRepository(log, redisAdapter.GetClient(), mongoAdapter.Database)
	closeAll := func() {
		ctx := context.Background()
		_ = mongoAdapter.Close(ctx)
		_ = redisAdapter.Close(ctx)
	}
	return record.NewRecordUseCase(store, log), closeAll
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
