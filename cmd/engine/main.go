package main

import (
	"context"
	goerrors "errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"ipvgo_bridge/internal/bootstrap"
	engineDelivery "ipvgo_bridge/internal/delivery/engine"
	healthDelivery "ipvgo_bridge/internal/delivery/health"
	"ipvgo_bridge/internal/repository"
	engineUC "ipvgo_bridge/internal/usecase/engine"
)

func main() {
	logger := NewLogger()
	defer logger.Sync()

	flags := bootstrap.Flags("engine")
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

	gtp, err := repository.StartGTPProcess(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to start gtp engine", "error", err)
	}
	defer gtp.Close()

	uc := engineUC.NewEngineUseCase(gtp)

	lis, err := net.Listen("tcp", cfg.GrpcPort)
	if err != nil {
		logger.Fatalw("cant listen grpc port", "error", err)
	}
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	go healthDelivery.Watch(ctx, hs, uc, time.Second, logger)
	go func() {
		logger.Infof("grpc health is running on port %s", cfg.GrpcPort)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Errorw("grpc server stopped", "error", err)
		}
	}()
	defer grpcServer.GracefulStop()

	handler := engineDelivery.NewEngineHandler(*cfg, logger, uc)
	server := &http.Server{Addr: cfg.ServerPort, Handler: handler.Router()}

	go func() {
		select {
		case <-ctx.Done():
		case <-gtp.Closed():
			logger.Error("gtp engine exited")
		}
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != nil && !goerrors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("Failed to start server", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	return logger.Sugar()
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
