package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podsync/internal/app"
	"podsync/internal/driver"
	"podsync/internal/driver/lxd"
	"podsync/internal/driver/virsh"
	"podsync/internal/router"
	"podsync/pkg/logging"
	"podsync/pkg/server"

	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	lxdDriver, err := lxd.New(lxd.Config{
		CertFile: cfg.Agent.LXD.CertFile,
		KeyFile:  cfg.Agent.LXD.KeyFile,
		Timeout:  time.Duration(cfg.Agent.LXD.TimeoutSecond) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("create lxd driver failed", zap.Error(err))
	}
	registry := driver.NewRegistry(lxdDriver, virsh.New(logger))

	handler := router.NewAgentHandler(registry, cfg.Agent.Token, cfg.Sync.AuthHeader, logger)
	engine := router.NewAgentEngine(handler)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	logger.Info("rack agent starting", zap.Strings("pod_types", registry.Types()))
	if err := server.Serve(ctx, cfg.Agent.Listen, engine, logger); err != nil {
		logger.Error("rack agent stopped", zap.Error(err))
	}
}
