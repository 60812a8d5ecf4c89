package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmirGHaghighi/kuma-proxy-checker/config"
	"github.com/AmirGHaghighi/kuma-proxy-checker/monitor"
	"github.com/AmirGHaghighi/kuma-proxy-checker/server"
)

const shutdownGrace = 5 * time.Second

func main() {
	var (
		configPath string
		once       bool
		listen     string
	)
	flag.StringVar(&configPath, "c", "", "Path to config.json (shorthand)")
	flag.StringVar(&configPath, "config", "", "Path to config.json")
	flag.BoolVar(&once, "once", false, "Run only one check cycle")
	flag.StringVar(&listen, "listen", "", "Status API listen address, e.g. :8080 (overrides config)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Proxy health checker with per-proxy Uptime Kuma push reporting\n\nUsage: %s -c config.json [-once] [-listen addr]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if configPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", configPath, err)
		os.Exit(1)
	}
	if listen != "" {
		cfg.Listen = listen
	}

	if err := run(cfg, once); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, once bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []monitor.Option{
		monitor.WithLogLevel(cfg.LogLevel),
		monitor.WithInternalLogs(cfg.LogLevel == monitor.LogDebug),
		monitor.WithPushTimeout(cfg.PushTimeout),
	}
	if cfg.LogFile != "" {
		opts = append(opts, monitor.LogFile(cfg.LogFile))
	}
	mon := monitor.New(cfg.Probe, cfg.Targets, opts...)
	logger := mon.Logger()
	defer func() { _ = logger.Sync() }()

	var srv *server.Server
	if cfg.Listen != "" {
		gin.SetMode(gin.ReleaseMode)
		srv = server.New(cfg.Listen, mon, logger)
		srv.Start()
	}

	runErr := mon.Run(ctx, once)

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Status server shutdown error", zap.Error(err))
		}
	}
	return runErr
}
