package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mr1hm/go-disaster-admin/internal/config"
	"github.com/mr1hm/go-disaster-admin/internal/logging"
	"github.com/mr1hm/go-disaster-admin/internal/metrics"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)
	metrics.Init(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, os.Stdin, os.Stdout)
	if err != nil {
		logging.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", userMessage(err))
		return 1
	}
	return 0
}
