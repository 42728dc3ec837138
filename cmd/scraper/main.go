package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"skyline/internal/scraper"
	"skyline/pkg/config"
	xhttp "skyline/pkg/http"
	applogger "skyline/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := applogger.New(&applogger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	browser := scraper.NewBrowser(cfg.Scraper.NavTimeout)
	defer browser.Close()

	srv := xhttp.NewServer(
		scraper.NewHandler(l, browser, cfg.Scraper.VideoPrefix),
		xhttp.WithPort(cfg.Scraper.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
	if err := srv.Start(); err != nil {
		log.Fatalf("scraper server start failed: %v", err)
	}
	l.Info("scraper listening", applogger.Int("port", cfg.Scraper.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		l.Error("scraper shutdown error", applogger.Error(err))
	}
}
