package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"switching-insights-go/internal/api"
	"switching-insights-go/internal/config"
	"switching-insights-go/internal/dashboard"
	"switching-insights-go/internal/dataset"
	"switching-insights-go/internal/logger"
)

func main() {
	_ = godotenv.Load() // loads .env

	cfgFile := flag.String("config", "config.yaml", "config file")
	flag.Parse()

	log := logger.New()
	log.WithField("service", "switching-insights").Info("starting service")

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	engine, err := cfg.Engine()
	if err != nil {
		log.WithError(err).Fatal("failed to build governance engine")
	}
	if engine.Development() {
		log.WithField("publishable", engine.PublishableThreshold()).Warn("development thresholds in effect")
	}

	svc := dashboard.New(engine, dashboard.Settings{
		TopN:             cfg.Flow.TopN,
		ProxyFloor:       cfg.Proxy.MinSample,
		TimeWindowMonths: cfg.Filter.TimeWindowMonths,
		Confidence:       cfg.Intervals.Confidence,
		PriorStrength:    cfg.Intervals.PriorStrength,
	}, dataset.NewFetcher(cfg.FetchTimeout(), cfg.FetchMaxElapsed()), log)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 2*cfg.FetchMaxElapsed()+30*time.Second)
	err = svc.LoadAll(loadCtx, []dashboard.Source{
		{Product: dashboard.Motor, Path: cfg.Data.MotorPath, URL: cfg.Data.MotorURL},
		{Product: dashboard.Home, Path: cfg.Data.HomePath, URL: cfg.Data.HomeURL},
	})
	cancelLoad()
	if err != nil {
		log.WithError(err).Fatal("failed to load datasets")
	}
	if len(svc.Products()) == 0 {
		log.Fatal("no datasets loaded")
	}
	log.WithField("products", svc.Products()).Info("datasets loaded")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewServer(svc, log).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		return
	}
	log.Info("server stopped")
}
