package main

import (
	"context"
	"fmt"
	"os"

	"engagement-pulse/internal/activity"
	"engagement-pulse/internal/auth"
	"engagement-pulse/internal/clock"
	"engagement-pulse/internal/config"
	"engagement-pulse/internal/dashboard"
	"engagement-pulse/internal/database"
	"engagement-pulse/internal/directory"
	"engagement-pulse/internal/engagements"
	"engagement-pulse/internal/handlers"
	"engagement-pulse/internal/health"
	"engagement-pulse/internal/logging"
	"engagement-pulse/internal/metrics"
	"engagement-pulse/internal/pulse"
	"engagement-pulse/internal/seed"
	"engagement-pulse/internal/server"
	"engagement-pulse/internal/tracking"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	ctx := context.Background()
	if err := seed.Admin(ctx, db, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		log.Error("failed to seed admin", "error", err)
		os.Exit(1)
	}

	clk := clock.Real{}
	if cfg.SeedDemo {
		if _, err := seed.Demo(ctx, db, clk, log); err != nil {
			log.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	rec := activity.NewRecorder(db, log)
	engine := health.NewEngine(db, clk, m)

	h := &handlers.Handlers{
		Auth:         auth.NewService(db, log),
		Pulses:       pulse.NewService(db, clk, rec, m, log),
		Dashboard:    dashboard.NewService(db, clk, engine, m, log),
		Engagements:  engagements.NewService(db, engine, rec, log),
		Tracking:     tracking.NewService(db, rec, log),
		Directory:    directory.NewService(db, rec, log),
		Activity:     rec,
		OAuthEnabled: auth.InitProviders(cfg, log),
		Log:          log,
	}

	r, err := server.NewRouter(cfg, h, reg)
	if err != nil {
		log.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Info("starting server", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
