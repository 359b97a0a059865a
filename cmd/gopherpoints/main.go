package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/talx-hub/gopher-points/internal/api/handlers"
	"github.com/talx-hub/gopher-points/internal/config"
	"github.com/talx-hub/gopher-points/internal/dbmanager"
	"github.com/talx-hub/gopher-points/internal/model"
	"github.com/talx-hub/gopher-points/internal/repo"
	"github.com/talx-hub/gopher-points/internal/router"
	"github.com/talx-hub/gopher-points/internal/service/audit"
	"github.com/talx-hub/gopher-points/internal/service/leaderboard"
	"github.com/talx-hub/gopher-points/internal/service/points"
	"github.com/talx-hub/gopher-points/internal/service/redemption"
	"github.com/talx-hub/gopher-points/internal/utils/logger"
)

func main() {
	log := logger.New(slog.LevelInfo)

	mux, addr, cleanup := initService(log)
	if mux == nil {
		os.Exit(1)
	}
	defer cleanup()

	log.LogAttrs(context.Background(),
		slog.LevelInfo,
		"starting gopher-points",
		slog.String("address", addr),
	)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.LogAttrs(context.Background(),
			slog.LevelError,
			"server stopped",
			slog.Any(model.KeyLoggerError, err),
		)
		os.Exit(1)
	}
}

func initService(log *slog.Logger) (*chi.Mux, string, func()) {
	cfg := config.NewBuilder(log).
		FromEnv().
		FromFlags().
		GetConfig()
	log = logger.New(logger.ParseLevel(cfg.LogLevel))

	const connectTO = 5 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), connectTO)
	defer cancel()
	dbManager := dbmanager.New(cfg.DatabaseURI, log).
		Connect(ctx).
		ApplyMigrations(ctx).
		Ping(ctx)
	if err := dbManager.Error(); err != nil {
		log.LogAttrs(context.Background(),
			slog.LevelError,
			"failed to start service: db connection error",
			slog.Any(model.KeyLoggerError, err),
		)
		return nil, "", nil
	}

	pool, err := dbManager.GetPool(ctx)
	if err != nil {
		log.LogAttrs(context.Background(),
			slog.LevelError,
			"failed to start service: failed to get DB pool",
			slog.Any(model.KeyLoggerError, err),
		)
		return nil, "", nil
	}

	loc := cfg.Location(log)

	usersRepo := repo.NewUserRepository(pool, log)
	activityRepo := repo.NewActivityRepository(pool, log)
	ledgerRepo := repo.NewLedgerRepository(pool, log)
	redemptionRepo := repo.NewRedemptionRepository(pool, log)
	boardRepo := repo.NewBoardRepository(pool, log)
	auditRepo := repo.NewAuditRepository(pool, log)

	processor := points.NewProcessor(activityRepo, usersRepo, ledgerRepo, loc, log)
	redemptions := redemption.New(redemptionRepo, usersRepo, log)
	boards := leaderboard.New(boardRepo, loc, cfg.LeaderboardSize, log)
	auditor := audit.New(auditRepo, log)

	rr := router.New(cfg, log)
	rr.SetRouter(&struct {
		*handlers.PointsHandler
		*handlers.RedemptionHandler
		*handlers.LeaderboardHandler
		*handlers.OperatorHandler
		*handlers.HealthHandler
	}{
		PointsHandler:      handlers.NewPointsHandler(processor),
		RedemptionHandler:  handlers.NewRedemptionHandler(redemptions),
		LeaderboardHandler: handlers.NewLeaderboardHandler(boards),
		OperatorHandler: handlers.NewOperatorHandler(
			processor, usersRepo, redemptions, activityRepo, auditor),
		HealthHandler: handlers.NewHealthHandler(dbManager),
	})

	return rr.GetRouter(), cfg.RunAddr, dbManager.Close
}
