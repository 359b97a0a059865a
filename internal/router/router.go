package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/talx-hub/gopher-points/internal/api/middlewares"
	"github.com/talx-hub/gopher-points/internal/config"
)

type CustomRouter struct {
	router *chi.Mux
	logger *slog.Logger
	cfg    *config.Config
}

func New(cfg *config.Config, log *slog.Logger) *CustomRouter {
	router := &CustomRouter{
		router: chi.NewRouter(),
		logger: log,
		cfg:    cfg,
	}

	return router
}

type PointsHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
	GetActivities(w http.ResponseWriter, r *http.Request)
}

type RedemptionHandler interface {
	PostRedemption(w http.ResponseWriter, r *http.Request)
	GetRedemptions(w http.ResponseWriter, r *http.Request)
	CancelRedemption(w http.ResponseWriter, r *http.Request)
}

type LeaderboardHandler interface {
	GetLeaderboard(w http.ResponseWriter, r *http.Request)
	GetRank(w http.ResponseWriter, r *http.Request)
}

type OperatorHandler interface {
	PostAward(w http.ResponseWriter, r *http.Request)
	GetPendingRedemptions(w http.ResponseWriter, r *http.Request)
	ApproveRedemption(w http.ResponseWriter, r *http.Request)
	RejectRedemption(w http.ResponseWriter, r *http.Request)
	PutActivity(w http.ResponseWriter, r *http.Request)
	GetAudit(w http.ResponseWriter, r *http.Request)
	PostAuditRepair(w http.ResponseWriter, r *http.Request)
}

type HealthHandler interface {
	Ping(w http.ResponseWriter, r *http.Request)
}

type Handler interface {
	PointsHandler
	RedemptionHandler
	LeaderboardHandler
	OperatorHandler
	HealthHandler
}

func (cr *CustomRouter) SetRouter(h Handler) {
	secret := []byte(nil)
	if cr.cfg != nil {
		secret = []byte(cr.cfg.SecretKey)
	}
	log := cr.logger
	if log == nil {
		log = slog.Default()
	}

	cr.router.Route("/api/user", func(r chi.Router) {
		r.Use(middlewares.Authentication(secret, log))

		r.Get("/balance", h.GetBalance)
		r.Get("/transactions", h.GetTransactions)
		r.Get("/activities", h.GetActivities)
		r.Get("/rank", h.GetRank)

		r.Route("/redemptions", func(r chi.Router) {
			r.With(middleware.AllowContentType("application/json")).
				Post("/", h.PostRedemption)
			r.Get("/", h.GetRedemptions)
			r.Post("/{id}/cancel", h.CancelRedemption)
		})
	})

	cr.router.Get("/api/leaderboard/{window}", h.GetLeaderboard)

	cr.router.Route("/api/operator", func(r chi.Router) {
		r.Use(middlewares.Authentication(secret, log))
		r.Use(middlewares.RequireOperator(log))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/award", h.PostAward)
			r.Put("/activities", h.PutActivity)
			r.Post("/redemptions/{id}/approve", h.ApproveRedemption)
			r.Post("/redemptions/{id}/reject", h.RejectRedemption)
			r.Post("/audit/repair", h.PostAuditRepair)
		})
		r.Get("/redemptions", h.GetPendingRedemptions)
		r.Get("/audit", h.GetAudit)
	})

	cr.router.Get("/ping", h.Ping)

	cr.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w,
			http.StatusText(http.StatusMethodNotAllowed),
			http.StatusMethodNotAllowed)
	})
}

func (cr *CustomRouter) GetRouter() *chi.Mux {
	return cr.router
}
