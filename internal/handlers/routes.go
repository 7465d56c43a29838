package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.handleHealth)

	// WebSocket
	r.Get("/ws", h.Hub.ServeWs)

	// Public voting API
	r.Get("/api/elections/{id}", h.handleGetElection)
	r.Get("/api/elections/{id}/ballot", h.handleGetBallot)
	r.Get("/api/codes/{code}/validate", h.handleValidateCode)
	r.Get("/api/codes/{code}/qr", h.handleCodeQR)
	r.Post("/api/ballots", h.handleCastBallot)
	r.Get("/api/elections/{id}/periods/{periodID}/results", h.handleGetCertifiedResults)

	// Administration API. Access control sits in front of this service;
	// routes under /api/admin are expected to be reverse-proxied behind it.
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/elections", h.handleCreateElection)
		r.Post("/elections/{id}/transition", h.handleTransitionElection)
		r.Post("/elections/{id}/positions", h.handleCreatePosition)
		r.Post("/elections/{id}/candidates", h.handleCreateCandidate)
		r.Post("/elections/{id}/periods", h.handleCreatePeriod)
		r.Post("/periods/{id}/{action}", h.handlePeriodAction)

		r.Post("/elections/{id}/overrides", h.handleSetOverride)
		r.Get("/elections/{id}/periods/{periodID}/eligibility/{personID}", h.handleResolveEligibility)

		r.Post("/codes", h.handleIssueCode)
		r.Post("/codes/{id}/revoke", h.handleRevokeCode)
		r.Post("/codes/regenerate", h.handleRegenerateCode)

		r.Post("/ballots/revoke", h.handleRevokeVote)
		r.Post("/ballots/recast", h.handleRecastVote)

		r.Get("/elections/{id}/positions/{positionID}/tally", h.handleGetTally)
		r.Get("/elections/{id}/positions/{positionID}/winner", h.handleGetWinner)
		r.Post("/elections/{id}/periods/{periodID}/certify", h.handleCertify)
		r.Post("/tally-runs/{runID}/rollback", h.handleRollback)
	})

	return r
}
