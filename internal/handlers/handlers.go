package handlers

import (
	"net/http"

	"synodvote/internal/logger"
	"synodvote/internal/services"
	"synodvote/internal/websocket"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Election    services.ElectionServicer
	Eligibility services.EligibilityServicer
	Codes       services.CodeServicer
	Ballots     services.BallotServicer
	Tally       services.TallyServicer
	Hub         *websocket.Hub
	Log         logger.Logger
}

// New creates a new Handlers instance with all dependencies
func New(
	log logger.Logger,
	election services.ElectionServicer,
	eligibility services.EligibilityServicer,
	codes services.CodeServicer,
	ballots services.BallotServicer,
	tally services.TallyServicer,
	hub *websocket.Hub,
) *Handlers {
	return &Handlers{
		Election:    election,
		Eligibility: eligibility,
		Codes:       codes,
		Ballots:     ballots,
		Tally:       tally,
		Hub:         hub,
		Log:         log,
	}
}

// handleHealth reports service liveness
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]string{"status": "ok"})
}
