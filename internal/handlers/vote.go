package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleGetElection returns an election
func (h *Handlers) handleGetElection(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	election, err := h.Election.GetElection(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, election)
}

// handleGetBallot returns an election's positions and candidates
func (h *Handlers) handleGetBallot(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	positions, candidates, err := h.Election.ListBallot(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{
		"positions":  positions,
		"candidates": candidates,
	})
}

// handleValidateCode checks a presented voting code
func (h *Handlers) handleValidateCode(w http.ResponseWriter, r *http.Request) {
	value := chi.URLParam(r, "code")
	code, err := h.Codes.Validate(r.Context(), value)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{
		"valid":       true,
		"election_id": code.ElectionID,
		"period_id":   code.PeriodID,
	})
}

// handleCodeQR serves a voting code's QR image
func (h *Handlers) handleCodeQR(w http.ResponseWriter, r *http.Request) {
	value := chi.URLParam(r, "code")
	size := 256
	if s := r.URL.Query().Get("size"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			size = parsed
		}
	}
	png, err := h.Codes.CodeQRImage(r.Context(), value, size)
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// handleCastBallot accepts a ballot submission
func (h *Handlers) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	var req CastBallotRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if req.Code == "" {
		h.respondError(w, BadRequest("Missing voting code"))
		return
	}
	if req.Source == "" {
		req.Source = "web"
	}
	votes, err := h.Ballots.CastBallot(r.Context(), req.Code, req.Selections, req.Source)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, map[string]interface{}{
		"status": "accepted",
		"votes":  votes,
	})
}

// handleGetTally returns the live count for a position
func (h *Handlers) handleGetTally(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	positionID, err := parseIntParam(r, "positionID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	tally, err := h.Tally.TallyPosition(r.Context(), electionID, positionID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, tally)
}

// handleGetWinner returns the winner determination for a position
func (h *Handlers) handleGetWinner(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	positionID, err := parseIntParam(r, "positionID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	outcome, err := h.Tally.DetermineWinner(r.Context(), electionID, positionID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, outcome)
}

// handleGetCertifiedResults returns the certified result for a period
func (h *Handlers) handleGetCertifiedResults(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	periodID, err := parseIntParam(r, "periodID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.Tally.GetCertifiedResult(r.Context(), electionID, periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, result)
}
