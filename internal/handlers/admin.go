package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"synodvote/internal/models"
)

// handleCreateElection creates a DRAFT election
func (h *Handlers) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	var req CreateElectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	election, err := h.Election.CreateElection(r.Context(), models.Election{
		Name:           req.Name,
		FellowshipID:   req.FellowshipID,
		Scope:          req.Scope,
		DioceseID:      req.DioceseID,
		ArchdeaconryID: req.ArchdeaconryID,
		ChurchID:       req.ChurchID,
		TermStart:      req.TermStart,
		TermEnd:        req.TermEnd,
		VotingStartsAt: req.VotingStartsAt,
		VotingEndsAt:   req.VotingEndsAt,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, election)
}

// handleTransitionElection moves an election along its lifecycle
func (h *Handlers) handleTransitionElection(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	election, err := h.Election.TransitionElection(r.Context(), id, models.ElectionStatus(req.Status))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, election)
}

// handleCreatePosition adds a position to an election's ballot
func (h *Handlers) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req CreatePositionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	position, err := h.Election.AddPosition(r.Context(), models.Position{
		ElectionID: id,
		Title:      req.Title,
		Seats:      req.Seats,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, position)
}

// handleCreateCandidate places a person on the ballot
func (h *Handlers) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req CreateCandidateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	candidate, err := h.Election.AddCandidate(r.Context(), models.Candidate{
		ElectionID: id,
		PositionID: req.PositionID,
		PersonID:   req.PersonID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, candidate)
}

// handleCreatePeriod schedules a voting period
func (h *Handlers) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req CreatePeriodRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	period, err := h.Election.SchedulePeriod(r.Context(), models.VotingPeriod{
		ElectionID: id,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, period)
}

// handlePeriodAction opens, closes or cancels a period
func (h *Handlers) handlePeriodAction(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var period *models.VotingPeriod
	switch chi.URLParam(r, "action") {
	case "open":
		period, err = h.Election.OpenPeriod(r.Context(), id)
	case "close":
		period, err = h.Election.ClosePeriod(r.Context(), id)
	case "cancel":
		period, err = h.Election.CancelPeriod(r.Context(), id)
	default:
		h.respondError(w, BadRequest("Unknown period action"))
		return
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, period)
}

// handleSetOverride records a voter roll override
func (h *Handlers) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req OverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Eligibility.SetOverride(r.Context(), models.VoterRollOverride{
		ElectionID: id,
		PersonID:   req.PersonID,
		Allow:      req.Allow,
		Reason:     req.Reason,
		CreatedBy:  req.CreatedBy,
	}); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "override recorded")
}

// handleResolveEligibility explains a person's eligibility decision
func (h *Handlers) handleResolveEligibility(w http.ResponseWriter, r *http.Request) {
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
	personID, err := parseIntParam(r, "personID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	decision, err := h.Eligibility.Resolve(r.Context(), electionID, periodID, personID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, decision)
}

// handleIssueCode issues a voting code to an eligible voter
func (h *Handlers) handleIssueCode(w http.ResponseWriter, r *http.Request) {
	var req IssueCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	code, err := h.Codes.Issue(r.Context(), req.ElectionID, req.PeriodID, req.PersonID, req.IssuedBy)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, code)
}

// handleRevokeCode invalidates a voting code
func (h *Handlers) handleRevokeCode(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req RevokeCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Codes.Revoke(r.Context(), id, req.RevokedBy, req.Reason); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "code revoked")
}

// handleRegenerateCode replaces a voter's active code
func (h *Handlers) handleRegenerateCode(w http.ResponseWriter, r *http.Request) {
	var req RegenerateCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	code, err := h.Codes.Regenerate(r.Context(), req.ElectionID, req.PeriodID, req.PersonID, req.Actor, req.Reason)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, code)
}

// handleRevokeVote withdraws a voter's cast ballot for a position
func (h *Handlers) handleRevokeVote(w http.ResponseWriter, r *http.Request) {
	var req RevokeVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Ballots.RevokeVote(r.Context(), req.ElectionID, req.PositionID, req.VoterID); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "vote revoked")
}

// handleRecastVote replaces a voter's selection for a position
func (h *Handlers) handleRecastVote(w http.ResponseWriter, r *http.Request) {
	var req RecastVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	vote, err := h.Ballots.RecastVote(r.Context(),
		req.ElectionID, req.PeriodID, req.PositionID, req.VoterID, req.CandidateID, req.Source)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, vote)
}

// handleCertify counts and certifies a period's results
func (h *Handlers) handleCertify(w http.ResponseWriter, r *http.Request) {
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
	var req CertifyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.Tally.Certify(r.Context(), electionID, periodID, req.StartedBy)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, result)
}

// handleRollback voids a certified run
func (h *Handlers) handleRollback(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	var req RollbackRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Tally.Rollback(r.Context(), runID, req.Actor); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "certification rolled back")
}
