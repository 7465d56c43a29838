package handlers

import (
	"time"

	"synodvote/internal/models"
	"synodvote/internal/services"
)

// CreateElectionRequest is the payload for creating an election
type CreateElectionRequest struct {
	Name           string            `json:"name"`
	FellowshipID   int               `json:"fellowship_id"`
	Scope          models.ScopeLevel `json:"scope"`
	DioceseID      *int              `json:"diocese_id,omitempty"`
	ArchdeaconryID *int              `json:"archdeaconry_id,omitempty"`
	ChurchID       *int              `json:"church_id,omitempty"`
	TermStart      time.Time         `json:"term_start"`
	TermEnd        time.Time         `json:"term_end"`
	VotingStartsAt time.Time         `json:"voting_starts_at"`
	VotingEndsAt   time.Time         `json:"voting_ends_at"`
}

// TransitionRequest is the payload for a lifecycle status change
type TransitionRequest struct {
	Status string `json:"status"`
}

// CreatePositionRequest is the payload for adding a position
type CreatePositionRequest struct {
	Title string `json:"title"`
	Seats int    `json:"seats"`
}

// CreateCandidateRequest is the payload for adding a candidate
type CreateCandidateRequest struct {
	PositionID int `json:"position_id"`
	PersonID   int `json:"person_id"`
}

// CreatePeriodRequest is the payload for scheduling a voting period
type CreatePeriodRequest struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// OverrideRequest is the payload for a voter roll override
type OverrideRequest struct {
	PersonID  int    `json:"person_id"`
	Allow     bool   `json:"allow"`
	Reason    string `json:"reason"`
	CreatedBy string `json:"created_by"`
}

// IssueCodeRequest is the payload for issuing a voting code
type IssueCodeRequest struct {
	ElectionID int    `json:"election_id"`
	PeriodID   int    `json:"period_id"`
	PersonID   int    `json:"person_id"`
	IssuedBy   string `json:"issued_by"`
}

// RevokeCodeRequest is the payload for revoking a voting code
type RevokeCodeRequest struct {
	RevokedBy string `json:"revoked_by"`
	Reason    string `json:"reason"`
}

// RegenerateCodeRequest is the payload for replacing a voter's code
type RegenerateCodeRequest struct {
	ElectionID int    `json:"election_id"`
	PeriodID   int    `json:"period_id"`
	PersonID   int    `json:"person_id"`
	Actor      string `json:"actor"`
	Reason     string `json:"reason"`
}

// CastBallotRequest is the payload for submitting a ballot
type CastBallotRequest struct {
	Code       string               `json:"code"`
	Selections []services.Selection `json:"selections"`
	Source     string               `json:"source"`
}

// RevokeVoteRequest is the payload for withdrawing a cast vote
type RevokeVoteRequest struct {
	ElectionID int `json:"election_id"`
	PositionID int `json:"position_id"`
	VoterID    int `json:"voter_id"`
}

// RecastVoteRequest is the payload for replacing a cast vote
type RecastVoteRequest struct {
	ElectionID  int    `json:"election_id"`
	PeriodID    int    `json:"period_id"`
	PositionID  int    `json:"position_id"`
	VoterID     int    `json:"voter_id"`
	CandidateID int    `json:"candidate_id"`
	Source      string `json:"source"`
}

// CertifyRequest is the payload for starting certification
type CertifyRequest struct {
	StartedBy string `json:"started_by"`
}

// RollbackRequest is the payload for rolling back a certified run
type RollbackRequest struct {
	Actor string `json:"actor"`
}
