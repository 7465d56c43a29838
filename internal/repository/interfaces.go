package repository

import (
	"context"
	"time"

	"synodvote/internal/models"
)

// OrgRepository covers the organization registry surface: people, elections,
// periods, ballot structure, memberships and roll overrides.
type OrgRepository interface {
	CreatePerson(ctx context.Context, fullName string) (int, error)
	GetPerson(ctx context.Context, id int) (*models.Person, error)

	CreateElection(ctx context.Context, e models.Election) (int, error)
	GetElection(ctx context.Context, id int) (*models.Election, error)
	UpdateElectionStatus(ctx context.Context, id int, status models.ElectionStatus) error

	CreateVotingPeriod(ctx context.Context, p models.VotingPeriod) (int, error)
	GetVotingPeriod(ctx context.Context, id int) (*models.VotingPeriod, error)
	UpdatePeriodStatus(ctx context.Context, id int, status models.PeriodStatus) error

	CreatePosition(ctx context.Context, p models.Position) (int, error)
	GetPosition(ctx context.Context, id int) (*models.Position, error)
	ListPositions(ctx context.Context, electionID int) ([]models.Position, error)

	CreateCandidate(ctx context.Context, c models.Candidate) (int, error)
	GetCandidate(ctx context.Context, id int) (*models.Candidate, error)
	ListCandidates(ctx context.Context, positionID int) ([]models.Candidate, error)

	CreateMembership(ctx context.Context, m models.FellowshipMembership) (int, error)
	ListActiveMemberships(ctx context.Context, personID, fellowshipID int) ([]models.FellowshipMembership, error)

	PutOverride(ctx context.Context, o models.VoterRollOverride) (int, error)
	GetOverride(ctx context.Context, electionID, personID int) (*models.VoterRollOverride, error)
}

// CodeRepository covers voting code persistence
type CodeRepository interface {
	InsertCode(ctx context.Context, c *models.VotingCode) (int, error)
	GetCode(ctx context.Context, id int) (*models.VotingCode, error)
	GetCodeByValue(ctx context.Context, code string) (*models.VotingCode, error)
	FindActiveCode(ctx context.Context, electionID, periodID, personID int) (*models.VotingCode, error)
	MarkCodeUsed(ctx context.Context, id int, usedAt time.Time) error
	RevokeCode(ctx context.Context, id int, revokedBy, reason string, at time.Time) error
	ExpireActiveCodes(ctx context.Context, electionID, periodID int, at time.Time) (int64, error)
}

// VoteRepository covers ballot persistence and counting
type VoteRepository interface {
	InsertVote(ctx context.Context, v *models.ElectionVote) (int, error)
	GetVote(ctx context.Context, id int) (*models.ElectionVote, error)
	FindCastVote(ctx context.Context, electionID, positionID, voterID int) (*models.ElectionVote, error)
	RevokeVote(ctx context.Context, id int, at time.Time) error
	ReplaceCastVote(ctx context.Context, v *models.ElectionVote) (int, error)
	TallyForPosition(ctx context.Context, electionID, positionID int) ([]CandidateTally, error)
	CountDistinctVoters(ctx context.Context, electionID, periodID int) (int, error)
}

// TallyRepository covers tally runs and their certified output
type TallyRepository interface {
	InsertTallyRun(ctx context.Context, run *models.TallyRun) error
	GetTallyRun(ctx context.Context, id string) (*models.TallyRun, error)
	GetLiveTallyRun(ctx context.Context, electionID, periodID int) (*models.TallyRun, error)
	CompleteCertification(ctx context.Context, runID, completedBy string, at time.Time, resultHash string,
		positions []models.CertifiedPositionResult, candidates []models.CertifiedCandidateResult, winners []models.WinnerAssignment) error
	FailTallyRun(ctx context.Context, runID, reason string) error
	RollbackTallyRun(ctx context.Context, runID string) error
	ListCertifiedPositionResults(ctx context.Context, runID string) ([]models.CertifiedPositionResult, error)
	ListCertifiedCandidateResults(ctx context.Context, runID string) ([]models.CertifiedCandidateResult, error)
	ListWinnerAssignments(ctx context.Context, runID string) ([]models.WinnerAssignment, error)
}

// FullRepository is the complete persistence surface
type FullRepository interface {
	OrgRepository
	CodeRepository
	VoteRepository
	TallyRepository

	Ping(ctx context.Context) error
	Close() error
}

var _ FullRepository = (*Repository)(nil)
