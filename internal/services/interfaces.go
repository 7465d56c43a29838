package services

import (
	"context"

	"synodvote/internal/models"
)

// EligibilityServicer defines the interface for eligibility operations
type EligibilityServicer interface {
	Resolve(ctx context.Context, electionID, periodID, personID int) (*Decision, error)
	CheckEligible(ctx context.Context, electionID, periodID, personID int) error
	SetOverride(ctx context.Context, o models.VoterRollOverride) error
}

// CodeServicer defines the interface for voting code operations
type CodeServicer interface {
	Issue(ctx context.Context, electionID, periodID, personID int, issuedBy string) (*models.VotingCode, error)
	Validate(ctx context.Context, value string) (*models.VotingCode, error)
	MarkUsed(ctx context.Context, codeID int) error
	Revoke(ctx context.Context, codeID int, revokedBy, reason string) error
	Regenerate(ctx context.Context, electionID, periodID, personID int, actor, reason string) (*models.VotingCode, error)
	ExpireForPeriod(ctx context.Context, electionID, periodID int) (int64, error)
	CodeQRImage(ctx context.Context, value string, size int) ([]byte, error)
}

// BallotServicer defines the interface for ballot operations
type BallotServicer interface {
	CastBallot(ctx context.Context, codeValue string, selections []Selection, source string) ([]models.ElectionVote, error)
	RevokeVote(ctx context.Context, electionID, positionID, voterID int) error
	RecastVote(ctx context.Context, electionID, periodID, positionID, voterID, candidateID int, source string) (*models.ElectionVote, error)
	SetBroadcaster(b Broadcaster)
}

// TallyServicer defines the interface for tally and certification operations
type TallyServicer interface {
	TallyPosition(ctx context.Context, electionID, positionID int) (*PositionTally, error)
	DetermineWinner(ctx context.Context, electionID, positionID int) (*PositionOutcome, error)
	Certify(ctx context.Context, electionID, periodID int, startedBy string) (*CertificationResult, error)
	Rollback(ctx context.Context, runID, actor string) error
	GetCertifiedResult(ctx context.Context, electionID, periodID int) (*CertificationResult, error)
}

// ElectionServicer defines the interface for election lifecycle operations
type ElectionServicer interface {
	CreateElection(ctx context.Context, e models.Election) (*models.Election, error)
	GetElection(ctx context.Context, id int) (*models.Election, error)
	TransitionElection(ctx context.Context, id int, to models.ElectionStatus) (*models.Election, error)
	AddPosition(ctx context.Context, p models.Position) (*models.Position, error)
	AddCandidate(ctx context.Context, c models.Candidate) (*models.Candidate, error)
	ListBallot(ctx context.Context, electionID int) ([]models.Position, map[int][]models.Candidate, error)
	SchedulePeriod(ctx context.Context, p models.VotingPeriod) (*models.VotingPeriod, error)
	OpenPeriod(ctx context.Context, periodID int) (*models.VotingPeriod, error)
	ClosePeriod(ctx context.Context, periodID int) (*models.VotingPeriod, error)
	CancelPeriod(ctx context.Context, periodID int) (*models.VotingPeriod, error)
	SetBroadcaster(b Broadcaster)
}

var (
	_ EligibilityServicer = (*EligibilityService)(nil)
	_ CodeServicer        = (*CodeService)(nil)
	_ BallotServicer      = (*BallotService)(nil)
	_ TallyServicer       = (*TallyService)(nil)
	_ ElectionServicer    = (*ElectionService)(nil)
)
