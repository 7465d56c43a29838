package services

import (
	"context"
	stderrors "errors"
	"time"

	"synodvote/internal/locking"
	"synodvote/internal/logger"
	"synodvote/internal/models"
	"synodvote/internal/repository"
)

// Broadcaster defines the interface for broadcasting events to clients
type Broadcaster interface {
	BroadcastBallotActivity(electionID, positionID int)
	BroadcastVotingStatus(electionID int, open bool)
}

// BallotServiceRepository defines the repository methods needed by BallotService
type BallotServiceRepository interface {
	repository.VoteRepository
	GetElection(ctx context.Context, id int) (*models.Election, error)
	GetVotingPeriod(ctx context.Context, id int) (*models.VotingPeriod, error)
	GetPosition(ctx context.Context, id int) (*models.Position, error)
	GetCandidate(ctx context.Context, id int) (*models.Candidate, error)
}

// BallotService accepts, revokes and recasts ballots. Each write holds the
// ballot lock for its (election, position, voter) triple, and the CAST
// uniqueness index catches anything that slips past it.
type BallotService struct {
	log         logger.Logger
	repo        BallotServiceRepository
	codes       CodeServicer
	eligibility EligibilityServicer
	locks       *locking.KeyMutex
	broadcaster Broadcaster
}

// NewBallotService creates a new BallotService
func NewBallotService(log logger.Logger, repo BallotServiceRepository, codes CodeServicer, eligibility EligibilityServicer, locks *locking.KeyMutex) *BallotService {
	return &BallotService{log: log, repo: repo, codes: codes, eligibility: eligibility, locks: locks}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *BallotService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Selection is one position choice on a submitted ballot
type Selection struct {
	PositionID  int `json:"position_id"`
	CandidateID int `json:"candidate_id"`
}

// CastBallot accepts a voter's selections against a presented voting code.
// The code must be ACTIVE in an OPEN period of a VOTING_OPEN election, the
// voter must be eligible, every candidate must belong to its position, and
// the voter must not already hold a CAST ballot for any selected position.
// On success the code is consumed.
func (s *BallotService) CastBallot(ctx context.Context, codeValue string, selections []Selection, source string) ([]models.ElectionVote, error) {
	if len(selections) == 0 {
		return nil, &ServiceError{Message: "ballot has no selections"}
	}

	code, err := s.codes.Validate(ctx, codeValue)
	if err != nil {
		return nil, err
	}
	election, err := s.repo.GetElection(ctx, code.ElectionID)
	if err != nil {
		return nil, err
	}
	if election.Status != models.ElectionVotingOpen {
		return nil, ErrVotingClosed
	}
	if err := s.eligibility.CheckEligible(ctx, code.ElectionID, code.PeriodID, code.PersonID); err != nil {
		return nil, err
	}

	var votes []models.ElectionVote
	for _, sel := range selections {
		vote, err := s.castOne(ctx, election, code.PeriodID, code.PersonID, sel, source)
		if err != nil {
			return nil, err
		}
		votes = append(votes, *vote)
	}

	if err := s.codes.MarkUsed(ctx, code.ID); err != nil {
		return nil, err
	}
	s.log.Info("ballot cast",
		"election_id", code.ElectionID, "period_id", code.PeriodID, "voter_id", code.PersonID, "selections", len(selections))
	if s.broadcaster != nil {
		for _, sel := range selections {
			s.broadcaster.BroadcastBallotActivity(code.ElectionID, sel.PositionID)
		}
	}
	return votes, nil
}

func (s *BallotService) castOne(ctx context.Context, election *models.Election, periodID, voterID int, sel Selection, source string) (*models.ElectionVote, error) {
	if err := s.checkSelection(ctx, election.ID, sel); err != nil {
		return nil, err
	}

	release := s.locks.Lock(locking.BallotKey(election.ID, sel.PositionID, voterID))
	defer release()

	if _, err := s.repo.FindCastVote(ctx, election.ID, sel.PositionID, voterID); err == nil {
		return nil, ErrDuplicateVote
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	vote := &models.ElectionVote{
		ElectionID:  election.ID,
		PeriodID:    periodID,
		PositionID:  sel.PositionID,
		CandidateID: sel.CandidateID,
		VoterID:     voterID,
		Status:      models.VoteCast,
		CastAt:      time.Now(),
		Source:      source,
	}
	id, err := s.repo.InsertVote(ctx, vote)
	if stderrors.Is(err, repository.ErrDuplicate) {
		return nil, ErrDuplicateVote
	}
	if err != nil {
		return nil, err
	}
	vote.ID = id
	return vote, nil
}

// RevokeVote withdraws a voter's CAST ballot for a position. The row stays
// in place as REVOKED; only a CAST row can be revoked.
func (s *BallotService) RevokeVote(ctx context.Context, electionID, positionID, voterID int) error {
	election, err := s.repo.GetElection(ctx, electionID)
	if err != nil {
		return err
	}
	if election.Status != models.ElectionVotingOpen {
		return ErrVotingClosed
	}

	release := s.locks.Lock(locking.BallotKey(electionID, positionID, voterID))
	defer release()

	vote, err := s.repo.FindCastVote(ctx, electionID, positionID, voterID)
	if err != nil {
		return err
	}
	if err := s.repo.RevokeVote(ctx, vote.ID, time.Now()); err != nil {
		if stderrors.Is(err, repository.ErrStale) {
			return repository.ErrNotFound
		}
		return err
	}
	s.log.Info("vote revoked", "election_id", electionID, "position_id", positionID, "voter_id", voterID)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastBallotActivity(electionID, positionID)
	}
	return nil
}

// RecastVote atomically replaces a voter's selection for a position. The
// previous CAST row, if any, becomes REVOKED and the new row is inserted in
// the same transaction, so the one-CAST-row invariant holds at every commit.
func (s *BallotService) RecastVote(ctx context.Context, electionID, periodID, positionID, voterID, candidateID int, source string) (*models.ElectionVote, error) {
	election, err := s.repo.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election.Status != models.ElectionVotingOpen {
		return nil, ErrVotingClosed
	}
	period, err := s.repo.GetVotingPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.ElectionID != electionID {
		return nil, &ServiceError{Message: "voting period does not belong to this election"}
	}
	if period.Status != models.PeriodOpen {
		return nil, ErrPeriodNotOpen
	}
	if err := s.eligibility.CheckEligible(ctx, electionID, periodID, voterID); err != nil {
		return nil, err
	}
	if err := s.checkSelection(ctx, electionID, Selection{PositionID: positionID, CandidateID: candidateID}); err != nil {
		return nil, err
	}

	release := s.locks.Lock(locking.BallotKey(electionID, positionID, voterID))
	defer release()

	vote := &models.ElectionVote{
		ElectionID:  electionID,
		PeriodID:    periodID,
		PositionID:  positionID,
		CandidateID: candidateID,
		VoterID:     voterID,
		Status:      models.VoteCast,
		CastAt:      time.Now(),
		Source:      source,
	}
	id, err := s.repo.ReplaceCastVote(ctx, vote)
	if stderrors.Is(err, repository.ErrDuplicate) {
		return nil, ErrDuplicateVote
	}
	if err != nil {
		return nil, err
	}
	vote.ID = id
	s.log.Info("vote recast", "election_id", electionID, "position_id", positionID, "voter_id", voterID)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastBallotActivity(electionID, positionID)
	}
	return vote, nil
}

// checkSelection verifies the position and candidate belong to the election
// and to each other.
func (s *BallotService) checkSelection(ctx context.Context, electionID int, sel Selection) error {
	position, err := s.repo.GetPosition(ctx, sel.PositionID)
	if err != nil {
		return err
	}
	if position.ElectionID != electionID {
		return &ServiceError{Message: "position does not belong to this election"}
	}
	candidate, err := s.repo.GetCandidate(ctx, sel.CandidateID)
	if err != nil {
		return err
	}
	if candidate.ElectionID != electionID || candidate.PositionID != sel.PositionID {
		return ErrCandidateMismatch
	}
	return nil
}
