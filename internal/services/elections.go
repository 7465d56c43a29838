package services

import (
	"context"
	stderrors "errors"

	"synodvote/internal/logger"
	"synodvote/internal/models"
	"synodvote/internal/repository"
)

// ElectionServiceRepository defines the repository methods needed by ElectionService
type ElectionServiceRepository interface {
	CreateElection(ctx context.Context, e models.Election) (int, error)
	GetElection(ctx context.Context, id int) (*models.Election, error)
	UpdateElectionStatus(ctx context.Context, id int, status models.ElectionStatus) error
	CreateVotingPeriod(ctx context.Context, p models.VotingPeriod) (int, error)
	GetVotingPeriod(ctx context.Context, id int) (*models.VotingPeriod, error)
	UpdatePeriodStatus(ctx context.Context, id int, status models.PeriodStatus) error
	CreatePosition(ctx context.Context, p models.Position) (int, error)
	ListPositions(ctx context.Context, electionID int) ([]models.Position, error)
	CreateCandidate(ctx context.Context, c models.Candidate) (int, error)
	GetPerson(ctx context.Context, id int) (*models.Person, error)
	GetPosition(ctx context.Context, id int) (*models.Position, error)
	ListCandidates(ctx context.Context, positionID int) ([]models.Candidate, error)
}

// ElectionService manages election setup and lifecycle transitions
type ElectionService struct {
	log         logger.Logger
	repo        ElectionServiceRepository
	codes       CodeServicer
	broadcaster Broadcaster
}

// NewElectionService creates a new ElectionService
func NewElectionService(log logger.Logger, repo ElectionServiceRepository, codes CodeServicer) *ElectionService {
	return &ElectionService{log: log, repo: repo, codes: codes}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *ElectionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateElection creates a DRAFT election after validating its scope target
func (s *ElectionService) CreateElection(ctx context.Context, e models.Election) (*models.Election, error) {
	if e.Name == "" {
		return nil, &ServiceError{Message: "election name is required"}
	}
	switch e.Scope {
	case models.ScopeDiocese:
		if e.DioceseID == nil {
			return nil, &ServiceError{Message: "diocese-scoped election requires a diocese"}
		}
	case models.ScopeArchdeaconry:
		if e.ArchdeaconryID == nil {
			return nil, &ServiceError{Message: "archdeaconry-scoped election requires an archdeaconry"}
		}
	case models.ScopeChurch:
		if e.ChurchID == nil {
			return nil, &ServiceError{Message: "church-scoped election requires a church"}
		}
	default:
		return nil, &ServiceError{Message: "unknown election scope"}
	}
	if !e.TermEnd.After(e.TermStart) {
		return nil, &ServiceError{Message: "term end must be after term start"}
	}

	e.Status = models.ElectionDraft
	id, err := s.repo.CreateElection(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	s.log.Info("election created", "election_id", id, "name", e.Name, "scope", e.Scope)
	return &e, nil
}

// GetElection retrieves an election
func (s *ElectionService) GetElection(ctx context.Context, id int) (*models.Election, error) {
	return s.repo.GetElection(ctx, id)
}

// TransitionElection moves an election along its lifecycle. Invalid moves
// are rejected before anything is written.
func (s *ElectionService) TransitionElection(ctx context.Context, id int, to models.ElectionStatus) (*models.Election, error) {
	election, err := s.repo.GetElection(ctx, id)
	if err != nil {
		return nil, err
	}
	if !election.Status.CanTransition(to) {
		return nil, &InvalidTransitionError{Entity: "election", From: string(election.Status), To: string(to)}
	}
	if err := s.repo.UpdateElectionStatus(ctx, id, to); err != nil {
		return nil, err
	}
	s.log.Info("election transitioned", "election_id", id, "from", election.Status, "to", to)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastVotingStatus(id, to == models.ElectionVotingOpen)
	}
	election.Status = to
	return election, nil
}

// AddPosition adds an elected office to an election's ballot. Only allowed
// before voting opens.
func (s *ElectionService) AddPosition(ctx context.Context, p models.Position) (*models.Position, error) {
	if p.Title == "" {
		return nil, &ServiceError{Message: "position title is required"}
	}
	if p.Seats <= 0 {
		p.Seats = 1
	}
	election, err := s.repo.GetElection(ctx, p.ElectionID)
	if err != nil {
		return nil, err
	}
	if election.Status != models.ElectionDraft && election.Status != models.ElectionNominationOpen {
		return nil, &ServiceError{Message: "ballot structure is frozen after nominations close"}
	}
	id, err := s.repo.CreatePosition(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// AddCandidate places an approved person on the ballot for a position
func (s *ElectionService) AddCandidate(ctx context.Context, c models.Candidate) (*models.Candidate, error) {
	election, err := s.repo.GetElection(ctx, c.ElectionID)
	if err != nil {
		return nil, err
	}
	if election.Status != models.ElectionNominationOpen {
		return nil, &ServiceError{Message: "candidates may only be added while nominations are open"}
	}
	position, err := s.repo.GetPosition(ctx, c.PositionID)
	if err != nil {
		return nil, err
	}
	if position.ElectionID != c.ElectionID {
		return nil, &ServiceError{Message: "position does not belong to this election"}
	}
	person, err := s.repo.GetPerson(ctx, c.PersonID)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.CreateCandidate(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	c.FullName = person.FullName
	return &c, nil
}

// ListBallot returns an election's positions with their candidates
func (s *ElectionService) ListBallot(ctx context.Context, electionID int) ([]models.Position, map[int][]models.Candidate, error) {
	positions, err := s.repo.ListPositions(ctx, electionID)
	if err != nil {
		return nil, nil, err
	}
	candidates := make(map[int][]models.Candidate, len(positions))
	for _, p := range positions {
		list, err := s.repo.ListCandidates(ctx, p.ID)
		if err != nil {
			return nil, nil, err
		}
		candidates[p.ID] = list
	}
	return positions, candidates, nil
}

// SchedulePeriod creates a SCHEDULED voting period for an election
func (s *ElectionService) SchedulePeriod(ctx context.Context, p models.VotingPeriod) (*models.VotingPeriod, error) {
	if !p.EndsAt.After(p.StartsAt) {
		return nil, &ServiceError{Message: "period end must be after period start"}
	}
	if _, err := s.repo.GetElection(ctx, p.ElectionID); err != nil {
		return nil, err
	}
	p.Status = models.PeriodScheduled
	id, err := s.repo.CreateVotingPeriod(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// OpenPeriod opens a SCHEDULED period. The one-open-period index rejects a
// second OPEN period for the same election.
func (s *ElectionService) OpenPeriod(ctx context.Context, periodID int) (*models.VotingPeriod, error) {
	return s.transitionPeriod(ctx, periodID, models.PeriodOpen)
}

// ClosePeriod closes an OPEN period and expires its remaining ACTIVE codes
func (s *ElectionService) ClosePeriod(ctx context.Context, periodID int) (*models.VotingPeriod, error) {
	period, err := s.transitionPeriod(ctx, periodID, models.PeriodClosed)
	if err != nil {
		return nil, err
	}
	if _, err := s.codes.ExpireForPeriod(ctx, period.ElectionID, period.ID); err != nil {
		return nil, err
	}
	return period, nil
}

// CancelPeriod cancels a SCHEDULED period and expires any codes already
// distributed for it
func (s *ElectionService) CancelPeriod(ctx context.Context, periodID int) (*models.VotingPeriod, error) {
	period, err := s.transitionPeriod(ctx, periodID, models.PeriodCancelled)
	if err != nil {
		return nil, err
	}
	if _, err := s.codes.ExpireForPeriod(ctx, period.ElectionID, period.ID); err != nil {
		return nil, err
	}
	return period, nil
}

func (s *ElectionService) transitionPeriod(ctx context.Context, periodID int, to models.PeriodStatus) (*models.VotingPeriod, error) {
	period, err := s.repo.GetVotingPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if !period.Status.CanTransition(to) {
		return nil, &InvalidTransitionError{Entity: "voting period", From: string(period.Status), To: string(to)}
	}
	if err := s.repo.UpdatePeriodStatus(ctx, periodID, to); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, &ServiceError{Message: "another voting period is already open for this election"}
		}
		return nil, err
	}
	s.log.Info("voting period transitioned", "period_id", periodID, "from", period.Status, "to", to)
	period.Status = to
	return period, nil
}
