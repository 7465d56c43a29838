package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"synodvote/internal/locking"
	"synodvote/internal/logger"
	"synodvote/internal/models"
	"synodvote/internal/repository"
)

// TallyServiceRepository defines the repository methods needed by TallyService
type TallyServiceRepository interface {
	repository.TallyRepository
	GetElection(ctx context.Context, id int) (*models.Election, error)
	GetVotingPeriod(ctx context.Context, id int) (*models.VotingPeriod, error)
	GetPosition(ctx context.Context, id int) (*models.Position, error)
	ListPositions(ctx context.Context, electionID int) ([]models.Position, error)
	UpdateElectionStatus(ctx context.Context, id int, status models.ElectionStatus) error
	TallyForPosition(ctx context.Context, electionID, positionID int) ([]repository.CandidateTally, error)
	CountDistinctVoters(ctx context.Context, electionID, periodID int) (int, error)
}

// TallyService counts ballots and certifies results. Certification is
// serialized per (election, period) by the tally lock and by the live-run
// uniqueness index; a completed run is immutable until rolled back.
type TallyService struct {
	log   logger.Logger
	repo  TallyServiceRepository
	locks *locking.KeyMutex
}

// NewTallyService creates a new TallyService
func NewTallyService(log logger.Logger, repo TallyServiceRepository, locks *locking.KeyMutex) *TallyService {
	return &TallyService{log: log, repo: repo, locks: locks}
}

// CandidateCount is one candidate's standing in a position tally
type CandidateCount struct {
	CandidateID int     `json:"candidate_id"`
	PersonID    int     `json:"person_id"`
	FullName    string  `json:"full_name"`
	Votes       int     `json:"votes"`
	Share       float64 `json:"share"`
	Rank        int     `json:"rank"`
	Winner      bool    `json:"winner"`
}

// PositionTally is the live count for one position
type PositionTally struct {
	PositionID   int              `json:"position_id"`
	Title        string           `json:"title"`
	TotalBallots int              `json:"total_ballots"`
	Tie          bool             `json:"tie"`
	Candidates   []CandidateCount `json:"candidates"`
}

// PositionOutcome is the winner determination for one position
type PositionOutcome struct {
	PositionID int              `json:"position_id"`
	Winner     *CandidateCount  `json:"winner,omitempty"`
	Tie        bool             `json:"tie"`
	Tied       []CandidateCount `json:"tied,omitempty"`
}

// CertificationResult is the output of a completed certification
type CertificationResult struct {
	Run        *models.TallyRun                  `json:"run"`
	Positions  []models.CertifiedPositionResult  `json:"positions"`
	Candidates []models.CertifiedCandidateResult `json:"candidates"`
	Winners    []models.WinnerAssignment         `json:"winners"`
}

// TallyPosition computes the live standing for a position. REVOKED ballots
// never count; candidates tied on votes share a rank.
func (s *TallyService) TallyPosition(ctx context.Context, electionID, positionID int) (*PositionTally, error) {
	position, err := s.getElectionPosition(ctx, electionID, positionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.TallyForPosition(ctx, electionID, positionID)
	if err != nil {
		return nil, err
	}
	return buildPositionTally(position, rows), nil
}

// DetermineWinner resolves the winner for a position from the current
// counts. A zero-ballot position returns ErrNoVotesCast; a tie for first
// place is surfaced, never broken arbitrarily.
func (s *TallyService) DetermineWinner(ctx context.Context, electionID, positionID int) (*PositionOutcome, error) {
	tally, err := s.TallyPosition(ctx, electionID, positionID)
	if err != nil {
		return nil, err
	}
	return outcomeFromTally(tally)
}

// Certify runs the full count for a period and persists it as the certified
// result. Exactly one live run may exist per (election, period): a second
// call after success returns ErrAlreadyCertified, a call racing a pending
// run returns ErrConcurrencyConflict. After a rollback a fresh run may
// certify again.
func (s *TallyService) Certify(ctx context.Context, electionID, periodID int, startedBy string) (*CertificationResult, error) {
	election, err := s.repo.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election.Status != models.ElectionVotingClosed {
		return nil, &InvalidTransitionError{Entity: "election", From: string(election.Status), To: string(models.ElectionTallied)}
	}
	period, err := s.repo.GetVotingPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.ElectionID != electionID {
		return nil, &ServiceError{Message: "voting period does not belong to this election"}
	}
	if period.Status != models.PeriodClosed {
		return nil, &ServiceError{Message: "voting period must be closed before certification"}
	}

	release := s.locks.Lock(locking.TallyKey(electionID, periodID))
	defer release()

	if live, err := s.repo.GetLiveTallyRun(ctx, electionID, periodID); err == nil {
		if live.Status == models.TallyCompleted {
			return nil, ErrAlreadyCertified
		}
		return nil, ErrConcurrencyConflict
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	run := &models.TallyRun{
		ID:         uuid.NewString(),
		ElectionID: electionID,
		PeriodID:   periodID,
		Status:     models.TallyPending,
		StartedBy:  startedBy,
		StartedAt:  time.Now(),
	}
	if err := s.repo.InsertTallyRun(ctx, run); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}

	result, err := s.certifyRun(ctx, run, election)
	if err != nil {
		if failErr := s.repo.FailTallyRun(ctx, run.ID, err.Error()); failErr != nil {
			s.log.Error("failed to mark tally run failed", "run_id", run.ID, "error", failErr)
		}
		return nil, err
	}
	return result, nil
}

func (s *TallyService) certifyRun(ctx context.Context, run *models.TallyRun, election *models.Election) (*CertificationResult, error) {
	positions, err := s.repo.ListPositions(ctx, election.ID)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, &ServiceError{Message: "election has no positions to certify"}
	}
	turnout, err := s.repo.CountDistinctVoters(ctx, election.ID, run.PeriodID)
	if err != nil {
		return nil, err
	}

	var (
		certPositions  []models.CertifiedPositionResult
		certCandidates []models.CertifiedCandidateResult
		winners        []models.WinnerAssignment
	)
	for _, position := range positions {
		rows, err := s.repo.TallyForPosition(ctx, election.ID, position.ID)
		if err != nil {
			return nil, err
		}
		tally := buildPositionTally(&position, rows)

		certPositions = append(certPositions, models.CertifiedPositionResult{
			TallyRunID:   run.ID,
			PositionID:   position.ID,
			TotalBallots: tally.TotalBallots,
			Turnout:      turnout,
			Tie:          tally.Tie,
		})
		for _, c := range tally.Candidates {
			certCandidates = append(certCandidates, models.CertifiedCandidateResult{
				TallyRunID:  run.ID,
				PositionID:  position.ID,
				CandidateID: c.CandidateID,
				Votes:       c.Votes,
				Share:       c.Share,
				Rank:        c.Rank,
				Winner:      c.Winner,
			})
			if c.Winner {
				winners = append(winners, models.WinnerAssignment{
					TallyRunID:  run.ID,
					ElectionID:  election.ID,
					PositionID:  position.ID,
					CandidateID: c.CandidateID,
					PersonID:    c.PersonID,
					Votes:       c.Votes,
				})
			}
		}
	}

	completedAt := time.Now()
	hash := resultHash(run, certCandidates)
	if err := s.repo.CompleteCertification(ctx, run.ID, run.StartedBy, completedAt, hash, certPositions, certCandidates, winners); err != nil {
		if stderrors.Is(err, repository.ErrStale) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}
	if err := s.repo.UpdateElectionStatus(ctx, election.ID, models.ElectionTallied); err != nil {
		return nil, err
	}

	run.Status = models.TallyCompleted
	run.CompletedBy = run.StartedBy
	run.CompletedAt = &completedAt
	run.ResultHash = hash

	s.log.Info("results certified",
		"election_id", election.ID, "period_id", run.PeriodID, "run_id", run.ID,
		"positions", len(certPositions), "winners", len(winners), "hash", hash)

	return &CertificationResult{
		Run:        run,
		Positions:  certPositions,
		Candidates: certCandidates,
		Winners:    winners,
	}, nil
}

// Rollback voids a COMPLETED run. Its certified rows and winner assignments
// are removed, the run row stays as audit history, and the election returns
// to VOTING_CLOSED so a corrected run can certify.
func (s *TallyService) Rollback(ctx context.Context, runID, actor string) error {
	run, err := s.repo.GetTallyRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status != models.TallyCompleted {
		return &InvalidTransitionError{Entity: "tally run", From: string(run.Status), To: string(models.TallyRolledBack)}
	}

	release := s.locks.Lock(locking.TallyKey(run.ElectionID, run.PeriodID))
	defer release()

	if err := s.repo.RollbackTallyRun(ctx, runID); err != nil {
		if stderrors.Is(err, repository.ErrStale) {
			return &InvalidTransitionError{Entity: "tally run", From: string(models.TallyRolledBack), To: string(models.TallyRolledBack)}
		}
		return err
	}
	if err := s.repo.UpdateElectionStatus(ctx, run.ElectionID, models.ElectionVotingClosed); err != nil {
		return err
	}
	s.log.Warn("certification rolled back",
		"run_id", runID, "election_id", run.ElectionID, "period_id", run.PeriodID, "by", actor)
	return nil
}

// GetCertifiedResult returns the live certified result for a period
func (s *TallyService) GetCertifiedResult(ctx context.Context, electionID, periodID int) (*CertificationResult, error) {
	run, err := s.repo.GetLiveTallyRun(ctx, electionID, periodID)
	if err != nil {
		return nil, err
	}
	if run.Status != models.TallyCompleted {
		return nil, repository.ErrNotFound
	}
	positions, err := s.repo.ListCertifiedPositionResults(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.repo.ListCertifiedCandidateResults(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	winners, err := s.repo.ListWinnerAssignments(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return &CertificationResult{Run: run, Positions: positions, Candidates: candidates, Winners: winners}, nil
}

func (s *TallyService) getElectionPosition(ctx context.Context, electionID, positionID int) (*models.Position, error) {
	if _, err := s.repo.GetElection(ctx, electionID); err != nil {
		return nil, err
	}
	position, err := s.repo.GetPosition(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if position.ElectionID != electionID {
		return nil, &ServiceError{Message: "position does not belong to this election"}
	}
	return position, nil
}

// buildPositionTally ranks the counted rows. Ranks are competition style:
// tied candidates share a rank and the next rank skips past them. A tie for
// first place with at least one vote marks the position tied and leaves no
// winner.
func buildPositionTally(position *models.Position, rows []repository.CandidateTally) *PositionTally {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Votes != rows[j].Votes {
			return rows[i].Votes > rows[j].Votes
		}
		return rows[i].CandidateID < rows[j].CandidateID
	})

	total := 0
	for _, r := range rows {
		total += r.Votes
	}

	tally := &PositionTally{PositionID: position.ID, Title: position.Title, TotalBallots: total}
	tally.Tie = len(rows) > 1 && total > 0 && rows[0].Votes == rows[1].Votes

	for i, r := range rows {
		rank := i + 1
		if i > 0 && r.Votes == rows[i-1].Votes {
			rank = tally.Candidates[i-1].Rank
		}
		var share float64
		if total > 0 {
			share = float64(r.Votes) / float64(total)
		}
		tally.Candidates = append(tally.Candidates, CandidateCount{
			CandidateID: r.CandidateID,
			PersonID:    r.PersonID,
			FullName:    r.FullName,
			Votes:       r.Votes,
			Share:       share,
			Rank:        rank,
			Winner:      i == 0 && total > 0 && !tally.Tie,
		})
	}
	return tally
}

func outcomeFromTally(tally *PositionTally) (*PositionOutcome, error) {
	if tally.TotalBallots == 0 {
		return nil, ErrNoVotesCast
	}
	outcome := &PositionOutcome{PositionID: tally.PositionID, Tie: tally.Tie}
	if tally.Tie {
		top := tally.Candidates[0].Votes
		for _, c := range tally.Candidates {
			if c.Votes == top {
				outcome.Tied = append(outcome.Tied, c)
			}
		}
		return outcome, nil
	}
	winner := tally.Candidates[0]
	outcome.Winner = &winner
	return outcome, nil
}

// resultHash produces a deterministic digest of a run's certified counts so
// two parties holding the same result can compare a single value.
func resultHash(run *models.TallyRun, candidates []models.CertifiedCandidateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "election:%d|period:%d", run.ElectionID, run.PeriodID)
	for _, c := range candidates {
		fmt.Fprintf(&b, "|position:%d:candidate:%d:votes:%d", c.PositionID, c.CandidateID, c.Votes)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
