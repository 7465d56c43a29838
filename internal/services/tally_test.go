package services_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"synodvote/internal/models"
	"synodvote/internal/repository"
	"synodvote/internal/services"
	"synodvote/internal/testutil"
)

// castDirect records a CAST ballot for a fresh voter
func castDirect(t *testing.T, repo *repository.Repository, fx testutil.Fixture, candidateID int) int {
	t.Helper()
	ctx := context.Background()

	voterID := testutil.SeedVoter(t, repo, "Voter", fx.FellowshipID, 10)
	if _, err := repo.InsertVote(ctx, &models.ElectionVote{
		ElectionID:  fx.ElectionID,
		PeriodID:    fx.PeriodID,
		PositionID:  fx.PositionID,
		CandidateID: candidateID,
		VoterID:     voterID,
		Status:      models.VoteCast,
		CastAt:      time.Now(),
		Source:      "test",
	}); err != nil {
		t.Fatalf("InsertVote failed: %v", err)
	}
	return voterID
}

// closeVoting closes the fixture's period and election so certification may run
func closeVoting(t *testing.T, electionSvc *services.ElectionService, fx testutil.Fixture) {
	t.Helper()
	ctx := context.Background()
	if _, err := electionSvc.ClosePeriod(ctx, fx.PeriodID); err != nil {
		t.Fatalf("ClosePeriod failed: %v", err)
	}
	if _, err := electionSvc.TransitionElection(ctx, fx.ElectionID, models.ElectionVotingClosed); err != nil {
		t.Fatalf("TransitionElection failed: %v", err)
	}
}

func TestTallyPosition_CountsAndRanks(t *testing.T) {
	_, _, _, tallySvc, _, repo, fx := setupServices(t)
	ctx := context.Background()

	castDirect(t, repo, fx, fx.CandidateIDs[0])
	castDirect(t, repo, fx, fx.CandidateIDs[0])
	castDirect(t, repo, fx, fx.CandidateIDs[1])

	tally, err := tallySvc.TallyPosition(ctx, fx.ElectionID, fx.PositionID)
	if err != nil {
		t.Fatalf("TallyPosition failed: %v", err)
	}
	if tally.TotalBallots != 3 {
		t.Errorf("total ballots = %d, want 3", tally.TotalBallots)
	}
	if tally.Tie {
		t.Error("2-1 result should not be a tie")
	}
	if len(tally.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(tally.Candidates))
	}
	lead := tally.Candidates[0]
	if lead.CandidateID != fx.CandidateIDs[0] || lead.Votes != 2 || lead.Rank != 1 || !lead.Winner {
		t.Errorf("unexpected leader: %+v", lead)
	}
	if lead.Share < 0.66 || lead.Share > 0.67 {
		t.Errorf("leader share = %f, want ~2/3", lead.Share)
	}
	second := tally.Candidates[1]
	if second.Rank != 2 || second.Winner {
		t.Errorf("unexpected runner-up: %+v", second)
	}
}

func TestTallyPosition_RevokedExcluded(t *testing.T) {
	_, _, _, tallySvc, _, repo, fx := setupServices(t)
	ctx := context.Background()

	castDirect(t, repo, fx, fx.CandidateIDs[0])
	voterID := castDirect(t, repo, fx, fx.CandidateIDs[1])
	vote, err := repo.FindCastVote(ctx, fx.ElectionID, fx.PositionID, voterID)
	if err != nil {
		t.Fatalf("FindCastVote failed: %v", err)
	}
	if err := repo.RevokeVote(ctx, vote.ID, time.Now()); err != nil {
		t.Fatalf("RevokeVote failed: %v", err)
	}

	tally, err := tallySvc.TallyPosition(ctx, fx.ElectionID, fx.PositionID)
	if err != nil {
		t.Fatalf("TallyPosition failed: %v", err)
	}
	if tally.TotalBallots != 1 {
		t.Errorf("total ballots = %d, want 1 after revoke", tally.TotalBallots)
	}
}

func TestDetermineWinner_NoVotes(t *testing.T) {
	_, _, _, tallySvc, _, _, fx := setupServices(t)
	ctx := context.Background()

	_, err := tallySvc.DetermineWinner(ctx, fx.ElectionID, fx.PositionID)
	if !stderrors.Is(err, services.ErrNoVotesCast) {
		t.Errorf("expected ErrNoVotesCast, got %v", err)
	}
}

func TestDetermineWinner_TieSurfaced(t *testing.T) {
	_, _, _, tallySvc, _, repo, fx := setupServices(t)
	ctx := context.Background()

	castDirect(t, repo, fx, fx.CandidateIDs[0])
	castDirect(t, repo, fx, fx.CandidateIDs[1])

	outcome, err := tallySvc.DetermineWinner(ctx, fx.ElectionID, fx.PositionID)
	if err != nil {
		t.Fatalf("DetermineWinner failed: %v", err)
	}
	if !outcome.Tie {
		t.Fatal("expected tie to be surfaced")
	}
	if outcome.Winner != nil {
		t.Error("tie must not produce a winner")
	}
	if len(outcome.Tied) != 2 {
		t.Errorf("tied candidates = %d, want 2", len(outcome.Tied))
	}
}

func TestDetermineWinner_ClearResult(t *testing.T) {
	_, _, _, tallySvc, _, repo, fx := setupServices(t)
	ctx := context.Background()

	castDirect(t, repo, fx, fx.CandidateIDs[1])
	castDirect(t, repo, fx, fx.CandidateIDs[1])
	castDirect(t, repo, fx, fx.CandidateIDs[0])

	outcome, err := tallySvc.DetermineWinner(ctx, fx.ElectionID, fx.PositionID)
	if err != nil {
		t.Fatalf("DetermineWinner failed: %v", err)
	}
	if outcome.Tie || outcome.Winner == nil {
		t.Fatalf("expected clear winner, got %+v", outcome)
	}
	if outcome.Winner.CandidateID != fx.CandidateIDs[1] {
		t.Errorf("winner = %d, want %d", outcome.Winner.CandidateID, fx.CandidateIDs[1])
	}
}

func TestCertify_Success(t *testing.T) {
	_, _, _, tallySvc, electionSvc, repo, fx := setupServices(t)
	ctx := context.Background()

	castDirect(t, repo, fx, fx.CandidateIDs[0])
	castDirect(t, repo, fx, fx.CandidateIDs[0])
	castDirect(t, repo, fx, fx.CandidateIDs[1])
	closeVoting(t, electionSvc, fx)

	result, err := tallySvc.Certify(ctx, fx.ElectionID, fx.PeriodID, "registrar")
	if err != nil {
		t.Fatalf("Certify failed: %v", err)
	}
	if result.Run.Status != models.TallyCompleted {
		t.Errorf("run status = %s, want COMPLETED", result.Run.Status)
	}
	if result.Run.ResultHash == "" {
		t.Error("result hash should be set")
	}
	if len(result.Winners) != 1 || result.Winners[0].CandidateID != fx.CandidateIDs[0] {
		t.Errorf("unexpected winners: %+v", result.Winners)
	}
	if len(result.Positions) != 1 || result.Positions[0].TotalBallots != 3 || result.Positions[0].Turnout != 3 {
		t.Errorf("unexpected position results: %+v", result.Positions)
	}

	election, err := repo.GetElection(ctx, fx.ElectionID)
	if err != nil {
		t.Fatalf("GetElection failed: %v", err)
	}
	if election.Status != models.ElectionTallied {
		t.Errorf("election status = %s, want TALLIED", election.Status)
	}
}

func TestCertify_SecondCallRejected(t *testing.T) {
	_, _, _, tallySvc, electionSvc, repo, fx := setupServices(t)
	ctx := context.Background()

	castDirect(t, repo, fx, fx.CandidateIDs[0])
	closeVoting(t, electionSvc, fx)

	if _, err := tallySvc.Certify(ctx, fx.ElectionID, fx.PeriodID, "registrar"); err != nil {
		t.Fatalf("Certify failed: %v", err)
	}

	// Re-close is not possible, the election is TALLIED now; reset it for
	// the guard to be exercised on its own
	if err := repo.UpdateElectionStatus(ctx, fx.ElectionID, models.ElectionVotingClosed); err != nil {
		t.Fatalf("UpdateElectionStatus failed: %v", err)
	}
	_, err := tallySvc.Certify(ctx, fx.ElectionID, fx.PeriodID, "registrar")
	if !stderrors.Is(err, services.ErrAlreadyCertified) {
		t.Errorf("expected ErrAlreadyCertified, got %v", err)
	}
}

func TestCertify_RequiresClosedElection(t *testing.T) {
	_, _, _, tallySvc, _, repo, fx := setupServices(t)
	ctx := context.Background()

	castDirect(t, repo, fx, fx.CandidateIDs[0])

	_, err := tallySvc.Certify(ctx, fx.ElectionID, fx.PeriodID, "registrar")
	var transition *services.InvalidTransitionError
	if !stderrors.As(err, &transition) {
		t.Errorf("expected InvalidTransitionError while voting open, got %v", err)
	}
}

func TestCertify_TieLeavesNoAssignment(t *testing.T) {
	_, _, _, tallySvc, electionSvc, repo, fx := setupServices(t)
	ctx := context.Background()

	castDirect(t, repo, fx, fx.CandidateIDs[0])
	castDirect(t, repo, fx, fx.CandidateIDs[1])
	closeVoting(t, electionSvc, fx)

	result, err := tallySvc.Certify(ctx, fx.ElectionID, fx.PeriodID, "registrar")
	if err != nil {
		t.Fatalf("Certify failed: %v", err)
	}
	if len(result.Winners) != 0 {
		t.Errorf("tied position produced winners: %+v", result.Winners)
	}
	if len(result.Positions) != 1 || !result.Positions[0].Tie {
		t.Errorf("tie not recorded on position result: %+v", result.Positions)
	}
}

func TestCertify_ConcurrentSingleRun(t *testing.T) {
	_, _, _, tallySvc, electionSvc, repo, fx := setupServices(t)
	ctx := context.Background()

	castDirect(t, repo, fx, fx.CandidateIDs[0])
	closeVoting(t, electionSvc, fx)

	const workers = 6
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tallySvc.Certify(ctx, fx.ElectionID, fx.PeriodID, "registrar")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case stderrors.Is(err, services.ErrAlreadyCertified),
			stderrors.Is(err, services.ErrConcurrencyConflict):
		default:
			var transition *services.InvalidTransitionError
			if !stderrors.As(err, &transition) {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
}

func TestRollback_AllowsRecertification(t *testing.T) {
	_, _, _, tallySvc, electionSvc, repo, fx := setupServices(t)
	ctx := context.Background()

	castDirect(t, repo, fx, fx.CandidateIDs[0])
	castDirect(t, repo, fx, fx.CandidateIDs[0])
	castDirect(t, repo, fx, fx.CandidateIDs[1])
	closeVoting(t, electionSvc, fx)

	first, err := tallySvc.Certify(ctx, fx.ElectionID, fx.PeriodID, "registrar")
	if err != nil {
		t.Fatalf("Certify failed: %v", err)
	}
	if err := tallySvc.Rollback(ctx, first.Run.ID, "registrar"); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	election, err := repo.GetElection(ctx, fx.ElectionID)
	if err != nil {
		t.Fatalf("GetElection failed: %v", err)
	}
	if election.Status != models.ElectionVotingClosed {
		t.Errorf("election status = %s, want VOTING_CLOSED after rollback", election.Status)
	}

	second, err := tallySvc.Certify(ctx, fx.ElectionID, fx.PeriodID, "registrar")
	if err != nil {
		t.Fatalf("re-certification failed: %v", err)
	}
	if second.Run.ID == first.Run.ID {
		t.Error("re-certification should produce a fresh run")
	}
	if second.Run.ResultHash != first.Run.ResultHash {
		t.Error("identical counts should produce the same result hash")
	}
	if len(second.Winners) != 1 {
		t.Errorf("winners = %d, want 1", len(second.Winners))
	}
}

func TestRollback_RequiresCompletedRun(t *testing.T) {
	_, _, _, tallySvc, _, _, _ := setupServices(t)
	ctx := context.Background()

	err := tallySvc.Rollback(ctx, "no-such-run", "registrar")
	if !stderrors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCertifiedResult(t *testing.T) {
	_, _, _, tallySvc, electionSvc, repo, fx := setupServices(t)
	ctx := context.Background()

	castDirect(t, repo, fx, fx.CandidateIDs[0])
	closeVoting(t, electionSvc, fx)

	certified, err := tallySvc.Certify(ctx, fx.ElectionID, fx.PeriodID, "registrar")
	if err != nil {
		t.Fatalf("Certify failed: %v", err)
	}

	fetched, err := tallySvc.GetCertifiedResult(ctx, fx.ElectionID, fx.PeriodID)
	if err != nil {
		t.Fatalf("GetCertifiedResult failed: %v", err)
	}
	if fetched.Run.ID != certified.Run.ID {
		t.Errorf("run id = %s, want %s", fetched.Run.ID, certified.Run.ID)
	}
	if len(fetched.Candidates) != 2 {
		t.Errorf("candidate rows = %d, want 2", len(fetched.Candidates))
	}
}

func TestGetCertifiedResult_NoneYet(t *testing.T) {
	_, _, _, tallySvc, _, _, fx := setupServices(t)
	ctx := context.Background()

	if _, err := tallySvc.GetCertifiedResult(ctx, fx.ElectionID, fx.PeriodID); !stderrors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound before certification, got %v", err)
	}
}
