package services_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"synodvote/internal/locking"
	"synodvote/internal/logger"
	"synodvote/internal/models"
	"synodvote/internal/repository/mock"
	"synodvote/internal/services"
	"synodvote/internal/testutil"
)

func TestCreateElection_Validation(t *testing.T) {
	_, _, _, _, electionSvc, _, _ := setupServices(t)
	ctx := context.Background()

	dioceseID := 5
	tests := []struct {
		name     string
		election models.Election
	}{
		{"missing name", models.Election{
			FellowshipID: 1, Scope: models.ScopeDiocese, DioceseID: &dioceseID,
			TermStart: time.Now(), TermEnd: time.Now().AddDate(2, 0, 0),
		}},
		{"missing scope target", models.Election{
			Name: "Fathers Union Election", FellowshipID: 1, Scope: models.ScopeDiocese,
			TermStart: time.Now(), TermEnd: time.Now().AddDate(2, 0, 0),
		}},
		{"term end before start", models.Election{
			Name: "Fathers Union Election", FellowshipID: 1, Scope: models.ScopeDiocese, DioceseID: &dioceseID,
			TermStart: time.Now(), TermEnd: time.Now().AddDate(-1, 0, 0),
		}},
		{"unknown scope", models.Election{
			Name: "Fathers Union Election", FellowshipID: 1, Scope: "PARISH",
			TermStart: time.Now(), TermEnd: time.Now().AddDate(2, 0, 0),
		}},
	}
	for _, tt := range tests {
		if _, err := electionSvc.CreateElection(ctx, tt.election); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestCreateElection_StartsAsDraft(t *testing.T) {
	_, _, _, _, electionSvc, _, _ := setupServices(t)
	ctx := context.Background()

	dioceseID := 5
	election, err := electionSvc.CreateElection(ctx, models.Election{
		Name:         "Fathers Union Election",
		FellowshipID: 2,
		Scope:        models.ScopeDiocese,
		DioceseID:    &dioceseID,
		TermStart:    time.Now(),
		TermEnd:      time.Now().AddDate(2, 0, 0),
	})
	if err != nil {
		t.Fatalf("CreateElection failed: %v", err)
	}
	if election.Status != models.ElectionDraft {
		t.Errorf("status = %s, want DRAFT", election.Status)
	}
}

func TestTransitionElection_RejectsInvalidMove(t *testing.T) {
	_, _, _, _, electionSvc, _, fx := setupServices(t)
	ctx := context.Background()

	// Fixture election is VOTING_OPEN; jumping to PUBLISHED is invalid
	_, err := electionSvc.TransitionElection(ctx, fx.ElectionID, models.ElectionPublished)
	var transition *services.InvalidTransitionError
	if !stderrors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transition.From != string(models.ElectionVotingOpen) {
		t.Errorf("from = %s, want VOTING_OPEN", transition.From)
	}
}

func TestAddPosition_FrozenAfterNominations(t *testing.T) {
	_, _, _, _, electionSvc, _, fx := setupServices(t)
	ctx := context.Background()

	// Fixture election is already VOTING_OPEN
	_, err := electionSvc.AddPosition(ctx, models.Position{
		ElectionID: fx.ElectionID, Title: "Vice Chairperson",
	})
	if err == nil {
		t.Fatal("expected error adding position after voting opened")
	}
}

func TestSchedulePeriod_SecondOpenRejected(t *testing.T) {
	_, _, _, _, electionSvc, _, fx := setupServices(t)
	ctx := context.Background()

	period, err := electionSvc.SchedulePeriod(ctx, models.VotingPeriod{
		ElectionID: fx.ElectionID,
		StartsAt:   time.Now(),
		EndsAt:     time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("SchedulePeriod failed: %v", err)
	}

	// The fixture period is already OPEN
	if _, err := electionSvc.OpenPeriod(ctx, period.ID); err == nil {
		t.Fatal("expected error opening a second period")
	}
}

func TestCancelPeriod_OnlyScheduled(t *testing.T) {
	_, _, _, _, electionSvc, _, fx := setupServices(t)
	ctx := context.Background()

	_, err := electionSvc.CancelPeriod(ctx, fx.PeriodID)
	var transition *services.InvalidTransitionError
	if !stderrors.As(err, &transition) {
		t.Errorf("expected InvalidTransitionError cancelling an open period, got %v", err)
	}
}

func TestCancelPeriod_ExpiresCodes(t *testing.T) {
	_, codeSvc, _, _, electionSvc, repo, fx := setupServices(t)
	ctx := context.Background()

	period, err := electionSvc.SchedulePeriod(ctx, models.VotingPeriod{
		ElectionID: fx.ElectionID,
		StartsAt:   time.Now().Add(time.Hour),
		EndsAt:     time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("SchedulePeriod failed: %v", err)
	}
	code, err := codeSvc.Issue(ctx, fx.ElectionID, period.ID, fx.VoterID, "registrar")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := electionSvc.CancelPeriod(ctx, period.ID); err != nil {
		t.Fatalf("CancelPeriod failed: %v", err)
	}

	stored, err := repo.GetCode(ctx, code.ID)
	if err != nil {
		t.Fatalf("GetCode failed: %v", err)
	}
	if stored.Status != models.CodeExpired {
		t.Errorf("status = %s, want EXPIRED after period cancel", stored.Status)
	}
}

func TestListBallot(t *testing.T) {
	_, _, _, _, electionSvc, _, fx := setupServices(t)
	ctx := context.Background()

	positions, candidates, err := electionSvc.ListBallot(ctx, fx.ElectionID)
	if err != nil {
		t.Fatalf("ListBallot failed: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("positions = %d, want 1", len(positions))
	}
	if len(candidates[positions[0].ID]) != 2 {
		t.Errorf("candidates = %d, want 2", len(candidates[positions[0].ID]))
	}
}

func TestIssue_RepositoryFailureSurfaces(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	fx := testutil.SeedElection(t, repo)
	log := logger.New()
	locks := locking.New()

	injected := stderrors.New("storage offline")
	mockRepo := mock.New(repo)
	mockRepo.InsertCodeError = injected

	eligibilitySvc := services.NewEligibilityService(log, repo)
	codeSvc := services.NewCodeService(log, mockRepo, eligibilitySvc, locks)

	_, err := codeSvc.Issue(context.Background(), fx.ElectionID, fx.PeriodID, fx.VoterID, "registrar")
	if !stderrors.Is(err, injected) {
		t.Errorf("expected injected error to surface, got %v", err)
	}
}
