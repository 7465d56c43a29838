package services_test

import (
	"context"
	stderrors "errors"
	"testing"

	"synodvote/internal/locking"
	"synodvote/internal/logger"
	"synodvote/internal/models"
	"synodvote/internal/repository"
	"synodvote/internal/services"
	"synodvote/internal/testutil"
)

// setupServices wires the full service stack over an in-memory repository
func setupServices(t *testing.T) (*services.EligibilityService, *services.CodeService, *services.BallotService, *services.TallyService, *services.ElectionService, *repository.Repository, testutil.Fixture) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	log := logger.New()
	locks := locking.New()

	eligibilitySvc := services.NewEligibilityService(log, repo)
	codeSvc := services.NewCodeService(log, repo, eligibilitySvc, locks)
	ballotSvc := services.NewBallotService(log, repo, codeSvc, eligibilitySvc, locks)
	tallySvc := services.NewTallyService(log, repo, locks)
	electionSvc := services.NewElectionService(log, repo, codeSvc)

	fx := testutil.SeedElection(t, repo)
	return eligibilitySvc, codeSvc, ballotSvc, tallySvc, electionSvc, repo, fx
}

func TestResolve_ActiveMembershipInScope(t *testing.T) {
	eligibilitySvc, _, _, _, _, _, fx := setupServices(t)
	ctx := context.Background()

	decision, err := eligibilitySvc.Resolve(ctx, fx.ElectionID, fx.PeriodID, fx.VoterID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !decision.Eligible {
		t.Fatalf("expected eligible, got ineligible (%s: %s)", decision.Rule, decision.Reason)
	}
	if decision.Rule != services.RuleScopeCheck {
		t.Errorf("rule = %s, want %s", decision.Rule, services.RuleScopeCheck)
	}
}

func TestResolve_NoMembership(t *testing.T) {
	eligibilitySvc, _, _, _, _, repo, fx := setupServices(t)
	ctx := context.Background()

	outsider, err := repo.CreatePerson(ctx, "Peter Otieno")
	if err != nil {
		t.Fatalf("CreatePerson failed: %v", err)
	}

	decision, err := eligibilitySvc.Resolve(ctx, fx.ElectionID, fx.PeriodID, outsider)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if decision.Eligible {
		t.Fatal("expected ineligible without membership")
	}
	if decision.Rule != services.RuleFellowshipCheck {
		t.Errorf("rule = %s, want %s", decision.Rule, services.RuleFellowshipCheck)
	}
}

func TestResolve_MembershipOutsideScope(t *testing.T) {
	eligibilitySvc, _, _, _, _, repo, fx := setupServices(t)
	ctx := context.Background()

	// Active membership in the fellowship, but in a different diocese
	otherDiocese := testutil.SeedVoter(t, repo, "Sarah Akinyi", fx.FellowshipID, 99)

	decision, err := eligibilitySvc.Resolve(ctx, fx.ElectionID, fx.PeriodID, otherDiocese)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if decision.Eligible {
		t.Fatal("expected ineligible outside election scope")
	}
	if decision.Rule != services.RuleScopeCheck {
		t.Errorf("rule = %s, want %s", decision.Rule, services.RuleScopeCheck)
	}
}

func TestResolve_OverrideBlocksMember(t *testing.T) {
	eligibilitySvc, _, _, _, _, _, fx := setupServices(t)
	ctx := context.Background()

	if err := eligibilitySvc.SetOverride(ctx, models.VoterRollOverride{
		ElectionID: fx.ElectionID,
		PersonID:   fx.VoterID,
		Allow:      false,
		Reason:     "transferred out of diocese",
		CreatedBy:  "registrar",
	}); err != nil {
		t.Fatalf("SetOverride failed: %v", err)
	}

	decision, err := eligibilitySvc.Resolve(ctx, fx.ElectionID, fx.PeriodID, fx.VoterID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if decision.Eligible {
		t.Fatal("expected override to block an otherwise eligible member")
	}
	if decision.Rule != services.RuleVoterRollBlock {
		t.Errorf("rule = %s, want %s", decision.Rule, services.RuleVoterRollBlock)
	}
}

func TestResolve_OverrideAllowsNonMember(t *testing.T) {
	eligibilitySvc, _, _, _, _, repo, fx := setupServices(t)
	ctx := context.Background()

	outsider, err := repo.CreatePerson(ctx, "Hannah Wairimu")
	if err != nil {
		t.Fatalf("CreatePerson failed: %v", err)
	}
	if err := eligibilitySvc.SetOverride(ctx, models.VoterRollOverride{
		ElectionID: fx.ElectionID,
		PersonID:   outsider,
		Allow:      true,
		Reason:     "membership record pending migration",
		CreatedBy:  "registrar",
	}); err != nil {
		t.Fatalf("SetOverride failed: %v", err)
	}

	decision, err := eligibilitySvc.Resolve(ctx, fx.ElectionID, fx.PeriodID, outsider)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !decision.Eligible {
		t.Fatal("expected override to allow a non-member")
	}
	if decision.Rule != services.RuleVoterRollAllow {
		t.Errorf("rule = %s, want %s", decision.Rule, services.RuleVoterRollAllow)
	}
}

func TestSetOverride_RequiresReason(t *testing.T) {
	eligibilitySvc, _, _, _, _, _, fx := setupServices(t)
	ctx := context.Background()

	err := eligibilitySvc.SetOverride(ctx, models.VoterRollOverride{
		ElectionID: fx.ElectionID,
		PersonID:   fx.VoterID,
		Allow:      false,
		CreatedBy:  "registrar",
	})
	if err == nil {
		t.Fatal("expected error for missing reason")
	}
}

func TestCheckEligible_TypedError(t *testing.T) {
	eligibilitySvc, _, _, _, _, repo, fx := setupServices(t)
	ctx := context.Background()

	outsider, err := repo.CreatePerson(ctx, "James Kamau")
	if err != nil {
		t.Fatalf("CreatePerson failed: %v", err)
	}

	err = eligibilitySvc.CheckEligible(ctx, fx.ElectionID, fx.PeriodID, outsider)
	var ineligible *services.IneligibleError
	if !stderrors.As(err, &ineligible) {
		t.Fatalf("expected IneligibleError, got %v", err)
	}
	if ineligible.Rule != services.RuleFellowshipCheck {
		t.Errorf("rule = %s, want %s", ineligible.Rule, services.RuleFellowshipCheck)
	}
}

func TestResolve_UnknownPerson(t *testing.T) {
	eligibilitySvc, _, _, _, _, _, fx := setupServices(t)
	ctx := context.Background()

	if _, err := eligibilitySvc.Resolve(ctx, fx.ElectionID, fx.PeriodID, 9999); !stderrors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown person, got %v", err)
	}
}

func TestResolve_UnknownPeriod(t *testing.T) {
	eligibilitySvc, _, _, _, _, _, fx := setupServices(t)
	ctx := context.Background()

	if _, err := eligibilitySvc.Resolve(ctx, fx.ElectionID, 9999, fx.VoterID); !stderrors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown period, got %v", err)
	}
}
