package services

import (
	"context"
	stderrors "errors"
	"fmt"

	"synodvote/internal/logger"
	"synodvote/internal/models"
	"synodvote/internal/repository"
)

// EligibilityServiceRepository defines the repository methods needed by EligibilityService
type EligibilityServiceRepository interface {
	GetElection(ctx context.Context, id int) (*models.Election, error)
	GetVotingPeriod(ctx context.Context, id int) (*models.VotingPeriod, error)
	GetPerson(ctx context.Context, id int) (*models.Person, error)
	ListActiveMemberships(ctx context.Context, personID, fellowshipID int) ([]models.FellowshipMembership, error)
	GetOverride(ctx context.Context, electionID, personID int) (*models.VoterRollOverride, error)
	PutOverride(ctx context.Context, o models.VoterRollOverride) (int, error)
}

// EligibilityService resolves whether a person may vote in an election.
// Resolution is tiered: an explicit roll override decides first, then an
// active fellowship membership is required, then the membership target must
// match the election's scope. Each decision reports which tier produced it.
type EligibilityService struct {
	log  logger.Logger
	repo EligibilityServiceRepository
}

// NewEligibilityService creates a new EligibilityService
func NewEligibilityService(log logger.Logger, repo EligibilityServiceRepository) *EligibilityService {
	return &EligibilityService{log: log, repo: repo}
}

// Decision is the outcome of an eligibility resolution
type Decision struct {
	Eligible bool   `json:"eligible"`
	Rule     string `json:"rule"`
	Reason   string `json:"reason"`
}

// Resolution rule names
const (
	RuleVoterRollAllow  = "VOTER_ROLL_ALLOW"
	RuleVoterRollBlock  = "VOTER_ROLL_BLOCK"
	RuleFellowshipCheck = "FELLOWSHIP_CHECK"
	RuleScopeCheck      = "SCOPE_CHECK"
)

// Resolve evaluates the eligibility tiers for (election, period, person) and
// returns the decision with the rule that produced it.
func (s *EligibilityService) Resolve(ctx context.Context, electionID, periodID, personID int) (*Decision, error) {
	election, err := s.repo.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	period, err := s.repo.GetVotingPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.ElectionID != electionID {
		return nil, &ServiceError{Message: "voting period does not belong to this election"}
	}
	if _, err := s.repo.GetPerson(ctx, personID); err != nil {
		return nil, err
	}

	override, err := s.repo.GetOverride(ctx, electionID, personID)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if override != nil {
		if override.Allow {
			return &Decision{Eligible: true, Rule: RuleVoterRollAllow, Reason: override.Reason}, nil
		}
		return &Decision{Eligible: false, Rule: RuleVoterRollBlock, Reason: override.Reason}, nil
	}

	memberships, err := s.repo.ListActiveMemberships(ctx, personID, election.FellowshipID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return &Decision{
			Eligible: false,
			Rule:     RuleFellowshipCheck,
			Reason:   "no active membership in the election's fellowship",
		}, nil
	}

	for _, m := range memberships {
		if membershipInScope(election, m) {
			return &Decision{Eligible: true, Rule: RuleScopeCheck, Reason: "active membership within election scope"}, nil
		}
	}
	return &Decision{
		Eligible: false,
		Rule:     RuleScopeCheck,
		Reason:   fmt.Sprintf("no membership within the election's %s scope", election.Scope),
	}, nil
}

// CheckEligible is the boundary-guard form of Resolve: nil when the person
// may vote, an IneligibleError otherwise.
func (s *EligibilityService) CheckEligible(ctx context.Context, electionID, periodID, personID int) error {
	decision, err := s.Resolve(ctx, electionID, periodID, personID)
	if err != nil {
		return err
	}
	if !decision.Eligible {
		return &IneligibleError{Rule: decision.Rule, Reason: decision.Reason}
	}
	return nil
}

// SetOverride records an explicit allow or block entry on the voter roll
func (s *EligibilityService) SetOverride(ctx context.Context, o models.VoterRollOverride) error {
	if o.Reason == "" {
		return &ServiceError{Message: "override reason is required"}
	}
	if _, err := s.repo.GetElection(ctx, o.ElectionID); err != nil {
		return err
	}
	if _, err := s.repo.GetPerson(ctx, o.PersonID); err != nil {
		return err
	}
	if _, err := s.repo.PutOverride(ctx, o); err != nil {
		return err
	}
	s.log.Info("voter roll override set",
		"election_id", o.ElectionID, "person_id", o.PersonID, "allow", o.Allow, "by", o.CreatedBy)
	return nil
}

// membershipInScope reports whether the membership's target sits at the
// election's organizational scope.
func membershipInScope(election *models.Election, m models.FellowshipMembership) bool {
	switch election.Scope {
	case models.ScopeDiocese:
		return election.DioceseID != nil && m.DioceseID != nil && *m.DioceseID == *election.DioceseID
	case models.ScopeArchdeaconry:
		return election.ArchdeaconryID != nil && m.ArchdeaconryID != nil && *m.ArchdeaconryID == *election.ArchdeaconryID
	case models.ScopeChurch:
		return election.ChurchID != nil && m.ChurchID != nil && *m.ChurchID == *election.ChurchID
	}
	return false
}
