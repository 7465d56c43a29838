// Package testutil provides shared helpers for tests
package testutil

import (
	"context"
	"testing"
	"time"

	"synodvote/internal/models"
	"synodvote/internal/repository"
)

// NewTestRepository creates an in-memory repository for testing. The
// database is closed automatically when the test finishes.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// Fixture holds the IDs of a minimal seeded election ready for voting:
// one election in VOTING_OPEN with an OPEN period, one position with two
// candidates, and one eligible voter with an active membership.
type Fixture struct {
	ElectionID   int
	PeriodID     int
	PositionID   int
	CandidateIDs []int
	VoterID      int
	FellowshipID int
}

// SeedElection populates repo with a votable election and returns its IDs
func SeedElection(t *testing.T, repo *repository.Repository) Fixture {
	t.Helper()
	ctx := context.Background()

	const fellowshipID = 1
	dioceseID := 10

	electionID, err := repo.CreateElection(ctx, models.Election{
		Name:           "Mothers Union Diocesan Election",
		FellowshipID:   fellowshipID,
		Scope:          models.ScopeDiocese,
		DioceseID:      &dioceseID,
		Status:         models.ElectionVotingOpen,
		TermStart:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		TermEnd:        time.Date(2028, 12, 31, 0, 0, 0, 0, time.UTC),
		VotingStartsAt: time.Now().Add(-time.Hour),
		VotingEndsAt:   time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to seed election: %v", err)
	}

	periodID, err := repo.CreateVotingPeriod(ctx, models.VotingPeriod{
		ElectionID: electionID,
		Status:     models.PeriodOpen,
		StartsAt:   time.Now().Add(-time.Hour),
		EndsAt:     time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to seed voting period: %v", err)
	}

	positionID, err := repo.CreatePosition(ctx, models.Position{
		ElectionID: electionID,
		Title:      "Chairperson",
		Seats:      1,
	})
	if err != nil {
		t.Fatalf("failed to seed position: %v", err)
	}

	var candidateIDs []int
	for _, name := range []string{"Grace Achieng", "Mary Wanjiru"} {
		personID, err := repo.CreatePerson(ctx, name)
		if err != nil {
			t.Fatalf("failed to seed candidate person: %v", err)
		}
		candidateID, err := repo.CreateCandidate(ctx, models.Candidate{
			ElectionID: electionID,
			PositionID: positionID,
			PersonID:   personID,
		})
		if err != nil {
			t.Fatalf("failed to seed candidate: %v", err)
		}
		candidateIDs = append(candidateIDs, candidateID)
	}

	voterID := SeedVoter(t, repo, "Esther Nafula", fellowshipID, dioceseID)

	return Fixture{
		ElectionID:   electionID,
		PeriodID:     periodID,
		PositionID:   positionID,
		CandidateIDs: candidateIDs,
		VoterID:      voterID,
		FellowshipID: fellowshipID,
	}
}

// SeedVoter creates a person with an active diocese-level membership in the
// given fellowship and returns the person ID.
func SeedVoter(t *testing.T, repo *repository.Repository, name string, fellowshipID, dioceseID int) int {
	t.Helper()
	ctx := context.Background()

	personID, err := repo.CreatePerson(ctx, name)
	if err != nil {
		t.Fatalf("failed to seed voter: %v", err)
	}
	if _, err := repo.CreateMembership(ctx, models.FellowshipMembership{
		PersonID:     personID,
		FellowshipID: fellowshipID,
		Active:       true,
		DioceseID:    &dioceseID,
	}); err != nil {
		t.Fatalf("failed to seed membership: %v", err)
	}
	return personID
}
