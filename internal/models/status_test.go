package models

import "testing"

func TestElectionStatusTransitions(t *testing.T) {
	tests := []struct {
		from    ElectionStatus
		to      ElectionStatus
		allowed bool
	}{
		{ElectionDraft, ElectionNominationOpen, true},
		{ElectionDraft, ElectionVotingOpen, false},
		{ElectionNominationOpen, ElectionNominationClosed, true},
		{ElectionNominationClosed, ElectionVotingOpen, true},
		{ElectionVotingOpen, ElectionVotingClosed, true},
		{ElectionVotingOpen, ElectionTallied, false},
		{ElectionVotingClosed, ElectionTallied, true},
		{ElectionTallied, ElectionPublished, true},
		{ElectionPublished, ElectionVotingOpen, false},
		{ElectionDraft, ElectionCancelled, true},
		{ElectionCancelled, ElectionDraft, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.allowed {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestElectionStatusTerminal(t *testing.T) {
	if !ElectionPublished.Terminal() {
		t.Error("PUBLISHED should be terminal")
	}
	if !ElectionCancelled.Terminal() {
		t.Error("CANCELLED should be terminal")
	}
	if ElectionVotingOpen.Terminal() {
		t.Error("VOTING_OPEN should not be terminal")
	}
}

func TestPeriodStatusTransitions(t *testing.T) {
	if !PeriodScheduled.CanTransition(PeriodOpen) {
		t.Error("SCHEDULED -> OPEN should be allowed")
	}
	if !PeriodScheduled.CanTransition(PeriodCancelled) {
		t.Error("SCHEDULED -> CANCELLED should be allowed")
	}
	if !PeriodOpen.CanTransition(PeriodClosed) {
		t.Error("OPEN -> CLOSED should be allowed")
	}
	if PeriodOpen.CanTransition(PeriodCancelled) {
		t.Error("OPEN -> CANCELLED should not be allowed")
	}
	if PeriodClosed.CanTransition(PeriodOpen) {
		t.Error("CLOSED -> OPEN should not be allowed")
	}
}

func TestCodeStatusSingleUse(t *testing.T) {
	for _, to := range []CodeStatus{CodeUsed, CodeRevoked, CodeExpired} {
		if !CodeActive.CanTransition(to) {
			t.Errorf("ACTIVE -> %s should be allowed", to)
		}
	}
	// No transitions out of terminal states
	for _, from := range []CodeStatus{CodeUsed, CodeRevoked, CodeExpired} {
		if !from.Terminal() {
			t.Errorf("%s should be terminal", from)
		}
		for _, to := range []CodeStatus{CodeActive, CodeUsed, CodeRevoked, CodeExpired} {
			if from.CanTransition(to) {
				t.Errorf("%s -> %s should not be allowed", from, to)
			}
		}
	}
}

func TestVoteStatusTransitions(t *testing.T) {
	if !VoteCast.CanTransition(VoteRevoked) {
		t.Error("CAST -> REVOKED should be allowed")
	}
	if VoteRevoked.CanTransition(VoteCast) {
		t.Error("REVOKED -> CAST should not be allowed")
	}
}

func TestTallyStatusTransitions(t *testing.T) {
	if !TallyPending.CanTransition(TallyCompleted) {
		t.Error("PENDING -> COMPLETED should be allowed")
	}
	if !TallyPending.CanTransition(TallyFailed) {
		t.Error("PENDING -> FAILED should be allowed")
	}
	if !TallyCompleted.CanTransition(TallyRolledBack) {
		t.Error("COMPLETED -> ROLLED_BACK should be allowed")
	}
	if TallyRolledBack.CanTransition(TallyCompleted) {
		t.Error("ROLLED_BACK -> COMPLETED should not be allowed")
	}
	if TallyFailed.CanTransition(TallyCompleted) {
		t.Error("FAILED -> COMPLETED should not be allowed")
	}
}
