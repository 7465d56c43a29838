package models

// Lifecycle enums are closed state types. Every mutation goes through
// CanTransition so an invalid move is rejected at the boundary instead of
// leaking into the database as a bad status string.

// ElectionStatus is the lifecycle state of an election
type ElectionStatus string

const (
	ElectionDraft            ElectionStatus = "DRAFT"
	ElectionNominationOpen   ElectionStatus = "NOMINATION_OPEN"
	ElectionNominationClosed ElectionStatus = "NOMINATION_CLOSED"
	ElectionVotingOpen       ElectionStatus = "VOTING_OPEN"
	ElectionVotingClosed     ElectionStatus = "VOTING_CLOSED"
	ElectionTallied          ElectionStatus = "TALLIED"
	ElectionPublished        ElectionStatus = "PUBLISHED"
	ElectionCancelled        ElectionStatus = "CANCELLED"
)

var electionTransitions = map[ElectionStatus][]ElectionStatus{
	ElectionDraft:            {ElectionNominationOpen, ElectionCancelled},
	ElectionNominationOpen:   {ElectionNominationClosed, ElectionCancelled},
	ElectionNominationClosed: {ElectionVotingOpen, ElectionCancelled},
	ElectionVotingOpen:       {ElectionVotingClosed, ElectionCancelled},
	ElectionVotingClosed:     {ElectionTallied, ElectionCancelled},
	ElectionTallied:          {ElectionPublished, ElectionCancelled},
}

// Terminal reports whether the status has no outgoing transitions
func (s ElectionStatus) Terminal() bool {
	return s == ElectionPublished || s == ElectionCancelled
}

// CanTransition reports whether moving to the given status is a valid step
func (s ElectionStatus) CanTransition(to ElectionStatus) bool {
	for _, next := range electionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// PeriodStatus is the lifecycle state of a voting period
type PeriodStatus string

const (
	PeriodScheduled PeriodStatus = "SCHEDULED"
	PeriodOpen      PeriodStatus = "OPEN"
	PeriodClosed    PeriodStatus = "CLOSED"
	PeriodCancelled PeriodStatus = "CANCELLED"
)

var periodTransitions = map[PeriodStatus][]PeriodStatus{
	PeriodScheduled: {PeriodOpen, PeriodCancelled},
	PeriodOpen:      {PeriodClosed},
}

func (s PeriodStatus) Terminal() bool {
	return s == PeriodClosed || s == PeriodCancelled
}

func (s PeriodStatus) CanTransition(to PeriodStatus) bool {
	for _, next := range periodTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CodeStatus is the lifecycle state of a voting code. ACTIVE is the only
// non-terminal state.
type CodeStatus string

const (
	CodeActive  CodeStatus = "ACTIVE"
	CodeUsed    CodeStatus = "USED"
	CodeRevoked CodeStatus = "REVOKED"
	CodeExpired CodeStatus = "EXPIRED"
)

func (s CodeStatus) Terminal() bool {
	return s != CodeActive
}

func (s CodeStatus) CanTransition(to CodeStatus) bool {
	return s == CodeActive && (to == CodeUsed || to == CodeRevoked || to == CodeExpired)
}

// VoteStatus is the lifecycle state of a ballot row
type VoteStatus string

const (
	VoteCast    VoteStatus = "CAST"
	VoteRevoked VoteStatus = "REVOKED"
)

func (s VoteStatus) Terminal() bool {
	return s == VoteRevoked
}

func (s VoteStatus) CanTransition(to VoteStatus) bool {
	return s == VoteCast && to == VoteRevoked
}

// TallyStatus is the lifecycle state of a tally run
type TallyStatus string

const (
	TallyPending    TallyStatus = "PENDING"
	TallyCompleted  TallyStatus = "COMPLETED"
	TallyFailed     TallyStatus = "FAILED"
	TallyRolledBack TallyStatus = "ROLLED_BACK"
)

var tallyTransitions = map[TallyStatus][]TallyStatus{
	TallyPending:   {TallyCompleted, TallyFailed},
	TallyCompleted: {TallyRolledBack},
}

func (s TallyStatus) Terminal() bool {
	return s == TallyFailed || s == TallyRolledBack
}

func (s TallyStatus) CanTransition(to TallyStatus) bool {
	for _, next := range tallyTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}
