package models

import "time"

// ScopeLevel is the organizational level an election applies to.
type ScopeLevel string

const (
	ScopeDiocese      ScopeLevel = "DIOCESE"
	ScopeArchdeaconry ScopeLevel = "ARCHDEACONRY"
	ScopeChurch       ScopeLevel = "CHURCH"
)

// Election represents a fellowship leadership election
type Election struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	FellowshipID   int            `json:"fellowship_id"`
	Scope          ScopeLevel     `json:"scope"`
	DioceseID      *int           `json:"diocese_id,omitempty"`
	ArchdeaconryID *int           `json:"archdeaconry_id,omitempty"`
	ChurchID       *int           `json:"church_id,omitempty"`
	Status         ElectionStatus `json:"status"`
	TermStart      time.Time      `json:"term_start"`
	TermEnd        time.Time      `json:"term_end"`
	VotingStartsAt time.Time      `json:"voting_starts_at"`
	VotingEndsAt   time.Time      `json:"voting_ends_at"`
}

// VotingPeriod is a bounded round during which one election accepts votes
type VotingPeriod struct {
	ID         int          `json:"id"`
	ElectionID int          `json:"election_id"`
	Status     PeriodStatus `json:"status"`
	StartsAt   time.Time    `json:"starts_at"`
	EndsAt     time.Time    `json:"ends_at"`
}

// Position is an elected office within an election
type Position struct {
	ID         int    `json:"id"`
	ElectionID int    `json:"election_id"`
	Title      string `json:"title"`
	Seats      int    `json:"seats"`
}

// Candidate links an approved person to a position on the ballot
type Candidate struct {
	ID         int    `json:"id"`
	ElectionID int    `json:"election_id"`
	PositionID int    `json:"position_id"`
	PersonID   int    `json:"person_id"`
	FullName   string `json:"full_name,omitempty"`
}

// Person is a registered member known to the organization registry
type Person struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
}

// FellowshipMembership is an active leadership-assignment fact linking a person
// to a fellowship at a concrete diocese/archdeaconry/church target. Read-only
// input to eligibility resolution.
type FellowshipMembership struct {
	ID             int  `json:"id"`
	PersonID       int  `json:"person_id"`
	FellowshipID   int  `json:"fellowship_id"`
	Active         bool `json:"active"`
	DioceseID      *int `json:"diocese_id,omitempty"`
	ArchdeaconryID *int `json:"archdeaconry_id,omitempty"`
	ChurchID       *int `json:"church_id,omitempty"`
}

// VoterRollOverride is an explicit per-person allow/block entry that outranks
// derived membership rules.
type VoterRollOverride struct {
	ID         int       `json:"id"`
	ElectionID int       `json:"election_id"`
	PersonID   int       `json:"person_id"`
	Allow      bool      `json:"allow"`
	Reason     string    `json:"reason"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// VotingCode is a single-use credential granting ballot access for one
// (election, period, person) triple. Rows are never deleted.
type VotingCode struct {
	ID         int        `json:"id"`
	ElectionID int        `json:"election_id"`
	PeriodID   int        `json:"period_id"`
	PersonID   int        `json:"person_id"`
	Code       string     `json:"code"`
	Status     CodeStatus `json:"status"`
	IssuedBy   string     `json:"issued_by"`
	IssuedAt   time.Time  `json:"issued_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	RevokedBy  string     `json:"revoked_by,omitempty"`
	ExpiredAt  *time.Time `json:"expired_at,omitempty"`
	Remarks    string     `json:"remarks,omitempty"`
}

// ElectionVote is one ballot row. A voter has at most one CAST row per
// (election, position); revocation flips status in place, it never deletes.
type ElectionVote struct {
	ID          int        `json:"id"`
	ElectionID  int        `json:"election_id"`
	PeriodID    int        `json:"period_id"`
	PositionID  int        `json:"position_id"`
	CandidateID int        `json:"candidate_id"`
	VoterID     int        `json:"voter_id"`
	Status      VoteStatus `json:"status"`
	CastAt      time.Time  `json:"cast_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	Source      string     `json:"source,omitempty"`
}

// TallyRun is the write-once certification ledger entry for one
// (election, period) pair.
type TallyRun struct {
	ID            string      `json:"id"`
	ElectionID    int         `json:"election_id"`
	PeriodID      int         `json:"period_id"`
	Status        TallyStatus `json:"status"`
	StartedBy     string      `json:"started_by"`
	StartedAt     time.Time   `json:"started_at"`
	CompletedBy   string      `json:"completed_by,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	ResultHash    string      `json:"result_hash,omitempty"`
	FailureReason string      `json:"failure_reason,omitempty"`
}

// CertifiedPositionResult is the immutable per-position output of a COMPLETED
// tally run.
type CertifiedPositionResult struct {
	ID           int    `json:"id"`
	TallyRunID   string `json:"tally_run_id"`
	PositionID   int    `json:"position_id"`
	TotalBallots int    `json:"total_ballots"`
	Turnout      int    `json:"turnout"`
	Tie          bool   `json:"tie"`
}

// CertifiedCandidateResult is the immutable per-candidate output of a
// COMPLETED tally run.
type CertifiedCandidateResult struct {
	ID          int     `json:"id"`
	TallyRunID  string  `json:"tally_run_id"`
	PositionID  int     `json:"position_id"`
	CandidateID int     `json:"candidate_id"`
	Votes       int     `json:"votes"`
	Share       float64 `json:"share"`
	Rank        int     `json:"rank"`
	Winner      bool    `json:"winner"`
}

// WinnerAssignment is the authoritative winner row produced by a tally run.
// Tied positions produce no assignment; the tie is surfaced instead.
type WinnerAssignment struct {
	ID          int       `json:"id"`
	TallyRunID  string    `json:"tally_run_id"`
	ElectionID  int       `json:"election_id"`
	PositionID  int       `json:"position_id"`
	CandidateID int       `json:"candidate_id"`
	PersonID    int       `json:"person_id"`
	Votes       int       `json:"votes"`
	AssignedAt  time.Time `json:"assigned_at"`
}

// WSMessage represents a WebSocket event message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
