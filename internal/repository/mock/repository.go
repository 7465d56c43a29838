// Package mock provides a test double that wraps a real repository and
// allows injecting errors per method. Leave an error field nil and the call
// passes through; set it and the call fails without touching storage.
package mock

import (
	"context"
	"time"

	"synodvote/internal/models"
	"synodvote/internal/repository"
)

// Repository wraps a repository.FullRepository with per-method error injection
type Repository struct {
	Real repository.FullRepository

	CreatePersonError          error
	GetPersonError             error
	CreateElectionError        error
	GetElectionError           error
	UpdateElectionStatusError  error
	CreateVotingPeriodError    error
	GetVotingPeriodError       error
	UpdatePeriodStatusError    error
	CreatePositionError        error
	GetPositionError           error
	ListPositionsError         error
	CreateCandidateError       error
	GetCandidateError          error
	ListCandidatesError        error
	CreateMembershipError      error
	ListActiveMembershipsError error
	PutOverrideError           error
	GetOverrideError           error

	InsertCodeError        error
	GetCodeError           error
	GetCodeByValueError    error
	FindActiveCodeError    error
	MarkCodeUsedError      error
	RevokeCodeError        error
	ExpireActiveCodesError error

	InsertVoteError          error
	GetVoteError             error
	FindCastVoteError        error
	RevokeVoteError          error
	ReplaceCastVoteError     error
	TallyForPositionError    error
	CountDistinctVotersError error

	InsertTallyRunError                error
	GetTallyRunError                   error
	GetLiveTallyRunError               error
	CompleteCertificationError         error
	FailTallyRunError                  error
	RollbackTallyRunError              error
	ListCertifiedPositionResultsError  error
	ListCertifiedCandidateResultsError error
	ListWinnerAssignmentsError         error
}

var _ repository.FullRepository = (*Repository)(nil)

// New wraps the given repository
func New(real repository.FullRepository) *Repository {
	return &Repository{Real: real}
}

func (m *Repository) CreatePerson(ctx context.Context, fullName string) (int, error) {
	if m.CreatePersonError != nil {
		return 0, m.CreatePersonError
	}
	return m.Real.CreatePerson(ctx, fullName)
}

func (m *Repository) GetPerson(ctx context.Context, id int) (*models.Person, error) {
	if m.GetPersonError != nil {
		return nil, m.GetPersonError
	}
	return m.Real.GetPerson(ctx, id)
}

func (m *Repository) CreateElection(ctx context.Context, e models.Election) (int, error) {
	if m.CreateElectionError != nil {
		return 0, m.CreateElectionError
	}
	return m.Real.CreateElection(ctx, e)
}

func (m *Repository) GetElection(ctx context.Context, id int) (*models.Election, error) {
	if m.GetElectionError != nil {
		return nil, m.GetElectionError
	}
	return m.Real.GetElection(ctx, id)
}

func (m *Repository) UpdateElectionStatus(ctx context.Context, id int, status models.ElectionStatus) error {
	if m.UpdateElectionStatusError != nil {
		return m.UpdateElectionStatusError
	}
	return m.Real.UpdateElectionStatus(ctx, id, status)
}

func (m *Repository) CreateVotingPeriod(ctx context.Context, p models.VotingPeriod) (int, error) {
	if m.CreateVotingPeriodError != nil {
		return 0, m.CreateVotingPeriodError
	}
	return m.Real.CreateVotingPeriod(ctx, p)
}

func (m *Repository) GetVotingPeriod(ctx context.Context, id int) (*models.VotingPeriod, error) {
	if m.GetVotingPeriodError != nil {
		return nil, m.GetVotingPeriodError
	}
	return m.Real.GetVotingPeriod(ctx, id)
}

func (m *Repository) UpdatePeriodStatus(ctx context.Context, id int, status models.PeriodStatus) error {
	if m.UpdatePeriodStatusError != nil {
		return m.UpdatePeriodStatusError
	}
	return m.Real.UpdatePeriodStatus(ctx, id, status)
}

func (m *Repository) CreatePosition(ctx context.Context, p models.Position) (int, error) {
	if m.CreatePositionError != nil {
		return 0, m.CreatePositionError
	}
	return m.Real.CreatePosition(ctx, p)
}

func (m *Repository) GetPosition(ctx context.Context, id int) (*models.Position, error) {
	if m.GetPositionError != nil {
		return nil, m.GetPositionError
	}
	return m.Real.GetPosition(ctx, id)
}

func (m *Repository) ListPositions(ctx context.Context, electionID int) ([]models.Position, error) {
	if m.ListPositionsError != nil {
		return nil, m.ListPositionsError
	}
	return m.Real.ListPositions(ctx, electionID)
}

func (m *Repository) CreateCandidate(ctx context.Context, c models.Candidate) (int, error) {
	if m.CreateCandidateError != nil {
		return 0, m.CreateCandidateError
	}
	return m.Real.CreateCandidate(ctx, c)
}

func (m *Repository) GetCandidate(ctx context.Context, id int) (*models.Candidate, error) {
	if m.GetCandidateError != nil {
		return nil, m.GetCandidateError
	}
	return m.Real.GetCandidate(ctx, id)
}

func (m *Repository) ListCandidates(ctx context.Context, positionID int) ([]models.Candidate, error) {
	if m.ListCandidatesError != nil {
		return nil, m.ListCandidatesError
	}
	return m.Real.ListCandidates(ctx, positionID)
}

func (m *Repository) CreateMembership(ctx context.Context, mem models.FellowshipMembership) (int, error) {
	if m.CreateMembershipError != nil {
		return 0, m.CreateMembershipError
	}
	return m.Real.CreateMembership(ctx, mem)
}

func (m *Repository) ListActiveMemberships(ctx context.Context, personID, fellowshipID int) ([]models.FellowshipMembership, error) {
	if m.ListActiveMembershipsError != nil {
		return nil, m.ListActiveMembershipsError
	}
	return m.Real.ListActiveMemberships(ctx, personID, fellowshipID)
}

func (m *Repository) PutOverride(ctx context.Context, o models.VoterRollOverride) (int, error) {
	if m.PutOverrideError != nil {
		return 0, m.PutOverrideError
	}
	return m.Real.PutOverride(ctx, o)
}

func (m *Repository) GetOverride(ctx context.Context, electionID, personID int) (*models.VoterRollOverride, error) {
	if m.GetOverrideError != nil {
		return nil, m.GetOverrideError
	}
	return m.Real.GetOverride(ctx, electionID, personID)
}

func (m *Repository) InsertCode(ctx context.Context, c *models.VotingCode) (int, error) {
	if m.InsertCodeError != nil {
		return 0, m.InsertCodeError
	}
	return m.Real.InsertCode(ctx, c)
}

func (m *Repository) GetCode(ctx context.Context, id int) (*models.VotingCode, error) {
	if m.GetCodeError != nil {
		return nil, m.GetCodeError
	}
	return m.Real.GetCode(ctx, id)
}

func (m *Repository) GetCodeByValue(ctx context.Context, code string) (*models.VotingCode, error) {
	if m.GetCodeByValueError != nil {
		return nil, m.GetCodeByValueError
	}
	return m.Real.GetCodeByValue(ctx, code)
}

func (m *Repository) FindActiveCode(ctx context.Context, electionID, periodID, personID int) (*models.VotingCode, error) {
	if m.FindActiveCodeError != nil {
		return nil, m.FindActiveCodeError
	}
	return m.Real.FindActiveCode(ctx, electionID, periodID, personID)
}

func (m *Repository) MarkCodeUsed(ctx context.Context, id int, usedAt time.Time) error {
	if m.MarkCodeUsedError != nil {
		return m.MarkCodeUsedError
	}
	return m.Real.MarkCodeUsed(ctx, id, usedAt)
}

func (m *Repository) RevokeCode(ctx context.Context, id int, revokedBy, reason string, at time.Time) error {
	if m.RevokeCodeError != nil {
		return m.RevokeCodeError
	}
	return m.Real.RevokeCode(ctx, id, revokedBy, reason, at)
}

func (m *Repository) ExpireActiveCodes(ctx context.Context, electionID, periodID int, at time.Time) (int64, error) {
	if m.ExpireActiveCodesError != nil {
		return 0, m.ExpireActiveCodesError
	}
	return m.Real.ExpireActiveCodes(ctx, electionID, periodID, at)
}

func (m *Repository) InsertVote(ctx context.Context, v *models.ElectionVote) (int, error) {
	if m.InsertVoteError != nil {
		return 0, m.InsertVoteError
	}
	return m.Real.InsertVote(ctx, v)
}

func (m *Repository) GetVote(ctx context.Context, id int) (*models.ElectionVote, error) {
	if m.GetVoteError != nil {
		return nil, m.GetVoteError
	}
	return m.Real.GetVote(ctx, id)
}

func (m *Repository) FindCastVote(ctx context.Context, electionID, positionID, voterID int) (*models.ElectionVote, error) {
	if m.FindCastVoteError != nil {
		return nil, m.FindCastVoteError
	}
	return m.Real.FindCastVote(ctx, electionID, positionID, voterID)
}

func (m *Repository) RevokeVote(ctx context.Context, id int, at time.Time) error {
	if m.RevokeVoteError != nil {
		return m.RevokeVoteError
	}
	return m.Real.RevokeVote(ctx, id, at)
}

func (m *Repository) ReplaceCastVote(ctx context.Context, v *models.ElectionVote) (int, error) {
	if m.ReplaceCastVoteError != nil {
		return 0, m.ReplaceCastVoteError
	}
	return m.Real.ReplaceCastVote(ctx, v)
}

func (m *Repository) TallyForPosition(ctx context.Context, electionID, positionID int) ([]repository.CandidateTally, error) {
	if m.TallyForPositionError != nil {
		return nil, m.TallyForPositionError
	}
	return m.Real.TallyForPosition(ctx, electionID, positionID)
}

func (m *Repository) CountDistinctVoters(ctx context.Context, electionID, periodID int) (int, error) {
	if m.CountDistinctVotersError != nil {
		return 0, m.CountDistinctVotersError
	}
	return m.Real.CountDistinctVoters(ctx, electionID, periodID)
}

func (m *Repository) InsertTallyRun(ctx context.Context, run *models.TallyRun) error {
	if m.InsertTallyRunError != nil {
		return m.InsertTallyRunError
	}
	return m.Real.InsertTallyRun(ctx, run)
}

func (m *Repository) GetTallyRun(ctx context.Context, id string) (*models.TallyRun, error) {
	if m.GetTallyRunError != nil {
		return nil, m.GetTallyRunError
	}
	return m.Real.GetTallyRun(ctx, id)
}

func (m *Repository) GetLiveTallyRun(ctx context.Context, electionID, periodID int) (*models.TallyRun, error) {
	if m.GetLiveTallyRunError != nil {
		return nil, m.GetLiveTallyRunError
	}
	return m.Real.GetLiveTallyRun(ctx, electionID, periodID)
}

func (m *Repository) CompleteCertification(ctx context.Context, runID, completedBy string, at time.Time, resultHash string,
	positions []models.CertifiedPositionResult, candidates []models.CertifiedCandidateResult, winners []models.WinnerAssignment) error {
	if m.CompleteCertificationError != nil {
		return m.CompleteCertificationError
	}
	return m.Real.CompleteCertification(ctx, runID, completedBy, at, resultHash, positions, candidates, winners)
}

func (m *Repository) FailTallyRun(ctx context.Context, runID, reason string) error {
	if m.FailTallyRunError != nil {
		return m.FailTallyRunError
	}
	return m.Real.FailTallyRun(ctx, runID, reason)
}

func (m *Repository) RollbackTallyRun(ctx context.Context, runID string) error {
	if m.RollbackTallyRunError != nil {
		return m.RollbackTallyRunError
	}
	return m.Real.RollbackTallyRun(ctx, runID)
}

func (m *Repository) ListCertifiedPositionResults(ctx context.Context, runID string) ([]models.CertifiedPositionResult, error) {
	if m.ListCertifiedPositionResultsError != nil {
		return nil, m.ListCertifiedPositionResultsError
	}
	return m.Real.ListCertifiedPositionResults(ctx, runID)
}

func (m *Repository) ListCertifiedCandidateResults(ctx context.Context, runID string) ([]models.CertifiedCandidateResult, error) {
	if m.ListCertifiedCandidateResultsError != nil {
		return nil, m.ListCertifiedCandidateResultsError
	}
	return m.Real.ListCertifiedCandidateResults(ctx, runID)
}

func (m *Repository) ListWinnerAssignments(ctx context.Context, runID string) ([]models.WinnerAssignment, error) {
	if m.ListWinnerAssignmentsError != nil {
		return nil, m.ListWinnerAssignmentsError
	}
	return m.Real.ListWinnerAssignments(ctx, runID)
}

func (m *Repository) Ping(ctx context.Context) error {
	return m.Real.Ping(ctx)
}

func (m *Repository) Close() error {
	return m.Real.Close()
}
