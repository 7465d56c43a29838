package services

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"math/big"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"synodvote/internal/locking"
	"synodvote/internal/logger"
	"synodvote/internal/models"
	"synodvote/internal/repository"
)

// Code strings avoid characters that misread when printed: no 0/O, 1/I/L.
const (
	codeAlphabet    = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength      = 8
	maxCodeAttempts = 8
)

// CodeServiceRepository defines the repository methods needed by CodeService
type CodeServiceRepository interface {
	repository.CodeRepository
	GetElection(ctx context.Context, id int) (*models.Election, error)
	GetVotingPeriod(ctx context.Context, id int) (*models.VotingPeriod, error)
}

// CodeService issues and manages single-use voting codes. A voter holds at
// most one ACTIVE code per voting period; every terminal state (USED,
// REVOKED, EXPIRED) keeps its row for the audit trail.
type CodeService struct {
	log         logger.Logger
	repo        CodeServiceRepository
	eligibility EligibilityServicer
	locks       *locking.KeyMutex
}

// NewCodeService creates a new CodeService
func NewCodeService(log logger.Logger, repo CodeServiceRepository, eligibility EligibilityServicer, locks *locking.KeyMutex) *CodeService {
	return &CodeService{log: log, repo: repo, eligibility: eligibility, locks: locks}
}

// Issue creates an ACTIVE voting code for an eligible voter. The period may
// be SCHEDULED or OPEN so codes can be distributed ahead of opening, but not
// past its end time. Returns ErrDuplicateActiveCode if one already exists.
func (s *CodeService) Issue(ctx context.Context, electionID, periodID, personID int, issuedBy string) (*models.VotingCode, error) {
	period, err := s.checkIssuePeriod(ctx, electionID, periodID)
	if err != nil {
		return nil, err
	}
	if err := s.eligibility.CheckEligible(ctx, electionID, periodID, personID); err != nil {
		return nil, err
	}

	release := s.locks.Lock(locking.CodeKey(electionID, periodID, personID))
	defer release()

	return s.issueLocked(ctx, period, personID, issuedBy)
}

// issueLocked generates and persists a code. Callers hold the code lock for
// (election, period, person). The partial unique index backs the lock up:
// a racing insert surfaces as ErrDuplicate and maps to the same conflict.
func (s *CodeService) issueLocked(ctx context.Context, period *models.VotingPeriod, personID int, issuedBy string) (*models.VotingCode, error) {
	if _, err := s.repo.FindActiveCode(ctx, period.ElectionID, period.ID, personID); err == nil {
		return nil, ErrDuplicateActiveCode
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		value, err := generateCode()
		if err != nil {
			return nil, err
		}
		code := &models.VotingCode{
			ElectionID: period.ElectionID,
			PeriodID:   period.ID,
			PersonID:   personID,
			Code:       value,
			Status:     models.CodeActive,
			IssuedBy:   issuedBy,
			IssuedAt:   time.Now(),
		}
		id, err := s.repo.InsertCode(ctx, code)
		if stderrors.Is(err, repository.ErrCodeCollision) {
			continue
		}
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateActiveCode
		}
		if err != nil {
			return nil, err
		}
		code.ID = id
		s.log.Info("voting code issued",
			"election_id", period.ElectionID, "period_id", period.ID, "person_id", personID, "issued_by", issuedBy)
		return code, nil
	}
	s.log.Error("voting code generation exhausted",
		"election_id", period.ElectionID, "period_id", period.ID, "person_id", personID, "attempts", maxCodeAttempts)
	return nil, ErrCodeGenerationExhausted
}

// Validate checks that a presented code string is ACTIVE and its period is
// OPEN with the current time inside its window, returning the code record on
// success.
func (s *CodeService) Validate(ctx context.Context, value string) (*models.VotingCode, error) {
	code, err := s.repo.GetCodeByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	if code.Status != models.CodeActive {
		return nil, ErrCodeNotActive
	}
	if err := s.checkUsablePeriod(ctx, code.PeriodID); err != nil {
		return nil, err
	}
	return code, nil
}

// MarkUsed consumes a code after its ballot is accepted. Re-marking a USED
// code is a no-op; the period window is re-validated at marking time and the
// guarded update keeps consumption single-use under concurrent presentation.
func (s *CodeService) MarkUsed(ctx context.Context, codeID int) error {
	code, err := s.repo.GetCode(ctx, codeID)
	if err != nil {
		return err
	}
	if code.Status == models.CodeUsed {
		return nil
	}
	if code.Status != models.CodeActive {
		return ErrCodeNotActive
	}
	if err := s.checkUsablePeriod(ctx, code.PeriodID); err != nil {
		return err
	}
	err = s.repo.MarkCodeUsed(ctx, codeID, time.Now())
	if stderrors.Is(err, repository.ErrStale) {
		// lost a race; still a no-op if the winner marked it USED
		code, readErr := s.repo.GetCode(ctx, codeID)
		if readErr == nil && code.Status == models.CodeUsed {
			return nil
		}
		return ErrCodeNotActive
	}
	return err
}

// Revoke invalidates an ACTIVE code with an actor and reason
func (s *CodeService) Revoke(ctx context.Context, codeID int, revokedBy, reason string) error {
	err := s.repo.RevokeCode(ctx, codeID, revokedBy, reason, time.Now())
	if stderrors.Is(err, repository.ErrStale) {
		return ErrCodeNotActive
	}
	if err != nil {
		return err
	}
	s.log.Info("voting code revoked", "code_id", codeID, "by", revokedBy, "reason", reason)
	return nil
}

// Regenerate revokes the voter's current ACTIVE code, if any, and issues a
// fresh one. The whole exchange holds the code lock so no window exists in
// which two ACTIVE codes could be observed.
func (s *CodeService) Regenerate(ctx context.Context, electionID, periodID, personID int, actor, reason string) (*models.VotingCode, error) {
	period, err := s.checkIssuePeriod(ctx, electionID, periodID)
	if err != nil {
		return nil, err
	}
	if err := s.eligibility.CheckEligible(ctx, electionID, periodID, personID); err != nil {
		return nil, err
	}

	release := s.locks.Lock(locking.CodeKey(electionID, periodID, personID))
	defer release()

	existing, err := s.repo.FindActiveCode(ctx, electionID, periodID, personID)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if err := s.repo.RevokeCode(ctx, existing.ID, actor, reason, time.Now()); err != nil {
			return nil, err
		}
	}
	return s.issueLocked(ctx, period, personID, actor)
}

// ExpireForPeriod bulk-expires every ACTIVE code of a period. Called when
// the period closes; returns how many codes were expired.
func (s *CodeService) ExpireForPeriod(ctx context.Context, electionID, periodID int) (int64, error) {
	n, err := s.repo.ExpireActiveCodes(ctx, electionID, periodID, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired active voting codes", "election_id", electionID, "period_id", periodID, "count", n)
	}
	return n, nil
}

// CodeQRImage renders a code's QR image as PNG bytes
func (s *CodeService) CodeQRImage(ctx context.Context, value string, size int) ([]byte, error) {
	if _, err := s.repo.GetCodeByValue(ctx, value); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(value, qrcode.Medium, size)
}

// checkIssuePeriod gates Issue and Regenerate: the election must not have
// concluded and the period must be SCHEDULED or OPEN with its end still ahead.
func (s *CodeService) checkIssuePeriod(ctx context.Context, electionID, periodID int) (*models.VotingPeriod, error) {
	election, err := s.repo.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	switch election.Status {
	case models.ElectionVotingClosed, models.ElectionTallied, models.ElectionPublished, models.ElectionCancelled:
		return nil, ErrVotingClosed
	}
	period, err := s.repo.GetVotingPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.ElectionID != electionID {
		return nil, &ServiceError{Message: "voting period does not belong to this election"}
	}
	if period.Status != models.PeriodScheduled && period.Status != models.PeriodOpen {
		return nil, ErrPeriodNotOpen
	}
	if !time.Now().Before(period.EndsAt) {
		return nil, ErrPeriodNotOpen
	}
	return period, nil
}

// checkUsablePeriod gates Validate and MarkUsed: the period must be OPEN and
// the current time within [start, end).
func (s *CodeService) checkUsablePeriod(ctx context.Context, periodID int) error {
	period, err := s.repo.GetVotingPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	if period.Status != models.PeriodOpen {
		return ErrPeriodNotOpen
	}
	now := time.Now()
	if now.Before(period.StartsAt) || !now.Before(period.EndsAt) {
		return ErrPeriodNotOpen
	}
	return nil
}

// generateCode draws codeLength characters from the unambiguous alphabet
// using crypto/rand.
func generateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
