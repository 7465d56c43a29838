package services

import "fmt"

// Service errors
var (
	ErrVotingClosed            = &ServiceError{Message: "election is not open for voting"}
	ErrPeriodNotOpen           = &ServiceError{Message: "voting period is not open"}
	ErrCodeNotActive           = &ServiceError{Message: "voting code is not active"}
	ErrDuplicateActiveCode     = &ServiceError{Message: "an active voting code already exists for this voter"}
	ErrDuplicateVote           = &ServiceError{Message: "a cast ballot already exists for this voter and position"}
	ErrAlreadyCertified        = &ServiceError{Message: "results are already certified for this period"}
	ErrNoVotesCast             = &ServiceError{Message: "no votes have been cast for this position"}
	ErrCodeGenerationExhausted = &ServiceError{Message: "could not generate a unique voting code"}
	ErrConcurrencyConflict     = &ServiceError{Message: "a conflicting operation is in progress"}
	ErrCandidateMismatch       = &ServiceError{Message: "candidate does not belong to this position"}
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// IneligibleError reports why a person may not vote in an election. Rule
// names which tier produced the decision: override, membership or scope.
type IneligibleError struct {
	Rule   string
	Reason string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("not eligible to vote (%s): %s", e.Rule, e.Reason)
}

// InvalidTransitionError reports a rejected lifecycle status change
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %s to %s", e.Entity, e.From, e.To)
}
