package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"synodvote/internal/errors"
	"synodvote/internal/repository"
	"synodvote/internal/services"
)

// Error codes for standardized API error responses
const (
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInternalServer    = "INTERNAL_SERVER_ERROR"
	ErrCodeNotEligible       = "NOT_ELIGIBLE"
	ErrCodeVotingClosed      = "VOTING_CLOSED"
	ErrCodePeriodNotOpen     = "PERIOD_NOT_OPEN"
	ErrCodeInvalidCode       = "INVALID_VOTING_CODE"
	ErrCodeAlreadyVoted      = "ALREADY_VOTED"
	ErrCodeAlreadyCertified  = "ALREADY_CERTIFIED"
	ErrCodeNoVotes           = "NO_VOTES_CAST"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
)

// APIError represents an error with an HTTP status code and error code
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error with custom message and code
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error with custom message
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// NotFound creates a 404 error with custom message
func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a 409 error with custom message
func Conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: ErrCodeConflict, Message: message}
}

// Forbidden creates a 403 error with custom message and code
func Forbidden(code, message string) *APIError {
	return &APIError{Status: http.StatusForbidden, Code: code, Message: message}
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

// respondCreated writes a 201 Created JSON response
func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, data)
}

// respondSuccess writes a 200 OK with a message
func respondSuccess(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// respondError writes an error response
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*APIError); ok {
		respondJSON(w, apiErr.Status, apiErr)
		return
	}
	apiErr := h.toAPIError(err)
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes JSON from request body into the target
func decodeJSON(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if err == io.EOF {
			return BadRequest("Request body is empty")
		}
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

// parseIntParam extracts and parses an integer URL parameter
func parseIntParam(r *http.Request, name string) (int, error) {
	param := chi.URLParam(r, name)
	if param == "" {
		return 0, BadRequest("Missing " + name + " parameter")
	}
	id, err := strconv.Atoi(param)
	if err != nil {
		return 0, BadRequest("Invalid " + name + " parameter")
	}
	return id, nil
}

// toAPIError converts service errors to appropriate API errors
func (h *Handlers) toAPIError(err error) *APIError {
	var ineligible *services.IneligibleError
	if stderrors.As(err, &ineligible) {
		return Forbidden(ErrCodeNotEligible, ineligible.Error())
	}
	var transition *services.InvalidTransitionError
	if stderrors.As(err, &transition) {
		return &APIError{Status: http.StatusConflict, Code: ErrCodeInvalidTransition, Message: transition.Error()}
	}

	switch {
	case stderrors.Is(err, services.ErrVotingClosed):
		return &APIError{Status: http.StatusBadRequest, Code: ErrCodeVotingClosed, Message: err.Error()}
	case stderrors.Is(err, services.ErrPeriodNotOpen):
		return &APIError{Status: http.StatusBadRequest, Code: ErrCodePeriodNotOpen, Message: err.Error()}
	case stderrors.Is(err, services.ErrCodeNotActive):
		return &APIError{Status: http.StatusBadRequest, Code: ErrCodeInvalidCode, Message: err.Error()}
	case stderrors.Is(err, services.ErrDuplicateVote):
		return &APIError{Status: http.StatusConflict, Code: ErrCodeAlreadyVoted, Message: err.Error()}
	case stderrors.Is(err, services.ErrDuplicateActiveCode):
		return Conflict(err.Error())
	case stderrors.Is(err, services.ErrAlreadyCertified):
		return &APIError{Status: http.StatusConflict, Code: ErrCodeAlreadyCertified, Message: err.Error()}
	case stderrors.Is(err, services.ErrConcurrencyConflict):
		return Conflict(err.Error())
	case stderrors.Is(err, services.ErrNoVotesCast):
		return &APIError{Status: http.StatusBadRequest, Code: ErrCodeNoVotes, Message: err.Error()}
	case stderrors.Is(err, repository.ErrNotFound):
		return NotFound("Not found")
	}

	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		switch appErr.Kind {
		case errors.ErrNotFound:
			return NotFound(appErr.Message)
		case errors.ErrValidation, errors.ErrInvalidInput:
			return &APIError{Status: http.StatusBadRequest, Code: ErrCodeValidation, Message: appErr.Message}
		case errors.ErrConflict:
			return Conflict(appErr.Message)
		case errors.ErrForbidden:
			return Forbidden(ErrCodeNotEligible, appErr.Message)
		}
	}

	var svcErr *services.ServiceError
	if stderrors.As(err, &svcErr) {
		return BadRequest(svcErr.Message)
	}

	h.Log.Error("internal error", "error", err)
	return &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
}
