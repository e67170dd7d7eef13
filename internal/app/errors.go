package service

import (
	"errors"

	"github.com/okian/bolao/internal/adapters/repository"
)

// Sentinel kinds returned by Service operations.
var (
	ErrNotFound          = repository.ErrNotFound
	ErrNotStarted        = errors.New("service not started")
	ErrRoundClosed       = errors.New("round is closed")
	ErrForbidden         = errors.New("card belongs to another participant")
	ErrInvalidPrediction = errors.New("invalid prediction")
	ErrInvalidRound      = errors.New("invalid round")
	ErrInvalidOwner      = errors.New("owner id is required")
	ErrInvalidPayload    = errors.New("invalid payload")
	ErrUnknownMatch      = errors.New("match is not part of the round")
)

// errorKind labels err for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrRoundClosed):
		return "round_closed"
	case errors.Is(err, ErrInvalidPrediction), errors.Is(err, ErrInvalidRound),
		errors.Is(err, ErrInvalidOwner), errors.Is(err, ErrInvalidPayload),
		errors.Is(err, ErrUnknownMatch):
		return "invalid_input"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	default:
		return "internal"
	}
}
