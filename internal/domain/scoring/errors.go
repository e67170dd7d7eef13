package scoring

import "errors"

// Sentinel kinds for entries the engine skips.
var (
	ErrMissingID           = errors.New("missing id")
	ErrUnparseableKickoff  = errors.New("unparseable kickoff")
	ErrDuplicatePrediction = errors.New("duplicate prediction for match")
)
