package api

import (
	"net/http"

	"github.com/okian/bolao/internal/domain/envelope"
	"github.com/okian/bolao/internal/domain/model"
)

// scoreRequest carries raw match and prediction collections. Each may be a
// list, a $id/$values wrapper, a single object or null.
type scoreRequest struct {
	Matches     envelope.Raw[model.Match]      `json:"matches"`
	Predictions envelope.Raw[model.Prediction] `json:"predictions"`
}

// ScoreHandler scores payloads without storing anything.
type ScoreHandler struct {
	deps ScoreDependencies
	body bodyReader
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies, body bodyReader) *ScoreHandler {
	return &ScoreHandler{deps: deps, body: body}
}

// HandleScore handles POST /score requests.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	var req scoreRequest
	if err := h.body.decode(w, r, op, &req); err != nil {
		fail(w, err)
		return
	}
	res, err := h.deps.ScoreRaw(r.Context(), req.Matches.Bytes(), req.Predictions.Bytes())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
