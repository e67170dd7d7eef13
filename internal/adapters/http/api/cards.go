package api

import (
	"net/http"

	"github.com/okian/bolao/internal/domain/envelope"
	"github.com/okian/bolao/internal/domain/model"
)

type openCardRequest struct {
	OwnerID model.ID `json:"ownerId"`
}

type predictionsRequest struct {
	OwnerID     model.ID                       `json:"ownerId"`
	Predictions envelope.Raw[model.Prediction] `json:"predictions"`
}

// CardsHandler handles betting card requests.
type CardsHandler struct {
	deps CardDependencies
	body bodyReader
}

// NewCardsHandler creates a new cards handler.
func NewCardsHandler(deps CardDependencies, body bodyReader) *CardsHandler {
	return &CardsHandler{deps: deps, body: body}
}

// HandleOpen handles POST /rounds/{id}/cards requests.
func (h *CardsHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	const op = "api.open_card"
	roundID, err := pathID(r, op)
	if err != nil {
		fail(w, err)
		return
	}
	var req openCardRequest
	if err := h.body.decode(w, r, op, &req); err != nil {
		fail(w, err)
		return
	}
	card, err := h.deps.OpenCard(r.Context(), roundID, req.OwnerID)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// HandlePredictions handles PUT /cards/{id}/predictions requests.
func (h *CardsHandler) HandlePredictions(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_predictions"
	cardID, err := pathID(r, op)
	if err != nil {
		fail(w, err)
		return
	}
	var req predictionsRequest
	if err := h.body.decode(w, r, op, &req); err != nil {
		fail(w, err)
		return
	}
	predictions, err := req.Predictions.Items(envelope.WithForceSequence())
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	card, err := h.deps.SubmitPredictions(r.Context(), cardID, req.OwnerID, predictions)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// HandleScore handles GET /cards/{id}/score requests.
func (h *CardsHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_card"
	cardID, err := pathID(r, op)
	if err != nil {
		fail(w, err)
		return
	}
	res, err := h.deps.ScoreCard(r.Context(), cardID)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
