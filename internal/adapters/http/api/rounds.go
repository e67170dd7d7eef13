package api

import (
	"net/http"

	service "github.com/okian/bolao/internal/app"
	"github.com/okian/bolao/internal/domain/envelope"
	"github.com/okian/bolao/internal/domain/model"
)

type createRoundRequest struct {
	ChampionshipID model.ID                  `json:"championshipId"`
	Name           string                    `json:"name"`
	Matches        envelope.Raw[model.Match] `json:"matches"`
}

// RoundsHandler handles round requests.
type RoundsHandler struct {
	deps RoundDependencies
	body bodyReader
}

// NewRoundsHandler creates a new rounds handler.
func NewRoundsHandler(deps RoundDependencies, body bodyReader) *RoundsHandler {
	return &RoundsHandler{deps: deps, body: body}
}

// HandleCreate handles POST /rounds requests. Every listed match must
// decode; a round is never created from a partial list.
func (h *RoundsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_round"
	var req createRoundRequest
	if err := h.body.decode(w, r, op, &req); err != nil {
		fail(w, err)
		return
	}
	matches, err := req.Matches.Items(envelope.WithForceSequence())
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	round, err := h.deps.CreateRound(r.Context(), service.RoundInput{
		ChampionshipID: req.ChampionshipID,
		Name:           req.Name,
		Matches:        matches,
	})
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

// HandleGet handles GET /rounds/{id} requests.
func (h *RoundsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_round"
	id, err := pathID(r, op)
	if err != nil {
		fail(w, err)
		return
	}
	round, err := h.deps.Round(r.Context(), id)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// HandleResults handles PUT /rounds/{id}/results requests. The body is a
// collection of result updates in any accepted shape.
func (h *RoundsHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_results"
	id, err := pathID(r, op)
	if err != nil {
		fail(w, err)
		return
	}
	data, err := h.body.read(w, r, op)
	if err != nil {
		fail(w, err)
		return
	}
	updates, err := envelope.Decode[model.ResultUpdate](data, envelope.WithForceSequence())
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	round, err := h.deps.UpdateResults(r.Context(), id, updates)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// HandleClose handles POST /rounds/{id}/close requests.
func (h *RoundsHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	const op = "api.close_round"
	id, err := pathID(r, op)
	if err != nil {
		fail(w, err)
		return
	}
	round, err := h.deps.CloseRound(r.Context(), id)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// HandleStandings handles GET /rounds/{id}/standings requests.
func (h *RoundsHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.standings"
	id, err := pathID(r, op)
	if err != nil {
		fail(w, err)
		return
	}
	standings, err := h.deps.Standings(r.Context(), id)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, standings)
}
