// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	service "github.com/okian/bolao/internal/app"
	"github.com/okian/bolao/internal/domain/model"
	"github.com/okian/bolao/internal/domain/scoring"
	"github.com/okian/bolao/internal/domain/types"
	"golang.org/x/time/rate"
)

const defaultMaxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoreDependencies
	RoundDependencies
	CardDependencies
}

// ScoreDependencies scores raw payloads.
type ScoreDependencies interface {
	ScoreRaw(ctx context.Context, matchesJSON, predictionsJSON []byte) (scoring.RoundScore, error)
}

// RoundDependencies manages rounds and their standings.
type RoundDependencies interface {
	CreateRound(ctx context.Context, in service.RoundInput) (model.Round, error)
	Round(ctx context.Context, id model.ID) (model.Round, error)
	UpdateResults(ctx context.Context, roundID model.ID, updates []model.ResultUpdate) (model.Round, error)
	CloseRound(ctx context.Context, id model.ID) (model.Round, error)
	Standings(ctx context.Context, roundID model.ID) ([]types.Standing, error)
}

// CardDependencies manages betting cards.
type CardDependencies interface {
	OpenCard(ctx context.Context, roundID, ownerID model.ID) (model.BettingCard, error)
	SubmitPredictions(ctx context.Context, cardID, ownerID model.ID, predictions []model.Prediction) (model.BettingCard, error)
	ScoreCard(ctx context.Context, cardID model.ID) (service.CardScore, error)
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRateLimit throttles mutating routes to rps requests per second with
// the given burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	limiter      *rate.Limiter
	maxBodyBytes int64

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	scoreHandler  *ScoreHandler
	roundsHandler *RoundsHandler
	cardsHandler  *CardsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(s)
	}
	body := bodyReader{limit: s.maxBodyBytes}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.scoreHandler = NewScoreHandler(deps, body)
	s.roundsHandler = NewRoundsHandler(deps, body)
	s.cardsHandler = NewCardsHandler(deps, body)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	limit := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(RateLimitMiddleware(h, endpoint, s.limiter), endpoint)
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /score", limit(s.scoreHandler.HandleScore, "score"))

	mux.HandleFunc("POST /rounds", limit(s.roundsHandler.HandleCreate, "rounds_create"))
	mux.HandleFunc("GET /rounds/{id}", MetricsMiddleware(s.roundsHandler.HandleGet, "rounds_get"))
	mux.HandleFunc("PUT /rounds/{id}/results", limit(s.roundsHandler.HandleResults, "rounds_results"))
	mux.HandleFunc("POST /rounds/{id}/close", limit(s.roundsHandler.HandleClose, "rounds_close"))
	mux.HandleFunc("GET /rounds/{id}/standings", MetricsMiddleware(s.roundsHandler.HandleStandings, "rounds_standings"))

	mux.HandleFunc("POST /rounds/{id}/cards", limit(s.cardsHandler.HandleOpen, "cards_open"))
	mux.HandleFunc("PUT /cards/{id}/predictions", limit(s.cardsHandler.HandlePredictions, "cards_predictions"))
	mux.HandleFunc("GET /cards/{id}/score", MetricsMiddleware(s.cardsHandler.HandleScore, "cards_score"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// bodyReader reads request bodies up to a size limit.
type bodyReader struct {
	limit int64
}

// read returns the whole body. An empty body is returned as nil.
func (b bodyReader) read(w http.ResponseWriter, r *http.Request, op string) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, b.limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, WrapKind(op, ErrPayloadTooLarge, err)
		}
		return nil, WrapKind(op, ErrBadRequest, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

// decode reads the body as JSON into v. An empty body is a bad request.
func (b bodyReader) decode(w http.ResponseWriter, r *http.Request, op string, v any) error {
	data, err := b.read(w, r, op)
	if err != nil {
		return err
	}
	if data == nil {
		return WrapKind(op, ErrBadRequest, errors.New("empty body"))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

// pathID returns the {id} path value, failing on a blank one.
func pathID(r *http.Request, op string) (model.ID, error) {
	id := model.ID(r.PathValue("id"))
	if id.Empty() {
		return "", WrapKind(op, ErrBadRequest, errors.New("missing id"))
	}
	return id, nil
}
