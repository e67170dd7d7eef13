package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/bolao/internal/adapters/http/api"
	service "github.com/okian/bolao/internal/app"
	"github.com/okian/bolao/internal/domain/model"
	"github.com/okian/bolao/internal/domain/types"
	"github.com/okian/bolao/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

// brokenDeps fails every round lookup. Other methods are not expected to be
// reached and panic through the nil embedded interface.
type brokenDeps struct {
	api.Dependencies
}

func (brokenDeps) Round(context.Context, model.ID) (model.Round, error) {
	return model.Round{}, errors.New("storage offline")
}

func newTestMux(t *testing.T, opts ...api.ServerOption) (*http.ServeMux, *service.Service) {
	t.Helper()
	svc := service.New(service.WithLogger(logger.Nop()))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc, opts...).Register(mux)
	return mux, svc
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type scoreBody struct {
	TotalPoints int `json:"totalPoints"`
	Pending     int `json:"pending"`
	ExactHits   int `json:"exactHits"`
	Matches     []struct {
		ID                  string `json:"id"`
		Points              int    `json:"points"`
		OfficialResultKnown bool   `json:"officialResultKnown"`
		Kickoff             string `json:"kickoff"`
	} `json:"scoredMatches"`
}

const roundBody = `{
	"championshipId": 2025,
	"name": "Rodada 1",
	"matches": {"$id": "1", "$values": [
		{"id": "m2", "homeTeamName": "Bahia", "awayTeamName": "Vitoria", "kickoffDate": "30/03/2025", "kickoffTime": "16h00", "status": "agendado"},
		{"id": "m1", "homeTeamName": "Gremio", "awayTeamName": "Inter", "officialHomeScore": 2, "officialAwayScore": 1, "kickoffDate": "2025-03-29T18:30:00", "status": "encerrado"}
	]}
}`

func TestServer_Routes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, _ := newTestMux(t)

		Convey("Then the health endpoint serves the metrics registry", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "bolao_pool_")
		})

		Convey("And stats reports the running service", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			decodeBody(w, &stats)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("And unknown paths are not found", func() {
			So(do(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And wrong methods are refused", func() {
			So(do(mux, http.MethodGet, "/score", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(do(mux, http.MethodDelete, "/rounds/r1", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestServer_Score(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, _ := newTestMux(t)

		Convey("When scoring wrapped and plain payloads together", func() {
			w := do(mux, http.MethodPost, "/score", `{
				"matches": {"$id": "7", "$values": [
					{"id": 2, "officialHomeScore": 3, "officialAwayScore": 1, "kickoffDate": "29/03/2025", "kickoffTime": "18:30"},
					{"id": 1, "officialHomeScore": 2, "officialAwayScore": 1, "kickoffDate": "29/03/2025", "kickoffTime": "16:00"}
				]},
				"predictions": [
					{"matchId": 1, "predictedHomeScore": 2, "predictedAwayScore": 1},
					{"matchId": 2, "predictedHomeScore": 2, "predictedAwayScore": 0}
				]
			}`)

			Convey("Then points are summed in kickoff order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res scoreBody
				decodeBody(w, &res)
				So(res.TotalPoints, ShouldEqual, 10)
				So(res.ExactHits, ShouldEqual, 1)
				So(len(res.Matches), ShouldEqual, 2)
				So(res.Matches[0].ID, ShouldEqual, "1")
				So(res.Matches[0].Points, ShouldEqual, 7)
				So(res.Matches[1].Points, ShouldEqual, 3)
			})
		})

		Convey("When the payloads are absent", func() {
			w := do(mux, http.MethodPost, "/score", `{"matches": null}`)

			Convey("Then an empty score comes back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res scoreBody
				decodeBody(w, &res)
				So(res.Matches, ShouldBeEmpty)
				So(res.TotalPoints, ShouldEqual, 0)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/score", `{"matches": [`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var e errorBody
				decodeBody(w, &e)
				So(e.Code, ShouldEqual, "bad_request")
				So(e.Message, ShouldContainSubstring, "api.score")
			})
		})

		Convey("When the body is empty", func() {
			So(do(mux, http.MethodPost, "/score", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServer_RoundLifecycle(t *testing.T) {
	Convey("Given a round created over HTTP", t, func() {
		mux, _ := newTestMux(t)

		w := do(mux, http.MethodPost, "/rounds", roundBody)
		So(w.Code, ShouldEqual, http.StatusCreated)
		var round model.Round
		decodeBody(w, &round)
		So(round.ID.Empty(), ShouldBeFalse)
		So(round.ChampionshipID, ShouldEqual, model.ID("2025"))
		So(round.Status, ShouldEqual, model.RoundOpen)
		So(len(round.Matches), ShouldEqual, 2)
		So(round.Matches[1].Status, ShouldEqual, model.StatusFinished)

		roundPath := "/rounds/" + round.ID.String()

		w = do(mux, http.MethodPost, roundPath+"/cards", `{"ownerId": "ana"}`)
		So(w.Code, ShouldEqual, http.StatusCreated)
		var card model.BettingCard
		decodeBody(w, &card)
		So(card.OwnerID, ShouldEqual, model.ID("ana"))
		So(card.RoundID, ShouldEqual, round.ID)

		cardPath := "/cards/" + card.ID.String()

		Convey("When reading the round back", func() {
			w := do(mux, http.MethodGet, roundPath, "")

			Convey("Then it matches what was created", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got model.Round
				decodeBody(w, &got)
				So(got.ID, ShouldEqual, round.ID)
				So(got.Name, ShouldEqual, "Rodada 1")
			})
		})

		Convey("When the owner submits predictions", func() {
			w := do(mux, http.MethodPut, cardPath+"/predictions", `{
				"ownerId": "ana",
				"predictions": {"$id": "3", "$values": [
					{"matchId": "m1", "predictedHomeScore": 2, "predictedAwayScore": 1},
					{"matchId": "m2", "predictedHomeScore": 1, "predictedAwayScore": 0}
				]}
			}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			Convey("Then the card scores the known result only", func() {
				w := do(mux, http.MethodGet, cardPath+"/score", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var res scoreBody
				decodeBody(w, &res)
				So(res.TotalPoints, ShouldEqual, 7)
				So(res.Pending, ShouldEqual, 1)
				So(res.Matches[0].ID, ShouldEqual, "m1")
				So(res.Matches[0].Kickoff, ShouldEqual, "2025-03-29 18:30")
				So(res.Matches[1].OfficialResultKnown, ShouldBeFalse)
			})

			Convey("And a posted result is picked up by standings", func() {
				w := do(mux, http.MethodPut, roundPath+"/results",
					`[{"id": "m2", "officialHomeScore": 2, "officialAwayScore": 0, "status": "finished"}]`)
				So(w.Code, ShouldEqual, http.StatusOK)

				w = do(mux, http.MethodGet, roundPath+"/standings", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var standings []types.Standing
				decodeBody(w, &standings)
				So(len(standings), ShouldEqual, 1)
				So(standings[0].Rank, ShouldEqual, 1)
				So(standings[0].OwnerID, ShouldEqual, "ana")
				So(standings[0].TotalPoints, ShouldEqual, 11)
				So(standings[0].Pending, ShouldEqual, 0)

				Convey("And a status-only update leaves the scores alone", func() {
					w := do(mux, http.MethodPut, roundPath+"/results", `{"id": "m2", "status": "final"}`)
					So(w.Code, ShouldEqual, http.StatusOK)
					var updated model.Round
					decodeBody(w, &updated)
					So(updated.Matches[1].Status, ShouldEqual, model.StatusFinished)
					So(updated.Matches[1].OfficialHomeScore, ShouldNotBeNil)
					So(*updated.Matches[1].OfficialHomeScore, ShouldEqual, 2)

					w = do(mux, http.MethodGet, roundPath+"/standings", "")
					decodeBody(w, &standings)
					So(standings[0].TotalPoints, ShouldEqual, 11)
				})

				Convey("And clearResult takes the result back", func() {
					w := do(mux, http.MethodPut, roundPath+"/results", `[{"id": "m2", "clearResult": true}]`)
					So(w.Code, ShouldEqual, http.StatusOK)

					w = do(mux, http.MethodGet, roundPath+"/standings", "")
					decodeBody(w, &standings)
					So(standings[0].TotalPoints, ShouldEqual, 7)
					So(standings[0].Pending, ShouldEqual, 1)
				})
			})

			Convey("And another participant cannot edit the card", func() {
				w := do(mux, http.MethodPut, cardPath+"/predictions",
					`{"ownerId": "bia", "predictions": [{"matchId": "m1", "predictedHomeScore": 0, "predictedAwayScore": 0}]}`)
				So(w.Code, ShouldEqual, http.StatusForbidden)
			})
		})

		Convey("When a prediction targets a match outside the round", func() {
			w := do(mux, http.MethodPut, cardPath+"/predictions",
				`{"ownerId": "ana", "predictions": [{"matchId": "m9", "predictedHomeScore": 1, "predictedAwayScore": 1}]}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the round is closed", func() {
			w := do(mux, http.MethodPost, roundPath+"/close", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var closed model.Round
			decodeBody(w, &closed)
			So(closed.Status, ShouldEqual, model.RoundClosed)

			Convey("Then predictions and new cards conflict", func() {
				w := do(mux, http.MethodPut, cardPath+"/predictions",
					`{"ownerId": "ana", "predictions": [{"matchId": "m1", "predictedHomeScore": 1, "predictedAwayScore": 1}]}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				var e errorBody
				decodeBody(w, &e)
				So(e.Code, ShouldEqual, "round_closed")

				So(do(mux, http.MethodPost, roundPath+"/cards", `{"ownerId": "bia"}`).Code, ShouldEqual, http.StatusConflict)
			})

			Convey("And results are still accepted", func() {
				w := do(mux, http.MethodPut, roundPath+"/results",
					`{"id": "m2", "officialHomeScore": 0, "officialAwayScore": 0}`)
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When a result names an unknown match", func() {
			w := do(mux, http.MethodPut, roundPath+"/results", `[{"id": "nope", "officialHomeScore": 1, "officialAwayScore": 0}]`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a card is opened without an owner", func() {
			So(do(mux, http.MethodPost, roundPath+"/cards", `{}`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given unknown records", t, func() {
		mux, _ := newTestMux(t)

		Convey("Then lookups are not found", func() {
			So(do(mux, http.MethodGet, "/rounds/missing", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/rounds/missing/standings", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/cards/missing/score", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/rounds/missing/close", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a round with a malformed match", t, func() {
		mux, _ := newTestMux(t)

		w := do(mux, http.MethodPost, "/rounds", `{"name": "x", "matches": [{"id": "m1"}, {"id": {"bad": true}}]}`)

		Convey("Then nothing is created", func() {
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServer_Limits(t *testing.T) {
	Convey("Given a server with a small body limit", t, func() {
		mux, _ := newTestMux(t, api.WithMaxBodyBytes(16))

		Convey("When the body is larger", func() {
			w := do(mux, http.MethodPost, "/score", `{"matches": [], "predictions": []}`)

			Convey("Then it is rejected as too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				var e errorBody
				decodeBody(w, &e)
				So(e.Code, ShouldEqual, "payload_too_large")
			})
		})
	})

	Convey("Given a server allowing one request", t, func() {
		mux, _ := newTestMux(t, api.WithRateLimit(0.001, 1))

		Convey("When two writes arrive back to back", func() {
			first := do(mux, http.MethodPost, "/score", `{}`)
			second := do(mux, http.MethodPost, "/score", `{}`)

			Convey("Then the second is throttled", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(second.Code, ShouldEqual, http.StatusTooManyRequests)
				So(second.Header().Get("Retry-After"), ShouldEqual, "1")
			})

			Convey("And reads are not throttled", func() {
				So(do(mux, http.MethodGet, "/stats", "").Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestServer_InternalErrors(t *testing.T) {
	Convey("Given dependencies that fail", t, func() {
		mux := http.NewServeMux()
		api.NewServer(brokenDeps{}, &mockStatsProvider{stats: map[string]interface{}{"ok": true}}).Register(mux)

		Convey("Then the failure is reported as an internal error", func() {
			w := do(mux, http.MethodGet, "/rounds/r1", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			var e errorBody
			decodeBody(w, &e)
			So(e.Code, ShouldEqual, "internal_error")
			So(e.Message, ShouldContainSubstring, "api.get_round")
		})

		Convey("And stats come from the provider", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			var stats map[string]interface{}
			decodeBody(w, &stats)
			So(stats["ok"], ShouldEqual, true)
		})
	})
}
