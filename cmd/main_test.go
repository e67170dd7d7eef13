package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/bolao/internal/adapters/repository"
	service "github.com/okian/bolao/internal/app"
	"github.com/okian/bolao/internal/config"
	"github.com/okian/bolao/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewStore(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()

		convey.Convey("Then a memory store is opened", func() {
			store, err := newStore(context.Background(), cfg)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close(context.Background()) }()
			_, ok := store.(*repository.MemoryStore)
			convey.So(ok, convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a mongo store that cannot be reached", t, func() {
		cfg := config.New()
		cfg.Store = "MONGO"
		cfg.Mongo.URI = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200"
		cfg.Mongo.Timeout = 500 * time.Millisecond

		convey.Convey("Then opening it fails", func() {
			_, err := newStore(context.Background(), cfg)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "open mongo store")
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a handler built from configuration", t, func() {
		cfg := config.New()
		cfg.MaxBodyBytes = 64

		svc := service.New(service.WithLogger(logger.Nop()))
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(cfg, svc)

		convey.Convey("Then the API routes are served", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			w = httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(`{}`)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("And the body limit is applied", func() {
			w := httptest.NewRecorder()
			body := `{"matches": [` + strings.Repeat(`{"id": 1},`, 20) + `{"id": 2}]}`
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(body)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusRequestEntityTooLarge)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a configuration on a free port", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.ShutdownTimeout = time.Second

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg, logger.Nop()) }()
			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then the server shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("run did not return")
				}
			})
		})
	})
}
