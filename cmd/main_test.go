package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/tally/internal/adapters/chat"
	"github.com/okian/tally/internal/adapters/http/api"
	"github.com/okian/tally/internal/adapters/http/swagger"
	"github.com/okian/tally/internal/adapters/repository"
	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/config"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			t.Setenv("TALLY_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
			t.Setenv("TALLY_ADDR", ":8080")
			t.Setenv("TALLY_CHANNEL_ID", "42")
			t.Setenv("TALLY_QUEUE_SIZE", "1000")
			t.Setenv("TALLY_WORKER_COUNT", "4")

			cfg, err := config.Load(context.Background())

			convey.Convey("Then configuration should be loadable", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ChannelID, convey.ShouldEqual, int64(42))
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.IgnoreRepeatedUsers, convey.ShouldBeNil)
			})
		})

		convey.Convey("When building service options", func() {
			cfg := config.New()
			cfg.ChannelID = 42

			convey.Convey("Then the turn-order override is only added when configured", func() {
				base := serviceOptions(cfg, logger.NewNop())
				ignore := false
				cfg.IgnoreRepeatedUsers = &ignore
				withOverride := serviceOptions(cfg, logger.NewNop())

				convey.So(len(withOverride), convey.ShouldEqual, len(base)+1)
			})
		})

		convey.Convey("When choosing a messenger", func() {
			cfg := config.New()

			convey.Convey("Then feedback is logged without a webhook", func() {
				_, ok := newMessenger(cfg, logger.NewNop()).(*chat.LogMessenger)
				convey.So(ok, convey.ShouldBeTrue)
			})

			convey.Convey("Then feedback is posted when a webhook is configured", func() {
				cfg.WebhookURL = "http://127.0.0.1:1/hook"
				_, ok := newMessenger(cfg, logger.NewNop()).(*chat.WebhookMessenger)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics update", func() {
			svc := service.New(repository.NewMemoryStore(), service.WithLogger(logger.NewNop()))

			convey.Convey("Then it should work before the service starts", func() {
				convey.So(func() {
					updateServiceMetrics(svc)
				}, convey.ShouldNotPanic)
			})

			convey.Convey("Then it should work while the service runs", func() {
				ctx := context.Background()
				h := service.NewHandler(svc, 42, chat.NewRecorder(), service.WithHandlerLogger(logger.NewNop()))
				convey.So(svc.Start(ctx, h), convey.ShouldBeNil)
				defer func() { _ = svc.Stop(ctx) }()

				convey.So(func() {
					updateServiceMetrics(svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given the wired application", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.ChannelID = 42
		cfg.DataPath = filepath.Join(t.TempDir(), "count.json")

		log := logger.NewNop()
		store := repository.NewFileStore(cfg.DataPath)
		svc := service.New(store, serviceOptions(cfg, log)...)
		rec := chat.NewRecorder()
		h := service.NewHandler(svc, model.ChannelID(cfg.ChannelID), rec, service.WithHandlerLogger(log))
		convey.So(svc.Start(ctx, h), convey.ShouldBeNil)

		mux := http.NewServeMux()
		swagger.Register(ctx, mux)
		api.NewServer(svc, h, svc, api.WithLeaderboardSize(cfg.LeaderboardSize), api.WithMaxLimit(cfg.MaxLeaderboardLimit)).Register(ctx, mux)

		convey.Convey("When a message is posted", func() {
			body := `{"message_id":"m1","author_id":"100","channel_id":"42","content":"1"}`
			req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then it is applied and saved on stop", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"personal_best"`)
				convey.So(svc.Stop(ctx), convey.ShouldBeNil)

				doc, err := store.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(doc.Count, convey.ShouldEqual, int64(1))
			})
		})

		convey.Convey("When the API docs are requested", func() {
			defer func() { _ = svc.Stop(ctx) }()
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then they are served next to the game routes", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		t.Setenv("TALLY_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

		convey.Convey("When the channel is not configured", func() {
			t.Setenv("TALLY_CHANNEL_ID", "0")

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the stored document is unusable", func() {
			cfg := config.New()
			cfg.ChannelID = 42
			cfg.Addr = "127.0.0.1:0"
			cfg.DataPath = filepath.Join(t.TempDir(), "count.json")
			convey.So(os.WriteFile(cfg.DataPath, []byte(`{"version":2,"count":"x"}`), 0o600), convey.ShouldBeNil)

			convey.Convey("Then run refuses to start", func() {
				err := run(context.Background(), cfg, logger.NewNop())
				convey.So(errors.Is(err, repository.ErrMalformed), convey.ShouldBeTrue)
			})
		})
	})
}
