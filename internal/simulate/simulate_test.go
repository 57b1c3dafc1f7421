package simulate

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/tally/internal/adapters/chat"
	"github.com/okian/tally/internal/adapters/http/api"
	"github.com/okian/tally/internal/adapters/repository"
	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/count"
	"github.com/okian/tally/pkg/logger"
)

const channel = 42

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// newGame serves the real API over a started service.
func newGame(t *testing.T, opts ...service.Option) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	opts = append([]service.Option{service.WithLogger(logger.NewNop())}, opts...)
	svc := service.New(repository.NewMemoryStore(), opts...)
	h := service.NewHandler(svc, channel, chat.NewRecorder(), service.WithHandlerLogger(logger.NewNop()))
	if err := svc.Start(ctx, h); err != nil {
		t.Fatalf("start service: %v", err)
	}

	mux := http.NewServeMux()
	api.NewServer(svc, h, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(ctx)
	})
	return srv
}

func newConfig(baseURL string) *Config {
	return &Config{
		BaseURL:       baseURL,
		ChannelID:     channel,
		Participants:  4,
		Messages:      150,
		MistakeRate:   0.1,
		DuplicateRate: 0.1,
		TopN:          50,
		Workers:       3,
		Timeout:       5 * time.Second,
	}
}

func TestGenerateScript(t *testing.T) {
	convey.Convey("Given a fresh replay", t, func() {
		ctx := context.Background()
		config := newConfig("")
		participants := newParticipants(config.Participants)

		convey.Convey("When the script has no mistakes", func() {
			config.MistakeRate = 0
			steps, err := generateScript(ctx, config, count.New(), participants, &Stats{})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then every step counts up and users take turns", func() {
				convey.So(steps, convey.ShouldHaveLength, config.Messages)
				for i, s := range steps {
					convey.So(s.Expected.Failed(), convey.ShouldBeFalse)
					convey.So(s.NextExpected, convey.ShouldEqual, int64(i+2))
					if i > 0 {
						convey.So(s.Message.AuthorID, convey.ShouldNotEqual, steps[i-1].Message.AuthorID)
					}
				}
			})
		})

		convey.Convey("When every message is a mistake", func() {
			config.MistakeRate = 1
			steps, err := generateScript(ctx, config, count.New(), participants, &Stats{})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the count never leaves the baseline", func() {
				for _, s := range steps {
					convey.So(s.Expected.Failed(), convey.ShouldBeTrue)
					convey.So(s.NextExpected, convey.ShouldEqual, int64(1))
				}
			})
		})

		convey.Convey("When the script is replayed on a second game", func() {
			first := count.New()
			steps, err := generateScript(ctx, config, first, participants, &Stats{})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the outcomes are the same", func() {
				second := count.New()
				for _, s := range steps {
					out := second.Submit(mustUserID(s.Message.AuthorID), mustInt(s.Message.Content))
					convey.So(out.Kind, convey.ShouldEqual, s.Expected)
				}
				convey.So(second.Snapshot(), convey.ShouldResemble, first.Snapshot())
			})
		})
	})
}

func TestNewParticipants(t *testing.T) {
	convey.Convey("Given a request for participants", t, func() {
		ids := newParticipants(50)

		convey.Convey("Then the ids are distinct snowflakes", func() {
			seen := map[string]bool{}
			for _, id := range ids {
				convey.So(int64(id), convey.ShouldBeGreaterThanOrEqualTo, int64(participantIDBase))
				convey.So(seen[id.String()], convey.ShouldBeFalse)
				seen[id.String()] = true
			}
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given simulator configurations", t, func() {
		convey.Convey("Then a complete one is valid", func() {
			convey.So(newConfig("http://x").validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then missing channel and bad rates are reported together", func() {
			c := newConfig("http://x")
			c.ChannelID = 0
			c.MistakeRate = 2
			err := c.validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "channel")
			convey.So(err.Error(), convey.ShouldContainSubstring, "mistakes")
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running game", t, func() {
		ctx := context.Background()

		convey.Convey("When the simulation plays it", func() {
			srv := newGame(t)
			config := newConfig(srv.URL)
			config.OutputFile = filepath.Join(t.TempDir(), "out", "script.json")

			err := Run(ctx, config)

			convey.Convey("Then the service agrees with the replay", func() {
				convey.So(err, convey.ShouldBeNil)
				_, statErr := os.Stat(config.OutputFile)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a second simulation picks up where the first stopped", func() {
			srv := newGame(t)
			convey.So(Run(ctx, newConfig(srv.URL)), convey.ShouldBeNil)

			convey.Convey("Then it also agrees", func() {
				convey.So(Run(ctx, newConfig(srv.URL)), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the simulator assumes the wrong baseline", func() {
			srv := newGame(t, service.WithBaseline(3))
			config := newConfig(srv.URL)
			config.MistakeRate = 1
			config.Messages = 5

			err := Run(ctx, config)

			convey.Convey("Then the disagreement is reported", func() {
				convey.So(errors.Is(err, ErrMismatch), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWaitHealthy(t *testing.T) {
	convey.Convey("Given a service that has not started", t, func() {
		svc := service.New(repository.NewMemoryStore(), service.WithLogger(logger.NewNop()))
		mux := http.NewServeMux()
		api.NewServer(svc, nil, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		convey.Convey("Then the health check gives up", func() {
			err := waitHealthy(context.Background(), newHTTPClient(srv.URL, time.Second), 2, time.Millisecond)
			convey.So(errors.Is(err, ErrUnhealthy), convey.ShouldBeTrue)
		})
	})
}
