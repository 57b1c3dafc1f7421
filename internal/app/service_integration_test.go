package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/adapters/chat"
	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service persisting to a file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "data", "count.json")

		svc, rec := startService(repository.NewFileStore(path), service.WithWorkerCount(1), service.WithQueueSize(100))

		Convey("When a round of counting arrives through the queue", func() {
			script := []struct {
				id     string
				author model.UserID
				text   string
			}{
				{"m1", userA, "1"},
				{"m2", userB, "2"},
				{"m3", userC, "3"},
				{"m4", userA, "4"},
				{"m5", userB, "5"},
				{"m6", userB, "6"}, // twice in a row
				{"m7", userC, "1"},
			}
			for _, s := range script {
				err := svc.Enqueue(ctx, model.Message{MessageID: s.id, AuthorID: s.author, ChannelID: channel, Content: s.text})
				So(err, ShouldBeNil)
			}

			Convey("And the same messages are redelivered", func() {
				err := svc.Enqueue(ctx, model.Message{MessageID: "m3", AuthorID: userC, ChannelID: channel, Content: "3"})
				So(errors.Is(err, service.ErrDuplicate), ShouldBeTrue)
			})

			Convey("Then the queue drains in delivery order", func() {
				So(svc.Stop(ctx), ShouldBeNil)

				So(rec.Reactions(), ShouldResemble, []string{
					chat.SymbolPersonalBest,
					chat.SymbolPersonalBest,
					chat.SymbolPersonalBest,
					chat.SymbolPersonalBest, chat.SymbolOvertook,
					chat.SymbolPersonalBest, chat.SymbolOvertook,
					chat.SymbolFailure,
					chat.SymbolSuccess,
				})
			})

			Convey("Then a restarted service continues from the file", func() {
				So(svc.Stop(ctx), ShouldBeNil)

				restarted, _ := startService(repository.NewFileStore(path))
				defer func() { _ = restarted.Stop(ctx) }()

				st, err := restarted.Status(ctx)
				So(err, ShouldBeNil)
				So(st.Count, ShouldEqual, 1)
				So(*st.LastUserID, ShouldEqual, userC)

				top, _ := restarted.TopN(ctx, 10)
				So(len(top), ShouldEqual, 3)
				So(top[0].UserID, ShouldEqual, userB)
				So(top[0].HighestCount, ShouldEqual, 5)
				So(top[0].MistakesMade, ShouldEqual, 1)
				So(top[1].UserID, ShouldEqual, userA)
				So(top[2].UserID, ShouldEqual, userC)
			})
		})

		_ = svc.Stop(ctx)
	})
}
