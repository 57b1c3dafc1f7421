package count_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/tally/internal/domain/count"
	"github.com/okian/tally/internal/domain/leaderboard"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	userA count.UserID = 100
	userB count.UserID = 200
	userC count.UserID = 300
	userD count.UserID = 400
)

func TestState_Submit(t *testing.T) {
	Convey("Given a fresh game", t, func() {
		s := count.New()

		Convey("Then the next expected number is 1", func() {
			So(s.Count(), ShouldEqual, 0)
			So(s.DisplayCount(), ShouldEqual, 1)
			So(s.NextExpected(), ShouldEqual, 1)
			So(s.PostResetExpected(), ShouldEqual, 1)
			_, ok := s.LastUserID()
			So(ok, ShouldBeFalse)
		})

		Convey("When user A submits 1", func() {
			out := s.Submit(userA, 1)

			Convey("Then it is accepted as a personal best at rank 1", func() {
				So(out.Kind, ShouldEqual, count.OutcomePersonalBest)
				So(out.Accepted(), ShouldBeTrue)
				So(s.Count(), ShouldEqual, 1)
				hc, _ := s.Leaderboard().HighestCount(userA)
				So(hc, ShouldEqual, 1)
				r, _ := s.Leaderboard().Rank(userA)
				So(r, ShouldEqual, 1)
			})

			Convey("And user A submits 2 straight after", func() {
				out := s.Submit(userA, 2)

				Convey("Then the count resets and A keeps their best", func() {
					So(out.Kind, ShouldEqual, count.OutcomeRepeatedUser)
					So(out.Failed(), ShouldBeTrue)
					So(out.DisplayCount, ShouldEqual, 1)
					So(out.NextExpected, ShouldEqual, 1)
					So(s.Count(), ShouldEqual, 0)
					_, ok := s.LastUserID()
					So(ok, ShouldBeFalse)
					hc, _ := s.Leaderboard().HighestCount(userA)
					So(hc, ShouldEqual, 1)
				})

				Convey("Then the mistake is counted against A", func() {
					e, _ := s.Leaderboard().Entry(userA)
					So(e.MistakesMade, ShouldEqual, 1)
				})
			})
		})

		Convey("When a different user skips a number", func() {
			s.Submit(userA, 1)
			s.Submit(userB, 2)
			out := s.Submit(userA, 4)

			Convey("Then the count resets to the baseline", func() {
				So(out.Kind, ShouldEqual, count.OutcomeWrongNumber)
				So(out.DisplayCount, ShouldEqual, 2)
				So(out.NextExpected, ShouldEqual, 1)
				So(s.Count(), ShouldEqual, 0)
			})
		})

		Convey("When a user repeats the current count", func() {
			s.Submit(userA, 1)
			out := s.Submit(userB, 1)

			Convey("Then it is a failure, not a no-op", func() {
				So(out.Kind, ShouldEqual, count.OutcomeWrongNumber)
				So(s.Count(), ShouldEqual, 0)
			})
		})

		Convey("When the same user posts twice with a wrong number", func() {
			s.Submit(userA, 1)
			out := s.Submit(userA, 99)

			Convey("Then the turn-order rule is reported first", func() {
				So(out.Kind, ShouldEqual, count.OutcomeRepeatedUser)
			})
		})
	})

	Convey("Given a game at 5 last counted by A", t, func() {
		s := count.New()
		for i, u := range []count.UserID{userB, userC, userB, userC, userA} {
			So(s.Submit(u, int64(i+1)).Accepted(), ShouldBeTrue)
		}
		So(s.Count(), ShouldEqual, 5)

		Convey("When B submits 6", func() {
			prev, _ := s.Leaderboard().HighestCount(userB)
			out := s.Submit(userB, 6)

			Convey("Then it is accepted and B's best rises", func() {
				So(s.Count(), ShouldEqual, 6)
				So(prev, ShouldEqual, 3)
				So(out.Kind, ShouldEqual, count.OutcomePersonalBest)
				So(out.PreviousBest, ShouldEqual, 3)
				So(out.NewBest, ShouldEqual, 6)
				last, _ := s.LastUserID()
				So(last, ShouldEqual, userB)
			})
		})
	})

	Convey("Given C leading with 10 and D second with 8", t, func() {
		board := leaderboard.New()
		board.RecordEntry(userC, 10)
		board.RecordEntry(userD, 8)
		s := count.New(count.WithLeaderboard(board))
		s.Reset(10)

		Convey("When D reaches 11", func() {
			out := s.Submit(userD, 11)

			Convey("Then D overtakes C", func() {
				So(out.Kind, ShouldEqual, count.OutcomePersonalBest)
				So(out.PreviousRank, ShouldEqual, 2)
				So(out.NewRank, ShouldEqual, 1)
				So(out.RankImproved, ShouldBeTrue)
				So(out.Overtaken, ShouldNotBeNil)
				So(*out.Overtaken, ShouldEqual, userC)

				c, _ := board.Entry(userC)
				d, _ := board.Entry(userD)
				So(d.Rank, ShouldEqual, 1)
				So(d.LastRank, ShouldEqual, 2)
				So(c.Rank, ShouldEqual, 2)
				So(c.LastRank, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a game that ignores repeated users", t, func() {
		s := count.New(count.WithIgnoreRepeatedUsers(true))

		Convey("When one user counts alone", func() {
			for v := int64(1); v <= 5; v++ {
				So(s.Submit(userA, v).Accepted(), ShouldBeTrue)
			}

			Convey("Then every number is accepted", func() {
				So(s.Count(), ShouldEqual, 5)
				e, _ := s.Leaderboard().Entry(userA)
				So(e.TimesCounted, ShouldEqual, 5)
			})
		})
	})

	Convey("Given a game with a baseline of 10", t, func() {
		s := count.New(count.WithBaseline(10))

		Convey("Then play starts after the baseline", func() {
			So(s.Count(), ShouldEqual, 10)
			So(s.NextExpected(), ShouldEqual, 11)
			So(s.PostResetExpected(), ShouldEqual, 11)
		})

		Convey("When a mistake happens", func() {
			s.Submit(userA, 11)
			out := s.Submit(userB, 13)

			Convey("Then the count returns to the baseline", func() {
				So(out.NextExpected, ShouldEqual, 11)
				So(s.Count(), ShouldEqual, 10)
			})
		})
	})
}

func TestState_AcceptPrecondition(t *testing.T) {
	Convey("Given a game last counted by A", t, func() {
		s := count.New()
		s.Submit(userA, 1)

		Convey("When Accept is called for A again", func() {
			Convey("Then it panics with a precondition error", func() {
				So(func() { s.Accept(2, userA) }, ShouldPanic)
			})
		})

		Convey("When Accept is called with the wrong value", func() {
			var recovered any
			func() {
				defer func() { recovered = recover() }()
				s.Accept(7, userB)
			}()

			Convey("Then the panic carries ErrPrecondition", func() {
				err, ok := recovered.(error)
				So(ok, ShouldBeTrue)
				So(errors.Is(err, count.ErrPrecondition), ShouldBeTrue)
				So(s.Count(), ShouldEqual, 1)
			})
		})
	})
}

// TestState_AlternatingUsers checks that the count equals the number of
// accepted submissions since the last reset.
func TestState_AlternatingUsers(t *testing.T) {
	s := count.New()
	users := []count.UserID{userA, userB, userC}

	for i := 0; i < 90; i++ {
		out := s.Submit(users[i%len(users)], s.NextExpected())
		if !out.Accepted() {
			t.Fatalf("submission %d rejected: %v", i, out.Kind)
		}
		if s.Count() != int64(i+1) {
			t.Fatalf("count = %d after %d submissions", s.Count(), i+1)
		}
	}

	s.Submit(userB, 1)
	for i := 0; i < 10; i++ {
		s.Submit(users[i%len(users)], s.NextExpected())
	}
	if s.Count() != 10 {
		t.Fatalf("count = %d, want 10 after reset", s.Count())
	}
}

func TestParseSubmission(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"5!", 5, true},
		{"12 apples", 12, true},
		{"007", 7, true},
		{"", 0, false},
		{"hello", 0, false},
		{" 5", 0, false},
		{"-3", 0, false},
		{"99999999999999999999999", math.MaxInt64, true},
		{"٣", 3, true},
		{"٤٢ apples", 42, true},
		{"४२", 42, true},
		{"１０", 10, true},
		{"𝟓", 5, true},
		{"1٢", 12, true},
		{"²", 0, false},
		{"½", 0, false},
		{"Ⅻ", 0, false},
	}

	for _, tt := range tests {
		got, ok := count.ParseSubmission(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseSubmission(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
