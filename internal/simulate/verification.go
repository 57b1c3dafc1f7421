package simulate

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/samber/lo"

	"github.com/okian/tally/internal/domain/count"
	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/logger"
)

// verifyResults compares what the service reports with the local replay.
// Participants are fresh ids, so every counter they have on the service
// came from this run.
func verifyResults(ctx context.Context, config *Config, replay *count.State, rankings []ranking, shown []Entry, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	problems := verifyRankings(replay, rankings)
	problems = append(problems, verifyLeaderboard(replay, shown)...)
	for _, p := range problems {
		logger.Get().Warn(ctx, "verification", logger.String("problem", p))
	}
	stats.Mismatches += len(problems)

	displayTopPerformers(shown, config.Verbose)

	if stats.Mismatches > 0 {
		return fmt.Errorf("%w: %d mismatches", ErrMismatch, stats.Mismatches)
	}
	log.Println("✅ Result verification completed")
	return nil
}

func verifyRankings(replay *count.State, rankings []ranking) []string {
	var problems []string
	board := replay.Leaderboard()
	for _, r := range rankings {
		local, ok := board.Entry(r.UserID)
		switch {
		case ok != r.Ranked:
			problems = append(problems, fmt.Sprintf("user %s ranked=%t, replay ranked=%t", r.UserID, r.Ranked, ok))
		case !ok:
		case r.Entry.HighestCount != local.HighestCount:
			problems = append(problems, fmt.Sprintf("user %s highest count %d, replay %d", r.UserID, r.Entry.HighestCount, local.HighestCount))
		case r.Entry.TimesCounted != local.TimesCounted:
			problems = append(problems, fmt.Sprintf("user %s counted %d times, replay %d", r.UserID, r.Entry.TimesCounted, local.TimesCounted))
		case r.Entry.MistakesMade != local.MistakesMade:
			problems = append(problems, fmt.Sprintf("user %s made %d mistakes, replay %d", r.UserID, r.Entry.MistakesMade, local.MistakesMade))
		}
	}
	return problems
}

// verifyLeaderboard checks ordering and, for simulated users on the board,
// that their relative order matches the replay.
func verifyLeaderboard(replay *count.State, shown []Entry) []string {
	var problems []string
	for i, e := range shown {
		if e.Rank != i+1 {
			problems = append(problems, fmt.Sprintf("position %d reports rank %d", i+1, e.Rank))
		}
		if i > 0 && e.HighestCount > shown[i-1].HighestCount {
			problems = append(problems, fmt.Sprintf("leaderboard not sorted at rank %d", i+1))
		}
	}

	board := replay.Leaderboard()
	ours := lo.FilterMap(shown, func(e Entry, _ int) (model.UserID, bool) {
		_, ok := board.Entry(e.UserID)
		return e.UserID, ok
	})
	if len(ours) == 0 {
		return problems
	}
	// Everyone of ours above the last one shown must be shown too, in the
	// same order.
	lastRank, _ := board.Rank(ours[len(ours)-1])
	want := lo.Map(board.TopEntries(lastRank), func(e leaderboard.Entry, _ int) model.UserID { return e.UserID })
	if !slices.Equal(want, ours) {
		problems = append(problems, fmt.Sprintf("simulated users shown as %v, replay order %v", ours, want))
	}
	return problems
}

// displayTopPerformers shows the head of the leaderboard.
func displayTopPerformers(shown []Entry, verbose bool) {
	topN := min(10, len(shown))
	if verbose {
		topN = len(shown)
	}

	log.Printf("🥇 Top %d from leaderboard:", topN)
	for _, e := range shown[:topN] {
		log.Printf("   %d. %s - Highest count: %d (counted %d, mistakes %d)",
			e.Rank, e.UserID, e.HighestCount, e.TimesCounted, e.MistakesMade)
	}
}
