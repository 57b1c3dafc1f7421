package service

import (
	"fmt"
	"strings"

	"github.com/okian/tally/internal/adapters/chat"
	"github.com/okian/tally/internal/domain/count"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/types"
)

// Feedback returns the reactions and replies a processed submission
// produces, in delivery order.
func Feedback(msg model.Message, out count.Outcome) []chat.Effect { //nolint:gocritic // hugeParam
	react := func(symbol string) chat.Effect {
		return chat.Effect{Kind: chat.EffectReact, ChannelID: msg.ChannelID, MessageID: msg.MessageID, Symbol: symbol}
	}
	send := func(text string) chat.Effect {
		return chat.Effect{Kind: chat.EffectSend, ChannelID: msg.ChannelID, Text: text}
	}

	switch out.Kind {
	case count.OutcomeAccepted:
		return []chat.Effect{react(chat.SymbolSuccess)}

	case count.OutcomeRepeatedUser, count.OutcomeWrongNumber:
		return []chat.Effect{react(chat.SymbolFailure), send(RuinedText(out))}

	case count.OutcomePersonalBest:
		effects := []chat.Effect{react(chat.SymbolPersonalBest)}
		if out.RankImproved {
			if out.Overtaken != nil {
				effects = append(effects, react(chat.SymbolOvertook))
			} else {
				effects = append(effects, react(chat.SymbolRankUp))
			}
		}
		return append(effects, send(PersonalBestText(out)))

	default:
		return nil
	}
}

// RuinedText announces a broken count.
func RuinedText(out count.Outcome) string { //nolint:gocritic // hugeParam
	text := fmt.Sprintf("%s **RUINED THE COUNT** at %d. The next number is %d.",
		chat.Mention(out.UserID), out.DisplayCount, out.NextExpected)
	if out.Kind == count.OutcomeRepeatedUser {
		text += " **You can't count twice in a row**"
	}
	return text
}

// PersonalBestText celebrates a new personal best and, when it moved the
// user up, the new rank.
func PersonalBestText(out count.Outcome) string { //nolint:gocritic // hugeParam
	text := fmt.Sprintf("%s **BEAT THEIR HIGHEST COUNT** at %d. Last personal record was %d.",
		chat.Mention(out.UserID), out.NewBest, out.PreviousBest)
	if !out.RankImproved {
		return text
	}

	text += fmt.Sprintf("\nAnd, also **BEAT THEIR RANK** at #%d. Last rank was #%d", out.NewRank, out.PreviousRank)
	if out.Overtaken != nil {
		text += ", beating " + chat.Mention(*out.Overtaken)
	}
	return text + "."
}

// ResetText confirms an administrative reset.
func ResetText(n int64) string {
	return fmt.Sprintf("The count has been reset to %d.", n)
}

// LeaderboardText renders ranked entries followed by a footer about the
// caller. caller is nil when the caller is unknown or not ranked.
func LeaderboardText(entries []types.Entry, caller *types.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "`#%d` ・ %s ・ Highest count: **%d**\n", e.Rank, chat.Mention(e.UserID), e.HighestCount)
	}
	if len(entries) == 0 {
		b.WriteString("No entries yet.\n")
	}

	b.WriteString("\n")
	if caller == nil {
		b.WriteString("You are not ranked yet.")
	} else {
		fmt.Fprintf(&b, "%s, your rank is #%d, your highest count is %d.",
			chat.Mention(caller.UserID), caller.Rank, caller.HighestCount)
	}
	return b.String()
}
