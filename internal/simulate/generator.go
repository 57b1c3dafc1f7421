package simulate

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/okian/tally/internal/domain/count"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/logger"
)

const (
	randomFloatDivisor = 1_000_000
	maxWrongOffset     = 5
)

// randomFloat returns a random float64 in [0, 1) using crypto/rand.
func randomFloat() float64 {
	return float64(randomIntn(randomFloatDivisor)) / float64(randomFloatDivisor)
}

// randomIntn returns a random int in [0, n) using crypto/rand.
func randomIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// newParticipants returns n distinct simulated user ids.
func newParticipants(n int) []model.UserID {
	seen := make(map[model.UserID]struct{}, n)
	ids := make([]model.UserID, 0, n)
	for len(ids) < n {
		id := model.UserID(participantIDBase + int64(randomIntn(participantIDRange)))
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// generateScript plays the game locally on replay and records every move
// together with the outcome the service must report for it. Steps depend
// on the ones before them, so the script is built in order.
func generateScript(ctx context.Context, config *Config, replay *count.State, participants []model.UserID, stats *Stats) ([]Step, error) {
	logger.Get().Info(ctx, "generating script",
		logger.Int("messages", config.Messages),
		logger.Int("participants", len(participants)))

	channel := strconv.FormatInt(config.ChannelID, 10)
	steps := make([]Step, 0, config.Messages)
	for i := 0; i < config.Messages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during script generation: %w", err)
		}

		user, value := nextMove(config, replay, participants)
		out := replay.Submit(user, value)
		steps = append(steps, Step{
			Message: Message{
				MessageID: uuid.NewString(),
				AuthorID:  user.String(),
				ChannelID: channel,
				Content:   strconv.FormatInt(value, 10),
			},
			Expected:     out.Kind,
			ExpectedName: out.Kind.String(),
			NextExpected: out.NextExpected,
			Redeliver:    randomFloat() < config.DuplicateRate,
		})
	}

	stats.StepsGenerated = len(steps)
	logger.Get().Info(ctx, "generated script",
		logger.Int("steps", len(steps)),
		logger.Int("mistakes", lo.CountBy(steps, func(s Step) bool { return s.Expected.Failed() })))
	return steps, nil
}

// nextMove picks who posts next and what they post. Without a mistake the
// move is always valid.
func nextMove(config *Config, replay *count.State, participants []model.UserID) (model.UserID, int64) {
	last, hasLast := replay.LastUserID()
	expected := replay.NextExpected()

	if randomFloat() < config.MistakeRate {
		if hasLast && !replay.IgnoreRepeatedUsers() && randomIntn(2) == 0 {
			return last, expected
		}
		user := participants[randomIntn(len(participants))]
		return user, expected + 1 + int64(randomIntn(maxWrongOffset))
	}

	i := randomIntn(len(participants))
	user := participants[i]
	if hasLast && user == last && !replay.IgnoreRepeatedUsers() {
		user = participants[(i+1)%len(participants)]
	}
	return user, expected
}
