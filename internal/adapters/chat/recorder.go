package chat

import (
	"context"
	"sync"

	"github.com/okian/tally/internal/domain/model"
)

// Recorder collects effects instead of delivering them. The synchronous
// HTTP ingress returns them to the caller; tests assert on them.
type Recorder struct {
	mu      sync.Mutex
	effects []Effect
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// React implements Messenger.
func (r *Recorder) React(_ context.Context, channelID model.ChannelID, messageID, symbol string) error {
	r.add(Effect{Kind: EffectReact, ChannelID: channelID, MessageID: messageID, Symbol: symbol})
	return nil
}

// Send implements Messenger.
func (r *Recorder) Send(_ context.Context, channelID model.ChannelID, text string) error {
	r.add(Effect{Kind: EffectSend, ChannelID: channelID, Text: text})
	return nil
}

func (r *Recorder) add(e Effect) {
	r.mu.Lock()
	r.effects = append(r.effects, e)
	r.mu.Unlock()
}

// Effects returns a copy of everything recorded so far.
func (r *Recorder) Effects() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Effect(nil), r.effects...)
}

// Reactions returns the recorded symbols in order.
func (r *Recorder) Reactions() []string {
	var out []string
	for _, e := range r.Effects() {
		if e.Kind == EffectReact {
			out = append(out, e.Symbol)
		}
	}
	return out
}

// Messages returns the recorded texts in order.
func (r *Recorder) Messages() []string {
	var out []string
	for _, e := range r.Effects() {
		if e.Kind == EffectSend {
			out = append(out, e.Text)
		}
	}
	return out
}

// Reset forgets recorded effects.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.effects = nil
	r.mu.Unlock()
}
