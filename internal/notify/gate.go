package notify

import (
	"context"

	"github.com/streamcap/streamcapd/internal/logctx"
	"github.com/streamcap/streamcapd/internal/recording"
	"golang.org/x/sync/errgroup"
)

// TransitionKind is the status transition a push is about.
type TransitionKind string

const (
	TransitionStart TransitionKind = "start"
	TransitionEnd   TransitionKind = "end"
)

// Settings are the global push preferences shared by every recording.
type Settings struct {
	OnlyNotifyNoRecord bool
	StreamStartEnabled bool
	StreamEndEnabled   bool
}

// Outcome is the per-channel result of one fan-out.
type Outcome struct {
	Channel string
	Success bool
	Err     string
}

// Gate decides whether a status transition should produce a push and fans it
// out to the enabled channels. The gate holds no cross-call state; the caller
// serializes transitions per recording.
type Gate struct {
	settings Settings
	channels []Channel
}

// NewGate builds a gate over the enabled channel set.
func NewGate(settings Settings, channels ...Channel) *Gate {
	return &Gate{settings: settings, channels: channels}
}

// Channels returns the configured channel set.
func (g *Gate) Channels() []Channel {
	return g.channels
}

// ShouldPush decides whether a push fires for the transition. The checks are
// ordered: the per-recording kill switch first, then the only-notify-no-record
// special case, then start/end enablement, the channel set, and finally the
// manual stop suppression for end transitions.
func (g *Gate) ShouldPush(rec *recording.Recording, kind TransitionKind, checkManualStop bool) bool {
	if !rec.PushEnabled {
		return false
	}

	// The user wants to hear the stream went live even though it is not
	// being captured.
	if kind == TransitionStart && g.settings.OnlyNotifyNoRecord && g.settings.StreamStartEnabled {
		return true
	}

	if kind == TransitionStart && !g.settings.StreamStartEnabled {
		return false
	}

	if kind == TransitionEnd && !g.settings.StreamEndEnabled {
		return false
	}

	if len(g.channels) == 0 {
		return false
	}

	if kind == TransitionEnd && checkManualStop && rec.ManuallyStopped {
		return false
	}

	return true
}

// ShouldPushAuto is ShouldPush with the transition kind inferred from the
// recording: an active capture implies the interesting transition is "end".
func (g *Gate) ShouldPushAuto(rec *recording.Recording, checkManualStop bool) bool {
	kind := TransitionStart
	if rec.IsRecording {
		kind = TransitionEnd
	}

	return g.ShouldPush(rec, kind, checkManualStop)
}

// Push fans the message out to every configured channel concurrently.
// Channels are attempted exhaustively and independently; a failed send is
// logged and reported in its outcome but never stops the remaining channels,
// and the call itself never fails. Outcomes keep the channel order.
func (g *Gate) Push(ctx context.Context, title, content string) []Outcome {
	logger := logctx.LoggerFromContext(ctx)

	outcomes := make([]Outcome, len(g.channels))

	var wg errgroup.Group

	for i, ch := range g.channels {
		i, ch := i, ch
		wg.Go(func() error {
			result := ch.Send(ctx, title, content)

			if result.Success {
				logger.Info("push succeeded", "channel", ch.Name())
			} else {
				logger.Error("push failed", "channel", ch.Name(), "err", result.Err)
			}

			outcomes[i] = Outcome{
				Channel: ch.Name(),
				Success: result.Success,
				Err:     result.Err,
			}

			return nil
		})
	}

	_ = wg.Wait()

	return outcomes
}
