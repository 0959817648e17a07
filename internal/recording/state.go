package recording

import (
	"context"

	"github.com/streamcap/streamcapd/internal/logctx"
)

// CardState is the derived display state of a recording. It is recomputed
// from the current signals on every read and never stored.
type CardState string

const (
	StateRecording CardState = "recording"
	StateError     CardState = "error"
	StateLive      CardState = "live"
	StateOffline   CardState = "offline"
	StateStopped   CardState = "stopped"
	StateUnknown   CardState = "unknown"
)

// ResolveCardState derives the card state from the recording's signals.
// The rules are ordered and first-match-wins: an active capture beats every
// other signal, then error statuses, then live, offline and stopped.
func ResolveCardState(r *Recording) CardState {
	switch {
	case r.IsRecording:
		return StateRecording
	case r.IsError():
		return StateError
	case r.IsLive && r.MonitorEnabled && !r.IsRecording:
		return StateLive
	case !r.IsLive && r.MonitorEnabled && r.StatusInfo != StatusNotInScheduledCheck:
		return StateOffline
	case !r.MonitorEnabled || r.StatusInfo == StatusNotInScheduledCheck:
		return StateStopped
	}

	return StateUnknown
}

// ResolveCardStateCtx is ResolveCardState with a consistency warning when the
// signals fall through every rule. The fallthrough should not occur for
// well-formed input, so it is logged rather than swallowed.
func ResolveCardStateCtx(ctx context.Context, r *Recording) CardState {
	state := ResolveCardState(r)
	if state == StateUnknown {
		logctx.LoggerFromContext(ctx).Warn("recording signals resolved to unknown state",
			"recording_id", r.ID,
			"is_recording", r.IsRecording,
			"is_live", r.IsLive,
			"monitor_enabled", r.MonitorEnabled,
			"status_info", string(r.StatusInfo),
		)
	}

	return state
}
