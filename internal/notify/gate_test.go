package notify_test

import (
	"context"
	"testing"

	"github.com/streamcap/streamcapd/internal/notify"
	"github.com/streamcap/streamcapd/internal/recording"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	name   string
	result notify.Result
	calls  int
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(context.Context, string, string) notify.Result {
	f.calls++

	return f.result
}

func enabledSettings() notify.Settings {
	return notify.Settings{StreamStartEnabled: true, StreamEndEnabled: true}
}

func TestShouldPush_DisabledPushWinsOverEverything(t *testing.T) {
	gate := notify.NewGate(enabledSettings(), &fakeChannel{name: "bark", result: notify.Result{Success: true}})

	rec := recording.Recording{PushEnabled: false, IsLive: true, MonitorEnabled: true}

	for _, kind := range []notify.TransitionKind{notify.TransitionStart, notify.TransitionEnd} {
		for _, checkManual := range []bool{false, true} {
			assert.False(t, gate.ShouldPush(&rec, kind, checkManual),
				"kind=%s checkManual=%v", kind, checkManual)
		}
	}
}

func TestShouldPush_StartTransitions(t *testing.T) {
	tests := []struct {
		name     string
		settings notify.Settings
		channels int
		want     bool
	}{
		{
			name:     "start enabled with channel",
			settings: notify.Settings{StreamStartEnabled: true},
			channels: 1,
			want:     true,
		},
		{
			name:     "start disabled",
			settings: notify.Settings{StreamStartEnabled: false},
			channels: 1,
			want:     false,
		},
		{
			// The special case fires before the channel check: the user asked
			// to hear about streams that are not being captured.
			name:     "only notify when not recording short-circuits",
			settings: notify.Settings{OnlyNotifyNoRecord: true, StreamStartEnabled: true},
			channels: 0,
			want:     true,
		},
		{
			name:     "only-notify flag without start notifications",
			settings: notify.Settings{OnlyNotifyNoRecord: true, StreamStartEnabled: false},
			channels: 1,
			want:     false,
		},
		{
			name:     "no channels enabled",
			settings: notify.Settings{StreamStartEnabled: true},
			channels: 0,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var channels []notify.Channel
			for i := 0; i < tt.channels; i++ {
				channels = append(channels, &fakeChannel{name: "bark"})
			}

			gate := notify.NewGate(tt.settings, channels...)
			rec := recording.Recording{PushEnabled: true}

			assert.Equal(t, tt.want, gate.ShouldPush(&rec, notify.TransitionStart, false))
		})
	}
}

func TestShouldPush_EndTransitions(t *testing.T) {
	ch := &fakeChannel{name: "ntfy"}

	t.Run("end disabled", func(t *testing.T) {
		gate := notify.NewGate(notify.Settings{StreamEndEnabled: false}, ch)
		rec := recording.Recording{PushEnabled: true}

		assert.False(t, gate.ShouldPush(&rec, notify.TransitionEnd, false))
	})

	t.Run("manual stop suppressed when checked", func(t *testing.T) {
		gate := notify.NewGate(enabledSettings(), ch)
		rec := recording.Recording{PushEnabled: true, ManuallyStopped: true}

		assert.False(t, gate.ShouldPush(&rec, notify.TransitionEnd, true))
	})

	t.Run("manual stop ignored when not checked", func(t *testing.T) {
		gate := notify.NewGate(enabledSettings(), ch)
		rec := recording.Recording{PushEnabled: true, ManuallyStopped: true}

		assert.True(t, gate.ShouldPush(&rec, notify.TransitionEnd, false))
	})

	t.Run("end enabled with channel", func(t *testing.T) {
		gate := notify.NewGate(enabledSettings(), ch)
		rec := recording.Recording{PushEnabled: true}

		assert.True(t, gate.ShouldPush(&rec, notify.TransitionEnd, false))
	})
}

func TestShouldPushAuto_InfersTransition(t *testing.T) {
	// End notifications off, start notifications on: an actively recording
	// stream must be treated as an end transition and suppressed.
	gate := notify.NewGate(notify.Settings{StreamStartEnabled: true}, &fakeChannel{name: "bark"})

	active := recording.Recording{PushEnabled: true, IsRecording: true}
	idle := recording.Recording{PushEnabled: true}

	assert.False(t, gate.ShouldPushAuto(&active, false))
	assert.True(t, gate.ShouldPushAuto(&idle, false))
}

func TestPush_FanOutIsExhaustiveAndIndependent(t *testing.T) {
	failing := &fakeChannel{name: "dingtalk", result: notify.Result{Err: "webhook failed with status 500"}}
	succeeding := &fakeChannel{name: "telegram", result: notify.Result{Success: true}}

	gate := notify.NewGate(enabledSettings(), failing, succeeding)

	outcomes := gate.Push(context.Background(), "Stream started", "channel one is live")

	require.Len(t, outcomes, 2)

	assert.Equal(t, "dingtalk", outcomes[0].Channel)
	assert.False(t, outcomes[0].Success)
	assert.Equal(t, "webhook failed with status 500", outcomes[0].Err)

	assert.Equal(t, "telegram", outcomes[1].Channel)
	assert.True(t, outcomes[1].Success)
	assert.Empty(t, outcomes[1].Err)

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, succeeding.calls, "a failing sibling must not block later channels")
}

func TestPush_NoChannels(t *testing.T) {
	gate := notify.NewGate(enabledSettings())

	assert.Empty(t, gate.Push(context.Background(), "title", "content"))
}
