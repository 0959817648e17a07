package recording_test

import (
	"testing"

	"github.com/streamcap/streamcapd/internal/recording"
	"github.com/stretchr/testify/assert"
)

// The filter predicates are written directly against the signals, not through
// the resolver. Both derivations must classify every possible tuple the same
// way.
func TestFiltersAgreeWithResolver(t *testing.T) {
	filterToState := map[recording.Filter]recording.CardState{
		recording.FilterRecording: recording.StateRecording,
		recording.FilterLiving:    recording.StateLive,
		recording.FilterError:     recording.StateError,
		recording.FilterOffline:   recording.StateOffline,
		recording.FilterStopped:   recording.StateStopped,
	}

	for _, rec := range allSignalTuples() {
		rec := rec
		state := recording.ResolveCardState(&rec)

		for filter, wantState := range filterToState {
			got := recording.MatchesStatus(&rec, filter)
			want := state == wantState
			assert.Equal(t, want, got,
				"filter %q disagrees with resolver state %q for tuple %+v", filter, state, rec)
		}
	}
}

func TestMatchesStatus_All(t *testing.T) {
	for _, rec := range allSignalTuples() {
		rec := rec
		assert.True(t, recording.MatchesStatus(&rec, recording.FilterAll))
	}
}

func TestMatchesStatus_UnknownFilter(t *testing.T) {
	rec := recording.Recording{IsRecording: true}
	assert.False(t, recording.MatchesStatus(&rec, recording.Filter("bogus")))
}

func TestMatchesPlatform(t *testing.T) {
	rec := recording.Recording{PlatformKey: "twitch"}

	assert.True(t, recording.MatchesPlatform(&rec, "all"))
	assert.True(t, recording.MatchesPlatform(&rec, "twitch"))
	assert.False(t, recording.MatchesPlatform(&rec, "douyin"))
}

func TestShouldShow(t *testing.T) {
	rec := recording.Recording{PlatformKey: "twitch", IsRecording: true}

	assert.True(t, recording.ShouldShow(&rec, recording.FilterRecording, "twitch"))
	assert.True(t, recording.ShouldShow(&rec, recording.FilterAll, "all"))
	assert.False(t, recording.ShouldShow(&rec, recording.FilterOffline, "twitch"))
	assert.False(t, recording.ShouldShow(&rec, recording.FilterRecording, "douyin"))
}
