package mux_test

import (
	"testing"

	"github.com/streamcap/streamcapd/internal/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Deterministic(t *testing.T) {
	plan := mux.Plan{
		Kind:           mux.ContainerMPEGTS,
		Segmented:      true,
		SegmentSeconds: 30,
		OutputPath:     "out_%03d.ts",
	}
	base := []string{"-i", "http://live.example/stream", "-loglevel", "error"}

	first, err := mux.Build(plan, base)
	require.NoError(t, err)

	second, err := mux.Build(plan, base)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical plans must yield identical argument lists")
}

func TestBuild_RejectsSegmentedWithoutDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
	}{
		{"zero duration", 0},
		{"negative duration", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mux.Build(mux.Plan{
				Kind:           mux.ContainerFLV,
				Segmented:      true,
				SegmentSeconds: tt.seconds,
				OutputPath:     "out.flv",
			}, nil)

			var perr *mux.PlanError

			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "SegmentSeconds", perr.Field)
		})
	}
}

func TestBuild_RejectsMissingOutputPath(t *testing.T) {
	_, err := mux.Build(mux.Plan{Kind: mux.ContainerMP4}, nil)

	var perr *mux.PlanError

	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "OutputPath", perr.Field)
}

func TestBuild_RejectsUnknownContainer(t *testing.T) {
	_, err := mux.Build(mux.Plan{Kind: mux.ContainerKind("mkv"), OutputPath: "out.mkv"}, nil)

	var perr *mux.PlanError

	require.ErrorAs(t, err, &perr)
}

func TestBuild_MPEGTS(t *testing.T) {
	args, err := mux.Build(mux.Plan{Kind: mux.ContainerMPEGTS, OutputPath: "out.ts"}, []string{"-i", "in"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"-i", "in",
		"-c:v", "copy",
		"-c:a", "copy",
		"-map", "0",
		"-f", "mpegts",
		"-mpegts_flags", "+resend_headers",
		"-muxdelay", "0",
		"-muxpreload", "0",
		"out.ts",
	}, args)
}

func TestBuild_MPEGTSSegmented(t *testing.T) {
	args, err := mux.Build(mux.Plan{
		Kind:           mux.ContainerMPEGTS,
		Segmented:      true,
		SegmentSeconds: 60,
		OutputPath:     "out_%03d.ts",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"-c:v", "copy",
		"-c:a", "copy",
		"-map", "0",
		"-f", "segment",
		"-segment_time", "60",
		"-segment_format", "mpegts",
		"-reset_timestamps", "1",
		"-mpegts_flags", "+resend_headers",
		"-muxdelay", "0",
		"-muxpreload", "0",
		"out_%03d.ts",
	}, args)
}

func TestBuild_MP4(t *testing.T) {
	args, err := mux.Build(mux.Plan{Kind: mux.ContainerMP4, OutputPath: "out.mp4"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"-map", "0",
		"-c:v", "copy",
		"-c:a", "copy",
		"-f", "mp4",
		"-movflags", "+faststart+frag_keyframe+empty_moov+delay_moov",
		"out.mp4",
	}, args)
}

// Segmented MP4 re-encodes audio to AAC: codec copy is not segment-safe for
// every audio source in this container.
func TestBuild_MP4Segmented(t *testing.T) {
	args, err := mux.Build(mux.Plan{
		Kind:           mux.ContainerMP4,
		Segmented:      true,
		SegmentSeconds: 6,
		OutputPath:     "out.mp4",
	}, nil)
	require.NoError(t, err)

	assert.Contains(t, args, "segment")
	assert.Contains(t, args, "global_header")

	assertFlagValue(t, args, "-segment_format", "mp4")
	assertFlagValue(t, args, "-segment_time", "6")
	assertFlagValue(t, args, "-reset_timestamps", "1")
	assertFlagValue(t, args, "-c:a", "aac")
	assertFlagValue(t, args, "-c:v", "copy")
}

func TestBuild_FLVAppliesBitstreamFilterInBothBranches(t *testing.T) {
	plain, err := mux.Build(mux.Plan{Kind: mux.ContainerFLV, OutputPath: "out.flv"}, nil)
	require.NoError(t, err)

	segmented, err := mux.Build(mux.Plan{
		Kind:           mux.ContainerFLV,
		Segmented:      true,
		SegmentSeconds: 30,
		OutputPath:     "out_%03d.flv",
	}, nil)
	require.NoError(t, err)

	assertFlagValue(t, plain, "-bsf:a", "aac_adtstoasc")
	assertFlagValue(t, segmented, "-bsf:a", "aac_adtstoasc")
	assertFlagValue(t, plain, "-f", "flv")
	assertFlagValue(t, segmented, "-segment_format", "flv")
}

func TestContainerForFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    mux.ContainerKind
		wantErr bool
	}{
		{"ts", mux.ContainerMPEGTS, false},
		{"mpegts", mux.ContainerMPEGTS, false},
		{"mp4", mux.ContainerMP4, false},
		{"mov", mux.ContainerMP4, false},
		{"flv", mux.ContainerFLV, false},
		{"mkv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			kind, err := mux.ContainerForFormat(tt.format)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

// assertFlagValue asserts that args contains flag immediately followed by value.
func assertFlagValue(t *testing.T, args []string, flag, value string) {
	t.Helper()

	for i, a := range args {
		if a == flag {
			require.Less(t, i+1, len(args), "flag %s has no value", flag)
			assert.Equal(t, value, args[i+1], "unexpected value for %s", flag)

			return
		}
	}

	t.Errorf("flag %s not found in %v", flag, args)
}
