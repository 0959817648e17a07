package mux

import "strconv"

// Build produces the ordered ffmpeg argument list for the plan. The caller
// supplies the leading arguments (input specs, hardware and quality flags);
// Build appends the container-specific tail. It is pure and deterministic:
// identical inputs yield identical argument lists.
//
// Arguments are returned as discrete tokens for exec; they must never be
// joined into a shell string.
func Build(plan Plan, baseArgs []string) ([]string, error) {
	if plan.Segmented && plan.SegmentSeconds <= 0 {
		return nil, &PlanError{Field: "SegmentSeconds", Reason: "segmented output requires a positive duration"}
	}

	if plan.OutputPath == "" {
		return nil, &PlanError{Field: "OutputPath", Reason: "output path is required"}
	}

	args := make([]string, 0, len(baseArgs)+24)
	args = append(args, baseArgs...)

	switch plan.Kind {
	case ContainerMPEGTS:
		args = append(args, tsTail(plan)...)
	case ContainerMP4:
		args = append(args, mp4Tail(plan)...)
	case ContainerFLV:
		args = append(args, flvTail(plan)...)
	default:
		return nil, &PlanError{Field: "Kind", Reason: "unknown container kind: " + string(plan.Kind)}
	}

	return args, nil
}

// tsTail copies both codecs into MPEG-TS. Headers are resent and mux
// delay/preload zeroed so a player joining mid-stream stays in sync.
func tsTail(plan Plan) []string {
	if plan.Segmented {
		return []string{
			"-c:v", "copy",
			"-c:a", "copy",
			"-map", "0",
			"-f", "segment",
			"-segment_time", strconv.Itoa(plan.SegmentSeconds),
			"-segment_format", "mpegts",
			"-reset_timestamps", "1",
			"-mpegts_flags", "+resend_headers",
			"-muxdelay", "0",
			"-muxpreload", "0",
			plan.OutputPath,
		}
	}

	return []string{
		"-c:v", "copy",
		"-c:a", "copy",
		"-map", "0",
		"-f", "mpegts",
		"-mpegts_flags", "+resend_headers",
		"-muxdelay", "0",
		"-muxpreload", "0",
		plan.OutputPath,
	}
}

// mp4Tail keeps the file seekable and playable even if the writer is killed
// before finalization. Segmented MP4 re-encodes audio to AAC; codec copy is
// not always segment-safe for audio in this container.
func mp4Tail(plan Plan) []string {
	if plan.Segmented {
		return []string{
			"-c:v", "copy",
			"-c:a", "aac",
			"-map", "0",
			"-f", "segment",
			"-segment_time", strconv.Itoa(plan.SegmentSeconds),
			"-segment_format", "mp4",
			"-reset_timestamps", "1",
			"-movflags", "+frag_keyframe+empty_moov+faststart+delay_moov",
			"-flags", "global_header",
			plan.OutputPath,
		}
	}

	return []string{
		"-map", "0",
		"-c:v", "copy",
		"-c:a", "copy",
		"-f", "mp4",
		"-movflags", "+faststart+frag_keyframe+empty_moov+delay_moov",
		plan.OutputPath,
	}
}

// flvTail applies the ADTS-to-ASC audio bitstream filter in both branches;
// legacy players depend on it even for single-file output.
func flvTail(plan Plan) []string {
	if plan.Segmented {
		return []string{
			"-map", "0",
			"-c:v", "copy",
			"-c:a", "copy",
			"-bsf:a", "aac_adtstoasc",
			"-f", "segment",
			"-segment_time", strconv.Itoa(plan.SegmentSeconds),
			"-segment_format", "flv",
			"-reset_timestamps", "1",
			plan.OutputPath,
		}
	}

	return []string{
		"-map", "0",
		"-c:v", "copy",
		"-c:a", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-f", "flv",
		plan.OutputPath,
	}
}
