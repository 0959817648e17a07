package mux

import "fmt"

// ContainerKind selects the output container family.
type ContainerKind string

const (
	ContainerMPEGTS ContainerKind = "mpegts"
	ContainerMP4    ContainerKind = "mp4"
	ContainerFLV    ContainerKind = "flv"
)

// ContainerForFormat maps a configured format name to a container kind.
func ContainerForFormat(format string) (ContainerKind, error) {
	switch format {
	case "ts", "mpegts":
		return ContainerMPEGTS, nil
	case "mp4", "mov", "m4v":
		return ContainerMP4, nil
	case "flv":
		return ContainerFLV, nil
	}

	return "", fmt.Errorf("unsupported container format: %s", format)
}

// Plan describes one ffmpeg invocation. It is immutable once constructed and
// consumed exactly once by the launcher.
type Plan struct {
	Kind           ContainerKind
	Segmented      bool
	SegmentSeconds int
	OutputPath     string
}

// PlanError reports a contract violation by the caller, such as requesting
// segmented output without a positive duration. It is a programming error at
// the call site and is never silently defaulted.
type PlanError struct {
	Field  string
	Reason string
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("invalid mux plan: %s: %s", e.Field, e.Reason)
}
