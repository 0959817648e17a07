package storage

// CaptureRecord is one capture attempt tracked on disk.
type CaptureRecord struct {
	ID          int64
	RecordingID string
	OutputPath  string
	StartedAt   string
	EndedAt     string
	Bytes       int64
	Status      string
}

// Capture lifecycle statuses.
const (
	CaptureStatusActive  = "active"
	CaptureStatusDone    = "done"
	CaptureStatusStopped = "stopped"
	CaptureStatusFailed  = "failed"
)

// CaptureReadRepository reads capture history.
type CaptureReadRepository interface {
	GetCaptures() ([]CaptureRecord, error)
	GetCapturesByRecording(recordingID string) ([]CaptureRecord, error)
}

// CaptureWriteRepository tracks capture attempts.
type CaptureWriteRepository interface {
	TrackCapture(recordingID, outputPath string) (int64, error)
	FinishCapture(id int64, status string, bytes int64) error
}
