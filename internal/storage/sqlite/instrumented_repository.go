package sqlite

import (
	"context"
	"database/sql"

	"github.com/streamcap/streamcapd/internal/storage"
	"github.com/streamcap/streamcapd/internal/telemetry"
)

// InstrumentedCaptureRepository wraps CaptureRepository with telemetry.
type InstrumentedCaptureRepository struct {
	repo      *CaptureRepository
	telemetry *telemetry.Telemetry
}

// NewInstrumentedCaptureRepository creates a new instrumented capture repository.
func NewInstrumentedCaptureRepository(dbConn *sql.DB, tel *telemetry.Telemetry) *InstrumentedCaptureRepository {
	return &InstrumentedCaptureRepository{
		repo:      NewCaptureRepository(dbConn),
		telemetry: tel,
	}
}

func (r *InstrumentedCaptureRepository) TrackCapture(recordingID, outputPath string) (int64, error) {
	var id int64

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(context.Background(), "track_capture", func(ctx context.Context) error {
		id, err = r.repo.TrackCapture(recordingID, outputPath)

		return err
	})

	if instrumentedErr != nil {
		return 0, instrumentedErr
	}

	return id, nil
}

func (r *InstrumentedCaptureRepository) FinishCapture(id int64, status string, bytes int64) error {
	return r.telemetry.InstrumentDBOperation(context.Background(), "finish_capture", func(ctx context.Context) error {
		return r.repo.FinishCapture(id, status, bytes)
	})
}

func (r *InstrumentedCaptureRepository) GetCaptures() ([]storage.CaptureRecord, error) {
	var result []storage.CaptureRecord

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(context.Background(), "get_captures", func(ctx context.Context) error {
		result, err = r.repo.GetCaptures()

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

func (r *InstrumentedCaptureRepository) GetCapturesByRecording(recordingID string) ([]storage.CaptureRecord, error) {
	var result []storage.CaptureRecord

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(context.Background(), "get_captures_by_recording", func(ctx context.Context) error {
		result, err = r.repo.GetCapturesByRecording(recordingID)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}
