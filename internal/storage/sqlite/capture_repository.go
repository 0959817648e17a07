package sqlite

import (
	"database/sql"
	"time"

	"github.com/streamcap/streamcapd/internal/storage"
)

// CaptureRepository stores capture history in SQLite.
type CaptureRepository struct {
	db *sql.DB
}

func NewCaptureRepository(dbConn *sql.DB) *CaptureRepository {
	return &CaptureRepository{db: dbConn}
}

// TrackCapture inserts a new active capture row and returns its id.
func (r *CaptureRepository) TrackCapture(recordingID, outputPath string) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO captures (recording_id, output_path, started_at, status)
		VALUES (?, ?, ?, ?)
	`, recordingID, outputPath, time.Now().Format(time.RFC3339), storage.CaptureStatusActive)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// FinishCapture closes a capture row with its final status and byte count.
func (r *CaptureRepository) FinishCapture(id int64, status string, bytes int64) error {
	_, err := r.db.Exec(`
		UPDATE captures SET status = ?, bytes = ?, ended_at = ?
		WHERE id = ?
	`, status, bytes, time.Now().Format(time.RFC3339), id)

	return err
}

// GetCaptures returns every tracked capture, newest first.
func (r *CaptureRepository) GetCaptures() ([]storage.CaptureRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, recording_id, output_path, started_at, ended_at, bytes, status
		FROM captures ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCaptures(rows)
}

// GetCapturesByRecording returns the capture history of one recording, newest first.
func (r *CaptureRepository) GetCapturesByRecording(recordingID string) ([]storage.CaptureRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, recording_id, output_path, started_at, ended_at, bytes, status
		FROM captures WHERE recording_id = ? ORDER BY started_at DESC`, recordingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCaptures(rows)
}

func scanCaptures(rows *sql.Rows) ([]storage.CaptureRecord, error) {
	var captures []storage.CaptureRecord

	for rows.Next() {
		var record storage.CaptureRecord

		var endedAt sql.NullString

		if err := rows.Scan(&record.ID, &record.RecordingID, &record.OutputPath,
			&record.StartedAt, &endedAt, &record.Bytes, &record.Status); err != nil {
			return nil, err
		}

		if endedAt.Valid {
			record.EndedAt = endedAt.String
		}

		captures = append(captures, record)
	}

	return captures, rows.Err()
}
