package recording

import (
	"encoding/json"
	"fmt"
	"os"
)

// Definition is the on-disk shape of one monitored stream. Monitoring and
// pushes default to enabled when the field is absent.
type Definition struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Platform       string            `json:"platform"`
	URL            string            `json:"url"`
	OutputDir      string            `json:"output_dir,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Proxy          string            `json:"proxy,omitempty"`
	Monitor        *bool             `json:"monitor,omitempty"`
	Push           *bool             `json:"push,omitempty"`
	Container      string            `json:"container,omitempty"`
	Segmented      bool              `json:"segmented,omitempty"`
	SegmentSeconds int               `json:"segment_seconds,omitempty"`
}

// LoadFile reads the recording definitions from a JSON file.
func LoadFile(path string) ([]*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recordings file: %w", err)
	}

	var defs []Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse recordings file: %w", err)
	}

	recordings := make([]*Recording, 0, len(defs))

	for i, def := range defs {
		rec, err := def.Build()
		if err != nil {
			return nil, fmt.Errorf("recording %d: %w", i, err)
		}

		recordings = append(recordings, rec)
	}

	return recordings, nil
}

// Build validates the definition and applies defaults.
func (d Definition) Build() (*Recording, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("id is required")
	}

	if d.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	container := d.Container
	if container == "" {
		container = "flv"
	}

	segmentSeconds := d.SegmentSeconds
	if d.Segmented && segmentSeconds <= 0 {
		segmentSeconds = 60
	}

	title := d.Title
	if title == "" {
		title = d.ID
	}

	return &Recording{
		ID:             d.ID,
		Title:          title,
		PlatformKey:    d.Platform,
		URL:            d.URL,
		OutputDir:      d.OutputDir,
		Headers:        d.Headers,
		Proxy:          d.Proxy,
		MonitorEnabled: d.Monitor == nil || *d.Monitor,
		StatusInfo:     StatusNormal,
		PushEnabled:    d.Push == nil || *d.Push,
		Container:      container,
		Segmented:      d.Segmented,
		SegmentSeconds: segmentSeconds,
	}, nil
}
