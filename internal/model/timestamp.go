package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// The backend serialises naive datetimes without a zone; those are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// UnmarshalJSON accepts both zoned and naive created_at values.
func (m *MediaItem) UnmarshalJSON(data []byte) error {
	type alias MediaItem
	aux := struct {
		*alias
		CreatedAt string `json:"created_at"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := parseTimestamp(aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("media %s: %w", m.ID, err)
	}
	m.CreatedAt = t
	return nil
}

// UnmarshalJSON accepts both zoned and naive created_at values.
func (f *Folder) UnmarshalJSON(data []byte) error {
	type alias Folder
	aux := struct {
		*alias
		CreatedAt string `json:"created_at"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := parseTimestamp(aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("folder %s: %w", f.ID, err)
	}
	f.CreatedAt = t
	return nil
}
