package fishing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	apperrors "seafoodpulse/internal/errors"
	"seafoodpulse/internal/files"
	"seafoodpulse/pkg/contracts/domain"
)

// MaxDurationHours is the longest plausible port stay (one year)
const MaxDurationHours = 8760.0

type envelope struct {
	Events []domain.FishingEvent `json:"events"`
}

// Load reads an events export. Both {"events": [...]} and a bare array
// are accepted.
func Load(path string) ([]domain.FishingEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewFileError(path, err)
	}
	return Decode(data)
}

// Decode parses events from raw JSON
func Decode(data []byte) ([]domain.FishingEvent, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, apperrors.NewParsingError("empty events document", nil)
	}

	if trimmed[0] == '[' {
		var events []domain.FishingEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, apperrors.NewParsingError("decode events array", err)
		}
		return events, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, apperrors.NewParsingError("decode events object", err)
	}
	if env.Events == nil {
		env.Events = []domain.FishingEvent{}
	}
	return env.Events, nil
}

// LatestFile returns the most recently modified .json file in dir
func LatestFile(dir string) (string, error) {
	found, err := files.NewDiscovery("").FindFilesByPattern(dir, "*.json")
	if err != nil {
		return "", apperrors.NewFileError(dir, err)
	}
	latest, ok := files.GetLatestFile(found)
	if !ok {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("events file in %s", dir))
	}
	return latest.Path, nil
}

// parseTime accepts RFC 3339 timestamps, with or without fractional
// seconds, and returns them in UTC.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
