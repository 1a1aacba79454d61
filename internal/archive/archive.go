// Package archive renders audit histories to JSONL and ships them to one or
// more destinations (local file, S3). Operators run an export before pruning
// so truncated events survive outside the store.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/trail/internal/model"
)

// Destination is a sync target for an exported history.
type Destination interface {
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// header is the first JSONL record of every export.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Subject    string    `json:"subject"`
	Timestamp  time.Time `json:"timestamp"`
	EventCount int       `json:"event_count"`
}

// record wraps a single exported event.
type record struct {
	Type string      `json:"type"`
	Data model.Entry `json:"data"`
}

// Exporter encodes histories and writes them to every destination.
type Exporter struct {
	destinations []Destination
	logger       *slog.Logger
}

func NewExporter(destinations []Destination, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{destinations: destinations, logger: logger}
}

// Export writes subject's entries as JSONL to all destinations. Tombstoned
// entries carry no data and are skipped with a warning. An error from any
// destination fails the export; callers pruning afterwards should stop.
func (x *Exporter) Export(ctx context.Context, subject string, entries []model.Entry) error {
	data, err := EncodeJSONL(subject, entries, x.logger)
	if err != nil {
		return err
	}
	for _, dest := range x.destinations {
		if err := dest.Write(ctx, data); err != nil {
			return fmt.Errorf("archive %q: %w", subject, err)
		}
	}
	return nil
}

// EncodeJSONL renders one header line followed by one record line per live
// entry.
func EncodeJSONL(subject string, entries []model.Entry, logger *slog.Logger) ([]byte, error) {
	live := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Tombstoned {
			if logger != nil {
				logger.Warn("skipping tombstoned entry in export", "subject", subject, "id", e.ID)
			}
			continue
		}
		live = append(live, e)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(header{
		Version:    "1",
		Type:       "header",
		Subject:    subject,
		Timestamp:  time.Now().UTC(),
		EventCount: len(live),
	}); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	for _, e := range live {
		if err := enc.Encode(record{Type: "event", Data: e}); err != nil {
			return nil, fmt.Errorf("encode event %s: %w", e.ID, err)
		}
	}
	return buf.Bytes(), nil
}
