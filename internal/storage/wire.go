package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

// isoLayout matches the millisecond ISO-8601 timestamps of existing data files.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

type todoWire struct {
	ID        int64  `json:"id"`
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
	Created   string `json:"created"`
}

type logWire struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Feeling   string `json:"feeling"`
}

type textWire struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Created string `json:"created"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Wire converts records to the per-kind JSON shape used on disk, in
// backups and in exports.
func Wire(kind Kind, recs []Record) any {
	switch kind {
	case KindTodos:
		out := make([]todoWire, 0, len(recs))
		for _, r := range recs {
			out = append(out, todoWire{ID: r.ID, Task: r.Text, Completed: r.Completed, Created: formatTime(r.Created)})
		}
		return out
	case KindLogs:
		out := make([]logWire, 0, len(recs))
		for _, r := range recs {
			out = append(out, logWire{ID: r.ID, Timestamp: formatTime(r.Created), Feeling: r.Text})
		}
		return out
	default:
		out := make([]textWire, 0, len(recs))
		for _, r := range recs {
			out = append(out, textWire{ID: r.ID, Text: r.Text, Created: formatTime(r.Created)})
		}
		return out
	}
}

// MarshalWire renders records as indented JSON in their on-disk shape.
func MarshalWire(kind Kind, recs []Record) ([]byte, error) {
	return json.MarshalIndent(Wire(kind, recs), "", "  ")
}

func unmarshalWire(kind Kind, data []byte) ([]Record, error) {
	var out []Record
	switch kind {
	case KindTodos:
		var in []todoWire
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		for _, w := range in {
			out = append(out, Record{ID: w.ID, Kind: kind, Text: w.Task, Completed: w.Completed, Created: parseTime(w.Created)})
		}
	case KindLogs:
		var in []logWire
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		for _, w := range in {
			out = append(out, Record{ID: w.ID, Kind: kind, Text: w.Feeling, Created: parseTime(w.Timestamp)})
		}
	default:
		var in []textWire
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		for _, w := range in {
			out = append(out, Record{ID: w.ID, Kind: kind, Text: w.Text, Created: parseTime(w.Created)})
		}
	}
	return out, nil
}
