package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var fileNames = map[Kind]string{
	KindTodos:     "todo.json",
	KindLogs:      "logs.json",
	KindNotes:     "notes.json",
	KindReminders: "reminders.json",
}

// JSONBackend keeps one whole-file JSON array per kind. Every mutation
// rewrites the file through a temp file and rename. The mutex serializes
// writers in this process only; concurrent processes are last-write-wins.
type JSONBackend struct {
	dir    string
	logger zerolog.Logger
	mu     sync.Mutex
}

func OpenJSON(dir string, logger zerolog.Logger) (*JSONBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	b := &JSONBackend{dir: dir, logger: logger}
	for _, kind := range Kinds {
		path := b.path(kind)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
				return nil, fmt.Errorf("init %s: %w", filepath.Base(path), err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
		}
	}
	return b, nil
}

func (b *JSONBackend) path(kind Kind) string {
	return filepath.Join(b.dir, fileNames[kind])
}

func (b *JSONBackend) List(_ context.Context, kind Kind) ([]Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.read(kind)
}

func (b *JSONBackend) Append(_ context.Context, rec Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	recs, err := b.read(rec.Kind)
	if err != nil {
		return err
	}
	recs = append(recs, rec)
	if err := b.write(rec.Kind, recs); err != nil {
		return err
	}
	b.audit(rec.Kind, "append", rec.ID)
	return nil
}

func (b *JSONBackend) Remove(_ context.Context, kind Kind, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	recs, err := b.read(kind)
	if err != nil {
		return err
	}
	idx := indexOf(recs, id)
	if idx < 0 {
		return ErrNotFound
	}
	recs = append(recs[:idx], recs[idx+1:]...)
	if err := b.write(kind, recs); err != nil {
		return err
	}
	b.audit(kind, "remove", id)
	return nil
}

func (b *JSONBackend) SetCompleted(_ context.Context, kind Kind, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	recs, err := b.read(kind)
	if err != nil {
		return err
	}
	idx := indexOf(recs, id)
	if idx < 0 {
		return ErrNotFound
	}
	recs[idx].Completed = true
	if err := b.write(kind, recs); err != nil {
		return err
	}
	b.audit(kind, "complete", id)
	return nil
}

func (b *JSONBackend) Close() error { return nil }

func (b *JSONBackend) read(kind Kind) ([]Record, error) {
	data, err := os.ReadFile(b.path(kind))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return unmarshalWire(kind, data)
}

func (b *JSONBackend) write(kind Kind, recs []Record) error {
	data, err := MarshalWire(kind, recs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	tmp, err := os.CreateTemp(b.dir, fileNames[kind]+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp %s: %w", kind, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", kind, err)
	}
	if err := os.Rename(tmpName, b.path(kind)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", kind, err)
	}
	return nil
}

func (b *JSONBackend) audit(kind Kind, op string, id int64) {
	b.logger.Debug().Str("kind", string(kind)).Str("op", op).Int64("record_id", id).Msg("audit")
}

func indexOf(recs []Record, id int64) int {
	for i, r := range recs {
		if r.ID == id {
			return i
		}
	}
	return -1
}
