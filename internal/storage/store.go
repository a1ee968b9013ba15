package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cogitator/internal/config"
	"cogitator/internal/metrics"
)

type Options struct {
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Store adds positional addressing and id allocation on top of a Backend.
type Store struct {
	backend Backend
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu sync.Mutex
}

func New(b Backend, opts Options) *Store {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Global()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{backend: b, logger: opts.Logger, metrics: opts.Metrics, now: opts.Now}
}

// Open picks the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, dataDir string, opts Options) (*Store, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Driver {
	case config.DriverJSON, "":
		b, err = OpenJSON(dataDir, opts.Logger)
	case config.DriverSQLite, config.DriverPostgres:
		b, err = OpenSQL(ctx, cfg.Driver, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return New(b, opts), nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) List(ctx context.Context, kind Kind) ([]Record, error) {
	recs, err := s.backend.List(ctx, kind)
	s.observe(kind, "list", err)
	return recs, err
}

// Append stores text as a new record. Ids come from the creation time in
// milliseconds and always exceed the kind's current last id.
func (s *Store) Append(ctx context.Context, kind Kind, text string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.backend.List(ctx, kind)
	if err != nil {
		s.observe(kind, "append", err)
		return Record{}, err
	}
	now := s.now()
	id := now.UnixMilli()
	if n := len(recs); n > 0 && recs[n-1].ID >= id {
		id = recs[n-1].ID + 1
	}
	rec := Record{ID: id, Kind: kind, Text: text, Created: now.UTC()}
	err = s.backend.Append(ctx, rec)
	s.observe(kind, "append", err)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ResolvePosition returns the record at a 1-based position.
func (s *Store) ResolvePosition(ctx context.Context, kind Kind, pos int) (Record, error) {
	recs, err := s.backend.List(ctx, kind)
	if err != nil {
		return Record{}, err
	}
	if pos < 1 || pos > len(recs) {
		return Record{}, ErrOutOfRange
	}
	return recs[pos-1], nil
}

func (s *Store) RemoveAt(ctx context.Context, kind Kind, pos int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.ResolvePosition(ctx, kind, pos)
	if err != nil {
		s.observe(kind, "remove", err)
		return Record{}, err
	}
	return s.removeLocked(ctx, rec)
}

func (s *Store) SetCompletedAt(ctx context.Context, kind Kind, pos int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.ResolvePosition(ctx, kind, pos)
	if err != nil {
		s.observe(kind, "complete", err)
		return Record{}, err
	}
	return s.completeLocked(ctx, rec)
}

// RemoveID deletes the record with id. ErrNotFound if it is gone.
func (s *Store) RemoveID(ctx context.Context, kind Kind, id int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.find(ctx, kind, id)
	if err != nil {
		s.observe(kind, "remove", err)
		return Record{}, err
	}
	return s.removeLocked(ctx, rec)
}

func (s *Store) CompleteID(ctx context.Context, kind Kind, id int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.find(ctx, kind, id)
	if err != nil {
		s.observe(kind, "complete", err)
		return Record{}, err
	}
	return s.completeLocked(ctx, rec)
}

// Snapshot reads every kind for backup and export.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := make(Snapshot, len(Kinds))
	for _, kind := range Kinds {
		recs, err := s.List(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", kind, err)
		}
		snap[kind] = recs
	}
	return snap, nil
}

func (s *Store) find(ctx context.Context, kind Kind, id int64) (Record, error) {
	recs, err := s.backend.List(ctx, kind)
	if err != nil {
		return Record{}, err
	}
	if idx := indexOf(recs, id); idx >= 0 {
		return recs[idx], nil
	}
	return Record{}, ErrNotFound
}

func (s *Store) removeLocked(ctx context.Context, rec Record) (Record, error) {
	err := s.backend.Remove(ctx, rec.Kind, rec.ID)
	s.observe(rec.Kind, "remove", err)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Store) completeLocked(ctx context.Context, rec Record) (Record, error) {
	err := s.backend.SetCompleted(ctx, rec.Kind, rec.ID)
	s.observe(rec.Kind, "complete", err)
	if err != nil {
		return Record{}, err
	}
	rec.Completed = true
	return rec, nil
}

func (s *Store) observe(kind Kind, op string, err error) {
	ok := err == nil || errors.Is(err, ErrOutOfRange) || errors.Is(err, ErrNotFound)
	s.metrics.StoreOperations.WithLabelValues(string(kind), op, metrics.Outcome(ok)).Inc()
	if !ok {
		s.logger.Error().Err(err).Str("kind", string(kind)).Str("op", op).Msg("store operation failed")
	}
}
