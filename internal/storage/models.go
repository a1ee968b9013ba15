package storage

import (
	"context"
	"time"
)

type Kind string

const (
	KindTodos     Kind = "todos"
	KindLogs      Kind = "logs"
	KindNotes     Kind = "notes"
	KindReminders Kind = "reminders"
)

// Kinds lists every collection in backup order.
var Kinds = []Kind{KindTodos, KindLogs, KindNotes, KindReminders}

func (k Kind) Valid() bool {
	switch k {
	case KindTodos, KindLogs, KindNotes, KindReminders:
		return true
	}
	return false
}

// Record is one entry of any collection. Completed is only meaningful for
// todos; Text holds the task, feeling or note body.
type Record struct {
	ID        int64
	Kind      Kind
	Text      string
	Completed bool
	Created   time.Time
}

type AuditEntry struct {
	Kind     Kind
	Op       string
	RecordID int64
	MetaJSON string
}

// Snapshot is every collection at one point in time.
type Snapshot map[Kind][]Record

// Backend persists ordered record collections. Records are returned in
// insertion order. Remove and SetCompleted return ErrNotFound for an
// unknown id.
type Backend interface {
	List(ctx context.Context, kind Kind) ([]Record, error)
	Append(ctx context.Context, rec Record) error
	Remove(ctx context.Context, kind Kind, id int64) error
	SetCompleted(ctx context.Context, kind Kind, id int64) error
	Close() error
}
