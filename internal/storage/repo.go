package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrOutOfRange = errors.New("position out of range")
)

func (s *SQLBackend) List(ctx context.Context, kind Kind) ([]Record, error) {
	q := s.sql.Select("id", "body", "completed", "created_ms").
		From("records").
		Where(sq.Eq{"kind": string(kind)}).
		OrderBy("id ASC")
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list records query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var createdMS int64
		if err := rows.Scan(&r.ID, &r.Text, &r.Completed, &createdMS); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Kind = kind
		r.Created = time.UnixMilli(createdMS).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (s *SQLBackend) Append(ctx context.Context, rec Record) error {
	q := s.sql.Insert("records").
		Columns("kind", "id", "body", "completed", "created_ms").
		Values(string(rec.Kind), rec.ID, rec.Text, rec.Completed, rec.Created.UnixMilli())
	return s.mutate(ctx, q, AuditEntry{Kind: rec.Kind, Op: "append", RecordID: rec.ID}, false)
}

func (s *SQLBackend) Remove(ctx context.Context, kind Kind, id int64) error {
	q := s.sql.Delete("records").Where(sq.Eq{"kind": string(kind), "id": id})
	return s.mutate(ctx, q, AuditEntry{Kind: kind, Op: "remove", RecordID: id}, true)
}

func (s *SQLBackend) SetCompleted(ctx context.Context, kind Kind, id int64) error {
	q := s.sql.Update("records").
		Set("completed", true).
		Where(sq.Eq{"kind": string(kind), "id": id})
	return s.mutate(ctx, q, AuditEntry{Kind: kind, Op: "complete", RecordID: id}, true)
}

// mutate runs one statement and its audit row in a transaction.
func (s *SQLBackend) mutate(ctx context.Context, q sq.Sqlizer, entry AuditEntry, mustAffect bool) error {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s query: %w", entry.Op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", entry.Op, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("%s record: %w", entry.Op, err)
	}
	if mustAffect {
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%s rows affected: %w", entry.Op, err)
		}
		if n == 0 {
			return ErrNotFound
		}
	}

	if err := s.insertAudit(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", entry.Op, err)
	}
	return nil
}

func (s *SQLBackend) insertAudit(ctx context.Context, tx *sql.Tx, e AuditEntry) error {
	if e.MetaJSON == "" {
		e.MetaJSON = "{}"
	}
	q := s.sql.Insert("audit_log").
		Columns("kind", "op", "record_id", "meta_json").
		Values(string(e.Kind), e.Op, e.RecordID, e.MetaJSON)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// AuditCount returns how many audit rows exist for a kind.
func (s *SQLBackend) AuditCount(ctx context.Context, kind Kind) (int, error) {
	q := s.sql.Select("COUNT(*)").From("audit_log").Where(sq.Eq{"kind": string(kind)})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build audit count query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit: %w", err)
	}
	return n, nil
}
