package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

type backendFactory func(t *testing.T) Backend

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"json": func(t *testing.T) Backend {
			b, err := OpenJSON(t.TempDir(), zerolog.Nop())
			if err != nil {
				t.Fatalf("open json: %v", err)
			}
			return b
		},
		"sqlite": func(t *testing.T) Backend {
			dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
			b, err := OpenSQL(context.Background(), "sqlite", dsn)
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return b
		},
	}
}

func fixedClock(start time.Time) func() time.Time {
	return func() time.Time { return start }
}

func newStore(t *testing.T, f backendFactory) *Store {
	t.Helper()
	b := f(t)
	t.Cleanup(func() { _ = b.Close() })
	return New(b, Options{Logger: zerolog.Nop(), Now: fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))})
}

func texts(recs []Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Text)
	}
	return out
}

func TestAppendThenListEveryKind(t *testing.T) {
	for name, f := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, f)
			ctx := context.Background()
			for _, kind := range Kinds {
				if _, err := s.Append(ctx, kind, "first "+string(kind)); err != nil {
					t.Fatalf("append %s: %v", kind, err)
				}
				if _, err := s.Append(ctx, kind, "second "+string(kind)); err != nil {
					t.Fatalf("append %s: %v", kind, err)
				}
				recs, err := s.List(ctx, kind)
				if err != nil {
					t.Fatalf("list %s: %v", kind, err)
				}
				if diff := cmp.Diff([]string{"first " + string(kind), "second " + string(kind)}, texts(recs)); diff != "" {
					t.Fatalf("%s texts mismatch (-want +got):\n%s", kind, diff)
				}
			}
		})
	}
}

func TestIDsStrictlyIncreaseWithinSameMillisecond(t *testing.T) {
	for name, f := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, f)
			ctx := context.Background()
			a, _ := s.Append(ctx, KindNotes, "a")
			b, _ := s.Append(ctx, KindNotes, "b")
			c, _ := s.Append(ctx, KindNotes, "c")
			if !(a.ID < b.ID && b.ID < c.ID) {
				t.Fatalf("expected increasing ids, got %d %d %d", a.ID, b.ID, c.ID)
			}
		})
	}
}

func TestListIsStable(t *testing.T) {
	for name, f := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, f)
			ctx := context.Background()
			_, _ = s.Append(ctx, KindTodos, "x")
			_, _ = s.Append(ctx, KindTodos, "y")
			first, _ := s.List(ctx, KindTodos)
			second, _ := s.List(ctx, KindTodos)
			if diff := cmp.Diff(first, second); diff != "" {
				t.Fatalf("lists differ:\n%s", diff)
			}
		})
	}
}

func TestPositionalMutations(t *testing.T) {
	for name, f := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, f)
			ctx := context.Background()
			_, _ = s.Append(ctx, KindTodos, "Clean the armory")
			_, _ = s.Append(ctx, KindTodos, "Bless the bolter")

			rec, err := s.SetCompletedAt(ctx, KindTodos, 2)
			if err != nil || rec.Text != "Bless the bolter" || !rec.Completed {
				t.Fatalf("complete: rec=%+v err=%v", rec, err)
			}
			recs, _ := s.List(ctx, KindTodos)
			if recs[0].Completed || !recs[1].Completed {
				t.Fatalf("unexpected completion flags %+v", recs)
			}

			before, _ := s.List(ctx, KindTodos)
			for _, pos := range []int{0, 3, -1} {
				if _, err := s.RemoveAt(ctx, KindTodos, pos); !errors.Is(err, ErrOutOfRange) {
					t.Fatalf("remove %d: expected ErrOutOfRange, got %v", pos, err)
				}
				if _, err := s.SetCompletedAt(ctx, KindTodos, pos); !errors.Is(err, ErrOutOfRange) {
					t.Fatalf("complete %d: expected ErrOutOfRange, got %v", pos, err)
				}
			}
			after, _ := s.List(ctx, KindTodos)
			if diff := cmp.Diff(before, after); diff != "" {
				t.Fatalf("out of range mutated the list:\n%s", diff)
			}

			rec, err = s.RemoveAt(ctx, KindTodos, 1)
			if err != nil || rec.Text != "Clean the armory" {
				t.Fatalf("remove: rec=%+v err=%v", rec, err)
			}
			recs, _ = s.List(ctx, KindTodos)
			if diff := cmp.Diff([]string{"Bless the bolter"}, texts(recs)); diff != "" {
				t.Fatalf("after remove (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMutationsByID(t *testing.T) {
	for name, f := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, f)
			ctx := context.Background()
			a, _ := s.Append(ctx, KindTodos, "a")

			if _, err := s.CompleteID(ctx, KindTodos, a.ID); err != nil {
				t.Fatalf("complete by id: %v", err)
			}
			if _, err := s.RemoveID(ctx, KindTodos, a.ID); err != nil {
				t.Fatalf("remove by id: %v", err)
			}
			if _, err := s.RemoveID(ctx, KindTodos, a.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if _, err := s.CompleteID(ctx, KindTodos, a.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestSnapshotCoversAllKinds(t *testing.T) {
	s := newStore(t, backends()["json"])
	ctx := context.Background()
	_, _ = s.Append(ctx, KindReminders, "pray")

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap) != len(Kinds) {
		t.Fatalf("expected %d kinds, got %d", len(Kinds), len(snap))
	}
	if got := texts(snap[KindReminders]); len(got) != 1 || got[0] != "pray" {
		t.Fatalf("unexpected reminders %v", got)
	}
}

func TestJSONBackendFileShapes(t *testing.T) {
	dir := t.TempDir()
	b, err := OpenJSON(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, name := range []string{"todo.json", "logs.json", "notes.json", "reminders.json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Fatalf("expected %s initialised to [], got %q", name, data)
		}
	}

	s := New(b, Options{Logger: zerolog.Nop(), Now: fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))})
	ctx := context.Background()
	_, _ = s.Append(ctx, KindTodos, "Clean the armory")
	_, _ = s.Append(ctx, KindLogs, "grim")

	todo, _ := os.ReadFile(filepath.Join(dir, "todo.json"))
	for _, want := range []string{`"task": "Clean the armory"`, `"completed": false`, `"created": "2026-01-02T03:04:05.000Z"`, `"id": 1767323045000`} {
		if !strings.Contains(string(todo), want) {
			t.Fatalf("todo.json missing %s:\n%s", want, todo)
		}
	}
	logs, _ := os.ReadFile(filepath.Join(dir, "logs.json"))
	for _, want := range []string{`"feeling": "grim"`, `"timestamp": "2026-01-02T03:04:05.000Z"`} {
		if !strings.Contains(string(logs), want) {
			t.Fatalf("logs.json missing %s:\n%s", want, logs)
		}
	}
}

func TestJSONBackendReadsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	doc := `[{"id": 5, "text": "old note", "created": "2024-05-01T10:00:00.000Z"}]`
	if err := os.WriteFile(filepath.Join(dir, "notes.json"), []byte(doc), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	b, err := OpenJSON(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	recs, err := b.List(context.Background(), KindNotes)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []Record{{ID: 5, Kind: KindNotes, Text: "old note", Created: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLBackendWritesAudit(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "audit.db")
	b, err := OpenSQL(context.Background(), "sqlite3", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()
	s := New(b, Options{Logger: zerolog.Nop()})
	ctx := context.Background()

	_, _ = s.Append(ctx, KindTodos, "a")
	_, _ = s.SetCompletedAt(ctx, KindTodos, 1)
	_, _ = s.RemoveAt(ctx, KindTodos, 1)

	n, err := b.AuditCount(ctx, KindTodos)
	if err != nil {
		t.Fatalf("audit count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 audit rows, got %d", n)
	}
}
