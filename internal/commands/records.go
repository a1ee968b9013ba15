package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cogitator/internal/storage"
)

const (
	msgInvalidTask = "Invalid task number."
	msgTodoFailed  = "Todo management failed. Even the best servitors malfunction."
)

func (r *Router) registerRecords() {
	r.register(Command{Name: "log", Category: catPersonal, Usage: "feeling <mood>", Summary: "Log mood", Handler: r.logFeeling})
	r.register(Command{Name: "mood", Category: catPersonal, Summary: "Mood statistics", Handler: r.mood})
	r.register(Command{Name: "todo", Category: catPersonal, Usage: "[add|list|complete|remove] <task|#>", Summary: "Manage tasks", Handler: r.todo})
	r.register(Command{Name: "note", Category: catPersonal, Usage: "[text]", Summary: "Add/list notes", Handler: r.note})
	r.register(Command{Name: "reminder", Category: catPersonal, Usage: "[text]", Summary: "Set/list reminders", Handler: r.reminder})
	r.register(Command{Name: "search", Category: catPersonal, Usage: "<query>", Summary: "Search data", Handler: r.search})
	r.register(Command{Name: "backup", Category: catData, Summary: "Create data backup", Handler: r.backup})
	r.register(Command{Name: "export", Category: catData, Usage: "[todos|logs|notes|reminders|all]", Summary: "Export data", Handler: r.export})
}

func (r *Router) logFeeling(ctx context.Context, args []string) Result {
	if len(args) > 0 && strings.EqualFold(args[0], "feeling") {
		args = args[1:]
	}
	if len(args) == 0 {
		return fail("Usage: /log feeling <your mood/thoughts>")
	}
	feeling := joinArgs(args)
	if _, err := r.store.Append(ctx, storage.KindLogs, feeling); err != nil {
		return fail("Failed to log your feelings. Even the machine spirit has emotions.")
	}
	return ok(fmt.Sprintf("Mood logged: \"%s\". The Emperor acknowledges your emotional state.", feeling))
}

func (r *Router) mood(ctx context.Context, _ []string) Result {
	logs, err := r.store.List(ctx, storage.KindLogs)
	if err != nil {
		return fail("Mood data analysis failed.")
	}
	if len(logs) == 0 {
		return ok("No mood data recorded yet.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total entries: %d\nRecent entries:\n", len(logs))
	for _, entry := range lastN(logs, 10) {
		fmt.Fprintf(&b, "• %s: %s\n", entry.Created.Local().Format("1/2/2006"), entry.Text)
	}
	return ok(panel("😊 **MOOD ANALYSIS**", b.String()))
}

func (r *Router) todo(ctx context.Context, args []string) Result {
	if len(args) == 0 {
		return fail("Usage: /todo [add|list|remove|complete] <task>")
	}

	switch strings.ToLower(args[0]) {
	case "add":
		if len(args) < 2 {
			return fail("Usage: /todo add <task description>")
		}
		task := joinArgs(args[1:])
		rec, err := r.store.Append(ctx, storage.KindTodos, task)
		if err != nil {
			return fail(msgTodoFailed)
		}
		r.extendListing(storage.KindTodos, rec.ID)
		return ok(fmt.Sprintf("Task added: \"%s\". Another burden for the Emperor's servant.", task))

	case "list":
		todos, err := r.store.List(ctx, storage.KindTodos)
		if err != nil {
			return fail(msgTodoFailed)
		}
		r.rememberListing(storage.KindTodos, todos)
		if len(todos) == 0 {
			return ok("No tasks found. Even the Emperor rests sometimes.")
		}
		var b strings.Builder
		for i, t := range todos {
			mark := "⭕"
			if t.Completed {
				mark = "✅"
			}
			fmt.Fprintf(&b, "%s %d. %s\n", mark, i+1, t.Text)
		}
		return ok(panel("📋 **YOUR SACRED DUTIES**", b.String()))

	case "remove":
		if len(args) < 2 {
			return fail("Usage: /todo remove <task number>")
		}
		rec, err := r.mutateTodo(ctx, args[1], r.store.RemoveID)
		if err != nil {
			return todoFailure(err)
		}
		r.forgetListed(storage.KindTodos, rec.ID)
		return ok(fmt.Sprintf("Task removed: \"%s\". One less burden to bear.", rec.Text))

	case "complete":
		if len(args) < 2 {
			return fail("Usage: /todo complete <task number>")
		}
		rec, err := r.mutateTodo(ctx, args[1], r.store.CompleteID)
		if err != nil {
			return todoFailure(err)
		}
		return ok(fmt.Sprintf("Task completed: \"%s\". The Emperor is pleased.", rec.Text))

	default:
		return fail("Unknown todo action. Use: add, list, remove, or complete")
	}
}

// mutateTodo turns the user's position into a stable id, using the last
// listing this router showed when there is one.
func (r *Router) mutateTodo(ctx context.Context, rawPos string, op func(context.Context, storage.Kind, int64) (storage.Record, error)) (storage.Record, error) {
	pos, parsed := leadingInt(rawPos)
	if !parsed {
		return storage.Record{}, storage.ErrOutOfRange
	}

	id, listed, inRange := r.listedID(storage.KindTodos, pos)
	if listed && !inRange {
		return storage.Record{}, storage.ErrOutOfRange
	}
	if !listed {
		rec, err := r.store.ResolvePosition(ctx, storage.KindTodos, pos)
		if err != nil {
			return storage.Record{}, err
		}
		id = rec.ID
	}
	return op(ctx, storage.KindTodos, id)
}

// extendListing appends a freshly added id to an existing listing, so the
// new record takes the next position the user would see.
func (r *Router) extendListing(kind storage.Kind, id int64) {
	r.listingMu.Lock()
	defer r.listingMu.Unlock()
	if ids, listed := r.listings[kind]; listed {
		r.listings[kind] = append(ids, id)
	}
}

func (r *Router) forgetListed(kind storage.Kind, id int64) {
	r.listingMu.Lock()
	defer r.listingMu.Unlock()
	ids := r.listings[kind]
	for i, v := range ids {
		if v == id {
			r.listings[kind] = append(ids[:i:i], ids[i+1:]...)
			return
		}
	}
}

func todoFailure(err error) Result {
	if errors.Is(err, storage.ErrOutOfRange) || errors.Is(err, storage.ErrNotFound) {
		return fail(msgInvalidTask)
	}
	return fail(msgTodoFailed)
}

func (r *Router) note(ctx context.Context, args []string) Result {
	if len(args) == 0 {
		notes, err := r.store.List(ctx, storage.KindNotes)
		if err != nil {
			return fail("Note retrieval failed.")
		}
		if len(notes) == 0 {
			return ok("No notes found.")
		}
		return ok(panel("📝 **RECORDED NOTES**", numbered(lastN(notes, 10))))
	}

	text := joinArgs(args)
	if _, err := r.store.Append(ctx, storage.KindNotes, text); err != nil {
		return fail("Note storage failed.")
	}
	return ok(fmt.Sprintf("Note recorded: \"%s\". Knowledge preserved.", text))
}

func (r *Router) reminder(ctx context.Context, args []string) Result {
	if len(args) == 0 {
		reminders, err := r.store.List(ctx, storage.KindReminders)
		if err != nil {
			return fail("Reminder retrieval failed.")
		}
		if len(reminders) == 0 {
			return fail("Usage: /reminder <text>")
		}
		return ok(panel("⏰ **ACTIVE REMINDERS**", numbered(lastN(reminders, 10))))
	}

	text := joinArgs(args)
	if _, err := r.store.Append(ctx, storage.KindReminders, text); err != nil {
		return fail("Reminder storage failed.")
	}
	return ok(fmt.Sprintf("Reminder set: \"%s\". The machine spirit will remember.", text))
}

func (r *Router) search(ctx context.Context, args []string) Result {
	if len(args) == 0 {
		return fail("Usage: /search <query>")
	}
	query := strings.ToLower(joinArgs(args))

	var results []string
	if todos, err := r.store.List(ctx, storage.KindTodos); err == nil {
		for _, t := range todos {
			if strings.Contains(strings.ToLower(t.Text), query) {
				results = append(results, "📋 Todo: "+t.Text)
			}
		}
	}
	if notes, err := r.store.List(ctx, storage.KindNotes); err == nil {
		for _, n := range notes {
			if strings.Contains(strings.ToLower(n.Text), query) {
				results = append(results, "📝 Note: "+n.Text)
			}
		}
	}

	if len(results) == 0 {
		return ok(fmt.Sprintf("No results found for \"%s\". The archives yield nothing.", query))
	}
	if len(results) > 10 {
		results = results[:10]
	}
	return ok(panel("🔍 **SEARCH RESULTS**", strings.Join(results, "\n")+"\n\nKnowledge retrieved from the data vaults."))
}

type backupProfile struct {
	Personality string `json:"personality"`
	Model       string `json:"model"`
	APIKeySet   bool   `json:"apiKeySet"`
}

type backupDocument struct {
	Timestamp string        `json:"timestamp"`
	Config    backupProfile `json:"config"`
	Todos     any           `json:"todos"`
	Logs      any           `json:"logs"`
	Notes     any           `json:"notes"`
	Reminders any           `json:"reminders"`
}

func (r *Router) backup(ctx context.Context, _ []string) Result {
	const failed = "Backup ritual failed. Data remains vulnerable."

	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		return fail(failed)
	}
	now := r.now().UTC()
	iso := now.Format("2006-01-02T15:04:05.000Z")
	profile := r.profiles.Current()

	doc := backupDocument{
		Timestamp: iso,
		Config: backupProfile{
			Personality: profile.Personality,
			Model:       profile.Model,
			APIKeySet:   profile.OpenRouterAPIKey != "",
		},
		Todos:     storage.Wire(storage.KindTodos, snap[storage.KindTodos]),
		Logs:      storage.Wire(storage.KindLogs, snap[storage.KindLogs]),
		Notes:     storage.Wire(storage.KindNotes, snap[storage.KindNotes]),
		Reminders: storage.Wire(storage.KindReminders, snap[storage.KindReminders]),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fail(failed)
	}

	name := "backup-" + strings.NewReplacer(":", "-", ".", "-").Replace(iso) + ".json"
	if err := os.MkdirAll(r.backupDir, 0o755); err != nil {
		r.logger.Error().Err(err).Str("dir", r.backupDir).Msg("create backup dir")
		return fail(failed)
	}
	if err := os.WriteFile(filepath.Join(r.backupDir, name), data, 0o600); err != nil {
		r.logger.Error().Err(err).Str("file", name).Msg("write backup")
		return fail(failed)
	}
	return ok("Backup created: " + name + "\nSacred data preserved for posterity.")
}

var exportTitles = map[storage.Kind]string{
	storage.KindTodos:     "📋 **TODO EXPORT**",
	storage.KindLogs:      "📊 **LOG EXPORT**",
	storage.KindNotes:     "📝 **NOTES EXPORT**",
	storage.KindReminders: "⏰ **REMINDERS EXPORT**",
}

func (r *Router) export(ctx context.Context, args []string) Result {
	if len(args) == 0 {
		return fail("Usage: /export [todos|logs|notes|reminders|all]")
	}

	var kinds []storage.Kind
	switch kind := storage.Kind(strings.ToLower(args[0])); {
	case kind == "all":
		kinds = storage.Kinds
	case kind.Valid():
		kinds = []storage.Kind{kind}
	default:
		return fail("Export type must be: todos, logs, notes, reminders, or all")
	}

	sections := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		recs, err := r.store.List(ctx, kind)
		if err != nil {
			return fail("Data export failed. Archives corrupted.")
		}
		data, err := storage.MarshalWire(kind, recs)
		if err != nil {
			return fail("Data export failed. Archives corrupted.")
		}
		sections = append(sections, panel(exportTitles[kind], "```json\n"+string(data)+"\n```"))
	}
	return ok(strings.Join(sections, "\n\n"))
}

func lastN(recs []storage.Record, n int) []storage.Record {
	if len(recs) > n {
		return recs[len(recs)-n:]
	}
	return recs
}

func numbered(recs []storage.Record) string {
	var b strings.Builder
	for i, rec := range recs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec.Text)
	}
	return b.String()
}
