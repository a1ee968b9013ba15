package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"cogitator/internal/crypto"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestStore(t *testing.T, opts ProfileStoreOptions) *ProfileStore {
	t.Helper()
	if opts.Path == "" {
		opts.Path = filepath.Join(t.TempDir(), "config.json")
	}
	opts.Logger = zerolog.Nop()
	s, err := OpenProfileStore(opts)
	if err != nil {
		t.Fatalf("open profile store: %v", err)
	}
	return s
}

func TestOpenCreatesDefaultDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	s := openTestStore(t, ProfileStoreOptions{Path: path})

	if got := s.Current(); got != DefaultProfile() {
		t.Fatalf("expected default profile, got %#v", got)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	for _, want := range []string{`"openRouterApiKey": ""`, `"personality": "snarky"`, `"model": "` + DefaultModel + `"`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("expected %s in document, got:\n%s", want, raw)
		}
	}
}

func TestUpdatePersistsAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := openTestStore(t, ProfileStoreOptions{Path: path})

	if _, err := s.Update(func(p *Profile) error { return p.Set("personality", "Helpful") }); err != nil {
		t.Fatalf("update personality: %v", err)
	}
	if got := s.Current().Personality; got != PersonalityHelpful {
		t.Fatalf("expected helpful, got %q", got)
	}

	_, err := s.Update(func(p *Profile) error { return p.Set("personality", "grumpy") })
	if !errors.Is(err, ErrInvalidPersonality) {
		t.Fatalf("expected ErrInvalidPersonality, got %v", err)
	}
	if got := s.Current().Personality; got != PersonalityHelpful {
		t.Fatalf("failed update must not change profile, got %q", got)
	}

	reopened := openTestStore(t, ProfileStoreOptions{Path: path})
	if got := reopened.Current().Personality; got != PersonalityHelpful {
		t.Fatalf("expected persisted helpful, got %q", got)
	}
}

func TestSetUnknownKey(t *testing.T) {
	p := DefaultProfile()
	if err := p.Set("volume", "11"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}

func TestAPIKeyOverrideIsNotWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := openTestStore(t, ProfileStoreOptions{Path: path, APIKeyOverride: "env-key"})

	if got := s.Current().OpenRouterAPIKey; got != "env-key" {
		t.Fatalf("expected override key, got %q", got)
	}
	if _, err := s.Update(func(p *Profile) error { return p.Set("model", "openai/gpt-4o") }); err != nil {
		t.Fatalf("update model: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(raw), "env-key") {
		t.Fatalf("override key leaked into document:\n%s", raw)
	}
}

func TestSealedAPIKey(t *testing.T) {
	sealer, err := crypto.NewSealer(bytes.Repeat([]byte{9}, 32))
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.json")
	s := openTestStore(t, ProfileStoreOptions{Path: path, Sealer: sealer})

	if _, err := s.Update(func(p *Profile) error { return p.Set("apikey", "sk-or-1") }); err != nil {
		t.Fatalf("update apikey: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "sk-or-1") || !strings.Contains(string(raw), crypto.SealedPrefix) {
		t.Fatalf("expected sealed key on disk, got:\n%s", raw)
	}

	reopened := openTestStore(t, ProfileStoreOptions{Path: path, Sealer: sealer})
	if got := reopened.Current().OpenRouterAPIKey; got != "sk-or-1" {
		t.Fatalf("expected unsealed key, got %q", got)
	}

	_, err = OpenProfileStore(ProfileStoreOptions{Path: path, Logger: zerolog.Nop()})
	if !errors.Is(err, ErrSealedKey) {
		t.Fatalf("expected ErrSealedKey without a sealer, got %v", err)
	}
}

func TestWatchReloadsOnExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := openTestStore(t, ProfileStoreOptions{Path: path})

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan Profile, 8)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, func(p Profile) { changed <- p })
	}()

	doc := []byte(`{"openRouterApiKey":"","personality":"lazy","model":"m"}`)
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	var got Profile
wait:
	for {
		select {
		case got = <-changed:
			break wait
		case <-tick.C:
			if err := os.WriteFile(path, doc, 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}
		case <-deadline:
			cancel()
			<-done
			t.Fatalf("watcher never reported a change")
		}
	}
	if got.Personality != PersonalityLazy || got.Model != "m" {
		t.Fatalf("unexpected reloaded profile %#v", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch returned error: %v", err)
	}
}

func TestLoadDefaultsAndValidation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("COGITATOR_HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paths.ConfigFile != filepath.Join(home, "config.json") {
		t.Fatalf("unexpected config path %q", cfg.Paths.ConfigFile)
	}
	if cfg.Store.Driver != DriverJSON || cfg.Chat.Provider != ProviderOpenRouter {
		t.Fatalf("unexpected defaults: driver=%q provider=%q", cfg.Store.Driver, cfg.Chat.Provider)
	}
	if cfg.Chat.MaxTokens != 2000 || cfg.Chat.Temperature != 0.8 || cfg.Chat.TopP != 0.9 {
		t.Fatalf("unexpected sampling defaults %+v", cfg.Chat)
	}

	t.Setenv("STORE_DRIVER", "mongo")
	if _, err := Load(); !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}

	t.Setenv("STORE_DRIVER", "postgres")
	if _, err := Load(); !errors.Is(err, ErrMissingStoreDSN) {
		t.Fatalf("expected ErrMissingStoreDSN, got %v", err)
	}

	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("MASTER_KEY_B64", "c2hvcnQ=")
	if _, err := Load(); !errors.Is(err, ErrInvalidMasterKey) {
		t.Fatalf("expected ErrInvalidMasterKey, got %v", err)
	}
}
