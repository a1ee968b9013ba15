package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"cogitator/internal/crypto"
)

const (
	PersonalitySnarky  = "snarky"
	PersonalityHelpful = "helpful"
	PersonalityLazy    = "lazy"

	DefaultModel = "anthropic/claude-3-sonnet-20240229"
)

var (
	ErrInvalidPersonality = errors.New("personality must be snarky, helpful or lazy")
	ErrSealedKey          = errors.New("api key is sealed but MASTER_KEY_B64 is not set")
	ErrUnknownKey         = errors.New("unknown config key")
)

// Personalities lists the accepted personality names in display order.
var Personalities = []string{PersonalitySnarky, PersonalityHelpful, PersonalityLazy}

// Profile is the persisted config.json document.
type Profile struct {
	OpenRouterAPIKey string `json:"openRouterApiKey"`
	Personality      string `json:"personality"`
	Model            string `json:"model"`
}

func DefaultProfile() Profile {
	return Profile{
		OpenRouterAPIKey: "",
		Personality:      PersonalitySnarky,
		Model:            DefaultModel,
	}
}

func ValidPersonality(p string) bool {
	for _, name := range Personalities {
		if p == name {
			return true
		}
	}
	return false
}

// Set applies a named key, as used by `config set` and /config.
func (p *Profile) Set(key, value string) error {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "personality":
		v := strings.ToLower(strings.TrimSpace(value))
		if !ValidPersonality(v) {
			return ErrInvalidPersonality
		}
		p.Personality = v
	case "apikey", "api_key", "openrouterapikey":
		p.OpenRouterAPIKey = strings.TrimSpace(value)
	case "model":
		v := strings.TrimSpace(value)
		if v == "" {
			return fmt.Errorf("model is empty")
		}
		p.Model = v
	default:
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return nil
}

type ProfileStoreOptions struct {
	Path           string
	Sealer         *crypto.Sealer
	APIKeyOverride string
	Logger         zerolog.Logger
}

// ProfileStore owns the config document and is the only writer of it.
type ProfileStore struct {
	path     string
	sealer   *crypto.Sealer
	override string
	logger   zerolog.Logger

	mu     sync.RWMutex
	stored Profile
}

// OpenProfileStore reads the document at opts.Path, creating it with
// defaults when absent.
func OpenProfileStore(opts ProfileStoreOptions) (*ProfileStore, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	s := &ProfileStore{
		path:     opts.Path,
		sealer:   opts.Sealer,
		override: strings.TrimSpace(opts.APIKeyOverride),
		logger:   opts.Logger,
	}

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		if err := s.write(DefaultProfile()); err != nil {
			return nil, err
		}
		s.stored = DefaultProfile()
		return s, nil
	} else if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ProfileStore) Path() string {
	return s.path
}

// Current returns the effective profile, with the environment key override
// applied.
func (s *ProfileStore) Current() Profile {
	s.mu.RLock()
	p := s.stored
	s.mu.RUnlock()
	if s.override != "" {
		p.OpenRouterAPIKey = s.override
	}
	return p
}

// Update applies fn to a copy of the stored profile, persists it and then
// makes it current. A failing fn or write leaves the current profile intact.
func (s *ProfileStore) Update(fn func(*Profile) error) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.stored
	if err := fn(&next); err != nil {
		return s.stored, err
	}
	if !ValidPersonality(next.Personality) {
		return s.stored, ErrInvalidPersonality
	}
	if err := s.write(next); err != nil {
		return s.stored, err
	}
	s.stored = next
	return next, nil
}

// Reload re-reads the document from disk.
func (s *ProfileStore) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	p := DefaultProfile()
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if crypto.IsSealed(p.OpenRouterAPIKey) {
		if s.sealer == nil {
			return ErrSealedKey
		}
		plain, err := s.sealer.Open(p.OpenRouterAPIKey)
		if err != nil {
			return fmt.Errorf("unseal api key: %w", err)
		}
		p.OpenRouterAPIKey = plain
	}

	s.mu.Lock()
	s.stored = p
	s.mu.Unlock()
	return nil
}

func (s *ProfileStore) write(p Profile) error {
	if s.sealer != nil && p.OpenRouterAPIKey != "" {
		sealed, err := s.sealer.Seal(p.OpenRouterAPIKey)
		if err != nil {
			return fmt.Errorf("seal api key: %w", err)
		}
		p.OpenRouterAPIKey = sealed
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Watch reloads the profile whenever the document changes on disk until ctx
// is done. onChange, when set, receives the effective profile after each
// successful reload.
func (s *ProfileStore) Watch(ctx context.Context, onChange func(Profile)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and our own writes replace the file.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Warn().Err(err).Str("path", s.path).Msg("config reload failed")
				continue
			}
			s.logger.Debug().Str("path", s.path).Msg("config reloaded")
			if onChange != nil {
				onChange(s.Current())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}
