package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cogitator/internal/config"
	"cogitator/internal/providers"
	"cogitator/internal/ratelimit"
)

type staticProfiles struct{ p config.Profile }

func (s *staticProfiles) Current() config.Profile { return s.p }

type fakeProvider struct {
	calls []providers.ChatRequest
	resp  providers.ChatResponse
	err   error
}

func (f *fakeProvider) Chat(_ context.Context, req providers.ChatRequest) (providers.ChatResponse, error) {
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

func newTestGateway(profile config.Profile, fp *fakeProvider) (*Gateway, *int, *staticProfiles) {
	built := 0
	profiles := &staticProfiles{p: profile}
	g := New(Config{
		Profiles: profiles,
		Factory: func(string) (providers.Provider, error) {
			built++
			return fp, nil
		},
		Sampling: Sampling{MaxTokens: 1000, Temperature: 0.7, TopP: 0.9},
		Logger:   zerolog.Nop(),
	})
	return g, &built, profiles
}

func TestChatWithoutKeyNeverCallsProvider(t *testing.T) {
	fp := &fakeProvider{}
	g, built, _ := newTestGateway(config.Profile{Personality: "snarky", Model: config.DefaultModel}, fp)

	res := g.Chat(context.Background(), "hello", "")
	if res.Success || res.Message != MsgNoCredential {
		t.Fatalf("unexpected result %+v", res)
	}
	if *built != 0 || len(fp.calls) != 0 {
		t.Fatalf("expected no provider activity, built=%d calls=%d", *built, len(fp.calls))
	}
}

func TestChatUsesPersonalityAndSampling(t *testing.T) {
	fp := &fakeProvider{resp: providers.ChatResponse{Text: "For the Emperor.", FinishReason: "stop"}}
	g, _, _ := newTestGateway(config.Profile{OpenRouterAPIKey: "k", Personality: "helpful", Model: "m"}, fp)

	res := g.Chat(context.Background(), "hello", "")
	if !res.Success || res.Message != "For the Emperor." {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(fp.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(fp.calls))
	}
	req := fp.calls[0]
	if req.SystemPrompt != SystemPrompt("helpful") || req.UserPrompt != "hello" || req.Model != "m" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.MaxTokens != 1000 || req.Temperature != 0.7 || req.TopP != 0.9 {
		t.Fatalf("unexpected sampling %+v", req)
	}
}

func TestChatOverrideReplacesPersonality(t *testing.T) {
	fp := &fakeProvider{resp: providers.ChatResponse{Text: "ok"}}
	g, _, _ := newTestGateway(config.Profile{OpenRouterAPIKey: "k", Personality: "lazy", Model: "m"}, fp)

	g.Chat(context.Background(), "q", "You are a poet.")
	if got := fp.calls[0].SystemPrompt; got != "You are a poet." {
		t.Fatalf("expected override prompt, got %q", got)
	}
}

func TestChatTruncationAppendsNotice(t *testing.T) {
	fp := &fakeProvider{resp: providers.ChatResponse{Text: "partial", FinishReason: providers.FinishReasonLength}}
	g, _, _ := newTestGateway(config.Profile{OpenRouterAPIKey: "k", Personality: "snarky", Model: "m"}, fp)

	res := g.Chat(context.Background(), "q", "")
	if !res.Success || res.Message != "partial"+TruncationNotice {
		t.Fatalf("unexpected result %+v", res)
	}

	fp.resp = providers.ChatResponse{FinishReason: providers.FinishReasonLength}
	if res := g.Chat(context.Background(), "q", ""); !res.Success || res.Message != TruncationNotice {
		t.Fatalf("empty truncated reply should carry only the notice, got %+v", res)
	}
}

func TestChatTransportFailure(t *testing.T) {
	fp := &fakeProvider{err: errors.New("dial tcp: refused")}
	g, _, _ := newTestGateway(config.Profile{OpenRouterAPIKey: "k", Personality: "snarky", Model: "m"}, fp)

	res := g.Chat(context.Background(), "q", "")
	if res.Success || res.Message != MsgTransportFailure {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestProviderRebuiltWhenKeyChanges(t *testing.T) {
	fp := &fakeProvider{resp: providers.ChatResponse{Text: "ok"}}
	g, built, profiles := newTestGateway(config.Profile{OpenRouterAPIKey: "a", Personality: "snarky", Model: "m"}, fp)

	g.Chat(context.Background(), "q", "")
	g.Chat(context.Background(), "q", "")
	if *built != 1 {
		t.Fatalf("expected cached provider, built=%d", *built)
	}
	profiles.p.OpenRouterAPIKey = "b"
	g.Chat(context.Background(), "q", "")
	if *built != 2 {
		t.Fatalf("expected rebuild after key change, built=%d", *built)
	}
}

func TestUnknownPersonalityFallsBackToSnarky(t *testing.T) {
	if SystemPrompt("stoic") != SystemPrompt(config.PersonalitySnarky) {
		t.Fatalf("expected snarky fallback")
	}
}

func TestChatQuotaDenial(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	fp := &fakeProvider{resp: providers.ChatResponse{Text: "ok"}}
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	g := New(Config{
		Profiles: &staticProfiles{p: config.Profile{OpenRouterAPIKey: "k", Personality: "snarky", Model: "m"}},
		Factory:  func(string) (providers.Provider, error) { return fp, nil },
		Quota:    ratelimit.NewHourlyQuota(rdb, 1),
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return now },
	})

	if res := g.Chat(context.Background(), "q", ""); !res.Success {
		t.Fatalf("expected first call allowed, got %+v", res)
	}
	res := g.Chat(context.Background(), "q", "")
	if res.Success || !strings.HasPrefix(res.Message, "The vox channels are saturated.") {
		t.Fatalf("expected quota denial, got %+v", res)
	}
	if len(fp.calls) != 1 {
		t.Fatalf("expected denied call to skip provider, calls=%d", len(fp.calls))
	}
}
