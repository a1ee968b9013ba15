package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cogitator/internal/config"
	"cogitator/internal/metrics"
	"cogitator/internal/providers"
	"cogitator/internal/ratelimit"
)

const (
	MsgNoCredential     = "OpenRouter API key not configured. Use /config apikey YOUR_KEY to set it."
	MsgTransportFailure = "The warp connection failed. Claude is unreachable."
	TruncationNotice    = "\n\n*[Response truncated due to length - the machine spirit has more to say but the vox channels are limited]*"

	quotaSubject = "chat"
)

type Result struct {
	Success bool
	Message string
}

type ProfileSource interface {
	Current() config.Profile
}

type Quota interface {
	Check(ctx context.Context, subject string, now time.Time) (ratelimit.Decision, error)
}

// ProviderFactory builds a transport bound to an API key.
type ProviderFactory func(apiKey string) (providers.Provider, error)

type Sampling struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

type Config struct {
	Profiles ProfileSource
	Factory  ProviderFactory
	Sampling Sampling
	Quota    Quota
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Gateway turns one prompt into one chat-completion call.
type Gateway struct {
	profiles ProfileSource
	factory  ProviderFactory
	sampling Sampling
	quota    Quota
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu          sync.Mutex
	provider    providers.Provider
	providerKey string
}

func New(cfg Config) *Gateway {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Global()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Gateway{
		profiles: cfg.Profiles,
		factory:  cfg.Factory,
		sampling: cfg.Sampling,
		quota:    cfg.Quota,
		logger:   cfg.Logger,
		metrics:  m,
		now:      cfg.Now,
	}
}

// Chat sends prompt with systemOverride as the system prompt, or the
// configured personality's prompt when systemOverride is empty.
func (g *Gateway) Chat(ctx context.Context, prompt, systemOverride string) Result {
	profile := g.profiles.Current()
	if strings.TrimSpace(profile.OpenRouterAPIKey) == "" {
		g.metrics.ChatRequests.WithLabelValues("unconfigured").Inc()
		return Result{Success: false, Message: MsgNoCredential}
	}

	if g.quota != nil {
		d, err := g.quota.Check(ctx, quotaSubject, g.now())
		if err != nil {
			g.logger.Warn().Err(err).Msg("chat quota check failed, allowing call")
		} else if !d.Allowed {
			g.metrics.ChatRequests.WithLabelValues("rate_limited").Inc()
			g.logger.Info().Int64("used", d.Used).Int64("limit", d.Limit).Time("reset_at", d.ResetAt).Msg("chat quota exhausted")
			return Result{Success: false, Message: fmt.Sprintf("The vox channels are saturated. Try again after %s.", d.ResetAt.Local().Format("15:04"))}
		}
	}

	provider, err := g.providerFor(profile.OpenRouterAPIKey)
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to build chat provider")
		g.metrics.ChatRequests.WithLabelValues(metrics.Outcome(false)).Inc()
		return Result{Success: false, Message: MsgTransportFailure}
	}

	system := systemOverride
	if strings.TrimSpace(system) == "" {
		system = SystemPrompt(profile.Personality)
	}

	started := g.now()
	resp, err := provider.Chat(ctx, providers.ChatRequest{
		Model:        profile.Model,
		SystemPrompt: system,
		UserPrompt:   prompt,
		MaxTokens:    g.sampling.MaxTokens,
		Temperature:  g.sampling.Temperature,
		TopP:         g.sampling.TopP,
	})
	if err != nil {
		g.logger.Error().Err(err).Str("model", profile.Model).Msg("chat completion failed")
		g.metrics.ChatRequests.WithLabelValues(metrics.Outcome(false)).Inc()
		return Result{Success: false, Message: MsgTransportFailure}
	}

	g.metrics.ChatRequests.WithLabelValues(metrics.Outcome(true)).Inc()
	g.logger.Debug().
		Str("model", profile.Model).
		Str("finish_reason", resp.FinishReason).
		Dur("took", g.now().Sub(started)).
		Msg("chat completion")

	if resp.Truncated() {
		g.metrics.ChatTruncated.Inc()
		return Result{Success: true, Message: resp.Text + TruncationNotice}
	}
	return Result{Success: true, Message: resp.Text}
}

func (g *Gateway) providerFor(apiKey string) (providers.Provider, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.provider != nil && g.providerKey == apiKey {
		return g.provider, nil
	}
	p, err := g.factory(apiKey)
	if err != nil {
		return nil, err
	}
	g.provider = p
	g.providerKey = apiKey
	return p, nil
}
