package registry

import (
	"fmt"
	"net/http"
	"strings"

	"cogitator/internal/providers"
	"cogitator/internal/providers/openai_compat"
	"cogitator/internal/providers/openaisdk"
)

type BuildOptions struct {
	Kind       string
	BaseURL    string
	APIKey     string
	Headers    map[string]string
	HTTPClient *http.Client
}

func Build(opts BuildOptions) (providers.Provider, error) {
	switch normalizeKind(opts.Kind) {
	case "openrouter":
		return openai_compat.New(openai_compat.Config{
			BaseURL:    opts.BaseURL,
			APIKey:     opts.APIKey,
			Headers:    opts.Headers,
			HTTPClient: opts.HTTPClient,
		}), nil

	case "openai_sdk":
		return openaisdk.New(openaisdk.Config{
			BaseURL:    opts.BaseURL,
			APIKey:     opts.APIKey,
			Headers:    opts.Headers,
			HTTPClient: opts.HTTPClient,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported provider kind %q", opts.Kind)
	}
}

func normalizeKind(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "openrouter", "openai_compat", "openai-compatible":
		return "openrouter"
	case "openai_sdk", "openai-sdk", "go-openai":
		return "openai_sdk"
	default:
		return v
	}
}
