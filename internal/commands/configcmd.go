package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cogitator/internal/config"
)

const msgConfigFailed = "Configuration update failed. The machine spirit resists change."

func (r *Router) registerConfig() {
	r.register(Command{Name: "config", Category: catConfig, Usage: "[personality|apikey|model] <value>", Summary: "Show or change settings", Handler: r.config})
}

func (r *Router) config(_ context.Context, args []string) Result {
	if len(args) == 0 {
		p := r.profiles.Current()
		keyState := "Not set"
		if p.OpenRouterAPIKey != "" {
			keyState = "Set"
		}
		return ok(fmt.Sprintf("**CURRENT CONFIGURATION**\n%s\nPersonality: %s\nModel: %s\nAPI Key: %s\n\nUse /config personality [snarky|helpful|lazy] or /config apikey YOUR_KEY",
			rule, p.Personality, p.Model, keyState))
	}

	setting := strings.ToLower(args[0])
	if len(args) < 2 {
		return fail("Usage: /config [personality|apikey|model] <value>")
	}
	value := args[1]

	switch setting {
	case "personality":
		value = strings.ToLower(value)
		if !config.ValidPersonality(value) {
			return fail("Invalid personality. Choose: snarky, helpful, or lazy")
		}
		if res, failed := r.updateProfile(setting, value); failed {
			return res
		}
		return ok(fmt.Sprintf("Personality updated to: %s. Rebooting attitude matrix...", value))
	case "apikey":
		if res, failed := r.updateProfile(setting, value); failed {
			return res
		}
		return ok("API key updated. The warp connection is now established.")
	case "model":
		if res, failed := r.updateProfile(setting, value); failed {
			return res
		}
		return ok(fmt.Sprintf("Model updated to: %s. Recalibrating cogitation engines...", value))
	default:
		return fail("Usage: /config [personality|apikey|model] <value>")
	}
}

func (r *Router) updateProfile(key, value string) (Result, bool) {
	_, err := r.profiles.Update(func(p *config.Profile) error {
		return p.Set(key, value)
	})
	switch {
	case err == nil:
		return Result{}, false
	case errors.Is(err, config.ErrInvalidPersonality):
		return fail("Invalid personality. Choose: snarky, helpful, or lazy"), true
	default:
		r.logger.Error().Err(err).Str("key", key).Msg("config update failed")
		return fail(msgConfigFailed), true
	}
}
