package telegram

import (
	"context"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/rs/zerolog"

	"cogitator/internal/metrics"
)

// Deduplicator reports whether an update id is seen for the first time.
type Deduplicator interface {
	MarkFirst(ctx context.Context, updateID int64) (bool, error)
}

// Processor drops repeated updates and anything not sent by the allowed
// user before handing the rest to the dispatcher.
type Processor struct {
	Base          ext.BaseProcessor
	Dedupe        Deduplicator
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
	AllowedUserID int64
}

func (p Processor) ProcessUpdate(d *ext.Dispatcher, b *gotgbot.Bot, ctx *ext.Context) error {
	if p.Metrics != nil {
		p.Metrics.UpdatesTotal.Inc()
	}
	if !p.accept(context.Background(), ctx) {
		return nil
	}
	return p.Base.ProcessUpdate(d, b, ctx)
}

func (p Processor) accept(c context.Context, ctx *ext.Context) bool {
	if ctx == nil || ctx.Update == nil {
		return false
	}
	if ctx.EffectiveUser == nil || ctx.EffectiveUser.Id != p.AllowedUserID {
		var from int64
		if ctx.EffectiveUser != nil {
			from = ctx.EffectiveUser.Id
		}
		p.Logger.Warn().Int64("update_id", ctx.UpdateId).Int64("user_id", from).Msg("update from unknown user ignored")
		return false
	}
	if p.Dedupe != nil {
		first, err := p.Dedupe.MarkFirst(c, ctx.UpdateId)
		if err != nil {
			p.Logger.Error().Err(err).Int64("update_id", ctx.UpdateId).Msg("failed to dedupe update")
		} else if !first {
			return false
		}
	}
	return true
}
