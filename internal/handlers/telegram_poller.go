package handlers

import (
	"context"
	"log/slog"
	"time"

	"coffee_shop/pkg/telegram"
)

type UpdateSource interface {
	GetUpdates(ctx context.Context, req telegram.GetUpdatesRequest) ([]telegram.Update, error)
}

type UpdateProcessor interface {
	ProcessUpdate(ctx context.Context, update telegram.Update) error
}

// Poller pulls updates with getUpdates and hands them to a processor, for
// deployments without a public webhook URL.
type Poller struct {
	source     UpdateSource
	processor  UpdateProcessor
	timeout    int
	retryDelay time.Duration
	log        *slog.Logger
}

func NewPoller(source UpdateSource, processor UpdateProcessor, log *slog.Logger) *Poller {
	return &Poller{
		source:     source,
		processor:  processor,
		timeout:    50,
		retryDelay: 3 * time.Second,
		log:        log.With("component", "telegram_poller"),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	var offset int64
	p.log.Info("polling for updates")
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := p.source.GetUpdates(ctx, telegram.GetUpdatesRequest{
			Offset:         offset,
			Timeout:        p.timeout,
			AllowedUpdates: []string{"message", "callback_query"},
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error("failed to get updates", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.retryDelay):
			}
			continue
		}
		for _, update := range updates {
			if err := p.processor.ProcessUpdate(ctx, update); err != nil {
				p.log.Error("failed to process update", "update_id", update.UpdateID, "error", err)
			}
			offset = update.UpdateID + 1
		}
	}
}
