package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/cache"
	"github.com/spec-kit/ticket-desk/internal/events"
)

// NotificationService reacts to composer events: it logs user facing notices
// and keeps cached ticket listings fresh.
type NotificationService struct {
	dispatcher events.Dispatcher
	listings   cache.ListingCache
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, listings cache.ListingCache, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		listings:   listings,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventDraftCreated, n.handleDraftCreated)
	n.dispatcher.Subscribe(events.EventTemplateApplied, n.handleTemplateApplied)
	n.dispatcher.Subscribe(events.EventSentimentFallback, n.handleSentimentFallback)
	n.dispatcher.Subscribe(events.EventTicketSubmitted, n.handleTicketSubmitted)
	n.dispatcher.Subscribe(events.EventTicketSubmitFailed, n.handleTicketSubmitFailed)
}

func (n *NotificationService) handleDraftCreated(ctx context.Context, event events.Event) error {
	n.logger.Debug("DraftCreated", zap.String("draft_id", event.DraftID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTemplateApplied(ctx context.Context, event events.Event) error {
	n.logger.Debug("TemplateApplied", zap.String("draft_id", event.DraftID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleSentimentFallback(ctx context.Context, event events.Event) error {
	n.logger.Info("SentimentFallback", zap.String("draft_id", event.DraftID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketSubmitted",
		zap.String("draft_id", event.DraftID),
		zap.String("actor", event.Actor),
		zap.Any("payload", event.Payload))
	if n.listings == nil {
		return nil
	}
	if err := n.listings.Invalidate(ctx); err != nil {
		n.logger.Warn("listing cache invalidation failed", zap.Error(err))
		return err
	}
	return nil
}

func (n *NotificationService) handleTicketSubmitFailed(ctx context.Context, event events.Event) error {
	n.logger.Warn("TicketSubmitFailed",
		zap.String("draft_id", event.DraftID),
		zap.String("actor", event.Actor),
		zap.Any("payload", event.Payload))
	return nil
}
