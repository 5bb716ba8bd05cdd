package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/offset-service/internal/events"
)

// NotificationService writes an audit log line for every domain event.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventOffsetCreated, n.handleOffsetChanged)
	n.dispatcher.Subscribe(events.EventOffsetUpdated, n.handleOffsetChanged)
	n.dispatcher.Subscribe(events.EventOffsetDeleted, n.handleOffsetChanged)
}

func (n *NotificationService) handleUserRegistered(_ context.Context, event events.Event) error {
	n.logger.Info("UserRegistered",
		zap.String("user_id", event.ResourceID),
		zap.String("actor", event.Actor),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleOffsetChanged(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("offset_id", event.ResourceID),
		zap.String("actor", event.Actor),
		zap.Any("payload", event.Payload))
	return nil
}
