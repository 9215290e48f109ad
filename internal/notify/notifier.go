package notify

import (
	"context"

	"farm2city/internal/models"
	"farm2city/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers a notification to a user. Delivery is best-effort:
// implementations log failures and never surface them to the caller, so a
// failed notification cannot roll back the operation that produced it.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string, typ models.NotificationType, data map[string]any)
}

// Emitter persists each notification and, when a broker is configured,
// publishes it for interested consumers.
type Emitter struct {
	repo   repository.NotificationRepository
	broker *Broker
	log    *zap.SugaredLogger
}

func NewEmitter(repo repository.NotificationRepository, broker *Broker, log *zap.SugaredLogger) *Emitter {
	return &Emitter{
		repo:   repo,
		broker: broker,
		log:    log,
	}
}

func (e *Emitter) Notify(ctx context.Context, userID uuid.UUID, title, message string, typ models.NotificationType, data map[string]any) {
	n := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
		Data:    data,
	}

	if err := e.repo.Create(ctx, &n); err != nil {
		e.log.Warnw("failed to persist notification", "user_id", userID, "title", title, "error", err)
		return
	}

	if e.broker == nil {
		return
	}

	if err := e.broker.Publish(ctx, n); err != nil {
		e.log.Warnw("failed to publish notification", "notification_id", n.ID, "error", err)
	}
}
