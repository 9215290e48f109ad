package notify

import (
	"encoding/json"

	"farm2city/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// StartConsumer drains the notification queue. Delivery channels such as
// email or push would hook in here; for now each message is logged and acked.
func StartConsumer(b *Broker, log *zap.SugaredLogger) error {
	msgs, err := b.channel.Consume(
		b.cfg.NotificationQueue,
		"farm2city-notifications", // consumer tag
		false,                     // auto-ack
		false,                     // exclusive
		false,                     // no-local
		false,                     // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			processMessage(msg, log)
		}
	}()

	return nil
}

func processMessage(msg amqp.Delivery, log *zap.SugaredLogger) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("recovered from panic in notification consumer", "panic", r)
		}
	}()

	var n models.Notification
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		log.Warnw("invalid notification message", "error", err)
		_ = msg.Nack(false, false) // drop, do not requeue
		return
	}

	log.Infow("notification dispatched",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"type", n.Type,
		"title", n.Title,
	)

	_ = msg.Ack(false)
}
