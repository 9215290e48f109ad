package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"farm2city/internal/config"
	"farm2city/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker publishes notifications to RabbitMQ so out-of-process consumers
// (mail, push, websocket fanout) can pick them up.
type Broker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     *config.Config
}

func NewBroker(cfg *config.Config) (*Broker, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &Broker{
		conn:    conn,
		channel: ch,
		cfg:     cfg,
	}, nil
}

func (b *Broker) SetupTopology() error {
	if err := b.channel.ExchangeDeclare(
		b.cfg.NotificationExchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := b.channel.QueueDeclare(
		b.cfg.NotificationQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := b.channel.QueueBind(
		b.cfg.NotificationQueue,
		"",
		b.cfg.NotificationExchange,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	return nil
}

func (b *Broker) Publish(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		Body:         body,
	}

	return b.channel.PublishWithContext(ctx,
		b.cfg.NotificationExchange,
		"",
		false, // mandatory
		false, // immediate
		msg,
	)
}

func (b *Broker) Close() {
	if b.channel != nil {
		_ = b.channel.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}
