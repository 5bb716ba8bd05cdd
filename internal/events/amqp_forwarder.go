package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// publisher is the subset of *amqp.Channel the forwarder needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPForwarder relays dispatched events to a topic exchange. Routing keys are
// "offsets.<event type>".
type AMQPForwarder struct {
	conn     *amqp.Connection
	channel  publisher
	exchange string
	logger   *zap.Logger
}

// DialAMQPForwarder connects to the broker and declares the exchange.
func DialAMQPForwarder(url, exchange string, logger *zap.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	f := newAMQPForwarder(ch, exchange, logger)
	f.conn = conn
	return f, nil
}

func newAMQPForwarder(ch publisher, exchange string, logger *zap.Logger) *AMQPForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPForwarder{channel: ch, exchange: exchange, logger: logger}
}

// Attach subscribes the forwarder to every event on d.
func (f *AMQPForwarder) Attach(d Dispatcher) {
	d.SubscribeAll(f.Forward)
}

// Forward publishes a single event as JSON.
func (f *AMQPForwarder) Forward(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	routingKey := RoutingKey(event.Type)
	err = f.channel.PublishWithContext(ctx, f.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.Timestamp,
		Type:         string(event.Type),
		Body:         body,
	})
	if err != nil {
		f.logger.Error("failed to publish event",
			zap.String("event_type", string(event.Type)),
			zap.String("routing_key", routingKey),
			zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}

	f.logger.Debug("event published",
		zap.String("event_type", string(event.Type)),
		zap.String("routing_key", routingKey),
		zap.Int("event_size", len(body)))
	return nil
}

// Close releases the broker connection.
func (f *AMQPForwarder) Close() error {
	if f == nil || f.conn == nil {
		return nil
	}
	return f.conn.Close()
}

// RoutingKey derives the topic key for an event type.
func RoutingKey(t EventType) string {
	return "offsets." + string(t)
}
