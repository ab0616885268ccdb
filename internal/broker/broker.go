package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"skillscape-chat/internal/observability"
)

// Routing keys on the chat events exchange.
const (
	KeyMessage  = "chat.message"
	KeyNotify   = "chat.notify"
	KeyTyping   = "chat.typing"
	KeyPresence = "chat.presence"
)

// Envelope carries one fan-out event between service instances. Origin lets
// consumers skip events they produced themselves.
type Envelope struct {
	Origin  string          `json:"origin"`
	Event   string          `json:"event"`
	ChatID  int             `json:"chat_id,omitempty"`
	UserIDs []int           `json:"user_ids,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Publisher publishes fan-out envelopes.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, env Envelope) error
	Close() error
}

// NewBus connects to RabbitMQ or falls back to a noop publisher when the
// broker is disabled or unreachable. A noop bus means single-instance mode:
// local fan-out still works, cross-instance fan-out does not.
func NewBus(amqpURL, exchange, instanceID string) Publisher {
	if amqpURL == "" {
		log.Printf("rabbitmq disabled, using noop: empty amqp url")
		return noopBus{}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Printf("rabbitmq disabled, using noop: %v", err)
		return noopBus{}
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq disabled, using noop: %v", err)
		_ = conn.Close()
		return noopBus{}
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq disabled, using noop: %v", err)
		_ = ch.Close()
		_ = conn.Close()
		return noopBus{}
	}

	log.Printf("rabbitmq connected exchange=%s instance=%s", exchange, instanceID)
	return &amqpBus{conn: conn, ch: ch, exchange: exchange, instanceID: instanceID}
}

type amqpBus struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	instanceID string
}

func (b *amqpBus) Publish(ctx context.Context, routingKey string, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	err = b.ch.PublishWithContext(ctx, b.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		observability.IncBrokerPublishError()
		log.Printf("rabbitmq publish failed: %v", err)
	}
	return err
}

func (b *amqpBus) Close() error {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

// StartConsumer binds a per-instance auto-delete queue to the exchange and
// forwards remote-origin envelopes to the handler. Delivery is fire-and-
// forget: fan-out events are not worth redelivery, cold clients catch up via
// the history endpoint.
func (b *amqpBus) StartConsumer(handler func(Envelope)) error {
	queueName := fmt.Sprintf("chat.events.%s", b.instanceID)
	queue, err := b.ch.QueueDeclare(queueName, false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := b.ch.QueueBind(queue.Name, "chat.#", b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := b.ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	go func() {
		for delivery := range deliveries {
			var env Envelope
			if err := json.Unmarshal(delivery.Body, &env); err != nil {
				log.Printf("broker: dropping malformed envelope: %v", err)
				continue
			}
			if env.Origin == b.instanceID {
				continue
			}
			handler(env)
		}
		log.Printf("broker consumer stopped")
	}()
	return nil
}

// Subscribe attaches the handler when the bus is a live AMQP connection and
// is a no-op otherwise.
func Subscribe(bus Publisher, handler func(Envelope)) error {
	if b, ok := bus.(*amqpBus); ok {
		return b.StartConsumer(handler)
	}
	return nil
}

type noopBus struct{}

func (noopBus) Publish(ctx context.Context, routingKey string, env Envelope) error {
	return nil
}

func (noopBus) Close() error {
	return nil
}
