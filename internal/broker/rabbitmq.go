// Package broker mirrors topic publishes onto a RabbitMQ topic exchange so
// consumers outside this process (other nodes, push workers) can subscribe
// to the same per-user channels.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeTopic is the durable topic exchange every user channel is
// published on.
const ExchangeTopic = "webcrafter.topic"

// AMQPPublisher implements realtime.Publisher on top of RabbitMQ.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares the topic exchange.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeTopic, // name
		"topic",       // type
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare topic exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

// Publish sends the payload as JSON. Topic path segments map onto AMQP
// routing-key segments, e.g. "user/7/presence" -> "user.7.presence".
func (p *AMQPPublisher) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return p.channel.PublishWithContext(ctx,
		ExchangeTopic,
		RoutingKey(topic),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// RoutingKey converts a slash-separated topic into an AMQP routing key.
func RoutingKey(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
