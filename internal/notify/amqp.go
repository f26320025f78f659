package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPTransport publishes outbound messages to a durable RabbitMQ queue. A
// downstream consumer owns the actual channel delivery (WhatsApp, SMS), so a
// successful publish here means "handed off", not "received".
type AMQPTransport struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// outboundMessage is the queue payload.
type outboundMessage struct {
	Phone  string    `json:"phone"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// NewAMQPTransport dials the broker and declares the outbound queue.
func NewAMQPTransport(url, queue string) (*AMQPTransport, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQPTransport{conn: conn, channel: ch, queue: queue}, nil
}

// Send implements Transport by publishing a persistent JSON message.
func (t *AMQPTransport) Send(ctx context.Context, phone, text string) error {
	body, err := json.Marshal(outboundMessage{Phone: phone, Text: text, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return t.channel.PublishWithContext(ctx,
		"",      // default exchange
		t.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Close releases the channel and connection.
func (t *AMQPTransport) Close() {
	if t.channel != nil {
		_ = t.channel.Close()
	}
	if t.conn != nil {
		_ = t.conn.Close()
	}
}
