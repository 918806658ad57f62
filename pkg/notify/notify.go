// Package notify delivers member notifications such as course cancellations.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Dispatcher delivers one message to one recipient.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, message string) error
}

// Message is the payload published for the mailer.
type Message struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// LogDispatcher writes notifications to the log instead of delivering them.
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher builds a log-backed dispatcher.
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDispatcher{logger: logger}
}

// Send logs the notification.
func (d *LogDispatcher) Send(_ context.Context, to, subject, message string) error {
	d.logger.Info("notification", zap.String("to", to), zap.String("subject", subject), zap.String("message", message))
	return nil
}

// AMQPConfig configures the RabbitMQ publisher.
type AMQPConfig struct {
	URL            string
	Exchange       string
	RoutingKey     string
	PublishTimeout time.Duration
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPDispatcher publishes notifications as JSON to a topic exchange where a
// mailer service consumes them.
type AMQPDispatcher struct {
	conn       *amqp.Connection
	ch         amqpChannel
	exchange   string
	routingKey string
	timeout    time.Duration
	mu         sync.Mutex
	now        func() time.Time
}

// NewAMQPDispatcher dials the broker and declares the exchange.
func NewAMQPDispatcher(cfg AMQPConfig) (*AMQPDispatcher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	d := newAMQPDispatcher(ch, cfg)
	d.conn = conn
	return d, nil
}

func newAMQPDispatcher(ch amqpChannel, cfg AMQPConfig) *AMQPDispatcher {
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AMQPDispatcher{
		ch:         ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		timeout:    timeout,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Send publishes the notification.
func (d *AMQPDispatcher) Send(ctx context.Context, to, subject, message string) error {
	body, err := json.Marshal(Message{To: to, Subject: subject, Message: message, SentAt: d.now()})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishes.
	d.mu.Lock()
	defer d.mu.Unlock()
	err = d.ch.PublishWithContext(ctx, d.exchange, d.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    d.now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (d *AMQPDispatcher) Close() error {
	if d.ch != nil {
		_ = d.ch.Close()
	}
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}
