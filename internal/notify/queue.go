package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/metrics"
	"github.com/darkorder/ticketing-api/internal/pkg/mailer"
)

const (
	DefaultQueue = "ticketing.email"
	maxBackoff   = 30 * time.Second
)

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// AMQPPublisher opens a short lived connection per message.
type AMQPPublisher struct {
	url   string
	queue string
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}

	return &AMQPPublisher{
		url:   url,
		queue: queue,
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp.Dial -> %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("conn.Channel -> %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err = ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("ch.QueueDeclare -> %w", err)
	}

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("ch.PublishWithContext -> %w", err)
	}

	return nil
}

// QueueDispatcher hands ticket emails to the broker. PIN resets are sent
// directly since the caller reports their failure.
type QueueDispatcher struct {
	*Dispatcher
	publisher Publisher
}

func NewQueueDispatcher(direct *Dispatcher, publisher Publisher) *QueueDispatcher {
	return &QueueDispatcher{
		Dispatcher: direct,
		publisher:  publisher,
	}
}

func (d *QueueDispatcher) TicketsIssued(ctx context.Context, to string, tickets []domain.TicketDetail) {
	msg, err := d.composer.Tickets(to, tickets)
	if err != nil {
		metrics.TrackEmail(KindTickets, err)
		zap.L().Error("failed to compose tickets email", zap.String("to", to), zap.Error(err))
		return
	}

	body, err := json.Marshal(msg)
	if err == nil {
		err = d.publisher.Publish(ctx, body)
	}
	if err == nil {
		return
	}

	zap.L().Warn("failed to queue tickets email, sending directly", zap.String("to", to), zap.Error(err))
	err = d.sender.Send(ctx, msg)
	metrics.TrackEmail(KindTickets, err)
	if err != nil {
		zap.L().Error("failed to send tickets email", zap.String("to", to), zap.Error(err))
	}
}

type Consumer struct {
	url    string
	queue  string
	sender mailer.Sender
}

func NewConsumer(url, queue string, sender mailer.Sender) *Consumer {
	if queue == "" {
		queue = DefaultQueue
	}

	return &Consumer{
		url:    url,
		queue:  queue,
		sender: sender,
	}
}

// Run keeps a consumer attached to the queue, reconnecting with exponential
// backoff, until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			zap.L().Warn("email consumer failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		zap.L().Warn("email consumer loop ended, reconnecting", zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("conn.Channel -> %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err = ch.Qos(10, 0, false); err != nil {
		zap.L().Warn("email consumer failed to set qos", zap.Error(err))
	}

	if _, err = ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("ch.QueueDeclare -> %w", err)
	}

	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("ch.Consume -> %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}

			if err := c.handle(ctx, d.Body); err != nil {
				zap.L().Error("email consumer failed to handle message", zap.Error(err))
				// No requeue, to avoid tight redelivery loops.
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var msg mailer.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("json.Unmarshal -> %w", err)
	}

	err := c.sender.Send(ctx, msg)
	metrics.TrackEmail(KindTickets, err)
	if err != nil {
		return fmt.Errorf("c.sender.Send -> %w", err)
	}

	zap.L().Info("tickets email sent", zap.String("to", msg.To), zap.Int("tickets", len(msg.Attachments)))

	return nil
}
