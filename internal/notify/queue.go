package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Dropper records a message that could not be handed on. *Deliverer implements it.
type Dropper interface {
	Drop(ctx context.Context, msg Message, reason error)
}

// QueueDispatcher publishes messages to a durable RabbitMQ queue; cmd/notifier delivers them.
type QueueDispatcher struct {
	conn  *amqp.Connection
	pub   publisher
	queue string
	drops Dropper
	log   *slog.Logger
	mu    sync.Mutex
}

// DialQueue connects the publisher. drops may be nil, in which case failed publishes are only logged.
func DialQueue(url, queue string, drops Dropper, log *slog.Logger) (*QueueDispatcher, error) {
	conn, ch, err := OpenQueue(url, queue)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &QueueDispatcher{conn: conn, pub: ch, queue: queue, drops: drops, log: log}, nil
}

// OpenQueue connects to RabbitMQ and declares the durable notification queue.
func OpenQueue(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return conn, ch, nil
}

func (q *QueueDispatcher) Dispatch(ctx context.Context, msg Message) {
	ctx = context.WithoutCancel(ctx)
	body, err := json.Marshal(msg)
	if err != nil {
		q.log.Error("encode notification failed", "message_id", msg.ID, "order_id", msg.OrderID, "err", err)
		q.drop(ctx, msg, fmt.Errorf("encode: %w", err))
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	q.mu.Lock()
	err = q.pub.PublishWithContext(pubCtx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.CreatedAt,
		Body:         body,
	})
	q.mu.Unlock()
	if err != nil {
		q.log.Error("publish notification failed",
			"message_id", msg.ID,
			"kind", msg.Kind,
			"order_id", msg.OrderID,
			"recipient_id", msg.RecipientID,
			"err", err,
		)
		q.drop(ctx, msg, fmt.Errorf("publish: %w", err))
	}
}

func (q *QueueDispatcher) drop(ctx context.Context, msg Message, reason error) {
	if q.drops != nil {
		q.drops.Drop(ctx, msg, reason)
	}
}

func (q *QueueDispatcher) Close(ctx context.Context) error {
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}

var errMalformedMessage = errors.New("malformed notification message")

// HandleBody decodes one queued message and delivers it. Only a malformed body is
// reported; SMS failures are recorded by the Deliverer and the message is considered handled.
func HandleBody(ctx context.Context, body []byte, d *Deliverer) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", errMalformedMessage, err)
	}
	if msg.Kind == "" || msg.OrderID == 0 {
		return errMalformedMessage
	}
	_ = d.Deliver(ctx, msg)
	return nil
}

// Consume delivers messages from queue until ctx is cancelled or the channel closes.
func Consume(ctx context.Context, ch *amqp.Channel, queue string, d *Deliverer, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(queue, "cakemarket-notifier", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case dl, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			dctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
			err := HandleBody(dctx, dl.Body, d)
			cancel()
			if err != nil {
				log.Error("discarding notification", "message_id", dl.MessageId, "err", err)
				_ = dl.Nack(false, false)
				continue
			}
			_ = dl.Ack(false)
		}
	}
}
