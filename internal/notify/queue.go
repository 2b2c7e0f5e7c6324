package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrQueueUnavailable is returned while the broker cannot be reached.
var ErrQueueUnavailable = errors.New("notify: queue unavailable")

// Queue publishes messages to a durable RabbitMQ queue; a mail worker
// consumes them and hands them to the SMTP transport. A dropped connection
// is redialed on the next use, at most once per retry interval.
type Queue struct {
	name  string
	dial  func() (*amqp.Connection, *amqp.Channel, error)
	now   func() time.Time
	retry time.Duration

	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	nextDial time.Time
	closed   bool
}

func newQueue(name string, dial func() (*amqp.Connection, *amqp.Channel, error)) *Queue {
	return &Queue{name: name, dial: dial, now: time.Now, retry: 5 * time.Second}
}

func DialQueue(url, name string) (*Queue, error) {
	q := newQueue(name, func() (*amqp.Connection, *amqp.Channel, error) {
		return openChannel(url, name)
	})
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, err := q.channelLocked(); err != nil {
		return nil, err
	}
	return q, nil
}

func openChannel(url, name string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("queue dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("queue channel: %w", err)
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("queue declare %s: %w", name, err)
	}
	return conn, ch, nil
}

// channelLocked returns the live channel, redialing when needed. Callers hold q.mu.
func (q *Queue) channelLocked() (*amqp.Channel, error) {
	if q.closed {
		return nil, fmt.Errorf("%w: closed", ErrQueueUnavailable)
	}
	if q.channel != nil && !q.channel.IsClosed() {
		return q.channel, nil
	}
	q.dropLocked()
	now := q.now()
	if now.Before(q.nextDial) {
		return nil, ErrQueueUnavailable
	}
	conn, ch, err := q.dial()
	if err != nil {
		q.nextDial = now.Add(q.retry)
		return nil, fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}
	q.conn, q.channel = conn, ch
	go q.watch(conn)
	return ch, nil
}

// watch forgets conn once the broker closes it.
func (q *Queue) watch(conn *amqp.Connection) {
	if err := <-conn.NotifyClose(make(chan *amqp.Error, 1)); err != nil {
		logger.Warnw("queue connection lost", "queue", q.name, "err", err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.conn == conn {
		q.dropLocked()
	}
}

func (q *Queue) dropLocked() {
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
	q.conn, q.channel = nil, nil
}

func (q *Queue) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue encode: %w", err)
	}
	q.mu.Lock()
	ch, err := q.channelLocked()
	q.mu.Unlock()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("queue publish: %w", err)
	}
	return nil
}

// Consume delivers queued messages to next until ctx is done or the
// channel closes.
func (q *Queue) Consume(ctx context.Context, next Notifier) error {
	q.mu.Lock()
	ch, err := q.channelLocked()
	q.mu.Unlock()
	if err != nil {
		return err
	}
	deliveries, err := ch.Consume(q.name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("queue: delivery channel closed")
			}
			ack, requeue := handleDelivery(ctx, d.Body, d.Redelivered, next)
			if ack {
				_ = d.Ack(false)
			} else {
				_ = d.Nack(false, requeue)
			}
		}
	}
}

// handleDelivery decodes and forwards one delivery. Undecodable payloads are
// dropped; a failed send is retried once via requeue.
func handleDelivery(ctx context.Context, body []byte, redelivered bool, next Notifier) (ack, requeue bool) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Errorw("dropping undecodable mail message", "err", err)
		return false, false
	}
	if err := next.Send(ctx, msg); err != nil {
		logger.Errorw("mail worker send failed", "subject", msg.Subject, "redelivered", redelivered, "err", err)
		return false, !redelivered
	}
	logger.Infow("mail worker sent message", "subject", msg.Subject)
	return true, false
}

func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.dropLocked()
}
