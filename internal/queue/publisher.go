package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SendFunc delivers one event to its transport.
type SendFunc func(ctx context.Context, ev Event) error

// Publisher hands audit events to a background worker.  Publish never
// blocks and never fails: when the buffer is full the event is dropped,
// logged and counted.
type Publisher struct {
	send    SendFunc
	events  chan Event
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher returns a publisher with room for bufferSize pending events.
// Run must be started for events to be delivered.
func NewPublisher(send SendFunc, bufferSize int, timeout time.Duration, logger *slog.Logger) *Publisher {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		send:    send,
		events:  make(chan Event, bufferSize),
		timeout: timeout,
		logger:  logger.With("component", "audit-publisher"),
	}
}

// Publish enqueues ev for delivery.
func (p *Publisher) Publish(_ context.Context, ev Event) {
	select {
	case p.events <- ev:
	default:
		eventsDropped.WithLabelValues("buffer_full").Inc()
		p.logger.Warn("audit buffer full, dropping event", "event_id", ev.ID, "label", ev.Label())
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is
// already buffered with a fresh deadline per event.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-p.events:
			p.deliver(ctx, ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-p.events:
					p.deliver(context.Background(), ev)
				default:
					return nil
				}
			}
		}
	}
}

func (p *Publisher) deliver(parent context.Context, ev Event) {
	ctx := parent
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, p.timeout)
		defer cancel()
	}
	if err := p.send(ctx, ev); err != nil {
		eventsDropped.WithLabelValues("send_failed").Inc()
		p.logger.Error("audit publish failed", "event_id", ev.ID, "label", ev.Label(), "error", err)
		return
	}
	eventsPublished.Inc()
}

// AMQPSender publishes each event as a persistent JSON message on the
// durable queue.  It dials per call so a broker outage never leaves a stale
// connection behind.
func AMQPSender(url, queue string) SendFunc {
	return func(ctx context.Context, ev Event) error {
		body, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			return fmt.Errorf("dial: %w", err)
		}
		defer func() { _ = conn.Close() }()

		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("channel open: %w", err)
		}
		defer func() { _ = ch.Close() }()

		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare: %w", err)
		}
		return ch.PublishWithContext(ctx,
			"",    // default exchange
			queue, // routing key = queue name
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    ev.ID,
				Timestamp:    time.Now().UTC(),
				Body:         body,
			})
	}
}

// SinkSender writes events straight to a sink, bypassing the broker.
func SinkSender(sink Sink) SendFunc {
	return sink.Write
}
