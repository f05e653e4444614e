package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

// Relay publishes committed envelopes to a RabbitMQ topic exchange so
// out-of-process consumers (projections, audit, notifications) can follow the
// event streams. Routing key is the event type name.
//
// The relay owns a reconnect loop: a lost connection is re-dialed with an
// exponential delay capped at 30s, and publishes issued while disconnected
// are reported on Errors().
type Relay struct {
	url      string
	exchange string

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
	errs   chan error
}

// envelopeMessage is the wire representation of a published envelope.
type envelopeMessage struct {
	EventID       string          `json:"event_id"`
	StreamID      string          `json:"stream_id"`
	EventType     string          `json:"event_type"`
	Event         json.RawMessage `json:"event"`
	Version       uint64          `json:"version"`
	GlobalVersion uint64          `json:"global_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewRelay dials the broker and declares the exchange (topic, durable).
func NewRelay(url, exchange string) (*Relay, error) {
	r := &Relay{
		url:      url,
		exchange: exchange,
		errs:     make(chan error, 64),
	}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Relay) connect() error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}

	if err := ch.ExchangeDeclare(r.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("exchange declare: %w", err)
	}

	r.conn = conn
	r.ch = ch
	return nil
}

// Run pumps envelopes from the given channel (typically the event store's
// Events() channel) into the broker until the channel closes or the context
// ends. Connection failures trigger reconnects with backoff.
func (r *Relay) Run(ctx context.Context, events <-chan *cqrs.Envelope) {
	delay := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-events:
			if !ok {
				return
			}

			for {
				err := r.publish(ctx, env)
				if err == nil {
					delay = time.Second
					break
				}

				select {
				case r.errs <- fmt.Errorf("publish %s: %w", env.Event.EventType(), err):
				default:
				}

				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
				if delay < 30*time.Second {
					delay *= 2
				}
				r.reconnect()
			}
		}
	}
}

func (r *Relay) publish(ctx context.Context, env *cqrs.Envelope) error {
	payload, err := json.Marshal(env.Event)
	if err != nil {
		return err
	}

	body, err := json.Marshal(envelopeMessage{
		EventID:       env.EventID.String(),
		StreamID:      env.StreamID,
		EventType:     env.Event.EventType(),
		Event:         payload,
		Version:       env.Version,
		GlobalVersion: env.GlobalVersion,
		OccurredAt:    env.OccurredAt,
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	ch := r.ch
	r.mu.Unlock()
	if ch == nil {
		return fmt.Errorf("not connected")
	}

	return ch.PublishWithContext(ctx, r.exchange, env.Event.EventType(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.EventID.String(),
		Timestamp:    env.OccurredAt,
		Body:         body,
	})
}

func (r *Relay) reconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.ch != nil {
		r.ch.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
	r.ch = nil
	r.conn = nil
	if err := r.connect(); err != nil {
		select {
		case r.errs <- err:
		default:
		}
	}
}

// Errors returns the channel of async relay errors.
func (r *Relay) Errors() <-chan error {
	return r.errs
}

// Close closes the broker connection. Idempotent.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.ch != nil {
		r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
