// Package service provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned to allow callers to ignore failures without
// interrupting the main request flow.
package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/document-tracking/internal/config"
    q "github.com/iliyamo/document-tracking/internal/queue"
)

// EventPublisher sends document events to the configured queue.  A
// disabled publisher accepts and drops every event.
type EventPublisher struct {
    cfg config.EventsConfig
}

func NewEventPublisher(cfg config.EventsConfig) *EventPublisher {
    return &EventPublisher{cfg: cfg}
}

// PublishDocumentEvent publishes ev as a persistent JSON message.  Each call
// uses its own connection; document mutations are rare enough that pooling
// a channel is not worth the reconnect handling.
func (p *EventPublisher) PublishDocumentEvent(ctx context.Context, ev q.DocumentEvent) error {
    if !p.cfg.Enabled {
        return nil
    }
    conn, err := amqp.Dial(p.cfg.URL)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(p.cfg.Queue, true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    // default exchange, routing key = queue name
    if err := ch.PublishWithContext(ctx, "", p.cfg.Queue, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
