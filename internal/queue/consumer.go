// Package queue contains the background consumer that listens to the
// document events queue and appends an audit line per event to
// <log dir>/documents.log.
package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/document-tracking/internal/config"
)

// StartDocumentEventConsumer connects to RabbitMQ, declares the events
// queue (durable), and starts consuming messages.  It runs a reconnect loop
// with exponential backoff and never returns; a message that cannot be
// processed is logged and rejected without requeue.
func StartDocumentEventConsumer(cfg config.EventsConfig) {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            log.Printf("document-events: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        if err := consumeLoop(conn, cfg); err != nil {
            log.Printf("document-events: consume loop ended: %v; reconnecting", err)
            time.Sleep(2 * time.Second)
        }
        _ = conn.Close()
    }
}

func consumeLoop(conn *amqp.Connection, cfg config.EventsConfig) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("document-events: set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(cfg.LogDir, d.Body); err != nil {
            log.Printf("document-events: handle message failed: %v", err)
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(dir string, body []byte) error {
    var ev DocumentEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.DocumentID == "" {
        return errors.New("event without type or document id")
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "documents.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatLine(ev DocumentEvent) string {
    status := ev.Status
    if status == "" {
        status = "-"
    }
    actor := ev.ActorEmail
    if actor == "" {
        actor = "-"
    }
    return fmt.Sprintf("[%s] %s | document_id=%s | status=%s | role=%s | actor=%s\n",
        ev.At, ev.Type, ev.DocumentID, status, ev.ActorRole, actor)
}
