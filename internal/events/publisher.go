// Package events публикует доменные события CRM в Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/crm-backend/pkg/logger"
)

// Типы доменных событий.
const (
	EventOrderCreated     = "order.created"
	EventOrderDeleted     = "order.deleted"
	EventPaymentCreated   = "payment.created"
	EventPaymentConfirmed = "payment.confirmed"
	EventPaymentCancelled = "payment.cancelled"
)

// Заголовки сообщений.
const (
	headerEventType     = "event_type"
	headerTraceID       = "trace_id"
	headerCorrelationID = "correlation_id"
)

// Event — доменное событие для внешних потребителей.
type Event struct {
	Type       string            `json:"type"`
	EntityID   string            `json:"entity_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    map[string]string `json:"payload,omitempty"`
}

// Publisher отправляет доменные события в Kafka.
// Отправка синхронная: событие уходит в рамках обрабатываемого запроса,
// фоновых очередей нет.
type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// NewPublisher создаёт Publisher для указанных брокеров и топика.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("не указаны брокеры Kafka")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	logger.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Msg("Создан Kafka Publisher событий")

	return &Publisher{writer: writer, topic: topic}, nil
}

// Publish отправляет событие. Ключ сообщения — ID сущности, поэтому
// события одной сущности попадают в одну партицию и сохраняют порядок.
// Вызывается на nil-получателе без ошибки: publisher опционален,
// сервисы работают и без настроенной Kafka.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("сериализация события: %w", err)
	}

	msg := kafka.Message{
		Key:     []byte(event.EntityID),
		Value:   value,
		Time:    event.OccurredAt,
		Headers: buildHeaders(ctx, event.Type),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error().
			Err(err).
			Str("topic", p.topic).
			Str("event_type", event.Type).
			Str("entity_id", event.EntityID).
			Msg("Ошибка отправки события в Kafka")
		return fmt.Errorf("отправка события в Kafka: %w", err)
	}

	logger.Debug().
		Str("topic", p.topic).
		Str("event_type", event.Type).
		Str("entity_id", event.EntityID).
		Msg("Событие отправлено в Kafka")

	return nil
}

// buildHeaders собирает заголовки сообщения из context.
func buildHeaders(ctx context.Context, eventType string) []kafka.Header {
	headers := []kafka.Header{
		{Key: headerEventType, Value: []byte(eventType)},
	}

	if traceID := logger.TraceIDFromContext(ctx); traceID != "" {
		headers = append(headers, kafka.Header{Key: headerTraceID, Value: []byte(traceID)})
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		headers = append(headers, kafka.Header{Key: headerCorrelationID, Value: []byte(correlationID)})
	}

	return headers
}

// Close закрывает соединение с Kafka.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}

	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("закрытие publisher: %w", err)
	}

	logger.Info().Msg("Kafka Publisher закрыт")
	return nil
}
