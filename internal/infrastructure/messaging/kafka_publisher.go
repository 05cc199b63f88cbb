package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"pricing-service/internal/domains/discount/model"
)

// AppliedDiscountEvent is the message body for one applied discount step
type AppliedDiscountEvent struct {
	EventID      string    `json:"event_id"`
	OrderID      string    `json:"order_id"`
	CustomerID   *string   `json:"customer_id,omitempty"`
	ProductID    string    `json:"product_id"`
	LineIndex    int       `json:"line_index"`
	StepIndex    int       `json:"step_index"`
	RuleID       string    `json:"rule_id"`
	RuleName     string    `json:"rule_name"`
	DiscountType string    `json:"discount_type"`
	Savings      string    `json:"savings"`
	PriceBefore  string    `json:"price_before"`
	PriceAfter   string    `json:"price_after"`
	RecordedAt   time.Time `json:"recorded_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaAuditPublisher fans applied discounts out on a topic keyed by order ID
type KafkaAuditPublisher struct {
	writer messageWriter
}

func NewKafkaAuditPublisher(brokers []string, topic string) *KafkaAuditPublisher {
	return &KafkaAuditPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

func (p *KafkaAuditPublisher) PublishApplied(ctx context.Context, records []*model.DiscountAuditRecord) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		body, err := json.Marshal(toEvent(rec))
		if err != nil {
			return fmt.Errorf("marshal applied discount event: %w", err)
		}

		msg := kafka.Message{
			Key:   []byte(rec.OrderID.String()),
			Value: body,
		}
		otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: &msg})
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write applied discount events: %w", err)
	}
	return nil
}

func (p *KafkaAuditPublisher) Close() error {
	return p.writer.Close()
}

func toEvent(rec *model.DiscountAuditRecord) AppliedDiscountEvent {
	ev := AppliedDiscountEvent{
		EventID:      rec.ID.String(),
		OrderID:      rec.OrderID.String(),
		ProductID:    rec.ProductID.String(),
		LineIndex:    rec.LineIndex,
		StepIndex:    rec.StepIndex,
		RuleID:       rec.RuleID.String(),
		RuleName:     rec.RuleName,
		DiscountType: string(rec.DiscountType),
		Savings:      rec.Savings.String(),
		PriceBefore:  rec.PriceBefore.String(),
		PriceAfter:   rec.PriceAfter.String(),
		RecordedAt:   rec.RecordedAt,
	}
	if rec.CustomerID != nil {
		id := rec.CustomerID.String()
		ev.CustomerID = &id
	}
	return ev
}

// headerCarrier adapts kafka headers to propagation.TextMapCarrier
type headerCarrier struct {
	msg *kafka.Message
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
