package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
)

var _ ports.AuditEmitter = (*KafkaEmitter)(nil)

// messageWriter es el subconjunto de *kafka.Writer que usa el emisor.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter publica los eventos de auditoría en un tópico Kafka, con clave = sujeto
// para que los eventos de un mismo documento conserven el orden.
type KafkaEmitter struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaWriter construye el writer para los brokers y tópico dados.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaEmitter construye el emisor. Cada publicación espera como máximo timeout.
func NewKafkaEmitter(writer messageWriter, timeout time.Duration) *KafkaEmitter {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &KafkaEmitter{writer: writer, timeout: timeout}
}

func (e *KafkaEmitter) EmitAuditEvent(ctx context.Context, ev ports.AuditEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", ev.Action, err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.Subject),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(ev.Action)},
		},
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: &msg})

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()
	if err := e.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar evento %s: %w", ev.Action, err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (e *KafkaEmitter) Close() error {
	return e.writer.Close()
}

// headerCarrier adapta los headers Kafka a propagation.TextMapCarrier.
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
