package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaEmitter_PublicaConClaveDeSujeto(t *testing.T) {
	w := &fakeWriter{}
	e := NewKafkaEmitter(w, time.Second)

	ev := ports.AuditEvent{
		Action:     ports.AuditSaleCompleted,
		Subject:    "sale-1",
		BranchID:   "b-1",
		OccurredAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Attributes: map[string]string{"grand_total": "53.99"},
	}
	require.NoError(t, e.EmitAuditEvent(context.Background(), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "sale-1", string(msg.Key))
	assert.Equal(t, ports.AuditSaleCompleted, headerCarrier{msg: &msg}.Get("action"))

	var got ports.AuditEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev.Subject, got.Subject)
	assert.Equal(t, "53.99", got.Attributes["grand_total"])

	require.NoError(t, e.Close())
	assert.True(t, w.closed)
}

func TestKafkaEmitter_PropagaError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker caído")}
	e := NewKafkaEmitter(w, time.Second)

	err := e.EmitAuditEvent(context.Background(), ports.AuditEvent{Action: ports.AuditSaleVoided, Subject: "s"})
	assert.ErrorContains(t, err, "broker caído")
}

func TestHeaderCarrier_SetReemplaza(t *testing.T) {
	msg := kafka.Message{}
	c := headerCarrier{msg: &msg}
	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	assert.Equal(t, "b", c.Get("traceparent"))
	assert.Equal(t, []string{"traceparent"}, c.Keys())
}

func TestLogEmitter_NoFalla(t *testing.T) {
	e := NewLogEmitter(logger.Nop())
	assert.NoError(t, e.EmitAuditEvent(context.Background(), ports.AuditEvent{Action: ports.AuditStockAdjusted}))
	assert.NoError(t, NoopEmitter{}.EmitAuditEvent(context.Background(), ports.AuditEvent{}))
}
