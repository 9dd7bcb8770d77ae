package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "sisifo.partes"}

	err := p.Publish(context.Background(), Event{Type: ReportClosed, ReportID: 12, ActorID: "u-1", Zone: "NORTH"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "12", string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, ReportClosed, string(msg.Headers[0].Value))

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, uint(12), ev.ReportID)
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestKafkaPublisher_WrapsErrors(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &fakeWriter{err: boom}, topic: "t"}

	err := p.Publish(context.Background(), Event{Type: ReportCreated, ReportID: 1})
	assert.ErrorIs(t, err, boom)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: ReportCreated}))
	assert.NoError(t, p.Close())
}

func TestMulti(t *testing.T) {
	ok := &fakeWriter{}
	failing := &fakeWriter{err: errors.New("broker down")}
	m := Multi{
		&KafkaPublisher{writer: failing, topic: "a"},
		&KafkaPublisher{writer: ok, topic: "b"},
		Nop{},
	}

	err := m.Publish(context.Background(), Event{Type: ReportCreated, ReportID: 1})
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, ok.msgs, 1, "a failing publisher does not stop the others")
	assert.NoError(t, m.Close())
}
