package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/channel-feed/config"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaForwarder_Handle(t *testing.T) {
	w := &fakeWriter{}
	f := NewKafkaForwarder(w)

	ev := New(ReactionLiked, "r1")
	ev.ActorID = "u1"
	ev.PostID = "p1"
	require.NoError(t, f.Handle(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, []byte("r1"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "reaction_liked", string(msg.Headers[0].Value))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, "u1", got.ActorID)
	assert.Equal(t, "p1", got.PostID)

	require.NoError(t, f.Close())
	assert.True(t, w.closed)
}

func TestKafkaForwarder_WriteError(t *testing.T) {
	f := NewKafkaForwarder(&fakeWriter{err: errors.New("broker down")})
	err := f.Handle(context.Background(), New(PostAdded, "p1"))
	assert.ErrorContains(t, err, "broker down")
}

func TestNewKafkaWriter_UsesTopic(t *testing.T) {
	w := NewKafkaWriter(kafkaCfg())
	defer w.Close()
	assert.Equal(t, "feed-events", w.Topic)
}

func kafkaCfg() config.KafkaConfig {
	return config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "feed-events"}
}
