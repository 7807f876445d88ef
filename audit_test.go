package authcore

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingSink struct {
	release chan struct{}
	once    sync.Once
}

func (s *blockingSink) Emit(_ context.Context, _ AuditEvent) {
	<-s.release
}

func (s *blockingSink) Release() {
	s.once.Do(func() { close(s.release) })
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "e", Subject: string(rune('a' + i))})
	}
	d.Close()

	for i := 0; i < 3; i++ {
		select {
		case ev := <-sink.Events():
			assert.Equal(t, string(rune('a'+i)), ev.Subject)
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// Saturate the worker plus the single buffer slot, then overflow.
	for i := 0; i < 8; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "e"})
	}

	assert.Greater(t, d.Dropped(), uint64(0))
	sink.Release()
	d.Close()
}

func TestDispatcherDisabled(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, NewChannelSink(1))
	require.Nil(t, d)

	// Nil dispatcher methods are safe no-ops.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	assert.Zero(t, d.Dropped())
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		EventType: "issue_success",
		Subject:   "u1",
		Success:   true,
	})

	var decoded AuditEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "issue_success", decoded.EventType)
	assert.Equal(t, "u1", decoded.Subject)
	assert.True(t, decoded.Success)
}

func TestChannelSinkContextCancel(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(context.Background(), AuditEvent{EventType: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Buffer full and context cancelled: Emit must return, not block.
	sink.Emit(ctx, AuditEvent{EventType: "b"})

	ev := <-sink.Events()
	assert.Equal(t, "a", ev.EventType)
}
