package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/photoarchive/pkg/queue"
)

func TestPublishAndParseOverGoChannel(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	t.Cleanup(func() { _ = ps.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch, err := ps.Subscribe(ctx, queue.TopicSecurityAlert)
	require.NoError(t, err)

	payload := queue.SecurityAlertPayload{
		IncidentID: "01HZX",
		Kind:       "link_on_enhanced",
		Identifier: "abc",
		RemoteIP:   "10.0.0.1",
		DetectedAt: time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, queue.PublishSecurityAlert(ps, payload, queue.WithTraceID("trace-1")))

	select {
	case msg := <-ch:
		env, err := queue.ParseSecurityAlert(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Equal(t, queue.TopicSecurityAlert, env.Header.Topic)
		assert.Equal(t, "trace-1", env.Header.TraceID)
		assert.Equal(t, queue.Producer, env.Header.Producer)
		assert.Equal(t, queue.PayloadVersionV1, msg.Metadata.Get("version"))
		assert.Equal(t, payload.Identifier, env.Payload.Identifier)
		assert.True(t, payload.DetectedAt.Equal(env.Payload.DetectedAt))
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestAllTopicsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, topic := range queue.AllTopics() {
		assert.False(t, seen[topic], topic)
		seen[topic] = true
	}

	assert.Len(t, seen, 6)
}
