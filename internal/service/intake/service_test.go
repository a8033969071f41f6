package intake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatservice "github.com/zhouzirui/z-reception/backend/internal/service/chat"
)

func TestServiceHandleRunsConversation(t *testing.T) {
	sink := &fakeSink{id: "rec-1"}
	svc := NewService(chatservice.NewMemoryStore(), newTestEngine(t, sink, &fakeNotifier{}))
	ctx := context.Background()

	for _, msg := range []string{"I'm Alex", "I'm 29", "I've had a persistent cough for two weeks"} {
		_, err := svc.Handle(ctx, "", msg)
		require.NoError(t, err)
	}
	require.Len(t, sink.records, 1)

	sess, err := svc.Session(ctx, DefaultSessionID)
	require.NoError(t, err)
	assert.True(t, sess.Completed)
}

func TestServiceRepeatsCompletionAfterIntake(t *testing.T) {
	sink := &fakeSink{id: "rec-1"}
	svc := NewService(chatservice.NewMemoryStore(), newTestEngine(t, sink, &fakeNotifier{}))
	ctx := context.Background()

	done, err := svc.Handle(ctx, "s", "My name is Jane Doe and I am 34 years old, I need a checkup")
	require.NoError(t, err)

	again, err := svc.Handle(ctx, "s", "thanks!")
	require.NoError(t, err)
	assert.Equal(t, done.Text, again.Text)
	assert.False(t, again.Produced)
	assert.Len(t, sink.records, 1)

	sess, err := svc.Session(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 2, "messages after completion are not recorded")
}

func TestServiceRejectsBlankMessage(t *testing.T) {
	svc := NewService(chatservice.NewMemoryStore(), newTestEngine(t, nil, nil))

	_, err := svc.Handle(context.Background(), "s", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}
