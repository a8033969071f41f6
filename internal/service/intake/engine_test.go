package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zhouzirui/z-reception/backend/internal/analysis/intent"
	"github.com/zhouzirui/z-reception/backend/internal/metrics"
	"github.com/zhouzirui/z-reception/backend/internal/model/chat"
	"github.com/zhouzirui/z-reception/backend/internal/model/ward"
)

type fakeSink struct {
	records []Record
	id      string
	err     error
}

func (f *fakeSink) Save(_ context.Context, rec Record) (string, error) {
	f.records = append(f.records, rec)
	return f.id, f.err
}

type fakeNotifier struct {
	records []Record
	err     error
	block   bool
}

func (f *fakeNotifier) Notify(ctx context.Context, rec Record) error {
	f.records = append(f.records, rec)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func newTestEngine(t *testing.T, sink Sink, notifier Notifier, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	engine, err := NewEngine(context.Background(), ward.NewMemoryStore(ward.Seed()), sink, notifier, opts...)
	require.NoError(t, err)
	return engine
}

func advance(t *testing.T, e *Engine, sess *chat.Session, text string) Reply {
	t.Helper()
	reply, err := e.Advance(context.Background(), sess, text)
	require.NoError(t, err)
	return reply
}

func TestEngineThreeTurnGeneralIntake(t *testing.T) {
	sink := &fakeSink{id: "rec-1"}
	notifier := &fakeNotifier{}
	engine := newTestEngine(t, sink, notifier)
	sess := &chat.Session{ID: "s1"}

	reply := advance(t, engine, sess, "I'm Alex")
	assert.Equal(t, intent.General, sess.Category)
	assert.Equal(t, "Alex", sess.Name)
	assert.Equal(t, chat.StageNeedAge, reply.Stage)
	assert.Equal(t, "Thank you, Alex. Could you please provide your age?", reply.Text)

	reply = advance(t, engine, sess, "I'm 29")
	assert.Equal(t, 29, sess.Age)
	assert.Equal(t, chat.StageNeedReason, reply.Stage)
	assert.Empty(t, sink.records)

	reply = advance(t, engine, sess, "I've had a persistent cough for two weeks")
	require.Len(t, sink.records, 1)
	assert.Equal(t, Record{
		Name:     "Alex",
		Age:      29,
		Reason:   "I've had a persistent cough for two weeks",
		Category: intent.General,
	}, sink.records[0])
	assert.Len(t, notifier.records, 1)
	assert.True(t, sess.Completed)
	assert.Equal(t, "rec-1", sess.RecordID)
	assert.Equal(t, chat.StageComplete, reply.Stage)
	assert.Contains(t, reply.Text, "Alex")
	assert.Contains(t, reply.Text, "General Ward")
	assert.Contains(t, reply.Text, "successfully recorded and saved")

	require.Len(t, sess.Messages, 6)
	last, _ := sess.LastMessage(chat.SenderAssistant)
	assert.Equal(t, reply.Text, last.Content)
}

func TestEngineCompletedSessionIsIdempotent(t *testing.T) {
	sink := &fakeSink{id: "rec-1"}
	notifier := &fakeNotifier{}
	engine := newTestEngine(t, sink, notifier)
	sess := &chat.Session{ID: "s1"}

	advance(t, engine, sess, "My name is Jane Doe and I am 34 years old, I need a checkup")
	require.True(t, sess.Completed)
	before := sess.Clone()

	reply := advance(t, engine, sess, "hello again, my name is Bob")
	assert.False(t, reply.Produced)
	assert.Empty(t, reply.Text)
	assert.Equal(t, before, sess)
	assert.Len(t, sink.records, 1)
	assert.Len(t, notifier.records, 1)
}

func TestEngineCascadesWithinOneTurn(t *testing.T) {
	sink := &fakeSink{id: "rec-9"}
	engine := newTestEngine(t, sink, &fakeNotifier{})
	sess := &chat.Session{ID: "s1"}

	reply := advance(t, engine, sess, "My name is John and I am 29 years old, I have chest pain")

	assert.Equal(t, intent.Emergency, sess.Category)
	assert.Equal(t, "John", sess.Name)
	assert.Equal(t, 29, sess.Age)
	assert.Equal(t, "My name is John and I am 29 years old, I have chest pain", sess.Reason)
	assert.True(t, sess.Completed)
	assert.Equal(t, "Emergency information recorded and saved for John. Medical staff are being notified immediately.", reply.Text)
}

func TestEngineEmergencyMessageNamingJohn(t *testing.T) {
	engine := newTestEngine(t, &fakeSink{}, &fakeNotifier{})
	sess := &chat.Session{ID: "s1"}

	reply := advance(t, engine, sess, "Emergency! My dad is unconscious and not breathing, please help, this is John")

	assert.Equal(t, intent.Emergency, sess.Category)
	assert.Equal(t, "John", sess.Name)
	assert.Equal(t, chat.StageNeedAge, reply.Stage)
	assert.Equal(t, "Thank you. What is John's age?", reply.Text)
}

func TestEngineAsksForNameWithWardWording(t *testing.T) {
	engine := newTestEngine(t, &fakeSink{}, &fakeNotifier{})

	sess := &chat.Session{ID: "mh"}
	reply := advance(t, engine, sess, "i've been feeling very anxious lately")
	assert.Equal(t, intent.MentalHealth, sess.Category)
	assert.Equal(t, chat.StageNeedName, reply.Stage)
	assert.Contains(t, reply.Text, "Mental Health Ward")

	sess = &chat.Session{ID: "er"}
	reply = advance(t, engine, sess, "there was an accident")
	assert.Equal(t, "This is the Emergency Ward. I need to collect some information quickly. What is the patient's name?", reply.Text)
}

func TestEngineClassificationIsSticky(t *testing.T) {
	engine := newTestEngine(t, &fakeSink{}, &fakeNotifier{})
	sess := &chat.Session{ID: "s1"}

	advance(t, engine, sess, "need a checkup")
	require.Equal(t, intent.General, sess.Category)

	advance(t, engine, sess, "actually it is an emergency, I'm Sam")
	assert.Equal(t, intent.General, sess.Category)
	assert.Equal(t, "Sam", sess.Name)
}

func TestEngineRejectsOutOfRangeAge(t *testing.T) {
	engine := newTestEngine(t, &fakeSink{}, &fakeNotifier{})
	sess := &chat.Session{ID: "s1"}

	advance(t, engine, sess, "I'm Alex")
	reply := advance(t, engine, sess, "I am 200 years old")

	assert.Zero(t, sess.Age)
	assert.Equal(t, chat.StageNeedAge, reply.Stage)
	assert.Equal(t, "Thank you, Alex. Could you please provide your age?", reply.Text)
}

func TestEngineFieldsAreWriteOnce(t *testing.T) {
	engine := newTestEngine(t, &fakeSink{}, &fakeNotifier{})
	sess := &chat.Session{ID: "s1"}

	advance(t, engine, sess, "I'm Alex")
	advance(t, engine, sess, "my name is Bob, I'm 40")

	assert.Equal(t, "Alex", sess.Name)
	assert.Equal(t, 40, sess.Age)
}

func TestEngineAsksForReasonWhenMessagesAreShort(t *testing.T) {
	engine := newTestEngine(t, &fakeSink{}, &fakeNotifier{})
	sess := &chat.Session{ID: "s1"}

	advance(t, engine, sess, "Alex")
	reply := advance(t, engine, sess, "29")

	assert.Equal(t, 29, sess.Age)
	assert.Equal(t, chat.StageNeedReason, reply.Stage)
	assert.Equal(t, "Thank you. Could you please describe your concern or the reason for your visit?", reply.Text)

	reply = advance(t, engine, sess, "sore knee")
	assert.Equal(t, chat.StageNeedReason, reply.Stage, "nine characters is too short")
}

func TestEngineSinkFailureStillCompletes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	sink := &fakeSink{err: errors.New("connection refused")}
	notifier := &fakeNotifier{}
	engine := newTestEngine(t, sink, notifier, WithMetrics(m))
	sess := &chat.Session{ID: "s1"}

	reply := advance(t, engine, sess, "My name is Jane Doe and I am 34 years old, I need a checkup")

	assert.True(t, sess.Completed)
	assert.Empty(t, sess.RecordID)
	assert.Len(t, notifier.records, 1, "notifier runs even when the sink fails")
	assert.Equal(t, "Thank you, Jane Doe. Your information has been recorded and you've been routed to the General Ward. A staff member will be with you shortly.", reply.Text)

	count, err := testutil.GatherAndCount(reg, "intake_sink_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEngineUnconfiguredCollaborators(t *testing.T) {
	engine := newTestEngine(t, nil, nil)
	sess := &chat.Session{ID: "s1"}

	reply := advance(t, engine, sess, "My name is Jane Doe and I am 34 years old, I need a checkup")

	assert.True(t, sess.Completed)
	assert.NotContains(t, reply.Text, "saved")
}

func TestEngineNotifierTimeoutIsNonFatal(t *testing.T) {
	notifier := &fakeNotifier{block: true}
	engine := newTestEngine(t, &fakeSink{id: "rec"}, notifier, WithNotifyTimeout(20*time.Millisecond))
	sess := &chat.Session{ID: "s1"}

	reply := advance(t, engine, sess, "My name is Jane Doe and I am 34 years old, I need a checkup")

	assert.True(t, sess.Completed)
	assert.Contains(t, reply.Text, "saved")
	assert.Len(t, notifier.records, 1)
}

func TestEngineMissingWardIsAnError(t *testing.T) {
	engine, err := NewEngine(context.Background(), ward.NewMemoryStore(nil), nil, nil)
	require.NoError(t, err)

	sess := &chat.Session{ID: "s1"}
	_, err = engine.Advance(context.Background(), sess, "hello")
	assert.Error(t, err)
	assert.Empty(t, sess.Messages)
	assert.Empty(t, sess.Category)
}

func TestEngineAcceptsLowercaseNameReply(t *testing.T) {
	engine := newTestEngine(t, &fakeSink{}, &fakeNotifier{})
	sess := &chat.Session{ID: "s1"}

	reply := advance(t, engine, sess, "need a checkup")
	require.Equal(t, chat.StageNeedName, reply.Stage)

	reply = advance(t, engine, sess, "alex")
	assert.Equal(t, "Alex", sess.Name)
	assert.Equal(t, chat.StageNeedAge, reply.Stage)
	assert.Equal(t, "Thank you, Alex. Could you please provide your age?", reply.Text)
}

func TestEngineLowercaseIntroOnFirstTurn(t *testing.T) {
	engine := newTestEngine(t, &fakeSink{}, &fakeNotifier{})
	sess := &chat.Session{ID: "s1"}

	reply := advance(t, engine, sess, "my name is jane doe")
	assert.Equal(t, "Jane Doe", sess.Name)
	assert.Equal(t, chat.StageNeedAge, reply.Stage)
}

func TestEngineBareLowercaseNeedsNamePrompt(t *testing.T) {
	engine := newTestEngine(t, &fakeSink{}, &fakeNotifier{})
	sess := &chat.Session{ID: "s1"}

	reply := advance(t, engine, sess, "checkup")
	assert.Empty(t, sess.Name)
	assert.Equal(t, chat.StageNeedName, reply.Stage)
}
