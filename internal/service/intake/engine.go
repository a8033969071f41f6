package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-reception/backend/internal/analysis/extract"
	"github.com/zhouzirui/z-reception/backend/internal/analysis/intent"
	"github.com/zhouzirui/z-reception/backend/internal/metrics"
	"github.com/zhouzirui/z-reception/backend/internal/model/chat"
	"github.com/zhouzirui/z-reception/backend/internal/model/ward"
)

// DefaultNotifyTimeout bounds a single notifier call.
const DefaultNotifyTimeout = 10 * time.Second

// minReasonLength is the shortest accepted reason, in characters.
const minReasonLength = 10

const (
	nodeClassify = "classify"
	nodeName     = "name"
	nodeAge      = "age"
	nodeReason   = "reason"
	nodeComplete = "complete"
)

var ErrWardNotFound = errors.New("ward not found")

// Reply is the outcome of one turn. Produced is false when the session was
// already complete and nothing was said.
type Reply struct {
	Text     string          `json:"response"`
	Produced bool            `json:"-"`
	Stage    chat.Stage      `json:"stage"`
	Category intent.Category `json:"category"`
}

// turn is the state threaded through the dialogue graph for one message.
type turn struct {
	session *chat.Session
	text    string
	ward    ward.Ward
	reply   string
	halted  bool
}

func (t *turn) ask(prompt string) *turn {
	t.reply = prompt
	t.halted = true
	return t
}

// Engine advances intake sessions one message at a time.
type Engine struct {
	wards         ward.Store
	sink          Sink
	notifier      Notifier
	notifyTimeout time.Duration
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time

	graph compose.Runnable[*turn, *turn]
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifyTimeout overrides DefaultNotifyTimeout.
func WithNotifyTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.notifyTimeout = d
		}
	}
}

// WithMetrics records turn and completion counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine compiles the dialogue graph:
//
//	START -> classify -> name -> age -> reason -> complete -> END
//
// where name, age and reason branch to END when they have to ask the caller
// for something.
func NewEngine(ctx context.Context, wards ward.Store, sink Sink, notifier Notifier, opts ...Option) (*Engine, error) {
	if wards == nil {
		return nil, errors.New("ward store is required")
	}
	e := &Engine{
		wards:         wards,
		sink:          sink,
		notifier:      notifier,
		notifyTimeout: DefaultNotifyTimeout,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	g := compose.NewGraph[*turn, *turn]()
	nodes := []struct {
		key string
		fn  func(context.Context, *turn) (*turn, error)
	}{
		{nodeClassify, e.classify},
		{nodeName, e.collectName},
		{nodeAge, e.collectAge},
		{nodeReason, e.collectReason},
		{nodeComplete, e.complete},
	}
	for _, n := range nodes {
		if err := g.AddLambdaNode(n.key, compose.InvokableLambda(n.fn)); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.key, err)
		}
	}

	if err := g.AddEdge(compose.START, nodeClassify); err != nil {
		return nil, err
	}
	if err := g.AddEdge(nodeClassify, nodeName); err != nil {
		return nil, err
	}
	for from, to := range map[string]string{nodeName: nodeAge, nodeAge: nodeReason, nodeReason: nodeComplete} {
		if err := g.AddBranch(from, continueOrStop(to)); err != nil {
			return nil, fmt.Errorf("add branch %s: %w", from, err)
		}
	}
	if err := g.AddEdge(nodeComplete, compose.END); err != nil {
		return nil, err
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName("intake"))
	if err != nil {
		return nil, fmt.Errorf("failed to compile intake graph: %w", err)
	}
	e.graph = runnable
	return e, nil
}

func continueOrStop(next string) *compose.GraphBranch {
	return compose.NewGraphBranch(func(_ context.Context, t *turn) (string, error) {
		if t.halted {
			return compose.END, nil
		}
		return next, nil
	}, map[string]bool{next: true, compose.END: true})
}

// Advance records the caller's message on sess and produces the next reply.
// A completed session is left untouched and yields a Reply with Produced=false.
func (e *Engine) Advance(ctx context.Context, sess *chat.Session, text string) (Reply, error) {
	if sess.Completed {
		return Reply{Stage: chat.StageComplete, Category: sess.Category}, nil
	}

	// The turn runs on a copy so a failed graph leaves sess untouched.
	work := sess.Clone()
	work.Messages = append(work.Messages, e.message(work.ID, chat.SenderUser, text))

	out, err := e.graph.Invoke(ctx, &turn{session: work, text: text})
	if err != nil {
		return Reply{}, fmt.Errorf("advance session %s: %w", sess.ID, err)
	}

	work.Messages = append(work.Messages, e.message(work.ID, chat.SenderAssistant, out.reply))
	*sess = *work

	stage := sess.Stage()
	e.metrics.ObserveTurn(string(sess.Category), string(stage))
	return Reply{Text: out.reply, Produced: true, Stage: stage, Category: sess.Category}, nil
}

func (e *Engine) message(sessionID, sender, content string) chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		CreatedAt: e.now().UTC(),
	}
}

// classify pins the category on the first turn; later turns never revisit it.
func (e *Engine) classify(_ context.Context, t *turn) (*turn, error) {
	if t.session.Category == "" {
		t.session.Category = intent.Classify(t.text)
		e.logger.Info("session classified",
			zap.String("session", t.session.ID),
			zap.String("category", string(t.session.Category)))
	}

	w, ok := e.wards.FindByCategory(t.session.Category)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWardNotFound, t.session.Category)
	}
	t.ward = w
	return t, nil
}

func (e *Engine) collectName(_ context.Context, t *turn) (*turn, error) {
	if t.session.Name != "" {
		return t, nil
	}
	if name, ok := scanUserTurns(t.session, extract.Name); ok {
		t.session.Name = name
		return t, nil
	}
	// The latest message may carry a lowercase name. A bare answer counts
	// only once the name has been asked for.
	lenient := extract.NameIntro
	if _, asked := t.session.LastMessage(chat.SenderAssistant); asked {
		lenient = extract.NameReply
	}
	if name, ok := lenient(t.text); ok {
		t.session.Name = name
		return t, nil
	}
	return t.ask(ward.Render(t.ward.NamePrompt, "")), nil
}

func (e *Engine) collectAge(_ context.Context, t *turn) (*turn, error) {
	if t.session.Age != 0 {
		return t, nil
	}
	if age, ok := scanUserTurns(t.session, extract.Age); ok {
		t.session.Age = age
		return t, nil
	}
	return t.ask(ward.Render(t.ward.AgePrompt, t.session.Name)), nil
}

func (e *Engine) collectReason(_ context.Context, t *turn) (*turn, error) {
	if t.session.Reason != "" {
		return t, nil
	}

	users := t.session.UserMessages()
	candidate := ""
	for _, msg := range users {
		if utf8.RuneCountInString(msg.Content) > minReasonLength {
			candidate = msg.Content
			break
		}
	}
	if candidate == "" && len(users) > 0 {
		candidate = users[len(users)-1].Content
	}

	candidate = strings.TrimSpace(candidate)
	if utf8.RuneCountInString(candidate) < minReasonLength {
		return t.ask(ward.Render(t.ward.ReasonPrompt, t.session.Name)), nil
	}
	t.session.Reason = candidate
	return t, nil
}

// complete persists the record and notifies downstream. Neither failure is
// surfaced to the caller.
func (e *Engine) complete(ctx context.Context, t *turn) (*turn, error) {
	sess := t.session
	rec := Record{Name: sess.Name, Age: sess.Age, Reason: sess.Reason, Category: sess.Category}
	log := e.logger.With(zap.String("session", sess.ID), zap.String("ward", rec.Ward()))

	// The caller may hang up right after the last message; the record still goes out.
	ctx = context.WithoutCancel(ctx)

	recordID := e.save(ctx, log, rec)
	e.notify(ctx, log, rec)

	saved := recordID != ""
	sess.RecordID = recordID
	sess.Completed = true
	e.metrics.ObserveCompletion(string(sess.Category), saved)
	log.Info("intake completed", zap.Bool("persisted", saved), zap.String("record_id", recordID))

	t.reply = t.ward.Completion(sess.Name, saved)
	return t, nil
}

func (e *Engine) save(ctx context.Context, log *zap.Logger, rec Record) string {
	if e.sink == nil {
		e.metrics.ObserveSinkFailure("not_configured")
		log.Warn("intake sink not configured, record not persisted")
		return ""
	}

	id, err := e.sink.Save(ctx, rec)
	switch {
	case errors.Is(err, ErrNotConfigured):
		e.metrics.ObserveSinkFailure("not_configured")
		log.Warn("intake sink not configured, record not persisted")
		return ""
	case err != nil:
		e.metrics.ObserveSinkFailure("error")
		log.Error("failed to persist intake record", zap.Error(err))
		return ""
	case id == "":
		e.metrics.ObserveSinkFailure("empty_id")
		log.Warn("intake sink returned no record id")
	}
	return id
}

func (e *Engine) notify(ctx context.Context, log *zap.Logger, rec Record) {
	if e.notifier == nil {
		e.metrics.ObserveNotifyFailure()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
	defer cancel()

	if err := e.notifier.Notify(ctx, rec); err != nil {
		e.metrics.ObserveNotifyFailure()
		if errors.Is(err, ErrNotConfigured) {
			log.Info("notifier not configured, skipping")
			return
		}
		log.Warn("failed to notify downstream", zap.Error(err))
	}
}

// scanUserTurns applies fn to each user message, newest first, and returns
// the first hit. Later turns can answer a question asked earlier.
func scanUserTurns[T any](sess *chat.Session, fn func(string) (T, bool)) (T, bool) {
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		msg := sess.Messages[i]
		if msg.Sender != chat.SenderUser {
			continue
		}
		if v, ok := fn(msg.Content); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
