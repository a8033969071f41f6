package intake

import (
	"context"
	"errors"
	"strings"

	"github.com/zhouzirui/z-reception/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/z-reception/backend/internal/service/chat"
)

// FallbackResponse is returned when a turn produces nothing and the session
// has no earlier assistant message to repeat.
const FallbackResponse = "I'm here to help. How can I assist you?"

// DefaultSessionID is used when the caller does not name a session.
const DefaultSessionID = "default"

var ErrEmptyMessage = errors.New("message is required")

// Service binds the dialogue engine to a session store.
type Service struct {
	sessions chatservice.Store
	engine   *Engine
}

// NewService wires an engine to a session store.
func NewService(sessions chatservice.Store, engine *Engine) *Service {
	return &Service{sessions: sessions, engine: engine}
}

// Handle processes one inbound message for sessionID. Once a session is
// complete, further messages repeat the last assistant message without
// touching the session.
func (s *Service) Handle(ctx context.Context, sessionID, message string) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{}, ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	var reply Reply
	err := s.sessions.Update(ctx, sessionID, func(sess *chat.Session) error {
		r, err := s.engine.Advance(ctx, sess, message)
		if err != nil {
			return err
		}
		if !r.Produced {
			r.Text = FallbackResponse
			if last, ok := sess.LastMessage(chat.SenderAssistant); ok {
				r.Text = last.Content
			}
		}
		reply = r
		return nil
	})
	if err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// Session returns a snapshot of a session.
func (s *Service) Session(ctx context.Context, sessionID string) (*chat.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// Sessions lists snapshots of every known session, oldest first.
func (s *Service) Sessions(ctx context.Context) ([]*chat.Session, error) {
	return s.sessions.List(ctx)
}
