package chat

import (
	"time"

	"github.com/zhouzirui/z-reception/backend/internal/analysis/intent"
)

// Stage is the slot-filling step a session is waiting on. It is derived from
// which fields are set, never stored.
type Stage string

const (
	StageNeedName   Stage = "need_name"
	StageNeedAge    Stage = "need_age"
	StageNeedReason Stage = "need_reason"
	StageComplete   Stage = "complete"
)

// Session captures one caller's intake conversation.
//
// Name, Age and Reason are write-once and fill strictly in that order.
type Session struct {
	ID        string          `json:"id"`
	Messages  []Message       `json:"messages"`
	Category  intent.Category `json:"category,omitempty"`
	Name      string          `json:"name,omitempty"`
	Age       int             `json:"age,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Completed bool            `json:"completed"`
	RecordID  string          `json:"recordId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Stage reports the next field the session needs.
func (s *Session) Stage() Stage {
	switch {
	case s.Name == "":
		return StageNeedName
	case s.Age == 0:
		return StageNeedAge
	case s.Reason == "":
		return StageNeedReason
	default:
		return StageComplete
	}
}

// UserMessages returns user turns in insertion order.
func (s *Session) UserMessages() []Message {
	out := make([]Message, 0, len(s.Messages))
	for _, msg := range s.Messages {
		if msg.Sender == SenderUser {
			out = append(out, msg)
		}
	}
	return out
}

// LastMessage returns the most recent message from sender.
func (s *Session) LastMessage(sender string) (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Sender == sender {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Clone returns a deep copy safe to hand outside the store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	copied := *s
	copied.Messages = append([]Message(nil), s.Messages...)
	return &copied
}
