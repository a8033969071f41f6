package stream

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
	"github.com/zhouzirui/z-reception/backend/pkg/utils"
)

var ErrStreamingUnsupported = errors.New("streaming unsupported")

// Handler delivers intake replies as Server-Sent Events.
type Handler struct {
	intakeSvc *intake.Service
	logger    *zap.Logger
}

// New creates a new stream handler
func New(intakeSvc *intake.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		intakeSvc: intakeSvc,
		logger:    logger,
	}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Category  string `json:"category,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest runs one intake turn and streams the reply. Failures
// after the headers are written are reported as an error event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}

	utils.SetupSSEHeaders(w)

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	reply, err := h.intakeSvc.Handle(ctx, sessionID, userMessage)
	if err != nil {
		msg := "internal server error"
		if errors.Is(err, intake.ErrEmptyMessage) {
			msg = err.Error()
		} else {
			h.logger.Error("stream turn failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "error", SessionID: sessionID, Error: msg})
		return nil
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   reply.Text,
		Stage:     string(reply.Stage),
		Category:  string(reply.Category),
	})

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	h.logger.Debug("stream completed", zap.String("session_id", sessionID), zap.String("stage", string(reply.Stage)))
	return nil
}
