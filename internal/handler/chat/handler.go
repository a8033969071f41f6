package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-reception/backend/internal/model/chat"
	chatService "github.com/zhouzirui/z-reception/backend/internal/service/chat"
	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
	"github.com/zhouzirui/z-reception/backend/pkg/utils"
)

// Handler 接诊对话的HTTP处理器
type Handler struct {
	intakeSvc *intake.Service
	logger    *zap.Logger
}

// New 创建聊天处理器
func New(intakeSvc *intake.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		intakeSvc: intakeSvc,
		logger:    logger,
	}
}

// RegisterRoutes 注册对话入口路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// RegisterAPIRoutes 注册会话查询路由
func (h *Handler) RegisterAPIRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
}

// maxBodyBytes caps a /chat request body.
const maxBodyBytes = 64 << 10

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// handleChat 处理一轮用户消息
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.intakeSvc.Handle(r.Context(), payload.SessionID, payload.Message)
	switch {
	case errors.Is(err, intake.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("chat turn failed",
			zap.String("session_id", payload.SessionID),
			zap.Error(err),
		)
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{Response: reply.Text})
}

type sessionView struct {
	*chat.Session
	Stage chat.Stage `json:"stage"`
	Ward  string     `json:"ward,omitempty"`
}

func newSessionView(session *chat.Session) sessionView {
	view := sessionView{Session: session, Stage: session.Stage()}
	if session.Category != "" {
		view.Ward = session.Category.Ward()
	}
	return view
}

// handleListSessions 列出所有会话
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.intakeSvc.Sessions(r.Context())
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, newSessionView(session))
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

// handleGetSession 返回会话状态与对话记录
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.intakeSvc.Session(r.Context(), sessionID)
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, chatService.ErrSessionIDRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("load session failed", zap.String("session_id", sessionID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	utils.RespondJSON(w, http.StatusOK, newSessionView(session))
}
