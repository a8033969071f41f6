package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-reception/backend/internal/handler/chat"
	"github.com/zhouzirui/z-reception/backend/internal/handler/stream"
	wardHandler "github.com/zhouzirui/z-reception/backend/internal/handler/ward"
	"github.com/zhouzirui/z-reception/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/z-reception/backend/internal/middleware"
	wardModel "github.com/zhouzirui/z-reception/backend/internal/model/ward"
	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
	"github.com/zhouzirui/z-reception/backend/pkg/utils"
)

// Deps collects what the HTTP layer needs.
type Deps struct {
	Wards          wardModel.Store
	Intake         *intake.Service
	AllowedOrigins []string
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
	Logger  *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	chatHandler := chat.New(deps.Intake, logger)
	streamHandler := stream.New(deps.Intake, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	chatHandler.RegisterRoutes(r)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		wardHandler.New(deps.Wards).RegisterRoutes(api)
		chatHandler.RegisterAPIRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if strings.TrimSpace(userMessage) == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				logger.Error("stream request failed", zap.String("session_id", sessionID), zap.Error(err))
				utils.RespondError(w, http.StatusInternalServerError, "streaming failed")
			}
		})

		ws.New(deps.Intake, deps.AllowedOrigins, logger).RegisterRoutes(api)
	})

	return r
}
