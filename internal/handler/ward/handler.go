package ward

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-reception/backend/internal/analysis/intent"
	"github.com/zhouzirui/z-reception/backend/internal/model/ward"
	"github.com/zhouzirui/z-reception/backend/pkg/utils"
)

// Handler 科室目录的HTTP处理器
type Handler struct {
	wards ward.Store
}

// New 创建科室处理器
func New(wards ward.Store) *Handler {
	return &Handler{
		wards: wards,
	}
}

// RegisterRoutes 注册科室相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/wards", h.handleListWards)
	r.Get("/wards/{category}", h.handleGetWard)
}

// handleListWards 列出所有科室
func (h *Handler) handleListWards(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.wards.List())
}

// handleGetWard 按分类或科室标识查询
func (h *Handler) handleGetWard(w http.ResponseWriter, r *http.Request) {
	category, ok := intent.ParseCategory(chi.URLParam(r, "category"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "ward not found")
		return
	}

	item, ok := h.wards.FindByCategory(category)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "ward not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}
