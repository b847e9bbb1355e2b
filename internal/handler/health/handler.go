package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-tongue/backend/pkg/utils"
)

const checkTimeout = 3 * time.Second

// Check 是一项就绪探测
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Handler 健康检查处理器
type Handler struct {
	service   string
	inference func() bool
	checks    []Check
	started   time.Time
}

// New 创建健康检查处理器。inference 报告模型端点是否已配置。
func New(service string, inference func() bool, checks ...Check) *Handler {
	return &Handler{
		service:   service,
		inference: inference,
		checks:    checks,
		started:   time.Now(),
	}
}

// RegisterRoutes 注册健康检查路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Get("/alive", h.handleAlive)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	aiEnabled := h.inference != nil && h.inference()
	mode := "fallback"
	if aiEnabled {
		mode = "model"
	}
	utils.RespondData(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"service":       h.service,
		"aiEnabled":     aiEnabled,
		"analysisMode":  mode,
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady 逐项执行依赖探测，任一失败返回503
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ready := true
	for _, check := range h.checks {
		if err := check.Run(ctx); err != nil {
			results[check.Name] = err.Error()
			ready = false
			continue
		}
		results[check.Name] = "ok"
	}

	if !ready {
		utils.RespondJSON(w, http.StatusServiceUnavailable, utils.Envelope{
			Success: false,
			Data:    map[string]any{"ready": false, "checks": results},
			Error:   http.StatusText(http.StatusServiceUnavailable),
			Message: "dependencies not ready",
		})
		return
	}
	utils.RespondData(w, http.StatusOK, map[string]any{"ready": true, "checks": results})
}

func (h *Handler) handleAlive(w http.ResponseWriter, r *http.Request) {
	utils.RespondData(w, http.StatusOK, map[string]any{"alive": true})
}
