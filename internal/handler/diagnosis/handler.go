package diagnosis

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-tongue/backend/internal/handler/respond"
	model "github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
	diagnosisService "github.com/zhouzirui/z-tongue/backend/internal/service/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/pkg/utils"
)

// bodySlack 为 JSON 外壳预留的额外字节
const bodySlack = 64 << 10

// Handler 舌诊流程的HTTP处理器
type Handler struct {
	svc      *diagnosisService.Service
	maxBody  int64
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New 创建舌诊处理器。maxImageBytes 决定请求体上限。
func New(svc *diagnosisService.Service, maxImageBytes int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:     svc,
		maxBody: int64(maxImageBytes) + bodySlack,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册舌诊相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.handleAnalyze)
	r.Post("/generate-questions", h.handleGenerateQuestions)
	r.Post("/submit-answers", h.handleSubmitAnswers)
	r.Get("/record/{sessionId}", h.handleGetRecord)
	r.Get("/record/{sessionId}/events", h.handleEvents)
	r.Get("/record/{sessionId}/ws", h.handleWebSocket)
}

// handleAnalyze 第一阶段：舌象分析
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ImageData string `json:"imageData"`
	}
	if !h.decode(w, r, &payload) {
		return
	}

	result, err := h.svc.Analyze(r.Context(), payload.ImageData)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	utils.RespondData(w, http.StatusOK, result)
}

// handleGenerateQuestions 第二阶段：生成问诊问题
func (h *Handler) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if !h.decode(w, r, &payload) {
		return
	}

	questions, err := h.svc.GenerateQuestions(r.Context(), payload.SessionID)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	utils.RespondData(w, http.StatusOK, map[string]any{"questions": questions})
}

// handleSubmitAnswers 第三阶段：提交答案并生成报告
func (h *Handler) handleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string         `json:"sessionId"`
		Answers   []model.Answer `json:"answers"`
	}
	if !h.decode(w, r, &payload) {
		return
	}

	result, err := h.svc.SubmitAnswers(r.Context(), payload.SessionID, payload.Answers)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	utils.RespondData(w, http.StatusOK, result)
}

// handleGetRecord 查询会话记录
func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.GetRecord(r.Context(), sessionParam(r))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	utils.RespondData(w, http.StatusOK, sess.Record())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func sessionParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "sessionId"))
}
