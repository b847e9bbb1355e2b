package diagnosis

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-tongue/backend/internal/handler/respond"
	model "github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
	diagnosisService "github.com/zhouzirui/z-tongue/backend/internal/service/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/pkg/utils"
)

const (
	heartbeatInterval = 15 * time.Second
	pingInterval      = 54 * time.Second
	pongWait          = 60 * time.Second
	writeWait         = 10 * time.Second
)

func currentEvent(sess model.Session) diagnosisService.Event {
	return diagnosisService.Event{
		SessionID: sess.ID,
		Status:    sess.Status,
		Stage:     "current",
		At:        sess.UpdatedAt,
	}
}

// handleEvents 通过SSE推送会话状态，直到完成或客户端断开
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	sess, events, cancel, err := h.svc.Subscribe(ctx, sessionParam(r))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEEvent(w, flusher, "status", currentEvent(sess)); err != nil {
		return
	}
	if sess.Status == model.StatusCompleted {
		return
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "status", ev); err != nil {
				return
			}
			if ev.Status == model.StatusCompleted {
				return
			}
		}
	}
}

// handleWebSocket 通过WebSocket推送会话状态
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionParam(r)
	sess, events, cancelSub, err := h.svc.Subscribe(r.Context(), sessionID)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	defer cancelSub()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.readLoop(ctx, cancel, conn)

	if err := writeJSON(conn, currentEvent(sess)); err != nil {
		return
	}
	if sess.Status == model.StatusCompleted {
		closeNormally(conn)
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				closeNormally(conn)
				return
			}
			if err := writeJSON(conn, ev); err != nil {
				return
			}
			if ev.Status == model.StatusCompleted {
				closeNormally(conn)
				return
			}
		}
	}
}

// readLoop 只处理控制帧，连接断开时取消推送
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				h.logger.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session completed")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
