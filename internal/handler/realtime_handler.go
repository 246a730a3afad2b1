package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/courses-api/internal/middleware"
	"github.com/noah-isme/courses-api/internal/notify"
)

const maxClientMessageSize = 512

type socketMetrics interface {
	SocketOpened()
	SocketClosed()
}

// RealtimeConfig tunes socket keepalive. A nil CheckOrigin accepts every origin.
type RealtimeConfig struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	CheckOrigin  func(r *http.Request) bool
}

// RealtimeHandler upgrades notification sockets and joins identified users
// to their channel.
type RealtimeHandler struct {
	broker   notify.Broker
	cfg      RealtimeConfig
	metrics  socketMetrics
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewRealtimeHandler constructs RealtimeHandler.
func NewRealtimeHandler(broker notify.Broker, cfg RealtimeConfig, metrics socketMetrics, logger *zap.Logger) *RealtimeHandler {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CheckOrigin == nil {
		cfg.CheckOrigin = func(*http.Request) bool { return true }
	}
	h := &RealtimeHandler{broker: broker, cfg: cfg, metrics: metrics, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     cfg.CheckOrigin,
	}
	return h
}

// Notifications godoc
// @Summary Notification socket
// @Description WebSocket delivering new_solution and solution_graded events to the connected user
// @Tags Realtime
// @Param token query string false "Access token when the Authorization header cannot be set"
// @Success 101 {string} string "Switching Protocols"
// @Router /ws/notifications [get]
func (h *RealtimeHandler) Notifications(c *gin.Context) {
	user, identified := middleware.SocketUser(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("socket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.SocketOpened()
		defer h.metrics.SocketClosed()
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	var events <-chan notify.Event
	if identified {
		sub, err := h.broker.Subscribe(ctx, user.ID)
		if err != nil {
			h.logger.Warn("socket subscribe failed", zap.String("user_id", user.ID), zap.Error(err))
		} else {
			defer sub.Close()
			events = sub.Events()
			h.logger.Debug("socket joined channel", zap.String("channel", notify.Channel(user.ID)))
		}
	}

	go h.readPump(conn, cancel)
	h.writePump(ctx, conn, events)
}

func (h *RealtimeHandler) pongWait() time.Duration {
	return h.cfg.PingInterval * 2
}

// readPump discards client messages and keeps the read deadline alive on pongs.
func (h *RealtimeHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxClientMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *RealtimeHandler) writePump(ctx context.Context, conn *websocket.Conn, events <-chan notify.Event) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(h.cfg.WriteTimeout))
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("socket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.cfg.WriteTimeout)); err != nil {
				return
			}
		}
	}
}
