package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"devdecks-backend/internal/service"
	"devdecks-backend/internal/storage"
	"devdecks-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	watchWriteWait = 10 * time.Second
	watchPongWait  = 60 * time.Second
	watchPingEvery = (watchPongWait * 9) / 10
)

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type watchInbound struct {
	Type string `json:"type"`
}

type watchOutbound struct {
	Type    string                `json:"type"`
	Event   *storage.ProjectEvent `json:"event,omitempty"`
	Message string                `json:"message,omitempty"`
}

// WatchHandler pushes project list changes over a websocket so dashboards
// stay current without polling.
type WatchHandler struct {
	workspace *service.WorkspaceService
}

func NewWatchHandler(workspace *service.WorkspaceService) *WatchHandler {
	return &WatchHandler{workspace: workspace}
}

func (h *WatchHandler) Register(projects *gin.RouterGroup) {
	projects.GET("/watch", h.Watch)
}

func (h *WatchHandler) Watch(c *gin.Context) {
	conn, err := watchUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("Project watch upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(watchPongWait)); err != nil {
		logger.Warnf("Project watch set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})

	writeCh := make(chan watchOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(watchPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	unsubscribe := h.workspace.Storage().Subscribe(func(ev storage.ProjectEvent) {
		pushWatch(writeCh, watchOutbound{Type: "project", Event: &ev})
	})
	defer unsubscribe()

	pushWatch(writeCh, watchOutbound{Type: "subscribed"})
	logger.Debug("Project watch subscribed")

	for {
		var in watchInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushWatch(writeCh, watchOutbound{Type: "pong"})
		default:
			pushWatch(writeCh, watchOutbound{Type: "error", Message: "unsupported type: " + in.Type})
		}
	}
}

// pushWatch never blocks the mutating goroutine. When the client falls
// behind the oldest queued message is dropped.
func pushWatch(writeCh chan watchOutbound, out watchOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
