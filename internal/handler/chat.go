package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"devdecks-backend/internal/config"
	"devdecks-backend/internal/model"
	"devdecks-backend/internal/orchestrator"
	"devdecks-backend/internal/service"
	"devdecks-backend/internal/utils"
	"devdecks-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	workspace *service.WorkspaceService
	timeout   time.Duration
	heartbeat time.Duration
}

func NewChatHandler(workspace *service.WorkspaceService, cfg config.ServerConfig) *ChatHandler {
	h := &ChatHandler{
		workspace: workspace,
		timeout:   cfg.StreamTimeout,
		heartbeat: cfg.Heartbeat,
	}
	if h.timeout <= 0 {
		h.timeout = 15 * time.Minute
	}
	if h.heartbeat <= 0 {
		h.heartbeat = 30 * time.Second
	}
	return h
}

func (h *ChatHandler) Register(projects *gin.RouterGroup) {
	projects.POST("/:id/chat/stream", h.StreamChat)
	projects.GET("/:id/chat/messages", h.GetMessages)
	projects.GET("/:id/chat/selection", h.GetSelection)
	projects.PUT("/:id/chat/selection", h.UpdateSelection)
}

// StreamChat runs one chat turn and streams its progress as server-sent
// events: status, typing, message, deck, error, then [DONE].
func (h *ChatHandler) StreamChat(c *gin.Context) {
	projectID := c.Param("id")

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	// Busy and unknown-project errors are reported before the stream opens.
	events, errs, err := h.workspace.StreamChat(ctx, projectID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.WithFields(logger.Fields{"project": projectID, "length": len(req.Message)}).Info("Chat turn started")
	sseWriter := utils.NewSSEWriter(c.Writer)

	heartbeatTicker := time.NewTicker(h.heartbeat)
	defer heartbeatTicker.Stop()

	go func() {
		for {
			select {
			case <-heartbeatTicker.C:
				if err := sseWriter.WriteJSON("heartbeat", gin.H{
					"type":      "heartbeat",
					"timestamp": time.Now().Unix(),
				}); err != nil {
					logger.Warnf("Heartbeat failed for project %s: %v", projectID, err)
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	sseWriter.WriteJSON("status", gin.H{
		"type":      "processing_start",
		"timestamp": time.Now().Unix(),
	})

	var reply *model.ChatMessage
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				h.finish(c.Request.Context(), sseWriter, projectID, reply, <-errs)
				return
			}
			if ev.Type == orchestrator.EventMessage && ev.Message != nil && ev.Message.Role == model.RoleModel {
				reply = ev.Message
			}
			if err := sseWriter.WriteJSON(string(ev.Type), ev); err != nil {
				logger.Errorf("Failed to write chat event for project %s: %v", projectID, err)
				return
			}

		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				sseWriter.WriteJSON("error", gin.H{
					"error":     "processing timed out",
					"type":      "timeout",
					"timestamp": time.Now().Unix(),
				})
			}
			sseWriter.Close()
			return
		}
	}
}

func (h *ChatHandler) finish(ctx context.Context, w *utils.SSEWriter, projectID string, reply *model.ChatMessage, err error) {
	defer w.Close()

	if err != nil {
		logger.Errorf("Chat turn failed for project %s: %v", projectID, err)
		w.WriteJSON("error", gin.H{
			"error":     err.Error(),
			"type":      "service_error",
			"timestamp": time.Now().Unix(),
		})
		return
	}

	if reply != nil && reply.Metadata != nil && reply.Metadata.Type == model.MetadataDeckGenerated {
		if view, err := h.workspace.EditorView(ctx, projectID); err == nil {
			w.WriteJSON("deck", view)
		}
	}
	w.WriteJSON("status", gin.H{
		"type":      "processing_complete",
		"timestamp": time.Now().Unix(),
	})
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	projectID := c.Param("id")

	messages, err := h.workspace.Messages(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"projectId": projectID,
		"messages":  messages,
	})
}

func (h *ChatHandler) GetSelection(c *gin.Context) {
	sel, err := h.workspace.Selection(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

func (h *ChatHandler) UpdateSelection(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sel, err := h.workspace.Select(c.Request.Context(), c.Param("id"), req.ModelID, req.AspectRatio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}
