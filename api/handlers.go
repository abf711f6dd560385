package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/chxlky/trello-agent/database"
	"github.com/chxlky/trello-agent/internal/models"
	"github.com/chxlky/trello-agent/internal/pipeline"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RunStore looks up journalled backlog runs.
type RunStore interface {
	Run(ctx context.Context, runID string) (*models.BacklogRun, error)
}

type Handler struct {
	Pipeline *pipeline.Pipeline
	Runs     RunStore
	Logger   *zap.Logger
}

// boardEvents are the Trello webhook action types that can change the set
// of boards or their names. Webhooks are registered per board, so Trello
// never delivers createBoard; new boards show up through the cache TTL or
// refresh-on-miss.
var boardEvents = map[string]bool{
	"updateBoard":           true,
	"deleteBoard":           true,
	"copyBoard":             true,
	"addMemberToBoard":      true,
	"removeMemberFromBoard": true,
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.L()
}

// Register mounts every endpoint on g.
func (h *Handler) Register(g gin.IRoutes) {
	g.GET("/actions", h.ListActionsHandler)
	g.POST("/actions/:name", h.InvokeActionHandler)
	g.GET("/backlogs/:id", h.BacklogRunHandler)
	g.POST("/trello-webhook", h.TrelloWebhookHandler)
	g.HEAD("/trello-webhook", h.TrelloWebhookHandler)
	g.GET("/health", h.HealthCheckHandler)
}

func (h *Handler) ListActionsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": Actions()})
}

func (h *Handler) InvokeActionHandler(c *gin.Context) {
	name := c.Param("name")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read request body"})
		return
	}

	resp, err := Invoke(c.Request.Context(), h.Pipeline, name, body)
	switch {
	case errors.Is(err, ErrUnknownAction):
		h.logger().Info("Unknown action requested", zap.String("action", name))
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown action", "action": name})
	case err != nil:
		h.logger().Info("Rejected action arguments", zap.String("action", name), zap.Error(err))
		c.JSON(http.StatusBadRequest, resp)
	default:
		h.logger().Debug("Action finished",
			zap.String("action", resp.Action),
			zap.Bool("success", resp.Success),
			zap.String("stage", resp.Stage))
		c.JSON(http.StatusOK, resp)
	}
}

func (h *Handler) BacklogRunHandler(c *gin.Context) {
	if h.Runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Backlog journal is not enabled"})
		return
	}

	run, err := h.Runs.Run(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Backlog run not found"})
		return
	}
	if err != nil {
		h.logger().Error("Error loading backlog run", zap.String("runID", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load backlog run"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// TrelloWebhookHandler drops the cached board index whenever Trello reports
// a board-level change.
func (h *Handler) TrelloWebhookHandler(c *gin.Context) {
	// Trello verifies the callback URL with a HEAD request
	if c.Request.Method != http.MethodPost {
		c.Status(http.StatusOK)
		return
	}

	var payload models.TrelloWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger().Warn("Could not bind webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	action := payload.Action
	h.logger().Debug("Received Trello webhook",
		zap.String("type", action.Type),
		zap.String("boardID", action.Data.Board.ID),
		zap.String("cardID", action.Data.Card.ID))

	if !boardEvents[action.Type] {
		c.JSON(http.StatusOK, gin.H{"message": "No action taken"})
		return
	}

	h.Pipeline.Resolver().Invalidate(c.Request.Context())
	h.logger().Info("Board cache invalidated",
		zap.String("type", action.Type),
		zap.String("board", action.Data.Board.Name),
		zap.String("oldName", action.Data.Old.Name))
	c.JSON(http.StatusOK, gin.H{"message": "Board cache invalidated"})
}

func (h *Handler) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
