package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	contracts "github.com/piccolojnr/planning-platform/contracts/mq"
	"github.com/piccolojnr/planning-platform/internal/realtime"
)

type RealtimeHandler struct {
	hub    *realtime.Hub
	logger *zap.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, logger: logger}
}

var subscribableTables = map[string]bool{
	contracts.TableProjects:     true,
	contracts.TableTasks:        true,
	contracts.TableSubtasks:     true,
	contracts.TableRequirements: true,
	contracts.TableShares:       true,
	contracts.TableChatMessages: true,
}

func allTables() []string {
	return []string{
		contracts.TableProjects,
		contracts.TableTasks,
		contracts.TableSubtasks,
		contracts.TableRequirements,
		contracts.TableShares,
		contracts.TableChatMessages,
	}
}

// Stream is a server-sent-events endpoint carrying change notifications for
// the project. Each event names a table that changed; clients refetch that
// container rather than receiving deltas. The optional tables query param
// narrows the subscription.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	tables := allTables()
	if raw := c.Query("tables"); raw != "" {
		tables = tables[:0]
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			if !subscribableTables[t] {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown table: " + t})
				return
			}
			tables = append(tables, t)
		}
	}

	projectID := currentProjectID(c)
	sub := h.hub.Subscribe(c.Request.Context(), tables...)
	defer sub.Close()

	h.logger.Info("Realtime stream opened",
		zap.Int64("project_id", projectID),
		zap.Strings("tables", tables),
	)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		event, ok := <-sub.Events()
		if !ok {
			return false
		}
		// events are global per table; only forward this project's
		if event.ProjectID != projectID {
			return true
		}
		c.SSEvent("change", event)
		return true
	})

	h.logger.Info("Realtime stream closed", zap.Int64("project_id", projectID))
}
