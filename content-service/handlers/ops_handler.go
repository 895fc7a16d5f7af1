package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pressgrid-backend/content-service/services"
	"pressgrid-backend/shared/utils/authz"
)

type OpsHandler struct {
	db     *gorm.DB
	engine *authz.Engine
	hub    *services.AlertHub
}

func NewOpsHandler(db *gorm.DB, engine *authz.Engine, hub *services.AlertHub) *OpsHandler {
	return &OpsHandler{
		db:     db,
		engine: engine,
		hub:    hub,
	}
}

// StreamAlerts upgrades to a WebSocket that streams the organization's
// quota alerts. Admin only.
// @Summary Stream quota alerts
// @Tags ops
// @Security BearerAuth
// @Success 101 {string} string "Switching protocols"
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /ops/alerts [get]
func (h *OpsHandler) StreamAlerts(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionOrgEditSettings, orgID) {
		return
	}

	h.hub.HandleConnection(c.Writer, c.Request, orgID)
}
