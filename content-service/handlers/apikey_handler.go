package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pressgrid-backend/shared/database/models"
	"pressgrid-backend/shared/utils/apikey"
	"pressgrid-backend/shared/utils/authz"
)

type APIKeyHandler struct {
	db     *gorm.DB
	engine *authz.Engine
	keys   *apikey.Store
}

func NewAPIKeyHandler(db *gorm.DB, engine *authz.Engine, keys *apikey.Store) *APIKeyHandler {
	return &APIKeyHandler{
		db:     db,
		engine: engine,
		keys:   keys,
	}
}

// maskKey shows only the recognizable prefix and the last four characters
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:6] + "..." + key[len(key)-4:]
}

// GetAPIKey shows the organization's current key, masked
// @Summary Show API key
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /organization/api-key [get]
func (h *APIKeyHandler) GetAPIKey(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionOrgEditSettings, orgID) {
		return
	}

	var org models.Organization
	if err := h.db.Select("api_key").Where("id = ?", orgID).Take(&org).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"api_key": maskKey(org.APIKey)},
	})
}

// RotateAPIKey replaces the key and returns the new secret once. The old
// key stops authenticating before this responds.
// @Summary Rotate API key
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /organization/api-key/rotate [post]
func (h *APIKeyHandler) RotateAPIKey(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionOrgEditSettings, orgID) {
		return
	}

	newKey, err := h.keys.Rotate(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rotate API key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"api_key": newKey},
		"message": "Store this key now; it will not be shown again",
	})
}

// RevokeAPIKey retires the current key without issuing a usable
// replacement. Rotate later to get a new one.
// @Summary Revoke API key
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /organization/api-key [delete]
func (h *APIKeyHandler) RevokeAPIKey(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionOrgEditSettings, orgID) {
		return
	}

	if err := h.keys.Revoke(c.Request.Context(), orgID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke API key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "API key revoked; rotate to issue a new one",
	})
}
