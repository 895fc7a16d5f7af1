package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"pressgrid-backend/content-service/middleware"
	"pressgrid-backend/shared/database/models"
	"pressgrid-backend/shared/utils/authz"
)

// requireActor reads the authenticated user id and their current
// organization. Membership comes from the store, not the token, so a
// revoked membership takes effect immediately.
func requireActor(db *gorm.DB, c *gin.Context) (userID, organizationID uuid.UUID, ok bool) {
	userID, found := middleware.UserIDFromContext(c)
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}

	var user models.User
	if err := db.Select("organization_id").Where("id = ? AND status = ?", userID, "ACTIVE").Take(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}
	if user.OrganizationID == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "User does not belong to an organization"})
		return uuid.Nil, uuid.Nil, false
	}

	return userID, *user.OrganizationID, true
}

// requireAuthorization runs the engine and writes the HTTP mapping:
// NotFound → 404, deny → 403 with the reason, infrastructure error → 500.
// Returns true only when the caller may proceed with the mutation.
func requireAuthorization(c *gin.Context, engine *authz.Engine, userID uuid.UUID, action authz.Action, resourceID uuid.UUID) bool {
	decision, err := engine.Authorize(c.Request.Context(), userID, action, resourceID)
	if err != nil {
		if errors.Is(err, authz.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
		}
		return false
	}

	if !decision.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": decision.Reason})
		return false
	}

	return true
}

// parseIDParam parses a uuid path parameter, answering 400 on garbage
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
