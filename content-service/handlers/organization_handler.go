package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pressgrid-backend/shared/database/models"
	utils "pressgrid-backend/shared/utils/auth"
	"pressgrid-backend/shared/utils/authz"
	"pressgrid-backend/shared/utils/cache"
	"pressgrid-backend/shared/utils/metering"
)

type OrganizationHandler struct {
	db          *gorm.DB
	engine      *authz.Engine
	invalidator *cache.Invalidator
	usage       metering.UsageStore
	softPercent int
}

func NewOrganizationHandler(db *gorm.DB, engine *authz.Engine, invalidator *cache.Invalidator, usage metering.UsageStore, softPercent int) *OrganizationHandler {
	return &OrganizationHandler{
		db:          db,
		engine:      engine,
		invalidator: invalidator,
		usage:       usage,
		softPercent: softPercent,
	}
}

// UpdateOrganizationRequest represents request body for updating settings
type UpdateOrganizationRequest struct {
	Name               *string      `json:"name"`
	Slug               *string      `json:"slug"`
	Plan               *models.Plan `json:"plan"`
	CustomRequestLimit *int64       `json:"custom_request_limit"`
}

// UsageResponse summarizes the current metering period
type UsageResponse struct {
	PeriodStart time.Time   `json:"period_start"`
	Used        int64       `json:"used"`
	HardLimit   int64       `json:"hard_limit"`
	SoftLimit   int64       `json:"soft_limit"`
	Plan        models.Plan `json:"plan"`
}

// GetOrganization returns the actor's organization
// @Summary Get organization
// @Tags organization
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /organization [get]
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	_, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	var org models.Organization
	if err := h.db.Where("id = ?", orgID).First(&org).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": org})
}

// GetUsage returns the organization's current period usage against its plan
// @Summary Get usage
// @Tags organization
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.UsageResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /organization/usage [get]
func (h *OrganizationHandler) GetUsage(c *gin.Context) {
	_, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	var org models.Organization
	if err := h.db.Where("id = ?", orgID).First(&org).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return
	}

	used, err := h.usage.CurrentCount(c.Request.Context(), org.ID, org.UsagePeriodStart)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read usage"})
		return
	}

	hardLimit := metering.HardLimitFor(org.Plan, org.CustomRequestLimit)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": UsageResponse{
			PeriodStart: org.UsagePeriodStart,
			Used:        used,
			HardLimit:   hardLimit,
			SoftLimit:   metering.SoftLimitFor(hardLimit, h.softPercent),
			Plan:        org.Plan,
		},
	})
}

// UpdateOrganization changes organization settings
// @Summary Update organization
// @Tags organization
// @Accept json
// @Produce json
// @Param organization body UpdateOrganizationRequest true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /organization [put]
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	var req UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Plan != nil && !req.Plan.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan"})
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionOrgEditSettings, orgID) {
		return
	}

	var org models.Organization
	if err := h.db.Where("id = ?", orgID).First(&org).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return
	}

	planChanged := false

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.Slug != nil {
		if err := utils.ValidateSlug(*req.Slug); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		org.Slug = *req.Slug
	}
	if req.Plan != nil && *req.Plan != org.Plan {
		org.Plan = *req.Plan
		planChanged = true
	}
	if req.CustomRequestLimit != nil {
		org.CustomRequestLimit = *req.CustomRequestLimit
		planChanged = true
	}

	if err := h.db.Save(&org).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update organization"})
		return
	}

	// Plan limits live in the API key snapshot; drop it so the gateway
	// picks up the new tier ahead of the TTL.
	if planChanged {
		if err := h.invalidator.APIKeyRevoked(c.Request.Context(), org.APIKey); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Organization updated but cache invalidation failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": org})
}
