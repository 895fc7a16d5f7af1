package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pressgrid-backend/shared/database/models"
	utils "pressgrid-backend/shared/utils/auth"
	"pressgrid-backend/shared/utils/authz"
)

type MemberHandler struct {
	db     *gorm.DB
	engine *authz.Engine
}

func NewMemberHandler(db *gorm.DB, engine *authz.Engine) *MemberHandler {
	return &MemberHandler{db: db, engine: engine}
}

// CreateMemberRequest represents request body for adding a member
type CreateMemberRequest struct {
	Email     string      `json:"email" binding:"required,email"`
	Password  string      `json:"password" binding:"required,min=8"`
	FirstName string      `json:"first_name" binding:"required"`
	LastName  string      `json:"last_name" binding:"required"`
	Role      models.Role `json:"role" binding:"required"`
}

// UpdateMemberRoleRequest represents request body for a role change
type UpdateMemberRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// GetMembers lists the members of the actor's organization
// @Summary List members
// @Tags members
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /members [get]
func (h *MemberHandler) GetMembers(c *gin.Context) {
	_, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	var members []models.User
	err := h.db.Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": members})
}

// CreateMember adds a user to the actor's organization
// @Summary Add member
// @Tags members
// @Accept json
// @Produce json
// @Param member body CreateMemberRequest true "Member data"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /members [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.Role.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionOrgManageMembers, orgID) {
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	member := models.User{
		Email:          req.Email,
		Password:       hashedPassword,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Status:         "ACTIVE",
		OrganizationID: &orgID,
		Role:           req.Role,
	}

	if err := h.db.Create(&member).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create member"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": member})
}

// UpdateMemberRole changes a member's role. Admins cannot change their
// own role, which prevents self-lockout.
// @Summary Change member role
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param role body UpdateMemberRoleRequest true "New role"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Member not found"
// @Router /members/{id}/role [put]
func (h *MemberHandler) UpdateMemberRole(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionOrgManageMembers, orgID) {
		return
	}

	if memberID == userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot change your own role"})
		return
	}

	var member models.User
	err := h.db.Where("id = ? AND organization_id = ?", memberID, orgID).First(&member).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	if err := h.db.Model(&member).Update("role", req.Role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	member.Role = req.Role
	c.JSON(http.StatusOK, gin.H{"success": true, "data": member})
}

// RemoveMember detaches a member from the organization. Admins cannot
// remove themselves.
// @Summary Remove member
// @Tags members
// @Produce json
// @Param id path string true "Member ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Member not found"
// @Router /members/{id} [delete]
func (h *MemberHandler) RemoveMember(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionOrgManageMembers, orgID) {
		return
	}

	if memberID == userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot remove yourself from the organization"})
		return
	}

	var member models.User
	err := h.db.Where("id = ? AND organization_id = ?", memberID, orgID).First(&member).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	updates := map[string]interface{}{
		"organization_id": nil,
		"status":          "INACTIVE",
	}
	if err := h.db.Model(&member).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Member removed"})
}
