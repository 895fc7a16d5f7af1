package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pressgrid-backend/shared/database/models"
	utils "pressgrid-backend/shared/utils/auth"
	"pressgrid-backend/shared/utils/authz"
	"pressgrid-backend/shared/utils/cache"
	"pressgrid-backend/shared/utils/query"
)

// Categories are part of the organization's content structure; mutating
// them is gated on org:edit_settings (ORG_ADMIN).
type CategoryHandler struct {
	db          *gorm.DB
	engine      *authz.Engine
	invalidator *cache.Invalidator
}

func NewCategoryHandler(db *gorm.DB, engine *authz.Engine, invalidator *cache.Invalidator) *CategoryHandler {
	return &CategoryHandler{
		db:          db,
		engine:      engine,
		invalidator: invalidator,
	}
}

// CreateCategoryRequest represents request body for creating a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
}

// UpdateCategoryRequest represents request body for updating a category
type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

// GetCategories lists the actor's organization categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	_, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	var categories []models.Category
	err := query.ScopeToOrganization(h.db.Model(&models.Category{}), orgID).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": categories})
}

// CreateCategory creates a category in the actor's organization
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body CreateCategoryRequest true "Category data"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateSlug(req.Slug); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionOrgEditSettings, orgID) {
		return
	}

	category := models.Category{
		OrganizationID: orgID,
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
	}

	if err := h.db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	if err := h.invalidator.CategoryChanged(c.Request.Context(), orgID, category.Slug); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Category created but cache invalidation failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": category})
}

// UpdateCategory renames or re-describes a category
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param category body UpdateCategoryRequest true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionOrgEditSettings, orgID) {
		return
	}

	var category models.Category
	err := query.ScopeToOrganization(h.db, orgID).
		Where("id = ?", categoryID).
		First(&category).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	oldSlug := category.Slug

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Slug != nil {
		if err := utils.ValidateSlug(*req.Slug); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		category.Slug = *req.Slug
	}
	if req.Description != nil {
		category.Description = *req.Description
	}

	if err := h.db.Save(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	// Old and new slug entries both go; the list key goes with either.
	if err := h.invalidator.CategoryChanged(c.Request.Context(), orgID, oldSlug); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Category updated but cache invalidation failed"})
		return
	}
	if oldSlug != category.Slug {
		if err := h.invalidator.CategoryChanged(c.Request.Context(), orgID, category.Slug); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Category updated but cache invalidation failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": category})
}

// DeleteCategory removes a category and detaches its posts
// @Summary Delete category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionOrgEditSettings, orgID) {
		return
	}

	var category models.Category
	err := query.ScopeToOrganization(h.db, orgID).
		Where("id = ?", categoryID).
		First(&category).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("category_id = ?", categoryID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	if err := h.invalidator.CategoryChanged(c.Request.Context(), orgID, category.Slug); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Category deleted but cache invalidation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted"})
}
