package handlers

import (
	"errors"
	"log"
	"net/http"

	"pressgrid-backend/shared/database/models"
	"pressgrid-backend/shared/utils/cache"
	"pressgrid-backend/shared/utils/metering"
	"pressgrid-backend/shared/utils/query"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryHandler serves public, read-only category endpoints.
type CategoryHandler struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewCategoryHandler(db *gorm.DB, cacheManager *cache.CacheManager) *CategoryHandler {
	return &CategoryHandler{
		db:    db,
		cache: cacheManager,
	}
}

// PublicCategory is the category shape exposed on the public API.
type PublicCategory struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
}

func toPublicCategory(category *models.Category) PublicCategory {
	return PublicCategory{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
	}
}

// GetCategories godoc
// @Summary List categories
// @Description All categories of the organization, served read-through from cache
// @Tags public
// @Produce json
// @Security APIKeyAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /v1/categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	org, ok := metering.OrgFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}

	cacheKey := cache.CategoriesKey(org.ID)

	var data []PublicCategory
	if h.cache.GetJSON(c.Request.Context(), cacheKey, &data) {
		c.JSON(http.StatusOK, gin.H{"data": data})
		return
	}

	var categories []models.Category
	err := query.ScopeToOrganization(h.db, org.ID).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		log.Printf("❌ Failed to fetch categories: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	data = make([]PublicCategory, 0, len(categories))
	for i := range categories {
		data = append(data, toPublicCategory(&categories[i]))
	}

	if err := h.cache.SetJSON(c.Request.Context(), cacheKey, data, cache.DefaultTTL); err != nil {
		log.Printf("⚠️ Failed to cache categories: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// GetCategory godoc
// @Summary Get a category by slug
// @Description Single category, served read-through from cache
// @Tags public
// @Produce json
// @Security APIKeyAuth
// @Param slug path string true "Category slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /v1/categories/{slug} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	org, ok := metering.OrgFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}

	slug := c.Param("slug")
	cacheKey := cache.CategoryKey(org.ID, slug)

	var data PublicCategory
	if h.cache.GetJSON(c.Request.Context(), cacheKey, &data) {
		c.JSON(http.StatusOK, gin.H{"data": data})
		return
	}

	var category models.Category
	err := query.ScopeToOrganization(h.db, org.ID).
		Where("slug = ?", slug).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		log.Printf("❌ Failed to fetch category %s: %v", slug, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch category"})
		return
	}

	data = toPublicCategory(&category)
	if err := h.cache.SetJSON(c.Request.Context(), cacheKey, data, cache.DefaultTTL); err != nil {
		log.Printf("⚠️ Failed to cache category %s: %v", slug, err)
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}
