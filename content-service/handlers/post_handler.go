package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"pressgrid-backend/shared/database/models"
	utils "pressgrid-backend/shared/utils/auth"
	"pressgrid-backend/shared/utils/authz"
	"pressgrid-backend/shared/utils/cache"
	"pressgrid-backend/shared/utils/query"
)

type PostHandler struct {
	db          *gorm.DB
	engine      *authz.Engine
	invalidator *cache.Invalidator
}

func NewPostHandler(db *gorm.DB, engine *authz.Engine, invalidator *cache.Invalidator) *PostHandler {
	return &PostHandler{
		db:          db,
		engine:      engine,
		invalidator: invalidator,
	}
}

// CreatePostRequest represents request body for creating a post.
// The owning organization is derived from the actor, never from the body.
type CreatePostRequest struct {
	Title      string     `json:"title" binding:"required"`
	Slug       string     `json:"slug" binding:"required"`
	Body       string     `json:"body"`
	Excerpt    string     `json:"excerpt"`
	Status     string     `json:"status"`
	Featured   bool       `json:"featured"`
	CategoryID *uuid.UUID `json:"category_id"`
}

// UpdatePostRequest represents request body for updating a post
type UpdatePostRequest struct {
	Title      *string    `json:"title"`
	Slug       *string    `json:"slug"`
	Body       *string    `json:"body"`
	Excerpt    *string    `json:"excerpt"`
	Status     *string    `json:"status"`
	Featured   *bool      `json:"featured"`
	CategoryID *uuid.UUID `json:"category_id"`
}

// categoryInOrganization reports whether the category exists inside the
// given organization. Category references never cross tenants.
func categoryInOrganization(db *gorm.DB, categoryID, organizationID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.Category{}).
		Where("id = ? AND organization_id = ?", categoryID, organizationID).
		Count(&count).Error
	return count > 0, err
}

// requireCategoryInOrganization validates a category reference from a
// request body, writing the HTTP response on failure
func requireCategoryInOrganization(c *gin.Context, db *gorm.DB, categoryID, organizationID uuid.UUID) bool {
	ok, err := categoryInOrganization(db, categoryID, organizationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate category"})
		return false
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found in your organization"})
		return false
	}
	return true
}

// GetPosts retrieves the actor's organization posts with pagination and filtering
// @Summary List posts
// @Description List posts of the caller's organization with pagination, filtering and search
// @Tags posts
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Items per page (default: 10)"
// @Param search query string false "Search term across title and slug"
// @Param filters[status] query string false "Filter by status (DRAFT, PUBLISHED, ARCHIVED)"
// @Param filters[author_id] query string false "Filter by author"
// @Param filters[category_id] query string false "Filter by category"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /posts [get]
func (h *PostHandler) GetPosts(c *gin.Context) {
	_, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	params := query.ParseListParams(c)

	allowedFilters := map[string]string{
		"status":      "status",
		"author_id":   "author_id",
		"category_id": "category_id",
		"featured":    "featured",
	}
	allowedSortFields := map[string]string{
		"title":        "title",
		"slug":         "slug",
		"status":       "status",
		"published_at": "published_at",
		"created_at":   "created_at",
		"updated_at":   "updated_at",
	}
	searchFields := []string{"title", "slug"}

	dbQuery := query.ScopeToOrganization(h.db.Model(&models.Post{}), orgID)
	dbQuery = query.ApplyFilters(dbQuery, params.Filters, allowedFilters)
	dbQuery = query.ApplySearch(dbQuery, params.Search, searchFields)
	dbQuery = query.ApplySort(dbQuery, params.Sort, allowedSortFields)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count posts"})
		return
	}

	var posts []models.Post
	if err := query.ApplyPagination(dbQuery, params.Page, params.Limit).
		Preload("Category").
		Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items":      posts,
			"pagination": query.BuildPaginationResponse(params.Page, params.Limit, total),
		},
	})
}

// GetPost retrieves a single post by id
// @Summary Get post
// @Description Get one post of the caller's organization
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Post not found"
// @Router /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	_, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var post models.Post
	err := query.ScopeToOrganization(h.db, orgID).
		Preload("Category").
		Where("id = ?", postID).
		First(&post).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": post})
}

// CreatePost creates a new post in the actor's organization
// @Summary Create post
// @Description Create a post; the owning organization is the caller's
// @Tags posts
// @Accept json
// @Produce json
// @Param post body CreatePostRequest true "Post data"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Validation failure"
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, orgID, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateSlug(req.Slug); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionPostCreate, orgID) {
		return
	}

	if req.CategoryID != nil && !requireCategoryInOrganization(c, h.db, *req.CategoryID, orgID) {
		return
	}

	status := req.Status
	if status == "" {
		status = "DRAFT"
	}

	post := models.Post{
		OrganizationID: orgID,
		AuthorID:       userID,
		Title:          req.Title,
		Slug:           req.Slug,
		Body:           req.Body,
		Excerpt:        req.Excerpt,
		Status:         status,
		Featured:       req.Featured,
		CategoryID:     req.CategoryID,
	}

	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	// Invalidate before responding so the writer's next read is fresh.
	if err := h.invalidator.PostChanged(c.Request.Context(), orgID, post.Slug); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Post created but cache invalidation failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": post})
}

// UpdatePost updates an existing post
// @Summary Update post
// @Description Update a post; WRITER role may only update own posts
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param post body UpdatePostRequest true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Post not found"
// @Router /posts/{id} [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID, _, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionPostEdit, postID) {
		return
	}

	var post models.Post
	if err := h.db.Where("id = ?", postID).First(&post).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	oldSlug := post.Slug

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Slug != nil {
		if err := utils.ValidateSlug(*req.Slug); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		post.Slug = *req.Slug
	}
	if req.Body != nil {
		post.Body = *req.Body
	}
	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}
	if req.Status != nil {
		post.Status = *req.Status
	}
	if req.Featured != nil {
		post.Featured = *req.Featured
	}
	if req.CategoryID != nil {
		if !requireCategoryInOrganization(c, h.db, *req.CategoryID, post.OrganizationID) {
			return
		}
		post.CategoryID = req.CategoryID
	}

	if err := h.db.Save(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	var invErr error
	if oldSlug != post.Slug {
		invErr = h.invalidator.PostSlugChanged(c.Request.Context(), post.OrganizationID, oldSlug, post.Slug)
	} else {
		invErr = h.invalidator.PostChanged(c.Request.Context(), post.OrganizationID, post.Slug)
	}
	if invErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Post updated but cache invalidation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": post})
}

// DeletePost deletes a post and its comments
// @Summary Delete post
// @Description Delete a post; WRITER role may only delete own posts
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Post not found"
// @Router /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, _, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionPostDelete, postID) {
		return
	}

	var post models.Post
	if err := h.db.Where("id = ?", postID).First(&post).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	if err := h.invalidator.PostChanged(c.Request.Context(), post.OrganizationID, post.Slug); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Post deleted but cache invalidation failed"})
		return
	}
	if err := h.invalidator.CommentChanged(c.Request.Context(), postID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Post deleted but cache invalidation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post deleted"})
}
