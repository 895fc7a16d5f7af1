package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"pressgrid-backend/shared/database/models"
	"pressgrid-backend/shared/utils/cache"
	"pressgrid-backend/shared/utils/metering"
	"pressgrid-backend/shared/utils/query"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostHandler serves public, read-only post endpoints. Hot reads
// (single post, featured posts, comments) go through the Redis cache;
// the paginated listing is served from the database directly.
type PostHandler struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewPostHandler(db *gorm.DB, cacheManager *cache.CacheManager) *PostHandler {
	return &PostHandler{
		db:    db,
		cache: cacheManager,
	}
}

// PublicPost is the published-post shape exposed on the public API.
type PublicPost struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body,omitempty"`
	Excerpt     string     `json:"excerpt"`
	Featured    bool       `json:"featured"`
	CoverImage  string     `json:"cover_image,omitempty"`
	Category    *string    `json:"category,omitempty"`
	PublishedAt *time.Time `json:"published_at"`
}

// PublicComment is the visible-comment shape exposed on the public API.
type PublicComment struct {
	ID         uuid.UUID `json:"id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

func toPublicPost(post *models.Post, includeBody bool) PublicPost {
	pub := PublicPost{
		ID:          post.ID,
		Title:       post.Title,
		Slug:        post.Slug,
		Excerpt:     post.Excerpt,
		Featured:    post.Featured,
		CoverImage:  post.CoverImage,
		PublishedAt: post.PublishedAt,
	}
	if includeBody {
		pub.Body = post.Body
	}
	if post.Category != nil {
		pub.Category = &post.Category.Slug
	}
	return pub
}

// GetPosts godoc
// @Summary List published posts
// @Description Paginated list of the organization's published posts
// @Tags public
// @Produce json
// @Security APIKeyAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param category query string false "Filter by category slug"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /v1/posts [get]
func (h *PostHandler) GetPosts(c *gin.Context) {
	org, ok := metering.OrgFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}

	params := query.ParseListParams(c)

	dbQuery := query.ScopeToOrganization(h.db.Model(&models.Post{}), org.ID).
		Where("status = ?", "PUBLISHED")

	if categorySlug := c.Query("category"); categorySlug != "" {
		categoryIDs := h.db.Model(&models.Category{}).
			Select("id").
			Where("organization_id = ? AND slug = ?", org.ID, categorySlug)
		dbQuery = dbQuery.Where("category_id IN (?)", categoryIDs)
	}

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		log.Printf("❌ Failed to count posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	var posts []models.Post
	dbQuery = dbQuery.Preload("Category").Order("published_at DESC")
	dbQuery = query.ApplyPagination(dbQuery, params.Page, params.Limit)
	if err := dbQuery.Find(&posts).Error; err != nil {
		log.Printf("❌ Failed to fetch posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	data := make([]PublicPost, 0, len(posts))
	for i := range posts {
		data = append(data, toPublicPost(&posts[i], false))
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       data,
		"pagination": query.BuildPaginationResponse(params.Page, params.Limit, total),
	})
}

// GetFeaturedPosts godoc
// @Summary List featured posts
// @Description Featured published posts, served read-through from cache
// @Tags public
// @Produce json
// @Security APIKeyAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /v1/posts/featured [get]
func (h *PostHandler) GetFeaturedPosts(c *gin.Context) {
	org, ok := metering.OrgFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}

	cacheKey := cache.FeaturedPostsKey(org.ID)

	var data []PublicPost
	if h.cache.GetJSON(c.Request.Context(), cacheKey, &data) {
		c.JSON(http.StatusOK, gin.H{"data": data})
		return
	}

	var posts []models.Post
	err := query.ScopeToOrganization(h.db.Model(&models.Post{}), org.ID).
		Where("status = ? AND featured = ?", "PUBLISHED", true).
		Preload("Category").
		Order("published_at DESC").
		Limit(20).
		Find(&posts).Error
	if err != nil {
		log.Printf("❌ Failed to fetch featured posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	data = make([]PublicPost, 0, len(posts))
	for i := range posts {
		data = append(data, toPublicPost(&posts[i], false))
	}

	if err := h.cache.SetJSON(c.Request.Context(), cacheKey, data, cache.DefaultTTL); err != nil {
		log.Printf("⚠️ Failed to cache featured posts: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// GetPost godoc
// @Summary Get a published post by slug
// @Description Single published post, served read-through from cache
// @Tags public
// @Produce json
// @Security APIKeyAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /v1/posts/{slug} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	org, ok := metering.OrgFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}

	slug := c.Param("slug")
	cacheKey := cache.PostKey(org.ID, slug)

	var data PublicPost
	if h.cache.GetJSON(c.Request.Context(), cacheKey, &data) {
		c.JSON(http.StatusOK, gin.H{"data": data})
		return
	}

	post, err := h.lookupPublishedPost(c, org.ID, slug)
	if err != nil {
		return
	}

	data = toPublicPost(post, true)
	if err := h.cache.SetJSON(c.Request.Context(), cacheKey, data, cache.DefaultTTL); err != nil {
		log.Printf("⚠️ Failed to cache post %s: %v", slug, err)
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// GetPostComments godoc
// @Summary List visible comments on a post
// @Description Visible comments on a published post, served read-through from cache
// @Tags public
// @Produce json
// @Security APIKeyAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /v1/posts/{slug}/comments [get]
func (h *PostHandler) GetPostComments(c *gin.Context) {
	org, ok := metering.OrgFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}

	post, err := h.lookupPublishedPost(c, org.ID, c.Param("slug"))
	if err != nil {
		return
	}

	cacheKey := cache.PostCommentsKey(post.ID)

	var data []PublicComment
	if h.cache.GetJSON(c.Request.Context(), cacheKey, &data) {
		c.JSON(http.StatusOK, gin.H{"data": data})
		return
	}

	var comments []models.Comment
	err = h.db.Where("post_id = ? AND status = ?", post.ID, "VISIBLE").
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		log.Printf("❌ Failed to fetch comments for post %s: %v", post.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	data = make([]PublicComment, 0, len(comments))
	for _, comment := range comments {
		data = append(data, PublicComment{
			ID:         comment.ID,
			AuthorName: comment.AuthorName,
			Body:       comment.Body,
			CreatedAt:  comment.CreatedAt,
		})
	}

	if err := h.cache.SetJSON(c.Request.Context(), cacheKey, data, cache.DefaultTTL); err != nil {
		log.Printf("⚠️ Failed to cache comments for post %s: %v", post.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// lookupPublishedPost loads a published post by slug within the
// organization, writing the error response itself on failure.
func (h *PostHandler) lookupPublishedPost(c *gin.Context, orgID uuid.UUID, slug string) (*models.Post, error) {
	var post models.Post
	err := query.ScopeToOrganization(h.db, orgID).
		Preload("Category").
		Where("slug = ? AND status = ?", slug, "PUBLISHED").
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		} else {
			log.Printf("❌ Failed to fetch post %s: %v", slug, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		}
		return nil, err
	}
	return &post, nil
}
