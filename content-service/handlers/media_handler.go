package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pressgrid-backend/content-service/services"
	"pressgrid-backend/shared/config"
	"pressgrid-backend/shared/database/models"
	"pressgrid-backend/shared/utils/authz"
	"pressgrid-backend/shared/utils/cache"
)

// Cover image uploads ride on post:edit: whoever may edit the post may
// change its cover.
type MediaHandler struct {
	db          *gorm.DB
	engine      *authz.Engine
	invalidator *cache.Invalidator
	media       *services.MediaService
}

func NewMediaHandler(db *gorm.DB, engine *authz.Engine, invalidator *cache.Invalidator, media *services.MediaService) *MediaHandler {
	return &MediaHandler{
		db:          db,
		engine:      engine,
		invalidator: invalidator,
		media:       media,
	}
}

// UploadCover attaches a cover image to a post
// @Summary Upload post cover image
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Post ID"
// @Param file formData file true "Image file"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid file"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Post not found"
// @Router /posts/{id}/cover [post]
func (h *MediaHandler) UploadCover(c *gin.Context) {
	userID, _, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionPostEdit, postID) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	if !services.AllowedMediaType(fileHeader.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
		return
	}

	if fileHeader.Size > config.GetConfig().GetMediaMaxFileSizeBytes() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the maximum upload size"})
		return
	}

	var post models.Post
	if err := h.db.Where("id = ?", postID).First(&post).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()

	coverURL, err := h.media.UploadCoverImage(
		c.Request.Context(),
		post.OrganizationID,
		post.ID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
		fileHeader.Size,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store cover image"})
		return
	}

	if err := h.db.Model(&post).Update("cover_image", coverURL).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	if err := h.invalidator.PostChanged(c.Request.Context(), post.OrganizationID, post.Slug); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cover stored but cache invalidation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"cover_image": coverURL}})
}

// DeleteCover removes a post's cover image
// @Summary Delete post cover image
// @Tags media
// @Produce json
// @Param id path string true "Post ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Post not found"
// @Router /posts/{id}/cover [delete]
func (h *MediaHandler) DeleteCover(c *gin.Context) {
	userID, _, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	postID, ok := parseIDParam(c, "id")
	if !ok {
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

	if err := h.media.DeleteCoverImages(c.Request.Context(), post.OrganizationID, post.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete cover image"})
		return
	}

	if err := h.db.Model(&post).Update("cover_image", "").Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	if err := h.invalidator.PostChanged(c.Request.Context(), post.OrganizationID, post.Slug); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cover deleted but cache invalidation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cover image removed"})
}
