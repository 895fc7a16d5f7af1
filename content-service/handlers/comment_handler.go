package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pressgrid-backend/shared/database/models"
	"pressgrid-backend/shared/utils/authz"
	"pressgrid-backend/shared/utils/cache"
	"pressgrid-backend/shared/utils/query"
)

// Comment moderation is gated on post:edit of the parent post, so a WRITER
// moderates discussion on their own posts only.
type CommentHandler struct {
	db          *gorm.DB
	engine      *authz.Engine
	invalidator *cache.Invalidator
}

func NewCommentHandler(db *gorm.DB, engine *authz.Engine, invalidator *cache.Invalidator) *CommentHandler {
	return &CommentHandler{
		db:          db,
		engine:      engine,
		invalidator: invalidator,
	}
}

// GetPostComments lists the comments on one post
// @Summary List comments
// @Tags comments
// @Produce json
// @Param id path string true "Post ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Post not found"
// @Router /posts/{id}/comments [get]
func (h *CommentHandler) GetPostComments(c *gin.Context) {
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
		Select("id").
		Where("id = ?", postID).
		First(&post).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var comments []models.Comment
	if err := h.db.Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": comments})
}

// HideComment hides a comment from the public view
// @Summary Hide comment
// @Tags comments
// @Produce json
// @Param id path string true "Comment ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Comment not found"
// @Router /comments/{id}/hide [put]
func (h *CommentHandler) HideComment(c *gin.Context) {
	userID, _, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var comment models.Comment
	if err := h.db.Where("id = ?", commentID).First(&comment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionPostEdit, comment.PostID) {
		return
	}

	if err := h.db.Model(&comment).Update("status", "HIDDEN").Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hide comment"})
		return
	}

	if err := h.invalidator.CommentChanged(c.Request.Context(), comment.PostID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Comment hidden but cache invalidation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment hidden"})
}

// DeleteComment removes a comment
// @Summary Delete comment
// @Tags comments
// @Produce json
// @Param id path string true "Comment ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Comment not found"
// @Router /comments/{id} [delete]
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, _, ok := requireActor(h.db, c)
	if !ok {
		return
	}

	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var comment models.Comment
	if err := h.db.Where("id = ?", commentID).First(&comment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if !requireAuthorization(c, h.engine, userID, authz.ActionPostEdit, comment.PostID) {
		return
	}

	if err := h.db.Delete(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	if err := h.invalidator.CommentChanged(c.Request.Context(), comment.PostID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Comment deleted but cache invalidation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment deleted"})
}
