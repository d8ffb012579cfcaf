package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulane/lms-api/internal/service"
	appErrors "github.com/edulane/lms-api/pkg/errors"
	"github.com/edulane/lms-api/pkg/response"
)

// ForumHandler exposes course discussion endpoints.
type ForumHandler struct {
	forums *service.ForumService
}

// NewForumHandler constructs handler.
func NewForumHandler(forums *service.ForumService) *ForumHandler {
	return &ForumHandler{forums: forums}
}

// CreatePost godoc
// @Summary Open a discussion post in a course
// @Tags Forum
// @Accept json
// @Produce json
// @Param id path string true "Course id"
// @Param payload body service.CreatePostRequest true "Post payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/forum [post]
func (h *ForumHandler) CreatePost(c *gin.Context) {
	var req service.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	post, err := h.forums.CreatePost(c.Request.Context(), c.Param("id"), userInfoFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// ListPosts godoc
// @Summary List a course's discussion posts
// @Tags Forum
// @Produce json
// @Param id path string true "Course id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/forum [get]
func (h *ForumHandler) ListPosts(c *gin.Context) {
	posts, err := h.forums.ListPosts(c.Request.Context(), c.Param("id"), userInfoFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// Reply godoc
// @Summary Reply to a discussion post
// @Tags Forum
// @Accept json
// @Produce json
// @Param postId path string true "Post id"
// @Param payload body service.CreateReplyRequest true "Reply payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /forum/{postId}/replies [post]
func (h *ForumHandler) Reply(c *gin.Context) {
	var req service.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reply, err := h.forums.Reply(c.Request.Context(), c.Param("postId"), userInfoFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reply)
}

// Thread godoc
// @Summary Fetch a post with its replies
// @Tags Forum
// @Produce json
// @Param postId path string true "Post id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /forum/{postId} [get]
func (h *ForumHandler) Thread(c *gin.Context) {
	post, replies, err := h.forums.Thread(c.Request.Context(), c.Param("postId"), userInfoFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"post": post, "replies": replies}, nil)
}
