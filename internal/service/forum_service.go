package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

type forumRepo interface {
	CreatePost(ctx context.Context, post *models.ForumPost) error
	FindPostByID(ctx context.Context, id string) (*models.ForumPost, error)
	ListPostsByCourse(ctx context.Context, courseID string) ([]models.ForumPost, error)
	CreateReply(ctx context.Context, reply *models.ForumReply) error
	ListRepliesByPost(ctx context.Context, postID string) ([]models.ForumReply, error)
}

type forumCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreatePostRequest starts a new course discussion.
type CreatePostRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// CreateReplyRequest answers an existing post.
type CreateReplyRequest struct {
	Content string `json:"content" validate:"required"`
}

// ForumService orchestrates course discussions. Participation requires
// course access: enrollment for students, ownership for facilitators.
type ForumService struct {
	forum       forumRepo
	courses     forumCourseReader
	enrollments enrollmentChecker
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewForumService constructs ForumService.
func NewForumService(forum forumRepo, courses forumCourseReader, enrollments enrollmentChecker, validate *validator.Validate, logger *zap.Logger) *ForumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForumService{forum: forum, courses: courses, enrollments: enrollments, validator: validate, logger: logger}
}

func (s *ForumService) requireCourseAccess(ctx context.Context, courseID string, requester models.UserInfo) error {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	switch requester.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleFacilitator:
		if course.FacilitatorID != requester.ID {
			return appErrors.ErrForbidden
		}
		return nil
	default:
		enrolled, err := s.enrollments.IsEnrolled(ctx, courseID, requester.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if !enrolled {
			return appErrors.ErrNotEnrolled
		}
		return nil
	}
}

// CreatePost starts a discussion in a course the requester can access.
func (s *ForumService) CreatePost(ctx context.Context, courseID string, requester models.UserInfo, req CreatePostRequest) (*models.ForumPost, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.requireCourseAccess(ctx, courseID, requester); err != nil {
		return nil, err
	}
	post := &models.ForumPost{
		CourseID: courseID,
		AuthorID: requester.ID,
		Title:    req.Title,
		Content:  req.Content,
	}
	if err := s.forum.CreatePost(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}
	post.AuthorName = requester.FullName
	return post, nil
}

// ListPosts returns a course's discussions.
func (s *ForumService) ListPosts(ctx context.Context, courseID string, requester models.UserInfo) ([]models.ForumPost, error) {
	if err := s.requireCourseAccess(ctx, courseID, requester); err != nil {
		return nil, err
	}
	posts, err := s.forum.ListPostsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	return posts, nil
}

// Reply answers a post in a course the requester can access.
func (s *ForumService) Reply(ctx context.Context, postID string, requester models.UserInfo, req CreateReplyRequest) (*models.ForumReply, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	post, err := s.forum.FindPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	if err := s.requireCourseAccess(ctx, post.CourseID, requester); err != nil {
		return nil, err
	}
	reply := &models.ForumReply{
		PostID:   postID,
		AuthorID: requester.ID,
		Content:  req.Content,
	}
	if err := s.forum.CreateReply(ctx, reply); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reply")
	}
	reply.AuthorName = requester.FullName
	return reply, nil
}

// Thread returns a post with its replies.
func (s *ForumService) Thread(ctx context.Context, postID string, requester models.UserInfo) (*models.ForumPost, []models.ForumReply, error) {
	post, err := s.forum.FindPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	if err := s.requireCourseAccess(ctx, post.CourseID, requester); err != nil {
		return nil, nil, err
	}
	replies, err := s.forum.ListRepliesByPost(ctx, postID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list replies")
	}
	return post, replies, nil
}
