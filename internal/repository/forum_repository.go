package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulane/lms-api/internal/models"
)

// ForumRepository handles course discussion posts and replies.
type ForumRepository struct {
	db *sqlx.DB
}

// NewForumRepository creates a new forum repository.
func NewForumRepository(db *sqlx.DB) *ForumRepository {
	return &ForumRepository{db: db}
}

// CreatePost inserts a new discussion post.
func (r *ForumRepository) CreatePost(ctx context.Context, post *models.ForumPost) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO forum_posts (id, course_id, author_id, title, content, created_at)
        VALUES (:id, :course_id, :author_id, :title, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create forum post: %w", err)
	}
	return nil
}

// FindPostByID returns one post with its author name.
func (r *ForumRepository) FindPostByID(ctx context.Context, id string) (*models.ForumPost, error) {
	const query = `SELECT p.id, p.course_id, p.author_id, p.title, p.content, p.created_at,
        u.full_name AS author_name,
        (SELECT COUNT(*) FROM forum_replies fr WHERE fr.post_id = p.id) AS reply_count
        FROM forum_posts p JOIN users u ON u.id = p.author_id WHERE p.id = $1`
	var post models.ForumPost
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPostsByCourse returns a course's posts, newest first, with reply counts.
func (r *ForumRepository) ListPostsByCourse(ctx context.Context, courseID string) ([]models.ForumPost, error) {
	const query = `SELECT p.id, p.course_id, p.author_id, p.title, p.content, p.created_at,
        u.full_name AS author_name,
        (SELECT COUNT(*) FROM forum_replies fr WHERE fr.post_id = p.id) AS reply_count
        FROM forum_posts p JOIN users u ON u.id = p.author_id
        WHERE p.course_id = $1 ORDER BY p.created_at DESC`
	var posts []models.ForumPost
	if err := r.db.SelectContext(ctx, &posts, query, courseID); err != nil {
		return nil, fmt.Errorf("list forum posts: %w", err)
	}
	return posts, nil
}

// CreateReply inserts a reply under a post.
func (r *ForumRepository) CreateReply(ctx context.Context, reply *models.ForumReply) error {
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	reply.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO forum_replies (id, post_id, author_id, content, created_at)
        VALUES (:id, :post_id, :author_id, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reply); err != nil {
		return fmt.Errorf("create forum reply: %w", err)
	}
	return nil
}

// ListRepliesByPost returns a post's replies in chronological order.
func (r *ForumRepository) ListRepliesByPost(ctx context.Context, postID string) ([]models.ForumReply, error) {
	const query = `SELECT r.id, r.post_id, r.author_id, r.content, r.created_at, u.full_name AS author_name
        FROM forum_replies r JOIN users u ON u.id = r.author_id
        WHERE r.post_id = $1 ORDER BY r.created_at ASC`
	var replies []models.ForumReply
	if err := r.db.SelectContext(ctx, &replies, query, postID); err != nil {
		return nil, fmt.Errorf("list forum replies: %w", err)
	}
	return replies, nil
}
