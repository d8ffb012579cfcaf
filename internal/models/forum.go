package models

import "time"

// ForumPost is a top-level discussion entry in a course forum.
type ForumPost struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	AuthorName string    `db:"author_name" json:"author_name"`
	ReplyCount int       `db:"reply_count" json:"reply_count"`
}

// ForumReply belongs to a post; replies do not nest further.
type ForumReply struct {
	ID         string    `db:"id" json:"id"`
	PostID     string    `db:"post_id" json:"post_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	AuthorName string    `db:"author_name" json:"author_name"`
}
