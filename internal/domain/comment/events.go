package comment

import "time"

const (
	EventCommentAdded   = "CommentAdded"
	EventCommentDeleted = "CommentDeleted"
)

type CommentAdded struct {
	CommentID string    `json:"comment_id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	AddedAt   time.Time `json:"added_at"`
}

type CommentDeleted struct {
	CommentID string    `json:"comment_id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
