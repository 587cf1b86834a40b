package models

import "time"

// Comment is a reader comment attached to a blog post. PostID names a
// content-collection entry, not a database row.
type Comment struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	PostID  string    `gorm:"column:post_id;not null;index" json:"post_id"`
	Content string    `gorm:"not null" json:"content"`
	Author  string    `gorm:"not null" json:"author"`
	Date    time.Time `gorm:"column:date;autoCreateTime" json:"date"`
	Likes   int       `gorm:"not null;default:0" json:"likes"`
}

// CommentPage is one page of comments for a post.
type CommentPage struct {
	Comments []Comment `json:"comments"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"perPage"`
}
