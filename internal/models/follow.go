package models

import "time"

// Follow is one directed edge as stored by the relational backend
type Follow struct {
	FollowerID string    `json:"follower_id" gorm:"primaryKey"`
	FolloweeID string    `json:"followee_id" gorm:"primaryKey;index"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Follow) TableName() string { return "follows" }
