package models

import "time"

// Class represents a taught class whose roster receives assignment distributions.
type Class struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Grade     string    `gorm:"size:32" json:"grade"`
	Stream    string    `gorm:"size:32" json:"stream"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Students  []User    `gorm:"foreignKey:ClassID" json:"students,omitempty"`
	Groups    []Group   `json:"groups,omitempty"`
}

// Group is a named subset of a class roster.
type Group struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	ClassID   uint          `gorm:"not null;index" json:"class_id"`
	Name      string        `gorm:"size:255;not null" json:"name"`
	LeaderID  *uint         `json:"leader_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Members   []GroupMember `json:"members,omitempty"`
}

// GroupMember links a student to a group.
type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;uniqueIndex:idx_group_members_group_user" json:"group_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_group_members_group_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
