package models

import "time"

// User represents an account that can author, receive, or grade assignments.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null" json:"role"`
	ClassID   *uint     `gorm:"index" json:"class_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// RoleAdmin can manage users, distributions, and locks.
	RoleAdmin = "admin"
	// RoleInstructor can author assignments and grade submissions.
	RoleInstructor = "instructor"
	// RoleStudent can upload submission artifacts.
	RoleStudent = "student"
)

// IsStaff reports whether the user may perform grading and lock operations.
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleInstructor
}
