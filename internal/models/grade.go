package models

import "time"

// Grade is the scored evaluation of one submission. One row per submission;
// re-grades replace the values in place.
type Grade struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;uniqueIndex" json:"submission_id"`
	Score        float64   `gorm:"not null" json:"score"`
	MaxScore     float64   `gorm:"not null" json:"max_score"`
	Percentage   float64   `gorm:"not null" json:"percentage"`
	GradeLetter  string    `gorm:"size:4;not null" json:"grade_letter"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	InstructorID uint      `gorm:"not null" json:"instructor_id"`
	GradedAt     time.Time `gorm:"not null" json:"graded_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
