package models

import "time"

// Submission tracks the artifacts one student uploaded against one distribution.
// At most one row exists per (distribution, student) pair.
type Submission struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	DistributionID     uint       `gorm:"not null;uniqueIndex:idx_submissions_distribution_user" json:"distribution_id"`
	UserID             uint       `gorm:"not null;uniqueIndex:idx_submissions_distribution_user" json:"user_id"`
	ResponseFilename   *string    `gorm:"size:255" json:"response_filename"`
	OutputTestFilename *string    `gorm:"size:255" json:"output_test_filename"`
	SubmittedAt        *time.Time `json:"submitted_at"`
	IsLocked           bool       `gorm:"not null;default:false" json:"is_locked"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Distribution       AssignmentDistribution `gorm:"foreignKey:DistributionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"distribution"`
	Student            User       `gorm:"foreignKey:UserID" json:"student"`
	Grade              *Grade     `gorm:"foreignKey:SubmissionID" json:"grade,omitempty"`
}

const (
	// FileTypeResponse is the student's written answer artifact.
	FileTypeResponse = "assignment_response"
	// FileTypeOutputTest is the execution output / test artifact.
	FileTypeOutputTest = "output_test"
)

// IsComplete reports whether both required artifacts are present.
func (s Submission) IsComplete() bool {
	return s.ResponseFilename != nil && s.OutputTestFilename != nil
}

// HasAnyFile reports whether at least one artifact is present.
func (s Submission) HasAnyFile() bool {
	return s.ResponseFilename != nil || s.OutputTestFilename != nil
}

// IsGraded reports whether a grade row is attached.
func (s Submission) IsGraded() bool {
	return s.Grade != nil
}
