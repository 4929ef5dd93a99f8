package dto

import (
	"time"

	"github.com/labsyncpro/labsync-api/internal/models"
)

// FileAttachRequest describes the multipart payload for uploading one artifact.
type FileAttachRequest struct {
	DistributionID uint   `form:"distribution_id" validate:"required,gt=0"`
	FileType       string `form:"file_type" validate:"required,oneof=assignment_response output_test"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	DistributionID *uint `query:"distribution_id"`
	UserID         *uint `query:"user_id"`
	Locked         *bool `query:"locked"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID                 uint           `json:"id"`
	DistributionID     uint           `json:"distribution_id"`
	UserID             uint           `json:"user_id"`
	ResponseFilename   *string        `json:"response_filename"`
	OutputTestFilename *string        `json:"output_test_filename"`
	SubmittedAt        *time.Time     `json:"submitted_at"`
	IsLocked           bool           `json:"is_locked"`
	IsComplete         bool           `json:"is_complete"`
	Grade              *GradeResponse `json:"grade,omitempty"`
	Student            UserLite       `json:"student"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// AttachResult pairs the stored submission with the lateness flag. Late uploads
// are recorded, not rejected; grading policy stays with the instructor.
type AttachResult struct {
	Submission SubmissionResponse `json:"submission"`
	Late       bool               `json:"late"`
}

// UserLite summarizes a user without exposing full profile data.
type UserLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:                 model.ID,
		DistributionID:     model.DistributionID,
		UserID:             model.UserID,
		ResponseFilename:   model.ResponseFilename,
		OutputTestFilename: model.OutputTestFilename,
		SubmittedAt:        model.SubmittedAt,
		IsLocked:           model.IsLocked,
		IsComplete:         model.IsComplete(),
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}

	if model.Grade != nil {
		grade := NewGradeResponse(*model.Grade)
		response.Grade = &grade
	}

	if model.Student.ID != 0 {
		response.Student = UserLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
