package dto

import (
	"time"

	"github.com/labsyncpro/labsync-api/internal/models"
)

// GradeSubmitRequest describes the grading payload. The optional letter
// override bypasses scale lookup for edge cases such as extra credit.
type GradeSubmitRequest struct {
	Score               float64 `json:"score" validate:"gte=0"`
	MaxScore            float64 `json:"max_score" validate:"required,gt=0"`
	Feedback            string  `json:"feedback" validate:"omitempty,max=10000"`
	GradeLetterOverride string  `json:"grade_letter_override" validate:"omitempty,max=4"`
}

// GradeResponse is returned to API clients when viewing grades.
type GradeResponse struct {
	ID           uint      `json:"id"`
	SubmissionID uint      `json:"submission_id"`
	Score        float64   `json:"score"`
	MaxScore     float64   `json:"max_score"`
	Percentage   float64   `json:"percentage"`
	GradeLetter  string    `json:"grade_letter"`
	Feedback     string    `json:"feedback"`
	InstructorID uint      `json:"instructor_id"`
	GradedAt     time.Time `json:"graded_at"`
}

// NewGradeResponse converts a Grade model into a DTO.
func NewGradeResponse(model models.Grade) GradeResponse {
	return GradeResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		Score:        model.Score,
		MaxScore:     model.MaxScore,
		Percentage:   model.Percentage,
		GradeLetter:  model.GradeLetter,
		Feedback:     model.Feedback,
		InstructorID: model.InstructorID,
		GradedAt:     model.GradedAt,
	}
}
