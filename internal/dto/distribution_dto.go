package dto

import (
	"time"

	"github.com/labsyncpro/labsync-api/internal/models"
	"github.com/labsyncpro/labsync-api/internal/status"
)

// DistributionCreateRequest describes the payload for pushing an assignment to an audience.
type DistributionCreateRequest struct {
	AssignmentID  uint   `json:"assignment_id" validate:"required,gt=0"`
	ClassID       uint   `json:"class_id" validate:"required,gt=0"`
	AudienceType  string `json:"audience_type" validate:"required,oneof=class group individual"`
	GroupID       *uint  `json:"group_id" validate:"omitempty,gt=0"`
	UserID        *uint  `json:"user_id" validate:"omitempty,gt=0"`
	ScheduledDate string `json:"scheduled_date" validate:"required"`
	Deadline      string `json:"deadline" validate:"required"`
}

// DistributionUpdateRequest carries partial schedule or status edits.
type DistributionUpdateRequest struct {
	ScheduledDate *string `json:"scheduled_date"`
	Deadline      *string `json:"deadline"`
	Status        *string `json:"status" validate:"omitempty,oneof=assigned in_progress completed cancelled"`
}

// DistributionListRequest describes query filters for listing distributions.
type DistributionListRequest struct {
	AssignmentID *uint   `query:"assignment_id"`
	ClassID      *uint   `query:"class_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=assigned in_progress completed cancelled"`
	Page         int     `query:"page" validate:"omitempty,gte=1"`
	PageSize     int     `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// DisplayStatus carries the resolved view-model classification alongside its
// presentation labels. The canonical state lives in Code; labels are derived.
type DisplayStatus struct {
	Code         string `json:"code"`
	StaffLabel   string `json:"staff_label"`
	StudentLabel string `json:"student_label"`
	CSSTag       string `json:"css_tag"`
}

// NewDisplayStatus maps a resolved status onto both display vocabularies.
func NewDisplayStatus(s status.Status) DisplayStatus {
	return DisplayStatus{
		Code:         string(s),
		StaffLabel:   s.Label(status.PerspectiveStaff),
		StudentLabel: s.Label(status.PerspectiveStudent),
		CSSTag:       s.CSSTag(),
	}
}

// DistributionResponse is returned to API clients when viewing distributions.
type DistributionResponse struct {
	ID            uint           `json:"id"`
	AssignmentID  uint           `json:"assignment_id"`
	ClassID       uint           `json:"class_id"`
	GroupID       *uint          `json:"group_id"`
	UserID        *uint          `json:"user_id"`
	AudienceType  string         `json:"audience_type"`
	ScheduledDate time.Time      `json:"scheduled_date"`
	Deadline      time.Time      `json:"deadline"`
	Status        string         `json:"status"`
	DisplayStatus *DisplayStatus `json:"display_status,omitempty"`
	Assignment    AssignmentLite `json:"assignment"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AssignmentLite summarizes assignment content in distribution responses.
type AssignmentLite struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	PDFURL string `json:"pdf_url"`
	Status string `json:"status"`
}

// DistributionListResponse wraps a paginated distribution listing.
type DistributionListResponse struct {
	Items []DistributionResponse `json:"items"`
	Total int64                  `json:"total"`
}

// NewDistributionResponse converts a distribution model into a DTO.
func NewDistributionResponse(model models.AssignmentDistribution) DistributionResponse {
	response := DistributionResponse{
		ID:            model.ID,
		AssignmentID:  model.AssignmentID,
		ClassID:       model.ClassID,
		GroupID:       model.GroupID,
		UserID:        model.UserID,
		AudienceType:  model.AudienceType,
		ScheduledDate: model.ScheduledDate,
		Deadline:      model.Deadline,
		Status:        model.Status,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:     model.Assignment.ID,
			Name:   model.Assignment.Name,
			PDFURL: model.Assignment.PDFURL,
			Status: model.Assignment.Status,
		}
	}

	return response
}

// NewDistributionResponseWithStatus attaches the resolved display status.
func NewDistributionResponseWithStatus(model models.AssignmentDistribution, resolved status.Status) DistributionResponse {
	response := NewDistributionResponse(model)
	display := NewDisplayStatus(resolved)
	response.DisplayStatus = &display
	return response
}
