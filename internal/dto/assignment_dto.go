package dto

import (
	"time"

	"github.com/labsyncpro/labsync-api/internal/models"
)

// AssignmentCreateRequest describes the multipart payload for creating assignment content.
type AssignmentCreateRequest struct {
	Name        string `form:"name" validate:"required,min=3,max=255"`
	Description string `form:"description" validate:"omitempty,max=10000"`
}

// AssignmentUpdateRequest carries partial assignment edits.
type AssignmentUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// AssignmentListRequest describes query filters for listing assignments.
type AssignmentListRequest struct {
	Search   string `query:"search"`
	Status   string `query:"status" validate:"omitempty,oneof=draft published archived"`
	Sort     string `query:"sort"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PDFURL       string    `json:"pdf_url"`
	PDFFilename  string    `json:"pdf_filename"`
	PDFSizeBytes int64     `json:"pdf_size_bytes"`
	Status       string    `json:"status"`
	CreatedBy    uint      `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AssignmentListResponse wraps a paginated assignment listing.
type AssignmentListResponse struct {
	Items []AssignmentResponse `json:"items"`
	Total int64                `json:"total"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:           model.ID,
		Name:         model.Name,
		Description:  model.Description,
		PDFURL:       model.PDFURL,
		PDFFilename:  model.PDFFilename,
		PDFSizeBytes: model.PDFSizeBytes,
		Status:       model.Status,
		CreatedBy:    model.CreatedBy,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(items []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAssignmentResponse(item))
	}

	return responses
}
