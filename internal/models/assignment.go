package models

import "time"

// Assignment represents reusable assignment content authored by staff.
type Assignment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	Description   string     `gorm:"type:text" json:"description"`
	PDFURL        string     `gorm:"size:512" json:"pdf_url"`
	PDFFilename   string     `gorm:"size:255" json:"pdf_filename"`
	PDFSizeBytes  int64      `json:"pdf_size_bytes"`
	Status        string     `gorm:"size:32;not null;default:draft" json:"status"`
	CreatedBy     uint       `gorm:"not null" json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Distributions []AssignmentDistribution `json:"distributions,omitempty"`
}

const (
	// AssignmentStatusDraft means the assignment is not yet distributable.
	AssignmentStatusDraft = "draft"
	// AssignmentStatusPublished means the assignment may be distributed.
	AssignmentStatusPublished = "published"
	// AssignmentStatusArchived blocks new distributions; existing ones remain valid.
	AssignmentStatusArchived = "archived"
)

// IsDistributable reports whether new distributions may reference this assignment.
func (a Assignment) IsDistributable() bool {
	return a.Status == AssignmentStatusPublished
}
