package dto

import "time"

// ProgressSummary aggregates a student's standing across their distributions.
type ProgressSummary struct {
	TotalDistributions int     `json:"total_distributions"`
	Upcoming           int     `json:"upcoming"`
	Pending            int     `json:"pending"`
	Partial            int     `json:"partial"`
	Completed          int     `json:"completed"`
	Overdue            int     `json:"overdue"`
	Graded             int     `json:"graded"`
	AveragePercentage  float64 `json:"average_percentage"`
	AverageGPA         float64 `json:"average_gpa"`
}

// DistributionProgress describes one distribution from the student's point of view.
type DistributionProgress struct {
	DistributionID uint           `json:"distribution_id"`
	AssignmentName string         `json:"assignment_name"`
	ScheduledDate  time.Time      `json:"scheduled_date"`
	Deadline       time.Time      `json:"deadline"`
	DisplayStatus  DisplayStatus  `json:"display_status"`
	SubmissionID   *uint          `json:"submission_id"`
	Grade          *GradeResponse `json:"grade,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// StudentDashboardResponse is the aggregated dashboard payload.
type StudentDashboardResponse struct {
	Summary ProgressSummary        `json:"summary"`
	Open    []DistributionProgress `json:"open"`
	Recent  []DistributionProgress `json:"recent"`
}
