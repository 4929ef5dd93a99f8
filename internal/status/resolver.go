// Package status is the single source of truth for display-status
// classification of a distribution/submission pair. Both API filtering and
// presentation consume it; the persisted distribution status is never touched.
package status

import (
	"time"

	"github.com/labsyncpro/labsync-api/internal/models"
)

// Status is the canonical display classification.
type Status string

const (
	// Upcoming means the scheduled date has not arrived yet.
	Upcoming Status = "upcoming"
	// Completed means both artifacts were uploaded.
	Completed Status = "completed"
	// Partial means exactly one of the two artifacts is present.
	Partial Status = "partial"
	// Overdue means the deadline passed with no artifacts uploaded.
	Overdue Status = "overdue"
	// Pending means the window is open and nothing was uploaded yet.
	Pending Status = "pending"
)

// Perspective selects which display vocabulary a consumer renders.
type Perspective string

const (
	// PerspectiveStaff renders the admin/instructor vocabulary.
	PerspectiveStaff Perspective = "staff"
	// PerspectiveStudent renders the student-facing vocabulary.
	PerspectiveStudent Perspective = "student"
)

// Resolve classifies a distribution plus optional submission at a reference
// instant. Priority order, first match wins:
//  1. before scheduled date: upcoming
//  2. complete submission: completed
//  3. one of two files present: partial (wins over overdue even after deadline)
//  4. deadline passed, or distribution cancelled: overdue
//  5. otherwise: pending
func Resolve(distribution models.AssignmentDistribution, submission *models.Submission, now time.Time) Status {
	if now.Before(distribution.ScheduledDate) {
		return Upcoming
	}

	if submission != nil {
		if submission.IsComplete() {
			return Completed
		}
		if submission.HasAnyFile() {
			return Partial
		}
	}

	if distribution.IsCancelled() || distribution.IsPastDeadline(now) {
		return Overdue
	}

	return Pending
}

// Label maps the canonical state to the display vocabulary of a perspective.
// Students see an overdue distribution as "cancelled" (no longer accepting
// submissions) and an open one as "in_progress".
func (s Status) Label(p Perspective) string {
	if p == PerspectiveStudent {
		switch s {
		case Overdue:
			return "cancelled"
		case Pending:
			return "in_progress"
		}
	}
	return string(s)
}

// CSSTag returns the badge class hint consumed by presentation layers.
func (s Status) CSSTag() string {
	return "status-" + string(s)
}
