package models

import (
	"errors"
	"time"
)

// AssignmentDistribution is one fan-out of an assignment to an audience with a schedule.
type AssignmentDistribution struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	AssignmentID  uint       `gorm:"not null;index" json:"assignment_id"`
	ClassID       uint       `gorm:"not null;index" json:"class_id"`
	GroupID       *uint      `gorm:"index" json:"group_id"`
	UserID        *uint      `gorm:"index" json:"user_id"`
	AudienceType  string     `gorm:"size:32;not null" json:"audience_type"`
	ScheduledDate time.Time  `gorm:"not null" json:"scheduled_date"`
	Deadline      time.Time  `gorm:"not null" json:"deadline"`
	Status        string     `gorm:"size:32;not null;default:assigned" json:"status"`
	CreatedBy     uint       `gorm:"not null" json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Assignment    Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Submissions   []Submission `gorm:"foreignKey:DistributionID" json:"submissions,omitempty"`
}

const (
	// AudienceClass distributes to every student on the class roster.
	AudienceClass = "class"
	// AudienceGroup distributes to members of one group within the class.
	AudienceGroup = "group"
	// AudienceIndividual distributes to a single student.
	AudienceIndividual = "individual"
)

const (
	// DistributionStatusAssigned is the initial persisted state.
	DistributionStatusAssigned = "assigned"
	// DistributionStatusInProgress is set by an explicit instructor action.
	DistributionStatusInProgress = "in_progress"
	// DistributionStatusCompleted is set by an explicit instructor edit.
	DistributionStatusCompleted = "completed"
	// DistributionStatusCancelled blocks further uploads entirely.
	DistributionStatusCancelled = "cancelled"
)

// ErrAudienceMismatch indicates the audience fields contradict the audience type.
var ErrAudienceMismatch = errors.New("audience fields do not match audience type")

// ErrScheduleInverted indicates the deadline does not come after the scheduled date.
var ErrScheduleInverted = errors.New("deadline must be after scheduled date")

// ValidateSchedule enforces deadline strictly after scheduledDate.
func (d AssignmentDistribution) ValidateSchedule() error {
	if !d.Deadline.After(d.ScheduledDate) {
		return ErrScheduleInverted
	}
	return nil
}

// ValidateAudience enforces exactly one audience field-set per audience type.
func (d AssignmentDistribution) ValidateAudience() error {
	switch d.AudienceType {
	case AudienceClass:
		if d.GroupID != nil || d.UserID != nil {
			return ErrAudienceMismatch
		}
	case AudienceGroup:
		if d.GroupID == nil || d.UserID != nil {
			return ErrAudienceMismatch
		}
	case AudienceIndividual:
		if d.UserID == nil || d.GroupID != nil {
			return ErrAudienceMismatch
		}
	default:
		return ErrAudienceMismatch
	}
	return nil
}

// IsCancelled reports whether the distribution no longer accepts uploads.
func (d AssignmentDistribution) IsCancelled() bool {
	return d.Status == DistributionStatusCancelled
}

// IsOpen reports whether the upload window has started at the reference instant.
func (d AssignmentDistribution) IsOpen(reference time.Time) bool {
	return !reference.Before(d.ScheduledDate)
}

// IsPastDeadline reports whether the deadline has already passed.
func (d AssignmentDistribution) IsPastDeadline(reference time.Time) bool {
	return reference.After(d.Deadline)
}
