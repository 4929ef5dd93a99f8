package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/labsyncpro/labsync-api/internal/models"
)

func testDistribution() models.AssignmentDistribution {
	return models.AssignmentDistribution{
		ID:            1,
		ScheduledDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Deadline:      time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		Status:        models.DistributionStatusAssigned,
	}
}

func strPtr(s string) *string { return &s }

func TestResolveUpcomingBeforeScheduledDate(t *testing.T) {
	dist := testDistribution()
	now := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)

	// Upcoming wins regardless of submission state.
	complete := &models.Submission{
		ResponseFilename:   strPtr("answers.pdf"),
		OutputTestFilename: strPtr("output.txt"),
	}

	require.Equal(t, Upcoming, Resolve(dist, nil, now))
	require.Equal(t, Upcoming, Resolve(dist, complete, now))
}

func TestResolveCompletedWithinWindow(t *testing.T) {
	dist := testDistribution()
	submission := &models.Submission{
		ResponseFilename:   strPtr("answers.pdf"),
		OutputTestFilename: strPtr("output.txt"),
	}

	now := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	require.Equal(t, Completed, Resolve(dist, submission, now))

	// Still completed moments before the deadline.
	now = dist.Deadline.Add(-time.Second)
	require.Equal(t, Completed, Resolve(dist, submission, now))
}

func TestResolvePartialBeatsOverdue(t *testing.T) {
	dist := testDistribution()
	submission := &models.Submission{ResponseFilename: strPtr("answers.pdf")}

	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	require.Equal(t, Partial, Resolve(dist, submission, now))
}

func TestResolveOverdueAfterDeadlineWithoutFiles(t *testing.T) {
	dist := testDistribution()
	now := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)

	require.Equal(t, Overdue, Resolve(dist, nil, now))
	require.Equal(t, Overdue, Resolve(dist, &models.Submission{}, now))
}

func TestResolveCancelledDistributionIsOverdue(t *testing.T) {
	dist := testDistribution()
	dist.Status = models.DistributionStatusCancelled
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.Equal(t, Overdue, Resolve(dist, nil, now))
}

func TestResolvePendingInsideOpenWindow(t *testing.T) {
	dist := testDistribution()
	now := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	require.Equal(t, Pending, Resolve(dist, nil, now))
}

func TestLabelsPerPerspective(t *testing.T) {
	require.Equal(t, "overdue", Overdue.Label(PerspectiveStaff))
	require.Equal(t, "cancelled", Overdue.Label(PerspectiveStudent))
	require.Equal(t, "pending", Pending.Label(PerspectiveStaff))
	require.Equal(t, "in_progress", Pending.Label(PerspectiveStudent))
	require.Equal(t, "completed", Completed.Label(PerspectiveStudent))
	require.Equal(t, "status-partial", Partial.CSSTag())
}
