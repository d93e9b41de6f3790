package dto

// DashboardSummary aggregates a student's standing across assignments.
type DashboardSummary struct {
	ActiveAssignments  int `json:"active_assignments"`
	PendingSubmissions int `json:"pending_submissions"`
	CompletedCount     int `json:"completed_count"`
	AverageScore       int `json:"average_score"`
}

// StudentDashboardResponse is the aggregated dashboard payload.
type StudentDashboardResponse struct {
	Summary           DashboardSummary     `json:"summary"`
	Pending           []AssignmentResponse `json:"pending"`
	RecentSubmissions []SubmissionResponse `json:"recent_submissions"`
	Badges            []BadgeResponse      `json:"badges"`
}
