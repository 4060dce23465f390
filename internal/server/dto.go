package server

import (
	"leadgps/internal/domain"
	"leadgps/internal/engine"
)

type LoginRequest struct {
	Email    string `json:"email" example:"manager@company.com"`
	Password string `json:"password" format:"password" example:"any"`
	Role     string `json:"role" enum:"manager,employee"`
}

type LoginResponse struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
	Routes   []string        `json:"routes"`
	Landing  string          `json:"landing" example:"/"`
}

type MeResponse struct {
	Identity domain.Identity `json:"identity"`
	Routes   []string        `json:"routes"`
}

type ResolveResponse struct {
	Path  string `json:"path"`
	Route string `json:"route"`
	State string `json:"state" enum:"ok,not_found"`
}

type CreateActionItemRequest struct {
	Title    string `json:"title"`
	Priority string `json:"priority,omitempty" enum:"high,medium,low"`
	DueDate  string `json:"due_date"`
	Type     string `json:"type,omitempty"`
}

type ActionItemsResponse struct {
	Items    []domain.ActionItem `json:"items"`
	Progress float64             `json:"progress"`
	Pending  int                 `json:"pending"`
}

type NudgesResponse struct {
	Items []domain.Nudge `json:"items"`
}

type ScheduleSessionRequest struct {
	TeamMember  string `json:"team_member"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	SessionType string `json:"session_type,omitempty"`
}

type SessionsResponse struct {
	Stats    engine.SessionStats        `json:"stats"`
	Sessions []domain.ScheduledSession  `json:"sessions"`
}

// ViewResponse is the composed payload for the caller's role. Exactly
// one of Manager or Employee is set.
type ViewResponse struct {
	Role     string        `json:"role" enum:"manager,employee"`
	Routes   []string      `json:"routes"`
	Landing  string        `json:"landing"`
	Manager  *ManagerView  `json:"manager,omitempty"`
	Employee *EmployeeView `json:"employee,omitempty"`
}

// ManagerView is the composed payload behind the manager dashboard.
type ManagerView struct {
	Identity domain.Identity           `json:"identity"`
	Routes   []string                  `json:"routes"`
	Metrics  engine.DashboardMetrics   `json:"metrics"`
	Items    ActionItemsResponse       `json:"action_items"`
	Nudges   []domain.Nudge            `json:"nudges"`
	Team     []domain.TeamMember       `json:"team"`
	Trends   engine.TrendSummary       `json:"trends"`
	Sessions SessionsResponse          `json:"sessions"`
	Themes   []domain.Theme            `json:"themes"`
}

// EmployeeView is the composed payload behind the employee dashboard.
type EmployeeView struct {
	Identity      domain.Identity          `json:"identity"`
	Routes        []string                 `json:"routes"`
	Summary       engine.EmployeeSummary   `json:"summary"`
	Requests      []domain.FeedbackRequest `json:"feedback_requests"`
	Opportunities []domain.PeerOpportunity `json:"peer_opportunities"`
}
