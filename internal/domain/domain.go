package domain

// Role of an authenticated identity.
type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Valid reports whether the role is one the system knows.
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleEmployee
}

// Identity is the authenticated user bound to a session.
type Identity struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"role" enum:"manager,employee"`
	Department string `json:"department"`
}

type ActionItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Priority  string `json:"priority" enum:"high,medium,low"`
	DueDate   string `json:"due_date"`
	Type      string `json:"type"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Nudge struct {
	ID        int64  `json:"id"`
	Type      string `json:"type" enum:"insight,celebration,coaching,urgent"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Action    string `json:"action"`
	Priority  string `json:"priority" enum:"high,medium,low"`
	Icon      string `json:"icon"`
	Dismissed bool   `json:"dismissed"`
}

type TeamMember struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Role           string   `json:"role"`
	Sentiment      float64  `json:"sentiment"`
	RecentFeedback string   `json:"recent_feedback"`
	Strengths      []string `json:"strengths"`
	GrowthAreas    []string `json:"growth_areas"`
	Initials       string   `json:"initials"`
}

// TrendPoint is one monthly sentiment sample on a 0-10 scale.
type TrendPoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

type ScheduledSession struct {
	ID          int64  `json:"id"`
	TeamMember  string `json:"team_member"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	SessionType string `json:"session_type"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type FeedbackRequest struct {
	ID        int64  `json:"id"`
	Requester string `json:"requester"`
	Topic     string `json:"topic"`
	DueDate   string `json:"due_date"`
	Urgent    bool   `json:"urgent"`
}

type PeerOpportunity struct {
	ID            int64  `json:"id"`
	Colleague     string `json:"colleague"`
	Project       string `json:"project"`
	Collaboration string `json:"collaboration"`
}

type Theme struct {
	Theme    string `json:"theme"`
	Mentions int    `json:"mentions"`
	Trend    string `json:"trend" enum:"up,down,stable"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// User is a seeded demo account. Credentials are never verified; a
// matching email only selects the display identity.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Department string `json:"department"`
}
