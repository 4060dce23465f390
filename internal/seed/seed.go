// Package seed loads the demo dataset into an empty store. The built-in
// profile mirrors the product's mock data; a YAML profile can replace it.
package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"leadgps/internal/domain"
)

// Profile is the full seed dataset.
type Profile struct {
	Users []struct {
		ID         string `yaml:"id"`
		Email      string `yaml:"email"`
		Name       string `yaml:"name"`
		Role       string `yaml:"role"`
		Department string `yaml:"department"`
	} `yaml:"users"`
	ActionItems []struct {
		ID        int64  `yaml:"id"`
		Title     string `yaml:"title"`
		Priority  string `yaml:"priority"`
		DueDate   string `yaml:"due_date"`
		Type      string `yaml:"type"`
		Completed bool   `yaml:"completed"`
	} `yaml:"action_items"`
	Nudges []struct {
		ID       int64  `yaml:"id"`
		Type     string `yaml:"type"`
		Title    string `yaml:"title"`
		Message  string `yaml:"message"`
		Action   string `yaml:"action"`
		Priority string `yaml:"priority"`
		Icon     string `yaml:"icon"`
	} `yaml:"nudges"`
	TeamMembers []struct {
		Name           string   `yaml:"name"`
		Role           string   `yaml:"role"`
		Sentiment      float64  `yaml:"sentiment"`
		RecentFeedback string   `yaml:"recent_feedback"`
		Strengths      []string `yaml:"strengths"`
		GrowthAreas    []string `yaml:"growth_areas"`
		Initials       string   `yaml:"initials"`
	} `yaml:"team_members"`
	TrendPoints []struct {
		Month string  `yaml:"month"`
		Value float64 `yaml:"value"`
	} `yaml:"trend_points"`
	Sessions []struct {
		TeamMember  string `yaml:"team_member"`
		Date        string `yaml:"date"`
		Time        string `yaml:"time"`
		SessionType string `yaml:"session_type"`
		Status      string `yaml:"status"`
	} `yaml:"sessions"`
	FeedbackRequests []struct {
		Requester string `yaml:"requester"`
		Topic     string `yaml:"topic"`
		DueDate   string `yaml:"due_date"`
		Urgent    bool   `yaml:"urgent"`
	} `yaml:"feedback_requests"`
	PeerOpportunities []struct {
		Colleague     string `yaml:"colleague"`
		Project       string `yaml:"project"`
		Collaboration string `yaml:"collaboration"`
	} `yaml:"peer_opportunities"`
	Themes []struct {
		Theme    string `yaml:"theme"`
		Mentions int    `yaml:"mentions"`
		Trend    string `yaml:"trend"`
	} `yaml:"themes"`
}

// LoadProfile reads a YAML seed profile from disk; an empty path returns
// the built-in dataset.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid seed profile: %w", err)
	}
	return &p, nil
}

// Apply inserts the profile into the store. It refuses to seed twice:
// a store with users present is left untouched.
func Apply(ctx context.Context, db *sql.DB, p *Profile, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	var existing int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}
	ts := now().UTC().Format(time.RFC3339)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, u := range p.Users {
		role := domain.Role(u.Role)
		if !role.Valid() {
			return fmt.Errorf("seed user %s has invalid role %q", u.Email, u.Role)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO users(id,email,name,role,department) VALUES (?,?,?,?,?)`,
			u.ID, u.Email, u.Name, u.Role, u.Department); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	for _, it := range p.ActionItems {
		if _, err := tx.ExecContext(ctx, `INSERT INTO action_items(id,title,priority,due_date,type,completed,created_at) VALUES (?,?,?,?,?,?,?)`,
			it.ID, it.Title, it.Priority, it.DueDate, it.Type, it.Completed, ts); err != nil {
			return fmt.Errorf("seed action item %d: %w", it.ID, err)
		}
	}
	for _, n := range p.Nudges {
		if _, err := tx.ExecContext(ctx, `INSERT INTO nudges(id,type,title,message,action,priority,icon,dismissed) VALUES (?,?,?,?,?,?,?,0)`,
			n.ID, n.Type, n.Title, n.Message, n.Action, n.Priority, n.Icon); err != nil {
			return fmt.Errorf("seed nudge %d: %w", n.ID, err)
		}
	}
	for i, m := range p.TeamMembers {
		strengths, err := json.Marshal(m.Strengths)
		if err != nil {
			return err
		}
		growth, err := json.Marshal(m.GrowthAreas)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO team_members(id,name,role,sentiment,recent_feedback,strengths_json,growth_areas_json,initials) VALUES (?,?,?,?,?,?,?,?)`,
			i+1, m.Name, m.Role, m.Sentiment, m.RecentFeedback, string(strengths), string(growth), m.Initials); err != nil {
			return fmt.Errorf("seed team member %s: %w", m.Name, err)
		}
	}
	for _, tp := range p.TrendPoints {
		if _, err := tx.ExecContext(ctx, `INSERT INTO trend_points(month,value) VALUES (?,?)`, tp.Month, tp.Value); err != nil {
			return fmt.Errorf("seed trend point %s: %w", tp.Month, err)
		}
	}
	for i, s := range p.Sessions {
		status := s.Status
		if status == "" {
			status = "pending"
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO scheduled_sessions(id,team_member,date,time,session_type,status,created_at) VALUES (?,?,?,?,?,?,?)`,
			i+1, s.TeamMember, s.Date, s.Time, s.SessionType, status, ts); err != nil {
			return fmt.Errorf("seed session %s: %w", s.TeamMember, err)
		}
	}
	for i, q := range p.FeedbackRequests {
		if _, err := tx.ExecContext(ctx, `INSERT INTO feedback_requests(id,requester,topic,due_date,urgent) VALUES (?,?,?,?,?)`,
			i+1, q.Requester, q.Topic, q.DueDate, q.Urgent); err != nil {
			return fmt.Errorf("seed feedback request %s: %w", q.Topic, err)
		}
	}
	for i, o := range p.PeerOpportunities {
		if _, err := tx.ExecContext(ctx, `INSERT INTO peer_opportunities(id,colleague,project,collaboration) VALUES (?,?,?,?)`,
			i+1, o.Colleague, o.Project, o.Collaboration); err != nil {
			return fmt.Errorf("seed peer opportunity %s: %w", o.Colleague, err)
		}
	}
	for _, th := range p.Themes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO themes(theme,mentions,trend) VALUES (?,?,?)`,
			th.Theme, th.Mentions, th.Trend); err != nil {
			return fmt.Errorf("seed theme %s: %w", th.Theme, err)
		}
	}
	return tx.Commit()
}

// Builtin returns the default demo dataset.
func Builtin() *Profile {
	var p Profile
	if err := yaml.Unmarshal([]byte(builtinYAML), &p); err != nil {
		panic(fmt.Sprintf("builtin seed profile: %v", err))
	}
	return &p
}

const builtinYAML = `users:
  - id: "1"
    email: manager@company.com
    name: Sarah Johnson
    role: manager
    department: Engineering
  - id: "2"
    email: employee@company.com
    name: Alex Chen
    role: employee
    department: Engineering
  - id: "3"
    email: john.doe@company.com
    name: John Doe
    role: employee
    department: Engineering

action_items:
  - id: 1
    title: "Schedule 1:1 with Alex about communication skills"
    priority: high
    due_date: Today
    type: coaching
    completed: false
  - id: 2
    title: "Follow up on Maya's time management goals"
    priority: medium
    due_date: Tomorrow
    type: follow-up
    completed: false
  - id: 3
    title: "Team sync on project clarity (based on feedback)"
    priority: high
    due_date: This week
    type: team
    completed: false
  - id: 4
    title: "Recognize Jordan's innovative campaign ideas"
    priority: low
    due_date: This week
    type: recognition
    completed: true

nudges:
  - id: 1
    type: insight
    title: Communication Pattern Detected
    message: "Your team's feedback shows a 15% increase in requests for clearer direction. Consider scheduling a team alignment meeting."
    action: Schedule Team Sync
    priority: medium
    icon: "💡"
  - id: 2
    type: celebration
    title: Leadership Growth Spotted!
    message: "You've received 3 mentions for improved mentoring this week. Your coaching approach is making an impact!"
    action: View Details
    priority: low
    icon: "🎉"
  - id: 3
    type: coaching
    title: Micro-Coaching Tip
    message: "When giving feedback on 'time management,' try the STAR method: Situation, Task, Action, Result for more specific guidance."
    action: Learn More
    priority: low
    icon: "🧠"
  - id: 4
    type: urgent
    title: Engagement Alert
    message: "Jordan's engagement score dropped 20% this week. Previous feedback mentioned workload concerns - time for a check-in?"
    action: "Schedule 1:1"
    priority: high
    icon: "⚠️"

team_members:
  - name: Alex Chen
    role: Senior Developer
    sentiment: 8.5
    recent_feedback: Excellent technical leadership on the API project
    strengths: [Technical Skills, Mentoring]
    growth_areas: [Communication]
    initials: AC
  - name: Maya Patel
    role: Product Designer
    sentiment: 9.2
    recent_feedback: Outstanding collaboration with cross-functional teams
    strengths: [Creativity, Collaboration]
    growth_areas: [Time Management]
    initials: MP
  - name: Jordan Smith
    role: Marketing Specialist
    sentiment: 7.8
    recent_feedback: Great campaign ideas, could improve on execution speed
    strengths: [Strategy, Innovation]
    growth_areas: [Execution, Prioritization]
    initials: JS

trend_points:
  - { month: Jan, value: 7.2 }
  - { month: Feb, value: 7.8 }
  - { month: Mar, value: 8.1 }
  - { month: Apr, value: 7.9 }
  - { month: May, value: 8.2 }
  - { month: Jun, value: 8.5 }

sessions:
  - { team_member: Alex Chen, date: Today, time: "2:00 PM", session_type: Regular Check-in, status: confirmed }
  - { team_member: Sarah Johnson, date: Tomorrow, time: "10:30 AM", session_type: Goal Setting, status: pending }
  - { team_member: Mike Torres, date: Friday, time: "3:30 PM", session_type: Performance Review, status: confirmed }

feedback_requests:
  - { requester: "Sarah Johnson (Manager)", topic: Q4 Performance Review, due_date: "Dec 15, 2024", urgent: true }
  - { requester: "Mike Torres (Peer)", topic: Project Collaboration, due_date: "Dec 18, 2024", urgent: false }
  - { requester: "Sarah Johnson (Manager)", topic: Leadership Skills, due_date: "Dec 20, 2024", urgent: false }

peer_opportunities:
  - { colleague: Emily Rodriguez, project: Mobile App Redesign, collaboration: High }
  - { colleague: David Kim, project: API Integration, collaboration: Medium }
  - { colleague: Lisa Chang, project: User Research, collaboration: High }

themes:
  - { theme: Communication, mentions: 15, trend: up }
  - { theme: Leadership, mentions: 12, trend: up }
  - { theme: Technical Skills, mentions: 18, trend: stable }
  - { theme: Collaboration, mentions: 14, trend: up }
  - { theme: Time Management, mentions: 8, trend: down }
`
