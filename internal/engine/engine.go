package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadgps/internal/analytics"
	"leadgps/internal/domain"
	"leadgps/internal/events"
	"leadgps/internal/repo"
)

// ValidationError lists the fields a mutation was missing. It is
// surfaced to the caller, never raised to a top-level handler.
type ValidationError struct {
	Fields []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Now    func() time.Time
}

func New(db *sql.DB) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// ActionItemForm is the input for creating an action item.
type ActionItemForm struct {
	Title    string
	Priority string
	DueDate  string
	Type     string
}

// AddActionItem validates the form and appends a new open item. Title and
// due date are required after trimming; priority defaults to medium and
// type to "manual".
func (e Engine) AddActionItem(ctx context.Context, form ActionItemForm, actorID string) (domain.ActionItem, error) {
	title := strings.TrimSpace(form.Title)
	dueDate := strings.TrimSpace(form.DueDate)
	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if dueDate == "" {
		missing = append(missing, "due_date")
	}
	if len(missing) > 0 {
		return domain.ActionItem{}, ValidationError{Fields: missing}
	}
	priority := form.Priority
	if priority == "" {
		priority = "medium"
	}
	switch priority {
	case "high", "medium", "low":
	default:
		return domain.ActionItem{}, fmt.Errorf("invalid priority %q", priority)
	}
	itemType := strings.TrimSpace(form.Type)
	if itemType == "" {
		itemType = "manual"
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ActionItem{}, err
	}
	defer tx.Rollback()

	item := domain.ActionItem{
		Title:     title,
		Priority:  priority,
		DueDate:   dueDate,
		Type:      itemType,
		Completed: false,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	item, err = e.Repo.InsertActionItem(ctx, tx, item)
	if err != nil {
		return domain.ActionItem{}, err
	}
	if err := e.Events.Append(ctx, tx, "action_item.added", "action_item", fmt.Sprint(item.ID), actorID, events.EventPayload{
		"title":    item.Title,
		"priority": item.Priority,
		"type":     item.Type,
	}); err != nil {
		return domain.ActionItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ActionItem{}, err
	}
	return item, nil
}

// ToggleActionItem flips the completed flag. Completion is reversible:
// toggling twice restores the original state.
func (e Engine) ToggleActionItem(ctx context.Context, id int64, actorID string) (domain.ActionItem, error) {
	item, err := e.Repo.GetActionItem(ctx, id)
	if err != nil {
		return domain.ActionItem{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ActionItem{}, err
	}
	defer tx.Rollback()

	item.Completed = !item.Completed
	if err := e.Repo.SetActionItemCompleted(ctx, tx, id, item.Completed); err != nil {
		return domain.ActionItem{}, err
	}
	if err := e.Events.Append(ctx, tx, "action_item.toggled", "action_item", fmt.Sprint(id), actorID, events.EventPayload{
		"completed": item.Completed,
	}); err != nil {
		return domain.ActionItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ActionItem{}, err
	}
	return item, nil
}

// DismissNudge retires a nudge for the rest of the session. Dismissal is
// terminal; dismissing again is a no-op and writes no event.
func (e Engine) DismissNudge(ctx context.Context, id int64, actorID string) (domain.Nudge, error) {
	n, err := e.Repo.GetNudge(ctx, id)
	if err != nil {
		return domain.Nudge{}, err
	}
	if n.Dismissed {
		return n, nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Nudge{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.MarkNudgeDismissed(ctx, tx, id); err != nil {
		return domain.Nudge{}, err
	}
	if err := e.Events.Append(ctx, tx, "nudge.dismissed", "nudge", fmt.Sprint(id), actorID, events.EventPayload{
		"type": n.Type,
	}); err != nil {
		return domain.Nudge{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Nudge{}, err
	}
	n.Dismissed = true
	return n, nil
}

// SessionForm is the input for scheduling a 1:1.
type SessionForm struct {
	TeamMember  string
	Date        string
	Time        string
	SessionType string
}

// SessionConfirmation echoes the committed session for display.
type SessionConfirmation struct {
	Session domain.ScheduledSession `json:"session"`
	Message string                  `json:"message"`
}

// ScheduleSession validates that team member, date and time are present,
// then appends the session. Session type defaults to "Regular Check-in".
// No conflict detection is performed; double-booking is allowed.
func (e Engine) ScheduleSession(ctx context.Context, form SessionForm, actorID string) (SessionConfirmation, error) {
	teamMember := strings.TrimSpace(form.TeamMember)
	date := strings.TrimSpace(form.Date)
	timeOfDay := strings.TrimSpace(form.Time)
	var missing []string
	if teamMember == "" {
		missing = append(missing, "team_member")
	}
	if date == "" {
		missing = append(missing, "date")
	}
	if timeOfDay == "" {
		missing = append(missing, "time")
	}
	if len(missing) > 0 {
		return SessionConfirmation{}, ValidationError{Fields: missing}
	}
	sessionType := strings.TrimSpace(form.SessionType)
	if sessionType == "" {
		sessionType = "Regular Check-in"
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return SessionConfirmation{}, err
	}
	defer tx.Rollback()

	s := domain.ScheduledSession{
		TeamMember:  teamMember,
		Date:        date,
		Time:        timeOfDay,
		SessionType: sessionType,
		Status:      "pending",
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}
	s, err = e.Repo.InsertScheduledSession(ctx, tx, s)
	if err != nil {
		return SessionConfirmation{}, err
	}
	if err := e.Events.Append(ctx, tx, "session.scheduled", "session", fmt.Sprint(s.ID), actorID, events.EventPayload{
		"team_member":  s.TeamMember,
		"date":         s.Date,
		"time":         s.Time,
		"session_type": s.SessionType,
	}); err != nil {
		return SessionConfirmation{}, err
	}
	if err := tx.Commit(); err != nil {
		return SessionConfirmation{}, err
	}
	msg := fmt.Sprintf("Session scheduled: %s on %s at %s (%s)", s.TeamMember, s.Date, s.Time, s.SessionType)
	return SessionConfirmation{Session: s, Message: msg}, nil
}

// AcknowledgeRequest records that the employee responded to a feedback
// request. The request itself is reference data and does not change.
func (e Engine) AcknowledgeRequest(ctx context.Context, id int64, actorID string) error {
	q, err := e.Repo.GetFeedbackRequest(ctx, id)
	if err != nil {
		return err
	}
	return e.appendOnly(ctx, "feedback_request.responded", "feedback_request", fmt.Sprint(q.ID), actorID, events.EventPayload{
		"topic": q.Topic,
	})
}

// AcknowledgePeerFeedback records that the employee provided feedback for
// a peer opportunity. Terminal no-op over the reference row.
func (e Engine) AcknowledgePeerFeedback(ctx context.Context, id int64, actorID string) error {
	o, err := e.Repo.GetPeerOpportunity(ctx, id)
	if err != nil {
		return err
	}
	return e.appendOnly(ctx, "peer_feedback.provided", "peer_opportunity", fmt.Sprint(o.ID), actorID, events.EventPayload{
		"colleague": o.Colleague,
		"project":   o.Project,
	})
}

func (e Engine) appendOnly(ctx context.Context, evtType, entityKind, entityID, actorID string, payload events.EventPayload) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, evtType, entityKind, entityID, actorID, payload); err != nil {
		return err
	}
	return tx.Commit()
}

// DashboardMetrics is the manager overview block.
type DashboardMetrics struct {
	TeamSentiment struct {
		Value  float64 `json:"value"`
		Change float64 `json:"change"`
	} `json:"team_sentiment"`
	FeedbackCollected  int     `json:"feedback_collected"`
	ActionItemsPending int     `json:"action_items_pending"`
	CompletionProgress float64 `json:"completion_progress"`
}

// Metrics recomputes the manager dashboard summary from current
// collection state. No caching; the collections are small.
func (e Engine) Metrics(ctx context.Context) (DashboardMetrics, error) {
	var m DashboardMetrics
	points, err := e.Repo.ListTrendPoints(ctx)
	if err != nil {
		return m, err
	}
	if n := len(points); n > 0 {
		m.TeamSentiment.Value = points[n-1].Value
		if n > 1 {
			m.TeamSentiment.Change = analytics.TrendDelta(points[n-2:])
		}
	}
	themes, err := e.Repo.ListThemes(ctx)
	if err != nil {
		return m, err
	}
	for _, t := range themes {
		m.FeedbackCollected += t.Mentions
	}
	items, err := e.Repo.ListActionItems(ctx)
	if err != nil {
		return m, err
	}
	m.ActionItemsPending = analytics.PendingCount(items)
	m.CompletionProgress = analytics.CompletionProgress(items)
	return m, nil
}

// TrendSummary bundles every derived number the trends view renders.
type TrendSummary struct {
	Points    []domain.TrendPoint     `json:"points"`
	Average   float64                 `json:"average"`
	Delta     float64                 `json:"delta"`
	Direction string                  `json:"direction"`
	Max       float64                 `json:"max"`
	Heights   []float64               `json:"heights"`
	Periods   []analytics.PeriodDelta `json:"periods"`
}

func (e Engine) Trends(ctx context.Context) (TrendSummary, error) {
	points, err := e.Repo.ListTrendPoints(ctx)
	if err != nil {
		return TrendSummary{}, err
	}
	delta := analytics.TrendDelta(points)
	return TrendSummary{
		Points:    points,
		Average:   analytics.AverageTrend(points),
		Delta:     delta,
		Direction: analytics.TrendDirection(delta),
		Max:       analytics.MaxValue(points),
		Heights:   analytics.NormalizedHeights(points),
		Periods:   analytics.PeriodDeltas(points, analytics.DefaultWindow),
	}, nil
}

// SessionStats summarizes the scheduled-sessions collection.
type SessionStats struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Pending   int `json:"pending"`
}

func (e Engine) SessionOverview(ctx context.Context) (SessionStats, []domain.ScheduledSession, error) {
	sessions, err := e.Repo.ListScheduledSessions(ctx)
	if err != nil {
		return SessionStats{}, nil, err
	}
	var stats SessionStats
	stats.Total = len(sessions)
	for _, s := range sessions {
		switch s.Status {
		case "confirmed":
			stats.Confirmed++
		default:
			stats.Pending++
		}
	}
	return stats, sessions, nil
}

// EmployeeSummary is the employee dashboard block.
type EmployeeSummary struct {
	PendingRequests   int `json:"pending_requests"`
	UrgentRequests    int `json:"urgent_requests"`
	PeerOpportunities int `json:"peer_opportunities"`
	FeedbackGiven     int `json:"feedback_given"`
}

func (e Engine) EmployeeOverview(ctx context.Context) (EmployeeSummary, error) {
	var sum EmployeeSummary
	reqs, err := e.Repo.ListFeedbackRequests(ctx)
	if err != nil {
		return sum, err
	}
	sum.PendingRequests = len(reqs)
	for _, q := range reqs {
		if q.Urgent {
			sum.UrgentRequests++
		}
	}
	opps, err := e.Repo.ListPeerOpportunities(ctx)
	if err != nil {
		return sum, err
	}
	sum.PeerOpportunities = len(opps)
	for _, typ := range []string{"feedback_request.responded", "peer_feedback.provided"} {
		n, err := e.Repo.CountEvents(ctx, typ)
		if err != nil {
			return sum, err
		}
		sum.FeedbackGiven += n
	}
	return sum, nil
}
