package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"leadgps/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// --- action items ---

func (r Repo) ListActionItems(ctx context.Context) ([]domain.ActionItem, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,title,priority,due_date,type,completed,created_at FROM action_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.ActionItem
	for rows.Next() {
		var it domain.ActionItem
		if err := rows.Scan(&it.ID, &it.Title, &it.Priority, &it.DueDate, &it.Type, &it.Completed, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r Repo) GetActionItem(ctx context.Context, id int64) (domain.ActionItem, error) {
	var it domain.ActionItem
	err := r.DB.QueryRowContext(ctx, `SELECT id,title,priority,due_date,type,completed,created_at FROM action_items WHERE id=?`, id).
		Scan(&it.ID, &it.Title, &it.Priority, &it.DueDate, &it.Type, &it.Completed, &it.CreatedAt)
	if err == sql.ErrNoRows {
		return it, ErrNotFound
	}
	return it, err
}

// InsertActionItem assigns id = max(existing)+1, or 1 when the collection
// is empty. Clients rely on these small sequential ids.
func (r Repo) InsertActionItem(ctx context.Context, tx *sql.Tx, it domain.ActionItem) (domain.ActionItem, error) {
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0)+1 FROM action_items`)
	if err := row.Scan(&it.ID); err != nil {
		return it, err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO action_items(id,title,priority,due_date,type,completed,created_at) VALUES (?,?,?,?,?,?,?)`,
		it.ID, it.Title, it.Priority, it.DueDate, it.Type, it.Completed, it.CreatedAt)
	return it, err
}

func (r Repo) SetActionItemCompleted(ctx context.Context, tx *sql.Tx, id int64, completed bool) error {
	res, err := tx.ExecContext(ctx, `UPDATE action_items SET completed=? WHERE id=?`, completed, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) CountActionItems(ctx context.Context) (total, completed int, err error) {
	err = r.DB.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(completed),0) FROM action_items`).Scan(&total, &completed)
	return total, completed, err
}

// --- nudges ---

// ListActiveNudges returns non-dismissed nudges. Dismissed rows stay in
// the table so the log keeps its history.
func (r Repo) ListActiveNudges(ctx context.Context) ([]domain.Nudge, error) {
	return r.listNudges(ctx, `SELECT id,type,title,message,action,priority,icon,dismissed FROM nudges WHERE dismissed=0 ORDER BY id`)
}

func (r Repo) ListAllNudges(ctx context.Context) ([]domain.Nudge, error) {
	return r.listNudges(ctx, `SELECT id,type,title,message,action,priority,icon,dismissed FROM nudges ORDER BY id`)
}

func (r Repo) listNudges(ctx context.Context, query string) ([]domain.Nudge, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var nudges []domain.Nudge
	for rows.Next() {
		var n domain.Nudge
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Action, &n.Priority, &n.Icon, &n.Dismissed); err != nil {
			return nil, err
		}
		nudges = append(nudges, n)
	}
	return nudges, rows.Err()
}

func (r Repo) GetNudge(ctx context.Context, id int64) (domain.Nudge, error) {
	var n domain.Nudge
	err := r.DB.QueryRowContext(ctx, `SELECT id,type,title,message,action,priority,icon,dismissed FROM nudges WHERE id=?`, id).
		Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Action, &n.Priority, &n.Icon, &n.Dismissed)
	if err == sql.ErrNoRows {
		return n, ErrNotFound
	}
	return n, err
}

func (r Repo) MarkNudgeDismissed(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, `UPDATE nudges SET dismissed=1 WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- team members ---

func (r Repo) ListTeamMembers(ctx context.Context) ([]domain.TeamMember, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,role,sentiment,recent_feedback,strengths_json,growth_areas_json,initials FROM team_members ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		var strengths, growth string
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Sentiment, &m.RecentFeedback, &strengths, &growth, &m.Initials); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(strengths), &m.Strengths); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(growth), &m.GrowthAreas); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// --- trend points ---

// ListTrendPoints returns the series in time-ascending seed order.
func (r Repo) ListTrendPoints(ctx context.Context) ([]domain.TrendPoint, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT month,value FROM trend_points ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var points []domain.TrendPoint
	for rows.Next() {
		var p domain.TrendPoint
		if err := rows.Scan(&p.Month, &p.Value); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// --- scheduled sessions ---

func (r Repo) ListScheduledSessions(ctx context.Context) ([]domain.ScheduledSession, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,team_member,date,time,session_type,status,created_at FROM scheduled_sessions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []domain.ScheduledSession
	for rows.Next() {
		var s domain.ScheduledSession
		if err := rows.Scan(&s.ID, &s.TeamMember, &s.Date, &s.Time, &s.SessionType, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r Repo) InsertScheduledSession(ctx context.Context, tx *sql.Tx, s domain.ScheduledSession) (domain.ScheduledSession, error) {
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0)+1 FROM scheduled_sessions`)
	if err := row.Scan(&s.ID); err != nil {
		return s, err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO scheduled_sessions(id,team_member,date,time,session_type,status,created_at) VALUES (?,?,?,?,?,?,?)`,
		s.ID, s.TeamMember, s.Date, s.Time, s.SessionType, s.Status, s.CreatedAt)
	return s, err
}

// --- feedback requests / peer opportunities ---

func (r Repo) ListFeedbackRequests(ctx context.Context) ([]domain.FeedbackRequest, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,requester,topic,due_date,urgent FROM feedback_requests ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reqs []domain.FeedbackRequest
	for rows.Next() {
		var q domain.FeedbackRequest
		if err := rows.Scan(&q.ID, &q.Requester, &q.Topic, &q.DueDate, &q.Urgent); err != nil {
			return nil, err
		}
		reqs = append(reqs, q)
	}
	return reqs, rows.Err()
}

func (r Repo) GetFeedbackRequest(ctx context.Context, id int64) (domain.FeedbackRequest, error) {
	var q domain.FeedbackRequest
	err := r.DB.QueryRowContext(ctx, `SELECT id,requester,topic,due_date,urgent FROM feedback_requests WHERE id=?`, id).
		Scan(&q.ID, &q.Requester, &q.Topic, &q.DueDate, &q.Urgent)
	if err == sql.ErrNoRows {
		return q, ErrNotFound
	}
	return q, err
}

func (r Repo) ListPeerOpportunities(ctx context.Context) ([]domain.PeerOpportunity, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,colleague,project,collaboration FROM peer_opportunities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var opps []domain.PeerOpportunity
	for rows.Next() {
		var o domain.PeerOpportunity
		if err := rows.Scan(&o.ID, &o.Colleague, &o.Project, &o.Collaboration); err != nil {
			return nil, err
		}
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

func (r Repo) GetPeerOpportunity(ctx context.Context, id int64) (domain.PeerOpportunity, error) {
	var o domain.PeerOpportunity
	err := r.DB.QueryRowContext(ctx, `SELECT id,colleague,project,collaboration FROM peer_opportunities WHERE id=?`, id).
		Scan(&o.ID, &o.Colleague, &o.Project, &o.Collaboration)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	return o, err
}

// --- themes ---

func (r Repo) ListThemes(ctx context.Context) ([]domain.Theme, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT theme,mentions,trend FROM themes ORDER BY mentions DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var themes []domain.Theme
	for rows.Next() {
		var t domain.Theme
		if err := rows.Scan(&t.Theme, &t.Mentions, &t.Trend); err != nil {
			return nil, err
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

// --- users ---

func (r Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.DB.QueryRowContext(ctx, `SELECT id,email,name,role,department FROM users WHERE email=?`, strings.ToLower(email)).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Department)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

func (r Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,email,name,role,department FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Department); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- events ---

func (r Repo) LatestEvents(ctx context.Context, limit int, entityKind string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events`
	args := []any{}
	if entityKind != "" {
		query += ` WHERE entity_kind=?`
		args = append(args, entityKind)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var evts []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		evts = append(evts, e)
	}
	return evts, rows.Err()
}

func (r Repo) CountEvents(ctx context.Context, evtType string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE type=?`, evtType).Scan(&n)
	return n, err
}
