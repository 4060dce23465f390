package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leadgps/internal/db"
	"leadgps/internal/engine"
	"leadgps/internal/migrate"
	"leadgps/internal/repo"
	"leadgps/internal/seed"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	if err := seed.Apply(ctx, conn, seed.Builtin(), nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	eng := engine.New(conn)
	eng.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: ctx}
}

func TestAddActionItemAssignsNextID(t *testing.T) {
	env := newTestEnv(t)
	items, err := env.Engine.Repo.ListActionItems(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	var max int64
	for _, it := range items {
		if it.ID > max {
			max = it.ID
		}
	}
	item, err := env.Engine.AddActionItem(env.Ctx, engine.ActionItemForm{
		Title:   "Review Q3 goals",
		DueDate: "Next Friday",
	}, "tester")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.ID != max+1 {
		t.Fatalf("expected id %d, got %d", max+1, item.ID)
	}
	if item.Priority != "medium" || item.Type != "manual" || item.Completed {
		t.Fatalf("unexpected defaults: %+v", item)
	}
}

func TestAddActionItemValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.AddActionItem(env.Ctx, engine.ActionItemForm{Title: "   "}, "tester")
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Fatalf("expected title and due_date flagged, got %v", ve.Fields)
	}
	if !strings.Contains(err.Error(), "title") {
		t.Fatalf("error should name the missing field: %v", err)
	}
}

func TestToggleActionItemIsReversible(t *testing.T) {
	env := newTestEnv(t)
	item, err := env.Engine.AddActionItem(env.Ctx, engine.ActionItemForm{Title: "t", DueDate: "d"}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	toggled, err := env.Engine.ToggleActionItem(env.Ctx, item.ID, "tester")
	if err != nil || !toggled.Completed {
		t.Fatalf("first toggle: %v completed=%v", err, toggled.Completed)
	}
	toggled, err = env.Engine.ToggleActionItem(env.Ctx, item.ID, "tester")
	if err != nil || toggled.Completed {
		t.Fatalf("second toggle should restore open state: %v completed=%v", err, toggled.Completed)
	}
}

func TestToggleUnknownActionItem(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.ToggleActionItem(env.Ctx, 999, "tester")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDismissNudgeIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	nudges, err := env.Engine.Repo.ListActiveNudges(env.Ctx)
	if err != nil || len(nudges) == 0 {
		t.Fatalf("seed nudges: %v", err)
	}
	id := nudges[0].ID
	n, err := env.Engine.DismissNudge(env.Ctx, id, "tester")
	if err != nil || !n.Dismissed {
		t.Fatalf("dismiss: %v", err)
	}
	// Repeat dismiss is a no-op, not an error.
	n, err = env.Engine.DismissNudge(env.Ctx, id, "tester")
	if err != nil || !n.Dismissed {
		t.Fatalf("repeat dismiss: %v", err)
	}
	events, err := env.Engine.Repo.LatestEvents(env.Ctx, 50, "nudge")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("repeat dismiss must not write a second event, got %d", len(events))
	}
	active, err := env.Engine.Repo.ListActiveNudges(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range active {
		if a.ID == id {
			t.Fatalf("dismissed nudge %d still active", id)
		}
	}
}

func TestDismissUnknownNudge(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.DismissNudge(env.Ctx, 999, "tester")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestScheduleSession(t *testing.T) {
	env := newTestEnv(t)
	conf, err := env.Engine.ScheduleSession(env.Ctx, engine.SessionForm{
		TeamMember: "Sarah Chen",
		Date:       "2025-06-10",
		Time:       "10:00",
	}, "tester")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if conf.Session.SessionType != "Regular Check-in" {
		t.Fatalf("expected default session type, got %q", conf.Session.SessionType)
	}
	if conf.Session.Status != "pending" {
		t.Fatalf("expected pending status, got %q", conf.Session.Status)
	}
	for _, want := range []string{"Sarah Chen", "2025-06-10", "10:00", "Regular Check-in"} {
		if !strings.Contains(conf.Message, want) {
			t.Fatalf("confirmation should echo %q: %s", want, conf.Message)
		}
	}
}

func TestScheduleSessionValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.ScheduleSession(env.Ctx, engine.SessionForm{
		Date: "2025-06-10",
		Time: "10:00",
	}, "tester")
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Fields) != 1 || ve.Fields[0] != "team_member" {
		t.Fatalf("expected team_member flagged, got %v", ve.Fields)
	}
}

func TestScheduleSessionAllowsDoubleBooking(t *testing.T) {
	env := newTestEnv(t)
	form := engine.SessionForm{TeamMember: "Sarah Chen", Date: "2025-06-10", Time: "10:00"}
	if _, err := env.Engine.ScheduleSession(env.Ctx, form, "tester"); err != nil {
		t.Fatal(err)
	}
	// No conflict detection: the same slot books twice.
	if _, err := env.Engine.ScheduleSession(env.Ctx, form, "tester"); err != nil {
		t.Fatalf("double booking should succeed: %v", err)
	}
}

func TestAcknowledgeRequest(t *testing.T) {
	env := newTestEnv(t)
	reqs, err := env.Engine.Repo.ListFeedbackRequests(env.Ctx)
	if err != nil || len(reqs) == 0 {
		t.Fatalf("seed requests: %v", err)
	}
	if err := env.Engine.AcknowledgeRequest(env.Ctx, reqs[0].ID, "tester"); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	// The request itself is reference data and stays listed.
	after, err := env.Engine.Repo.ListFeedbackRequests(env.Ctx)
	if err != nil || len(after) != len(reqs) {
		t.Fatalf("requests changed: before=%d after=%d err=%v", len(reqs), len(after), err)
	}
	if err := env.Engine.AcknowledgeRequest(env.Ctx, 999, "tester"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEmployeeOverviewCountsGivenFeedback(t *testing.T) {
	env := newTestEnv(t)
	before, err := env.Engine.EmployeeOverview(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if before.FeedbackGiven != 0 {
		t.Fatalf("fresh workspace feedback_given = %d", before.FeedbackGiven)
	}
	reqs, _ := env.Engine.Repo.ListFeedbackRequests(env.Ctx)
	if err := env.Engine.AcknowledgeRequest(env.Ctx, reqs[0].ID, "tester"); err != nil {
		t.Fatal(err)
	}
	opps, _ := env.Engine.Repo.ListPeerOpportunities(env.Ctx)
	if err := env.Engine.AcknowledgePeerFeedback(env.Ctx, opps[0].ID, "tester"); err != nil {
		t.Fatal(err)
	}
	after, err := env.Engine.EmployeeOverview(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after.FeedbackGiven != 2 {
		t.Fatalf("feedback_given = %d, want 2", after.FeedbackGiven)
	}
	if after.PendingRequests != before.PendingRequests {
		t.Fatalf("acknowledging must not consume the request list")
	}
}

func TestMetricsFromSeed(t *testing.T) {
	env := newTestEnv(t)
	m, err := env.Engine.Metrics(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if m.TeamSentiment.Value != 8.5 {
		t.Fatalf("sentiment value: got %v", m.TeamSentiment.Value)
	}
	if m.TeamSentiment.Change != 0.3 {
		t.Fatalf("sentiment change: got %v", m.TeamSentiment.Change)
	}
	if m.ActionItemsPending == 0 {
		t.Fatalf("expected pending items from seed")
	}
}

func TestTrendsFromSeed(t *testing.T) {
	env := newTestEnv(t)
	s, err := env.Engine.Trends(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Average != 8.0 {
		t.Fatalf("average: got %v", s.Average)
	}
	if s.Delta != 1.3 {
		t.Fatalf("delta: got %v", s.Delta)
	}
	if s.Direction != "up" {
		t.Fatalf("direction: got %q", s.Direction)
	}
	if len(s.Periods) != 3 {
		t.Fatalf("periods: got %d", len(s.Periods))
	}
}
