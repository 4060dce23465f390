package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"leadgps/internal/analytics"
	"leadgps/internal/domain"
	"leadgps/internal/engine"
	"leadgps/internal/rbac"
	"leadgps/internal/session"
)

func registerAuth(api huma.API, sessions session.Store) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body LoginResponse `json:"body"`
	}, error) {
		identity, token, err := sessions.Login(ctx, input.Body.Email, input.Body.Password, domain.Role(input.Body.Role))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LoginResponse `json:"body"`
		}{Body: LoginResponse{
			Token:    token,
			Identity: identity,
			Routes:   rbac.Routes(identity.Role),
			Landing:  rbac.DefaultRoute,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "Log out",
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := sessions.Logout(ctx, p.SessionID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current identity",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MeResponse `json:"body"`
	}, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body MeResponse `json:"body"`
		}{Body: MeResponse{
			Identity: p.Identity,
			Routes:   rbac.Routes(p.Identity.Role),
		}}, nil
	})
}

func registerView(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "view",
		Method:      http.MethodGet,
		Path:        "/view",
		Summary:     "Composed role view",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ViewResponse `json:"body"`
	}, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		out := ViewResponse{
			Role:    string(p.Identity.Role),
			Routes:  rbac.Routes(p.Identity.Role),
			Landing: rbac.DefaultRoute,
		}
		switch p.Identity.Role {
		case domain.RoleManager:
			v, err := managerView(ctx, e, p.Identity)
			if err != nil {
				return nil, handleError(err)
			}
			out.Manager = &v
		case domain.RoleEmployee:
			v, err := employeeView(ctx, e, p.Identity)
			if err != nil {
				return nil, handleError(err)
			}
			out.Employee = &v
		default:
			return nil, newAPIError(http.StatusForbidden, "forbidden", "unknown role", nil)
		}
		return &struct {
			Body ViewResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resolve-view",
		Method:      http.MethodGet,
		Path:        "/view/resolve",
		Summary:     "Resolve a path against the caller's routes",
	}, func(ctx context.Context, input *struct {
		Path string `query:"path" example:"/action-items"`
	}) (*struct {
		Body ResolveResponse `json:"body"`
	}, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		reqPath := input.Path
		if strings.TrimSpace(reqPath) == "" {
			reqPath = rbac.DefaultRoute
		}
		route := rbac.Resolve(p.Identity.Role, reqPath)
		state := "ok"
		if route == rbac.NotFound {
			// Unknown paths land on a terminal not-found state, never an error.
			state = rbac.NotFound
		}
		return &struct {
			Body ResolveResponse `json:"body"`
		}{Body: ResolveResponse{Path: reqPath, Route: route, State: state}}, nil
	})
}

func managerView(ctx context.Context, e engine.Engine, id domain.Identity) (ManagerView, error) {
	var v ManagerView
	v.Identity = id
	v.Routes = rbac.Routes(id.Role)
	metrics, err := e.Metrics(ctx)
	if err != nil {
		return v, err
	}
	v.Metrics = metrics
	items, err := actionItemsResponse(ctx, e)
	if err != nil {
		return v, err
	}
	v.Items = items
	if v.Nudges, err = e.Repo.ListActiveNudges(ctx); err != nil {
		return v, err
	}
	if v.Team, err = e.Repo.ListTeamMembers(ctx); err != nil {
		return v, err
	}
	if v.Trends, err = e.Trends(ctx); err != nil {
		return v, err
	}
	stats, sessions, err := e.SessionOverview(ctx)
	if err != nil {
		return v, err
	}
	v.Sessions = SessionsResponse{Stats: stats, Sessions: sessions}
	if v.Themes, err = e.Repo.ListThemes(ctx); err != nil {
		return v, err
	}
	return v, nil
}

func employeeView(ctx context.Context, e engine.Engine, id domain.Identity) (EmployeeView, error) {
	var v EmployeeView
	v.Identity = id
	v.Routes = rbac.Routes(id.Role)
	summary, err := e.EmployeeOverview(ctx)
	if err != nil {
		return v, err
	}
	v.Summary = summary
	if v.Requests, err = e.Repo.ListFeedbackRequests(ctx); err != nil {
		return v, err
	}
	if v.Opportunities, err = e.Repo.ListPeerOpportunities(ctx); err != nil {
		return v, err
	}
	return v, nil
}

func actionItemsResponse(ctx context.Context, e engine.Engine) (ActionItemsResponse, error) {
	items, err := e.Repo.ListActionItems(ctx)
	if err != nil {
		return ActionItemsResponse{}, err
	}
	return ActionItemsResponse{
		Items:    items,
		Progress: analytics.CompletionProgress(items),
		Pending:  analytics.PendingCount(items),
	}, nil
}

func registerActionItems(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-action-items",
		Method:      http.MethodGet,
		Path:        "/action-items",
		Summary:     "List action items",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ActionItemsResponse `json:"body"`
	}, error) {
		if _, authErr := requireRole(ctx, domain.RoleManager); authErr != nil {
			return nil, authErr
		}
		resp, err := actionItemsResponse(ctx, e)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActionItemsResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-action-item",
		Method:        http.MethodPost,
		Path:          "/action-items",
		Summary:       "Add action item",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusForbidden,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateActionItemRequest `json:"body"`
	}) (*struct {
		Body domain.ActionItem `json:"body"`
	}, error) {
		p, authErr := requireRole(ctx, domain.RoleManager)
		if authErr != nil {
			return nil, authErr
		}
		item, err := e.AddActionItem(ctx, engine.ActionItemForm{
			Title:    input.Body.Title,
			Priority: input.Body.Priority,
			DueDate:  input.Body.DueDate,
			Type:     input.Body.Type,
		}, p.Identity.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ActionItem `json:"body"`
		}{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-action-item",
		Method:      http.MethodPost,
		Path:        "/action-items/{id}/toggle",
		Summary:     "Toggle action item completion",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body domain.ActionItem `json:"body"`
	}, error) {
		p, authErr := requireRole(ctx, domain.RoleManager)
		if authErr != nil {
			return nil, authErr
		}
		item, err := e.ToggleActionItem(ctx, input.ID, p.Identity.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ActionItem `json:"body"`
		}{Body: item}, nil
	})
}

func registerNudges(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-nudges",
		Method:      http.MethodGet,
		Path:        "/nudges",
		Summary:     "List nudges",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		All bool `query:"all" doc:"Include dismissed nudges"`
	}) (*struct {
		Body NudgesResponse `json:"body"`
	}, error) {
		if _, authErr := requireRole(ctx, domain.RoleManager); authErr != nil {
			return nil, authErr
		}
		var (
			nudges []domain.Nudge
			err    error
		)
		if input.All {
			nudges, err = e.Repo.ListAllNudges(ctx)
		} else {
			nudges, err = e.Repo.ListActiveNudges(ctx)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body NudgesResponse `json:"body"`
		}{Body: NudgesResponse{Items: nudges}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "dismiss-nudge",
		Method:      http.MethodPost,
		Path:        "/nudges/{id}/dismiss",
		Summary:     "Dismiss a nudge",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body domain.Nudge `json:"body"`
	}, error) {
		p, authErr := requireRole(ctx, domain.RoleManager)
		if authErr != nil {
			return nil, authErr
		}
		n, err := e.DismissNudge(ctx, input.ID, p.Identity.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Nudge `json:"body"`
		}{Body: n}, nil
	})
}

func registerTeam(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-team",
		Method:      http.MethodGet,
		Path:        "/team",
		Summary:     "Team overview",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.TeamMember `json:"body"`
	}, error) {
		if _, authErr := requireRole(ctx, domain.RoleManager); authErr != nil {
			return nil, authErr
		}
		members, err := e.Repo.ListTeamMembers(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.TeamMember `json:"body"`
		}{Body: members}, nil
	})
}

func registerTrends(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-trends",
		Method:      http.MethodGet,
		Path:        "/trends",
		Summary:     "Sentiment trend points",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.TrendPoint `json:"body"`
	}, error) {
		if _, authErr := requireRole(ctx, domain.RoleManager); authErr != nil {
			return nil, authErr
		}
		points, err := e.Repo.ListTrendPoints(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.TrendPoint `json:"body"`
		}{Body: points}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "trend-summary",
		Method:      http.MethodGet,
		Path:        "/trends/summary",
		Summary:     "Derived trend analytics",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.TrendSummary `json:"body"`
	}, error) {
		if _, authErr := requireRole(ctx, domain.RoleManager); authErr != nil {
			return nil, authErr
		}
		summary, err := e.Trends(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.TrendSummary `json:"body"`
		}{Body: summary}, nil
	})
}

func registerMetrics(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard-metrics",
		Method:      http.MethodGet,
		Path:        "/metrics",
		Summary:     "Manager dashboard metrics",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.DashboardMetrics `json:"body"`
	}, error) {
		if _, authErr := requireRole(ctx, domain.RoleManager); authErr != nil {
			return nil, authErr
		}
		m, err := e.Metrics(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.DashboardMetrics `json:"body"`
		}{Body: m}, nil
	})
}

func registerSessions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/sessions",
		Summary:     "List scheduled 1:1 sessions",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SessionsResponse `json:"body"`
	}, error) {
		if _, authErr := requireRole(ctx, domain.RoleManager); authErr != nil {
			return nil, authErr
		}
		stats, sessions, err := e.SessionOverview(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SessionsResponse `json:"body"`
		}{Body: SessionsResponse{Stats: stats, Sessions: sessions}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "schedule-session",
		Method:        http.MethodPost,
		Path:          "/sessions",
		Summary:       "Schedule a 1:1 session",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusForbidden,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		Body ScheduleSessionRequest `json:"body"`
	}) (*struct {
		Body engine.SessionConfirmation `json:"body"`
	}, error) {
		p, authErr := requireRole(ctx, domain.RoleManager)
		if authErr != nil {
			return nil, authErr
		}
		conf, err := e.ScheduleSession(ctx, engine.SessionForm{
			TeamMember:  input.Body.TeamMember,
			Date:        input.Body.Date,
			Time:        input.Body.Time,
			SessionType: input.Body.SessionType,
		}, p.Identity.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.SessionConfirmation `json:"body"`
		}{Body: conf}, nil
	})
}

func registerThemes(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-themes",
		Method:      http.MethodGet,
		Path:        "/themes",
		Summary:     "Feedback themes",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Theme `json:"body"`
	}, error) {
		if _, authErr := requireRole(ctx, domain.RoleManager); authErr != nil {
			return nil, authErr
		}
		themes, err := e.Repo.ListThemes(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Theme `json:"body"`
		}{Body: themes}, nil
	})
}

func registerEmployee(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-feedback-requests",
		Method:      http.MethodGet,
		Path:        "/feedback-requests",
		Summary:     "Pending feedback requests",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.FeedbackRequest `json:"body"`
	}, error) {
		if _, authErr := requireRole(ctx, domain.RoleEmployee); authErr != nil {
			return nil, authErr
		}
		reqs, err := e.Repo.ListFeedbackRequests(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.FeedbackRequest `json:"body"`
		}{Body: reqs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "respond-feedback-request",
		Method:      http.MethodPost,
		Path:        "/feedback-requests/{id}/respond",
		Summary:     "Acknowledge a feedback request",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct{}, error) {
		p, authErr := requireRole(ctx, domain.RoleEmployee)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.AcknowledgeRequest(ctx, input.ID, p.Identity.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-peer-opportunities",
		Method:      http.MethodGet,
		Path:        "/peer-opportunities",
		Summary:     "Peer feedback opportunities",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.PeerOpportunity `json:"body"`
	}, error) {
		if _, authErr := requireRole(ctx, domain.RoleEmployee); authErr != nil {
			return nil, authErr
		}
		opps, err := e.Repo.ListPeerOpportunities(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.PeerOpportunity `json:"body"`
		}{Body: opps}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "provide-peer-feedback",
		Method:      http.MethodPost,
		Path:        "/peer-opportunities/{id}/feedback",
		Summary:     "Acknowledge a peer feedback opportunity",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct{}, error) {
		p, authErr := requireRole(ctx, domain.RoleEmployee)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.AcknowledgePeerFeedback(ctx, input.ID, p.Identity.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "my-summary",
		Method:      http.MethodGet,
		Path:        "/my/summary",
		Summary:     "Employee dashboard summary",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.EmployeeSummary `json:"body"`
	}, error) {
		if _, authErr := requireRole(ctx, domain.RoleEmployee); authErr != nil {
			return nil, authErr
		}
		sum, err := e.EmployeeOverview(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.EmployeeSummary `json:"body"`
		}{Body: sum}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Latest audit events",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
		EntityKind string `query:"entity_kind"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		if _, authErr := requirePrincipal(ctx); authErr != nil {
			return nil, authErr
		}
		events, err := e.Repo.LatestEvents(ctx, input.Limit, input.EntityKind)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: events}, nil
	})
}
