package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"leadgps/internal/config"
	"leadgps/internal/db"
	"leadgps/internal/domain"
	"leadgps/internal/engine"
	"leadgps/internal/migrate"
	"leadgps/internal/rbac"
	"leadgps/internal/seed"
	"leadgps/internal/server"
	"leadgps/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "lg",
	Short: "Leadership GPS CLI",
	Long: `Leadership GPS is a role-gated dashboard core for people leadership.
- Workspace: your .leadgps directory holding the database.
- Identities: any non-empty email/password logs in; the role picks the surface.
- Managers see team sentiment, trends, nudges, action items, and 1:1 sessions.
- Employees see feedback requests and peer feedback opportunities.
- Event log: diary of mutations, view with 'lg log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("LEADGPS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(itemsCmd())
	rootCmd.AddCommand(nudgesCmd())
	rootCmd.AddCommand(teamCmd())
	rootCmd.AddCommand(trendsCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(routesCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage workspace config"}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default leadgps.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	}
	return cmd
}

func loginCmd() *cobra.Command {
	var email, password, role string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s session.Store) error {
				identity, token, err := s.Login(ctx, email, password, domain.Role(role))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"token":    token,
						"identity": identity,
						"routes":   rbac.Routes(identity.Role),
					})
				}
				fmt.Printf("Logged in as %s (%s, %s)\n", identity.Name, identity.Email, identity.Role)
				fmt.Println(token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&role, "role", "manager", "role (manager or employee)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Workspace overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.Metrics(ctx)
				if err != nil {
					return err
				}
				stats, _, err := e.SessionOverview(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"metrics": m, "sessions": stats})
				}
				fmt.Printf("Team sentiment: %.1f (%+.1f)\n", m.TeamSentiment.Value, m.TeamSentiment.Change)
				fmt.Printf("Feedback collected: %d\n", m.FeedbackCollected)
				fmt.Printf("Action items pending: %d (%.0f%% complete)\n", m.ActionItemsPending, m.CompletionProgress)
				fmt.Printf("Sessions: %d total, %d confirmed, %d pending\n", stats.Total, stats.Confirmed, stats.Pending)
				return nil
			})
		},
	}
	return cmd
}

func itemsCmd() *cobra.Command {
	items := &cobra.Command{
		Use:   "items",
		Short: "Manage action items",
		Long:  "Action items are the manager's follow-ups. New items are appended with the next free id; completion toggles back and forth.",
	}
	items.AddCommand(itemsListCmd())
	items.AddCommand(itemsAddCmd())
	items.AddCommand(itemsToggleCmd())
	return items
}

func itemsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List action items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListActionItems(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				t := newTable()
				t.AppendHeader(table.Row{"ID", "Title", "Priority", "Due", "Type", "Done"})
				for _, it := range items {
					done := ""
					if it.Completed {
						done = "x"
					}
					t.AppendRow(table.Row{it.ID, it.Title, it.Priority, it.DueDate, it.Type, done})
				}
				t.Render()
				return nil
			})
		},
	}
	return cmd
}

func itemsAddCmd() *cobra.Command {
	var form engine.ActionItemForm
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an action item",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				item, err := e.AddActionItem(ctx, form, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(item)
			})
		},
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "title")
	cmd.Flags().StringVar(&form.Priority, "priority", "medium", "priority (high, medium, low)")
	cmd.Flags().StringVar(&form.DueDate, "due", "", "due date")
	cmd.Flags().StringVar(&form.Type, "type", "manual", "item type")
	return cmd
}

func itemsToggleCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Toggle an item's completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				item, err := e.ToggleActionItem(ctx, id, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(item)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "item id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func nudgesCmd() *cobra.Command {
	nudges := &cobra.Command{Use: "nudges", Short: "Manage smart nudges"}
	nudges.AddCommand(nudgesListCmd())
	nudges.AddCommand(nudgesDismissCmd())
	return nudges
}

func nudgesListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active nudges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var (
					nudges []domain.Nudge
					err    error
				)
				if all {
					nudges, err = e.Repo.ListAllNudges(ctx)
				} else {
					nudges, err = e.Repo.ListActiveNudges(ctx)
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(nudges)
				}
				t := newTable()
				t.AppendHeader(table.Row{"ID", "Type", "Priority", "Title", "Dismissed"})
				for _, n := range nudges {
					dismissed := ""
					if n.Dismissed {
						dismissed = "x"
					}
					t.AppendRow(table.Row{n.ID, n.Type, n.Priority, n.Title, dismissed})
				}
				t.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include dismissed nudges")
	return cmd
}

func nudgesDismissCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "dismiss",
		Short: "Dismiss a nudge",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				n, err := e.DismissNudge(ctx, id, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(n)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "nudge id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func teamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Team overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				members, err := e.Repo.ListTeamMembers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(members)
				}
				t := newTable()
				t.AppendHeader(table.Row{"Name", "Role", "Sentiment", "Strengths"})
				for _, m := range members {
					t.AppendRow(table.Row{m.Name, m.Role, fmt.Sprintf("%.1f", m.Sentiment), strings.Join(m.Strengths, ", ")})
				}
				t.Render()
				return nil
			})
		},
	}
	return cmd
}

func trendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Sentiment trend summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				summary, err := e.Trends(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(summary)
				}
				t := newTable()
				t.AppendHeader(table.Row{"Month", "Value", "Delta"})
				for _, p := range summary.Periods {
					delta := "-"
					if p.HasPrior {
						delta = fmt.Sprintf("%+.1f", p.Delta)
					}
					t.AppendRow(table.Row{p.Month, fmt.Sprintf("%.1f", p.Value), delta})
				}
				t.Render()
				fmt.Printf("Average %.1f, overall %+.1f (%s)\n", summary.Average, summary.Delta, summary.Direction)
				return nil
			})
		},
	}
	return cmd
}

func sessionsCmd() *cobra.Command {
	sessions := &cobra.Command{Use: "sessions", Short: "Manage 1:1 sessions"}
	sessions.AddCommand(sessionsListCmd())
	sessions.AddCommand(sessionsScheduleCmd())
	return sessions
}

func sessionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				stats, sessions, err := e.SessionOverview(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"stats": stats, "sessions": sessions})
				}
				t := newTable()
				t.AppendHeader(table.Row{"ID", "Team member", "Date", "Time", "Type", "Status"})
				for _, s := range sessions {
					t.AppendRow(table.Row{s.ID, s.TeamMember, s.Date, s.Time, s.SessionType, s.Status})
				}
				t.Render()
				fmt.Printf("%d total, %d confirmed, %d pending\n", stats.Total, stats.Confirmed, stats.Pending)
				return nil
			})
		},
	}
	return cmd
}

func sessionsScheduleCmd() *cobra.Command {
	var form engine.SessionForm
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a 1:1 session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				conf, err := e.ScheduleSession(ctx, form, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(conf)
				}
				fmt.Println(conf.Message)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&form.TeamMember, "member", "", "team member name")
	cmd.Flags().StringVar(&form.Date, "date", "", "date")
	cmd.Flags().StringVar(&form.Time, "time", "", "time")
	cmd.Flags().StringVar(&form.SessionType, "type", "", "session type (defaults to Regular Check-in)")
	return cmd
}

func routesCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Show the route table for a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := domain.Role(role)
			if !r.Valid() {
				return fmt.Errorf("invalid role %q", role)
			}
			return printJSON(rbac.Routes(r))
		},
	}
	cmd.Flags().StringVar(&role, "role", "manager", "role (manager or employee)")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Event log"}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var entityKind string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, entityKind)
				if err != nil {
					return err
				}
				return printJSON(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind filter")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if basePath == "" {
				basePath = cfg.Server.BasePath
			}
			conn, err := openWorkspace(cmd.Context(), workspace)
			if err != nil {
				return err
			}
			defer conn.Close()
			e := engine.New(conn)
			sessions := session.New(conn, cfg.Auth.JWTSecret, cfg.SessionTTL())
			handler, err := server.New(server.Config{Engine: e, Sessions: sessions, BasePath: basePath})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Leadership GPS API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (defaults from config)")
	return cmd
}

// --- helpers ---

func openWorkspace(ctx context.Context, workspace string) (*sql.DB, error) {
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if err := seedWorkspace(ctx, workspace, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	conn, err := openWorkspace(ctx, viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, engine.New(conn))
}

func withStore(ctx context.Context, fn func(context.Context, session.Store) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	conn, err := openWorkspace(ctx, workspace)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, session.New(conn, cfg.Auth.JWTSecret, cfg.SessionTTL()))
}

func seedWorkspace(ctx context.Context, workspace string, conn *sql.DB) error {
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	profile := cfg.Seed.Profile
	if profile != "" {
		profile = filepath.Join(workspace, profile)
	}
	p, err := seed.LoadProfile(profile)
	if err != nil {
		return err
	}
	return seed.Apply(ctx, conn, p, nil)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}
