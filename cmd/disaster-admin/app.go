package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-disaster-admin/internal/client"
	"github.com/mr1hm/go-disaster-admin/internal/config"
	"github.com/mr1hm/go-disaster-admin/internal/controller"
	"github.com/mr1hm/go-disaster-admin/internal/export"
	"github.com/mr1hm/go-disaster-admin/internal/models"
	"github.com/mr1hm/go-disaster-admin/internal/refresh"
	"github.com/mr1hm/go-disaster-admin/internal/session"
	"github.com/mr1hm/go-disaster-admin/internal/transport"
)

const usage = `usage: disaster-admin <command> [flags]

commands:
  login -u user [-p password]      log in and remember the session
  logout                           forget the session
  whoami                           show the logged-in user
  dashboard                        overview of alerts, resources and incidents
  watch                            refresh the dashboard until interrupted
  alerts [create|status|delete]    list or change alerts
  resources [deploy|status|delete] list or change resources
  incidents [status] [-geojson]    list or change incidents
  teams [deploy|recall|delete]     list or change response teams
  plans [status]                   list or change evacuation plans
  messages [send]                  list or send messages
  weather [-location city]         current weather
  users                            list operators
`

type app struct {
	cfg     *config.Config
	in      *bufio.Reader
	out     io.Writer
	now     func() time.Time
	tc      *transport.Client
	api     *client.API
	store   *session.SQLiteStore
	session *session.Session
}

func newApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*app, error) {
	tc := transport.New(cfg.API.BaseURL,
		transport.WithTimeout(cfg.API.Timeout),
		transport.WithRateLimit(cfg.API.RateLimit),
	)
	api := client.New(tc)

	store, err := session.NewSQLiteStore(cfg.Session.Path)
	if err != nil {
		tc.Close()
		return nil, err
	}
	sess, err := session.New(ctx, store, api.Auth)
	if err != nil {
		store.Close()
		tc.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		in:      bufio.NewReader(in),
		out:     out,
		now:     time.Now,
		tc:      tc,
		api:     api,
		store:   store,
		session: sess,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.tc.Close()
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return flag.ErrHelp
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		if err := a.session.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Logged out.")
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	}

	user, err := a.session.Require()
	if err != nil {
		return fmt.Errorf("%w: run 'disaster-admin login' first", err)
	}

	switch cmd {
	case "whoami":
		fmt.Fprintf(a.out, "%s (%s), %s, %s\n", user.Name, user.Username, user.Role, user.Department)
		return nil
	case "dashboard":
		return a.dashboard(ctx)
	case "watch":
		return a.watch(ctx)
	case "alerts":
		return a.alerts(ctx, rest)
	case "resources":
		return a.resources(ctx, rest)
	case "incidents":
		return a.incidents(ctx, rest)
	case "teams":
		return a.teams(ctx, rest)
	case "plans":
		return a.plans(ctx, rest)
	case "messages":
		return a.messages(ctx, rest)
	case "weather":
		return a.weather(ctx, rest)
	case "users":
		return a.users(ctx)
	}

	fmt.Fprint(a.out, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.out)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" && *username != "" {
		fmt.Fprint(a.out, "Password: ")
		line, _ := a.in.ReadString('\n')
		*password = strings.TrimSpace(line)
	}

	u, err := a.session.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s.\n", u.Name)
	return nil
}

// editOptions returns the controller options for a command. Deletes are
// confirmed on stdin unless yes is set.
func (a *app) editOptions(yes bool) []controller.Option {
	confirm := controller.ConfirmFunc(func(_ context.Context, prompt string) bool {
		if yes {
			return true
		}
		fmt.Fprintf(a.out, "%s [y/N] ", prompt)
		line, _ := a.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	})
	return []controller.Option{controller.WithConfirmer(confirm)}
}

// filterable is the part of a list controller the list flags drive.
type filterable interface {
	FilterNames() []string
	SetSearch(text string)
	SetFilter(name, value string) error
}

type listFlags struct {
	fs      *flag.FlagSet
	search  *string
	filters map[string]*string
}

func newListFlags(name string, c filterable, out io.Writer) *listFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	lf := &listFlags{
		fs:      fs,
		search:  fs.String("search", "", "case-insensitive text search"),
		filters: map[string]*string{},
	}
	for _, f := range c.FilterNames() {
		lf.filters[f] = fs.String(f, controller.All, "filter by "+f)
	}
	return lf
}

func (lf *listFlags) apply(c filterable) {
	c.SetSearch(*lf.search)
	for name, v := range lf.filters {
		// Names come from FilterNames, so SetFilter cannot fail.
		_ = c.SetFilter(name, *v)
	}
}

// subcommand splits a leading verb off args.
func subcommand(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

// mutationFlags parses [-yes] followed by exactly n positional arguments.
func mutationFlags(name string, args []string, n int, out io.Writer) ([]string, bool, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if fs.NArg() != n {
		return nil, false, fmt.Errorf("%s: expected %d argument(s), got %d", name, n, fs.NArg())
	}
	return fs.Args(), *yes, nil
}

func (a *app) alerts(ctx context.Context, args []string) error {
	verb, args := subcommand(args)
	switch verb {
	case "":
		c := controller.NewAlerts(a.api.Alerts)
		lf := newListFlags("alerts", c, a.out)
		if err := lf.fs.Parse(args); err != nil {
			return err
		}
		if err := c.Load(ctx); err != nil {
			return err
		}
		lf.apply(c)
		renderAlerts(a.out, c.Filtered(), a.now())
		return nil

	case "create":
		c := controller.NewAlerts(a.api.Alerts)
		d := c.Form()
		fs := flag.NewFlagSet("alerts create", flag.ContinueOnError)
		fs.SetOutput(a.out)
		fs.StringVar(&d.Title, "title", "", "title (required)")
		fs.StringVar(&d.Location, "location", "", "location (required)")
		fs.StringVar(&d.Description, "description", "", "description")
		severity := fs.String("severity", string(d.Severity), "critical|high|medium|low")
		kind := fs.String("type", string(d.Type), "natural|man-made|health|security")
		if err := fs.Parse(args); err != nil {
			return err
		}
		d.Severity = models.Severity(*severity)
		d.Type = models.AlertType(*kind)
		c.SetForm(d)

		created, err := c.Submit(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created alert %s.\n", created.ID)
		return nil

	case "status":
		pos, _, err := mutationFlags("alerts status", args, 2, a.out)
		if err != nil {
			return err
		}
		c := controller.NewAlerts(a.api.Alerts)
		if err := c.Load(ctx); err != nil {
			return err
		}
		if err := c.UpdateStatus(ctx, pos[0], models.AlertStatus(pos[1])); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Alert %s is now %s.\n", pos[0], pos[1])
		return nil

	case "delete":
		pos, yes, err := mutationFlags("alerts delete", args, 1, a.out)
		if err != nil {
			return err
		}
		c := controller.NewAlerts(a.api.Alerts, a.editOptions(yes)...)
		if err := c.Load(ctx); err != nil {
			return err
		}
		if err := c.Remove(ctx, pos[0]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted alert %s.\n", pos[0])
		return nil
	}
	return fmt.Errorf("unknown alerts command %q", verb)
}

func (a *app) resources(ctx context.Context, args []string) error {
	verb, args := subcommand(args)
	switch verb {
	case "":
		c := controller.NewResources(a.api.Resources)
		lf := newListFlags("resources", c, a.out)
		if err := lf.fs.Parse(args); err != nil {
			return err
		}
		if err := c.Load(ctx); err != nil {
			return err
		}
		lf.apply(c)
		renderResources(a.out, c.Filtered(), c.StatusCounts())
		return nil

	case "deploy":
		pos, _, err := mutationFlags("resources deploy", args, 2, a.out)
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(pos[1])
		if err != nil {
			return fmt.Errorf("%w: quantity %q is not a number", models.ErrValidation, pos[1])
		}
		c := controller.NewResources(a.api.Resources)
		if err := c.Load(ctx); err != nil {
			return err
		}
		if err := c.Deploy(ctx, pos[0], qty); err != nil {
			return err
		}
		r, _ := c.Get(pos[0])
		fmt.Fprintf(a.out, "Deployed %d of %s, %d left.\n", qty, r.Name, r.Available)
		return nil

	case "status":
		pos, _, err := mutationFlags("resources status", args, 2, a.out)
		if err != nil {
			return err
		}
		c := controller.NewResources(a.api.Resources)
		if err := c.Load(ctx); err != nil {
			return err
		}
		return c.UpdateStatus(ctx, pos[0], models.ResourceStatus(pos[1]))

	case "delete":
		pos, yes, err := mutationFlags("resources delete", args, 1, a.out)
		if err != nil {
			return err
		}
		c := controller.NewResources(a.api.Resources, a.editOptions(yes)...)
		if err := c.Load(ctx); err != nil {
			return err
		}
		return c.Remove(ctx, pos[0])
	}
	return fmt.Errorf("unknown resources command %q", verb)
}

func (a *app) incidents(ctx context.Context, args []string) error {
	verb, args := subcommand(args)
	switch verb {
	case "":
		c := controller.NewIncidents(a.api.Incidents)
		lf := newListFlags("incidents", c, a.out)
		geojson := lf.fs.Bool("geojson", false, "print the filtered incidents as GeoJSON")
		if err := lf.fs.Parse(args); err != nil {
			return err
		}
		if err := c.Load(ctx); err != nil {
			return err
		}
		lf.apply(c)
		if *geojson {
			return export.WriteIncidents(a.out, c.Filtered())
		}
		renderIncidents(a.out, c.Filtered(), a.now())
		return nil

	case "status":
		pos, _, err := mutationFlags("incidents status", args, 2, a.out)
		if err != nil {
			return err
		}
		c := controller.NewIncidents(a.api.Incidents)
		if err := c.Load(ctx); err != nil {
			return err
		}
		if err := c.UpdateStatus(ctx, pos[0], models.IncidentStatus(pos[1])); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Incident %s is now %s.\n", pos[0], pos[1])
		return nil
	}
	return fmt.Errorf("unknown incidents command %q", verb)
}

func (a *app) teams(ctx context.Context, args []string) error {
	verb, args := subcommand(args)
	switch verb {
	case "":
		c := controller.NewTeams(a.api.Teams)
		lf := newListFlags("teams", c, a.out)
		if err := lf.fs.Parse(args); err != nil {
			return err
		}
		if err := c.Load(ctx); err != nil {
			return err
		}
		lf.apply(c)
		renderTeams(a.out, c.Filtered(), c.StatusCounts())
		return nil

	case "deploy":
		pos, _, err := mutationFlags("teams deploy", args, 2, a.out)
		if err != nil {
			return err
		}
		c := controller.NewTeams(a.api.Teams)
		if err := c.Load(ctx); err != nil {
			return err
		}
		if err := c.Deploy(ctx, pos[0], pos[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Team %s deployed to %s.\n", pos[0], pos[1])
		return nil

	case "recall":
		pos, _, err := mutationFlags("teams recall", args, 1, a.out)
		if err != nil {
			return err
		}
		c := controller.NewTeams(a.api.Teams)
		if err := c.Load(ctx); err != nil {
			return err
		}
		if err := c.Recall(ctx, pos[0]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Team %s recalled.\n", pos[0])
		return nil

	case "delete":
		pos, yes, err := mutationFlags("teams delete", args, 1, a.out)
		if err != nil {
			return err
		}
		c := controller.NewTeams(a.api.Teams, a.editOptions(yes)...)
		if err := c.Load(ctx); err != nil {
			return err
		}
		return c.Remove(ctx, pos[0])
	}
	return fmt.Errorf("unknown teams command %q", verb)
}

func (a *app) plans(ctx context.Context, args []string) error {
	verb, args := subcommand(args)
	switch verb {
	case "":
		c := controller.NewEvacuationPlans(a.api.EvacuationPlans)
		lf := newListFlags("plans", c, a.out)
		if err := lf.fs.Parse(args); err != nil {
			return err
		}
		if err := c.Load(ctx); err != nil {
			return err
		}
		lf.apply(c)
		renderPlans(a.out, c.Filtered(), a.now())
		return nil

	case "status":
		pos, _, err := mutationFlags("plans status", args, 2, a.out)
		if err != nil {
			return err
		}
		c := controller.NewEvacuationPlans(a.api.EvacuationPlans)
		if err := c.Load(ctx); err != nil {
			return err
		}
		return c.UpdateStatus(ctx, pos[0], models.PlanStatus(pos[1]))
	}
	return fmt.Errorf("unknown plans command %q", verb)
}

func (a *app) messages(ctx context.Context, args []string) error {
	c := controller.NewMessages(a.api.Messages)
	verb, args := subcommand(args)
	switch verb {
	case "":
		lf := newListFlags("messages", c, a.out)
		if err := lf.fs.Parse(args); err != nil {
			return err
		}
		if err := c.Load(ctx); err != nil {
			return err
		}
		lf.apply(c)
		renderMessages(a.out, c.Filtered(), a.now())
		return nil

	case "send":
		d := c.Form()
		fs := flag.NewFlagSet("messages send", flag.ContinueOnError)
		fs.SetOutput(a.out)
		fs.StringVar(&d.To, "to", "", "recipient (required)")
		fs.StringVar(&d.Subject, "subject", "", "subject (required)")
		fs.StringVar(&d.Content, "content", "", "body (required)")
		fs.StringVar(&d.Channel, "channel", d.Channel, "delivery channel")
		priority := fs.String("priority", string(d.Priority), "urgent|high|normal|low")
		if err := fs.Parse(args); err != nil {
			return err
		}
		d.Priority = models.Priority(*priority)
		c.SetForm(d)

		sent, err := c.Submit(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Message %s sent to %s.\n", sent.ID, sent.To)
		return nil
	}
	return fmt.Errorf("unknown messages command %q", verb)
}

func (a *app) weather(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("weather", flag.ContinueOnError)
	fs.SetOutput(a.out)
	location := fs.String("location", a.cfg.Weather.Location, "city, e.g. "+strings.Join(models.Locations[:3], ", "))
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := controller.NewWeather(a.api.Weather, *location)
	if err := w.Load(ctx, *location); err != nil && !errors.Is(err, controller.ErrWeatherFallback) {
		return err
	}
	renderWeather(a.out, w)
	return nil
}

func (a *app) users(ctx context.Context) error {
	users, err := a.api.Users.List(ctx)
	if err != nil {
		return err
	}
	renderUsers(a.out, users, a.now())
	return nil
}

func (a *app) dashboard(ctx context.Context) error {
	d := a.newDashboard()
	if err := d.Load(ctx); err != nil {
		return err
	}
	renderDashboard(a.out, d, a.now())
	return nil
}

func (a *app) newDashboard() *controller.Dashboard {
	return controller.NewDashboard(controller.DashboardSources{
		Alerts:    a.api.Alerts,
		Resources: a.api.Resources,
		Incidents: a.api.Incidents,
		Analytics: a.api.Analytics,
	})
}

// watch refreshes the dashboard and weather on the configured interval and
// redraws whenever either of them reports a load. It also serves /metrics
// when METRICS_ADDR is set.
func (a *app) watch(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var srv *http.Server
	if a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux}
		go func() {
			slog.Info("metrics listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	d := a.newDashboard()
	defer d.Close()
	w := controller.NewWeather(a.api.Weather, a.cfg.Weather.Location)
	defer w.Close()
	_, dashboardEvents := d.Subscribe()
	_, weatherEvents := w.Subscribe()

	s := refresh.NewScheduler(a.cfg.Refresh.Interval,
		refresh.Target{Name: "dashboard", Refresh: d.Load},
		refresh.Target{Name: "weather", Refresh: w.Refresh},
	)
	s.Start(ctx)

	redraw := func(e controller.Event) {
		slog.Debug("redraw", "kind", e.Kind, "event", e.Type)
		fmt.Fprint(a.out, "\033[H\033[2J")
		renderDashboard(a.out, d, a.now())
		fmt.Fprintln(a.out)
		renderWeather(a.out, w)
	}

	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case e := <-dashboardEvents:
			redraw(e)
		case e := <-weatherEvents:
			redraw(e)
		}
	}
	s.Stop()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
	return nil
}

// userMessage picks the text shown to the operator for err.
func userMessage(err error) string {
	var reqErr *transport.RequestError
	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.As(err, &reqErr):
		return reqErr.Message
	case errors.Is(err, transport.ErrNetworkUnavailable):
		return "cannot reach the server, check your connection and try again"
	case errors.Is(err, controller.ErrNotConfirmed):
		return "cancelled"
	}
	return err.Error()
}
