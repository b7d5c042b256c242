package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/mr1hm/go-disaster-admin/internal/metrics"
	"github.com/mr1hm/go-disaster-admin/internal/models"
	"github.com/mr1hm/go-disaster-admin/internal/worker"
)

// Dashboard source names as used in SourceErrors.
const (
	SourceAlerts    = "alerts"
	SourceResources = "resources"
	SourceIncidents = "incidents"
	SourceAnalytics = "analytics"
)

type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

type AnalyticsGetter interface {
	Get(ctx context.Context) (models.Analytics, error)
}

type DashboardSources struct {
	Alerts    Lister[models.Alert]
	Resources Lister[models.Resource]
	Incidents Lister[models.Incident]
	Analytics AnalyticsGetter
}

// Dashboard is the overview page. It fetches its four sources concurrently
// and uses whatever succeeded.
type Dashboard struct {
	src    DashboardSources
	events *Broadcaster

	mu         sync.Mutex
	alerts     []models.Alert
	resources  []models.Resource
	incidents  []models.Incident
	analytics  *models.Analytics
	sourceErrs map[string]error
	err        error
	pending    int
	gen        uint64
}

func NewDashboard(src DashboardSources) *Dashboard {
	return &Dashboard{
		src:        src,
		events:     NewBroadcaster(),
		alerts:     []models.Alert{},
		resources:  []models.Resource{},
		incidents:  []models.Incident{},
		sourceErrs: map[string]error{},
	}
}

// Load fetches all sources and waits for every one of them. A failed source
// contributes an empty list (or no analytics) and is recorded in
// SourceErrors. Only when every source fails is the previous state kept and
// an error returned.
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.pending++
	d.mu.Unlock()

	var (
		alerts    = []models.Alert{}
		resources = []models.Resource{}
		incidents = []models.Incident{}
		analytics *models.Analytics
		errsMu    sync.Mutex
		errs      = map[string]error{}
	)
	record := func(source string, err error) error {
		errsMu.Lock()
		errs[source] = err
		errsMu.Unlock()
		slog.Warn("dashboard source failed", "source", source, "error", err)
		return fmt.Errorf("%s: %w", source, err)
	}

	failures := worker.Run(ctx, 4,
		func(ctx context.Context) error {
			v, err := d.src.Alerts.List(ctx)
			if err != nil {
				return record(SourceAlerts, err)
			}
			alerts = v
			return nil
		},
		func(ctx context.Context) error {
			v, err := d.src.Resources.List(ctx)
			if err != nil {
				return record(SourceResources, err)
			}
			resources = v
			return nil
		},
		func(ctx context.Context) error {
			v, err := d.src.Incidents.List(ctx)
			if err != nil {
				return record(SourceIncidents, err)
			}
			incidents = v
			return nil
		},
		func(ctx context.Context) error {
			v, err := d.src.Analytics.Get(ctx)
			if err != nil {
				return record(SourceAnalytics, err)
			}
			analytics = &v
			return nil
		},
	)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending--
	if gen != d.gen {
		metrics.ObserveLoad("dashboard", "stale")
		return nil
	}
	if len(failures) == 4 {
		d.err = errors.Join(failures...)
		metrics.ObserveLoad("dashboard", "error")
		d.notify(EventFailed)
		return fmt.Errorf("load dashboard: %w", d.err)
	}

	d.alerts = nonNil(alerts)
	d.resources = nonNil(resources)
	d.incidents = nonNil(incidents)
	d.analytics = analytics
	d.sourceErrs = errs
	d.err = nil
	metrics.ObserveLoad("dashboard", "applied")
	d.notify(EventLoaded)
	return nil
}

// Subscribe delivers an event after every applied or failed Load.
func (d *Dashboard) Subscribe() (uint64, <-chan Event) {
	return d.events.Subscribe()
}

func (d *Dashboard) Unsubscribe(id uint64) {
	d.events.Unsubscribe(id)
}

func (d *Dashboard) Close() {
	d.events.Close()
}

func (d *Dashboard) notify(t EventType) {
	d.events.Broadcast(Event{Kind: "dashboard", Type: t})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Err is set only when the last load failed for every source.
func (d *Dashboard) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// SourceErrors returns the failures of the last applied load by source name.
func (d *Dashboard) SourceErrors() map[string]error {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]error, len(d.sourceErrs))
	for k, v := range d.sourceErrs {
		out[k] = v
	}
	return out
}

func (d *Dashboard) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending > 0
}

func (d *Dashboard) Alerts() []models.Alert {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alerts
}

func (d *Dashboard) Resources() []models.Resource {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resources
}

func (d *Dashboard) Incidents() []models.Incident {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.incidents
}

func (d *Dashboard) Analytics() (models.Analytics, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.analytics == nil {
		return models.Analytics{}, false
	}
	return *d.analytics, true
}

func (d *Dashboard) ActiveAlerts() []models.Alert {
	return activeAlerts(d.Alerts())
}

// RecentAlerts returns up to n active alerts in list order.
func (d *Dashboard) RecentAlerts(n int) []models.Alert {
	return head(d.ActiveAlerts(), n)
}

func (d *Dashboard) RecentIncidents(n int) []models.Incident {
	return head(d.Incidents(), n)
}

func (d *Dashboard) OpenIncidents() int {
	return lo.CountBy(d.Incidents(), func(i models.Incident) bool { return i.Status.Open() })
}

// AvailableResources sums the available units over all resources.
func (d *Dashboard) AvailableResources() int {
	return lo.SumBy(d.Resources(), func(r models.Resource) int { return r.Available })
}

func (d *Dashboard) TotalResources() int {
	return lo.SumBy(d.Resources(), func(r models.Resource) int { return r.Quantity })
}

func activeAlerts(alerts []models.Alert) []models.Alert {
	return lo.Filter(alerts, func(a models.Alert, _ int) bool { return a.Status == models.AlertStatusActive })
}

func head[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	return s[:min(n, len(s))]
}
