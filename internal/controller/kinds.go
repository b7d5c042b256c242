package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mr1hm/go-disaster-admin/internal/models"
)

var alertKind = Kind[models.Alert, models.AlertDraft]{
	Name:         "alerts",
	SearchFields: func(a models.Alert) []string { return []string{a.Title, a.Location} },
	Filters: map[string]func(models.Alert) string{
		"severity": func(a models.Alert) string { return string(a.Severity) },
		"status":   func(a models.Alert) string { return string(a.Status) },
	},
	NewDraft: models.NewAlertDraft,
}

var resourceKind = Kind[models.Resource, models.ResourceDraft]{
	Name:         "resources",
	SearchFields: func(r models.Resource) []string { return []string{r.Name, r.Location} },
	Filters: map[string]func(models.Resource) string{
		"type":   func(r models.Resource) string { return string(r.Type) },
		"status": func(r models.Resource) string { return string(r.Status) },
	},
	NewDraft: models.NewResourceDraft,
}

var incidentKind = Kind[models.Incident, models.IncidentDraft]{
	Name:         "incidents",
	SearchFields: func(i models.Incident) []string { return []string{i.Title, i.Location} },
	Filters: map[string]func(models.Incident) string{
		"severity": func(i models.Incident) string { return string(i.Severity) },
		"status":   func(i models.Incident) string { return string(i.Status) },
	},
	NewDraft: models.NewIncidentDraft,
}

var teamKind = Kind[models.Team, models.TeamDraft]{
	Name:         "teams",
	SearchFields: func(t models.Team) []string { return []string{t.Name, t.Leader} },
	Filters: map[string]func(models.Team) string{
		"type":   func(t models.Team) string { return string(t.Type) },
		"status": func(t models.Team) string { return string(t.Status) },
	},
	NewDraft: models.NewTeamDraft,
}

var planKind = Kind[models.EvacuationPlan, models.EvacuationPlanDraft]{
	Name:         "evacuation-plans",
	SearchFields: func(p models.EvacuationPlan) []string { return []string{p.Name, p.Area} },
	Filters: map[string]func(models.EvacuationPlan) string{
		"status": func(p models.EvacuationPlan) string { return string(p.Status) },
	},
	NewDraft: models.NewEvacuationPlanDraft,
}

var messageKind = Kind[models.Message, models.MessageDraft]{
	Name:         "messages",
	SearchFields: func(m models.Message) []string { return []string{m.Subject, m.Content} },
	Filters: map[string]func(models.Message) string{
		"priority": func(m models.Message) string { return string(m.Priority) },
		"status":   func(m models.Message) string { return string(m.Status) },
	},
	NewDraft: models.NewMessageDraft,
}

// Alerts patches status changes locally before the server confirms them.
type Alerts struct {
	*Editable[models.Alert, models.AlertDraft, models.AlertPatch]
}

func NewAlerts(acc Updater[models.Alert, models.AlertDraft, models.AlertPatch], opts ...Option) *Alerts {
	return &Alerts{NewEditable(alertKind, acc, Optimistic(models.Alert.Patched), opts...)}
}

func (a *Alerts) UpdateStatus(ctx context.Context, id string, status models.AlertStatus) error {
	return a.UpdateFields(ctx, id, models.AlertPatch{Status: &status})
}

// Active returns the alerts whose status is active, in item order.
func (a *Alerts) Active() []models.Alert {
	return activeAlerts(a.Items())
}

type Resources struct {
	*Editable[models.Resource, models.ResourceDraft, models.ResourcePatch]
}

func NewResources(acc Updater[models.Resource, models.ResourceDraft, models.ResourcePatch], opts ...Option) *Resources {
	return &Resources{NewEditable(resourceKind, acc, ReloadAfterWrite[models.Resource, models.ResourcePatch](), opts...)}
}

func (r *Resources) UpdateStatus(ctx context.Context, id string, status models.ResourceStatus) error {
	return r.UpdateFields(ctx, id, models.ResourcePatch{Status: &status})
}

// Deploy takes qty units of id out of the available pool.
func (r *Resources) Deploy(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: deploy quantity must be positive", models.ErrValidation)
	}
	res, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("deploy resources %q: %w", id, ErrUnknownID)
	}
	return r.UpdateFields(ctx, id, res.DeployPatch(qty))
}

// StatusCounts tallies resources by known status; unknown statuses are not counted.
func (r *Resources) StatusCounts() map[models.ResourceStatus]int {
	known := lo.Filter(r.Items(), func(res models.Resource, _ int) bool { return res.Status.Valid() })
	return lo.CountValuesBy(known, func(res models.Resource) models.ResourceStatus { return res.Status })
}

type Incidents struct {
	*Editable[models.Incident, models.IncidentDraft, models.IncidentPatch]
}

func NewIncidents(acc Updater[models.Incident, models.IncidentDraft, models.IncidentPatch], opts ...Option) *Incidents {
	return &Incidents{NewEditable(incidentKind, acc, ReloadAfterWrite[models.Incident, models.IncidentPatch](), opts...)}
}

func (i *Incidents) UpdateStatus(ctx context.Context, id string, status models.IncidentStatus) error {
	return i.UpdateFields(ctx, id, models.IncidentPatch{Status: &status})
}

type Teams struct {
	*Editable[models.Team, models.TeamDraft, models.TeamPatch]
}

func NewTeams(acc Updater[models.Team, models.TeamDraft, models.TeamPatch], opts ...Option) *Teams {
	return &Teams{NewEditable(teamKind, acc, ReloadAfterWrite[models.Team, models.TeamPatch](), opts...)}
}

func (t *Teams) UpdateStatus(ctx context.Context, id string, status models.TeamStatus) error {
	return t.UpdateFields(ctx, id, models.TeamPatch{Status: &status})
}

// Deploy sends team id to location.
func (t *Teams) Deploy(ctx context.Context, id, location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return &models.ValidationError{Fields: []string{"location"}}
	}
	status := models.TeamStatusDeployed
	return t.UpdateFields(ctx, id, models.TeamPatch{Status: &status, Location: &location})
}

// Recall makes team id available again. Its last location is kept.
func (t *Teams) Recall(ctx context.Context, id string) error {
	return t.UpdateStatus(ctx, id, models.TeamStatusAvailable)
}

func (t *Teams) StatusCounts() map[models.TeamStatus]int {
	known := lo.Filter(t.Items(), func(team models.Team, _ int) bool { return team.Status.Valid() })
	return lo.CountValuesBy(known, func(team models.Team) models.TeamStatus { return team.Status })
}

type EvacuationPlans struct {
	*Editable[models.EvacuationPlan, models.EvacuationPlanDraft, models.EvacuationPlanPatch]
}

func NewEvacuationPlans(acc Updater[models.EvacuationPlan, models.EvacuationPlanDraft, models.EvacuationPlanPatch], opts ...Option) *EvacuationPlans {
	return &EvacuationPlans{NewEditable(planKind, acc, ReloadAfterWrite[models.EvacuationPlan, models.EvacuationPlanPatch](), opts...)}
}

func (p *EvacuationPlans) UpdateStatus(ctx context.Context, id string, status models.PlanStatus) error {
	return p.UpdateFields(ctx, id, models.EvacuationPlanPatch{Status: &status})
}

// Messages can be listed, filtered and sent, but never edited.
type Messages struct {
	*List[models.Message, models.MessageDraft]
}

func NewMessages(acc Accessor[models.Message, models.MessageDraft]) *Messages {
	return &Messages{NewList(messageKind, acc)}
}

// Unread counts messages that have not been read yet.
func (m *Messages) Unread() int {
	return lo.CountBy(m.Items(), func(msg models.Message) bool { return msg.Status != models.MessageStatusRead })
}
