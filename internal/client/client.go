package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mr1hm/go-disaster-admin/internal/models"
	"github.com/mr1hm/go-disaster-admin/internal/transport"
)

// API groups one accessor per entity kind over a shared transport.
type API struct {
	Alerts          Alerts
	Resources       Resources
	Incidents       Incidents
	Teams           Teams
	EvacuationPlans EvacuationPlans
	Messages        Messages
	Weather         Weather
	Analytics       Analytics
	Users           Users
	Auth            Auth
}

func New(c transport.Caller) *API {
	return &API{
		Alerts:          NewCollection[models.Alert, models.AlertDraft, models.AlertPatch](c, "/alerts"),
		Resources:       NewCollection[models.Resource, models.ResourceDraft, models.ResourcePatch](c, "/resources"),
		Incidents:       NewCollection[models.Incident, models.IncidentDraft, models.IncidentPatch](c, "/incidents"),
		Teams:           NewCollection[models.Team, models.TeamDraft, models.TeamPatch](c, "/teams"),
		EvacuationPlans: NewCollection[models.EvacuationPlan, models.EvacuationPlanDraft, models.EvacuationPlanPatch](c, "/evacuation-plans"),
		Messages:        Messages{caller: c},
		Weather:         Weather{caller: c},
		Analytics:       Analytics{caller: c},
		Users:           Users{caller: c},
		Auth:            Auth{caller: c},
	}
}

type (
	Alerts          = Collection[models.Alert, models.AlertDraft, models.AlertPatch]
	Resources       = Collection[models.Resource, models.ResourceDraft, models.ResourcePatch]
	Incidents       = Collection[models.Incident, models.IncidentDraft, models.IncidentPatch]
	Teams           = Collection[models.Team, models.TeamDraft, models.TeamPatch]
	EvacuationPlans = Collection[models.EvacuationPlan, models.EvacuationPlanDraft, models.EvacuationPlanPatch]
)

// Collection maps list/get/create/update/delete of one entity kind onto
// fixed routes under path. T is the entity, D the create draft and P the
// patch type of legal update fields.
type Collection[T any, D any, P any] struct {
	caller transport.Caller
	path   string
}

func NewCollection[T any, D any, P any](c transport.Caller, path string) Collection[T, D, P] {
	return Collection[T, D, P]{caller: c, path: path}
}

func (c Collection[T, D, P]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := c.caller.Call(ctx, http.MethodGet, c.path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Get fails with an error matching transport.ErrNotFound when id is absent.
func (c Collection[T, D, P]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := c.caller.Call(ctx, http.MethodGet, c.item(id), nil, &out)
	return out, err
}

func (c Collection[T, D, P]) Create(ctx context.Context, draft D) (T, error) {
	var out T
	err := c.caller.Call(ctx, http.MethodPost, c.path, draft, &out)
	return out, err
}

// Update returns the server's acknowledgement, never the updated entity.
func (c Collection[T, D, P]) Update(ctx context.Context, id string, patch P) (models.Ack, error) {
	var ack models.Ack
	err := c.caller.Call(ctx, http.MethodPut, c.item(id), patch, &ack)
	return ack, err
}

func (c Collection[T, D, P]) Delete(ctx context.Context, id string) (models.Ack, error) {
	var ack models.Ack
	err := c.caller.Call(ctx, http.MethodDelete, c.item(id), nil, &ack)
	return ack, err
}

func (c Collection[T, D, P]) item(id string) string {
	return c.path + "/" + url.PathEscape(id)
}

// Messages can only be listed and sent.
type Messages struct {
	caller transport.Caller
}

func (m Messages) List(ctx context.Context) ([]models.Message, error) {
	var out []models.Message
	if err := m.caller.Call(ctx, http.MethodGet, "/messages", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Message{}
	}
	return out, nil
}

func (m Messages) Create(ctx context.Context, draft models.MessageDraft) (models.Message, error) {
	var out models.Message
	err := m.caller.Call(ctx, http.MethodPost, "/messages", draft, &out)
	return out, err
}

type Weather struct {
	caller transport.Caller
}

func (w Weather) Get(ctx context.Context, location string) (models.WeatherData, error) {
	var out models.WeatherData
	err := w.caller.Call(ctx, http.MethodGet, "/weather/"+url.PathEscape(location), nil, &out)
	return out, err
}

// Update stores a snapshot and returns the stored version.
func (w Weather) Update(ctx context.Context, data models.WeatherData) (models.WeatherData, error) {
	var out models.WeatherData
	err := w.caller.Call(ctx, http.MethodPost, "/weather", data, &out)
	return out, err
}

type Analytics struct {
	caller transport.Caller
}

func (a Analytics) Get(ctx context.Context) (models.Analytics, error) {
	var out models.Analytics
	err := a.caller.Call(ctx, http.MethodGet, "/analytics", nil, &out)
	return out, err
}

type Users struct {
	caller transport.Caller
}

func (u Users) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := u.caller.Call(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.User{}
	}
	return out, nil
}

type Auth struct {
	caller transport.Caller
}

// Login posts the credentials to the authentication endpoint. A 2xx response
// without success=true is reported as a failed request.
func (a Auth) Login(ctx context.Context, creds models.Credentials) (models.User, error) {
	var out models.LoginResult
	if err := a.caller.Call(ctx, http.MethodPost, "/auth/login", creds, &out); err != nil {
		return models.User{}, err
	}
	if !out.Success {
		return models.User{}, &transport.RequestError{Message: "Login failed"}
	}
	return out.User, nil
}
