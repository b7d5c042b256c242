package models

import "time"

type Alert struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Severity    Severity    `json:"severity"`
	Type        AlertType   `json:"type"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Status      AlertStatus `json:"status"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
}

func (a Alert) Key() string {
	return a.ID
}

// AlertDraft is the create payload; id and timestamps are assigned by the server.
type AlertDraft struct {
	Title       string      `json:"title"`
	Severity    Severity    `json:"severity"`
	Type        AlertType   `json:"type"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Status      AlertStatus `json:"status"`
}

func NewAlertDraft() AlertDraft {
	return AlertDraft{
		Severity: SeverityMedium,
		Type:     AlertTypeNatural,
		Status:   AlertStatusActive,
	}
}

func (d AlertDraft) Validate() error {
	return requireFields("title", d.Title, "location", d.Location)
}

type AlertPatch struct {
	Title       *string      `json:"title,omitempty"`
	Severity    *Severity    `json:"severity,omitempty"`
	Type        *AlertType   `json:"type,omitempty"`
	Location    *string      `json:"location,omitempty"`
	Description *string      `json:"description,omitempty"`
	Status      *AlertStatus `json:"status,omitempty"`
}

// Patched returns a copy of a with p applied and UpdatedAt set to now.
func (a Alert) Patched(p AlertPatch, now time.Time) Alert {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Severity != nil {
		a.Severity = *p.Severity
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	a.UpdatedAt = FormatTimestamp(now)
	return a
}
