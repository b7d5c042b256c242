package models

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultCoordinates is used for reports filed without a map pick.
var DefaultCoordinates = Coordinates{Lat: 28.6139, Lng: 77.2090}

type Incident struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Type         string         `json:"type"`
	Severity     Severity       `json:"severity"`
	Location     string         `json:"location"`
	Coordinates  Coordinates    `json:"coordinates"`
	Description  string         `json:"description"`
	ReportedBy   string         `json:"reportedBy"`
	Status       IncidentStatus `json:"status"`
	AssignedTeam string         `json:"assignedTeam,omitempty"`
	CreatedAt    string         `json:"createdAt"`
	UpdatedAt    string         `json:"updatedAt"`
}

func (i Incident) Key() string {
	return i.ID
}

type IncidentDraft struct {
	Title        string         `json:"title"`
	Type         string         `json:"type"`
	Severity     Severity       `json:"severity"`
	Location     string         `json:"location"`
	Coordinates  Coordinates    `json:"coordinates"`
	Description  string         `json:"description"`
	ReportedBy   string         `json:"reportedBy"`
	Status       IncidentStatus `json:"status"`
	AssignedTeam string         `json:"assignedTeam,omitempty"`
}

func NewIncidentDraft() IncidentDraft {
	return IncidentDraft{
		Severity:    SeverityMedium,
		Coordinates: DefaultCoordinates,
		Status:      IncidentStatusReported,
	}
}

func (d IncidentDraft) Validate() error {
	return requireFields("title", d.Title, "location", d.Location, "reportedBy", d.ReportedBy)
}

type IncidentPatch struct {
	Title        *string         `json:"title,omitempty"`
	Type         *string         `json:"type,omitempty"`
	Severity     *Severity       `json:"severity,omitempty"`
	Location     *string         `json:"location,omitempty"`
	Coordinates  *Coordinates    `json:"coordinates,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Status       *IncidentStatus `json:"status,omitempty"`
	AssignedTeam *string         `json:"assignedTeam,omitempty"`
}
