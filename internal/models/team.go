package models

type Team struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      TeamType   `json:"type"`
	Leader    string     `json:"leader"`
	Members   []string   `json:"members"`
	Status    TeamStatus `json:"status"`
	Location  string     `json:"location"`
	Equipment []string   `json:"equipment"`
	Contact   string     `json:"contact"`
}

func (t Team) Key() string {
	return t.ID
}

type TeamDraft struct {
	Name      string     `json:"name"`
	Type      TeamType   `json:"type"`
	Leader    string     `json:"leader"`
	Members   []string   `json:"members"`
	Status    TeamStatus `json:"status"`
	Location  string     `json:"location"`
	Equipment []string   `json:"equipment"`
	Contact   string     `json:"contact"`
}

func NewTeamDraft() TeamDraft {
	return TeamDraft{
		Type:      TeamTypeRescue,
		Members:   []string{},
		Status:    TeamStatusAvailable,
		Equipment: []string{},
	}
}

func (d TeamDraft) Validate() error {
	return requireFields("name", d.Name, "leader", d.Leader)
}

type TeamPatch struct {
	Name      *string     `json:"name,omitempty"`
	Type      *TeamType   `json:"type,omitempty"`
	Leader    *string     `json:"leader,omitempty"`
	Members   *[]string   `json:"members,omitempty"`
	Status    *TeamStatus `json:"status,omitempty"`
	Location  *string     `json:"location,omitempty"`
	Equipment *[]string   `json:"equipment,omitempty"`
	Contact   *string     `json:"contact,omitempty"`
}
