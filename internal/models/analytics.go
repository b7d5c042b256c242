package models

type MonthlyCount struct {
	Month     string `json:"month"`
	Incidents int    `json:"incidents"`
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type Analytics struct {
	TotalIncidents      int            `json:"totalIncidents"`
	ResolvedIncidents   int            `json:"resolvedIncidents"`
	ActiveIncidents     int            `json:"activeIncidents"`
	AverageResponseTime string         `json:"averageResponseTime"`
	ResourceUtilization float64        `json:"resourceUtilization"`
	MonthlyIncidents    []MonthlyCount `json:"monthlyIncidents"`
	IncidentsByType     []TypeCount    `json:"incidentsByType"`
}

type User struct {
	ID         string `json:"id"`
	Username   string `json:"username,omitempty"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Contact    string `json:"contact"`
	LastActive string `json:"lastActive"`
}

func (u User) Key() string {
	return u.ID
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	return requireFields("username", c.Username, "password", c.Password)
}

type LoginResult struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}
