package models

type Shelter struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Location         string        `json:"location"`
	Capacity         int           `json:"capacity"`
	CurrentOccupancy int           `json:"currentOccupancy"`
	Facilities       []string      `json:"facilities"`
	Contact          string        `json:"contact"`
	Status           ShelterStatus `json:"status"`
}

// Occupancy returns the filled share of the shelter in percent.
func (s Shelter) Occupancy() int {
	if s.Capacity <= 0 {
		return 0
	}
	return s.CurrentOccupancy * 100 / s.Capacity
}

type Route struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	From          string      `json:"from"`
	To            string      `json:"to"`
	Distance      string      `json:"distance"`
	EstimatedTime string      `json:"estimatedTime"`
	Status        RouteStatus `json:"status"`
}

type EvacuationPlan struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Area        string     `json:"area"`
	Capacity    int        `json:"capacity"`
	Shelters    []Shelter  `json:"shelters"`
	Routes      []Route    `json:"routes"`
	Status      PlanStatus `json:"status"`
	LastUpdated string     `json:"lastUpdated"`
}

func (p EvacuationPlan) Key() string {
	return p.ID
}

type EvacuationPlanDraft struct {
	Name     string     `json:"name"`
	Area     string     `json:"area"`
	Capacity int        `json:"capacity"`
	Shelters []Shelter  `json:"shelters"`
	Routes   []Route    `json:"routes"`
	Status   PlanStatus `json:"status"`
}

func NewEvacuationPlanDraft() EvacuationPlanDraft {
	return EvacuationPlanDraft{
		Shelters: []Shelter{},
		Routes:   []Route{},
		Status:   PlanStatusInactive,
	}
}

func (d EvacuationPlanDraft) Validate() error {
	return requireFields("name", d.Name, "area", d.Area)
}

type EvacuationPlanPatch struct {
	Name     *string     `json:"name,omitempty"`
	Area     *string     `json:"area,omitempty"`
	Capacity *int        `json:"capacity,omitempty"`
	Shelters *[]Shelter  `json:"shelters,omitempty"`
	Routes   *[]Route    `json:"routes,omitempty"`
	Status   *PlanStatus `json:"status,omitempty"`
}
