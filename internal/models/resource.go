package models

type Resource struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       ResourceType   `json:"type"`
	Quantity   int            `json:"quantity"`
	Available  int            `json:"available"`
	Location   string         `json:"location"`
	Status     ResourceStatus `json:"status"`
	AssignedTo string         `json:"assignedTo,omitempty"`
}

func (r Resource) Key() string {
	return r.ID
}

type ResourceDraft struct {
	Name       string         `json:"name"`
	Type       ResourceType   `json:"type"`
	Quantity   int            `json:"quantity"`
	Available  int            `json:"available"`
	Location   string         `json:"location"`
	Status     ResourceStatus `json:"status"`
	AssignedTo string         `json:"assignedTo,omitempty"`
}

func NewResourceDraft() ResourceDraft {
	return ResourceDraft{
		Type:   ResourceTypeEquipment,
		Status: ResourceStatusAvailable,
	}
}

func (d ResourceDraft) Validate() error {
	return requireFields("name", d.Name, "location", d.Location)
}

type ResourcePatch struct {
	Name       *string         `json:"name,omitempty"`
	Type       *ResourceType   `json:"type,omitempty"`
	Quantity   *int            `json:"quantity,omitempty"`
	Available  *int            `json:"available,omitempty"`
	Location   *string         `json:"location,omitempty"`
	Status     *ResourceStatus `json:"status,omitempty"`
	AssignedTo *string         `json:"assignedTo,omitempty"`
}

// DeployPatch takes qty units out of the available pool. The resource is
// marked deployed once nothing is left.
func (r Resource) DeployPatch(qty int) ResourcePatch {
	available := max(0, r.Available-qty)
	p := ResourcePatch{Available: &available}
	if available == 0 {
		status := ResourceStatusDeployed
		p.Status = &status
	}
	return p
}
