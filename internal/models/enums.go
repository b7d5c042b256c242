package models

// Enumerated fields are plain strings so values outside the known set survive
// a fetch/re-submit round trip. Valid reports membership in the known set and
// is what derived logic (badges, counts) must check.

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Rank orders severities from low (1) to critical (4); unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

type AlertType string

const (
	AlertTypeNatural  AlertType = "natural"
	AlertTypeManMade  AlertType = "man-made"
	AlertTypeHealth   AlertType = "health"
	AlertTypeSecurity AlertType = "security"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertTypeNatural, AlertTypeManMade, AlertTypeHealth, AlertTypeSecurity:
		return true
	}
	return false
}

type AlertStatus string

const (
	AlertStatusActive     AlertStatus = "active"
	AlertStatusMonitoring AlertStatus = "monitoring"
	AlertStatusResolved   AlertStatus = "resolved"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusActive, AlertStatusMonitoring, AlertStatusResolved:
		return true
	}
	return false
}

type ResourceType string

const (
	ResourceTypePersonnel ResourceType = "personnel"
	ResourceTypeEquipment ResourceType = "equipment"
	ResourceTypeSupplies  ResourceType = "supplies"
	ResourceTypeVehicle   ResourceType = "vehicle"
)

func (t ResourceType) Valid() bool {
	switch t {
	case ResourceTypePersonnel, ResourceTypeEquipment, ResourceTypeSupplies, ResourceTypeVehicle:
		return true
	}
	return false
}

type ResourceStatus string

const (
	ResourceStatusAvailable   ResourceStatus = "available"
	ResourceStatusDeployed    ResourceStatus = "deployed"
	ResourceStatusMaintenance ResourceStatus = "maintenance"
)

func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceStatusAvailable, ResourceStatusDeployed, ResourceStatusMaintenance:
		return true
	}
	return false
}

type IncidentStatus string

const (
	IncidentStatusReported      IncidentStatus = "reported"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusResponding    IncidentStatus = "responding"
	IncidentStatusResolved      IncidentStatus = "resolved"
)

func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentStatusReported, IncidentStatusInvestigating, IncidentStatusResponding, IncidentStatusResolved:
		return true
	}
	return false
}

// Open reports whether the incident still needs attention.
func (s IncidentStatus) Open() bool {
	return s == IncidentStatusReported || s == IncidentStatusInvestigating || s == IncidentStatusResponding
}

type TeamType string

const (
	TeamTypeFire       TeamType = "fire"
	TeamTypeMedical    TeamType = "medical"
	TeamTypePolice     TeamType = "police"
	TeamTypeRescue     TeamType = "rescue"
	TeamTypeEvacuation TeamType = "evacuation"
)

func (t TeamType) Valid() bool {
	switch t {
	case TeamTypeFire, TeamTypeMedical, TeamTypePolice, TeamTypeRescue, TeamTypeEvacuation:
		return true
	}
	return false
}

type TeamStatus string

const (
	TeamStatusAvailable TeamStatus = "available"
	TeamStatusDeployed  TeamStatus = "deployed"
	TeamStatusTraining  TeamStatus = "training"
)

func (s TeamStatus) Valid() bool {
	switch s {
	case TeamStatusAvailable, TeamStatusDeployed, TeamStatusTraining:
		return true
	}
	return false
}

type PlanStatus string

const (
	PlanStatusActive      PlanStatus = "active"
	PlanStatusInactive    PlanStatus = "inactive"
	PlanStatusUnderReview PlanStatus = "under-review"
)

func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusActive, PlanStatusInactive, PlanStatusUnderReview:
		return true
	}
	return false
}

type ShelterStatus string

const (
	ShelterStatusOperational ShelterStatus = "operational"
	ShelterStatusFull        ShelterStatus = "full"
	ShelterStatusMaintenance ShelterStatus = "maintenance"
)

func (s ShelterStatus) Valid() bool {
	switch s {
	case ShelterStatusOperational, ShelterStatusFull, ShelterStatusMaintenance:
		return true
	}
	return false
}

type RouteStatus string

const (
	RouteStatusClear     RouteStatus = "clear"
	RouteStatusBlocked   RouteStatus = "blocked"
	RouteStatusCongested RouteStatus = "congested"
)

func (s RouteStatus) Valid() bool {
	switch s {
	case RouteStatusClear, RouteStatusBlocked, RouteStatusCongested:
		return true
	}
	return false
}

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case MessageStatusSent, MessageStatusDelivered, MessageStatusRead:
		return true
	}
	return false
}
