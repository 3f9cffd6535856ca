package model

// Role determines what an account may do and which views it sees.
type Role string

const (
	RoleStudent     Role = "student"
	RoleStaff       Role = "staff"
	RoleMaintenance Role = "maintenance"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleMaintenance, RoleAdmin:
		return true
	}
	return false
}

// AllRoles lists every role in display order.
func AllRoles() []Role {
	return []Role{RoleStudent, RoleStaff, RoleMaintenance, RoleAdmin}
}

// Category classifies the kind of facility problem.
type Category string

const (
	CategoryElectrical Category = "electrical"
	CategoryPlumbing   Category = "plumbing"
	CategoryFurniture  Category = "furniture"
	CategoryWifi       Category = "wifi"
	CategoryHeating    Category = "heating"
	CategoryCleaning   Category = "cleaning"
	CategoryOther      Category = "other"
)

func (c Category) Valid() bool {
	for _, v := range AllCategories() {
		if c == v {
			return true
		}
	}
	return false
}

// AllCategories lists every complaint category.
func AllCategories() []Category {
	return []Category{
		CategoryElectrical, CategoryPlumbing, CategoryFurniture, CategoryWifi,
		CategoryHeating, CategoryCleaning, CategoryOther,
	}
}

// Priority is set by the reporter; medium when omitted.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Status is the complaint lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

func (s Status) Valid() bool {
	for _, v := range AllStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// AllStatuses lists the lifecycle statuses in order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed}
}
