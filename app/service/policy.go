package service

import (
	"fixitnow-backend/app/model"
	"fixitnow-backend/app/repository"

	"github.com/google/uuid"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID uuid.UUID
	Role   model.Role
}

// ID is the form stored in complaint references.
func (i Identity) ID() string { return i.UserID.String() }

// Operation names a gated action.
type Operation string

const (
	OpCreateComplaint Operation = "complaint.create"
	OpListComplaints  Operation = "complaint.list"
	OpViewComplaint   Operation = "complaint.view"
	OpUpdateStatus    Operation = "complaint.update_status"
	OpAssign          Operation = "complaint.assign"
	OpResolve         Operation = "complaint.resolve"
	OpAddNote         Operation = "complaint.add_note"
	OpDeleteComplaint Operation = "complaint.delete"
	OpAdminDashboard  Operation = "admin.dashboard"
	OpManageUsers     Operation = "admin.users"
	OpChangeUserRole  Operation = "admin.users.role"
	OpAnalytics       Operation = "admin.analytics"
	OpExport          Operation = "admin.export"
)

var (
	reporters = []model.Role{model.RoleStudent, model.RoleStaff}
	handlers  = []model.Role{model.RoleMaintenance, model.RoleAdmin, model.RoleStaff}
	managers  = []model.Role{model.RoleAdmin, model.RoleStaff}
	admins    = []model.Role{model.RoleAdmin}
)

// OperationRoles is the single source of who may do what. An empty set
// means any authenticated caller.
var OperationRoles = map[Operation][]model.Role{
	OpCreateComplaint: reporters,
	OpListComplaints:  nil,
	OpViewComplaint:   nil,
	OpUpdateStatus:    handlers,
	OpAssign:          managers,
	OpResolve:         handlers,
	OpAddNote:         nil,
	OpDeleteComplaint: admins,
	OpAdminDashboard:  managers,
	OpManageUsers:     managers,
	OpChangeUserRole:  admins,
	OpAnalytics:       managers,
	OpExport:          managers,
}

// Allowed permits when roles is empty or contains role.
func Allowed(role model.Role, roles ...model.Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Can checks an operation against OperationRoles. Unknown operations are denied.
func Can(role model.Role, op Operation) bool {
	roles, ok := OperationRoles[op]
	if !ok {
		return false
	}
	return Allowed(role, roles...)
}

func authorize(id Identity, op Operation) error {
	if !Can(id.Role, op) {
		return newError(ErrForbidden, "Access denied")
	}
	return nil
}

// ComplaintPolicy narrows complaint access by ownership.
type ComplaintPolicy struct{}

// CanView: students and staff see what they reported; maintenance and
// admins see everything.
func (ComplaintPolicy) CanView(id Identity, c *model.Complaint) bool {
	switch id.Role {
	case model.RoleAdmin, model.RoleMaintenance:
		return true
	}
	return c.ReportedBy == id.ID()
}

// ListScope forces students onto their own complaints.
func (ComplaintPolicy) ListScope(id Identity, f *repository.ComplaintFilter) {
	if id.Role == model.RoleStudent {
		f.ReportedBy = id.ID()
	}
}
