package service

import (
	"testing"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed(model.RoleStudent))
	assert.True(t, Allowed(model.RoleStaff, model.RoleAdmin, model.RoleStaff))
	assert.False(t, Allowed(model.RoleStudent, model.RoleAdmin))
}

func TestCan_OperationTable(t *testing.T) {
	cases := []struct {
		op      Operation
		allowed []model.Role
	}{
		{OpCreateComplaint, []model.Role{model.RoleStudent, model.RoleStaff}},
		{OpUpdateStatus, []model.Role{model.RoleMaintenance, model.RoleAdmin, model.RoleStaff}},
		{OpAssign, []model.Role{model.RoleAdmin, model.RoleStaff}},
		{OpResolve, []model.Role{model.RoleMaintenance, model.RoleAdmin, model.RoleStaff}},
		{OpAddNote, model.AllRoles()},
		{OpDeleteComplaint, []model.Role{model.RoleAdmin}},
		{OpAnalytics, []model.Role{model.RoleAdmin, model.RoleStaff}},
		{OpChangeUserRole, []model.Role{model.RoleAdmin}},
	}
	for _, tc := range cases {
		for _, role := range model.AllRoles() {
			want := Allowed(role, tc.allowed...)
			assert.Equal(t, want, Can(role, tc.op), "%s as %s", tc.op, role)
		}
	}
	assert.False(t, Can(model.RoleAdmin, Operation("unknown")))
}

func TestComplaintPolicy(t *testing.T) {
	owner := Identity{UserID: uuid.New(), Role: model.RoleStudent}
	c := &model.Complaint{ReportedBy: owner.ID()}
	var p ComplaintPolicy

	assert.True(t, p.CanView(owner, c))
	assert.False(t, p.CanView(Identity{UserID: uuid.New(), Role: model.RoleStudent}, c))
	assert.False(t, p.CanView(Identity{UserID: uuid.New(), Role: model.RoleStaff}, c))
	assert.True(t, p.CanView(Identity{UserID: uuid.New(), Role: model.RoleMaintenance}, c))
	assert.True(t, p.CanView(Identity{UserID: uuid.New(), Role: model.RoleAdmin}, c))

	var f repository.ComplaintFilter
	p.ListScope(owner, &f)
	assert.Equal(t, owner.ID(), f.ReportedBy)

	f = repository.ComplaintFilter{}
	p.ListScope(Identity{UserID: uuid.New(), Role: model.RoleStaff}, &f)
	assert.Empty(t, f.ReportedBy)
}

func TestLifecycle(t *testing.T) {
	strict := Lifecycle{Strict: true}
	assert.True(t, strict.CanTransition(model.StatusPending, model.StatusResolved))
	assert.True(t, strict.CanTransition(model.StatusResolved, model.StatusInProgress))
	assert.False(t, strict.CanTransition(model.StatusInProgress, model.StatusPending))
	assert.False(t, strict.CanTransition(model.StatusClosed, model.StatusResolved))
	for _, s := range model.AllStatuses() {
		assert.True(t, strict.CanTransition(s, s))
	}

	assert.ElementsMatch(t,
		[]model.Status{model.StatusPending, model.StatusAssigned},
		strict.SourcesOf(model.StatusPending))
	assert.NotContains(t, strict.ResolvableFrom(), model.StatusClosed)

	loose := Lifecycle{}
	assert.True(t, loose.CanTransition(model.StatusClosed, model.StatusPending))
	assert.Nil(t, loose.SourcesOf(model.StatusPending))
	assert.True(t, contains(loose.AssignableFrom(), model.StatusClosed))
}

func TestNavigation(t *testing.T) {
	keys := func(role model.Role) []string {
		var out []string
		for _, v := range ViewsFor(role) {
			out = append(out, v.Key)
		}
		return out
	}
	assert.Equal(t, []string{"dashboard", "submit-complaint", "my-complaints", "profile"}, keys(model.RoleStudent))
	assert.Equal(t, []string{"dashboard", "submit-complaint", "my-complaints", "staff-console", "profile"}, keys(model.RoleStaff))
	assert.Equal(t, []string{"dashboard", "maintenance-queue", "profile"}, keys(model.RoleMaintenance))
	assert.Equal(t, []string{"dashboard", "staff-console", "analytics", "profile"}, keys(model.RoleAdmin))

	assert.True(t, CanAccessView(model.RoleAdmin, "analytics"))
	assert.False(t, CanAccessView(model.RoleStaff, "analytics"))
	assert.False(t, CanAccessView(model.RoleAdmin, "nope"))
}

func TestViolations(t *testing.T) {
	assert.NoError(t, Violations{}.Err())
	err := Violations{"b": "required", "a": "invalid"}.Err()
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: a: invalid; b: required", err.Error())
}
