package service

import "fixitnow-backend/app/model"

// View is one screen of the dashboard client.
type View struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

type navEntry struct {
	View
	Roles []model.Role // empty: every role
}

// Navigation is the role → view table the client renders from.
var Navigation = []navEntry{
	{View{"dashboard", "Dashboard", "/dashboard"}, nil},
	{View{"submit-complaint", "Submit Complaint", "/complaints/new"}, reporters},
	{View{"my-complaints", "My Complaints", "/complaints/mine"}, reporters},
	{View{"maintenance-queue", "Maintenance Queue", "/maintenance"}, []model.Role{model.RoleMaintenance}},
	{View{"staff-console", "Staff Console", "/staff"}, managers},
	{View{"analytics", "Analytics", "/admin/analytics"}, admins},
	{View{"profile", "Profile", "/profile"}, nil},
}

// ViewsFor returns the views role may open, in menu order.
func ViewsFor(role model.Role) []View {
	views := []View{}
	for _, e := range Navigation {
		if Allowed(role, e.Roles...) {
			views = append(views, e.View)
		}
	}
	return views
}

// CanAccessView reports whether role may open the dashboard view key.
func CanAccessView(role model.Role, key string) bool {
	for _, e := range Navigation {
		if e.Key == key {
			return Allowed(role, e.Roles...)
		}
	}
	return false
}
