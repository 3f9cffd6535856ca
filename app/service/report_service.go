package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/repository"
	"fixitnow-backend/utils"
)

const (
	recentComplaints = 5
	topLocations     = 10
)

// Overview is the headline block of the admin dashboard.
type Overview struct {
	TotalComplaints      int64 `json:"totalComplaints"`
	PendingComplaints    int64 `json:"pendingComplaints"`
	InProgressComplaints int64 `json:"inProgressComplaints"`
	ResolvedComplaints   int64 `json:"resolvedComplaints"`
	TotalUsers           int64 `json:"totalUsers"`
	MaintenanceStaff     int64 `json:"maintenanceStaff"`
}

// Dashboard is the admin landing page: headline counts, breakdowns by
// category, priority and building, and the latest complaints.
type Dashboard struct {
	Overview         Overview                `json:"overview"`
	CategoryStats    []repository.GroupCount `json:"categoryStats"`
	PriorityStats    []repository.GroupCount `json:"priorityStats"`
	BuildingStats    []repository.GroupCount `json:"buildingStats"`
	RecentComplaints []*model.ComplaintView  `json:"recentComplaints"`
}

// Analytics holds the time-windowed reports. Every section honours the
// same optional date range.
type Analytics struct {
	MonthlyTrend      []repository.MonthCount       `json:"monthlyTrend"`
	AvgResolutionTime float64                       `json:"avgResolutionTime"`
	TopLocations      []repository.LocationCount    `json:"topLocations"`
	StatusOverTime    []repository.StatusMonthCount `json:"statusOverTime"`
}

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// ExportResult carries the complaints of an export; the handler renders
// them as JSON or through WriteCSV.
type ExportResult struct {
	Format     ExportFormat
	Complaints []*model.ComplaintView
}

// ReportService serves the admin dashboard, analytics and exports.
type ReportService interface {
	Dashboard(ctx context.Context, id Identity) (*Dashboard, error)
	Analytics(ctx context.Context, id Identity, startDate, endDate string) (*Analytics, error)
	Export(ctx context.Context, id Identity, format, startDate, endDate string) (*ExportResult, error)
}

type reportService struct {
	reports    repository.ReportRepository
	complaints repository.ComplaintRepository
	users      repository.UserRepository
	directory  directory
}

// NewReportService builds the dashboard, analytics and export service.
func NewReportService(reports repository.ReportRepository, complaints repository.ComplaintRepository, users repository.UserRepository) ReportService {
	return &reportService{reports: reports, complaints: complaints, users: users, directory: directory{users: users}}
}

// Dashboard is open to admins and staff.
func (s *reportService) Dashboard(ctx context.Context, id Identity) (*Dashboard, error) {
	if err := authorize(id, OpAdminDashboard); err != nil {
		return nil, err
	}

	counts, err := s.reports.Overview(ctx)
	if err != nil {
		return nil, err
	}
	totalUsers, err := s.users.Count(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}
	maintenance, err := s.users.Count(ctx, repository.UserFilter{Role: model.RoleMaintenance})
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Overview: Overview{
		TotalComplaints:      counts.Total,
		PendingComplaints:    counts.Pending,
		InProgressComplaints: counts.InProgress,
		ResolvedComplaints:   counts.Resolved,
		TotalUsers:           totalUsers,
		MaintenanceStaff:     maintenance,
	}}

	if d.CategoryStats, err = s.reports.CountByField(ctx, "category"); err != nil {
		return nil, err
	}
	if d.PriorityStats, err = s.reports.CountByField(ctx, "priority"); err != nil {
		return nil, err
	}
	if d.BuildingStats, err = s.reports.CountByField(ctx, "location.building"); err != nil {
		return nil, err
	}

	recent, _, err := s.complaints.List(ctx, repository.ComplaintFilter{}, utils.Page{Page: 1, Limit: recentComplaints})
	if err != nil {
		return nil, err
	}
	if d.RecentComplaints, err = s.directory.views(ctx, recent); err != nil {
		return nil, err
	}
	return d, nil
}

// Analytics parses the optional date bounds (see ParseDateRange) and runs
// every aggregation over the same window.
func (s *reportService) Analytics(ctx context.Context, id Identity, startDate, endDate string) (*Analytics, error) {
	if err := authorize(id, OpAnalytics); err != nil {
		return nil, err
	}
	created, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	a := &Analytics{}
	if a.MonthlyTrend, err = s.reports.MonthlyTrend(ctx, created); err != nil {
		return nil, err
	}
	if a.AvgResolutionTime, err = s.reports.AverageResolutionDays(ctx, created); err != nil {
		return nil, err
	}
	if a.TopLocations, err = s.reports.TopLocations(ctx, created, topLocations); err != nil {
		return nil, err
	}
	if a.StatusOverTime, err = s.reports.StatusOverTime(ctx, created); err != nil {
		return nil, err
	}
	return a, nil
}

// Export loads every complaint in the window with reporter and assignee
// names resolved. format is "json" (default) or "csv".
func (s *reportService) Export(ctx context.Context, id Identity, format, startDate, endDate string) (*ExportResult, error) {
	if err := authorize(id, OpExport); err != nil {
		return nil, err
	}
	f := ExportFormat(strings.ToLower(strings.TrimSpace(format)))
	if f == "" {
		f = ExportJSON
	}
	if f != ExportJSON && f != ExportCSV {
		return nil, Violations{"format": "must be one of: json csv"}
	}
	created, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	items, err := s.complaints.FindForExport(ctx, created)
	if err != nil {
		return nil, err
	}
	views, err := s.directory.views(ctx, items)
	if err != nil {
		return nil, err
	}
	return &ExportResult{Format: f, Complaints: views}, nil
}

// ParseDateRange accepts YYYY-MM-DD or RFC3339 bounds. A date-only end
// bound covers that whole day.
func ParseDateRange(startDate, endDate string) (repository.DateRange, error) {
	var r repository.DateRange
	v := Violations{}
	if s := strings.TrimSpace(startDate); s != "" {
		t, _, err := parseDate(s)
		if err != nil {
			v["startDate"] = "must be YYYY-MM-DD or RFC3339"
		} else {
			r.From = &t
		}
	}
	if s := strings.TrimSpace(endDate); s != "" {
		t, dateOnly, err := parseDate(s)
		if err != nil {
			v["endDate"] = "must be YYYY-MM-DD or RFC3339"
		} else {
			if dateOnly {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			r.To = &t
		}
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		v["endDate"] = "must not be before startDate"
	}
	return r, v.Err()
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t.UTC(), false, err
}

// CSVHeader is the fixed column set of the tabular export.
var CSVHeader = []string{
	"ID", "Title", "Description", "Category", "Priority", "Status",
	"Building", "Room", "ReportedBy", "AssignedTo", "CreatedAt", "ResolvedAt",
}

// WriteCSV renders one row per complaint under CSVHeader.
func (r *ExportResult) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, v := range r.Complaints {
		if err := cw.Write(csvRow(v)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(v *model.ComplaintView) []string {
	name := func(u *model.UserSummary) string {
		if u == nil || u.Name == "" {
			return "N/A"
		}
		return u.Name
	}
	resolvedAt := "N/A"
	if v.ActualCompletion != nil {
		resolvedAt = v.ActualCompletion.UTC().Format(time.RFC3339)
	}
	return []string{
		v.ID.Hex(),
		v.Title,
		v.Description,
		string(v.Category),
		string(v.Priority),
		string(v.Status),
		v.Location.Building,
		v.Location.Room,
		name(v.ReportedBy),
		name(v.AssignedTo),
		v.CreatedAt.UTC().Format(time.RFC3339),
		resolvedAt,
	}
}
