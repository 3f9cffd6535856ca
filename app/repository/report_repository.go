package repository

import (
	"context"

	"fixitnow-backend/app/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const msPerDay = 1000 * 60 * 60 * 24

// GroupCount is one row of a single-key breakdown (category, priority, building).
type GroupCount struct {
	ID    string `bson:"_id" json:"_id"`
	Count int64  `bson:"count" json:"count"`
}

// Month identifies a calendar month in UTC.
type Month struct {
	Year  int `bson:"year" json:"year"`
	Month int `bson:"month" json:"month"`
}

// MonthCount is one bucket of the monthly trend.
type MonthCount struct {
	ID    Month `bson:"_id" json:"_id"`
	Count int64 `bson:"count" json:"count"`
}

// LocationKey identifies a room.
type LocationKey struct {
	Building string `bson:"building" json:"building"`
	Room     string `bson:"room" json:"room"`
}

// LocationCount is one row of the most-reported locations.
type LocationCount struct {
	ID    LocationKey `bson:"_id" json:"_id"`
	Count int64       `bson:"count" json:"count"`
}

// StatusMonth groups by status within a month.
type StatusMonth struct {
	Status model.Status `bson:"status" json:"status"`
	Year   int          `bson:"year" json:"year"`
	Month  int          `bson:"month" json:"month"`
}

// StatusMonthCount is one row of the status-over-time breakdown.
type StatusMonthCount struct {
	ID    StatusMonth `bson:"_id" json:"_id"`
	Count int64       `bson:"count" json:"count"`
}

// ComplaintCounts summarises complaints by lifecycle state.
type ComplaintCounts struct {
	Total      int64
	Pending    int64
	InProgress int64
	Resolved   int64
}

// ReportRepository runs read-only aggregations over complaints.
type ReportRepository interface {
	Overview(ctx context.Context) (*ComplaintCounts, error)
	// CountByField groups by a complaint field path, e.g. "category" or
	// "location.building", sorted by count descending then key.
	CountByField(ctx context.Context, field string) ([]GroupCount, error)
	MonthlyTrend(ctx context.Context, created DateRange) ([]MonthCount, error)
	AverageResolutionDays(ctx context.Context, created DateRange) (float64, error)
	TopLocations(ctx context.Context, created DateRange, limit int) ([]LocationCount, error)
	StatusOverTime(ctx context.Context, created DateRange) ([]StatusMonthCount, error)
}

type reportRepository struct {
	coll *mongo.Collection
}

// NewReportRepository creates a ReportRepository on db.complaints.
func NewReportRepository(db *mongo.Database) ReportRepository {
	return &reportRepository{coll: db.Collection(ComplaintsCollection)}
}

// Overview counts all complaints and those pending, in progress and resolved.
func (r *reportRepository) Overview(ctx context.Context) (*ComplaintCounts, error) {
	var out ComplaintCounts
	counts := []struct {
		dst    *int64
		filter bson.M
	}{
		{&out.Total, bson.M{}},
		{&out.Pending, bson.M{"status": model.StatusPending}},
		{&out.InProgress, bson.M{"status": model.StatusInProgress}},
		{&out.Resolved, bson.M{"status": model.StatusResolved}},
	}
	for _, c := range counts {
		n, err := r.coll.CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return &out, nil
}

func (r *reportRepository) CountByField(ctx context.Context, field string) ([]GroupCount, error) {
	rows := []GroupCount{}
	err := r.aggregate(ctx, CountByFieldPipeline(field), &rows)
	return rows, err
}

// MonthlyTrend counts complaints per calendar month, oldest first.
func (r *reportRepository) MonthlyTrend(ctx context.Context, created DateRange) ([]MonthCount, error) {
	rows := []MonthCount{}
	err := r.aggregate(ctx, MonthlyTrendPipeline(created), &rows)
	return rows, err
}

// AverageResolutionDays averages actualCompletion - createdAt over resolved
// complaints, in days. Zero when nothing was ever completed.
func (r *reportRepository) AverageResolutionDays(ctx context.Context, created DateRange) (float64, error) {
	var rows []struct {
		Avg float64 `bson:"avgResolutionTime"`
	}
	if err := r.aggregate(ctx, AverageResolutionPipeline(created), &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Avg, nil
}

// TopLocations returns the most reported (building, room) pairs.
func (r *reportRepository) TopLocations(ctx context.Context, created DateRange, limit int) ([]LocationCount, error) {
	rows := []LocationCount{}
	err := r.aggregate(ctx, TopLocationsPipeline(created, limit), &rows)
	return rows, err
}

func (r *reportRepository) StatusOverTime(ctx context.Context, created DateRange) ([]StatusMonthCount, error) {
	rows := []StatusMonthCount{}
	err := r.aggregate(ctx, StatusOverTimePipeline(created), &rows)
	return rows, err
}

func (r *reportRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}

// =========================
// Pipelines
// =========================

func matchStage(created DateRange, extra bson.M) bson.D {
	m := bson.M{}
	if cond := created.Match(); cond != nil {
		m["createdAt"] = cond
	}
	for k, v := range extra {
		m[k] = v
	}
	return bson.D{{Key: "$match", Value: m}}
}

var byYearMonth = bson.D{
	{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}},
}

// CountByFieldPipeline counts complaints per distinct value of field.
func CountByFieldPipeline(field string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$" + field,
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

// MonthlyTrendPipeline counts complaints per creation month, oldest first.
func MonthlyTrendPipeline(created DateRange) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(created, nil),
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$createdAt"},
				"month": bson.M{"$month": "$createdAt"},
			},
			"count": bson.M{"$sum": 1},
		}}},
		byYearMonth,
	}
}

// AverageResolutionPipeline yields a single {avgResolutionTime} document.
func AverageResolutionPipeline(created DateRange) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(created, bson.M{"actualCompletion": bson.M{"$exists": true, "$ne": nil}}),
		{{Key: "$addFields", Value: bson.M{
			"resolutionTime": bson.M{"$divide": bson.A{
				bson.M{"$subtract": bson.A{"$actualCompletion", "$createdAt"}},
				msPerDay,
			}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":               nil,
			"avgResolutionTime": bson.M{"$avg": "$resolutionTime"},
		}}},
	}
}

// TopLocationsPipeline ranks (building, room) pairs by complaint count.
func TopLocationsPipeline(created DateRange, limit int) mongo.Pipeline {
	if limit <= 0 {
		limit = 10
	}
	return mongo.Pipeline{
		matchStage(created, nil),
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"building": "$location.building",
				"room":     "$location.room",
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id.building", Value: 1},
			{Key: "_id.room", Value: 1},
		}}},
		{{Key: "$limit", Value: limit}},
	}
}

// StatusOverTimePipeline counts complaints per (status, year, month).
func StatusOverTimePipeline(created DateRange) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(created, nil),
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"status": "$status",
				"year":   bson.M{"$year": "$createdAt"},
				"month":  bson.M{"$month": "$createdAt"},
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "_id.year", Value: 1},
			{Key: "_id.month", Value: 1},
			{Key: "_id.status", Value: 1},
		}}},
	}
}
