package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func stage(t *testing.T, d bson.D) (string, interface{}) {
	t.Helper()
	require.Len(t, d, 1)
	return d[0].Key, d[0].Value
}

func TestCountByFieldPipeline(t *testing.T) {
	p := CountByFieldPipeline("location.building")
	require.Len(t, p, 2)

	key, val := stage(t, p[0])
	assert.Equal(t, "$group", key)
	assert.Equal(t, "$location.building", val.(bson.M)["_id"])

	key, val = stage(t, p[1])
	assert.Equal(t, "$sort", key)
	assert.Equal(t, bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}, val)
}

func TestMonthlyTrendPipeline_MatchesRange(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := MonthlyTrendPipeline(DateRange{From: &from})
	require.Len(t, p, 3)

	key, val := stage(t, p[0])
	assert.Equal(t, "$match", key)
	assert.Equal(t, bson.M{"createdAt": bson.M{"$gte": from}}, val)

	key, _ = stage(t, p[2])
	assert.Equal(t, "$sort", key)
}

func TestAverageResolutionPipeline_OnlyCompleted(t *testing.T) {
	p := AverageResolutionPipeline(DateRange{})
	_, val := stage(t, p[0])
	assert.Equal(t, bson.M{"actualCompletion": bson.M{"$exists": true, "$ne": nil}}, val)

	_, val = stage(t, p[2])
	assert.Equal(t, bson.M{"$avg": "$resolutionTime"}, val.(bson.M)["avgResolutionTime"])
}

func TestTopLocationsPipeline_Limit(t *testing.T) {
	p := TopLocationsPipeline(DateRange{}, 0)
	key, val := stage(t, p[len(p)-1])
	assert.Equal(t, "$limit", key)
	assert.Equal(t, 10, val)

	p = TopLocationsPipeline(DateRange{}, 3)
	_, val = stage(t, p[len(p)-1])
	assert.Equal(t, 3, val)
}

func TestStatusOverTimePipeline_GroupKey(t *testing.T) {
	p := StatusOverTimePipeline(DateRange{})
	_, val := stage(t, p[1])
	id := val.(bson.M)["_id"].(bson.M)
	assert.Equal(t, "$status", id["status"])
	assert.Contains(t, id, "year")
	assert.Contains(t, id, "month")
}

func TestReportRepository_AverageResolutionDays(t *testing.T) {
	mt := mockMongo(t)

	mt.Run("nothing completed", func(mt *mtest.T) {
		repo := NewReportRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, complaintsNS, mtest.FirstBatch))

		avg, err := repo.AverageResolutionDays(context.Background(), DateRange{})
		require.NoError(mt, err)
		assert.Zero(mt, avg)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "aggregate", started.CommandName)
	})

	mt.Run("averages completed", func(mt *mtest.T) {
		repo := NewReportRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, complaintsNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "avgResolutionTime", Value: 2.5},
		}))

		avg, err := repo.AverageResolutionDays(context.Background(), DateRange{})
		require.NoError(mt, err)
		assert.InDelta(mt, 2.5, avg, 1e-9)
	})
}

func TestReportRepository_Overview(t *testing.T) {
	mt := mockMongo(t)

	mt.Run("counts by status", func(mt *mtest.T) {
		repo := NewReportRepository(mt.DB)
		mt.AddMockResponses(countReply(7), countReply(3), countReply(1), countReply(2))

		out, err := repo.Overview(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, &ComplaintCounts{Total: 7, Pending: 3, InProgress: 1, Resolved: 2}, out)
	})
}
