package merge

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelcli/internal/files"
	"travelcli/pkg/contracts/domain"
)

func flight(passenger, dept, departTime string, price float64) domain.TravelRecord {
	return domain.TravelRecord{
		Source:     "阿里商旅",
		Type:       domain.RecordFlight,
		DeptLevel1: dept,
		Flight: &domain.FlightDetails{
			Passenger:  passenger,
			DepartTime: departTime,
			Price:      price,
		},
	}
}

func hotel(employee, dept, checkIn string, price float64) domain.TravelRecord {
	return domain.TravelRecord{
		Source:     "携程商旅",
		Type:       domain.RecordHotel,
		DeptLevel1: dept,
		Hotel: &domain.HotelDetails{
			Employee:    employee,
			CheckInTime: checkIn,
			Price:       price,
		},
	}
}

func car(passenger, dept, pickup string, amount float64) domain.TravelRecord {
	return domain.TravelRecord{
		Source:     "在途商旅",
		Type:       domain.RecordCar,
		DeptLevel1: dept,
		Car: &domain.CarDetails{
			Passenger:   passenger,
			PickupTime:  pickup,
			TotalAmount: amount,
		},
	}
}

func testShards() []*domain.MonthShard {
	return []*domain.MonthShard{
		{
			Source: "阿里商旅",
			Month:  "2025-12",
			Records: []domain.TravelRecord{
				flight("张三", "技术部", "2025-12-03 08:30:00", 1000),
				flight("李四", "销售部", "2025-12-05 10:00:00", 2000),
			},
		},
		{
			Source: "携程商旅",
			Month:  "2025-11",
			Records: []domain.TravelRecord{
				hotel("张三", "技术部", "2025-11-20 14:00:00", 500),
			},
		},
		{
			Source: "在途商旅",
			Month:  "2025-12",
			Records: []domain.TravelRecord{
				car("王五", "", "2025-12-07 18:20:00", 86.5),
			},
		},
	}
}

func TestMergeSummaryTotals(t *testing.T) {
	engine := NewEngine(slog.Default())
	dataset := engine.Merge(context.Background(), testShards(), nil)

	assert.Equal(t, 3586.5, dataset.Summary.TotalAmount)
	assert.Equal(t, 4, dataset.Summary.TotalRecords)
	assert.Equal(t, []string{"2025-11", "2025-12"}, dataset.Months)
	assert.Equal(t, []string{"在途商旅", "携程商旅", "阿里商旅"}, dataset.Sources)

	// Summary total equals the sum of every dimension's group amounts.
	for _, grouped := range []domain.GroupedTotals{
		dataset.Summary.ByDept,
		dataset.Summary.ByType,
		dataset.Summary.ByMonth,
		dataset.Summary.BySource,
	} {
		var sum float64
		var count int
		for _, e := range grouped {
			sum += e.Totals.Amount
			count += e.Totals.Count
		}
		assert.InDelta(t, dataset.Summary.TotalAmount, sum, 0.001)
		assert.Equal(t, dataset.Summary.TotalRecords, count)
	}
}

func TestMergeGroupOrdering(t *testing.T) {
	engine := NewEngine(slog.Default())
	dataset := engine.Merge(context.Background(), testShards(), nil)
	s := dataset.Summary

	// Departments ranked by descending amount; missing dept under sentinel.
	require.Len(t, s.ByDept, 3)
	assert.Equal(t, "销售部", s.ByDept[0].Key)
	assert.Equal(t, "技术部", s.ByDept[1].Key)
	assert.Equal(t, UnknownDept, s.ByDept[2].Key)
	assert.Equal(t, domain.GroupTotals{Amount: 1500, Count: 2}, s.ByDept[1].Totals)

	// Months ascending by key, not by amount.
	require.Len(t, s.ByMonth, 2)
	assert.Equal(t, "2025-11", s.ByMonth[0].Key)
	assert.Equal(t, "2025-12", s.ByMonth[1].Key)

	// Employee ranking.
	require.Len(t, s.ByEmployee, 3)
	assert.Equal(t, "李四", s.ByEmployee[0].Key)
	assert.Equal(t, "张三", s.ByEmployee[1].Key)
	assert.Equal(t, "王五", s.ByEmployee[2].Key)
}

func TestMergeStableTieOrder(t *testing.T) {
	shards := []*domain.MonthShard{{
		Source: "阿里商旅",
		Month:  "2025-12",
		Records: []domain.TravelRecord{
			flight("甲", "部门B", "2025-12-01 08:00:00", 100),
			flight("乙", "部门A", "2025-12-01 08:00:00", 100),
		},
	}}

	engine := NewEngine(slog.Default())
	dataset := engine.Merge(context.Background(), shards, nil)

	// Equal amounts keep first-seen order.
	require.Len(t, dataset.Summary.ByDept, 2)
	assert.Equal(t, "部门B", dataset.Summary.ByDept[0].Key)
	assert.Equal(t, "部门A", dataset.Summary.ByDept[1].Key)
}

func TestMergeSentinels(t *testing.T) {
	shards := []*domain.MonthShard{{
		Source: "阿里商旅",
		Month:  "2025-12",
		Records: []domain.TravelRecord{
			{Source: "", Type: "bus"}, // unknown type, no details at all
		},
	}}

	engine := NewEngine(slog.Default())
	dataset := engine.Merge(context.Background(), shards, nil)
	s := dataset.Summary

	assert.Equal(t, 0.0, s.TotalAmount)
	assert.Equal(t, 1, s.TotalRecords)

	for _, tc := range []struct {
		grouped domain.GroupedTotals
		key     string
	}{
		{s.ByDept, UnknownDept},
		{s.ByType, UnknownType},
		{s.ByMonth, UnknownMonth},
		{s.ByEmployee, UnknownEmployee},
		{s.BySource, UnknownSource},
	} {
		totals, ok := tc.grouped.Get(tc.key)
		require.True(t, ok, tc.key)
		assert.Equal(t, domain.GroupTotals{Amount: 0, Count: 1}, totals)
	}
}

func TestMergeIndexCompleteness(t *testing.T) {
	engine := NewEngine(slog.Default())
	dataset := engine.Merge(context.Background(), testShards(), nil)

	for name, index := range map[string]map[string][]int{
		"byDept":     dataset.Indexes.ByDept,
		"byType":     dataset.Indexes.ByType,
		"byMonth":    dataset.Indexes.ByMonth,
		"byEmployee": dataset.Indexes.ByEmployee,
		"bySource":   dataset.Indexes.BySource,
	} {
		seen := make(map[int]bool)
		for key, positions := range index {
			prev := -1
			for _, p := range positions {
				assert.Greater(t, p, prev, "positions ascending in %s/%s", name, key)
				prev = p
				assert.False(t, seen[p], "position %d duplicated in %s", p, name)
				seen[p] = true
			}
		}
		assert.Len(t, seen, len(dataset.Records), "every record indexed in %s", name)
	}

	assert.Equal(t, []int{0, 2}, dataset.Indexes.ByEmployee["张三"])
}

func TestMergeEmployeeTruncation(t *testing.T) {
	shard := &domain.MonthShard{Source: "阿里商旅", Month: "2025-12"}
	for i := 0; i < 120; i++ {
		shard.Records = append(shard.Records,
			flight(string(rune('一'+i)), "技术部", "2025-12-01 08:00:00", float64(i+1)))
	}

	engine := NewEngine(slog.Default())
	dataset := engine.Merge(context.Background(), []*domain.MonthShard{shard}, nil)

	assert.Len(t, dataset.Summary.ByEmployee, topEmployees)
	// Highest spender first, every indexed employee still present.
	assert.Equal(t, 120.0, dataset.Summary.ByEmployee[0].Totals.Amount)
	assert.Len(t, dataset.Indexes.ByEmployee, 120)
}

func TestMergeRounding(t *testing.T) {
	shards := []*domain.MonthShard{{
		Source: "阿里商旅",
		Month:  "2025-12",
		Records: []domain.TravelRecord{
			flight("张三", "技术部", "2025-12-01 08:00:00", 0.1),
			flight("张三", "技术部", "2025-12-02 08:00:00", 0.2),
		},
	}}

	engine := NewEngine(slog.Default())
	dataset := engine.Merge(context.Background(), shards, nil)

	assert.Equal(t, 0.3, dataset.Summary.TotalAmount)
	totals, ok := dataset.Summary.ByDept.Get("技术部")
	require.True(t, ok)
	assert.Equal(t, 0.3, totals.Amount)
}

func TestMergeIdempotence(t *testing.T) {
	engine := NewEngine(slog.Default())
	engine.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	first := engine.Merge(context.Background(), testShards(), nil)
	second := engine.Merge(context.Background(), testShards(), nil)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestLoadShardsSkipsRosterSnapshotsAndUnreadable(t *testing.T) {
	dir := t.TempDir()

	shard := &domain.MonthShard{
		Source:  "阿里商旅",
		Month:   "2025-12",
		Records: []domain.TravelRecord{flight("张三", "技术部", "2025-12-01 08:00:00", 100)},
		Count:   1,
	}
	require.NoError(t, files.WriteJSONAtomic(filepath.Join(dir, "alibaba_2025-12.json"), shard))
	require.NoError(t, files.WriteJSONAtomic(filepath.Join(dir, "roster_2025-12.json"), map[string]string{"month": "2025-12"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644))

	engine := NewEngine(slog.Default())
	shards, err := engine.LoadShards(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, shards, 1)
	assert.Equal(t, "阿里商旅", shards[0].Source)
}

func TestLoadShardsMissingDir(t *testing.T) {
	engine := NewEngine(slog.Default())
	_, err := engine.LoadShards(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestWriteDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "travel-data.json")

	engine := NewEngine(slog.Default())
	dataset := engine.Merge(context.Background(), testShards(), nil)
	require.NoError(t, engine.Write(context.Background(), path, dataset))

	var got domain.Dataset
	require.NoError(t, files.ReadJSON(path, &got))
	assert.Equal(t, dataset.Summary.TotalAmount, got.Summary.TotalAmount)
	assert.Len(t, got.Records, len(dataset.Records))
}
