// Package merge combines the per-vendor-per-month shards into the single
// dataset document the reporting side consumes. The summary and indexes are
// rebuilt from scratch on every run, so repeated merges over the same shards
// produce byte-identical output apart from the lastUpdate stamp.
package merge

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"travelcli/internal/files"
	"travelcli/internal/vendor"
	"travelcli/pkg/contracts/domain"
)

// Sentinel group keys for records missing an attribute. Records are never
// dropped for missing data; they aggregate under these keys instead.
const (
	UnknownDept     = "未知部门"
	UnknownMonth    = "未知月份"
	UnknownEmployee = "未知员工"
	UnknownSource   = "未知来源"
	UnknownType     = "unknown"
)

// topEmployees caps the byEmployee summary ranking. The indexes keep every
// employee; only the summary is truncated.
const topEmployees = 100

// rosterSnapshotPrefix marks the per-month roster documents sharing the
// shard directory; the merge must not treat them as vendor shards.
const rosterSnapshotPrefix = "roster_"

// Engine assembles the merged dataset from a shard directory.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates a merge engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, now: time.Now}
}

// LoadShards reads every vendor shard under dir in filename order, skipping
// roster snapshots. An unreadable shard is logged and skipped; the merge
// proceeds with what loads.
func (e *Engine) LoadShards(ctx context.Context, dir string) ([]*domain.MonthShard, error) {
	discovery := files.NewDiscovery(dir)
	infos, err := discovery.FindJSONFiles(".")
	if err != nil {
		return nil, err
	}

	shards := make([]*domain.MonthShard, 0, len(infos))
	for _, info := range infos {
		if strings.HasPrefix(info.Name, rosterSnapshotPrefix) {
			continue
		}
		shard, err := vendor.ReadShard(info.Path)
		if err != nil {
			e.logger.ErrorContext(ctx, "skipping unreadable shard",
				slog.String("file", info.Name),
				slog.String("error", err.Error()))
			continue
		}
		shards = append(shards, shard)
	}
	return shards, nil
}

// Merge builds the full dataset document from the loaded shards and the
// cumulative roster index. Record order is shard order (filename order)
// with each shard's records in their original sequence.
func (e *Engine) Merge(ctx context.Context, shards []*domain.MonthShard, roster *domain.EmployeeIndex) *domain.Dataset {
	var records []domain.TravelRecord
	monthSet := make(map[string]bool)
	sourceSet := make(map[string]bool)

	for _, shard := range shards {
		records = append(records, shard.Records...)
		if shard.Month != "" {
			monthSet[shard.Month] = true
		}
		if shard.Source != "" {
			sourceSet[shard.Source] = true
		}
	}

	if roster == nil {
		roster = domain.NewEmployeeIndex()
	}

	dataset := &domain.Dataset{
		LastUpdate: e.now().Format(time.RFC3339),
		Months:     sortedKeys(monthSet),
		Sources:    sortedKeys(sourceSet),
		Records:    records,
		Summary:    buildSummary(records),
		Indexes:    buildIndexes(records),
		Roster:     roster,
	}

	e.logger.InfoContext(ctx, "merged dataset",
		slog.Int("shards", len(shards)),
		slog.Int("records", len(records)),
		slog.Int("months", len(dataset.Months)),
		slog.Int("sources", len(dataset.Sources)))

	return dataset
}

// Write persists the dataset atomically.
func (e *Engine) Write(ctx context.Context, path string, dataset *domain.Dataset) error {
	if err := files.WriteJSONAtomic(path, dataset); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "wrote dataset",
		slog.String("file", filepath.Base(path)),
		slog.Int("records", len(dataset.Records)))
	return nil
}

// groupKeys returns the five grouping keys for one record. A missing
// attribute maps to its sentinel key rather than excluding the record.
func groupKeys(r *domain.TravelRecord) (dept, typ, month, employee, source string) {
	dept = r.DeptLevel1
	if dept == "" {
		dept = UnknownDept
	}

	typ = string(r.Type)
	switch r.Type {
	case domain.RecordFlight, domain.RecordHotel, domain.RecordTrain, domain.RecordCar:
	default:
		typ = UnknownType
	}

	month = UnknownMonth
	if date := r.DateField(); len(date) >= 7 {
		month = date[:7]
	}

	employee = r.EmployeeName()
	if employee == "" {
		employee = UnknownEmployee
	}

	source = r.Source
	if source == "" {
		source = UnknownSource
	}
	return
}

// accumulator tallies one grouping dimension while remembering first-seen
// key order, so ties in the ranked output stay deterministic.
type accumulator struct {
	totals map[string]*domain.GroupTotals
	order  []string
}

func newAccumulator() *accumulator {
	return &accumulator{totals: make(map[string]*domain.GroupTotals)}
}

func (a *accumulator) add(key string, amount float64) {
	t, ok := a.totals[key]
	if !ok {
		t = &domain.GroupTotals{}
		a.totals[key] = t
		a.order = append(a.order, key)
	}
	t.Amount += amount
	t.Count++
}

// byAmountDesc returns the entries ranked by descending amount; equal
// amounts keep first-seen order. Amounts are rounded here, at output time.
func (a *accumulator) byAmountDesc() domain.GroupedTotals {
	out := a.entries()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Totals.Amount > out[j].Totals.Amount
	})
	return out
}

// byKeyAsc returns the entries sorted by key.
func (a *accumulator) byKeyAsc() domain.GroupedTotals {
	out := a.entries()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (a *accumulator) entries() domain.GroupedTotals {
	out := make(domain.GroupedTotals, 0, len(a.order))
	for _, key := range a.order {
		t := a.totals[key]
		out = append(out, domain.GroupEntry{
			Key:    key,
			Totals: domain.GroupTotals{Amount: round2(t.Amount), Count: t.Count},
		})
	}
	return out
}

// buildSummary aggregates the five reporting dimensions in a single pass.
func buildSummary(records []domain.TravelRecord) domain.Summary {
	byDept := newAccumulator()
	byType := newAccumulator()
	byMonth := newAccumulator()
	byEmployee := newAccumulator()
	bySource := newAccumulator()

	var total float64
	for i := range records {
		amount := records[i].Amount()
		total += amount

		dept, typ, month, employee, source := groupKeys(&records[i])
		byDept.add(dept, amount)
		byType.add(typ, amount)
		byMonth.add(month, amount)
		byEmployee.add(employee, amount)
		bySource.add(source, amount)
	}

	employees := byEmployee.byAmountDesc()
	if len(employees) > topEmployees {
		employees = employees[:topEmployees]
	}

	return domain.Summary{
		TotalAmount:  round2(total),
		TotalRecords: len(records),
		ByDept:       byDept.byAmountDesc(),
		ByType:       byType.byAmountDesc(),
		ByMonth:      byMonth.byKeyAsc(),
		ByEmployee:   employees,
		BySource:     bySource.byAmountDesc(),
	}
}

// buildIndexes maps every group key to the record positions carrying it, in
// record order. Unlike the employee summary, the employee index is not
// truncated.
func buildIndexes(records []domain.TravelRecord) domain.Indexes {
	idx := domain.Indexes{
		ByDept:     make(map[string][]int),
		ByType:     make(map[string][]int),
		ByMonth:    make(map[string][]int),
		ByEmployee: make(map[string][]int),
		BySource:   make(map[string][]int),
	}
	for i := range records {
		dept, typ, month, employee, source := groupKeys(&records[i])
		idx.ByDept[dept] = append(idx.ByDept[dept], i)
		idx.ByType[typ] = append(idx.ByType[typ], i)
		idx.ByMonth[month] = append(idx.ByMonth[month], i)
		idx.ByEmployee[employee] = append(idx.ByEmployee[employee], i)
		idx.BySource[source] = append(idx.BySource[source], i)
	}
	return idx
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
