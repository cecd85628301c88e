package roster

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelcli/pkg/contracts/domain"
)

func entry(name, dept1, dept2 string) domain.RosterEntry {
	return domain.RosterEntry{
		Name:       name,
		DeptLevel1: dept1,
		DeptLevel2: dept2,
		Status:     "在职",
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix := NewIndex(NewMemoryStore(), slog.Default())
	ix.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return ix
}

func TestIndex_IngestAndCumulativeLookup(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	require.NoError(t, ix.Ingest(ctx, "2025-11", "2025年11月花名册.xlsx", []domain.RosterEntry{
		entry("张三", "技术部", "平台组"),
		entry("李四", "销售部", "华东区"),
	}))

	lookup, err := ix.LookupFor("")
	require.NoError(t, err)

	info := lookup("张三")
	assert.Equal(t, "技术部", info.DeptLevel1)
	assert.Equal(t, "2025-11", info.LatestRecord)

	// Unknown names resolve to empty departments, not an error.
	assert.Equal(t, domain.DeptInfo{}, lookup("不存在的人"))
}

func TestIndex_LaterMonthOverwritesDepartment(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	require.NoError(t, ix.Ingest(ctx, "2025-09", "a.xlsx", []domain.RosterEntry{
		entry("张三", "技术部", ""),
	}))
	require.NoError(t, ix.Ingest(ctx, "2025-11", "b.xlsx", []domain.RosterEntry{
		entry("张三", "产品部", ""),
	}))

	lookup, err := ix.LookupFor("")
	require.NoError(t, err)

	info := lookup("张三")
	assert.Equal(t, "产品部", info.DeptLevel1)
	assert.Equal(t, "2025-11", info.LatestRecord)
}

func TestIndex_OutOfOrderIngestDoesNotRegress(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	require.NoError(t, ix.Ingest(ctx, "2025-11", "b.xlsx", []domain.RosterEntry{
		entry("张三", "产品部", ""),
	}))
	// Reprocessing an older snapshot afterwards must not clobber the newer
	// department assignment.
	require.NoError(t, ix.Ingest(ctx, "2025-09", "a.xlsx", []domain.RosterEntry{
		entry("张三", "技术部", ""),
	}))

	lookup, err := ix.LookupFor("")
	require.NoError(t, err)

	info := lookup("张三")
	assert.Equal(t, "产品部", info.DeptLevel1)
	assert.Equal(t, "2025-11", info.LatestRecord)

	// Both months are still recorded in the ingest history.
	index, err := ix.CumulativeIndex()
	require.NoError(t, err)
	assert.Contains(t, index.Months, "2025-09")
	assert.Contains(t, index.Months, "2025-11")
}

func TestIndex_SameMonthReingestWins(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	require.NoError(t, ix.Ingest(ctx, "2025-11", "a.xlsx", []domain.RosterEntry{
		entry("张三", "技术部", ""),
	}))
	require.NoError(t, ix.Ingest(ctx, "2025-11", "a-corrected.xlsx", []domain.RosterEntry{
		entry("张三", "质量部", ""),
	}))

	lookup, err := ix.LookupFor("")
	require.NoError(t, err)
	assert.Equal(t, "质量部", lookup("张三").DeptLevel1)
}

func TestIndex_MonthScopedLookupPrefersSnapshot(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	require.NoError(t, ix.Ingest(ctx, "2025-10", "oct.xlsx", []domain.RosterEntry{
		entry("张三", "技术部", ""),
	}))
	require.NoError(t, ix.Ingest(ctx, "2025-11", "nov.xlsx", []domain.RosterEntry{
		entry("张三", "产品部", ""),
	}))

	lookup, err := ix.LookupFor("2025-10")
	require.NoError(t, err)
	assert.Equal(t, "技术部", lookup("张三").DeptLevel1)

	// A month without a snapshot falls back to the cumulative view.
	lookup, err = ix.LookupFor("2025-12")
	require.NoError(t, err)
	assert.Equal(t, "产品部", lookup("张三").DeptLevel1)
}

func TestIndex_DuplicateNameLastWriteWins(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	require.NoError(t, ix.Ingest(ctx, "2025-11", "a.xlsx", []domain.RosterEntry{
		entry("张三", "技术部", ""),
		entry("张三", "运营部", ""),
	}))

	lookup, err := ix.LookupFor("")
	require.NoError(t, err)
	assert.Equal(t, "运营部", lookup("张三").DeptLevel1)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "roster_index.json")
	snapshotDir := filepath.Join(dir, "by-month")

	ix := NewIndex(NewFileStore(indexPath, snapshotDir), slog.Default())
	require.NoError(t, ix.Ingest(ctx, "2025-11", "nov.xlsx", []domain.RosterEntry{
		entry("张三", "技术部", "平台组"),
	}))

	// A fresh index over the same files sees the prior state.
	reopened := NewIndex(NewFileStore(indexPath, snapshotDir), slog.Default())
	lookup, err := reopened.LookupFor("2025-11")
	require.NoError(t, err)
	assert.Equal(t, "技术部", lookup("张三").DeptLevel1)

	index, err := reopened.CumulativeIndex()
	require.NoError(t, err)
	assert.Equal(t, "nov.xlsx", index.Months["2025-11"].File)
	assert.Equal(t, 1, index.Months["2025-11"].Count)
}
