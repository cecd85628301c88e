package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GroupTotals is the aggregate for one group key.
type GroupTotals struct {
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// GroupEntry pairs a group key with its totals.
type GroupEntry struct {
	Key    string
	Totals GroupTotals
}

// GroupedTotals is an order-preserving JSON object of group key -> totals.
// Plain Go maps marshal with keys sorted, which would destroy the
// by-descending-amount ranking the summary contract requires, so this type
// marshals its entries as an object in slice order and decodes back in
// document order.
type GroupedTotals []GroupEntry

// Get returns the totals for key, if present.
func (g GroupedTotals) Get(key string) (GroupTotals, bool) {
	for _, e := range g {
		if e.Key == key {
			return e.Totals, true
		}
	}
	return GroupTotals{}, false
}

// MarshalJSON writes the entries as a JSON object in slice order.
func (g GroupedTotals) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(e.Totals)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving key order.
func (g *GroupedTotals) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("grouped totals: expected object, got %v", tok)
	}

	out := GroupedTotals{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("grouped totals: non-string key %v", keyTok)
		}
		var totals GroupTotals
		if err := dec.Decode(&totals); err != nil {
			return err
		}
		out = append(out, GroupEntry{Key: key, Totals: totals})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*g = out
	return nil
}

// Summary holds the aggregate totals over the full record set, grouped by
// the five reporting dimensions. It is recomputed from scratch on every
// merge, never incrementally mutated.
type Summary struct {
	TotalAmount  float64       `json:"totalAmount"`
	TotalRecords int           `json:"totalRecords"`
	ByDept       GroupedTotals `json:"byDept"`
	ByType       GroupedTotals `json:"byType"`
	ByMonth      GroupedTotals `json:"byMonth"`
	ByEmployee   GroupedTotals `json:"byEmployee"`
	BySource     GroupedTotals `json:"bySource"`
}

// Indexes maps each grouping dimension's keys to the 0-based positions of
// matching records, in original record order.
type Indexes struct {
	ByDept     map[string][]int `json:"byDept"`
	ByType     map[string][]int `json:"byType"`
	ByMonth    map[string][]int `json:"byMonth"`
	ByEmployee map[string][]int `json:"byEmployee"`
	BySource   map[string][]int `json:"bySource"`
}

// Dataset is the merged output document, the sole contract consumed by the
// report-rendering side.
type Dataset struct {
	LastUpdate string         `json:"lastUpdate"`
	Months     []string       `json:"months"`
	Sources    []string       `json:"sources"`
	Records    []TravelRecord `json:"records"`
	Summary    Summary        `json:"summary"`
	Indexes    Indexes        `json:"indexes"`
	Roster     *EmployeeIndex `json:"roster"`
}

// MonthShard is one persisted per-vendor-per-month record file produced by a
// vendor adapter run.
type MonthShard struct {
	Source      string         `json:"source"`
	Month       string         `json:"month"`
	SourceFile  string         `json:"sourceFile"`
	ProcessedAt string         `json:"processedAt"`
	Records     []TravelRecord `json:"records"`
	Count       int            `json:"count"`
}
