package domain

// RosterEntry is one employee row from a monthly roster snapshot, keyed by
// name within the snapshot. A duplicate name later in the sheet overwrites
// the earlier row.
type RosterEntry struct {
	Name        string `json:"-"`
	EnglishName string `json:"englishName,omitempty"`
	DeptLevel1  string `json:"deptLevel1"`
	DeptLevel2  string `json:"deptLevel2"`
	DeptLevel3  string `json:"deptLevel3"`
	Position    string `json:"position"`
	Status      string `json:"status"`
}

// DeptInfo is the department chain attached to an employee in the
// cumulative index. LatestRecord is the YYYY-MM month whose snapshot the
// department fields were taken from; it only ever moves forward.
type DeptInfo struct {
	DeptLevel1   string `json:"deptLevel1"`
	DeptLevel2   string `json:"deptLevel2"`
	DeptLevel3   string `json:"deptLevel3"`
	LatestRecord string `json:"latestRecord"`
}

// MonthMeta records provenance for one ingested roster month.
type MonthMeta struct {
	File        string `json:"file"`
	ProcessedAt string `json:"processedAt"`
	Count       int    `json:"count"`
}

// EmployeeIndex is the persisted cumulative roster view: per-month ingest
// metadata plus the latest known department for every employee seen in any
// processed snapshot.
type EmployeeIndex struct {
	Months       map[string]MonthMeta `json:"months"`
	AllEmployees map[string]DeptInfo  `json:"allEmployees"`
}

// NewEmployeeIndex returns an empty, non-nil index.
func NewEmployeeIndex() *EmployeeIndex {
	return &EmployeeIndex{
		Months:       make(map[string]MonthMeta),
		AllEmployees: make(map[string]DeptInfo),
	}
}

// RosterSnapshot is the persisted per-month roster document.
type RosterSnapshot struct {
	Month       string                 `json:"month"`
	RosterFile  string                 `json:"rosterFile"`
	ProcessedAt string                 `json:"processedAt"`
	Employees   map[string]RosterEntry `json:"employees"`
	Count       int                    `json:"count"`
}
