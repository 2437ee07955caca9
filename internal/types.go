package internal

// Row is one logical record, keyed by original column name on the incoming
// side and by database field name when read back from the store. Values are
// limited to nil, string, number, boolean and time.Time.
type Row map[string]any

// Strategy is the table level synchronization policy.
type Strategy string

const (
	// StrategyIncremental diffs unchanged-structure tables and applies only
	// the necessary inserts and updates.
	StrategyIncremental Strategy = "incremental"

	// StrategyOverwrite drops and rebuilds every table wholesale.
	StrategyOverwrite Strategy = "overwrite"
)

// Valid reports whether the strategy is one of the known policies.
func (s Strategy) Valid() bool {
	return s == StrategyIncremental || s == StrategyOverwrite
}

// RowUpdate pairs a live row id with the incoming row that should replace it.
type RowUpdate struct {
	ID   int64
	Data Row
}

// DiffResult is the per-table classification produced by the diff
// calculator. It is created fresh each run and consumed immediately by the
// exporter, never persisted.
type DiffResult struct {
	IsNewTable      bool
	IsSchemaChanged bool
	ToInsert        []Row
	ToUpdate        []RowUpdate

	// DBCount is the number of live rows seen: zero for a new table, the
	// current row count for a schema change, or the cursor total otherwise.
	DBCount int
}

// SyncRequest describes one synchronization run. URL, Driver and Strategy
// fall back to process level configuration when empty.
type SyncRequest struct {
	URL      string
	Driver   string
	Version  string
	Strategy Strategy
	DryRun   bool
}

// TableSyncDetail is the per-table section of the sync report.
type TableSyncDetail struct {
	TableName   string  `json:"tableName"`
	InsertCount int     `json:"insertCount"`
	UpdateCount int     `json:"updateCount"`
	InsertIDs   []int64 `json:"insertIds"`
	UpdateIDs   []int64 `json:"updateIds"`

	// Checksum is an xxhash over the applied row signatures, useful for
	// comparing batches across runs. Diagnostic only.
	Checksum string `json:"checksum,omitempty"`
}

// SyncStats is the aggregate section of the sync report.
type SyncStats struct {
	Tables        int    `json:"tables"`
	Rows          int    `json:"rows"`
	Relationships int    `json:"relationships"`
	Strategy      string `json:"strategy"`
}

// SyncResult is the structured outcome of a run returned to the caller. An
// external collaborator may persist it for notification purposes.
type SyncResult struct {
	Success       bool              `json:"success"`
	SessionID     string            `json:"sessionId"`
	Version       string            `json:"version,omitempty"`
	Stats         *SyncStats        `json:"stats,omitempty"`
	DetailsReport []TableSyncDetail `json:"detailsReport,omitempty"`
	Error         string            `json:"error,omitempty"`
	ErrorType     string            `json:"errorType,omitempty"`
	Details       any               `json:"details,omitempty"`
}
