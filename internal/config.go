package internal

// MaskKind selects the obfuscation rule for a sensitive column.
type MaskKind string

const (
	MaskName   MaskKind = "name"
	MaskPhone  MaskKind = "phone"
	MaskIDCard MaskKind = "id_card"
	MaskEmail  MaskKind = "email"
)

// SyncConfig carries the static per-table configuration for a process. It is
// constructed once at startup and passed explicitly, never mutated.
type SyncConfig struct {

	// MaskRules maps table name to column name to mask kind. Columns absent
	// from the map are written unmasked.
	MaskRules map[string]map[string]MaskKind

	// UniqueKeys lists, per dimension table, the columns that must carry a
	// unique index so the table is a valid foreign key target.
	UniqueKeys map[string][]string

	// InsertBatchSize bounds the number of rows per insert statement.
	InsertBatchSize int

	// ScanBatchSize bounds the number of live rows fetched per cursor batch
	// during diff calculation.
	ScanBatchSize int
}

const (
	DefaultInsertBatchSize = 500
	DefaultScanBatchSize   = 10000
)

// DefaultSyncConfig returns the built-in masking and dimension rules for the
// property report tables this deployment manages.
func DefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		MaskRules: map[string]map[string]MaskKind{
			"contract_creation_log": {
				"resident_name": MaskName,
			},
			"resident_id_document_list": {
				"resident_name": MaskName,
				"id_number":     MaskIDCard,
				"mobile":        MaskPhone,
			},
			"tenant_analysis_report": {
				"resident_name": MaskName,
			},
			"arrival_departure_weekly": {
				"resident_name": MaskName,
				"mobile":        MaskPhone,
				"id_number":     MaskIDCard,
			},
			"viewing_appointment_list": {
				"resident_name": MaskName,
				"mobile":        MaskPhone,
			},
		},
		UniqueKeys: map[string][]string{
			"dim_room_type":       {"room_code"},
			"dim_status_map":      {"status", "status_desc"},
			"dim_work_order_items": {"item_code", "item_desc"},
			"dim_work_locations":  {"location_code", "location_desc"},
			"room_details":        {"room_number"},
		},
		InsertBatchSize: DefaultInsertBatchSize,
		ScanBatchSize:   DefaultScanBatchSize,
	}
}
