package internal

import "fmt"

// Error classification reported to the caller. Load errors happen before a
// database connection is opened; validation and database errors abort the
// entire run with a rollback.
const (
	ErrorTypeLoad       = "LOAD_ERROR"
	ErrorTypeValidation = "VALIDATION_ERROR"
	ErrorTypeDatabase   = "DB_ERROR"
)

// ValidationError points at the exact offending cell of a run. RowNumber is
// 1-based, Column is the source header the user recognizes.
type ValidationError struct {
	Table      string `json:"tableName"`
	RowNumber  int    `json:"rowNumber"`
	Column     string `json:"columnName"`
	TargetType string `json:"targetType"`
	Value      string `json:"invalidValue"`
	Reason     string `json:"message"`
	Row        Row    `json:"rowData"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("table %s row %d column %q: %s (target type %s)", e.Table, e.RowNumber, e.Column, e.Reason, e.TargetType)
}
