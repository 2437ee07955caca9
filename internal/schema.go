package internal

import "encoding/json"

// ColumnMapping is one user-authored column rule inside a table mapping.
// Enabled defaults to true when the document omits it.
type ColumnMapping struct {
	OriginalName string `json:"original"`
	DBField      string `json:"dbField"`
	SQLType      string `json:"sqlType"`
	Comment      string `json:"comment,omitempty"`
	Enabled      bool   `json:"enabled"`
}

func (c *ColumnMapping) UnmarshalJSON(buf []byte) error {
	type alias ColumnMapping
	a := alias{Enabled: true}
	if err := json.Unmarshal(buf, &a); err != nil {
		return err
	}
	*c = ColumnMapping(a)
	return nil
}

// Column is the projection of an enabled ColumnMapping that the engine works
// with: Name is the database field, OriginalName the source header.
type Column struct {
	Name         string
	Type         string
	OriginalName string
	Comment      string
}

// TableMapping describes one logical table in the mapping document.
type TableMapping struct {
	TableName    string          `json:"tableName"`
	OriginalName string          `json:"originalName,omitempty"`
	TableRemarks string          `json:"tableRemarks,omitempty"`
	Columns      []ColumnMapping `json:"columns"`
}

// UnmarshalJSON accepts both a flat node and the editor's node wrapper where
// the table definition is nested under a "data" key.
func (t *TableMapping) UnmarshalJSON(buf []byte) error {
	type alias TableMapping
	var a alias
	if err := json.Unmarshal(buf, &a); err != nil {
		return err
	}
	if a.TableName == "" {
		var wrapper struct {
			Data *alias `json:"data"`
		}
		if err := json.Unmarshal(buf, &wrapper); err == nil && wrapper.Data != nil {
			a = *wrapper.Data
		}
	}
	*t = TableMapping(a)
	return nil
}

// EnabledColumns returns the columns that participate in synchronization, in
// mapping order. The column comment falls back to the original header so
// every column carries a human readable description.
func (t *TableMapping) EnabledColumns() []Column {
	cols := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.Enabled || c.DBField == "" {
			continue
		}
		comment := c.Comment
		if comment == "" {
			comment = c.OriginalName
		}
		cols = append(cols, Column{
			Name:         c.DBField,
			Type:         c.SQLType,
			OriginalName: c.OriginalName,
			Comment:      comment,
		})
	}
	return cols
}

// Comment returns the table level remark, falling back to the original name.
func (t *TableMapping) Comment() string {
	if t.TableRemarks != "" {
		return t.TableRemarks
	}
	return t.OriginalName
}

// Relationship describes an intended foreign key between two managed tables.
type Relationship struct {
	SourceTable   string `json:"sourceTable"`
	SourceDBField string `json:"sourceDbField"`
	TargetTable   string `json:"targetTable"`
	TargetDBField string `json:"targetDbField"`
}

// ConstraintName returns the deterministic foreign key constraint name.
func (r Relationship) ConstraintName() string {
	return "fk_" + r.SourceTable + "_" + r.SourceDBField
}

// Mapping is one versioned schema mapping document.
type Mapping struct {
	Version       string         `json:"-"`
	Nodes         []TableMapping `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// MappingRegistry resolves versioned schema mapping documents.
type MappingRegistry interface {

	// Versions returns all known versions in ascending order.
	Versions() ([]string, error)

	// Latest returns the most recent version.
	Latest() (string, error)

	// Load returns the mapping document for a version.
	Load(version string) (*Mapping, error)
}

// RowSource supplies the incoming rows for one synchronization run, grouped
// by logical table name. Each row is keyed by original column name.
type RowSource interface {
	Rows(version string, mapping *Mapping) (map[string][]Row, error)
}
