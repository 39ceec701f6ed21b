package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Dialect constants for database type detection
const (
	dialectPostgres  = "postgres"
	dialectOracle    = "oracle"
	dialectMySQL     = "mysql"
	dialectSQLServer = "sqlserver"
	dialectSQLite    = "sqlite"
)

// largeTextType is the unbounded text column type for each dialect
func largeTextType(db *gorm.DB) string {
	switch db.Name() {
	case dialectOracle:
		return "CLOB"
	case dialectMySQL:
		return "LONGTEXT"
	case dialectSQLServer:
		return "NVARCHAR(MAX)"
	default:
		return "TEXT"
	}
}

func scanBytes(value any, target string) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case fmt.Stringer:
		// godror returns CLOB-backed values as Stringers
		return []byte(v.String()), nil
	default:
		return nil, fmt.Errorf("cannot scan type %T into %s", value, target)
	}
}

// StringArray stores a string slice as a JSON array in a large text column.
// Used for hrids, restricted groups and tags where no query filters on elements.
type StringArray []string

// GormDBDataType returns the dialect-specific column type
func (StringArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return largeTextType(db)
}

// Value implements the driver.Valuer interface for database writes
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	bytes, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// Scan implements the sql.Scanner interface for database reads
func (a *StringArray) Scan(value any) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, err := scanBytes(value, "StringArray")
	if err != nil {
		return err
	}
	if len(bytes) == 0 {
		*a = StringArray{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(bytes, &out); err != nil {
		return err
	}
	*a = out
	return nil
}

// StringMap stores string key/value configuration as a JSON object
type StringMap map[string]string

// GormDBDataType returns the dialect-specific column type
func (StringMap) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Name() {
	case dialectPostgres:
		return "JSONB"
	case dialectMySQL:
		return "JSON"
	default:
		return largeTextType(db)
	}
}

// Value implements the driver.Valuer interface for database writes.
// Returns string (not []byte) for Oracle CLOB compatibility.
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	bytes, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// Scan implements the sql.Scanner interface for database reads
func (m *StringMap) Scan(value any) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}
	bytes, err := scanBytes(value, "StringMap")
	if err != nil {
		return err
	}
	if len(bytes) == 0 {
		*m = StringMap{}
		return nil
	}
	out := map[string]string{}
	if err := json.Unmarshal(bytes, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// DBText is a cross-database large text type for page content, definitions and payloads
type DBText string

// GormDBDataType returns the dialect-specific column type
func (DBText) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return largeTextType(db)
}

// Scan implements the sql.Scanner interface for database reads
func (t *DBText) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}
	bytes, err := scanBytes(value, "DBText")
	if err != nil {
		return err
	}
	*t = DBText(bytes)
	return nil
}

// Value implements the driver.Valuer interface for database writes
func (t DBText) Value() (driver.Value, error) {
	return string(t), nil
}

// String returns the underlying string value
func (t DBText) String() string {
	return string(t)
}

// DBBool is a cross-database boolean. Oracle uses NUMBER(1), MySQL TINYINT(1) and
// SQL Server BIT, while PostgreSQL has a native boolean.
type DBBool bool

// GormDBDataType returns the dialect-specific column type
func (DBBool) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Name() {
	case dialectOracle:
		return "NUMBER(1)"
	case dialectMySQL:
		return "TINYINT(1)"
	case dialectSQLServer:
		return "BIT"
	case dialectSQLite:
		return "INTEGER"
	default:
		return "BOOLEAN"
	}
}

// Scan implements the sql.Scanner interface for DBBool
func (b *DBBool) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*b = false
	case bool:
		*b = DBBool(v)
	case int64:
		*b = v != 0
	case int:
		*b = v != 0
	case int32:
		*b = v != 0
	case float64:
		*b = v != 0
	case []byte:
		*b = len(v) > 0 && string(v) != "0" && string(v) != "false"
	case fmt.Stringer:
		str := v.String()
		*b = str != "0" && str != ""
	default:
		return fmt.Errorf("cannot scan type %T into DBBool", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for DBBool
func (b DBBool) Value() (driver.Value, error) {
	return bool(b), nil
}

// Bool returns the underlying bool value
func (b DBBool) Bool() bool {
	return bool(b)
}
