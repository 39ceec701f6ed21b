// Package fixtures seeds a management database from YAML datasets.
//
// A dataset is a YAML document whose top-level keys are table names, each holding
// a list of rows. Row keys are the model field names in lower camel case
// (referenceId, createdAt, ...). Tables are inserted in document order.
package fixtures

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"reflect"

	"github.com/apimgmt/mgmtrepo/db"
	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/apimgmt/mgmtrepo/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed datasets/*.yml
var datasets embed.FS

// ErrUnknownTable is returned when a dataset names a table with no model
var ErrUnknownTable = errors.New("unknown table")

const batchSize = 100

// Datasets returns the bundled datasets, addressable by name without extension
func Datasets() fs.FS {
	sub, err := fs.Sub(datasets, "datasets")
	if err != nil {
		panic(err)
	}
	return sub
}

// Names lists the datasets available in fsys
func Names(fsys fs.FS) ([]string, error) {
	matches, err := fs.Glob(fsys, "*.yml")
	if err != nil {
		return nil, err
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m[:len(m)-len(".yml")]
	}
	return names, nil
}

// modelTypes maps table names to their model type
func modelTypes() map[string]reflect.Type {
	types := make(map[string]reflect.Type)
	for _, m := range models.AllModels() {
		if t, ok := m.(interface{ TableName() string }); ok {
			types[t.TableName()] = reflect.TypeOf(m).Elem()
		}
	}
	return types
}

// Load inserts the named datasets from fsys, each read from <name>.yml
func Load(ctx context.Context, gdb *gorm.DB, fsys fs.FS, names ...string) error {
	logger := slogging.Get()
	types := modelTypes()
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name+".yml")
		if err != nil {
			return fmt.Errorf("failed to read dataset %s: %w", name, err)
		}
		tables, err := decode(raw, types)
		if err != nil {
			return fmt.Errorf("failed to decode dataset %s: %w", name, err)
		}
		for _, t := range tables {
			if err := gdb.WithContext(ctx).Omit(clause.Associations).CreateInBatches(t.rows, batchSize).Error; err != nil {
				return fmt.Errorf("failed to load %s into %s: %w", name, t.name, err)
			}
			logger.Debug("Loaded dataset %s table %s", name, t.name)
		}
	}
	return nil
}

// Truncate empties every management table, children first
func Truncate(ctx context.Context, gdb *gorm.DB) error {
	dialect := db.GetDialectName(gdb)
	for _, table := range models.TableNames() {
		if err := gdb.WithContext(ctx).Exec(db.TruncateTable(dialect, table)).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

type tableRows struct {
	name string
	rows any // pointer to a slice of models
}

func decode(raw []byte, types map[string]reflect.Type) ([]tableRows, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("dataset root must be a mapping of tables")
	}
	var out []tableRows
	for i := 0; i+1 < len(root.Content); i += 2 {
		table := root.Content[i].Value
		typ, ok := types[table]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
		}
		var rows []map[string]any
		if err := root.Content[i+1].Decode(&rows); err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		// Rows go through JSON so field names match case-insensitively and
		// timestamps parse as RFC 3339.
		data, err := json.Marshal(rows)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		slice := reflect.New(reflect.SliceOf(typ))
		if err := json.Unmarshal(data, slice.Interface()); err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		if slice.Elem().Len() == 0 {
			continue
		}
		out = append(out, tableRows{name: table, rows: slice.Interface()})
	}
	return out, nil
}
