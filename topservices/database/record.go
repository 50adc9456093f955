package database

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/topnuomi/top/topservices/database/internal/utils"
)

// Assignment is one column/value pair of an insert or update.
type Assignment struct {
	Column string
	Value  any
}

// Record is an ordered list of assignments. Columns render in the order
// they were added.
type Record []Assignment

func Set(column string, value any) Record {
	return Record{{Column: column, Value: value}}
}

// Set appends another assignment and returns the extended record.
func (record Record) Set(column string, value any) Record {
	return append(record, Assignment{Column: column, Value: value})
}

// RecordOf builds a record from a map, ordering the columns by name.
func RecordOf(values map[string]any) Record {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	record := make(Record, 0, len(columns))
	for _, column := range columns {
		record = append(record, Assignment{Column: column, Value: values[column]})
	}

	return record
}

// RecordFrom builds a record from the `db` tagged fields of a struct.
// Fields tagged readOnly or autoIncrement are skipped, slices and structs
// other than time.Time are stored as JSON. Untagged exported embedded structs
// contribute their fields.
func RecordFrom(entity any) (Record, error) {
	value := reflect.ValueOf(entity)
	if value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, ErrEmptyRecord
		}
		value = value.Elem()
	}

	if value.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record from %T: %w", entity, ErrEmptyRecord)
	}

	record := Record{}
	if err := utils.LoopOverStructFields(value, func(fieldDefinition reflect.StructField, fieldValue reflect.Value) error {
		tag := utils.ParseTag(fieldDefinition.Tag)
		if tag.Skipped() {
			return nil
		}

		if shouldBeJSON(fieldDefinition) {
			fieldBytes, err := json.Marshal(fieldValue.Interface())
			if err != nil {
				return err
			}

			record = append(record, Assignment{Column: tag.Column, Value: string(fieldBytes)})

			return nil
		}

		record = append(record, Assignment{Column: tag.Column, Value: fieldValue.Interface()})

		return nil
	}); err != nil {
		return nil, err
	}

	return record, nil
}

func shouldBeJSON(fieldDefinition reflect.StructField) bool {
	switch fieldDefinition.Type.Kind() {
	case reflect.Slice:
		return fieldDefinition.Type.Elem().Kind() != reflect.Uint8
	case reflect.Struct:
		return fieldDefinition.Type != reflect.TypeFor[time.Time]()
	}

	return false
}
