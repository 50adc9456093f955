package utils

import "reflect"

// LoopOverStructFields calls fieldHandler for every exported field of value.
// Untagged exported embedded structs are walked as if their fields were
// declared inline.
func LoopOverStructFields(value reflect.Value, fieldHandler func(fieldDefinition reflect.StructField, fieldValue reflect.Value) error) error {
	if value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}

	for i := range value.NumField() {
		fieldValue := value.Field(i)
		fieldDefinition := value.Type().Field(i)

		if !fieldDefinition.IsExported() {
			continue
		}

		if fieldDefinition.Anonymous && fieldDefinition.Tag.Get("db") == "" {
			kind := fieldDefinition.Type.Kind()
			if kind == reflect.Pointer {
				kind = fieldDefinition.Type.Elem().Kind()
			}

			if kind == reflect.Struct {
				if err := LoopOverStructFields(fieldValue, fieldHandler); err != nil {
					return err
				}

				continue
			}
		}

		if err := fieldHandler(fieldDefinition, fieldValue); err != nil {
			return err
		}
	}

	return nil
}
