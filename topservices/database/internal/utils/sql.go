package utils

import (
	"reflect"
	"regexp"
	"strings"
)

var (
	paramFinder = regexp.MustCompile(`(?m):\w+`)
	spaceFinder = regexp.MustCompile(`(?m)\s^\s+`)
)

// Prepare replaces every `:name` found in parameters with a `?` placeholder
// and returns the matching positional arguments. Slices expand to one
// placeholder per element, []byte is passed as a single value.
func Prepare(statement string, parameters map[string]any) (string, []any) {
	statement = strings.TrimSpace(spaceFinder.ReplaceAllString(statement, " "))

	args := []any{}
	newStatement := paramFinder.ReplaceAllStringFunc(statement, func(s string) string {
		parameterValue, found := parameters[s]
		if !found {
			return s
		}

		if _, isBytes := parameterValue.([]byte); !isBytes && parameterValue != nil {
			rt := reflect.TypeOf(parameterValue)
			if rt.Kind() == reflect.Array || rt.Kind() == reflect.Slice {
				valueOf := reflect.ValueOf(parameterValue)
				placeholders := make([]string, 0, valueOf.Len())
				for i := range valueOf.Len() {
					placeholders = append(placeholders, "?")
					args = append(args, valueOf.Index(i).Interface())
				}

				return strings.Join(placeholders, ", ")
			}
		}

		args = append(args, parameterValue)

		return "?"
	})

	return newStatement, args
}
