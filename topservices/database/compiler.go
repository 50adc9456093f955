package database

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/topnuomi/top/toptools"
)

const timeLayout = "2006-01-02 15:04:05"

var aggregateFinder = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type limitClause struct {
	offset    int
	count     int
	hasOffset bool
}

// compiler turns query state into SQL text. It never touches the connection,
// escaping is delegated to the driver.
type compiler struct {
	escape func(value string) string
}

// quote renders a value as a SQL literal. Non numeric falsy values (nil, "",
// false, nil pointers, zero time) become NULL, Go numbers are rendered bare
// and everything else is escaped and single quoted.
func (c compiler) quote(value any) string {
	if value == nil {
		return "NULL"
	}

	reflected := reflect.ValueOf(value)
	if reflected.Kind() == reflect.Pointer && reflected.IsNil() {
		return "NULL"
	}

	switch typed := value.(type) {
	case driver.Valuer:
		v, err := typed.Value()
		if err != nil {
			return "NULL"
		}
		if _, loops := v.(driver.Valuer); loops {
			return c.quoteString(fmt.Sprint(v))
		}

		return c.quote(v)
	case string:
		return c.quoteString(typed)
	case []byte:
		return c.quoteString(string(typed))
	case bool:
		if !typed {
			return "NULL"
		}

		return "1"
	case time.Time:
		if typed.IsZero() {
			return "NULL"
		}

		return c.quoteString(typed.Format(timeLayout))
	}

	// Numbers win over String methods: enums and durations keep their value.
	switch reflected.Kind() {
	case reflect.Pointer:
		return c.quote(reflected.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(reflected.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(reflected.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(reflected.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(reflected.Float(), 'f', -1, 64)
	case reflect.Bool:
		return c.quote(reflected.Bool())
	}

	if stringer, ok := value.(fmt.Stringer); ok {
		return c.quoteString(stringer.String())
	}

	if reflected.Kind() == reflect.String {
		return c.quoteString(reflected.String())
	}

	return c.quoteString(fmt.Sprint(value))
}

func (c compiler) quoteString(value string) string {
	if value == "" {
		return "NULL"
	}

	return "'" + c.escape(value) + "'"
}

func (c compiler) fields(distinct bool, fields []string) string {
	list := "*"
	if len(fields) > 0 {
		list = strings.Join(fields, ",")
	}

	if distinct {
		return "distinct " + list
	}

	return list
}

func (c compiler) where(fragments []Fragment, glue string) (string, error) {
	if len(fragments) == 0 {
		return "", nil
	}

	if glue == "" {
		glue = "and"
	}

	parts := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		part, err := c.fragment(fragment)
		if err != nil {
			return "", err
		}

		parts = append(parts, part)
	}

	return " where " + strings.Join(parts, " "+glue+" "), nil
}

func (c compiler) fragment(fragment Fragment) (string, error) {
	switch fragment.kind {
	case fragmentRaw:
		return fragment.text, nil
	case fragmentEqual:
		return fragment.field + "=" + c.quote(fragment.value), nil
	}

	operator := strings.ToLower(strings.TrimSpace(fragment.operator))
	switch operator {
	case "in":
		values := inValues(fragment.value)
		if len(values) == 0 {
			return "", fmt.Errorf("%w: %s", ErrEmptyIn, fragment.field)
		}

		return fragment.field + " in (" + strings.Join(toptools.Map(values, c.quote), ",") + ")", nil
	case "like":
		operand := ""
		if fragment.value != nil {
			operand = fmt.Sprint(fragment.value)
		}

		return fragment.field + " like '%" + c.escape(operand) + "%'", nil
	case "=", "<", ">", "<=", ">=", "<>":
		return fragment.field + " " + operator + " " + c.quote(fragment.value), nil
	}

	return "", ErrUnsupportedOperator{Operator: fragment.operator}
}

// inValues expands the operand of an in comparison. Strings are split on
// commas and trimmed, slices are used element by element.
func inValues(value any) []any {
	if text, ok := value.(string); ok {
		if strings.TrimSpace(text) == "" {
			return nil
		}

		return toptools.Map(strings.Split(text, ","), func(piece string) any {
			return strings.TrimSpace(piece)
		})
	}

	reflected := reflect.ValueOf(value)
	if reflected.Kind() != reflect.Slice && reflected.Kind() != reflect.Array {
		if value == nil {
			return nil
		}

		return []any{value}
	}

	values := make([]any, 0, reflected.Len())
	for i := range reflected.Len() {
		values = append(values, reflected.Index(i).Interface())
	}

	// In("id", ids) passes the slice as the only variadic value.
	if len(values) == 1 {
		if _, isBytes := values[0].([]byte); !isBytes {
			if kind := reflect.ValueOf(values[0]).Kind(); kind == reflect.Slice || kind == reflect.Array {
				return inValues(values[0])
			}
		}
	}

	return values
}

func (c compiler) joins(joins []JoinSpec) string {
	if len(joins) == 0 {
		return ""
	}

	rendered := toptools.Map(joins, func(join JoinSpec) string {
		joinType := join.Type
		if joinType == "" {
			joinType = "INNER"
		}

		alias := ""
		if join.Alias != "" {
			alias = " as " + join.Alias
		}

		return joinType + " join " + join.Table + alias + " on " + join.On.render()
	})

	return " " + strings.Join(rendered, " ")
}

func (c compiler) order(order string) string {
	if order == "" {
		return ""
	}

	return " order by " + order
}

func (c compiler) limit(limit *limitClause) string {
	if limit == nil {
		return ""
	}

	if limit.hasOffset {
		return fmt.Sprintf(" limit %d, %d", limit.offset, limit.count)
	}

	return fmt.Sprintf(" limit %d", limit.count)
}

func (c compiler) table(table string, alias string) string {
	if alias == "" {
		return table
	}

	return table + " as " + alias
}

func (c compiler) assignments(record Record) string {
	return strings.Join(toptools.Map(record, func(assignment Assignment) string {
		return assignment.Column + "=" + c.quote(assignment.Value)
	}), ",")
}

// selectStatement renders select {fields} from {table}{joins}{where}{order}{limit}.
func (c compiler) selectStatement(table string, state queryState) (string, error) {
	where, err := c.where(state.where, state.glue)
	if err != nil {
		return "", err
	}

	return "select " + c.fields(state.distinct, state.fields) +
		" from " + c.table(table, state.alias) +
		c.joins(state.joins) +
		where +
		c.order(state.order) +
		c.limit(state.limit), nil
}

// aggregateStatement renders select {fn}({fields}) from {table}{joins}{where}.
// Distinct only applies to an explicit field list, fn(distinct *) is not SQL.
func (c compiler) aggregateStatement(table string, state queryState, function string) (string, error) {
	if !aggregateFinder.MatchString(function) {
		return "", ErrUnsupportedAggregate{Function: function}
	}

	where, err := c.where(state.where, state.glue)
	if err != nil {
		return "", err
	}

	return "select " + function + "(" + c.fields(state.distinct && len(state.fields) > 0, state.fields) + ")" +
		" from " + c.table(table, state.alias) +
		c.joins(state.joins) +
		where, nil
}

// insertStatement renders insert into {table} ({cols}) values ({vals}).
func (c compiler) insertStatement(table string, record Record) (string, error) {
	if len(record) == 0 {
		return "", ErrEmptyRecord
	}

	columns := toptools.Map(record, func(assignment Assignment) string {
		return assignment.Column
	})
	values := toptools.Map(record, func(assignment Assignment) string {
		return c.quote(assignment.Value)
	})

	return "insert into " + table +
		" (" + strings.Join(columns, ",") + ")" +
		" values (" + strings.Join(values, ", ") + ")", nil
}

// updateStatement renders update {table}{joins} set {assignments}{where}{order}{limit}.
func (c compiler) updateStatement(table string, state queryState, record Record) (string, error) {
	if len(record) == 0 {
		return "", ErrEmptyRecord
	}

	where, err := c.where(state.where, state.glue)
	if err != nil {
		return "", err
	}

	return "update " + c.table(table, state.alias) +
		c.joins(state.joins) +
		" set " + c.assignments(record) +
		where +
		c.order(state.order) +
		c.limit(state.limit), nil
}

// deleteStatement renders delete{ effect} from {table}{joins}{where}{order}{limit}.
// An aliased table deletes from its alias unless explicit targets are set.
func (c compiler) deleteStatement(table string, state queryState) (string, error) {
	where, err := c.where(state.where, state.glue)
	if err != nil {
		return "", err
	}

	effect := ""
	switch {
	case len(state.effect) > 0:
		effect = " " + strings.Join(state.effect, ",")
	case state.alias != "":
		effect = " " + state.alias
	}

	return "delete" + effect +
		" from " + c.table(table, state.alias) +
		c.joins(state.joins) +
		where +
		c.order(state.order) +
		c.limit(state.limit), nil
}
