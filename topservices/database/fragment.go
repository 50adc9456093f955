package database

import (
	"fmt"
	"sort"
	"strings"
)

type fragmentKind int

const (
	fragmentRaw fragmentKind = iota
	fragmentEqual
	fragmentCompare
)

// Fragment is one condition of a where clause.
type Fragment struct {
	kind     fragmentKind
	text     string
	field    string
	operator string
	value    any
}

// Raw is a literal condition rendered verbatim.
func Raw(condition string) Fragment {
	return Fragment{
		kind: fragmentRaw,
		text: condition,
	}
}

// Equal renders field=<value>.
func Equal(field string, value any) Fragment {
	return Fragment{
		kind:  fragmentEqual,
		field: field,
		value: value,
	}
}

// Compare renders field <operator> <value>. Supported operators are
// =, <, >, <=, >=, <>, in and like, matched case-insensitively. The in
// operator accepts a comma separated string or a slice.
func Compare(field string, operator string, value any) Fragment {
	return Fragment{
		kind:     fragmentCompare,
		field:    field,
		operator: operator,
		value:    value,
	}
}

func In(field string, values ...any) Fragment {
	return Compare(field, "in", values)
}

// Like matches the value anywhere in the field: field like '%value%'.
func Like(field string, value any) Fragment {
	return Compare(field, "like", value)
}

func (fragment Fragment) String() string {
	switch fragment.kind {
	case fragmentRaw:
		return fragment.text
	case fragmentEqual:
		return fmt.Sprintf("%s=%v", fragment.field, fragment.value)
	}

	return fmt.Sprintf("%s %s %v", fragment.field, fragment.operator, fragment.value)
}

// Condition is the on clause of a join.
type Condition struct {
	expr    string
	columns map[string]string
}

func On(expr string) Condition {
	return Condition{expr: expr}
}

// OnColumns renders every lhs = rhs pair joined with and, ordered by lhs.
func OnColumns(columns map[string]string) Condition {
	return Condition{columns: columns}
}

func (condition Condition) render() string {
	if condition.columns == nil {
		return condition.expr
	}

	keys := make([]string, 0, len(condition.columns))
	for key := range condition.columns {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pieces := make([]string, 0, len(keys))
	for _, key := range keys {
		pieces = append(pieces, key+" = "+condition.columns[key])
	}

	return strings.Join(pieces, " and ")
}

// JoinSpec describes one joined table. Type defaults to INNER. The service
// table prefix is added to Table unless Exact is set.
type JoinSpec struct {
	Table string
	Alias string
	On    Condition
	Type  string
	Exact bool
}
