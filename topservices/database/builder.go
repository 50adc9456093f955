package database

import (
	"context"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

type queryState struct {
	alias    string
	distinct bool
	fields   []string
	where    []Fragment
	glue     string
	order    string
	limit    *limitClause
	joins    []JoinSpec
	effect   []string
}

// Builder accumulates the state of one statement against one table. Every
// terminal call compiles and runs the statement, then clears the state so
// the builder can be reused. A Builder is not safe for concurrent use.
type Builder struct {
	service    *Service
	name       string
	prefix     string
	primaryKey string
	state      queryState
	sql        string
}

type TableOption func(builder *Builder)

func WithPrimaryKey(primaryKey string) TableOption {
	return func(builder *Builder) {
		builder.primaryKey = primaryKey
	}
}

func WithTablePrefix(prefix string) TableOption {
	return func(builder *Builder) {
		builder.prefix = prefix
	}
}

func WithoutTablePrefix() TableOption {
	return func(builder *Builder) {
		builder.prefix = ""
	}
}

// Table starts a new builder for name. The service prefix is prepended
// unless a TableOption changes it.
func (service *Service) Table(name string, options ...TableOption) *Builder {
	builder := &Builder{
		service: service,
		name:    name,
		prefix:  service.prefix,
	}

	for _, option := range options {
		option(builder)
	}

	return builder
}

// Param adjusts the builder right before a terminal call compiles.
type Param func(ctx context.Context, builder *Builder) error

func Using(callback func(builder *Builder)) Param {
	return func(ctx context.Context, builder *Builder) error {
		callback(builder)
		return nil
	}
}

// ByKey filters on the primary key, qualified with the table alias when one
// is set.
func ByKey(value any) Param {
	return func(ctx context.Context, builder *Builder) error {
		primaryKey, err := builder.PrimaryKey(ctx)
		if err != nil {
			return err
		}

		if builder.state.alias != "" {
			primaryKey = builder.state.alias + "." + primaryKey
		}

		builder.state.where = append(builder.state.where, Equal(primaryKey, value))

		return nil
	}
}

// Column sets the aggregated field when no field was chosen.
func Column(name string) Param {
	return func(ctx context.Context, builder *Builder) error {
		if len(builder.state.fields) == 0 && name != "" {
			builder.state.fields = []string{name}
		}

		return nil
	}
}

func (builder *Builder) Name() string {
	return builder.prefix + builder.name
}

func (builder *Builder) Alias(alias string) *Builder {
	builder.state.alias = alias
	return builder
}

// Distinct marks the field list distinct. Called without arguments it
// enables it.
func (builder *Builder) Distinct(flag ...bool) *Builder {
	builder.state.distinct = len(flag) == 0 || flag[0]
	return builder
}

func (builder *Builder) Field(columns ...string) *Builder {
	builder.state.fields = columns
	return builder
}

func (builder *Builder) Where(fragments ...Fragment) *Builder {
	builder.state.where = append(builder.state.where, fragments...)
	return builder
}

// Glue sets the keyword joining where fragments, "and" by default.
func (builder *Builder) Glue(keyword string) *Builder {
	builder.state.glue = strings.TrimSpace(keyword)
	return builder
}

func (builder *Builder) Order(expr string) *Builder {
	builder.state.order = expr
	return builder
}

func (builder *Builder) OrderBy(column string, direction string) *Builder {
	builder.state.order = column + " " + direction
	return builder
}

func (builder *Builder) Limit(count int) *Builder {
	builder.state.limit = &limitClause{count: count}
	return builder
}

func (builder *Builder) LimitOffset(offset int, count int) *Builder {
	builder.state.limit = &limitClause{offset: offset, count: count, hasOffset: true}
	return builder
}

func (builder *Builder) Join(join JoinSpec) *Builder {
	if !join.Exact {
		join.Table = builder.service.prefix + join.Table
	}

	builder.state.joins = append(builder.state.joins, join)
	return builder
}

func (builder *Builder) InnerJoin(table string, on Condition) *Builder {
	return builder.Join(JoinSpec{Table: table, On: on, Type: "INNER"})
}

func (builder *Builder) LeftJoin(table string, on Condition) *Builder {
	return builder.Join(JoinSpec{Table: table, On: on, Type: "LEFT"})
}

func (builder *Builder) RightJoin(table string, on Condition) *Builder {
	return builder.Join(JoinSpec{Table: table, On: on, Type: "RIGHT"})
}

// Effect names the tables a multi table delete removes rows from.
func (builder *Builder) Effect(targets ...string) *Builder {
	builder.state.effect = targets
	return builder
}

// SQL is the last statement compiled by this builder.
func (builder *Builder) SQL() string {
	return strings.TrimSpace(builder.sql)
}

// PrimaryKey is the key given with WithPrimaryKey, else the introspected
// one, else "id".
func (builder *Builder) PrimaryKey(ctx context.Context) (string, error) {
	if builder.primaryKey != "" {
		return builder.primaryKey, nil
	}

	table, err := builder.table()
	if err != nil {
		return "", err
	}

	return builder.service.primaryKey(ctx, table)
}

func (builder *Builder) Begin(ctx context.Context) error {
	return builder.service.Begin(ctx)
}

func (builder *Builder) Commit(ctx context.Context) error {
	return builder.service.Commit(ctx)
}

func (builder *Builder) Rollback(ctx context.Context) error {
	return builder.service.Rollback(ctx)
}

// Find returns the first matching row or ErrNoRows.
func (builder *Builder) Find(ctx context.Context, params ...Param) (Row, error) {
	defer builder.reset()

	table, err := builder.prepare(ctx, params)
	if err != nil {
		return nil, err
	}

	limit := &limitClause{count: 1}
	if builder.state.limit != nil && builder.state.limit.hasOffset {
		limit.offset = builder.state.limit.offset
		limit.hasOffset = true
	}
	builder.state.limit = limit

	rows, err := builder.querySelect(ctx, table)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	return rows[0], nil
}

// Select returns every matching row, an empty slice when nothing matches.
func (builder *Builder) Select(ctx context.Context, params ...Param) ([]Row, error) {
	defer builder.reset()

	table, err := builder.prepare(ctx, params)
	if err != nil {
		return nil, err
	}

	return builder.querySelect(ctx, table)
}

// SelectSQL compiles the select without running it.
func (builder *Builder) SelectSQL(ctx context.Context, params ...Param) (string, error) {
	defer builder.reset()

	table, err := builder.prepare(ctx, params)
	if err != nil {
		return "", err
	}

	statement, err := builder.service.compiler.selectStatement(table, builder.state)
	if err != nil {
		return "", err
	}
	builder.sql = statement

	return statement, nil
}

func (builder *Builder) querySelect(ctx context.Context, table string) ([]Row, error) {
	statement, err := builder.service.compiler.selectStatement(table, builder.state)
	if err != nil {
		return nil, err
	}
	builder.sql = statement

	return builder.service.query(ctx, statement, nil)
}

// Insert writes one statement per record and returns the id generated by
// the last one.
func (builder *Builder) Insert(ctx context.Context, records ...Record) (int64, error) {
	defer builder.reset()

	table, err := builder.table()
	if err != nil {
		return 0, err
	}

	if len(records) == 0 {
		return 0, ErrEmptyRecord
	}

	lastInsertID := int64(0)
	for _, record := range records {
		statement, err := builder.service.compiler.insertStatement(table, record)
		if err != nil {
			return 0, err
		}
		builder.sql = statement

		result, err := builder.service.exec(ctx, statement, nil)
		if err != nil {
			return 0, err
		}

		lastInsertID, err = result.LastInsertId()
		if err != nil {
			return 0, err
		}
	}

	return lastInsertID, nil
}

// Update applies data to the matching rows and returns how many changed.
func (builder *Builder) Update(ctx context.Context, data Record, params ...Param) (int64, error) {
	defer builder.reset()

	table, err := builder.prepare(ctx, params)
	if err != nil {
		return 0, err
	}

	statement, err := builder.service.compiler.updateStatement(table, builder.state, data)
	if err != nil {
		return 0, err
	}

	return builder.execAffected(ctx, statement)
}

// Delete removes the matching rows and returns how many were removed.
func (builder *Builder) Delete(ctx context.Context, params ...Param) (int64, error) {
	defer builder.reset()

	table, err := builder.prepare(ctx, params)
	if err != nil {
		return 0, err
	}

	statement, err := builder.service.compiler.deleteStatement(table, builder.state)
	if err != nil {
		return 0, err
	}

	return builder.execAffected(ctx, statement)
}

func (builder *Builder) execAffected(ctx context.Context, statement string) (int64, error) {
	builder.sql = statement

	result, err := builder.service.exec(ctx, statement, nil)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Common runs an aggregate function over the field list and returns the
// single value, ErrNoResult when there is none or it is NULL.
func (builder *Builder) Common(ctx context.Context, function string, params ...Param) (any, error) {
	defer builder.reset()

	table, err := builder.prepare(ctx, params)
	if err != nil {
		return nil, err
	}

	statement, err := builder.service.compiler.aggregateStatement(table, builder.state, function)
	if err != nil {
		return nil, err
	}
	builder.sql = statement

	rows, err := builder.service.query(ctx, statement, nil)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrNoResult
	}

	for _, value := range rows[0] {
		if value == nil {
			return nil, ErrNoResult
		}

		return value, nil
	}

	return nil, ErrNoResult
}

func (builder *Builder) Count(ctx context.Context, params ...Param) (int64, error) {
	value, err := builder.Common(ctx, "count", params...)
	if err != nil {
		return 0, err
	}

	return cast.ToInt64E(value)
}

func (builder *Builder) Sum(ctx context.Context, column string, params ...Param) (float64, error) {
	return builder.commonFloat(ctx, "sum", column, params)
}

func (builder *Builder) Avg(ctx context.Context, column string, params ...Param) (float64, error) {
	return builder.commonFloat(ctx, "avg", column, params)
}

func (builder *Builder) Max(ctx context.Context, column string, params ...Param) (any, error) {
	return builder.Common(ctx, "max", slices.Concat(params, []Param{Column(column)})...)
}

func (builder *Builder) Min(ctx context.Context, column string, params ...Param) (any, error) {
	return builder.Common(ctx, "min", slices.Concat(params, []Param{Column(column)})...)
}

func (builder *Builder) commonFloat(ctx context.Context, function string, column string, params []Param) (float64, error) {
	value, err := builder.Common(ctx, function, slices.Concat(params, []Param{Column(column)})...)
	if err != nil {
		return 0, err
	}

	return cast.ToFloat64E(value)
}

func (builder *Builder) table() (string, error) {
	if strings.TrimSpace(builder.name) == "" {
		return "", ErrBlankTable
	}

	return builder.prefix + builder.name, nil
}

func (builder *Builder) prepare(ctx context.Context, params []Param) (string, error) {
	table, err := builder.table()
	if err != nil {
		return "", err
	}

	for _, param := range params {
		if err := param(ctx, builder); err != nil {
			return "", err
		}
	}

	return table, nil
}

func (builder *Builder) reset() {
	builder.state = queryState{}
}
