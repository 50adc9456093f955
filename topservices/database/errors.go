package database

import (
	"errors"
	"fmt"
)

var (
	ErrNoRows            = errors.New("no rows found")
	ErrNoResult          = errors.New("no result")
	ErrBlankQuery        = errors.New("blank query")
	ErrBlankTable        = errors.New("blank table name")
	ErrEmptyRecord       = errors.New("empty record")
	ErrEmptyIn           = errors.New("empty in list")
	ErrUnknownDriver     = errors.New("unknown database driver")
	ErrTransactionActive = errors.New("transaction already active")
	ErrNoTransaction     = errors.New("no active transaction")
)

type ErrUnsupportedOperator struct {
	Operator string
}

func (err ErrUnsupportedOperator) Error() string {
	return fmt.Sprintf("unsupported operator: %q", err.Operator)
}

type ErrUnsupportedAggregate struct {
	Function string
}

func (err ErrUnsupportedAggregate) Error() string {
	return fmt.Sprintf("unsupported aggregate function: %q", err.Function)
}

// ConfigurationError reports a driver that can not be built from the
// supplied configuration.
type ConfigurationError struct {
	Driver string
	Err    error
}

func (err *ConfigurationError) Error() string {
	return fmt.Sprintf("database configuration (driver %q): %s", err.Driver, err.Err)
}

func (err *ConfigurationError) Unwrap() error {
	return err.Err
}

type ConnectionError struct {
	Driver string
	Err    error
}

func (err *ConnectionError) Error() string {
	return fmt.Sprintf("database connection (driver %q): %s", err.Driver, err.Err)
}

func (err *ConnectionError) Unwrap() error {
	return err.Err
}

// ExecutionError wraps the backend error of a failed statement together with
// the statement text.
type ExecutionError struct {
	SQL string
	Err error
}

func (err *ExecutionError) Error() string {
	return fmt.Sprintf("%s [sql: %s]", err.Err, err.SQL)
}

func (err *ExecutionError) Unwrap() error {
	return err.Err
}
