package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Driver is a backend that opens the connection and knows how to escape
// string literals and find a table's primary key. Every driver renders the
// same MySQL flavoured statements.
type Driver interface {
	Open() (*sql.DB, error)
	Name() string
	escapeString(value string) string
	primaryKey(ctx context.Context, service *Service, table string) (string, error)
}

// DriverConfig is the connection configuration shared by all drivers.
type DriverConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	Name    string
	Charset string
	Path    string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewDriver selects a driver implementation by name. An empty name selects
// MySQL.
func NewDriver(name string, config DriverConfig) (Driver, error) {
	switch strings.ToLower(name) {
	case "", "mysql", "mysqli":
		mysqlConfig := DriverMySQLConfig{
			Host:    config.Host,
			Port:    config.Port,
			User:    config.User,
			Pass:    config.Pass,
			Name:    config.Name,
			Charset: config.Charset,
		}
		if err := validate.Struct(mysqlConfig); err != nil {
			return nil, &ConfigurationError{Driver: name, Err: err}
		}

		return NewDriverMySQL(mysqlConfig), nil
	case "sqlite", "sqlite3":
		sqliteConfig := DriverSQLiteConfig{
			Path: config.Path,
		}
		if err := validate.Struct(sqliteConfig); err != nil {
			return nil, &ConfigurationError{Driver: name, Err: err}
		}

		return NewDriverSQLite(sqliteConfig.Path), nil
	}

	return nil, &ConfigurationError{Driver: name, Err: ErrUnknownDriver}
}
