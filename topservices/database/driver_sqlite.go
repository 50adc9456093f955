package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

func NewDriverSQLite(path string) Driver {
	return &driverSQLite{
		Path: path,
	}
}

type DriverSQLiteConfig struct {
	Path string `validate:"required"`
}

type driverSQLite struct {
	Path string
}

func (driver *driverSQLite) Name() string {
	return "sqlite"
}

func (driver *driverSQLite) Open() (*sql.DB, error) {
	return sql.Open(
		"sqlite3",
		fmt.Sprintf("file:%s?cache=shared&_foreign_keys=on", driver.Path),
	)
}

func (driver *driverSQLite) escapeString(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

func (driver *driverSQLite) primaryKey(ctx context.Context, service *Service, table string) (string, error) {
	rows, err := service.query(ctx, fmt.Sprintf(`PRAGMA table_info("%s")`, table), nil)
	if err != nil {
		return "", err
	}

	for _, row := range rows {
		if row.Int64("pk") > 0 {
			return row.String("name"), nil
		}
	}

	return "", nil
}
