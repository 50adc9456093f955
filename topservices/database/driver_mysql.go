package database

import (
	"context"
	"database/sql"
	"io"
	"log"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

func NewDriverMySQL(config DriverMySQLConfig) Driver {
	return &driverMySQL{
		config: config,
	}
}

type DriverMySQLConfig struct {
	Host    string `validate:"required"`
	Port    int    `validate:"gte=0,lte=65535"`
	User    string `validate:"required"`
	Pass    string
	Name    string `validate:"required"`
	Charset string
}

type driverMySQL struct {
	config DriverMySQLConfig
}

func (driver *driverMySQL) Name() string {
	return "mysql"
}

func (driver *driverMySQL) Open() (*sql.DB, error) {
	_ = mysql.SetLogger(log.New(io.Discard, "", log.LstdFlags))

	return sql.Open("mysql", driver.dsn())
}

func (driver *driverMySQL) dsn() string {
	port := driver.config.Port
	if port == 0 {
		port = 3306
	}

	charset := driver.config.Charset
	if charset == "" {
		charset = "utf8mb4"
	}

	config := mysql.NewConfig()
	config.User = driver.config.User
	config.Passwd = driver.config.Pass
	config.Net = "tcp"
	config.Addr = net.JoinHostPort(driver.config.Host, strconv.Itoa(port))
	config.DBName = driver.config.Name
	config.ParseTime = true
	config.Params = map[string]string{
		"charset": charset,
	}

	return config.FormatDSN()
}

// escapeString escapes the same characters as mysql_real_escape_string.
func (driver *driverMySQL) escapeString(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))

	for i := 0; i < len(value); i++ {
		switch b := value[i]; b {
		case 0:
			builder.WriteString(`\0`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\\':
			builder.WriteString(`\\`)
		case '\'':
			builder.WriteString(`\'`)
		case '"':
			builder.WriteString(`\"`)
		case '\x1a':
			builder.WriteString(`\Z`)
		default:
			builder.WriteByte(b)
		}
	}

	return builder.String()
}

func (driver *driverMySQL) primaryKey(ctx context.Context, service *Service, table string) (string, error) {
	rows, err := service.query(ctx, "SHOW KEYS FROM "+table+" WHERE Key_name = 'PRIMARY'", nil)
	if err != nil {
		return "", err
	}

	for _, row := range rows {
		if column := row.String("Column_name"); column != "" {
			return column, nil
		}
	}

	return "", nil
}
