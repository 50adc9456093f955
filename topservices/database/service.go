package database

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/topnuomi/top/topservices/cache"
	"github.com/topnuomi/top/topservices/database/internal/utils"
)

const defaultPrimaryKey = "id"

type executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Service owns the single connection every Builder created from it runs on.
// It is safe for concurrent use, statements are serialised by the connection.
type Service struct {
	driver            Driver
	standardLibraryDB *sql.DB
	compiler          compiler
	prefix            string
	preRunFuncs       []func(ctx context.Context, statement string, args []any) error
	postRunFuncs      []func(ctx context.Context) error
	postConnectFuncs  []func(db *sql.DB) error
	schema            *cache.Repository[string, string]
	schemaTTL         time.Duration
	metrics           *metrics

	mutex   sync.Mutex
	tx      *sql.Tx
	lastSQL string
}

func New(
	driver Driver,
	configFuncs ...ServiceConfigFunc,
) (*Service, error) {
	service := &Service{
		driver: driver,
		compiler: compiler{
			escape: driver.escapeString,
		},
		preRunFuncs:      []func(ctx context.Context, statement string, args []any) error{},
		postRunFuncs:     []func(ctx context.Context) error{},
		postConnectFuncs: []func(db *sql.DB) error{},
		schemaTTL:        10 * time.Minute,
	}

	for _, configFunc := range configFuncs {
		if err := configFunc(service); err != nil {
			return nil, err
		}
	}

	if service.standardLibraryDB == nil {
		db, err := driver.Open()
		if err != nil {
			return nil, &ConnectionError{Driver: driver.Name(), Err: err}
		}
		service.standardLibraryDB = db
	}

	service.standardLibraryDB.SetMaxOpenConns(1)
	service.standardLibraryDB.SetMaxIdleConns(1)

	if service.schema == nil {
		memory, err := cache.NewDriverMemory()
		if err != nil {
			return nil, err
		}
		service.schema = cache.NewRepository[string, string](memory, "top-schema")
	}

	for _, postConnectFunc := range service.postConnectFuncs {
		if err := postConnectFunc(service.standardLibraryDB); err != nil {
			return nil, err
		}
	}

	return service, nil
}

// Connect checks that the backend is reachable.
func (service *Service) Connect(ctx context.Context) error {
	if err := service.standardLibraryDB.PingContext(ctx); err != nil {
		return &ConnectionError{Driver: service.driver.Name(), Err: err}
	}

	return nil
}

func (service *Service) Close() error {
	return service.standardLibraryDB.Close()
}

func (service *Service) Driver() Driver {
	return service.driver
}

func (service *Service) Prefix() string {
	return service.prefix
}

// Quote renders a value as an escaped SQL literal.
func (service *Service) Quote(value any) string {
	return service.compiler.quote(value)
}

// LastSQL is the last statement sent on the connection.
func (service *Service) LastSQL() string {
	service.mutex.Lock()
	defer service.mutex.Unlock()

	return service.lastSQL
}

// Query runs a raw statement. Names like `:id` are bound from parameters.
func (service *Service) Query(ctx context.Context, statement string, parameters map[string]any) ([]Row, error) {
	preparedQuery, preparedArgs := utils.Prepare(statement, parameters)

	return service.query(ctx, preparedQuery, preparedArgs)
}

// Exec runs a raw statement that returns no rows.
func (service *Service) Exec(ctx context.Context, statement string, parameters map[string]any) (sql.Result, error) {
	preparedQuery, preparedArgs := utils.Prepare(statement, parameters)

	return service.exec(ctx, preparedQuery, preparedArgs)
}

func (service *Service) Begin(ctx context.Context) error {
	service.mutex.Lock()
	defer service.mutex.Unlock()

	if service.tx != nil {
		return ErrTransactionActive
	}

	tx, err := service.standardLibraryDB.BeginTx(ctx, nil)
	if err != nil {
		return &ExecutionError{SQL: "begin", Err: err}
	}

	service.tx = tx
	service.lastSQL = "begin"

	return nil
}

func (service *Service) Commit(ctx context.Context) error {
	return service.finish("commit", func(tx *sql.Tx) error {
		return tx.Commit()
	})
}

func (service *Service) Rollback(ctx context.Context) error {
	return service.finish("rollback", func(tx *sql.Tx) error {
		return tx.Rollback()
	})
}

func (service *Service) finish(statement string, end func(tx *sql.Tx) error) error {
	service.mutex.Lock()
	defer service.mutex.Unlock()

	if service.tx == nil {
		return ErrNoTransaction
	}

	tx := service.tx
	service.tx = nil
	service.lastSQL = statement

	if err := end(tx); err != nil {
		return &ExecutionError{SQL: statement, Err: err}
	}

	return nil
}

func (service *Service) executor(statement string) executor {
	service.mutex.Lock()
	defer service.mutex.Unlock()

	service.lastSQL = statement
	if service.tx != nil {
		return service.tx
	}

	return service.standardLibraryDB
}

func (service *Service) before(ctx context.Context, statement string, args []any) error {
	if strings.TrimSpace(statement) == "" {
		return ErrBlankQuery
	}

	for _, preRunFunc := range service.preRunFuncs {
		if err := preRunFunc(ctx, statement, args); err != nil {
			return err
		}
	}

	return nil
}

func (service *Service) after(ctx context.Context) error {
	for _, postRunFunc := range service.postRunFuncs {
		if err := postRunFunc(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (service *Service) query(ctx context.Context, statement string, args []any) ([]Row, error) {
	if err := service.before(ctx, statement, args); err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := func() ([]Row, error) {
		rows, err := service.executor(statement).QueryContext(ctx, statement, args...)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = rows.Close()
		}()

		return scanRows(rows)
	}()
	service.metrics.observe(statement, started, err)
	if err != nil {
		return nil, &ExecutionError{SQL: statement, Err: err}
	}

	if err := service.after(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

func (service *Service) exec(ctx context.Context, statement string, args []any) (sql.Result, error) {
	if err := service.before(ctx, statement, args); err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := service.executor(statement).ExecContext(ctx, statement, args...)
	service.metrics.observe(statement, started, err)
	if err != nil {
		return nil, &ExecutionError{SQL: statement, Err: err}
	}

	if err := service.after(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// primaryKey introspects the primary key column of a table, falling back to
// "id". Results are kept in the schema cache.
func (service *Service) primaryKey(ctx context.Context, table string) (string, error) {
	key := service.driver.Name() + "." + table
	if column, err := service.schema.Get(ctx, key); err == nil && column != "" {
		return column, nil
	}

	column, err := service.driver.primaryKey(ctx, service, table)
	if err != nil {
		return "", err
	}

	if column == "" {
		column = defaultPrimaryKey
	}

	if err := service.schema.Set(ctx, key, column, service.schemaTTL); err != nil {
		return "", err
	}

	return column, nil
}
