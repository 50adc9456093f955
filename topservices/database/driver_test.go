package database_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"github.com/topnuomi/top/topservices/database"
	"gotest.tools/v3/assert"
)

func TestNewDriver(t *testing.T) {
	t.Parallel()

	{ // Unknown drivers are a configuration error
		_, err := database.NewDriver("postgres", database.DriverConfig{})
		var configurationError *database.ConfigurationError
		assert.Assert(t, errors.As(err, &configurationError))
		assert.Equal(t, configurationError.Driver, "postgres")
		assert.ErrorIs(t, err, database.ErrUnknownDriver)
	}

	{ // MySQL is the default and needs a host, user and database
		_, err := database.NewDriver("", database.DriverConfig{})
		var configurationError *database.ConfigurationError
		assert.Assert(t, errors.As(err, &configurationError))

		driver, err := database.NewDriver("", database.DriverConfig{
			Host: "127.0.0.1",
			User: "top",
			Name: "top",
		})
		assert.NilError(t, err)
		assert.Equal(t, driver.Name(), "mysql")
	}

	{ // Out of range ports
		_, err := database.NewDriver("mysql", database.DriverConfig{
			Host: "127.0.0.1",
			Port: 70000,
			User: "top",
			Name: "top",
		})
		var configurationError *database.ConfigurationError
		assert.Assert(t, errors.As(err, &configurationError))
	}

	{ // SQLite needs a path
		_, err := database.NewDriver("sqlite", database.DriverConfig{})
		var configurationError *database.ConfigurationError
		assert.Assert(t, errors.As(err, &configurationError))

		driver, err := database.NewDriver("SQLite3", database.DriverConfig{Path: ":memory:"})
		assert.NilError(t, err)
		assert.Equal(t, driver.Name(), "sqlite")
	}
}

// testSuite runs the builder against a live backend. createTable must
// create top_users with an auto incrementing uid key and name, status and
// score columns.
func testSuite(t *testing.T, driver database.Driver, createTable string) {
	service, err := database.New(
		driver,
		database.WithPrefix("top_"),
		database.WithLogger(slog.Default()),
	)
	assert.NilError(t, err)
	t.Cleanup(func() {
		_ = service.Close()
	})

	assert.NilError(t, service.Connect(t.Context()))

	_, err = service.Exec(t.Context(), createTable, nil)
	assert.NilError(t, err)

	users := service.Table("users")
	firstName := uuid.NewString()

	{ // Primary key introspection
		primaryKey, err := users.PrimaryKey(t.Context())
		assert.NilError(t, err)
		assert.Equal(t, primaryKey, "uid")
	}

	{ // Insert returns the last id
		id, err := users.Insert(t.Context(),
			database.Set("name", firstName).Set("status", 1).Set("score", 2.5),
			database.Set("name", "second").Set("status", 0).Set("score", 10),
		)
		assert.NilError(t, err)
		assert.Equal(t, id, int64(2))
	}

	{ // Find by key
		row, err := users.Find(t.Context(), database.ByKey(1))
		assert.NilError(t, err)
		assert.Equal(t, row.String("name"), firstName)
		assert.Equal(t, row.Int64("status"), int64(1))
	}

	{ // Zero is stored as zero, not NULL
		row, err := users.Where(database.Equal("status", 0)).Find(t.Context())
		assert.NilError(t, err)
		assert.Equal(t, row.String("name"), "second")
	}

	{ // Select in order
		rows, err := users.Where(database.Compare("status", ">=", 0)).OrderBy("uid", "desc").Select(t.Context())
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 2)
		assert.Equal(t, rows[0].Int64("uid"), int64(2))
		assert.Equal(t, rows[1].Int64("uid"), int64(1))
	}

	{ // Find matches the first row of the same select
		rows, err := users.OrderBy("uid", "asc").Select(t.Context())
		assert.NilError(t, err)

		row, err := users.OrderBy("uid", "asc").Find(t.Context())
		assert.NilError(t, err)
		assert.Equal(t, row.Int64("uid"), rows[0].Int64("uid"))
	}

	{ // In and like
		rows, err := users.Where(database.In("uid", 1, 2), database.Like("name", "seco")).Select(t.Context())
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 1)
		assert.Equal(t, rows[0].String("name"), "second")
	}

	{ // Aggregates
		count, err := users.Count(t.Context())
		assert.NilError(t, err)
		assert.Equal(t, count, int64(2))

		sum, err := users.Sum(t.Context(), "score")
		assert.NilError(t, err)
		assert.Equal(t, sum, 12.5)

		maxUID, err := users.Max(t.Context(), "uid")
		assert.NilError(t, err)
		assert.Equal(t, cast.ToInt64(maxUID), int64(2))

		_, err = users.Where(database.Equal("status", 99)).Sum(t.Context(), "score")
		assert.ErrorIs(t, err, database.ErrNoResult)
	}

	{ // Update
		affected, err := users.Update(t.Context(), database.Set("status", 5), database.ByKey(2))
		assert.NilError(t, err)
		assert.Equal(t, affected, int64(1))
	}

	{ // Rolled back deletes leave the rows
		assert.NilError(t, users.Begin(t.Context()))

		affected, err := users.Delete(t.Context())
		assert.NilError(t, err)
		assert.Equal(t, affected, int64(2))

		assert.NilError(t, users.Rollback(t.Context()))

		count, err := users.Count(t.Context())
		assert.NilError(t, err)
		assert.Equal(t, count, int64(2))
	}

	{ // Delete
		affected, err := users.Where(database.Equal("status", 5)).Delete(t.Context())
		assert.NilError(t, err)
		assert.Equal(t, affected, int64(1))

		_, err = users.Find(t.Context(), database.ByKey(2))
		assert.ErrorIs(t, err, database.ErrNoRows)
	}

	{ // Raw statements with named parameters
		rows, err := service.Query(t.Context(), "select name from top_users where uid = :uid", map[string]any{
			":uid": 1,
		})
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 1)
		assert.Equal(t, rows[0].String("name"), firstName)
	}

	{ // Backend errors
		_, err := service.Table("missing").Select(t.Context())
		var executionError *database.ExecutionError
		assert.Assert(t, errors.As(err, &executionError))
		assert.Equal(t, executionError.SQL, "select * from top_missing")
	}
}
