package cache_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/topnuomi/top/topservices/cache"
	"gotest.tools/v3/assert"
)

func testCase(t *testing.T, driver cache.Driver) {
	key := uuid.NewString()
	value := uuid.NewString()

	{ // Confirm not found error
		_, err := driver.Get(t.Context(), key)
		assert.ErrorIs(t, err, cache.ErrNotFound)
	}

	{ // Confirm set and get
		assert.NilError(t, driver.Set(t.Context(), key, value, time.Second*30))

		actualValue, err := driver.Get(t.Context(), key)
		assert.NilError(t, err)
		assert.Equal(t, actualValue, value)
	}

	{ // Delete
		assert.NilError(t, driver.Delete(t.Context(), key))

		_, err := driver.Get(t.Context(), key)
		assert.ErrorIs(t, err, cache.ErrNotFound)
	}

	{ // A zero duration never expires
		key := uuid.NewString()
		assert.NilError(t, driver.Set(t.Context(), key, value, 0))

		actualValue, err := driver.Get(t.Context(), key)
		assert.NilError(t, err)
		assert.Equal(t, actualValue, value)
	}

	{ // Confirm expiration
		key = uuid.NewString()
		value = uuid.NewString()

		assert.NilError(t, driver.Set(t.Context(), key, value, time.Second*1))

		actualValue, err := driver.Get(t.Context(), key)
		assert.NilError(t, err)
		assert.Equal(t, actualValue, value)

		time.Sleep(time.Second * 2)

		_, expiredCheckErr := driver.Get(t.Context(), key)
		assert.ErrorIs(t, expiredCheckErr, cache.ErrNotFound)
	}
}

func TestRepository(t *testing.T) {
	t.Parallel()

	type primaryKey struct {
		Column string
	}

	driver, err := cache.NewDriverMemory()
	assert.NilError(t, err)

	repository := cache.NewRepository[string, primaryKey](driver, "schema")

	{ // Missing values surface the driver error
		_, err := repository.Get(t.Context(), "users")
		assert.ErrorIs(t, err, cache.ErrNotFound)
	}

	{ // Values round trip through the driver under the prefixed key
		assert.NilError(t, repository.Set(t.Context(), "users", primaryKey{Column: "uid"}, time.Minute))

		actual, err := repository.Get(t.Context(), "users")
		assert.NilError(t, err)
		assert.Equal(t, actual.Column, "uid")

		raw, err := driver.Get(t.Context(), "schema-users")
		assert.NilError(t, err)
		assert.Equal(t, raw, `{"Column":"uid"}`)
	}

	{ // Delete removes the value
		assert.NilError(t, repository.Delete(t.Context(), "users"))

		_, err := repository.Get(t.Context(), "users")
		assert.ErrorIs(t, err, cache.ErrNotFound)
	}
}
