package utils_test

import (
	"reflect"
	"testing"

	"github.com/topnuomi/top/topservices/database/internal/utils"
	"gotest.tools/v3/assert"
)

type Timestamps struct {
	CreatedAt string `db:"created_at,readOnly"`
	UpdatedAt string `db:"updated_at"`
}

type secret struct {
	Token string `db:"token"`
}

type article struct {
	Timestamps
	secret
	ID    int    `db:"id, autoIncrement"`
	Title string `db:"title"`
	Draft bool   `db:"-"`
	Note  string
}

func TestParseTag(t *testing.T) {
	t.Parallel()

	assert.DeepEqual(t, utils.ParseTag(`db:"id, autoIncrement"`), utils.Tag{Column: "id", AutoIncrement: true})
	assert.DeepEqual(t, utils.ParseTag(`db:"created_at,readOnly,comment=ignored"`), utils.Tag{Column: "created_at", ReadOnly: true})
	assert.DeepEqual(t, utils.ParseTag(`json:"name"`), utils.Tag{})

	assert.Assert(t, utils.ParseTag(`db:"-"`).Skipped())
	assert.Assert(t, utils.ParseTag(`db:"id,autoIncrement"`).Skipped())
	assert.Assert(t, !utils.ParseTag(`db:"title"`).Skipped())
}

func TestLoopOverStructFields(t *testing.T) {
	t.Parallel()

	written := []string{}
	err := utils.LoopOverStructFields(reflect.ValueOf(&article{}), func(fieldDefinition reflect.StructField, fieldValue reflect.Value) error {
		if tag := utils.ParseTag(fieldDefinition.Tag); !tag.Skipped() {
			written = append(written, tag.Column)
		}

		return nil
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, written, []string{"updated_at", "title"})

	{ // Nil pointers have no fields
		calls := 0
		err := utils.LoopOverStructFields(reflect.ValueOf((*article)(nil)), func(reflect.StructField, reflect.Value) error {
			calls++
			return nil
		})
		assert.NilError(t, err)
		assert.Equal(t, calls, 0)
	}
}
