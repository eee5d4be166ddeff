package query

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/asaidimu/go-crudsql/core/schema"
	"github.com/stretchr/testify/require"
)

type Person struct {
	ID    int64
	Name  *string
	Age   int
	Email string `db:"email_address"`
	Notes string `db:"-"`
}

func (Person) TableName() string { return "people" }

type Enrollment struct {
	StudentID int64 `db:"student_id,key"`
	CourseID  int64 `db:"course_id,key"`
	Grade     string
}

func (Enrollment) TableName() string   { return "enrollments" }
func (Enrollment) TableSchema() string { return "school" }

type AuditRecord struct {
	Message string
	Level   int
}

func testDialect() ANSI {
	return ANSI{
		DialectName: "test",
		QuoteIdent:  func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
		Marker:      func(n int) string { return "$" + strconv.Itoa(n) },
		ParamLimit:  100,
	}
}

func describe(t *testing.T, v any) *schema.TypeDescriptor {
	t.Helper()
	d, err := schema.NewCache(schema.DefaultCacheOptions()).Describe(reflect.TypeOf(v), "test")
	require.NoError(t, err)
	return d
}
