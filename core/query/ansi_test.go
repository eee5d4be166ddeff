package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personColumns = `"ID", "Name", "Age", "email_address"`

func TestANSIReads(t *testing.T) {
	a := testDialect()
	person := describe(t, Person{})
	enrollment := describe(t, Enrollment{})
	byAge := []OrderItem{{Member: person.Member("Age"), Desc: true}}

	assert.Equal(t, `SELECT COUNT(*) FROM "people"`, a.Count(person, ""))
	assert.Equal(t, `SELECT COUNT(*) FROM "people" WHERE "Age" = $1`, a.Count(person, `"Age" = $1`))

	b := NewBinder(a)
	assert.Equal(t,
		`SELECT "student_id", "course_id", "Grade" FROM "school"."enrollments" WHERE "student_id" = $1 AND "course_id" = $2`,
		a.Find(enrollment, b, []any{int64(1), int64(2)}))
	assert.Equal(t, 2, b.Len())

	assert.Equal(t, `SELECT `+personColumns+` FROM "people"`, a.GetRange(person, "", nil))
	assert.Equal(t,
		`SELECT `+personColumns+` FROM "people" WHERE "Age" > $1 ORDER BY "Age" DESC`,
		a.GetRange(person, `"Age" > $1`, byAge))

	assert.Equal(t,
		`SELECT `+personColumns+` FROM "people" ORDER BY "ID" ASC LIMIT 2 OFFSET 4`,
		a.GetPage(person, "", nil, 4, 2))
	assert.Equal(t,
		`SELECT `+personColumns+` FROM "people" WHERE "Age" > $1 ORDER BY "Age" DESC LIMIT 10 OFFSET 0`,
		a.GetPage(person, `"Age" > $1`, byAge, 0, 10))

	assert.Equal(t,
		`SELECT `+personColumns+` FROM "people" WHERE "Age" = $1 LIMIT 5`,
		a.GetTop(person, 5, nil, `"Age" = $1`))
	assert.Equal(t,
		`SELECT `+personColumns+` FROM "people" ORDER BY "Age" DESC LIMIT 1`,
		a.GetTop(person, 1, byAge, ""))
}

func TestANSIWrites(t *testing.T) {
	a := testDialect()
	person := describe(t, Person{})

	b := NewBinder(a)
	assert.Equal(t,
		`INSERT INTO "people" ("Name", "Age", "email_address") VALUES ($1, $2, $3)`,
		a.Insert(person, b, []any{"Ada", 36, "ada@example.com"}))
	assert.Equal(t, []any{"Ada", 36, "ada@example.com"}, Command{Params: b.Params()}.Args())

	assert.Equal(t,
		`INSERT INTO "people" ("Name", "Age", "email_address") VALUES ($1, $2, $3) RETURNING "ID"`,
		a.InsertReturningKey(person, NewBinder(a), []any{"Ada", 36, "ada@example.com"}))

	b = NewBinder(a)
	assert.Equal(t,
		`INSERT INTO "people" ("Name", "Age", "email_address") VALUES ($1, $2, $3), ($4, $5, $6)`,
		a.BulkInsert(person, b, [][]any{{"Ada", 36, "a@x"}, {"Bob", 41, "b@x"}}))
	assert.Equal(t, 6, b.Len())

	b = NewBinder(a)
	assert.Equal(t,
		`UPDATE "people" SET "Name" = $1, "Age" = $2, "email_address" = $3 WHERE "ID" = $4`,
		a.Update(person, b, []any{"Ada", 37, "ada@example.com"}, []any{int64(9)}))
	assert.Equal(t, int64(9), b.Params()[3].Value)

	assert.Equal(t, `DELETE FROM "people" WHERE "ID" = $1`, a.Delete(person, NewBinder(a), []any{int64(9)}))
	assert.Equal(t, `DELETE FROM "people" WHERE "Age" = $1`, a.DeleteRange(person, `"Age" = $1`))
	assert.Equal(t, `DELETE FROM "people"`, a.DeleteAll(person))
}

func TestANSIRawArgumentsNumberFromOne(t *testing.T) {
	a := testDialect()
	person := describe(t, Person{})

	b := NewBinder(a)
	cond, err := Where("WHERE Age > $1", 30).Build(person, b)
	require.NoError(t, err)

	sql := a.GetPage(person, cond, nil, 20, 10)
	assert.Equal(t, `SELECT `+personColumns+` FROM "people" WHERE Age > $1 ORDER BY "ID" ASC LIMIT 10 OFFSET 20`, sql)
	require.Len(t, b.Params(), 1)
	assert.Equal(t, Param{Name: "p1", Value: 30}, b.Params()[0])
}

func TestANSIIdentity(t *testing.T) {
	a := testDialect()
	assert.Equal(t, "test", a.Name())
	assert.Equal(t, `"we""ird"`, a.Quote(`we"ird`))
	assert.Equal(t, "$3", a.Placeholder(3))
	assert.Equal(t, 100, a.MaxParams())
	assert.Zero(t, a.MaxRows())
	assert.False(t, a.KeyFromResult())
}
