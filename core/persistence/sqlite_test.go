package persistence

import (
	"context"
	"database/sql"
	"reflect"
	"testing"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/core/schema"
	"github.com/asaidimu/go-crudsql/mysql"
	"github.com/asaidimu/go-crudsql/postgres"
	"github.com/asaidimu/go-crudsql/sqlite"
	"github.com/asaidimu/go-crudsql/sqlserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	_ "modernc.org/sqlite"
)

type Score struct {
	ID     int64
	Player string
	Points int
}

func (Score) TableName() string { return "scores" }

func openScores(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE scores (ID INTEGER PRIMARY KEY AUTOINCREMENT, Player TEXT NOT NULL, Points INTEGER NOT NULL)`)
	require.NoError(t, err)
	return db
}

func seedScores(t *testing.T, db *sql.DB) {
	t.Helper()
	repo, err := NewRepository[Score](db, newAssembler(t, sqlite.NewSqliteQuery()), nil)
	require.NoError(t, err)
	n, err := repo.BulkInsert(context.Background(), []Score{
		{Player: "ann", Points: 10},
		{Player: "bo", Points: 50},
		{Player: "cy", Points: 30},
		{Player: "di", Points: 40},
		{Player: "ed", Points: 20},
	})
	require.NoError(t, err)
	require.EqualValues(t, 5, n)
}

func runPage(t *testing.T, db *sql.DB, cmd query.Command) []Score {
	t.Helper()
	rows, err := db.Query(cmd.SQL, cmd.Args()...)
	require.NoError(t, err, cmd.SQL)
	defer rows.Close()

	d, err := schema.NewCache(schema.DefaultCacheOptions()).Describe(reflect.TypeOf(Score{}), cmd.Dialect)
	require.NoError(t, err)
	items, err := readRows[Score](zaptest.NewLogger(t), d, rows)
	require.NoError(t, err)
	return items
}

func players(scores []Score) []string {
	names := make([]string, len(scores))
	for i, s := range scores {
		names[i] = s.Player
	}
	return names
}

// Every dialect's paging statement is valid SQLite when it binds no
// parameters, so the page boundaries can be compared on one database.
func TestPagingParityAcrossDialects(t *testing.T) {
	db := openScores(t)
	seedScores(t, db)

	dialects := []query.Dialect{
		sqlite.NewSqliteQuery(),
		postgres.NewPostgresQuery(),
		mysql.NewMySQLQuery(),
		sqlserver.NewSQLServerQuery(),
	}
	pages := []struct {
		page query.Page
		want []string
	}{
		{query.Page{Index: 1, Size: 2}, []string{"bo", "di"}},
		{query.Page{Index: 2, Size: 2}, []string{"cy", "ed"}},
		{query.Page{Index: 3, Size: 2}, []string{"ann"}},
		{query.Page{Index: 4, Size: 2}, []string{}},
		{query.Page{Index: 1, Size: 10}, []string{"bo", "di", "cy", "ed", "ann"}},
	}

	for _, dialect := range dialects {
		a := newAssembler(t, dialect)
		for _, p := range pages {
			cmd, err := a.GetPage(Score{}, nil, "Points DESC", p.page)
			require.NoError(t, err)
			assert.Equal(t, p.want, players(runPage(t, db, cmd)), "%s page %d", dialect.Name(), p.page.Index)
		}
	}
}

func TestPagingDefaultsToKeyOrder(t *testing.T) {
	db := openScores(t)
	seedScores(t, db)

	for _, dialect := range []query.Dialect{sqlite.NewSqliteQuery(), sqlserver.NewSQLServerQuery()} {
		cmd, err := newAssembler(t, dialect).GetPage(Score{}, nil, "", query.Page{Index: 2, Size: 3})
		require.NoError(t, err)
		assert.Equal(t, []string{"di", "ed"}, players(runPage(t, db, cmd)), dialect.Name())
	}
}

func TestPagingWithCriteria(t *testing.T) {
	db := openScores(t)
	seedScores(t, db)

	// both render "?" placeholders, which SQLite binds positionally
	for _, dialect := range []query.Dialect{sqlite.NewSqliteQuery(), mysql.NewMySQLQuery()} {
		cmd, err := newAssembler(t, dialect).GetPage(Score{},
			query.Where("WHERE Points >= ?", 20), "Points", query.Page{Index: 2, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"di", "bo"}, players(runPage(t, db, cmd)), dialect.Name())
	}
}

func TestRepositoryAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	db := openScores(t)
	repo, err := NewRepository[Score](db, newAssembler(t, sqlite.NewSqliteQuery()),
		&RepositoryOptions{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	s := &Score{Player: "ann", Points: 10}
	key, err := repo.InsertAndReturnKey(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, int64(1), key)
	assert.EqualValues(t, 1, s.ID)

	_, err = repo.Insert(ctx, &Score{Player: "bo", Points: 20})
	require.NoError(t, err)

	got, err := repo.Get(ctx, int64(1))
	require.NoError(t, err)
	assert.Equal(t, *s, got)

	got.Points = 15
	n, err := repo.Update(ctx, got)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	single, err := repo.GetSingle(ctx, query.Filter{"player": "ann"})
	require.NoError(t, err)
	assert.Equal(t, 15, single.Points)

	_, err = repo.GetSingle(ctx, query.Where("WHERE Points > ?", 0))
	assert.ErrorIs(t, err, core.ErrNotSingular)

	err = repo.Transact(ctx, func(tx *Repository[Score]) error {
		if _, err := tx.DeleteAll(ctx); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	count, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	n, err = repo.DeleteRange(ctx, query.Filter{"Player": "bo"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.Get(ctx, int64(2))
	assert.ErrorIs(t, err, core.ErrNoRows)
}
