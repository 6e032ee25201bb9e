package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasyao/mymdb/internal/model"
	"github.com/stasyao/mymdb/internal/repository"
	"github.com/stasyao/mymdb/internal/testutil"
)

func TestGetWithScoreAggregatesVotes(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	repo := repository.NewMovieRepo(db)

	movieID := testutil.SeedMovie(t, db, "Alien", 1979, nil)
	quietID := testutil.SeedMovie(t, db, "Stalker", 1979, nil)

	for i, v := range []int8{model.VoteUp, model.VoteUp, model.VoteDown} {
		uid := testutil.SeedUser(t, db, fmt.Sprintf("user%d@example.com", i), model.RoleUser)
		testutil.SeedVote(t, db, uid, movieID, v)
	}

	voted, err := repo.GetWithScore(ctx, movieID)
	require.NoError(t, err)
	require.NotNil(t, voted.Score)
	assert.Equal(t, int64(1), *voted.Score)

	// A movie nobody voted on reports no score at all, not zero.
	unvoted, err := repo.GetWithScore(ctx, quietID)
	require.NoError(t, err)
	assert.Nil(t, unvoted.Score)

	_, err = repo.GetWithScore(ctx, quietID+1000)
	assert.ErrorIs(t, err, repository.ErrMovieNotFound)
}

func TestGetWithScoreAttachesRelated(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	repo := repository.NewMovieRepo(db)

	dirID := testutil.SeedPerson(t, db, "Ridley", "Scott", "1937-11-30", "")
	w1 := testutil.SeedPerson(t, db, "Dan", "OBannon", "1946-09-30", "2009-12-17")
	w2 := testutil.SeedPerson(t, db, "Ronald", "Shusett", "1946-08-05", "")
	a1 := testutil.SeedPerson(t, db, "Sigourney", "Weaver", "1949-10-08", "")
	a2 := testutil.SeedPerson(t, db, "Tom", "Skerritt", "1933-08-25", "")
	a3 := testutil.SeedPerson(t, db, "Ian", "Holm", "1931-09-12", "2020-06-19")

	movieID := testutil.SeedMovie(t, db, "Alien", 1979, &dirID)
	testutil.SeedWriter(t, db, movieID, w1)
	testutil.SeedWriter(t, db, movieID, w2)
	testutil.SeedRole(t, db, movieID, a1, "Ripley")
	testutil.SeedRole(t, db, movieID, a2, "Dallas")
	testutil.SeedRole(t, db, movieID, a3, "Ash")

	d, err := repo.GetWithScore(ctx, movieID)
	require.NoError(t, err)

	require.NotNil(t, d.Director)
	assert.Equal(t, "Scott, Ridley (1937)", d.Director.Display())

	require.Len(t, d.Writers, 2)
	assert.Equal(t, "OBannon, Dan (1946-2009)", d.Writers[0].Display())
	assert.Equal(t, "Shusett, Ronald (1946)", d.Writers[1].Display())

	// Cast comes back sorted by actor name.
	require.Len(t, d.Cast, 3)
	assert.Equal(t, "Ash", d.Cast[0].Character)
	assert.Equal(t, "Dallas", d.Cast[1].Character)
	assert.Equal(t, "Ripley", d.Cast[2].Character)
	assert.Equal(t, "Holm, Ian (1931-2020)", d.Cast[0].Person.Display())
}

func TestListWithScorePagination(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	repo := repository.NewMovieRepo(db)

	// 25 movies across descending years; titles disambiguate within a year.
	for i := 0; i < 25; i++ {
		title := fmt.Sprintf("Movie %02d", i)
		year := uint16(2000 + i/5)
		testutil.SeedMovie(t, db, title, year, nil)
	}

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)

	page1, err := repo.ListWithScore(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page1, repository.PageSize)

	// Newest years first, titles ascending within a year.
	assert.Equal(t, uint16(2004), page1[0].Year)
	assert.Equal(t, "Movie 20", page1[0].Title)
	assert.Equal(t, "Movie 24", page1[4].Title)
	assert.Equal(t, uint16(2003), page1[5].Year)
	assert.Equal(t, "Movie 15", page1[5].Title)

	page3, err := repo.ListWithScore(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, page3, 5)

	page4, err := repo.ListWithScore(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, page4)
}

// statementCount tallies every statement the wrapped mysql driver
// prepares; countingConn exposes only Prepare, so database/sql routes
// each query through it.
var statementCount int64

var registerCountingDriver sync.Once

type countingDriver struct{ mysql.MySQLDriver }

func (d countingDriver) Open(name string) (driver.Conn, error) {
	conn, err := d.MySQLDriver.Open(name)
	if err != nil {
		return nil, err
	}
	return &countingConn{Conn: conn}, nil
}

type countingConn struct{ driver.Conn }

func (c *countingConn) Prepare(query string) (driver.Stmt, error) {
	atomic.AddInt64(&statementCount, 1)
	return c.Conn.Prepare(query)
}

func TestListWithScoreQueryCount(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()

	writerID := testutil.SeedPerson(t, db, "Paddy", "Chayefsky", "1923-01-29", "1981-08-01")
	actorID := testutil.SeedPerson(t, db, "Peter", "Finch", "1916-09-28", "1977-01-14")
	for i := 0; i < 12; i++ {
		movieID := testutil.SeedMovie(t, db, fmt.Sprintf("Movie %02d", i), uint16(1970+i), nil)
		testutil.SeedWriter(t, db, movieID, writerID)
		testutil.SeedRole(t, db, movieID, actorID, fmt.Sprintf("Character %02d", i))
	}

	registerCountingDriver.Do(func() {
		sql.Register("mysql-counting", countingDriver{})
	})
	counted, err := sql.Open("mysql-counting", os.Getenv("TEST_DATABASE_DSN"))
	require.NoError(t, err)
	defer counted.Close()

	repo := repository.NewMovieRepo(counted)
	atomic.StoreInt64(&statementCount, 0)

	page, err := repo.ListWithScore(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page, repository.PageSize)
	require.NotEmpty(t, page[0].Writers)
	require.NotEmpty(t, page[0].Cast)

	// The page itself, its writers and its cast, regardless of how
	// many movies the page holds.
	assert.EqualValues(t, 3, atomic.LoadInt64(&statementCount))
}
