package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasyao/mymdb/internal/repository"
	"github.com/stasyao/mymdb/internal/testutil"
)

func TestGetFilmography(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	repo := repository.NewPersonRepo(db)

	personID := testutil.SeedPerson(t, db, "Clint", "Eastwood", "1930-05-31", "")

	directed := testutil.SeedMovie(t, db, "Unforgiven", 1992, &personID)
	older := testutil.SeedMovie(t, db, "High Plains Drifter", 1973, &personID)
	written := testutil.SeedMovie(t, db, "Some Script", 1985, nil)
	testutil.SeedWriter(t, db, written, personID)
	testutil.SeedRole(t, db, directed, personID, "William Munny")

	f, err := repo.GetFilmography(ctx, personID)
	require.NoError(t, err)
	assert.Equal(t, "Eastwood, Clint (1930)", f.Person.Display())

	// Directed movies come newest first.
	require.Len(t, f.Directed, 2)
	assert.Equal(t, directed, f.Directed[0].ID)
	assert.Equal(t, older, f.Directed[1].ID)

	require.Len(t, f.Written, 1)
	assert.Equal(t, written, f.Written[0].ID)

	require.Len(t, f.ActedIn, 1)
	assert.Equal(t, "William Munny", f.ActedIn[0].Character)
	assert.Equal(t, "Unforgiven (1992)", f.ActedIn[0].Movie.Display())
}

func TestGetFilmographyKeepsOrphanCredits(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	repo := repository.NewPersonRepo(db)

	personID := testutil.SeedPerson(t, db, "Uncredited", "Extra", "1970-01-01", "")
	movieID := testutil.SeedMovie(t, db, "Crowd Scene", 2001, nil)
	testutil.SeedRole(t, db, movieID, personID, "Bystander")

	// Credits have no foreign keys, so deleting the person leaves the
	// role row behind and the movie page keeps listing the credit.
	require.NoError(t, repo.Delete(ctx, personID))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM roles WHERE movie_id = ?`, movieID).Scan(&count))
	assert.Equal(t, 1, count)

	_, err := repo.GetFilmography(ctx, personID)
	assert.ErrorIs(t, err, repository.ErrPersonNotFound)
}
