package handler_test

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasyao/mymdb/internal/handler"
	"github.com/stasyao/mymdb/internal/model"
	"github.com/stasyao/mymdb/internal/repository"
	"github.com/stasyao/mymdb/internal/testutil"
)

func newCatalogHandler(db *sql.DB) *handler.CatalogHandler {
	return handler.NewCatalogHandler(
		repository.NewMovieRepo(db),
		repository.NewPersonRepo(db),
		repository.NewVoteRepo(db),
	)
}

func movieDetailContext(e *echo.Echo, movieID uint64, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/movie/%d/", movieID), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/movie/:movie_id/")
	c.SetParamNames("movie_id")
	c.SetParamValues(fmt.Sprint(movieID))
	if userID != 0 {
		c.Set("user_id", userID)
		c.Set("role", model.RoleUser)
	}
	return c, rec
}

func TestMovieDetailAnonymousHasNoVoteForm(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newCatalogHandler(db)

	movieID := testutil.SeedMovie(t, db, "Heat", 1995, nil)

	c, rec := movieDetailContext(e, movieID, 0)
	require.NoError(t, h.MovieDetail(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "movie")
	assert.NotContains(t, resp, "vote_form")
	assert.NotContains(t, resp, "vote_form_url")
}

func TestMovieDetailFirstTimeVoterGetsCreateURL(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newCatalogHandler(db)

	userID := testutil.SeedUser(t, db, "voter@example.com", model.RoleUser)
	movieID := testutil.SeedMovie(t, db, "Heat", 1995, nil)

	c, rec := movieDetailContext(e, movieID, userID)
	require.NoError(t, h.MovieDetail(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		VoteFormURL string `json:"vote_form_url"`
		VoteForm    struct {
			Value   *int8  `json:"value"`
			MovieID uint64 `json:"movie_id"`
			UserID  uint64 `json:"user_id"`
		} `json:"vote_form"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, fmt.Sprintf("/movie/%d/vote/", movieID), resp.VoteFormURL)
	assert.Nil(t, resp.VoteForm.Value)
	assert.Equal(t, movieID, resp.VoteForm.MovieID)
	assert.Equal(t, userID, resp.VoteForm.UserID)
}

func TestMovieDetailExistingVoterGetsUpdateURL(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newCatalogHandler(db)

	userID := testutil.SeedUser(t, db, "voter@example.com", model.RoleUser)
	movieID := testutil.SeedMovie(t, db, "Heat", 1995, nil)
	voteID := testutil.SeedVote(t, db, userID, movieID, model.VoteDown)

	c, rec := movieDetailContext(e, movieID, userID)
	require.NoError(t, h.MovieDetail(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Movie struct {
			Score *int64 `json:"score"`
		} `json:"movie"`
		VoteFormURL string `json:"vote_form_url"`
		VoteForm    struct {
			Value *int8 `json:"value"`
		} `json:"vote_form"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, fmt.Sprintf("/movie/%d/vote/%d/", movieID, voteID), resp.VoteFormURL)
	require.NotNil(t, resp.VoteForm.Value)
	assert.Equal(t, model.VoteDown, *resp.VoteForm.Value)
	require.NotNil(t, resp.Movie.Score)
	assert.Equal(t, int64(-1), *resp.Movie.Score)
}

func TestMovieListPagination(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newCatalogHandler(db)

	for i := 0; i < 12; i++ {
		testutil.SeedMovie(t, db, fmt.Sprintf("Movie %02d", i), uint16(1990+i), nil)
	}

	req := httptest.NewRequest(http.MethodGet, "/movies/?page=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/movies/")
	require.NoError(t, h.MovieList(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []struct {
			Title string `json:"title"`
			Year  uint16 `json:"year"`
			Score *int64 `json:"score"`
		} `json:"items"`
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Items, 2)
	// Page one took the ten newest; the oldest two remain.
	assert.Equal(t, "Movie 01", resp.Items[0].Title)
	assert.Equal(t, "Movie 00", resp.Items[1].Title)
	assert.Nil(t, resp.Items[0].Score)
}

func TestPersonDetail(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newCatalogHandler(db)

	personID := testutil.SeedPerson(t, db, "Sidney", "Lumet", "1924-06-25", "2011-04-09")
	testutil.SeedMovie(t, db, "Network", 1976, &personID)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/person/%d/", personID), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/person/:person_id/")
	c.SetParamNames("person_id")
	c.SetParamValues(fmt.Sprint(personID))
	require.NoError(t, h.PersonDetail(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Person struct {
			Display string  `json:"display"`
			Born    string  `json:"born"`
			Died    *string `json:"died"`
		} `json:"person"`
		Directed []struct {
			Display string `json:"display"`
		} `json:"directed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Lumet, Sidney (1924-2011)", resp.Person.Display)
	assert.Equal(t, "1924-06-25", resp.Person.Born)
	require.NotNil(t, resp.Person.Died)
	assert.Equal(t, "2011-04-09", *resp.Person.Died)
	require.Len(t, resp.Directed, 1)
	assert.Equal(t, "Network (1976)", resp.Directed[0].Display)
}
