package handler_test

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasyao/mymdb/internal/handler"
	"github.com/stasyao/mymdb/internal/model"
	"github.com/stasyao/mymdb/internal/repository"
	"github.com/stasyao/mymdb/internal/testutil"
)

// voteContext builds an echo context for a vote route with the
// authenticated user already injected, the way the JWT middleware
// would.
func voteContext(e *echo.Echo, method string, userID, movieID uint64, voteID uint64, body string) (echo.Context, *httptest.ResponseRecorder) {
	target := fmt.Sprintf("/movie/%d/vote/", movieID)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if voteID != 0 {
		c.SetPath("/movie/:movie_id/vote/:vote_id/")
		c.SetParamNames("movie_id", "vote_id")
		c.SetParamValues(fmt.Sprint(movieID), fmt.Sprint(voteID))
	} else {
		c.SetPath("/movie/:movie_id/vote/")
		c.SetParamNames("movie_id")
		c.SetParamValues(fmt.Sprint(movieID))
	}
	c.Set("user_id", userID)
	c.Set("role", model.RoleUser)
	return c, rec
}

func newVoteHandler(db *sql.DB) *handler.VoteHandler {
	return handler.NewVoteHandler(repository.NewMovieRepo(db), repository.NewVoteRepo(db), nil)
}

func TestVoteCreateGetRedirectsWithoutVoting(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newVoteHandler(db)

	userID := testutil.SeedUser(t, db, "voter@example.com", model.RoleUser)
	movieID := testutil.SeedMovie(t, db, "Heat", 1995, nil)

	c, rec := voteContext(e, http.MethodGet, userID, movieID, 0, "")
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, fmt.Sprintf("/movie/%d/", movieID), rec.Header().Get(echo.HeaderLocation))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM votes`).Scan(&count))
	assert.Zero(t, count)
}

func TestVoteCreatePost(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newVoteHandler(db)

	userID := testutil.SeedUser(t, db, "voter@example.com", model.RoleUser)
	movieID := testutil.SeedMovie(t, db, "Heat", 1995, nil)

	c, rec := voteContext(e, http.MethodPost, userID, movieID, 0, `{"value":1}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, fmt.Sprintf("/movie/%d/", movieID), rec.Header().Get(echo.HeaderLocation))

	var value int8
	require.NoError(t, db.QueryRow(`SELECT value FROM votes WHERE user_id = ? AND movie_id = ?`, userID, movieID).Scan(&value))
	assert.Equal(t, model.VoteUp, value)
}

func TestVoteCreateDuplicateConflicts(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newVoteHandler(db)

	userID := testutil.SeedUser(t, db, "voter@example.com", model.RoleUser)
	movieID := testutil.SeedMovie(t, db, "Heat", 1995, nil)
	testutil.SeedVote(t, db, userID, movieID, model.VoteUp)

	c, rec := voteContext(e, http.MethodPost, userID, movieID, 0, `{"value":-1}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusConflict, rec.Code)

	var value int8
	require.NoError(t, db.QueryRow(`SELECT value FROM votes WHERE user_id = ? AND movie_id = ?`, userID, movieID).Scan(&value))
	assert.Equal(t, model.VoteUp, value)
}

func TestVoteCreateRejectsInvalidValue(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newVoteHandler(db)

	userID := testutil.SeedUser(t, db, "voter@example.com", model.RoleUser)
	movieID := testutil.SeedMovie(t, db, "Heat", 1995, nil)

	for _, body := range []string{`{"value":0}`, `{"value":2}`, `{}`} {
		c, rec := voteContext(e, http.MethodPost, userID, movieID, 0, body)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)

		var resp struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "validation failed", resp.Error)
		assert.Contains(t, resp.Fields, "value")
	}

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM votes`).Scan(&count))
	assert.Zero(t, count)
}

func TestVoteCreateUnknownMovie(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newVoteHandler(db)

	userID := testutil.SeedUser(t, db, "voter@example.com", model.RoleUser)

	c, rec := voteContext(e, http.MethodPost, userID, 9999, 0, `{"value":1}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVoteUpdateOwner(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newVoteHandler(db)

	userID := testutil.SeedUser(t, db, "voter@example.com", model.RoleUser)
	movieID := testutil.SeedMovie(t, db, "Heat", 1995, nil)
	voteID := testutil.SeedVote(t, db, userID, movieID, model.VoteUp)

	c, rec := voteContext(e, http.MethodPost, userID, movieID, voteID, `{"value":-1}`)
	require.NoError(t, h.Update(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, fmt.Sprintf("/movie/%d/", movieID), rec.Header().Get(echo.HeaderLocation))

	var value int8
	require.NoError(t, db.QueryRow(`SELECT value FROM votes WHERE id = ?`, voteID).Scan(&value))
	assert.Equal(t, model.VoteDown, value)
}

func TestVoteUpdateForbiddenForNonOwner(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newVoteHandler(db)

	ownerID := testutil.SeedUser(t, db, "owner@example.com", model.RoleUser)
	strangerID := testutil.SeedUser(t, db, "stranger@example.com", model.RoleUser)
	movieID := testutil.SeedMovie(t, db, "Heat", 1995, nil)
	voteID := testutil.SeedVote(t, db, ownerID, movieID, model.VoteUp)

	// Both GET and POST are rejected before anything happens.
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		body := ""
		if method == http.MethodPost {
			body = `{"value":-1}`
		}
		c, rec := voteContext(e, method, strangerID, movieID, voteID, body)
		require.NoError(t, h.Update(c))
		assert.Equal(t, http.StatusForbidden, rec.Code, "method %s", method)
	}

	var value int8
	require.NoError(t, db.QueryRow(`SELECT value FROM votes WHERE id = ?`, voteID).Scan(&value))
	assert.Equal(t, model.VoteUp, value)
}

func TestVoteUpdateWrongMovieIsNotFound(t *testing.T) {
	db := testutil.OpenTestDB(t)
	e := echo.New()
	h := newVoteHandler(db)

	userID := testutil.SeedUser(t, db, "voter@example.com", model.RoleUser)
	movieID := testutil.SeedMovie(t, db, "Heat", 1995, nil)
	otherID := testutil.SeedMovie(t, db, "Ronin", 1998, nil)
	voteID := testutil.SeedVote(t, db, userID, movieID, model.VoteUp)

	c, rec := voteContext(e, http.MethodPost, userID, otherID, voteID, `{"value":-1}`)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
