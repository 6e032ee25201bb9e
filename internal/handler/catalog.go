// This file defines handlers for the public catalog pages: the movie
// list, the movie detail page and the person detail page.  All three
// are readable without authentication; the movie detail page
// additionally resolves the caller's ballot when a valid token is
// presented so the client can render the right vote form.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stasyao/mymdb/internal/model"
	"github.com/stasyao/mymdb/internal/repository"
)

// CatalogHandler aggregates repositories needed for browsing.
type CatalogHandler struct {
	MovieRepo  *repository.MovieRepo
	PersonRepo *repository.PersonRepo
	VoteRepo   *repository.VoteRepo
}

// NewCatalogHandler constructs a CatalogHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewCatalogHandler(movieRepo *repository.MovieRepo, personRepo *repository.PersonRepo, voteRepo *repository.VoteRepo) *CatalogHandler {
	if movieRepo == nil || personRepo == nil || voteRepo == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{MovieRepo: movieRepo, PersonRepo: personRepo, VoteRepo: voteRepo}
}

// personJSON is the compact person rendering used inside movie
// responses.
type personJSON struct {
	ID      uint64 `json:"id"`
	Display string `json:"display"`
}

// personDetailJSON adds the raw name and date fields for the person
// detail page.
type personDetailJSON struct {
	ID        uint64  `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Born      string  `json:"born"`
	Died      *string `json:"died,omitempty"`
	Display   string  `json:"display"`
}

type castJSON struct {
	Character string     `json:"character"`
	Person    personJSON `json:"person"`
}

type movieJSON struct {
	ID       uint64       `json:"id"`
	Title    string       `json:"title"`
	Plot     string       `json:"plot"`
	Year     uint16       `json:"year"`
	Runtime  uint16       `json:"runtime"`
	Website  string       `json:"website,omitempty"`
	Display  string       `json:"display"`
	Director *personJSON  `json:"director,omitempty"`
	Writers  []personJSON `json:"writers"`
	Cast     []castJSON   `json:"cast"`
	Score    *int64       `json:"score"`
}

// movieBriefJSON is the compact movie rendering used in filmographies.
type movieBriefJSON struct {
	ID      uint64 `json:"id"`
	Title   string `json:"title"`
	Year    uint16 `json:"year"`
	Display string `json:"display"`
}

// voteFormJSON carries the caller's ballot state into the detail page:
// movie and user are always populated, value only when a ballot
// already exists.
type voteFormJSON struct {
	Value   *int8  `json:"value"`
	MovieID uint64 `json:"movie_id"`
	UserID  uint64 `json:"user_id"`
}

func toPersonJSON(p model.Person) personJSON {
	return personJSON{ID: p.ID, Display: p.Display()}
}

func toMovieJSON(d model.MovieDetail) movieJSON {
	out := movieJSON{
		ID:      d.ID,
		Title:   d.Title,
		Plot:    d.Plot,
		Year:    d.Year,
		Runtime: d.Runtime,
		Website: d.Website,
		Display: d.Display(),
		Writers: make([]personJSON, 0, len(d.Writers)),
		Cast:    make([]castJSON, 0, len(d.Cast)),
		Score:   d.Score,
	}
	if d.Director != nil {
		p := toPersonJSON(*d.Director)
		out.Director = &p
	}
	for _, w := range d.Writers {
		out.Writers = append(out.Writers, toPersonJSON(w))
	}
	for _, cr := range d.Cast {
		out.Cast = append(out.Cast, castJSON{Character: cr.Character, Person: toPersonJSON(cr.Person)})
	}
	return out
}

func toMovieBriefJSON(m model.Movie) movieBriefJSON {
	return movieBriefJSON{ID: m.ID, Title: m.Title, Year: m.Year, Display: m.Display()}
}

// MovieList handles GET /movies/.  Pages hold ten movies ordered by
// year descending then title ascending; ?page=N selects a page,
// starting at 1.
func (h *CatalogHandler) MovieList(c echo.Context) error {
	ctx := c.Request().Context()
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
		}
		page = n
	}
	movies, err := h.MovieRepo.ListWithScore(ctx, page)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	total, err := h.MovieRepo.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]movieJSON, 0, len(movies))
	for _, m := range movies {
		items = append(items, toMovieJSON(m))
	}
	totalPages := (total + repository.PageSize - 1) / repository.PageSize
	return c.JSON(http.StatusOK, echo.Map{
		"items":       items,
		"page":        page,
		"total_pages": totalPages,
	})
}

// MovieDetail handles GET /movie/:movie_id/.  The response always has
// the score-annotated movie; for authenticated callers it also carries
// a vote_form and the vote_form_url to submit it to.  A caller with an
// existing ballot gets the update endpoint and the prefilled value, a
// first-time voter gets the create endpoint and an empty value.
// Anonymous callers get no voting context at all.
func (h *CatalogHandler) MovieDetail(c echo.Context) error {
	ctx := c.Request().Context()
	movieID, err := pathParamID(c, "movie_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	detail, err := h.MovieRepo.GetWithScore(ctx, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	resp := echo.Map{"movie": toMovieJSON(*detail)}

	if userID, uerr := getUserID(c); uerr == nil {
		form := voteFormJSON{MovieID: movieID, UserID: userID}
		vote, verr := h.VoteRepo.GetByMovieAndUser(ctx, movieID, userID)
		switch {
		case verr == nil:
			form.Value = &vote.Value
			resp["vote_form_url"] = updateVoteURL(movieID, vote.ID)
		case errors.Is(verr, repository.ErrVoteNotFound):
			resp["vote_form_url"] = createVoteURL(movieID)
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		resp["vote_form"] = form
	}
	return c.JSON(http.StatusOK, resp)
}

// PersonDetail handles GET /person/:person_id/.  It returns the person
// with their full filmography: movies directed, movies written and
// acting credits with character names.
func (h *CatalogHandler) PersonDetail(c echo.Context) error {
	ctx := c.Request().Context()
	personID, err := pathParamID(c, "person_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	f, err := h.PersonRepo.GetFilmography(ctx, personID)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	person := personDetailJSON{
		ID:        f.ID,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Born:      f.Born.Format(time.DateOnly),
		Display:   f.Display(),
	}
	if f.Died != nil {
		died := f.Died.Format(time.DateOnly)
		person.Died = &died
	}

	directed := make([]movieBriefJSON, 0, len(f.Directed))
	for _, m := range f.Directed {
		directed = append(directed, toMovieBriefJSON(m))
	}
	written := make([]movieBriefJSON, 0, len(f.Written))
	for _, m := range f.Written {
		written = append(written, toMovieBriefJSON(m))
	}
	actedIn := make([]echo.Map, 0, len(f.ActedIn))
	for _, cr := range f.ActedIn {
		actedIn = append(actedIn, echo.Map{
			"character": cr.Character,
			"movie":     toMovieBriefJSON(cr.Movie),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"person":   person,
		"directed": directed,
		"written":  written,
		"acted_in": actedIn,
	})
}
