// This file defines the curation API: create, edit and delete
// operations on persons, movies, writer lists and acting credits.
// Routes are gated on the CURATOR role in middleware; visitors and
// plain accounts never reach these handlers.
package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stasyao/mymdb/internal/model"
	"github.com/stasyao/mymdb/internal/repository"
)

// CuratorHandler bundles repositories for catalog mutation.
type CuratorHandler struct {
	PersonRepo *repository.PersonRepo
	MovieRepo  *repository.MovieRepo
	RoleRepo   *repository.RoleRepo
}

// NewCuratorHandler constructs a CuratorHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewCuratorHandler(personRepo *repository.PersonRepo, movieRepo *repository.MovieRepo, roleRepo *repository.RoleRepo) *CuratorHandler {
	if personRepo == nil || movieRepo == nil || roleRepo == nil {
		panic("nil repository passed to NewCuratorHandler")
	}
	return &CuratorHandler{PersonRepo: personRepo, MovieRepo: movieRepo, RoleRepo: roleRepo}
}

// ----- persons -----

type personReq struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Born      string  `json:"born"`           // YYYY-MM-DD
	Died      *string `json:"died,omitempty"` // YYYY-MM-DD
}

func (req *personReq) toModel() (*model.Person, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.FirstName == "" || req.LastName == "" {
		return nil, errors.New("first_name and last_name are required")
	}
	born, err := time.Parse(time.DateOnly, req.Born)
	if err != nil {
		return nil, errors.New("born must be a YYYY-MM-DD date")
	}
	p := &model.Person{FirstName: req.FirstName, LastName: req.LastName, Born: born}
	if req.Died != nil {
		died, err := time.Parse(time.DateOnly, *req.Died)
		if err != nil {
			return nil, errors.New("died must be a YYYY-MM-DD date")
		}
		if died.Before(born) {
			return nil, errors.New("died cannot precede born")
		}
		p.Died = &died
	}
	return p, nil
}

// CreatePerson handles POST /v1/catalog/persons.
func (h *CuratorHandler) CreatePerson(c echo.Context) error {
	var req personReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p, err := req.toModel()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.PersonRepo.Create(c.Request().Context(), p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": p.ID, "display": p.Display()})
}

// UpdatePerson handles PUT /v1/catalog/persons/:person_id.
func (h *CuratorHandler) UpdatePerson(c echo.Context) error {
	id, err := pathParamID(c, "person_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req personReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p, err := req.toModel()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	p.ID = id
	if err := h.PersonRepo.Update(c.Request().Context(), p); err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": p.ID, "display": p.Display()})
}

// DeletePerson handles DELETE /v1/catalog/persons/:person_id.  Movies
// directed by the person survive with a cleared director; acting
// credits stay in place.
func (h *CuratorHandler) DeletePerson(c echo.Context) error {
	id, err := pathParamID(c, "person_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.PersonRepo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- movies -----

type movieReq struct {
	Title      string  `json:"title"`
	Plot       string  `json:"plot"`
	Year       int     `json:"year"`
	Runtime    int     `json:"runtime"`
	Website    string  `json:"website"`
	DirectorID *uint64 `json:"director_id,omitempty"`
}

func (req *movieReq) toModel() (*model.Movie, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, errors.New("title is required")
	}
	if req.Year < 0 || req.Year > 65535 {
		return nil, errors.New("year out of range")
	}
	if req.Runtime < 0 || req.Runtime > 65535 {
		return nil, errors.New("runtime out of range")
	}
	req.Website = strings.TrimSpace(req.Website)
	if req.Website != "" {
		u, err := url.ParseRequestURI(req.Website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, errors.New("website must be an http(s) URL")
		}
	}
	return &model.Movie{
		Title:      req.Title,
		Plot:       req.Plot,
		Year:       uint16(req.Year),
		Runtime:    uint16(req.Runtime),
		Website:    req.Website,
		DirectorID: req.DirectorID,
	}, nil
}

// checkDirector verifies that a referenced director exists so the
// insert fails with a clean 400 instead of an FK error.
func (h *CuratorHandler) checkDirector(c echo.Context, m *model.Movie) error {
	if m.DirectorID == nil {
		return nil
	}
	if _, err := h.PersonRepo.GetByID(c.Request().Context(), *m.DirectorID); err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return errors.New("director_id does not reference a person")
		}
		return err
	}
	return nil
}

// CreateMovie handles POST /v1/catalog/movies.
func (h *CuratorHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	m, err := req.toModel()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.checkDirector(c, m); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.MovieRepo.Create(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": m.ID, "display": m.Display()})
}

// UpdateMovie handles PUT /v1/catalog/movies/:movie_id.
func (h *CuratorHandler) UpdateMovie(c echo.Context) error {
	id, err := pathParamID(c, "movie_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	m, err := req.toModel()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.checkDirector(c, m); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	m.ID = id
	if err := h.MovieRepo.Update(c.Request().Context(), m); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": m.ID, "display": m.Display()})
}

// DeleteMovie handles DELETE /v1/catalog/movies/:movie_id.  Votes go
// with the movie; acting credits stay behind.
func (h *CuratorHandler) DeleteMovie(c echo.Context) error {
	id, err := pathParamID(c, "movie_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.MovieRepo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// SetWriters handles PUT /v1/catalog/movies/:movie_id/writers.  The
// request body replaces the movie's writer list wholesale.
func (h *CuratorHandler) SetWriters(c echo.Context) error {
	id, err := pathParamID(c, "movie_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		PersonIDs []uint64 `json:"person_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	ok, err := h.MovieRepo.Exists(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	if err := h.MovieRepo.SetWriters(ctx, id, body.PersonIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- roles -----

type roleReq struct {
	PersonID uint64 `json:"person_id"`
	Name     string `json:"name"`
}

// CreateRole handles POST /v1/catalog/movies/:movie_id/roles.  The
// same person may hold several distinct roles in one movie, but the
// identical (movie, person, name) triple is rejected with 409.
func (h *CuratorHandler) CreateRole(c echo.Context) error {
	movieID, err := pathParamID(c, "movie_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.PersonID == 0 || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "person_id and name are required"})
	}
	ctx := c.Request().Context()
	ok, err := h.MovieRepo.Exists(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	if _, err := h.PersonRepo.GetByID(ctx, req.PersonID); err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	role := model.Role{MovieID: movieID, PersonID: req.PersonID, Name: req.Name}
	if err := h.RoleRepo.Create(ctx, &role); err != nil {
		if errors.Is(err, repository.ErrDuplicateRole) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "role already credited"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": role.ID})
}

// DeleteRole handles DELETE /v1/catalog/roles/:role_id.
func (h *CuratorHandler) DeleteRole(c echo.Context) error {
	id, err := pathParamID(c, "role_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.RoleRepo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}
