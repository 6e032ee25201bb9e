// This file implements the voting workflow.  A ballot's life has two
// states: no vote, then voted.  The create endpoint performs the only
// forward transition; the update endpoint changes the value of an
// existing ballot and is owner-only.  There is no unvote.  Neither
// endpoint ever renders anything: every outcome that is not an error
// ends in a 303 back to the movie detail page, including plain GETs.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stasyao/mymdb/internal/model"
	"github.com/stasyao/mymdb/internal/queue"
	"github.com/stasyao/mymdb/internal/repository"
)

// PublishFunc sends a vote event to the message broker.  Publishing is
// best-effort: the voting flow never fails because the broker is down.
type PublishFunc func(ctx context.Context, event queue.VoteCastEvent) error

// VoteHandler bundles the repositories and the event publisher used by
// the ballot endpoints.  JWT authentication has already happened in
// middleware; methods return 401 only when the user ID cannot be
// extracted from the context.
type VoteHandler struct {
	MovieRepo *repository.MovieRepo
	VoteRepo  *repository.VoteRepo
	Publish   PublishFunc // may be nil to disable events
}

// NewVoteHandler constructs a VoteHandler with the provided
// repositories.  publish may be nil.
func NewVoteHandler(movieRepo *repository.MovieRepo, voteRepo *repository.VoteRepo, publish PublishFunc) *VoteHandler {
	if movieRepo == nil || voteRepo == nil {
		panic("nil repository passed to NewVoteHandler")
	}
	return &VoteHandler{MovieRepo: movieRepo, VoteRepo: voteRepo, Publish: publish}
}

type voteReq struct {
	Value *int8 `json:"value" form:"value"`
}

// bindVoteValue parses and validates the submitted ballot value.  The
// only accepted values are +1 and -1; anything else is a field-level
// validation error and nothing is written.
func bindVoteValue(c echo.Context) (int8, error) {
	var req voteReq
	if err := c.Bind(&req); err != nil {
		return 0, errors.New("invalid request body")
	}
	if req.Value == nil {
		return 0, errors.New("value is required")
	}
	if !model.ValidVoteValue(*req.Value) {
		return 0, errors.New("value must be 1 or -1")
	}
	return *req.Value, nil
}

// Create handles GET and POST /movie/:movie_id/vote/.  POST casts a
// first-time ballot; a second ballot from the same user on the same
// movie is rejected with 409 by the uniqueness constraint, the first
// row stays untouched.  GET never shows a form and bounces to the
// movie detail page.
func (h *VoteHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID, err := pathParamID(c, "movie_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	ok, err := h.MovieRepo.Exists(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	if c.Request().Method != http.MethodPost {
		return c.Redirect(http.StatusSeeOther, movieDetailURL(movieID))
	}

	value, err := bindVoteValue(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"fields": echo.Map{"value": err.Error()},
		})
	}

	vote := model.Vote{Value: value, UserID: userID, MovieID: movieID}
	if err := h.VoteRepo.Create(ctx, &vote); err != nil {
		if errors.Is(err, repository.ErrAlreadyVoted) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already voted, update your existing vote instead"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	h.publishVote(vote)
	return c.Redirect(http.StatusSeeOther, movieDetailURL(movieID))
}

// Update handles GET and POST /movie/:movie_id/vote/:vote_id/.  The
// ownership check runs before anything else mutates or redirects:
// touching another user's ballot is 403 regardless of method.  POST
// rewrites the value only; user and movie are immutable once set.
func (h *VoteHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID, err := pathParamID(c, "movie_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	voteID, err := pathParamID(c, "vote_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	vote, err := h.VoteRepo.GetByID(ctx, voteID)
	if err != nil {
		if errors.Is(err, repository.ErrVoteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vote not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if vote.MovieID != movieID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vote not found"})
	}
	if vote.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot vote on someone else's behalf"})
	}
	if c.Request().Method != http.MethodPost {
		return c.Redirect(http.StatusSeeOther, movieDetailURL(movieID))
	}

	value, err := bindVoteValue(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"fields": echo.Map{"value": err.Error()},
		})
	}
	if err := h.VoteRepo.UpdateValue(ctx, vote.ID, value); err != nil {
		if errors.Is(err, repository.ErrVoteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vote not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	vote.Value = value
	h.publishVote(*vote)
	return c.Redirect(http.StatusSeeOther, movieDetailURL(movieID))
}

func (h *VoteHandler) publishVote(v model.Vote) {
	if h.Publish == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = h.Publish(ctx, queue.VoteCastEvent{
		VoteID:  v.ID,
		UserID:  v.UserID,
		MovieID: v.MovieID,
		Value:   v.Value,
		VotedOn: time.Now().UTC().Format(time.RFC3339),
	})
}
