package handler // handler defines http handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64.  JWT numeric claims arrive as float64; other types are kept
// for robustness against future middleware changes.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathParamID parses a numeric path parameter; zero is rejected.
func pathParamID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// movieDetailURL is the canonical location of a movie's detail page;
// every voting flow ends with a redirect here.
func movieDetailURL(movieID uint64) string {
	return fmt.Sprintf("/movie/%d/", movieID)
}

// createVoteURL is the endpoint for a first ballot on a movie.
func createVoteURL(movieID uint64) string {
	return fmt.Sprintf("/movie/%d/vote/", movieID)
}

// updateVoteURL is the endpoint for changing an existing ballot.
func updateVoteURL(movieID, voteID uint64) string {
	return fmt.Sprintf("/movie/%d/vote/%d/", movieID, voteID)
}
