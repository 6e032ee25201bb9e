// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/stasyao/mymdb/internal/handler"
	"github.com/stasyao/mymdb/internal/middleware"
	"github.com/stasyao/mymdb/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware. Unauthenticated operations live under /v1/auth, while
// protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a bearer token (revokes every session) or a
	// refresh_token in the body (revokes that session only), so it lives
	// outside the JWT-protected group.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleUser, model.RoleCurator))
	auth.GET("/me", a.Me)
}

// RegisterCatalog registers the public browse endpoints: the paginated movie
// list, movie details with aggregate score, and person details with
// filmography. The movie detail route runs under OptionalJWTAuth so that a
// signed-in visitor sees their own vote; cacheMW (may be nil) is applied to
// the list and person routes, which render the same for every visitor.
func RegisterCatalog(e *echo.Echo, c *handler.CatalogHandler, jwtSecret string, cacheMW echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cacheMW != nil {
		mws = append(mws, cacheMW)
	}
	e.GET("/movies/", c.MovieList, mws...)
	e.GET("/person/:person_id/", c.PersonDetail, mws...)
	e.GET("/movie/:movie_id/", c.MovieDetail, middleware.OptionalJWTAuth(jwtSecret))
}

// RegisterVotes registers the vote endpoints. Both routes accept GET and POST:
// GET never mutates and redirects back to the movie detail page, POST casts or
// changes a vote. Unauthenticated visitors are redirected to loginURL instead
// of receiving a 401, and limiterMW (may be nil) throttles abusive voters.
func RegisterVotes(e *echo.Echo, v *handler.VoteHandler, jwtSecret, loginURL string, limiterMW echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{middleware.JWTAuthRedirect(jwtSecret, loginURL)}
	if limiterMW != nil {
		mws = append(mws, limiterMW)
	}
	e.GET("/movie/:movie_id/vote/", v.Create, mws...)
	e.POST("/movie/:movie_id/vote/", v.Create, mws...)
	e.GET("/movie/:movie_id/vote/:vote_id/", v.Update, mws...)
	e.POST("/movie/:movie_id/vote/:vote_id/", v.Update, mws...)
}

// RegisterCurator registers the catalog management endpoints under
// /v1/catalog. Every route requires a valid access token carrying the CURATOR
// role.
func RegisterCurator(e *echo.Echo, h *handler.CuratorHandler, jwtSecret string) {
	g := e.Group("/v1/catalog")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleCurator))

	g.POST("/persons", h.CreatePerson)
	g.PUT("/persons/:person_id", h.UpdatePerson)
	g.DELETE("/persons/:person_id", h.DeletePerson)

	g.POST("/movies", h.CreateMovie)
	g.PUT("/movies/:movie_id", h.UpdateMovie)
	g.DELETE("/movies/:movie_id", h.DeleteMovie)
	g.PUT("/movies/:movie_id/writers", h.SetWriters)

	g.POST("/movies/:movie_id/roles", h.CreateRole)
	g.DELETE("/roles/:role_id", h.DeleteRole)
}
