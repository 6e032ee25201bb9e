package middleware // reusable HTTP middleware shared by all route groups

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// parseBearer extracts and validates the Bearer access token on the
// request.  On success it returns the token claims; any missing,
// malformed or expired token is an error.
func parseBearer(c echo.Context, secret string) (jwt.MapClaims, error) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, echo.ErrUnauthorized
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, echo.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, echo.ErrUnauthorized
	}
	return claims, nil
}

// JWTAuth returns middleware that validates a Bearer access token and
// injects the subject and role claims into the request context under
// "user_id" and "role".  Requests without a valid token get a 401
// JSON response.  Use this on API routes.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseBearer(c, secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set("user_id", claims["sub"])
			c.Set("role", claims["role"])
			return next(c)
		}
	}
}

// JWTAuthRedirect behaves like JWTAuth but sends unauthenticated
// callers to the login route with a 303 instead of a 401.  The voting
// endpoints use it: an anonymous ballot is not an API error, the
// visitor simply has to sign in first.
func JWTAuthRedirect(secret, loginURL string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseBearer(c, secret)
			if err != nil {
				return c.Redirect(http.StatusSeeOther, loginURL)
			}
			c.Set("user_id", claims["sub"])
			c.Set("role", claims["role"])
			return next(c)
		}
	}
}

// OptionalJWTAuth injects "user_id" and "role" when a valid token is
// present and otherwise leaves the context empty; it never rejects.
// The movie detail page uses it to attach the caller's ballot form
// while staying publicly readable.
func OptionalJWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, err := parseBearer(c, secret); err == nil {
				c.Set("user_id", claims["sub"])
				c.Set("role", claims["role"])
			}
			return next(c)
		}
	}
}
