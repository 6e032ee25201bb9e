package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasyao/mymdb/internal/utils"
)

const testSecret = "test-secret"

func runMiddleware(mw echo.MiddlewareFunc, token string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/movie/1/vote/", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	_ = mw(next)(c)
	return rec, c
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	rec, _ := runMiddleware(JWTAuth(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "USER", 5)
	require.NoError(t, err)

	rec, c := runMiddleware(JWTAuth(testSecret), tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 42, c.Get("user_id"))
	assert.Equal(t, "USER", c.Get("role"))
}

func TestJWTAuthRedirectSendsAnonymousToLogin(t *testing.T) {
	rec, _ := runMiddleware(JWTAuthRedirect(testSecret, "/v1/auth/login"), "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/v1/auth/login", rec.Header().Get(echo.HeaderLocation))
}

func TestJWTAuthRedirectPassesAuthenticated(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, "USER", 5)
	require.NoError(t, err)

	rec, _ := runMiddleware(JWTAuthRedirect(testSecret, "/v1/auth/login"), tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 7, "USER", 5)
	require.NoError(t, err)

	rec, _ := runMiddleware(JWTAuth(testSecret), tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWTAuthNeverRejects(t *testing.T) {
	rec, c := runMiddleware(OptionalJWTAuth(testSecret), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get("user_id"))

	tok, err := utils.NewAccessToken(testSecret, 9, "CURATOR", 5)
	require.NoError(t, err)
	rec, c = runMiddleware(OptionalJWTAuth(testSecret), tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 9, c.Get("user_id"))
}
