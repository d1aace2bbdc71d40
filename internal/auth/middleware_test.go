package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fgtintas/referral-service/internal/domain"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

func newGatedApp(t *testing.T) (*fiber.App, *TokenManager) {
	t.Helper()
	tm, _ := newTestTokenManager(t)
	cookies := SessionCookie{Name: "fg_token", MaxAge: tm.TTL()}
	mw := NewAuthMiddleware(NewGate(tm), DefaultRoutePolicy(), cookies)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Use(mw.Handle)

	whoami := func(c *fiber.Ctx) error {
		if claims, ok := ClaimsFromContext(c); ok {
			return c.SendString(claims.PrincipalID)
		}
		return c.SendString("anonymous")
	}
	app.Get("/professionals/:id", whoami)
	app.Post("/professionals/:id/commission", RequireRole(domain.RoleAdmin), whoami)
	app.Get("/admin/professionals", whoami)
	app.Get("/professional/dashboard", whoami)
	return app, tm
}

func doRequest(t *testing.T, app *fiber.App, method, path string, mutate func(*http.Request)) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if mutate != nil {
		mutate(req)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func withCookie(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Cookie", "theme=dark; fg_token="+token) }
}

func TestMiddlewarePublicRouteAttachesOptionalIdentity(t *testing.T) {
	app, tm := newGatedApp(t)
	session, err := tm.Issue(carlos)
	require.NoError(t, err)

	status, body := doRequest(t, app, http.MethodGet, "/professionals/pro-1", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	status, body = doRequest(t, app, http.MethodGet, "/professionals/pro-1", withCookie(session.Token))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pro-1", body)

	status, body = doRequest(t, app, http.MethodGet, "/professionals/pro-1", withCookie("expired-or-bad"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)
}

func TestMiddlewareCommissionRouteIsAdminOnly(t *testing.T) {
	app, tm := newGatedApp(t)
	pro, err := tm.Issue(carlos)
	require.NoError(t, err)
	admin, err := tm.Issue(adminPrincipal)
	require.NoError(t, err)

	status, _ := doRequest(t, app, http.MethodPost, "/professionals/pro-1/commission", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, app, http.MethodPost, "/professionals/pro-1/commission", withCookie(pro.Token))
	assert.Equal(t, http.StatusForbidden, status)

	status, body := doRequest(t, app, http.MethodPost, "/professionals/pro-1/commission", withCookie(admin.Token))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "adm-1", body)
}

func TestMiddlewareRolePrefixes(t *testing.T) {
	app, tm := newGatedApp(t)
	pro, err := tm.Issue(carlos)
	require.NoError(t, err)
	admin, err := tm.Issue(adminPrincipal)
	require.NoError(t, err)

	status, _ := doRequest(t, app, http.MethodGet, "/admin/professionals", withCookie(pro.Token))
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doRequest(t, app, http.MethodGet, "/admin/professionals", withCookie(admin.Token))
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, app, http.MethodGet, "/professional/dashboard", withCookie(admin.Token))
	assert.Equal(t, http.StatusForbidden, status)

	bearer := func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+pro.Token) }
	status, body := doRequest(t, app, http.MethodGet, "/professional/dashboard", bearer)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pro-1", body)
}
