package login

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	common "github.com/oexza/adminfront/admin/slices/common"
	"github.com/oexza/adminfront/admin/templates/domtest"
	"github.com/oexza/adminfront/audit"
	"github.com/oexza/adminfront/backend"
	"github.com/oexza/adminfront/backend/mocks"
	l "github.com/oexza/adminfront/logging"
)

func newHandler(t *testing.T) (*LoginHandler, *mocks.API) {
	api := mocks.NewAPI(t)
	return NewLoginHandler(l.NopLogger(), "Admin Login", api.Login, audit.NopPublisher{}), api
}

func postLogin(handler *LoginHandler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.HandleLogin(rec, req)
	return rec
}

func alertText(t *testing.T, body string) string {
	t.Helper()
	alerts := domtest.FindByAttr(domtest.Parse(t, body), "role")
	require.Len(t, alerts, 1)
	return domtest.Text(alerts[0])
}

func TestHandleLoginPage(t *testing.T) {
	handler, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: common.FlashErrorCookie, Value: "UGxlYXNlIGxvZyBpbg=="})
	rec := httptest.NewRecorder()
	handler.HandleLoginPage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	doc := domtest.Parse(t, rec.Body.String())
	assert.NotNil(t, domtest.FindByID(doc, "login_id"))
	assert.NotNil(t, domtest.FindByID(doc, "password"))
	assert.Equal(t, "Please log in", alertText(t, rec.Body.String()))

	links := domtest.FindAll(doc, "a")
	require.Len(t, links, 1)
	href, _ := domtest.Attr(links[0], "href")
	assert.Equal(t, "/admin/change-password", href)
}

func TestHandleLogin_MissingFields(t *testing.T) {
	handler, api := newHandler(t)

	rec := postLogin(handler, url.Values{"login_id": {"admin"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MissingCredentialsMessage, alertText(t, rec.Body.String()))
	api.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleLogin_Success(t *testing.T) {
	handler, api := newHandler(t)
	api.On("Login", mock.Anything, "admin", "secret").Return(&backend.Response{
		StatusCode: http.StatusFound,
		Location:   "/admin/dashboard",
		Cookies:    []*http.Cookie{{Name: "admin_session", Value: "sess-1", Domain: "backend.internal"}},
	}, nil)

	rec := postLogin(handler, url.Values{"login_id": {"admin"}, "password": {"secret"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, DashboardPath, rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "admin_session", cookies[0].Name)
	assert.Equal(t, "sess-1", cookies[0].Value)
	assert.Empty(t, cookies[0].Domain)
}

func TestHandleLogin_FollowsBackendRedirect(t *testing.T) {
	tests := []struct {
		name     string
		response *backend.Response
		want     string
	}{
		{
			name:     "plain success",
			response: &backend.Response{StatusCode: http.StatusOK},
			want:     DashboardPath,
		},
		{
			name: "bounced to login",
			response: &backend.Response{
				StatusCode: http.StatusFound,
				Location:   "/admin",
				Cookies:    []*http.Cookie{{Name: "flash_error", Value: "SW52YWxpZA=="}},
			},
			want: LoginPagePath,
		},
		{
			name:     "elsewhere",
			response: &backend.Response{StatusCode: http.StatusSeeOther, Location: "/admin/dashboard?welcome=1"},
			want:     "/admin/dashboard?welcome=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, api := newHandler(t)
			api.On("Login", mock.Anything, "admin", "secret").Return(tt.response, nil)

			rec := postLogin(handler, url.Values{"login_id": {"admin"}, "password": {"secret"}})

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
			assert.Len(t, rec.Result().Cookies(), len(tt.response.Cookies))
		})
	}
}

func TestIsLoginPage(t *testing.T) {
	assert.True(t, isLoginPage("/admin"))
	assert.True(t, isLoginPage("/admin/?error=1"))
	assert.True(t, isLoginPage("http://backend.internal/admin"))
	assert.False(t, isLoginPage("/admin/dashboard"))
}

func TestHandleLogin_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "backend message", body: "Account locked\n", want: "Account locked"},
		{name: "default message", body: "", want: InvalidCredentialsMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, api := newHandler(t)
			api.On("Login", mock.Anything, "admin", "wrong").Return(
				&backend.Response{StatusCode: http.StatusUnauthorized, Body: tt.body},
				&backend.StatusError{Op: "Login", StatusCode: http.StatusUnauthorized, Body: tt.body},
			)

			rec := postLogin(handler, url.Values{"login_id": {"admin"}, "password": {"wrong"}})

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.want, alertText(t, rec.Body.String()))
			assert.Empty(t, rec.Result().Cookies())

			loginID := domtest.FindByID(domtest.Parse(t, rec.Body.String()), "login_id")
			value, _ := domtest.Attr(loginID, "value")
			assert.Equal(t, "admin", value)
		})
	}
}

func TestHandleLogin_BackendUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "transport", err: errors.New("connection refused")},
		{name: "server error", err: &backend.StatusError{Op: "Login", StatusCode: http.StatusInternalServerError}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, api := newHandler(t)
			api.On("Login", mock.Anything, "admin", "secret").Return(nil, tt.err)

			rec := postLogin(handler, url.Values{"login_id": {"admin"}, "password": {"secret"}})

			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.Equal(t, LoginUnavailableMessage, alertText(t, rec.Body.String()))
		})
	}
}
