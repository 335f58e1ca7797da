package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	datastar "github.com/starfederation/datastar-go/datastar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oexza/adminfront/admin/templates"
	"github.com/oexza/adminfront/audit"
	l "github.com/oexza/adminfront/logging"
)

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestFlash_RoundTrip(t *testing.T) {
	set := httptest.NewRecorder()
	SetFlashSuccess(set, "Logged out successfully")
	SetFlashError(set, "Please log in")

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range set.Result().Cookies() {
		assert.Equal(t, 60, c.MaxAge)
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	flash := PopFlash(rec, req)
	assert.Equal(t, templates.Flash{Success: "Logged out successfully", Error: "Please log in"}, flash)

	for _, name := range []string{FlashSuccessCookie, FlashErrorCookie} {
		cleared := cookieByName(rec.Result().Cookies(), name)
		require.NotNil(t, cleared, name)
		assert.Less(t, cleared.MaxAge, 0)
	}
}

func TestFlash_Absent(t *testing.T) {
	rec := httptest.NewRecorder()
	flash := PopFlash(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.True(t, flash.Empty())
	assert.Empty(t, rec.Result().Cookies())
}

func TestFlash_GarbledCookieIsIgnored(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: FlashErrorCookie, Value: "%%%"})

	rec := httptest.NewRecorder()
	flash := PopFlash(rec, req)

	assert.True(t, flash.Empty())
	assert.NotNil(t, cookieByName(rec.Result().Cookies(), FlashErrorCookie))
}

func TestRelayCookies_DropsDomain(t *testing.T) {
	rec := httptest.NewRecorder()
	RelayCookies(rec, []*http.Cookie{
		{Name: "admin_session", Value: "abc", Domain: "backend.internal", HttpOnly: true},
	})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.Empty(t, cookies[0].Domain)
	assert.Equal(t, "/", cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
}

func TestGetSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	assert.Empty(t, GetSession(req))

	req = req.WithContext(WithSession(req.Context(), "sess-1"))
	assert.Equal(t, "sess-1", GetSession(req))
}

func TestAlert(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/dashboard/users/delete", nil)

	sse := datastar.NewSSE(rec, req)
	Alert(sse, l.NopLogger(), `Failed to delete user: 500 "boom"`)

	body := rec.Body.String()
	assert.Contains(t, body, "datastar-patch-elements")
	assert.Contains(t, body, `alert("Failed to delete user: 500 \"boom\"")`)
	assert.Contains(t, body, `console.error("Failed to delete user: 500 \"boom\"")`)
}

type recordingPublisher struct {
	events []audit.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event audit.Event) error {
	p.events = append(p.events, event)
	return nil
}

func TestRecordAudit_CarriesRequestID(t *testing.T) {
	publisher := &recordingPublisher{}
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-7")

	RecordAudit(ctx, publisher, l.NopLogger(), audit.ActionUserDeleted, "admin@example.com", "42")

	require.Len(t, publisher.events, 1)
	assert.Equal(t, audit.Event{
		Action:    audit.ActionUserDeleted,
		Actor:     "admin@example.com",
		UserID:    "42",
		RequestID: "req-7",
	}, publisher.events[0])
}

func TestMessageOr(t *testing.T) {
	assert.Equal(t, "Account locked", MessageOr("  Account locked\n", "fallback"))
	assert.Equal(t, "fallback", MessageOr("", "fallback"))
	assert.Equal(t, "fallback", MessageOr("<html><body>ok</body></html>", "fallback"))
}
