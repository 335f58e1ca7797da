package common

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/samber/mo"
	datastar "github.com/starfederation/datastar-go/datastar"

	t "github.com/oexza/adminfront/admin/templates"
	"github.com/oexza/adminfront/audit"
	"github.com/oexza/adminfront/backend"
	globalCommon "github.com/oexza/adminfront/common"
	l "github.com/oexza/adminfront/logging"
)

const (
	FlashSuccessCookie = "flash_success"
	FlashErrorCookie   = "flash_error"

	flashMaxAge = 60
)

type LoginType = func(ctx context.Context, loginID, password string) (*backend.Response, error)
type LogoutType = func(ctx context.Context, session string) (*backend.Response, error)
type RequestPasswordResetType = func(ctx context.Context, email string) (*backend.Response, error)
type ResetPasswordType = func(ctx context.Context, token, newPassword, confirmPassword string) (*backend.Response, error)
type DashboardType = func(ctx context.Context, session string) (*backend.DashboardProps, error)
type CreateUserType = func(ctx context.Context, session string, user globalCommon.NewUser) (*backend.Response, error)
type UpdateUserType = func(ctx context.Context, session string, user globalCommon.User) (*backend.Response, error)
type DeleteUserType = func(ctx context.Context, session string, id string) (*backend.Response, error)

// GetSession returns the backend session put on the request by the session
// middleware, or "".
func GetSession(r *http.Request) string {
	session, _ := r.Context().Value(globalCommon.SessionContextKey).(string)
	return session
}

func WithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, globalCommon.SessionContextKey, session)
}

// RelayCookies forwards backend Set-Cookie headers to the browser. The domain
// is dropped so the cookie binds to this host.
func RelayCookies(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, c := range cookies {
		relayed := *c
		relayed.Domain = ""
		if relayed.Path == "" {
			relayed.Path = "/"
		}
		http.SetCookie(w, &relayed)
	}
}

func ClearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func SetFlashSuccess(w http.ResponseWriter, message string) {
	setFlash(w, FlashSuccessCookie, message)
}

func SetFlashError(w http.ResponseWriter, message string) {
	setFlash(w, FlashErrorCookie, message)
}

func setFlash(w http.ResponseWriter, name, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    base64.URLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash reads both flash cookies and clears the ones it found.
func PopFlash(w http.ResponseWriter, r *http.Request) t.Flash {
	return t.Flash{
		Success: popFlash(w, r, FlashSuccessCookie).OrElse(""),
		Error:   popFlash(w, r, FlashErrorCookie).OrElse(""),
	}
}

func popFlash(w http.ResponseWriter, r *http.Request, name string) mo.Option[string] {
	c, err := r.Cookie(name)
	if err != nil {
		return mo.None[string]()
	}
	ClearCookie(w, name)

	decoded, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil || len(decoded) == 0 {
		return mo.None[string]()
	}
	return mo.Some(string(decoded))
}

// RenderPage writes c as a full HTML response with status.
func RenderPage(w http.ResponseWriter, r *http.Request, logger l.Logger, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logger.Errorf("Template execution error: %v", err)
	}
}

// MessageOr returns the trimmed backend body when it reads as a plain
// message, otherwise fallback.
func MessageOr(body, fallback string) string {
	message := strings.TrimSpace(body)
	if message == "" || strings.HasPrefix(message, "<") {
		return fallback
	}
	return message
}

func IsDatastarRequest(r *http.Request) bool {
	return r.Header.Get("datastar-request") == "true"
}

// Alert shows message in a browser alert and mirrors it to the console and the
// server log.
func Alert(sse *datastar.ServerSentEventGenerator, logger l.Logger, message string) {
	logger.Warnf("dashboard alert: %s", message)

	quoted, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("failed to encode alert: %v", err)
		return
	}
	script := "alert(" + string(quoted) + ");console.error(" + string(quoted) + ");"
	if err := sse.ExecuteScript(script); err != nil {
		logger.Errorf("failed to send alert: %v", err)
	}
}

// RecordAudit publishes a successful action tagged with the request id.
func RecordAudit(ctx context.Context, publisher audit.Publisher, logger l.Logger, action, actor, userID string) {
	audit.Record(ctx, publisher, logger, audit.Event{
		Action:    action,
		Actor:     actor,
		UserID:    userID,
		RequestID: middleware.GetReqID(ctx),
	})
}
