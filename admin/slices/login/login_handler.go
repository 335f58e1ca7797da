package login

import (
	"embed"
	"errors"
	"net/http"
	"net/url"
	"strings"

	common "github.com/oexza/adminfront/admin/slices/common"
	"github.com/oexza/adminfront/admin/templates"
	"github.com/oexza/adminfront/audit"
	"github.com/oexza/adminfront/backend"
	l "github.com/oexza/adminfront/logging"
)

const (
	MissingCredentialsMessage = "Login ID and password are required"
	InvalidCredentialsMessage = "Invalid login ID or password"
	LoginUnavailableMessage   = "Login failed, please try again later"

	DashboardPath = "/admin/dashboard"
	LoginPagePath = "/admin"
)

//go:embed login.html
var pageFS embed.FS

var loginPage = templates.MustParse(pageFS, "login.html")

type LoginPage struct {
	templates.PageState
	LoginID string
}

type LoginHandler struct {
	logger    l.Logger
	message   string
	login     common.LoginType
	publisher audit.Publisher
}

func NewLoginHandler(
	logger l.Logger,
	message string,
	login common.LoginType,
	publisher audit.Publisher,
) *LoginHandler {
	return &LoginHandler{
		logger:    logger,
		message:   message,
		login:     login,
		publisher: publisher,
	}
}

func (s *LoginHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, LoginPage{
		PageState: templates.PageState{Flash: common.PopFlash(w, r)},
	})
}

func (s *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.Debugf("Failed to parse login form: %v", err)
	}
	loginID := strings.TrimSpace(r.PostFormValue("login_id"))
	password := r.PostFormValue("password")

	if loginID == "" || password == "" {
		s.renderError(w, r, http.StatusBadRequest, loginID, MissingCredentialsMessage)
		return
	}

	resp, err := s.login(r.Context(), loginID, password)
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
			s.renderError(w, r, http.StatusUnauthorized, loginID, common.MessageOr(statusErr.Body, InvalidCredentialsMessage))
			return
		}

		s.logger.Errorf("Login for %s failed: %v", loginID, err)
		s.renderError(w, r, http.StatusBadGateway, loginID, LoginUnavailableMessage)
		return
	}

	common.RelayCookies(w, resp.Cookies)

	// The backend decides where a login lands; a redirect back to the login
	// page is how it reports a rejected login.
	location := DashboardPath
	if resp.Redirected() {
		location = resp.Location
	}
	if isLoginPage(location) {
		s.logger.Debugf("Backend sent login for %s back to the login page", loginID)
	} else {
		common.RecordAudit(r.Context(), s.publisher, s.logger, audit.ActionLogin, loginID, "")
	}

	http.Redirect(w, r, location, http.StatusSeeOther)
}

func isLoginPage(location string) bool {
	u, err := url.Parse(location)
	return err == nil && strings.TrimSuffix(u.Path, "/") == LoginPagePath
}

func (s *LoginHandler) renderError(w http.ResponseWriter, r *http.Request, status int, loginID, message string) {
	s.render(w, r, status, LoginPage{
		PageState: templates.PageState{Flash: templates.Flash{Error: message}},
		LoginID:   loginID,
	})
}

func (s *LoginHandler) render(w http.ResponseWriter, r *http.Request, status int, page LoginPage) {
	page.Message = s.message
	common.RenderPage(w, r, s.logger, status, templates.Page(loginPage, page))
}
