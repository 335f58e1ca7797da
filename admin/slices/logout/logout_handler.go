package logout

import (
	"embed"
	"net/http"

	common "github.com/oexza/adminfront/admin/slices/common"
	"github.com/oexza/adminfront/admin/templates"
	"github.com/oexza/adminfront/audit"
	l "github.com/oexza/adminfront/logging"
)

const (
	PageMessage        = "Logout Complete"
	LoggedOutMessage   = "Logged out successfully"
	LogoutCompletePath = "/admin/logout-complete"
)

//go:embed logout_complete.html
var pageFS embed.FS

var logoutCompletePage = templates.MustParse(pageFS, "logout_complete.html")

type LogoutCompletePage struct {
	templates.PageState
}

type LogoutHandler struct {
	logger        l.Logger
	sessionCookie string
	logout        common.LogoutType
	publisher     audit.Publisher
}

func NewLogoutHandler(
	logger l.Logger,
	sessionCookie string,
	logout common.LogoutType,
	publisher audit.Publisher,
) *LogoutHandler {
	return &LogoutHandler{
		logger:        logger,
		sessionCookie: sessionCookie,
		logout:        logout,
		publisher:     publisher,
	}
}

// HandleLogout ends the backend session and always clears the local cookie,
// even when the backend call fails.
func (s *LogoutHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	location := LogoutCompletePath

	if session := common.GetSession(r); session != "" {
		resp, err := s.logout(r.Context(), session)
		switch {
		case err != nil:
			s.logger.Warnf("Backend logout failed: %v", err)
		case resp.Redirected():
			location = resp.Location
		}
	}

	common.ClearCookie(w, s.sessionCookie)
	common.RecordAudit(r.Context(), s.publisher, s.logger, audit.ActionLogout, "", "")

	if location == LogoutCompletePath {
		common.SetFlashSuccess(w, LoggedOutMessage)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (s *LogoutHandler) HandleLogoutComplete(w http.ResponseWriter, r *http.Request) {
	flash := common.PopFlash(w, r)
	if flash.Success == "" {
		flash.Success = LoggedOutMessage
	}

	common.RenderPage(w, r, s.logger, http.StatusOK, templates.Page(logoutCompletePage, LogoutCompletePage{
		PageState: templates.PageState{Message: PageMessage, Flash: flash},
	}))
}
