package changepassword

import (
	"embed"
	"errors"
	"net/http"
	"strings"

	admin_common "github.com/oexza/adminfront/admin/slices/common"
	"github.com/oexza/adminfront/admin/templates"
	"github.com/oexza/adminfront/audit"
	"github.com/oexza/adminfront/backend"
	l "github.com/oexza/adminfront/logging"
)

const (
	PageMessage          = "Password Reset"
	EmailRequiredMessage = "Email is required"
	ResetEmailSent       = "Password reset email sent. Please check your inbox."
)

//go:embed change_password.html
var pageFS embed.FS

var changePasswordPage = templates.MustParse(pageFS, "change_password.html")

type ChangePasswordPage struct {
	templates.PageState
	Email string
}

type ChangePasswordHandler struct {
	logger               l.Logger
	requestPasswordReset admin_common.RequestPasswordResetType
	publisher            audit.Publisher
}

func NewChangePasswordHandler(
	logger l.Logger,
	requestPasswordReset admin_common.RequestPasswordResetType,
	publisher audit.Publisher,
) *ChangePasswordHandler {
	return &ChangePasswordHandler{
		logger:               logger,
		requestPasswordReset: requestPasswordReset,
		publisher:            publisher,
	}
}

type ResetRequest struct {
	Email string
}

func (r *ResetRequest) validate() error {
	if r.Email == "" {
		return errors.New(EmailRequiredMessage)
	}
	return nil
}

func (s *ChangePasswordHandler) HandleChangePasswordPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, ChangePasswordPage{
		PageState: templates.PageState{Flash: admin_common.PopFlash(w, r)},
	})
}

func (s *ChangePasswordHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.Debugf("Failed to parse reset request form: %v", err)
	}
	req := ResetRequest{Email: strings.TrimSpace(r.PostFormValue("email"))}

	if err := req.validate(); err != nil {
		s.render(w, r, http.StatusBadRequest, ChangePasswordPage{
			PageState: templates.PageState{Flash: templates.Flash{Error: err.Error()}},
		})
		return
	}

	resp, err := s.requestPasswordReset(r.Context(), req.Email)
	if err != nil {
		s.logger.Errorf("Password reset request for %s failed: %v", req.Email, err)

		status := http.StatusBadGateway
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) {
			status = statusErr.StatusCode
		}
		s.render(w, r, status, ChangePasswordPage{
			PageState: templates.PageState{Flash: templates.Flash{Error: "Failed to send reset email: " + backend.Describe(err)}},
			Email:     req.Email,
		})
		return
	}

	admin_common.RecordAudit(r.Context(), s.publisher, s.logger, audit.ActionPasswordResetRequested, req.Email, "")

	s.render(w, r, http.StatusOK, ChangePasswordPage{
		PageState: templates.PageState{Flash: templates.Flash{Success: admin_common.MessageOr(resp.Body, ResetEmailSent)}},
	})
}

func (s *ChangePasswordHandler) render(w http.ResponseWriter, r *http.Request, status int, page ChangePasswordPage) {
	page.Message = PageMessage
	admin_common.RenderPage(w, r, s.logger, status, templates.Page(changePasswordPage, page))
}
