package resetpassword

import (
	"embed"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/goccy/go-json"

	admin_common "github.com/oexza/adminfront/admin/slices/common"
	"github.com/oexza/adminfront/admin/templates"
	"github.com/oexza/adminfront/audit"
	"github.com/oexza/adminfront/backend"
	l "github.com/oexza/adminfront/logging"
)

const (
	PageMessage       = "Password Reset"
	MinPasswordLength = 6

	PasswordTooShortMessage = "New password must be at least 6 characters"
	PasswordMismatchMessage = "New passwords do not match"
	PasswordResetMessage    = "Password has been reset. Please log in."

	LoginPath = "/admin"
)

var (
	ErrPasswordTooShort = errors.New(PasswordTooShortMessage)
	ErrPasswordMismatch = errors.New(PasswordMismatchMessage)
)

//go:embed reset_password.html
var pageFS embed.FS

var resetPasswordPage = templates.MustParse(pageFS, "reset_password.html")

type ResetPasswordPage struct {
	templates.PageState
	Token           string
	Error           string
	Signals         string
	MinLength       int
	TooShortMessage string
	MismatchMessage string
}

type formSignals struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
	Error           string `json:"error"`
	Submitting      bool   `json:"submitting"`
}

type ResetPasswordHandler struct {
	logger        l.Logger
	resetPassword admin_common.ResetPasswordType
	publisher     audit.Publisher
}

func NewResetPasswordHandler(
	logger l.Logger,
	resetPassword admin_common.ResetPasswordType,
	publisher audit.Publisher,
) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		logger:        logger,
		resetPassword: resetPassword,
		publisher:     publisher,
	}
}

type ResetPasswordRequest struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// validate applies the same checks, in the same order, as the form does in
// the browser.
func (r *ResetPasswordRequest) validate() error {
	if utf8.RuneCountInString(r.NewPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if r.NewPassword != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

func (s *ResetPasswordHandler) HandleResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, r.URL.Query().Get("token"), "")
}

func (s *ResetPasswordHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.Debugf("Failed to parse reset form: %v", err)
	}
	req := ResetPasswordRequest{
		Token:           r.PostFormValue("token"),
		NewPassword:     r.PostFormValue("new_password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}

	if err := req.validate(); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, req.Token, err.Error())
		return
	}

	resp, err := s.resetPassword(r.Context(), req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		s.logger.Errorf("Password reset failed: %v", err)

		status := http.StatusBadGateway
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) {
			status = statusErr.StatusCode
		}
		s.render(w, r, status, req.Token, "Failed to reset password: "+backend.Describe(err))
		return
	}

	admin_common.RelayCookies(w, resp.Cookies)
	admin_common.RecordAudit(r.Context(), s.publisher, s.logger, audit.ActionPasswordReset, "", "")

	location := LoginPath
	if resp.Redirected() {
		location = resp.Location
	}
	if location == LoginPath {
		admin_common.SetFlashSuccess(w, PasswordResetMessage)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (s *ResetPasswordHandler) render(w http.ResponseWriter, r *http.Request, status int, token, message string) {
	signals, err := json.Marshal(formSignals{Error: message})
	if err != nil {
		s.logger.Errorf("Failed to encode reset form signals: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	admin_common.RenderPage(w, r, s.logger, status, templates.Page(resetPasswordPage, ResetPasswordPage{
		PageState:       templates.PageState{Message: PageMessage},
		Token:           token,
		Error:           message,
		Signals:         string(signals),
		MinLength:       MinPasswordLength,
		TooShortMessage: PasswordTooShortMessage,
		MismatchMessage: PasswordMismatchMessage,
	}))
}
