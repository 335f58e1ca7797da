package create_user

import (
	"errors"
	"net/http"
	"strings"

	datastar "github.com/starfederation/datastar-go/datastar"

	admincommon "github.com/oexza/adminfront/admin/slices/common"
	"github.com/oexza/adminfront/admin/slices/dashboard"
	"github.com/oexza/adminfront/audit"
	"github.com/oexza/adminfront/backend"
	globalCommon "github.com/oexza/adminfront/common"
	l "github.com/oexza/adminfront/logging"
)

const FieldsRequiredMessage = "Name, email, login ID and password are required"

var errFieldsRequired = errors.New(FieldsRequiredMessage)

type CreateUserHandler struct {
	logger     l.Logger
	store      *dashboard.Store
	createUser admincommon.CreateUserType
	publisher  audit.Publisher
}

func NewCreateUserHandler(
	logger l.Logger,
	store *dashboard.Store,
	createUser admincommon.CreateUserType,
	publisher audit.Publisher,
) *CreateUserHandler {
	return &CreateUserHandler{
		logger:     logger,
		store:      store,
		createUser: createUser,
		publisher:  publisher,
	}
}

type AddNewUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

func (r *AddNewUserRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.LoginID = strings.TrimSpace(r.LoginID)

	if r.Name == "" || r.Email == "" || r.LoginID == "" || r.Password == "" {
		return errFieldsRequired
	}
	return nil
}

// HandleCreateUser creates a user from the open create dialog. On success the
// whole dashboard is reloaded rather than patched.
func (s *CreateUserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	req := &AddNewUserRequest{}
	if err := datastar.ReadSignals(r, req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tab := r.URL.Query().Get(dashboard.TabParam)
	sse := datastar.NewSSE(w, r)

	if err := req.validate(); err != nil {
		admincommon.Alert(sse, s.logger, err.Error())
		return
	}

	_, err := s.store.BeginSubmit(tab, func(state *dashboard.State) error {
		if _, ok := state.Dialog.(dashboard.Creating); !ok {
			return dashboard.ErrWrongDialog
		}
		return nil
	})
	if err != nil {
		dashboard.AlertError(sse, s.logger, err)
		return
	}

	_, err = s.createUser(r.Context(), admincommon.GetSession(r), globalCommon.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		LoginID:  req.LoginID,
		Password: req.Password,
	})

	state, finishErr := s.store.FinishSubmit(tab, func(state *dashboard.State) {
		if err == nil {
			state.Dialog = dashboard.Closed{}
		}
	})
	if err != nil {
		s.logger.Errorf("Failed to create user %s: %v", req.LoginID, err)
		admincommon.Alert(sse, s.logger, "Failed to create user: "+backend.Describe(err))
		return
	}
	if finishErr != nil {
		s.logger.Debugf("Dashboard tab gone after create: %v", finishErr)
	}

	admincommon.RecordAudit(r.Context(), s.publisher, s.logger, audit.ActionUserCreated, state.UserEmail, req.LoginID)

	if err := sse.Redirect(dashboard.DashboardPath); err != nil {
		s.logger.Errorf("Failed to redirect after create: %v", err)
	}
}
