package update_user

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

const FieldsRequiredMessage = "Name and email are required"

var errFieldsRequired = errors.New(FieldsRequiredMessage)

type UpdateUserHandler struct {
	logger     l.Logger
	store      *dashboard.Store
	updateUser admincommon.UpdateUserType
	publisher  audit.Publisher
}

func NewUpdateUserHandler(
	logger l.Logger,
	store *dashboard.Store,
	updateUser admincommon.UpdateUserType,
	publisher audit.Publisher,
) *UpdateUserHandler {
	return &UpdateUserHandler{
		logger:     logger,
		store:      store,
		updateUser: updateUser,
		publisher:  publisher,
	}
}

type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r *UpdateUserRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)

	if r.Name == "" || r.Email == "" {
		return errFieldsRequired
	}
	return nil
}

// HandleUpdateUser saves the edit dialog. The id always comes from the user
// the dialog was opened for.
func (s *UpdateUserHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	req := &UpdateUserRequest{}
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

	var updated globalCommon.User
	_, err := s.store.BeginSubmit(tab, func(state *dashboard.State) error {
		editing, ok := state.Dialog.(dashboard.Editing)
		if !ok {
			return dashboard.ErrWrongDialog
		}
		updated = globalCommon.User{ID: editing.User.ID, Name: req.Name, Email: req.Email}
		return nil
	})
	if err != nil {
		dashboard.AlertError(sse, s.logger, err)
		return
	}

	_, err = s.updateUser(r.Context(), admincommon.GetSession(r), updated)

	state, finishErr := s.store.FinishSubmit(tab, func(state *dashboard.State) {
		if err == nil {
			state.ReplaceUser(updated)
			state.Dialog = dashboard.Closed{}
		}
	})
	if err != nil {
		s.logger.Errorf("Failed to update user %s: %v", updated.ID, err)
		admincommon.Alert(sse, s.logger, "Failed to update user: "+backend.Describe(err))
		return
	}
	if finishErr != nil {
		dashboard.AlertError(sse, s.logger, finishErr)
		return
	}

	admincommon.RecordAudit(r.Context(), s.publisher, s.logger, audit.ActionUserUpdated, state.UserEmail, updated.ID)

	if err := dashboard.PatchDashboard(sse, tab, state); err != nil {
		s.logger.Errorf("Failed to patch dashboard: %v", err)
	}
}
