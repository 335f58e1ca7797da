package delete_user

import (
	"net/http"

	datastar "github.com/starfederation/datastar-go/datastar"

	admin_common "github.com/oexza/adminfront/admin/slices/common"
	"github.com/oexza/adminfront/admin/slices/dashboard"
	"github.com/oexza/adminfront/audit"
	"github.com/oexza/adminfront/backend"
	globalCommon "github.com/oexza/adminfront/common"
	l "github.com/oexza/adminfront/logging"
)

type DeleteUserHandler struct {
	logger     l.Logger
	store      *dashboard.Store
	deleteUser admin_common.DeleteUserType
	publisher  audit.Publisher
}

func NewDeleteUserHandler(
	logger l.Logger,
	store *dashboard.Store,
	deleteUser admin_common.DeleteUserType,
	publisher audit.Publisher,
) *DeleteUserHandler {
	return &DeleteUserHandler{
		logger:     logger,
		store:      store,
		deleteUser: deleteUser,
		publisher:  publisher,
	}
}

// HandleUserDelete deletes the user named by the open confirmation dialog.
// The list only changes once the backend has accepted the delete.
func (dUH *DeleteUserHandler) HandleUserDelete(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get(dashboard.TabParam)
	sse := datastar.NewSSE(w, r)

	var target globalCommon.User
	_, err := dUH.store.BeginSubmit(tab, func(state *dashboard.State) error {
		confirming, ok := state.Dialog.(dashboard.ConfirmingDelete)
		if !ok {
			return dashboard.ErrWrongDialog
		}
		target = confirming.User
		return nil
	})
	if err != nil {
		dashboard.AlertError(sse, dUH.logger, err)
		return
	}

	dUH.logger.Infof("Deleting user: %s", target.ID)
	_, err = dUH.deleteUser(r.Context(), admin_common.GetSession(r), target.ID)

	state, finishErr := dUH.store.FinishSubmit(tab, func(state *dashboard.State) {
		if err == nil {
			state.RemoveUser(target.ID)
			state.Dialog = dashboard.Closed{}
		}
	})
	if err != nil {
		dUH.logger.Errorf("Failed to delete user %s: %v", target.ID, err)
		admin_common.Alert(sse, dUH.logger, "Failed to delete user: "+backend.Describe(err))
		return
	}
	if finishErr != nil {
		dashboard.AlertError(sse, dUH.logger, finishErr)
		return
	}

	admin_common.RecordAudit(r.Context(), dUH.publisher, dUH.logger, audit.ActionUserDeleted, state.UserEmail, target.ID)

	if err := dashboard.PatchDashboard(sse, tab, state); err != nil {
		dUH.logger.Errorf("Failed to patch dashboard: %v", err)
	}
}
