package dashboard

import (
	"embed"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	datastar "github.com/starfederation/datastar-go/datastar"

	common "github.com/oexza/adminfront/admin/slices/common"
	"github.com/oexza/adminfront/admin/templates"
	"github.com/oexza/adminfront/backend"
	l "github.com/oexza/adminfront/logging"
)

const (
	ExpiredMessage        = "This page has expired, please reload"
	BusyMessage           = "Another request is in progress"
	UserNotFoundMessage   = "User not found"
	DialogClosedMessage   = "This dialog is no longer open, please try again"
	SessionExpiredMessage = "Your session has expired, please log in again"
	UnavailableMessage    = "The dashboard is unavailable right now"

	UnknownUserEmail = "Unknown"
	LoginPath        = "/admin"
)

//go:embed dashboard.html dashboard_error.html
var pageFS embed.FS

var (
	dashboardPage = templates.MustParse(pageFS, "dashboard.html")
	errorPage     = templates.MustParse(pageFS, "dashboard_error.html")
)

type DashboardHandler struct {
	logger        l.Logger
	message       string
	sessionCookie string
	dashboard     common.DashboardType
	store         *Store
}

func NewDashboardHandler(
	logger l.Logger,
	message string,
	sessionCookie string,
	dashboard common.DashboardType,
	store *Store,
) *DashboardHandler {
	return &DashboardHandler{
		logger:        logger,
		message:       message,
		sessionCookie: sessionCookie,
		dashboard:     dashboard,
		store:         store,
	}
}

// HandleDashboardPage loads the user list and starts a new tab. Whatever the
// previous page load held is left to the sweeper.
func (dh *DashboardHandler) HandleDashboardPage(w http.ResponseWriter, r *http.Request) {
	props, err := dh.dashboard(r.Context(), common.GetSession(r))
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			dh.logger.Infof("Dashboard session rejected by backend: %v", err)
			common.ClearCookie(w, dh.sessionCookie)
			common.SetFlashError(w, SessionExpiredMessage)
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		dh.logger.Errorf("Failed to load dashboard: %v", err)
		common.RenderPage(w, r, dh.logger, http.StatusBadGateway, templates.Page(errorPage, templates.PageState{
			Message: UnavailableMessage,
			Flash:   templates.Flash{Error: "Failed to load users: " + backend.Describe(err)},
		}))
		return
	}

	state := State{
		Message:   props.Message,
		UserEmail: props.UserEmail,
		Users:     props.Users,
		Dialog:    Closed{},
	}
	if state.Message == "" {
		state.Message = dh.message
	}
	if state.UserEmail == "" {
		state.UserEmail = UnknownUserEmail
	}

	tab, err := dh.store.Put(state)
	if err != nil {
		dh.logger.Errorf("Failed to start dashboard tab: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	view, err := newView(tab, state)
	if err != nil {
		dh.logger.Errorf("Failed to build dashboard view: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	view.Flash = common.PopFlash(w, r)

	common.RenderPage(w, r, dh.logger, http.StatusOK, templates.Page(dashboardPage, view))
}

func (dh *DashboardHandler) HandleOpenCreate(w http.ResponseWriter, r *http.Request) {
	dh.switchDialog(w, r, func(state *State) error {
		state.Dialog = Creating{}
		return nil
	})
}

func (dh *DashboardHandler) HandleOpenEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dh.switchDialog(w, r, func(state *State) error {
		user, ok := state.FindUser(id)
		if !ok {
			return ErrUserNotFound
		}
		state.Dialog = Editing{User: user}
		return nil
	})
}

func (dh *DashboardHandler) HandleOpenDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dh.switchDialog(w, r, func(state *State) error {
		user, ok := state.FindUser(id)
		if !ok {
			return ErrUserNotFound
		}
		state.Dialog = ConfirmingDelete{User: user}
		return nil
	})
}

func (dh *DashboardHandler) HandleCloseDialog(w http.ResponseWriter, r *http.Request) {
	dh.switchDialog(w, r, func(state *State) error {
		state.Dialog = Closed{}
		return nil
	})
}

// switchDialog applies a dialog transition and re-renders the dialog. While a
// mutation is in flight the dialog stays as it is.
func (dh *DashboardHandler) switchDialog(w http.ResponseWriter, r *http.Request, transition func(*State) error) {
	tab := r.URL.Query().Get(TabParam)
	sse := datastar.NewSSE(w, r)

	state, err := dh.store.Update(tab, func(state *State) error {
		if state.Submitting {
			return nil
		}
		return transition(state)
	})
	if err != nil {
		AlertError(sse, dh.logger, err)
		return
	}

	if err := PatchDialog(sse, tab, state); err != nil {
		dh.logger.Errorf("Failed to patch dialog: %v", err)
	}
}

// AlertError reports a store or backend failure to the browser.
func AlertError(sse *datastar.ServerSentEventGenerator, logger l.Logger, err error) {
	var message string
	switch {
	case errors.Is(err, ErrUnknownTab):
		message = ExpiredMessage
	case errors.Is(err, ErrBusy):
		message = BusyMessage
	case errors.Is(err, ErrUserNotFound):
		message = UserNotFoundMessage
	case errors.Is(err, ErrWrongDialog):
		message = DialogClosedMessage
	default:
		message = backend.Describe(err)
	}
	common.Alert(sse, logger, message)
}

func PatchDialog(sse *datastar.ServerSentEventGenerator, tab string, state State) error {
	view, err := newView(tab, state)
	if err != nil {
		return err
	}
	return sse.PatchElementTempl(templates.Component(dashboardPage, DialogID, view), datastar.WithSelectorID(DialogID))
}

// PatchDashboard re-renders the user list and the dialog.
func PatchDashboard(sse *datastar.ServerSentEventGenerator, tab string, state State) error {
	view, err := newView(tab, state)
	if err != nil {
		return err
	}
	if err := sse.PatchElementTempl(templates.Component(dashboardPage, UsersID, view), datastar.WithSelectorID(UsersID)); err != nil {
		return err
	}
	return sse.PatchElementTempl(templates.Component(dashboardPage, DialogID, view), datastar.WithSelectorID(DialogID))
}
