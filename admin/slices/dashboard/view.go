package dashboard

import (
	"net/url"

	"github.com/goccy/go-json"

	"github.com/oexza/adminfront/admin/templates"
	globalCommon "github.com/oexza/adminfront/common"
)

const (
	DashboardPath   = "/admin/dashboard"
	OpenCreatePath  = "/admin/dashboard/dialogs/create"
	OpenEditPath    = "/admin/dashboard/dialogs/edit/"
	OpenDeletePath  = "/admin/dashboard/dialogs/delete/"
	CloseDialogPath = "/admin/dashboard/dialogs/close"
	CreateUserPath  = "/admin/dashboard/users/create"
	UpdateUserPath  = "/admin/dashboard/users/update"
	DeleteUserPath  = "/admin/dashboard/users/delete"

	// TabParam carries the tab id on every dashboard action.
	TabParam = "tab"

	UsersID  = "users"
	DialogID = "dialog"
)

const (
	DialogCreate = "create"
	DialogEdit   = "edit"
	DialogDelete = "delete"
)

type UserRow struct {
	globalCommon.User
	EditURL   string
	DeleteURL string
}

type DialogView struct {
	Kind      string
	User      globalCommon.User
	Signals   string
	SubmitURL string
	CloseURL  string
}

type DashboardView struct {
	templates.PageState
	UserEmail  string
	Users      []UserRow
	Dialog     DialogView
	OpenCreate string
}

type createSignals struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type editSignals struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ActionURL appends the tab id to a dashboard action path.
func ActionURL(path, tab string) string {
	return path + "?" + url.Values{TabParam: {tab}}.Encode()
}

func newView(tab string, state State) (DashboardView, error) {
	rows := make([]UserRow, 0, len(state.Users))
	for _, u := range state.Users {
		rows = append(rows, UserRow{
			User:      u,
			EditURL:   ActionURL(OpenEditPath+url.PathEscape(u.ID), tab),
			DeleteURL: ActionURL(OpenDeletePath+url.PathEscape(u.ID), tab),
		})
	}

	dialog, err := newDialogView(tab, state.Dialog)
	if err != nil {
		return DashboardView{}, err
	}

	return DashboardView{
		PageState:  templates.PageState{Message: state.Message},
		UserEmail:  state.UserEmail,
		Users:      rows,
		Dialog:     dialog,
		OpenCreate: ActionURL(OpenCreatePath, tab),
	}, nil
}

func newDialogView(tab string, dialog Dialog) (DialogView, error) {
	view := DialogView{CloseURL: ActionURL(CloseDialogPath, tab)}

	var signals any
	switch d := dialog.(type) {
	case Creating:
		view.Kind = DialogCreate
		view.SubmitURL = ActionURL(CreateUserPath, tab)
		signals = createSignals{}
	case Editing:
		view.Kind = DialogEdit
		view.User = d.User
		view.SubmitURL = ActionURL(UpdateUserPath, tab)
		signals = editSignals{Name: d.User.Name, Email: d.User.Email}
	case ConfirmingDelete:
		view.Kind = DialogDelete
		view.User = d.User
		view.SubmitURL = ActionURL(DeleteUserPath, tab)
	default:
		return DialogView{}, nil
	}

	if signals != nil {
		data, err := json.Marshal(signals)
		if err != nil {
			return DialogView{}, err
		}
		view.Signals = string(data)
	}
	return view, nil
}
