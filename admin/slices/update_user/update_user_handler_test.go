package update_user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	admincommon "github.com/oexza/adminfront/admin/slices/common"
	"github.com/oexza/adminfront/admin/slices/dashboard"
	"github.com/oexza/adminfront/admin/templates/domtest"
	"github.com/oexza/adminfront/audit"
	"github.com/oexza/adminfront/backend"
	"github.com/oexza/adminfront/backend/mocks"
	globalCommon "github.com/oexza/adminfront/common"
	l "github.com/oexza/adminfront/logging"
)

var (
	alice = globalCommon.User{ID: "1", Name: "Alice", Email: "alice@example.com"}
	bob   = globalCommon.User{ID: "2", Name: "Bob", Email: "bob@example.com"}
)

type recordingPublisher struct {
	events []audit.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event audit.Event) error {
	p.events = append(p.events, event)
	return nil
}

func setup(t *testing.T, dialog dashboard.Dialog) (*UpdateUserHandler, *mocks.API, *dashboard.Store, *recordingPublisher, string) {
	api := mocks.NewAPI(t)
	store := dashboard.NewStore(time.Minute)
	tab, err := store.Put(dashboard.State{
		UserEmail: "admin@example.com",
		Users:     []globalCommon.User{alice, bob},
	})
	require.NoError(t, err)

	_, err = store.Update(tab, func(state *dashboard.State) error {
		state.Dialog = dialog
		return nil
	})
	require.NoError(t, err)

	publisher := &recordingPublisher{}
	return NewUpdateUserHandler(l.NopLogger(), store, api.UpdateUser, publisher), api, store, publisher, tab
}

func postUpdate(handler *UpdateUserHandler, tab, signals string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, dashboard.ActionURL(dashboard.UpdateUserPath, tab), strings.NewReader(signals))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("datastar-request", "true")
	req = req.WithContext(admincommon.WithSession(req.Context(), "sess-1"))
	rec := httptest.NewRecorder()
	handler.HandleUpdateUser(rec, req)
	return rec
}

func TestHandleUpdateUser_SuccessPatchesList(t *testing.T) {
	handler, api, store, publisher, tab := setup(t, dashboard.Editing{User: bob})
	updated := globalCommon.User{ID: "2", Name: "Robert", Email: "robert@example.com"}
	api.On("UpdateUser", mock.Anything, "sess-1", updated).Return(&backend.Response{StatusCode: http.StatusOK}, nil)

	rec := postUpdate(handler, tab, `{"name":"Robert","email":"robert@example.com"}`)

	state, err := store.Get(tab)
	require.NoError(t, err)
	assert.Equal(t, []globalCommon.User{alice, updated}, state.Users)
	assert.Equal(t, dashboard.Closed{}, state.Dialog)
	assert.False(t, state.Submitting)

	doc := domtest.ParseSSE(t, rec.Body.String())
	rows := domtest.FindAll(domtest.FindAll(doc, "tbody")[0], "tr")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2", "Robert", "robert@example.com"}, domtest.Texts(domtest.FindAll(rows[1], "td"))[:3])
	assert.Empty(t, domtest.Text(domtest.FindByID(doc, dashboard.DialogID)))

	require.Len(t, publisher.events, 1)
	assert.Equal(t, audit.ActionUserUpdated, publisher.events[0].Action)
	assert.Equal(t, "admin@example.com", publisher.events[0].Actor)
	assert.Equal(t, "2", publisher.events[0].UserID)
}

func TestHandleUpdateUser_FailureLeavesListUnchanged(t *testing.T) {
	handler, api, store, publisher, tab := setup(t, dashboard.Editing{User: bob})
	api.On("UpdateUser", mock.Anything, "sess-1", mock.Anything).Return(
		&backend.Response{StatusCode: http.StatusConflict, Body: "email already taken"},
		&backend.StatusError{StatusCode: http.StatusConflict, Body: "email already taken"},
	)

	rec := postUpdate(handler, tab, `{"name":"Robert","email":"alice@example.com"}`)

	assert.Contains(t, rec.Body.String(), `alert("Failed to update user: 409 email already taken")`)

	state, err := store.Get(tab)
	require.NoError(t, err)
	assert.Equal(t, []globalCommon.User{alice, bob}, state.Users)
	assert.Equal(t, dashboard.Editing{User: bob}, state.Dialog)
	assert.False(t, state.Submitting)
	assert.Empty(t, publisher.events)
}

func TestHandleUpdateUser_MissingFields(t *testing.T) {
	handler, api, _, _, tab := setup(t, dashboard.Editing{User: bob})

	rec := postUpdate(handler, tab, `{"name":"  ","email":"bob@example.com"}`)

	assert.Contains(t, rec.Body.String(), `alert("Name and email are required")`)
	api.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleUpdateUser_RequiresEditDialog(t *testing.T) {
	handler, api, _, _, tab := setup(t, dashboard.ConfirmingDelete{User: bob})

	rec := postUpdate(handler, tab, `{"name":"Robert","email":"robert@example.com"}`)

	assert.Contains(t, rec.Body.String(), dashboard.DialogClosedMessage)
	api.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleUpdateUser_RejectedWhileSubmitting(t *testing.T) {
	handler, api, store, _, tab := setup(t, dashboard.Editing{User: bob})
	_, err := store.BeginSubmit(tab, func(*dashboard.State) error { return nil })
	require.NoError(t, err)

	rec := postUpdate(handler, tab, `{"name":"Robert","email":"robert@example.com"}`)

	assert.Contains(t, rec.Body.String(), `alert("Another request is in progress")`)
	api.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}
