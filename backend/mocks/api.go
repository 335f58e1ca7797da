package mocks

import (
	context "context"

	backend "github.com/oexza/adminfront/backend"
	common "github.com/oexza/adminfront/common"
	mock "github.com/stretchr/testify/mock"
)

// API is a mock type for the API type
type API struct {
	mock.Mock
}

func (_m *API) response(ret mock.Arguments) (*backend.Response, error) {
	var r0 *backend.Response
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*backend.Response)
	}
	return r0, ret.Error(1)
}

// Login provides a mock function with given fields: ctx, loginID, password
func (_m *API) Login(ctx context.Context, loginID string, password string) (*backend.Response, error) {
	return _m.response(_m.Called(ctx, loginID, password))
}

// Logout provides a mock function with given fields: ctx, session
func (_m *API) Logout(ctx context.Context, session string) (*backend.Response, error) {
	return _m.response(_m.Called(ctx, session))
}

// RequestPasswordReset provides a mock function with given fields: ctx, email
func (_m *API) RequestPasswordReset(ctx context.Context, email string) (*backend.Response, error) {
	return _m.response(_m.Called(ctx, email))
}

// ResetPassword provides a mock function with given fields: ctx, token, newPassword, confirmPassword
func (_m *API) ResetPassword(ctx context.Context, token string, newPassword string, confirmPassword string) (*backend.Response, error) {
	return _m.response(_m.Called(ctx, token, newPassword, confirmPassword))
}

// Dashboard provides a mock function with given fields: ctx, session
func (_m *API) Dashboard(ctx context.Context, session string) (*backend.DashboardProps, error) {
	ret := _m.Called(ctx, session)

	var r0 *backend.DashboardProps
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*backend.DashboardProps)
	}
	return r0, ret.Error(1)
}

// CreateUser provides a mock function with given fields: ctx, session, user
func (_m *API) CreateUser(ctx context.Context, session string, user common.NewUser) (*backend.Response, error) {
	return _m.response(_m.Called(ctx, session, user))
}

// UpdateUser provides a mock function with given fields: ctx, session, user
func (_m *API) UpdateUser(ctx context.Context, session string, user common.User) (*backend.Response, error) {
	return _m.response(_m.Called(ctx, session, user))
}

// DeleteUser provides a mock function with given fields: ctx, session, id
func (_m *API) DeleteUser(ctx context.Context, session string, id string) (*backend.Response, error) {
	return _m.response(_m.Called(ctx, session, id))
}

var _ backend.API = (*API)(nil)

// NewAPI creates a new instance of API. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewAPI(t interface {
	mock.TestingT
	Cleanup(func())
}) *API {
	m := &API{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
