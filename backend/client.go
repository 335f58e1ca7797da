package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/oexza/adminfront/common"
	l "github.com/oexza/adminfront/logging"
)

const (
	LoginPath                = "/admin"
	LogoutPath               = "/admin/logout"
	RequestPasswordResetPath = "/admin/change-password/submit"
	ResetPasswordPath        = "/admin/reset-password"
	DashboardUsersPath       = "/admin/dashboard/users"
	CreateUserPath           = "/admin/dashboard/users/create"
	UpdateUserPath           = "/admin/dashboard/users/update"
	DeleteUserPath           = "/admin/dashboard/users/delete"
)

const maxBodySize = 1 << 20

// API is the set of backend calls the admin frontend relies on.
type API interface {
	Login(ctx context.Context, loginID, password string) (*Response, error)
	Logout(ctx context.Context, session string) (*Response, error)
	RequestPasswordReset(ctx context.Context, email string) (*Response, error)
	ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) (*Response, error)
	Dashboard(ctx context.Context, session string) (*DashboardProps, error)
	CreateUser(ctx context.Context, session string, user common.NewUser) (*Response, error)
	UpdateUser(ctx context.Context, session string, user common.User) (*Response, error)
	DeleteUser(ctx context.Context, session string, id string) (*Response, error)
}

var _ API = (*Client)(nil)

// Response is what the backend answered. Redirects are never followed, so a
// 3xx shows up here with its Location.
type Response struct {
	StatusCode int
	Body       string
	Location   string
	Cookies    []*http.Cookie
}

func (r *Response) Redirected() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400 && r.Location != ""
}

// DashboardProps are the server-side props of the dashboard page.
type DashboardProps struct {
	Message   string        `json:"message"`
	UserEmail string        `json:"user_email"`
	Users     []common.User `json:"users"`
}

// Client talks to the external admin backend over HTTP.
type Client struct {
	baseURL       *url.URL
	httpClient    *http.Client
	sessionCookie string
	logger        l.Logger
	tracer        trace.Tracer
}

// ClientBuilder is used to build a Client instance
type ClientBuilder struct {
	baseURL       string
	timeout       time.Duration
	sessionCookie string
	logger        l.Logger
	tracer        trace.Tracer
	transport     http.RoundTripper
}

// NewClientBuilder creates a new ClientBuilder with default values
func NewClientBuilder() *ClientBuilder {
	return &ClientBuilder{
		timeout:       10 * time.Second,
		sessionCookie: "admin_session",
	}
}

func (b *ClientBuilder) WithBaseURL(baseURL string) *ClientBuilder {
	b.baseURL = baseURL
	return b
}

func (b *ClientBuilder) WithTimeout(timeout time.Duration) *ClientBuilder {
	b.timeout = timeout
	return b
}

// WithSessionCookie sets the name of the cookie that carries the backend session.
func (b *ClientBuilder) WithSessionCookie(name string) *ClientBuilder {
	b.sessionCookie = name
	return b
}

func (b *ClientBuilder) WithLogger(logger l.Logger) *ClientBuilder {
	b.logger = logger
	return b
}

func (b *ClientBuilder) WithTracer(tracer trace.Tracer) *ClientBuilder {
	b.tracer = tracer
	return b
}

func (b *ClientBuilder) WithTransport(transport http.RoundTripper) *ClientBuilder {
	b.transport = transport
	return b
}

// Build validates the builder and creates the Client
func (b *ClientBuilder) Build() (*Client, error) {
	if b.baseURL == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	base, err := url.Parse(b.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend base url %q must be absolute", b.baseURL)
	}
	if b.sessionCookie == "" {
		return nil, fmt.Errorf("session cookie name is required")
	}

	logger := b.logger
	if logger == nil {
		logger = l.NopLogger()
	}
	tracer := b.tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/oexza/adminfront/backend")
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   b.timeout,
			Transport: b.transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		sessionCookie: b.sessionCookie,
		logger:        logger,
		tracer:        tracer,
	}, nil
}

func (c *Client) SessionCookie() string {
	return c.sessionCookie
}

func (c *Client) Login(ctx context.Context, loginID, password string) (*Response, error) {
	return c.postForm(ctx, "Login", LoginPath, "", url.Values{
		"login_id": {loginID},
		"password": {password},
	})
}

func (c *Client) Logout(ctx context.Context, session string) (*Response, error) {
	return c.postForm(ctx, "Logout", LogoutPath, session, url.Values{})
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*Response, error) {
	return c.postForm(ctx, "RequestPasswordReset", RequestPasswordResetPath, "", url.Values{
		"email": {email},
	})
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) (*Response, error) {
	return c.postForm(ctx, "ResetPassword", ResetPasswordPath, "", url.Values{
		"token":            {token},
		"new_password":     {newPassword},
		"confirm_password": {confirmPassword},
	})
}

func (c *Client) Dashboard(ctx context.Context, session string) (*DashboardProps, error) {
	resp, err := c.do(ctx, "Dashboard", http.MethodGet, DashboardUsersPath, session, nil)
	if err != nil {
		return nil, err
	}

	props := &DashboardProps{}
	if err := json.Unmarshal([]byte(resp.Body), props); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard props: %w", err)
	}
	if props.Users == nil {
		props.Users = []common.User{}
	}
	return props, nil
}

func (c *Client) CreateUser(ctx context.Context, session string, user common.NewUser) (*Response, error) {
	return c.postForm(ctx, "CreateUser", CreateUserPath, session, url.Values{
		"name":     {user.Name},
		"email":    {user.Email},
		"login_id": {user.LoginID},
		"password": {user.Password},
	})
}

func (c *Client) UpdateUser(ctx context.Context, session string, user common.User) (*Response, error) {
	return c.postForm(ctx, "UpdateUser", UpdateUserPath, session, url.Values{
		"id":    {user.ID},
		"name":  {user.Name},
		"email": {user.Email},
	})
}

func (c *Client) DeleteUser(ctx context.Context, session string, id string) (*Response, error) {
	return c.postForm(ctx, "DeleteUser", DeleteUserPath, session, url.Values{
		"id": {id},
	})
}

func (c *Client) postForm(ctx context.Context, op, path, session string, form url.Values) (*Response, error) {
	return c.do(ctx, op, http.MethodPost, path, session, form)
}

func (c *Client) do(ctx context.Context, op, method, path, session string, form url.Values) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: c.sessionCookie, Value: session})
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("backend %s %s failed: %v", method, path, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}
	c.logger.Debugf("backend %s %s -> %d in %v", method, path, res.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))

	resp := &Response{
		StatusCode: res.StatusCode,
		Body:       string(data),
		Location:   res.Header.Get("Location"),
		Cookies:    res.Cookies(),
	}

	if res.StatusCode >= http.StatusBadRequest {
		statusErr := &StatusError{
			Op:         op,
			Method:     method,
			Path:       path,
			StatusCode: res.StatusCode,
			Body:       resp.Body,
		}
		span.SetStatus(codes.Error, statusErr.Error())
		return resp, statusErr
	}
	return resp, nil
}
