package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	datastar "github.com/starfederation/datastar-go/datastar"
	"go.opentelemetry.io/otel/trace"

	"github.com/oexza/adminfront/admin/assets"
	changepassword "github.com/oexza/adminfront/admin/slices/change_password"
	admincommon "github.com/oexza/adminfront/admin/slices/common"
	create_user "github.com/oexza/adminfront/admin/slices/create_user"
	"github.com/oexza/adminfront/admin/slices/dashboard"
	"github.com/oexza/adminfront/admin/slices/delete_user"
	"github.com/oexza/adminfront/admin/slices/home"
	"github.com/oexza/adminfront/admin/slices/login"
	"github.com/oexza/adminfront/admin/slices/logout"
	resetpassword "github.com/oexza/adminfront/admin/slices/reset_password"
	"github.com/oexza/adminfront/admin/slices/update_user"
	l "github.com/oexza/adminfront/logging"
	"github.com/oexza/adminfront/telemetry"
)

const PleaseLogInMessage = "Please log in"

// Options are the settings of the server itself, as opposed to its handlers.
type Options struct {
	SessionCookie  string
	APIMessage     string
	AllowedOrigins []string
	Tracer         trace.Tracer
}

type AdminServer struct {
	logger                l.Logger
	router                *chi.Mux
	options               Options
	homeHandler           *home.HomeHandler
	loginHandler          *login.LoginHandler
	logoutHandler         *logout.LogoutHandler
	changePasswordHandler *changepassword.ChangePasswordHandler
	resetPasswordHandler  *resetpassword.ResetPasswordHandler
	dashboardHandler      *dashboard.DashboardHandler
	createUserHandler     *create_user.CreateUserHandler
	updateUserHandler     *update_user.UpdateUserHandler
	deleteUserHandler     *delete_user.DeleteUserHandler
}

func NewAdminServer(
	logger l.Logger,
	options Options,
	homeHandler *home.HomeHandler,
	loginHandler *login.LoginHandler,
	logoutHandler *logout.LogoutHandler,
	changePasswordHandler *changepassword.ChangePasswordHandler,
	resetPasswordHandler *resetpassword.ResetPasswordHandler,
	dashboardHandler *dashboard.DashboardHandler,
	createUserHandler *create_user.CreateUserHandler,
	updateUserHandler *update_user.UpdateUserHandler,
	deleteUserHandler *delete_user.DeleteUserHandler,
) *AdminServer {

	router := chi.NewRouter()

	server := &AdminServer{
		logger:                logger,
		router:                router,
		options:               options,
		homeHandler:           homeHandler,
		loginHandler:          loginHandler,
		logoutHandler:         logoutHandler,
		changePasswordHandler: changePasswordHandler,
		resetPasswordHandler:  resetPasswordHandler,
		dashboardHandler:      dashboardHandler,
		createUserHandler:     createUserHandler,
		updateUserHandler:     updateUserHandler,
		deleteUserHandler:     deleteUserHandler,
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger(logger))
	router.Use(middleware.Recoverer)
	if options.Tracer != nil {
		router.Use(telemetry.Middleware(options.Tracer))
	}
	router.Use(server.sessionMiddleware)

	// Serve static files
	router.Handle("/assets/*", assets.Handler("/assets/"))

	router.Group(func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:       options.AllowedOrigins,
			AllowedMethods:       []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:       []string{"Accept", "Content-Type"},
			OptionsSuccessStatus: http.StatusNoContent,
			MaxAge:               300,
		}))
		api.Get("/api", server.handleAPI)
		api.Options("/api", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	// Public routes
	router.Group(func(public chi.Router) {
		public.Get("/", server.homeHandler.HandleHomePage)
		public.Get("/admin", server.loginHandler.HandleLoginPage)
		public.Post("/admin", server.loginHandler.HandleLogin)
		public.Get("/admin/change-password", server.changePasswordHandler.HandleChangePasswordPage)
		public.Post("/admin/change-password/submit", server.changePasswordHandler.HandleChangePassword)
		public.Get("/admin/reset-password", server.resetPasswordHandler.HandleResetPasswordPage)
		public.Post("/admin/reset-password", server.resetPasswordHandler.HandleResetPassword)
		public.Post("/admin/logout", server.logoutHandler.HandleLogout)
		public.Get(logout.LogoutCompletePath, server.logoutHandler.HandleLogoutComplete)
	})

	// Protected routes
	router.Group(func(protected chi.Router) {
		protected.Use(server.authMiddleware)

		protected.Get(dashboard.DashboardPath, server.dashboardHandler.HandleDashboardPage)
		protected.Get(dashboard.OpenCreatePath, server.dashboardHandler.HandleOpenCreate)
		protected.Get(dashboard.OpenEditPath+"{id}", server.dashboardHandler.HandleOpenEdit)
		protected.Get(dashboard.OpenDeletePath+"{id}", server.dashboardHandler.HandleOpenDelete)
		protected.Post(dashboard.CloseDialogPath, server.dashboardHandler.HandleCloseDialog)
		protected.Post(dashboard.CreateUserPath, server.createUserHandler.HandleCreateUser)
		protected.Post(dashboard.UpdateUserPath, server.updateUserHandler.HandleUpdateUser)
		protected.Post(dashboard.DeleteUserPath, server.deleteUserHandler.HandleUserDelete)
	})

	router.NotFound(server.homeHandler.HandleNotFound)

	return server
}

// sessionMiddleware puts the backend session cookie, if any, on the context.
func (s *AdminServer) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(s.options.SessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(admincommon.WithSession(r.Context(), c.Value)))
	})
}

func (s *AdminServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if admincommon.GetSession(r) != "" {
			next.ServeHTTP(w, r)
			return
		}

		s.logger.Debugf("No session on %s, redirecting to login", r.URL.Path)
		admincommon.SetFlashError(w, PleaseLogInMessage)

		if admincommon.IsDatastarRequest(r) {
			sse := datastar.NewSSE(w, r)
			if err := sse.Redirect(login.LoginPagePath); err != nil {
				s.logger.Errorf("Failed to redirect to login: %v", err)
			}
			return
		}
		http.Redirect(w, r, login.LoginPagePath, http.StatusSeeOther)
	})
}

func (s *AdminServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(map[string]string{"message": s.options.APIMessage})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *AdminServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
