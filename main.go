package main

import (
	"context"
	"errors"
	"fmt"
	logger "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	admin "github.com/oexza/adminfront/admin"
	changepassword "github.com/oexza/adminfront/admin/slices/change_password"
	"github.com/oexza/adminfront/admin/slices/create_user"
	"github.com/oexza/adminfront/admin/slices/dashboard"
	"github.com/oexza/adminfront/admin/slices/delete_user"
	"github.com/oexza/adminfront/admin/slices/home"
	"github.com/oexza/adminfront/admin/slices/login"
	"github.com/oexza/adminfront/admin/slices/logout"
	resetpassword "github.com/oexza/adminfront/admin/slices/reset_password"
	"github.com/oexza/adminfront/admin/slices/update_user"
	"github.com/oexza/adminfront/audit"
	"github.com/oexza/adminfront/backend"
	c "github.com/oexza/adminfront/config"
	l "github.com/oexza/adminfront/logging"
	"github.com/oexza/adminfront/telemetry"
)

func main() {
	defer logger.Println("Server shutting down")

	// Load configuration and initialize logger
	config := initializeConfig()
	AppLogger := initializeLogger(config)
	AppLogger.Debugf("config: %+v", config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, config.Telemetry.ServiceName, config.Telemetry.OtelEndpoint, AppLogger)
	if err != nil {
		AppLogger.Fatalf("Failed to initialize tracing: %v", err)
	}
	if shutdownTracer != nil {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				AppLogger.Errorf("Failed to flush traces: %v", err)
			}
		}()
	}

	publisher, nc, ns := initializeAudit(ctx, config, AppLogger)
	if nc != nil {
		defer nc.Close()
	}
	if ns != nil {
		defer ns.Shutdown()
	}

	client := initializeBackend(config, AppLogger)
	store := dashboard.NewStore(config.Dashboard.StateTTL)

	adminServer := admin.NewAdminServer(
		AppLogger,
		admin.Options{
			SessionCookie:  config.Backend.SessionCookie,
			APIMessage:     config.Site.Message,
			AllowedOrigins: config.Cors.GetAllowedOrigins(),
			Tracer:         telemetry.GetTracer(),
		},
		home.NewHomeHandler(AppLogger, config.Site.Message),
		login.NewLoginHandler(AppLogger, config.Site.AdminMessage, client.Login, publisher),
		logout.NewLogoutHandler(AppLogger, config.Backend.SessionCookie, client.Logout, publisher),
		changepassword.NewChangePasswordHandler(AppLogger, client.RequestPasswordReset, publisher),
		resetpassword.NewResetPasswordHandler(AppLogger, client.ResetPassword, publisher),
		dashboard.NewDashboardHandler(AppLogger, config.Site.DashboardMessage, config.Backend.SessionCookie, client.Dashboard, store),
		create_user.NewCreateUserHandler(AppLogger, store, client.CreateUser, publisher),
		update_user.NewUpdateUserHandler(AppLogger, store, client.UpdateUser, publisher),
		delete_user.NewDeleteUserHandler(AppLogger, store, client.DeleteUser, publisher),
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Http.Port),
		Handler:           adminServer,
		ReadHeaderTimeout: config.Http.ReadHeaderTimeout,
	}

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		AppLogger.Infof("Starting admin server on port %s", config.Http.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin server error: %w", err)
		}
		return nil
	})

	grp.Go(func() error {
		return store.RunSweeper(gctx, config.Dashboard.SweepInterval, AppLogger)
	})

	grp.Go(func() error {
		<-gctx.Done()
		AppLogger.Infof("Shutting down admin server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Http.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := grp.Wait(); err != nil {
		AppLogger.Errorf("Server stopped with error: %v", err)
	}
}

func initializeConfig() c.AppConfig {
	config, err := c.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	return config
}

func initializeLogger(config c.AppConfig) l.Logger {
	logr, err := l.ZapLogger(config.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logr
}

// initializeAudit connects the audit publisher. With NATS disabled events are
// dropped.
func initializeAudit(ctx context.Context, config c.AppConfig, logger l.Logger) (audit.Publisher, *nats.Conn, *server.Server) {
	if !config.Nats.Enabled {
		logger.Info("NATS disabled, audit events will not be published")
		return audit.NopPublisher{}, nil, nil
	}

	nc, ns, err := audit.Connect(ctx, config.Nats, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize NATS: %v", err)
	}
	return audit.NewNatsPublisher(nc, config.Nats.Subject), nc, ns
}

func initializeBackend(config c.AppConfig, logger l.Logger) *backend.Client {
	client, err := backend.NewClientBuilder().
		WithBaseURL(config.Backend.BaseURL).
		WithTimeout(config.Backend.Timeout).
		WithSessionCookie(config.Backend.SessionCookie).
		WithLogger(logger).
		WithTracer(telemetry.GetTracer()).
		Build()
	if err != nil {
		logger.Fatalf("Failed to create backend client: %v", err)
	}
	logger.Infof("Relaying to backend at %s", config.Backend.BaseURL)
	return client
}
