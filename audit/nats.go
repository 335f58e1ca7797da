package audit

import (
	"context"
	"fmt"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	c "github.com/oexza/adminfront/config"
	l "github.com/oexza/adminfront/logging"
)

// Connect returns a NATS connection for audit publishing. In embedded mode it
// also starts an in-process server, which the caller must shut down.
func Connect(ctx context.Context, config c.NatsConfig, logger l.Logger) (*nats.Conn, *server.Server, error) {
	if !config.Embedded {
		nc, err := nats.Connect(config.URL, nats.Name(config.ServerName))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", config.URL, err)
		}
		logger.Infof("Connected to NATS at %s", nc.ConnectedUrl())
		return nc, nil, nil
	}

	natsServer, err := startNATSServer(createNATSOptions(config), config, logger)
	if err != nil {
		return nil, nil, err
	}

	nc, err := nats.Connect("", nats.InProcessServer(natsServer))
	if err != nil {
		natsServer.Shutdown()
		return nil, nil, fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	go func() {
		<-ctx.Done()
		nc.Close()
	}()
	return nc, natsServer, nil
}

func createNATSOptions(config c.NatsConfig) server.Options {
	return server.Options{
		ServerName: config.ServerName,
		Port:       config.Port,
		NoSigs:     true,
	}
}

func startNATSServer(options server.Options, config c.NatsConfig, logger l.Logger) (*server.Server, error) {
	natsServer, err := server.NewServer(&options)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS server: %w", err)
	}

	natsServer.ConfigureLogger()
	go natsServer.Start()
	if !natsServer.ReadyForConnections(config.StartTimeout) {
		natsServer.Shutdown()
		return nil, fmt.Errorf("NATS server failed to start within %v", config.StartTimeout)
	}
	logger.Info("NATS server started on ", natsServer.ClientURL())

	return natsServer, nil
}
