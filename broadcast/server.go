package broadcast

import (
	"errors"
	"fmt"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// Server is an in-process NATS server for local subscribers.
type Server struct {
	ns *natsserver.Server
}

// StartServer runs an embedded server on host:port. Port -1 picks a free one.
func StartServer(host string, port int) (*Server, error) {
	opts := &natsserver.Options{
		Host:   host,
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("nats server not ready")
	}
	return &Server{ns: ns}, nil
}

// ClientURL is the URL clients dial.
func (s *Server) ClientURL() string {
	return s.ns.ClientURL()
}

func (s *Server) Close() {
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}
