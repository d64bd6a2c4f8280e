package model

import (
	"context"
	"net"
)

// SecurityLayer produces the listener a server accepts connections on,
// plain TCP or TLS depending on configuration.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a transport server lifecycle: Start blocks until the server
// stops, Stop shuts it down gracefully.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
