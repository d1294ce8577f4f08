// Package client manages gRPC connections to dependent services. Each
// service's endpoint comes from <DEP>_HOST_GRPC and <DEP>_PORT_GRPC.
package client

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"svc_gis/internal/logging"
)

// Endpoint resolves a dependent service's host:port from the environment.
func Endpoint(service string) (string, error) {
	prefix := strings.ToUpper(service)
	host := os.Getenv(prefix + "_HOST_GRPC")
	if host == "" {
		return "", fmt.Errorf("%s_HOST_GRPC undefined", prefix)
	}
	port := os.Getenv(prefix + "_PORT_GRPC")
	if port == "" {
		return "", fmt.Errorf("%s_PORT_GRPC undefined", prefix)
	}
	return host + ":" + port, nil
}

// Registry holds lazily-dialed connections keyed by service name.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
	log   zerolog.Logger
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*grpc.ClientConn),
		log:   logging.Component("grpc"),
	}
}

// Conn returns the connection for a service, dialing it on first use.
func (r *Registry) Conn(service string) (*grpc.ClientConn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[service]; ok {
		return conn, nil
	}

	addr, err := Endpoint(service)
	if err != nil {
		r.log.Error().Err(err).Str("service", service).Msg("endpoint not configured")
		return nil, err
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		r.log.Error().Err(err).Str("service", service).Str("addr", addr).
			Msg("could not create client")
		return nil, fmt.Errorf("dial %s: %w", service, err)
	}

	r.log.Info().Str("service", service).Str("addr", addr).Msg("client created")
	r.conns[service] = conn
	return conn, nil
}

// Invalidate drops a service's connection so the next Conn redials.
func (r *Registry) Invalidate(service string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[service]; ok {
		_ = conn.Close()
		delete(r.conns, service)
	}
}

// Close closes every connection in the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, conn := range r.conns {
		_ = conn.Close()
		delete(r.conns, name)
	}
}
