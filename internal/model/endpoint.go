package model

import (
	"fmt"
	"net"
	"strconv"
)

// Endpoint identifies a destination silo by network address and port.
// It is an immutable value with structural equality, suitable as a map key.
type Endpoint struct {
	Address string
	Port    int
}

// ParseEndpoint parses "host:port" into an Endpoint.
func ParseEndpoint(s string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("model: invalid endpoint %q: %w", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return Endpoint{}, fmt.Errorf("model: invalid port in endpoint %q", s)
	}
	return Endpoint{Address: host, Port: port}, nil
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Address, strconv.Itoa(e.Port))
}

// IsZero reports whether the endpoint is the zero value.
func (e Endpoint) IsZero() bool {
	return e.Address == "" && e.Port == 0
}
