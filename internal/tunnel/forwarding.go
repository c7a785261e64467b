package tunnel

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultLocalPortForwarding = "47827:localhost:47827"

// PortForwarding is an ssh -L spec: localport:remotehost:remoteport.
type PortForwarding struct {
	LocalPort  uint16
	RemoteHost string
	RemotePort uint16
}

func (p PortForwarding) String() string {
	return fmt.Sprintf("%d:%s:%d", p.LocalPort, p.RemoteHost, p.RemotePort)
}

func parsePort(s string) (uint16, error) {
	port, err := strconv.ParseUint(s, 10, 16)

	if err != nil || port == 0 {
		return 0, fmt.Errorf("%w: invalid port number: %q", ErrInvalidPortForwarding, s)
	}

	return uint16(port), nil
}

func ParsePortForwarding(spec string) (PortForwarding, error) {
	parts := strings.Split(spec, ":")

	if len(parts) != 3 {
		return PortForwarding{}, fmt.Errorf("%w: expected port:host:hostport, got %q", ErrInvalidPortForwarding, spec)
	}

	localPort, err := parsePort(parts[0])
	if err != nil {
		return PortForwarding{}, err
	}

	if parts[1] == "" || strings.ContainsAny(parts[1], " \t'\"") {
		return PortForwarding{}, fmt.Errorf("%w: invalid host: %q", ErrInvalidPortForwarding, parts[1])
	}

	remotePort, err := parsePort(parts[2])
	if err != nil {
		return PortForwarding{}, err
	}

	return PortForwarding{LocalPort: localPort, RemoteHost: parts[1], RemotePort: remotePort}, nil
}
