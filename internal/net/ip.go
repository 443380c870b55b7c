package net

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
)

// LinkScheme prefixes share links handed to other participants.
const LinkScheme = "localboard://"

// GetOutgoingIP finds the preferred local IP address for the host to share.
func GetOutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// Networks without a route out still have interface addresses.
		return firstIPv4().String()
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// ShareLink returns the link a host hands out for its relay.
func ShareLink(host string, port int) string {
	return fmt.Sprintf("%s%s", LinkScheme, net.JoinHostPort(host, fmt.Sprint(port)))
}

// IsShareLink reports whether s looks like a share link.
func IsShareLink(s string) bool { return strings.HasPrefix(s, LinkScheme) }

// SocketURL turns a share link or a bare host:port into the relay's
// websocket URL.
func SocketURL(link string) (string, error) {
	addr := strings.TrimSuffix(strings.TrimPrefix(link, LinkScheme), "/")
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid share link %q: %w", link, err)
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return "ws://" + net.JoinHostPort(host, port) + SocketPath, nil
}

func firstIPv4() net.IP {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	slog.Debug("no usable interface address, using loopback")
	return net.IPv4(127, 0, 0, 1)
}
