package privacy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

// Channel wraps the HTTP transport requests travel over. The orchestrator
// holds the active channel as session state and passes its client to every
// backend call.
type Channel struct {
	Name string
	HTTP *http.Client
}

// Tor reports whether this channel routes through the tor network.
func (c *Channel) Tor() bool {
	return c != nil && c.Name == "tor"
}

// NewDirectChannel returns the default clearnet channel.
func NewDirectChannel() *Channel {
	return &Channel{
		Name: "direct",
		HTTP: &http.Client{Timeout: 45 * time.Second},
	}
}

// NewTorChannel builds a channel whose transport dials through a local tor
// SOCKS5 proxy. Tor is markedly slower, so the client timeout is doubled.
func NewTorChannel(socksAddr string) (*Channel, error) {
	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("privacy: failed to create tor dialer: %w", err)
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
		// Tor circuits are expensive to build; keep connections alive.
		MaxIdleConns:    4,
		IdleConnTimeout: 2 * time.Minute,
	}

	return &Channel{
		Name: "tor",
		HTTP: &http.Client{
			Transport: transport,
			Timeout:   90 * time.Second,
		},
	}, nil
}
