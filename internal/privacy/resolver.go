// Package privacy resolves which network endpoint and transport a request
// should use for the session's privacy mode. The policy is fail closed: when
// a private channel was requested but is unavailable, the request is refused
// rather than silently downgraded.
package privacy

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

// Mode selects how requests reach the inference backends.
type Mode string

const (
	ModeStandard       Mode = "standard"
	ModeDomainFronting Mode = "domain_fronting"
	ModeTor            Mode = "tor"
)

// ParseMode normalizes a caller-supplied mode string.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeStandard, "":
		return ModeStandard, nil
	case ModeDomainFronting, "domainfronting", "domain-fronting":
		return ModeDomainFronting, nil
	case ModeTor:
		return ModeTor, nil
	}
	return "", fmt.Errorf("privacy: unknown mode %q", raw)
}

var (
	// ErrInvalidEndpoint indicates a malformed resolved URL.
	ErrInvalidEndpoint = errors.New("privacy: invalid endpoint URL")
	// ErrTorUnavailable indicates tor mode was selected with no tor channel
	// configured. No network call may be attempted in this state.
	ErrTorUnavailable = errors.New("privacy: tor channel not configured")
)

// EndpointDescriptor is a resolved backend address plus how it was chosen.
type EndpointDescriptor struct {
	BaseURL string
	Fronted bool // true when routed through the CDN reflector
}

// CensorshipProbe reports whether the direct endpoint appears blocked from
// the current network.
type CensorshipProbe interface {
	Blocked(ctx context.Context) bool
}

// Config holds the endpoint set the resolver chooses between.
type Config struct {
	DirectURL     string
	CDNFrontURL   string
	ReflectorURL  string
	ReflectorPath string // fixed suffix appended to the reflector URL
	TorSocksAddr  string // optional; empty means tor is not configured
}

// Resolver maps a privacy mode to an endpoint and a transport channel.
type Resolver struct {
	cfg    Config
	probe  CensorshipProbe
	logger *logging.Logger

	mu     sync.Mutex
	direct *Channel
	tor    *Channel
}

// NewResolver builds a resolver. The tor channel is created eagerly when a
// SOCKS address is configured; otherwise tor mode fails closed until
// ConfigureTorProxy is called.
func NewResolver(cfg Config, probe CensorshipProbe, logger *logging.Logger) (*Resolver, error) {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Resolver{
		cfg:    cfg,
		probe:  probe,
		logger: logger,
		direct: NewDirectChannel(),
	}
	if cfg.TorSocksAddr != "" {
		ch, err := NewTorChannel(cfg.TorSocksAddr)
		if err != nil {
			return nil, err
		}
		r.tor = ch
	}
	return r, nil
}

// ResolveEndpoint picks the backend URL for the mode.
func (r *Resolver) ResolveEndpoint(ctx context.Context, mode Mode) (EndpointDescriptor, error) {
	switch mode {
	case ModeDomainFronting:
		base := strings.TrimSuffix(r.cfg.ReflectorURL, "/") + r.cfg.ReflectorPath
		if err := validateURL(base); err != nil {
			return EndpointDescriptor{}, err
		}
		return EndpointDescriptor{BaseURL: base, Fronted: true}, nil

	case ModeTor:
		// Anonymity comes from the transport, not URL substitution.
		if err := validateURL(r.cfg.DirectURL); err != nil {
			return EndpointDescriptor{}, err
		}
		return EndpointDescriptor{BaseURL: r.cfg.DirectURL}, nil

	case ModeStandard:
		if r.probe != nil && r.probe.Blocked(ctx) {
			r.logger.Warn("direct endpoint appears blocked, falling back to CDN front")
			if err := validateURL(r.cfg.CDNFrontURL); err != nil {
				return EndpointDescriptor{}, err
			}
			return EndpointDescriptor{BaseURL: r.cfg.CDNFrontURL, Fronted: true}, nil
		}
		if err := validateURL(r.cfg.DirectURL); err != nil {
			return EndpointDescriptor{}, err
		}
		return EndpointDescriptor{BaseURL: r.cfg.DirectURL}, nil
	}
	return EndpointDescriptor{}, fmt.Errorf("privacy: unknown mode %q", mode)
}

// ResolveChannel returns the transport for the mode. Tor mode fails closed
// when no tor channel has been configured.
func (r *Resolver) ResolveChannel(mode Mode) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mode == ModeTor {
		if r.tor == nil {
			return nil, ErrTorUnavailable
		}
		return r.tor, nil
	}
	return r.direct, nil
}

// ConfigureTorProxy installs a tor channel over the given SOCKS5 address.
func (r *Resolver) ConfigureTorProxy(socksAddr string) error {
	ch, err := NewTorChannel(socksAddr)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.tor = ch
	r.mu.Unlock()
	r.logger.Info("tor channel configured")
	return nil
}

// DisableTorProxy drops the tor channel; subsequent tor-mode calls fail closed.
func (r *Resolver) DisableTorProxy() {
	r.mu.Lock()
	r.tor = nil
	r.mu.Unlock()
	r.logger.Info("tor channel disabled")
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, raw)
	}
	return nil
}
