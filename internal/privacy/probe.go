package privacy

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

const (
	probeTimeout = 3 * time.Second
	probeTTL     = 5 * time.Minute
)

// HTTPProbe checks reachability of the direct endpoint with a cached HEAD
// request. Treats any transport error as blockage; HTTP errors from a
// reachable server are not censorship.
type HTTPProbe struct {
	url    string
	http   *http.Client
	logger *logging.Logger

	mu        sync.Mutex
	checkedAt time.Time
	blocked   bool
}

// NewHTTPProbe creates a probe against the given health URL.
func NewHTTPProbe(url string, client *http.Client, logger *logging.Logger) *HTTPProbe {
	if client == nil {
		client = &http.Client{Timeout: probeTimeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HTTPProbe{url: url, http: client, logger: logger}
}

// Blocked reports whether the direct endpoint is unreachable. Results are
// cached for probeTTL so the check doesn't tax every request.
func (p *HTTPProbe) Blocked(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.checkedAt) < probeTTL {
		return p.blocked
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	blocked := false
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		blocked = true
	} else {
		resp, err := p.http.Do(req)
		if err != nil {
			blocked = true
		} else {
			_ = resp.Body.Close()
		}
	}

	if blocked {
		p.logger.Warn("censorship probe failed, direct endpoint unreachable", "url", p.url)
	}

	p.checkedAt = time.Now()
	p.blocked = blocked
	return blocked
}
