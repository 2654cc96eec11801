package privacy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubProbe struct {
	blocked bool
	calls   int
}

func (p *stubProbe) Blocked(ctx context.Context) bool {
	p.calls++
	return p.blocked
}

func testConfig() Config {
	return Config{
		DirectURL:     "https://api.example.org",
		CDNFrontURL:   "https://front.cdn.example.net",
		ReflectorURL:  "https://reflector.example.net",
		ReflectorPath: "/v1/relay",
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		raw     string
		want    Mode
		wantErr bool
	}{
		{"standard", ModeStandard, false},
		{"", ModeStandard, false},
		{"tor", ModeTor, false},
		{"domain_fronting", ModeDomainFronting, false},
		{"domainFronting", ModeDomainFronting, false},
		{"carrier-pigeon", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestResolveEndpointStandard(t *testing.T) {
	probe := &stubProbe{}
	r, err := NewResolver(testConfig(), probe, nil)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	ep, err := r.ResolveEndpoint(context.Background(), ModeStandard)
	if err != nil {
		t.Fatalf("ResolveEndpoint() error = %v", err)
	}
	if ep.BaseURL != "https://api.example.org" || ep.Fronted {
		t.Errorf("standard endpoint = %+v, want direct", ep)
	}
}

func TestResolveEndpointStandardFallsBackWhenBlocked(t *testing.T) {
	probe := &stubProbe{blocked: true}
	r, _ := NewResolver(testConfig(), probe, nil)

	ep, err := r.ResolveEndpoint(context.Background(), ModeStandard)
	if err != nil {
		t.Fatalf("ResolveEndpoint() error = %v", err)
	}
	if ep.BaseURL != "https://front.cdn.example.net" || !ep.Fronted {
		t.Errorf("blocked standard endpoint = %+v, want CDN front", ep)
	}
}

func TestResolveEndpointDomainFronting(t *testing.T) {
	r, _ := NewResolver(testConfig(), nil, nil)

	ep, err := r.ResolveEndpoint(context.Background(), ModeDomainFronting)
	if err != nil {
		t.Fatalf("ResolveEndpoint() error = %v", err)
	}
	if ep.BaseURL != "https://reflector.example.net/v1/relay" || !ep.Fronted {
		t.Errorf("fronted endpoint = %+v", ep)
	}
}

func TestResolveEndpointTorUsesDirectURL(t *testing.T) {
	probe := &stubProbe{blocked: true}
	r, _ := NewResolver(testConfig(), probe, nil)

	ep, err := r.ResolveEndpoint(context.Background(), ModeTor)
	if err != nil {
		t.Fatalf("ResolveEndpoint() error = %v", err)
	}
	if ep.BaseURL != "https://api.example.org" || ep.Fronted {
		t.Errorf("tor endpoint = %+v, want direct URL", ep)
	}
	if probe.calls != 0 {
		t.Error("tor mode should not consult the censorship probe")
	}
}

func TestResolveEndpointInvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.DirectURL = "not a url"
	r, _ := NewResolver(cfg, nil, nil)

	_, err := r.ResolveEndpoint(context.Background(), ModeStandard)
	if !errors.Is(err, ErrInvalidEndpoint) {
		t.Errorf("ResolveEndpoint() error = %v, want ErrInvalidEndpoint", err)
	}
}

func TestResolveChannelTorFailsClosed(t *testing.T) {
	r, _ := NewResolver(testConfig(), nil, nil)

	_, err := r.ResolveChannel(ModeTor)
	if !errors.Is(err, ErrTorUnavailable) {
		t.Fatalf("ResolveChannel(tor) error = %v, want ErrTorUnavailable", err)
	}

	if err := r.ConfigureTorProxy("127.0.0.1:9050"); err != nil {
		t.Fatalf("ConfigureTorProxy() error = %v", err)
	}
	ch, err := r.ResolveChannel(ModeTor)
	if err != nil {
		t.Fatalf("ResolveChannel(tor) after configure error = %v", err)
	}
	if !ch.Tor() {
		t.Errorf("channel = %+v, want tor channel", ch)
	}

	r.DisableTorProxy()
	if _, err := r.ResolveChannel(ModeTor); !errors.Is(err, ErrTorUnavailable) {
		t.Errorf("ResolveChannel(tor) after disable error = %v, want ErrTorUnavailable", err)
	}
}

func TestResolveChannelStandardIsDirect(t *testing.T) {
	r, _ := NewResolver(testConfig(), nil, nil)
	ch, err := r.ResolveChannel(ModeStandard)
	if err != nil {
		t.Fatalf("ResolveChannel() error = %v", err)
	}
	if ch.Tor() || ch.HTTP == nil {
		t.Errorf("standard channel = %+v, want direct", ch)
	}
}

func TestHTTPProbeCachesResult(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewHTTPProbe(srv.URL, srv.Client(), nil)
	for i := 0; i < 3; i++ {
		if p.Blocked(context.Background()) {
			t.Fatal("Blocked() = true against a healthy server")
		}
	}
	if hits != 1 {
		t.Errorf("probe hit the endpoint %d times, want 1 (cached)", hits)
	}
}

func TestHTTPProbeUnreachableIsBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	p := NewHTTPProbe(srv.URL, nil, nil)
	if !p.Blocked(context.Background()) {
		t.Error("Blocked() = false against a dead endpoint")
	}
}
