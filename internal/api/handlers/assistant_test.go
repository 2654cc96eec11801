package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benefitsnav/carl-assistant/internal/assistant"
	"github.com/benefitsnav/carl-assistant/internal/privacy"
)

type stubService struct {
	result  *assistant.SearchResult
	err     error
	last    assistant.SearchRequest
	warmups int
}

func (s *stubService) Search(ctx context.Context, req assistant.SearchRequest) (*assistant.SearchResult, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubService) Warmup() { s.warmups++ }

func doSearch(t *testing.T, h *AssistantHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/assistant/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	return rec
}

func TestSearchHappyPath(t *testing.T) {
	svc := &stubService{result: &assistant.SearchResult{
		Message: "Try the Westside Food Pantry.",
		Tier:    assistant.TierLLM,
	}}
	h := NewAssistantHandler(svc, nil)

	rec := doSearch(t, h, `{"message":"I need food help","mode":"standard"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res assistant.SearchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Tier != assistant.TierLLM || res.Message == "" {
		t.Errorf("result = %+v", res)
	}
	if svc.last.Mode != privacy.ModeStandard {
		t.Errorf("mode = %q", svc.last.Mode)
	}
}

func TestSearchBadBody(t *testing.T) {
	h := NewAssistantHandler(&stubService{}, nil)
	if rec := doSearch(t, h, `{not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearchUnknownMode(t *testing.T) {
	h := NewAssistantHandler(&stubService{}, nil)
	if rec := doSearch(t, h, `{"message":"hi","mode":"carrier-pigeon"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearchErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty message", assistant.ErrEmptyMessage, http.StatusBadRequest, ""},
		{"tor unavailable", privacy.ErrTorUnavailable, http.StatusConflict, "tor_unavailable"},
		{"invalid endpoint", privacy.ErrInvalidEndpoint, http.StatusInternalServerError, ""},
		{"upstream error", &assistant.UpstreamError{StatusCode: 429, Body: "rate limited"}, http.StatusBadGateway, "upstream_error"},
		{"decode error", assistant.ErrDecode, http.StatusBadGateway, ""},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAssistantHandler(&stubService{err: tt.err}, nil)
			rec := doSearch(t, h, `{"message":"I need food help"}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				var body struct {
					Code string `json:"code"`
				}
				_ = json.Unmarshal(rec.Body.Bytes(), &body)
				if body.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestSearchForwardsProfileAndHistory(t *testing.T) {
	svc := &stubService{result: &assistant.SearchResult{Tier: assistant.TierLLM}}
	h := NewAssistantHandler(svc, nil)

	body := `{
		"message": "job help",
		"history": [{"role":"user","text":"earlier"}],
		"profile": {"county":"Travis","veteran":true}
	}`
	if rec := doSearch(t, h, body); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(svc.last.History) != 1 || svc.last.History[0].Text != "earlier" {
		t.Errorf("history = %+v", svc.last.History)
	}
	if svc.last.Profile == nil || svc.last.Profile.County != "Travis" || !svc.last.Profile.Veteran {
		t.Errorf("profile = %+v", svc.last.Profile)
	}
}

func TestWarmup(t *testing.T) {
	svc := &stubService{}
	h := NewAssistantHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/assistant/warmup", nil)
	rec := httptest.NewRecorder()
	h.Warmup(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if svc.warmups != 1 {
		t.Errorf("warmups = %d, want 1", svc.warmups)
	}
}

func TestHealth(t *testing.T) {
	h := NewAssistantHandler(&stubService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
