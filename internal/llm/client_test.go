package llm

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Config{Token: "  "}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	client, err := NewClient(Config{Token: "token"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.baseURL != DefaultBaseURL {
		t.Fatalf("unexpected base url: %s", client.baseURL)
	}
}

func TestBuildEndpoint(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "https://api.openai.com", want: "https://api.openai.com/v1/chat/completions"},
		{base: "https://api.openai.com/", want: "https://api.openai.com/v1/chat/completions"},
		{base: "https://gateway.local/v1", want: "https://gateway.local/v1/chat/completions"},
		{base: "https://gateway.local/v1/", want: "https://gateway.local/v1/chat/completions"},
	}
	for _, tt := range tests {
		if got := buildEndpoint(tt.base, chatPath); got != tt.want {
			t.Fatalf("buildEndpoint(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestClientRoutesThroughProxy(t *testing.T) {
	var proxiedHost string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxiedHost = r.URL.Host
		_, _ = io.WriteString(w, `{"data":[{"url":"https://img/1"}]}`)
	}))
	defer proxy.Close()

	proxyURL, err := url.Parse(proxy.URL)
	if err != nil {
		t.Fatalf("parse proxy url: %v", err)
	}
	client, err := NewClient(Config{
		BaseURL: "http://api.example.invalid",
		Token:   "token",
		Proxy:   FixedProxy(proxyURL),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp := client.CreateImage(context.Background(), ImageParameter{Prompt: "x"})
	if !resp.OK {
		t.Fatalf("expected ok response through proxy")
	}
	if proxiedHost != "api.example.invalid" {
		t.Fatalf("unexpected proxied host: %q", proxiedHost)
	}
}
