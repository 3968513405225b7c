package authentication

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	abs "github.com/kbukum/kiotahttp/abstractions"
)

func newRequest(base string) *abs.RequestInformation {
	return abs.NewRequestInformationWithMethodAndUrlTemplateAndPathParameters(abs.GET, "{+baseurl}/me",
		map[string]string{"baseurl": base})
}

func TestAllowedHostsValidator(t *testing.T) {
	v, err := NewAllowedHostsValidator([]string{"Graph.Example.com"})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://graph.example.com/v1.0/me", true},
		{"https://other.example.com/", false},
		{"http://graph.example.com/", false},
	}
	for _, tt := range tests {
		u, _ := url.Parse(tt.raw)
		if got := v.IsUrlHostValid(u); got != tt.want {
			t.Errorf("IsUrlHostValid(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}

	if _, err := NewAllowedHostsValidator([]string{"https://graph.example.com"}); err == nil {
		t.Error("expected error for host with scheme")
	}
	empty, _ := NewAllowedHostsValidator(nil)
	u, _ := url.Parse("https://anything.example.org")
	if !empty.IsUrlHostValid(u) {
		t.Error("empty list should allow any https host")
	}
}

func TestBaseBearerTokenAuthenticationProvider(t *testing.T) {
	tokens, err := NewStaticAccessTokenProvider("tok", []string{"api.example.com"})
	if err != nil {
		t.Fatal(err)
	}
	p := NewBaseBearerTokenAuthenticationProvider(tokens)

	req := newRequest("https://api.example.com")
	if err := p.AuthenticateRequest(context.Background(), req, nil); err != nil {
		t.Fatal(err)
	}
	if got := req.Headers.Get("authorization"); len(got) != 1 || got[0] != "Bearer tok" {
		t.Errorf("Authorization = %v", got)
	}

	other := newRequest("https://evil.example.net")
	if err := p.AuthenticateRequest(context.Background(), other, nil); err != nil {
		t.Fatal(err)
	}
	if other.Headers.ContainsKey("authorization") {
		t.Error("token must not be sent to hosts that are not allowed")
	}
}

func TestBaseBearerTokenAuthenticationProvider_Claims(t *testing.T) {
	tokens, _ := NewStaticAccessTokenProvider("fresh", nil)
	p := NewBaseBearerTokenAuthenticationProvider(tokens)

	req := newRequest("https://api.example.com")
	req.Headers.Add("Authorization", "Bearer stale")
	if err := p.AuthenticateRequest(context.Background(), req, nil); err != nil {
		t.Fatal(err)
	}
	if req.Headers.Get("authorization")[0] != "Bearer stale" {
		t.Error("existing header should be kept without a claims challenge")
	}
	if err := p.AuthenticateRequest(context.Background(), req, map[string]any{ClaimsKey: "e30="}); err != nil {
		t.Fatal(err)
	}
	if got := req.Headers.Get("authorization"); len(got) != 1 || got[0] != "Bearer fresh" {
		t.Errorf("Authorization after claims = %v", got)
	}
}

func TestApiKeyAuthenticationProvider(t *testing.T) {
	header, err := NewApiKeyAuthenticationProvider("k1", "X-API-Key", HeaderParameter, nil)
	if err != nil {
		t.Fatal(err)
	}
	req := newRequest("https://api.example.com")
	if err := header.AuthenticateRequest(context.Background(), req, nil); err != nil {
		t.Fatal(err)
	}
	if got := req.Headers.Get("x-api-key"); len(got) != 1 || got[0] != "k1" {
		t.Errorf("header = %v", got)
	}

	query, _ := NewApiKeyAuthenticationProvider("k2", "code", QueryParameter, nil)
	req = newRequest("https://api.example.com")
	if err := query.AuthenticateRequest(context.Background(), req, nil); err != nil {
		t.Fatal(err)
	}
	u, _ := req.GetUri()
	if u.Query().Get("code") != "k2" {
		t.Errorf("query = %s", u.RawQuery)
	}

	if _, err := NewApiKeyAuthenticationProvider("", "x", HeaderParameter, nil); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestBasicAuthenticationProvider(t *testing.T) {
	p, err := NewBasicAuthenticationProvider("user", "pass", nil)
	if err != nil {
		t.Fatal(err)
	}
	req := newRequest("https://api.example.com")
	if err := p.AuthenticateRequest(context.Background(), req, nil); err != nil {
		t.Fatal(err)
	}
	if got := req.Headers.Get("authorization"); len(got) != 1 || got[0] != "Basic dXNlcjpwYXNz" {
		t.Errorf("Authorization = %v", got)
	}
}

func TestJWTAccessTokenProvider(t *testing.T) {
	p, err := NewJWTAccessTokenProvider(JWTConfig{Secret: "s3cret", Issuer: "kiotahttp", Subject: "svc", TTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	u, _ := url.Parse("https://api.example.com/me")
	first, err := p.GetAuthorizationToken(context.Background(), u, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := p.GetAuthorizationToken(context.Background(), u, nil)
	if first != second {
		t.Error("expected cached token")
	}

	claims := &gojwt.RegisteredClaims{}
	_, err = gojwt.ParseWithClaims(first, claims, func(*gojwt.Token) (any, error) { return []byte("s3cret"), nil },
		gojwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Issuer != "kiotahttp" || claims.Subject != "svc" {
		t.Errorf("unexpected claims %+v", claims)
	}

	now = now.Add(45 * time.Second)
	third, _ := p.GetAuthorizationToken(context.Background(), u, nil)
	if third == first {
		t.Error("expected a new token inside the refresh window")
	}
	if strings.Count(third, ".") != 2 {
		t.Errorf("not a compact JWT: %s", third)
	}

	if _, err := NewJWTAccessTokenProvider(JWTConfig{Secret: "x", Method: "RS256"}); err == nil {
		t.Error("expected error for unsupported method")
	}
	if _, err := NewJWTAccessTokenProvider(JWTConfig{}); err == nil {
		t.Error("expected error for missing secret")
	}
	if _, err := NewJWTAccessTokenProvider(JWTConfig{Secret: "x", TTL: time.Second}); err == nil {
		t.Error("expected error for a ttl inside the refresh window")
	}
}

func TestAnonymousAuthenticationProvider(t *testing.T) {
	req := newRequest("https://api.example.com")
	if err := (&AnonymousAuthenticationProvider{}).AuthenticateRequest(context.Background(), req, nil); err != nil {
		t.Fatal(err)
	}
	if req.Headers.Count() != 0 {
		t.Error("anonymous provider must not add headers")
	}
}
