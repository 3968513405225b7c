package authentication

import (
	"context"
	"net/url"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/validation"
)

// JWTConfig configures a self-signed HMAC access token.
type JWTConfig struct {
	// Secret is the HMAC signing key.
	Secret string `mapstructure:"secret" json:"secret"`
	// Method is HS256, HS384 or HS512 (default HS256).
	Method   string   `mapstructure:"method" json:"method"`
	Issuer   string   `mapstructure:"issuer" json:"issuer"`
	Subject  string   `mapstructure:"subject" json:"subject"`
	Audience []string `mapstructure:"audience" json:"audience"`
	// TTL is the token lifetime (default 15m).
	TTL time.Duration `mapstructure:"ttl" json:"ttl"`
	// AllowedHosts restricts which hosts receive the token.
	AllowedHosts []string `mapstructure:"allowed_hosts" json:"allowed_hosts"`
}

// ApplyDefaults fills zero values.
func (c *JWTConfig) ApplyDefaults() {
	if c.Method == "" {
		c.Method = "HS256"
	}
	if c.TTL == 0 {
		c.TTL = 15 * time.Minute
	}
}

// Validate checks the configuration after defaults are applied.
func (c *JWTConfig) Validate() error {
	return validation.New().
		Required("secret", c.Secret).
		OneOf("method", c.Method, []string{"HS256", "HS384", "HS512"}).
		Custom(c.TTL > refreshSkew, "ttl", "must be longer than "+refreshSkew.String()).
		Validate()
}

func (c *JWTConfig) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case "HS384":
		return gojwt.SigningMethodHS384
	case "HS512":
		return gojwt.SigningMethodHS512
	default:
		return gojwt.SigningMethodHS256
	}
}

// refreshSkew renews tokens shortly before they expire.
const refreshSkew = 30 * time.Second

// JWTAccessTokenProvider signs its own short-lived tokens and caches them
// until they are about to expire. A claims challenge forces a new token.
type JWTAccessTokenProvider struct {
	cfg       JWTConfig
	validator *AllowedHostsValidator
	now       func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewJWTAccessTokenProvider creates a provider from cfg.
func NewJWTAccessTokenProvider(cfg JWTConfig) (*JWTAccessTokenProvider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v, err := NewAllowedHostsValidator(cfg.AllowedHosts)
	if err != nil {
		return nil, err
	}
	return &JWTAccessTokenProvider{cfg: cfg, validator: v, now: time.Now}, nil
}

// GetAuthorizationToken returns a cached or freshly signed token.
func (p *JWTAccessTokenProvider) GetAuthorizationToken(ctx context.Context, uri *url.URL, additionalAuthenticationContext map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !p.validator.IsUrlHostValid(uri) {
		return "", nil
	}
	_, challenged := additionalAuthenticationContext[ClaimsKey]

	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if !challenged && p.token != "" && now.Add(refreshSkew).Before(p.expiresAt) {
		return p.token, nil
	}

	expiresAt := now.Add(p.cfg.TTL)
	claims := gojwt.RegisteredClaims{
		Issuer:    p.cfg.Issuer,
		Subject:   p.cfg.Subject,
		Audience:  p.cfg.Audience,
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(expiresAt),
	}
	signed, err := gojwt.NewWithClaims(p.cfg.signingMethod(), claims).SignedString([]byte(p.cfg.Secret))
	if err != nil {
		return "", errors.Unauthorized("sign access token").WithCause(err)
	}
	p.token = signed
	p.expiresAt = expiresAt
	return signed, nil
}

func (p *JWTAccessTokenProvider) GetAllowedHostsValidator() *AllowedHostsValidator {
	return p.validator
}
