package token

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/httpclient"
	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/security"
)

const (
	// DefaultAuthority is the public cloud identity endpoint.
	DefaultAuthority = "https://login.microsoftonline.com"
	// DefaultScope requests every application permission granted to the app.
	DefaultScope = "https://graph.microsoft.com/.default"

	assertionType     = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
	assertionLifetime = 10 * time.Minute
	// refreshSkew renews a cached token this long before it expires.
	refreshSkew = 5 * time.Minute
)

// CertificateSource supplies the certificate that signs client assertions.
type CertificateSource interface {
	Certificate() (*security.Certificate, error)
}

// Config configures ClientCredentials.
type Config struct {
	Authority string   `yaml:"authority" mapstructure:"authority"`
	TenantID  string   `yaml:"tenant_id" mapstructure:"tenant_id"`
	ClientID  string   `yaml:"client_id" mapstructure:"client_id"`
	Scopes    []string `yaml:"scopes" mapstructure:"scopes"`
	// Attempts counts the first request. Defaults to 2.
	Attempts int           `yaml:"attempts" mapstructure:"attempts"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Authority == "" {
		c.Authority = DefaultAuthority
	}
	if len(c.Scopes) == 0 {
		c.Scopes = []string{DefaultScope}
	}
	if c.Attempts <= 0 {
		c.Attempts = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.TenantID == "" {
		return fmt.Errorf("token: tenant_id is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("token: client_id is required")
	}
	return nil
}

// Endpoint returns the v2 token endpoint for the tenant.
func (c *Config) Endpoint() string {
	return strings.TrimRight(c.Authority, "/") + "/" + c.TenantID + "/oauth2/v2.0/token"
}

// ClientCredentials acquires app-only tokens with the OAuth2 client
// credentials grant, authenticating with a signed certificate assertion.
// Tokens are cached and one request runs at a time.
type ClientCredentials struct {
	cfg    Config
	certs  CertificateSource
	client *httpclient.Client
	log    *logger.Logger
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

var _ Provider = (*ClientCredentials)(nil)

// NewClientCredentials creates the provider.
func NewClientCredentials(cfg Config, certs CertificateSource, log *logger.Logger) (*ClientCredentials, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	retry := httpclient.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Attempts
	client, err := httpclient.New(httpclient.Config{Timeout: cfg.Timeout, Retry: retry})
	if err != nil {
		return nil, err
	}

	return &ClientCredentials{
		cfg:    cfg,
		certs:  certs,
		client: client,
		log:    log.WithComponent("token"),
		now:    time.Now,
	}, nil
}

type tokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// GetBearerToken implements Provider. Every token it returns is app-only.
func (c *ClientCredentials) GetBearerToken(ctx context.Context, _ bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt.Add(-refreshSkew)) {
		return c.token, nil
	}

	tok, expiresIn, err := c.acquire(ctx)
	if err != nil {
		c.log.WithContext(ctx).Error("Token acquisition failed", logger.ErrorFields("acquire_token", err))
		return "", apperrors.TokenAcquisition(err)
	}
	c.token = tok
	c.expiresAt = c.now().Add(expiresIn)
	c.log.WithContext(ctx).Debug("Acquired app token", logger.Fields("expires_at", c.expiresAt))
	return tok, nil
}

func (c *ClientCredentials) acquire(ctx context.Context) (string, time.Duration, error) {
	cert, err := c.certs.Certificate()
	if err != nil {
		return "", 0, err
	}
	assertion, err := c.assertion(cert)
	if err != nil {
		return "", 0, err
	}

	form := url.Values{
		"client_id":             {c.cfg.ClientID},
		"scope":                 {strings.Join(c.cfg.Scopes, " ")},
		"grant_type":            {"client_credentials"},
		"client_assertion_type": {assertionType},
		"client_assertion":      {assertion},
	}
	resp, err := c.client.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    c.cfg.Endpoint(),
		Body:    form,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return "", 0, err
	}

	var tr tokenResponse
	if err := resp.DecodeJSON(&tr); err != nil {
		return "", 0, err
	}
	if tr.AccessToken == "" {
		return "", 0, fmt.Errorf("token: response has no access_token")
	}
	return tr.AccessToken, time.Duration(tr.ExpiresIn) * time.Second, nil
}

// assertion signs the client assertion JWT with the certificate key.
func (c *ClientCredentials) assertion(cert *security.Certificate) (string, error) {
	key, err := cert.RSAPrivateKey()
	if err != nil {
		return "", err
	}
	now := c.now()
	claims := gojwt.RegisteredClaims{
		Issuer:    c.cfg.ClientID,
		Subject:   c.cfg.ClientID,
		Audience:  gojwt.ClaimStrings{c.cfg.Endpoint()},
		ID:        uuid.NewString(),
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(assertionLifetime)),
	}
	tok := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims)
	tok.Header["x5t"] = cert.X5T()
	return tok.SignedString(key)
}
