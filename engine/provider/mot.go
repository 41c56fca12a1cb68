package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/WessleyAI/vesbot/engine/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultMOTURL is the DVSA MOT history trade API base for registration lookups.
const DefaultMOTURL = "https://history.mot.api.gov.uk/v1/trade/vehicles/registration"

// MOTConfig configures the DVSA client and its client-credentials grant.
type MOTConfig struct {
	URL          string
	APIKey       string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scope        string
}

// MOTTokenSource returns a cached client-credentials token source for the
// MOT history API. Token requests go through client.
func MOTTokenSource(cfg MOTConfig, client *http.Client) oauth2.TokenSource {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	if cfg.Scope != "" {
		cc.Scopes = []string{cfg.Scope}
	}
	ctx := context.Background()
	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}
	return cc.TokenSource(ctx)
}

// TokenURLFromAuthority derives the v2 token endpoint from an Entra ID authority URL.
func TokenURLFromAuthority(authority string) string {
	return strings.TrimRight(authority, "/") + "/oauth2/v2.0/token"
}

// MOT queries the DVSA MOT history API.
type MOT struct {
	cfg    MOTConfig
	client Doer
	tokens oauth2.TokenSource
}

// NewMOT creates a DVSA client. tokens supplies the bearer token for every call.
func NewMOT(cfg MOTConfig, client Doer, tokens oauth2.TokenSource) *MOT {
	if cfg.URL == "" {
		cfg.URL = DefaultMOTURL
	}
	return &MOT{cfg: cfg, client: client, tokens: tokens}
}

func (m *MOT) Name() Name { return MOTName }

// Fetch retrieves the MOT history for reg.
func (m *MOT) Fetch(ctx context.Context, reg domain.Registration) (Record, error) {
	tok, err := m.tokens.Token()
	if err != nil {
		return nil, newError(MOTName, CategoryAuthentication, "acquire access token", err)
	}

	u := strings.TrimRight(m.cfg.URL, "/") + "/" + url.PathEscape(reg.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, newError(MOTName, CategoryInternal, "build request", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("X-API-KEY", m.cfg.APIKey)

	var rec MOTRecord
	if err := doJSON(m.client, MOTName, req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
