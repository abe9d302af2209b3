package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"career-readiness/internal/common/config"
	"career-readiness/internal/common/errors"
	httpclient "career-readiness/internal/common/http"

	"golang.org/x/oauth2/clientcredentials"
)

// Clerk is a reviewer who can be assigned manual-tier assessments.
type Clerk struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Enabled   bool   `json:"enabled"`
}

func (c Clerk) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.Email
	}
	return name
}

// KeycloakDirectory lists clerks from a Keycloak group using a
// service-account token.
type KeycloakDirectory struct {
	baseURL string
	realm   string
	groupID string
	client  *httpclient.Client
}

// NewKeycloakDirectory returns nil when Keycloak is not configured.
func NewKeycloakDirectory(cfg config.KeycloakConfig) *KeycloakDirectory {
	if cfg.URL == "" || cfg.ClerkGroupID == "" {
		return nil
	}
	base := strings.TrimSuffix(cfg.URL, "/")
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", base, cfg.Realm),
	}
	hc := cc.Client(context.Background())
	hc.Timeout = 30 * time.Second

	return &KeycloakDirectory{
		baseURL: base,
		realm:   cfg.Realm,
		groupID: cfg.ClerkGroupID,
		client:  httpclient.NewClient(30*time.Second, httpclient.WithHTTPClient(hc), httpclient.WithRetries(2, 250*time.Millisecond)),
	}
}

func newKeycloakDirectoryWithClient(baseURL, realm, groupID string, hc *http.Client) *KeycloakDirectory {
	return &KeycloakDirectory{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		realm:   realm,
		groupID: groupID,
		client:  httpclient.NewClient(5*time.Second, httpclient.WithHTTPClient(hc)),
	}
}

// ListClerks returns enabled members of the clerk group.
func (k *KeycloakDirectory) ListClerks(ctx context.Context) ([]Clerk, error) {
	endpoint := fmt.Sprintf("%s/admin/realms/%s/groups/%s/members?briefRepresentation=true&max=500",
		k.baseURL, url.PathEscape(k.realm), url.PathEscape(k.groupID))

	var members []Clerk
	if err := k.client.DoJSON(ctx, http.MethodGet, endpoint, nil, &members); err != nil {
		return nil, errors.NewExternalServiceError("keycloak", err)
	}

	clerks := make([]Clerk, 0, len(members))
	for _, m := range members {
		if m.Enabled {
			clerks = append(clerks, m)
		}
	}
	return clerks, nil
}
