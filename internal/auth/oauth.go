package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// IdentityProvider signs users in through a third-party OAuth2 service.
type IdentityProvider interface {
	Name() string
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// Identity is the profile an identity provider returns after a successful
// code exchange.
type Identity struct {
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
	Token      *oauth2.Token
}

// HTTPClient performs the user info request. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// OAuthProvider holds the configuration for an OAuth2 identity provider.
type OAuthProvider struct {
	ProviderName string
	UserInfoURL  string

	// HTTPClient overrides the token-authenticated client used for the user
	// info request.
	HTTPClient HTTPClient

	oauthConfig *oauth2.Config
	parse       func([]byte) (*Identity, error)
}

// NewGoogleProvider returns an OAuth2 configuration for Google.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		ProviderName: "google",
		UserInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
			RedirectURL:  redirectURL,
		},
		parse: parseGoogleUserInfo,
	}
}

// NewGitHubProvider returns an OAuth2 configuration for GitHub.
func NewGitHubProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		ProviderName: "github",
		UserInfoURL:  "https://api.github.com/user",
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
			RedirectURL:  redirectURL,
		},
		parse: parseGitHubUserInfo,
	}
}

func (p *OAuthProvider) Name() string { return p.ProviderName }

// AuthorizationURL returns the OAuth2 authorization URL with the given state parameter.
func (p *OAuthProvider) AuthorizationURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for tokens and fetches the user's profile.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth.Exchange: %w", err)
	}

	client := p.HTTPClient
	if client == nil {
		client = p.oauthConfig.Client(ctx, token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth.Exchange: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	token.SetAuthHeader(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth.Exchange: fetching user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth.Exchange: user info returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("auth.Exchange: reading user info: %w", err)
	}

	identity, err := p.parse(body)
	if err != nil {
		return nil, err
	}
	identity.Token = token

	return identity, nil
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func parseGoogleUserInfo(data []byte) (*Identity, error) {
	var info googleUserInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("auth.parseGoogleUserInfo: %w", err)
	}

	return &Identity{
		ProviderID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		AvatarURL:  info.Picture,
	}, nil
}

type gitHubUserInfo struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func parseGitHubUserInfo(data []byte) (*Identity, error) {
	var info gitHubUserInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("auth.parseGitHubUserInfo: %w", err)
	}

	displayName := info.Name
	if displayName == "" {
		displayName = info.Login
	}

	return &Identity{
		ProviderID: fmt.Sprintf("%d", info.ID),
		Email:      info.Email,
		Name:       displayName,
		AvatarURL:  info.AvatarURL,
	}, nil
}
