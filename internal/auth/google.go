package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleConfig holds the OAuth client registered for sign-in.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleProvider runs the OAuth2 authorization code flow against Google.
type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthCodeURL is where the browser is sent to pick an account.
func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUser struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Callback completes the flow from the redirect's query parameters. A user
// who dismisses the consent screen yields CodePopupClosedByUser.
func (g *GoogleProvider) Callback(ctx context.Context, q url.Values) (Identity, error) {
	if e := q.Get("error"); e != "" {
		if e == "access_denied" {
			return Identity{}, newError(CodePopupClosedByUser, nil)
		}
		return Identity{}, newError(CodeInvalidCredential, fmt.Errorf("oauth error: %s", e))
	}
	code := q.Get("code")
	if code == "" {
		return Identity{}, newError(CodeInvalidCredential, errors.New("missing code"))
	}

	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, classify(err)
	}
	resp, err := g.oauth.Client(ctx, tok).Get(g.userInfoURL)
	if err != nil {
		return Identity{}, classify(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, newError(CodeInvalidCredential, fmt.Errorf("userinfo status %d", resp.StatusCode))
	}
	var u googleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return Identity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if u.Sub == "" {
		return Identity{}, newError(CodeInvalidCredential, errors.New("userinfo without subject"))
	}
	return Identity{UID: "google-" + u.Sub, DisplayName: u.Name, Email: u.Email}, nil
}

func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return newError(CodeNetworkRequestFail, err)
	}
	return newError(CodeInvalidCredential, err)
}
