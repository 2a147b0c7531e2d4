// Package strava imports activities from the Strava API into the session store.
package strava

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/claude/trainsync/internal/store"
)

const keyToken = "strava_token"

// Endpoint is Strava's OAuth2 endpoint. Strava expects client credentials
// in the request body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://www.strava.com/oauth/authorize",
	TokenURL:  "https://www.strava.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

var (
	// ErrNotConnected is returned when no token has been stored yet.
	ErrNotConnected = errors.New("strava account not connected")
	// ErrStateMismatch is returned when the callback state does not match.
	ErrStateMismatch = errors.New("oauth state mismatch")
)

// AuthConfig holds the OAuth2 client registration.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint defaults to Endpoint when zero.
	Endpoint oauth2.Endpoint
}

// Auth runs the authorization-code flow and keeps the token in the local store.
type Auth struct {
	cfg *oauth2.Config
	kv  store.KV
	log *slog.Logger

	mu    sync.Mutex
	state string
}

// NewAuth creates an Auth.
func NewAuth(c AuthConfig, kv store.KV, log *slog.Logger) *Auth {
	ep := c.Endpoint
	if ep.TokenURL == "" {
		ep = Endpoint
	}
	return &Auth{
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     ep,
			Scopes:       []string{"read,activity:read_all"},
		},
		kv:  kv,
		log: log,
	}
}

// AuthCodeURL starts a new authorization and returns the redirect URL.
func (a *Auth) AuthCodeURL() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	state := hex.EncodeToString(b)

	a.mu.Lock()
	a.state = state
	a.mu.Unlock()

	return a.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto")), nil
}

// Exchange completes the flow started by AuthCodeURL and stores the token.
func (a *Auth) Exchange(ctx context.Context, state, code string) error {
	a.mu.Lock()
	expected := a.state
	a.state = ""
	a.mu.Unlock()

	if expected == "" || state != expected {
		return ErrStateMismatch
	}
	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging code: %w", err)
	}
	if err := a.saveToken(ctx, tok); err != nil {
		return err
	}
	a.log.Info("strava account connected", "expires", tok.Expiry)
	return nil
}

// Connected reports whether a token is stored.
func (a *Auth) Connected(ctx context.Context) bool {
	tok, err := a.token(ctx)
	return err == nil && tok != nil
}

// Disconnect forgets the stored token.
func (a *Auth) Disconnect(ctx context.Context) error {
	if err := a.kv.PutJSON(ctx, keyToken, nil); err != nil {
		return fmt.Errorf("clearing strava token: %w", err)
	}
	return nil
}

// HTTPClient returns a client that authorizes requests with the stored
// token, refreshing it when it expires. Refreshed tokens are persisted.
func (a *Auth) HTTPClient(ctx context.Context) (*http.Client, error) {
	tok, err := a.token(ctx)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, ErrNotConnected
	}
	src := &persistingSource{
		base: a.cfg.TokenSource(ctx, tok),
		last: tok.AccessToken,
		save: func(t *oauth2.Token) error { return a.saveToken(ctx, t) },
		log:  a.log,
	}
	return oauth2.NewClient(ctx, src), nil
}

func (a *Auth) token(ctx context.Context) (*oauth2.Token, error) {
	var tok *oauth2.Token
	if _, err := a.kv.GetJSON(ctx, keyToken, &tok); err != nil {
		return nil, fmt.Errorf("reading strava token: %w", err)
	}
	if tok == nil || (tok.AccessToken == "" && tok.RefreshToken == "") {
		return nil, nil
	}
	return tok, nil
}

func (a *Auth) saveToken(ctx context.Context, tok *oauth2.Token) error {
	if err := a.kv.PutJSON(ctx, keyToken, tok); err != nil {
		return fmt.Errorf("persisting strava token: %w", err)
	}
	return nil
}

// persistingSource writes the token back whenever the underlying source refreshed it.
type persistingSource struct {
	base oauth2.TokenSource
	save func(*oauth2.Token) error
	log  *slog.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing strava token: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.save(tok); err != nil {
			p.log.Warn("could not persist refreshed token", "error", err)
		} else {
			p.last = tok.AccessToken
		}
	}
	return tok, nil
}
