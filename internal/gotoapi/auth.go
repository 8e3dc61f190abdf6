package gotoapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	errx "github.com/calldash/server/internal/core/error"
	"github.com/calldash/server/internal/model"
	logx "github.com/calldash/server/pkg/logger"
	"github.com/calldash/server/pkg/metrics"
	"golang.org/x/oauth2"
)

const (
	// expiryMargin is how long before expiry a cached token is refreshed.
	expiryMargin = 60 * time.Second
	// defaultExpiresIn applies when the token endpoint omits expires_in.
	defaultExpiresIn = 3600 * time.Second
)

// ErrNoCredentials is returned when neither a static token nor a refresh
// grant is configured.
var ErrNoCredentials = errors.New("no provider credentials configured")

// NewTokenSource picks the refresh grant when it is fully configured and
// falls back to the static access token otherwise. hc is used for token
// requests and may be nil.
func NewTokenSource(ctx context.Context, cfg model.ProviderConfig, store model.TokenStore, hc *http.Client) (oauth2.TokenSource, error) {
	if cfg.UsesOAuth() {
		return NewRefreshTokenSource(ctx, cfg, store, hc), nil
	}
	if cfg.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"}), nil
	}
	return nil, ErrNoCredentials
}

// RefreshTokenSource exchanges a long lived refresh token for access tokens.
// Tokens are shared through a TokenStore so every replica reuses the same
// one until shortly before expiry.
type RefreshTokenSource struct {
	conf  *oauth2.Config
	ctx   context.Context
	store model.TokenStore
	now   func() time.Time

	mu           sync.Mutex
	refreshToken string
	reuse        oauth2.TokenSource
}

func NewRefreshTokenSource(ctx context.Context, cfg model.ProviderConfig, store model.TokenStore, hc *http.Client) *RefreshTokenSource {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	if store == nil {
		store = NewMemoryTokenStore()
	}
	s := &RefreshTokenSource{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		ctx:          context.WithValue(ctx, oauth2.HTTPClient, hc),
		store:        store,
		now:          time.Now,
		refreshToken: cfg.RefreshToken,
	}
	s.reuse = s.newReuse()
	return s
}

func (s *RefreshTokenSource) newReuse() oauth2.TokenSource {
	return oauth2.ReuseTokenSourceWithExpiry(nil, storedTokenSource{s}, expiryMargin)
}

func (s *RefreshTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	src := s.reuse
	s.mu.Unlock()
	return src.Token()
}

// Invalidate drops the cached token after the provider rejected it.
func (s *RefreshTokenSource) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx); err != nil {
		logx.Warn().Err(err).Msg("failed to drop cached token")
	}
	s.reuse = s.newReuse()
}

// storedTokenSource serves the token from the store and refreshes it when
// the stored one is missing or about to expire.
type storedTokenSource struct {
	s *RefreshTokenSource
}

func (t storedTokenSource) Token() (*oauth2.Token, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, err := s.store.Load(s.ctx)
	if err != nil {
		// A broken cache should not take the dashboard down.
		logx.Warn().Err(err).Msg("failed to load cached token, refreshing")
	}
	if cached.ValidAt(s.now(), expiryMargin) {
		return &oauth2.Token{AccessToken: cached.AccessToken, TokenType: "Bearer", Expiry: cached.ExpiresAt}, nil
	}

	tok, err := s.conf.TokenSource(s.ctx, &oauth2.Token{RefreshToken: s.refreshToken}).Token()
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		return nil, tokenError(err)
	}
	metrics.TokenRefreshesTotal.WithLabelValues("ok").Inc()

	if tok.RefreshToken != "" && tok.RefreshToken != s.refreshToken {
		logx.Info().Msg("provider rotated the refresh token")
		s.refreshToken = tok.RefreshToken
	}
	// oauth2 leaves Expiry zero, meaning never, when expires_in is absent.
	if tok.Expiry.IsZero() {
		tok.Expiry = s.now().Add(defaultExpiresIn)
	}

	if err := s.store.Save(s.ctx, model.Token{AccessToken: tok.AccessToken, ExpiresAt: tok.Expiry}); err != nil {
		logx.Warn().Err(err).Msg("failed to cache access token")
	}
	logx.Info().Time("expiresAt", tok.Expiry).Msg("refreshed provider access token")
	return tok, nil
}

func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		upstream := &errx.UpstreamError{
			Endpoint: "token",
			Status:   re.Response.StatusCode,
			Body:     strings.TrimSpace(string(re.Body)),
		}
		logx.Error().Int("status", upstream.Status).Msg("token refresh rejected")
		return errx.WrapUpstream(upstream, upstream.Status)
	}
	return errx.WrapUpstream(fmt.Errorf("token: %w", err), 0)
}

// MemoryTokenStore keeps the token in process. Used when Redis is not wired,
// mostly by the CLI commands.
type MemoryTokenStore struct {
	mu  sync.Mutex
	tok *model.Token
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Load(context.Context) (*model.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == nil {
		return nil, nil
	}
	t := *m.tok
	return &t, nil
}

func (m *MemoryTokenStore) Save(_ context.Context, token model.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = &token
	return nil
}

func (m *MemoryTokenStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = nil
	return nil
}

var (
	_ model.TokenStore   = (*MemoryTokenStore)(nil)
	_ oauth2.TokenSource = (*RefreshTokenSource)(nil)
)
