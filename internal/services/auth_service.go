package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"esmalte/internal/logger"
	"esmalte/pkg/esmaltetypes"
)

// AuthService implements esmaltetypes.IdentityProvider by exchanging a
// user-supplied token against an HTTP identity endpoint. The resolved
// identity is cached on disk so a restart does not require signing in again.
type AuthService struct {
	endpoint  string
	cachePath string
	client    *http.Client

	mu          sync.Mutex
	current     *esmaltetypes.Identity
	subscribers []chan *esmaltetypes.Identity
	initialized bool
}

// NewAuthService creates a new AuthService. endpoint may be empty, in which
// case sign-in is unavailable but a cached identity is still honored.
func NewAuthService(endpoint, cachePath string) *AuthService {
	return &AuthService{
		endpoint:  endpoint,
		cachePath: cachePath,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the service name.
func (s *AuthService) Name() string {
	return "auth"
}

// Initialize loads the cached identity, if any.
func (s *AuthService) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, err := os.ReadFile(s.cachePath); err == nil {
		var identity esmaltetypes.Identity
		if err := json.Unmarshal(data, &identity); err == nil && identity.ID != "" {
			s.current = &identity
			logger.Debug("Restored cached identity", "user_id", identity.ID)
		}
	}
	s.initialized = true
	return nil
}

// Current returns the signed-in identity, or nil when anonymous.
func (s *AuthService) Current() *esmaltetypes.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe returns a channel receiving the identity after every sign-in or
// sign-out. The channel is buffered; a slow consumer drops updates rather
// than blocking the auth flow.
func (s *AuthService) Subscribe() <-chan *esmaltetypes.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan *esmaltetypes.Identity, 4)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// SignIn exchanges the token for an identity, caches it, and notifies
// subscribers.
func (s *AuthService) SignIn(ctx context.Context, token string) (*esmaltetypes.Identity, error) {
	if s.endpoint == "" {
		return nil, fmt.Errorf("no identity endpoint configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity endpoint returned status %d", resp.StatusCode)
	}

	var identity esmaltetypes.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}
	if identity.ID == "" {
		return nil, fmt.Errorf("identity response missing user id")
	}

	s.mu.Lock()
	s.current = &identity
	s.mu.Unlock()

	s.persist(&identity)
	s.notify(&identity)
	logger.Info("Signed in", "user_id", identity.ID)
	return &identity, nil
}

// SignOut clears the current identity and its on-disk cache.
func (s *AuthService) SignOut(_ context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := os.Remove(s.cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cached identity: %w", err)
	}
	s.notify(nil)
	logger.Info("Signed out")
	return nil
}

func (s *AuthService) persist(identity *esmaltetypes.Identity) {
	data, err := json.MarshalIndent(identity, "", "  ")
	if err != nil {
		logger.Warn("Failed to encode identity cache", "error", err)
		return
	}
	if err := os.WriteFile(s.cachePath, data, 0600); err != nil {
		logger.Warn("Failed to write identity cache", "error", err)
	}
}

func (s *AuthService) notify(identity *esmaltetypes.Identity) {
	s.mu.Lock()
	subscribers := make([]chan *esmaltetypes.Identity, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()
	for _, ch := range subscribers {
		select {
		case ch <- identity:
		default:
		}
	}
}

// MockIdentityProvider is a test double implementing
// esmaltetypes.IdentityProvider with a fixed identity.
type MockIdentityProvider struct {
	Identity  *esmaltetypes.Identity
	SignInErr error

	updates chan *esmaltetypes.Identity
}

// Current returns the configured identity.
func (m *MockIdentityProvider) Current() *esmaltetypes.Identity {
	return m.Identity
}

// Subscribe returns the shared updates channel.
func (m *MockIdentityProvider) Subscribe() <-chan *esmaltetypes.Identity {
	if m.updates == nil {
		m.updates = make(chan *esmaltetypes.Identity, 4)
	}
	return m.updates
}

// SignIn sets the identity from the configured value.
func (m *MockIdentityProvider) SignIn(_ context.Context, _ string) (*esmaltetypes.Identity, error) {
	if m.SignInErr != nil {
		return nil, m.SignInErr
	}
	return m.Identity, nil
}

// SignOut clears the identity.
func (m *MockIdentityProvider) SignOut(_ context.Context) error {
	m.Identity = nil
	return nil
}
