package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront/pkg/config"
	redisclient "github.com/angelmondragon/storefront/pkg/redis"
)

const secretBytes = 32

var ErrInvalidSession = errors.New("invalid session")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Manager issues opaque session tokens of the form "<session id>.<secret>"
// and resolves them back to a user id. Only the secret's owner can present
// a valid token for a given session id.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Resolver exposes the read-only surface needed by middleware.
type Resolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store: client,
		keyer: client,
		ttl:   cfg.TTL,
	}, nil
}

// TTL is the lifetime of newly issued sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create opens a session for userID and returns the token to hand to the client.
func (m *Manager) Create(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("user id is required")
	}
	sessionID := uuid.NewString()
	secret, err := generateSecret()
	if err != nil {
		return "", err
	}
	value := strconv.FormatInt(userID, 10) + ":" + secret
	if err := m.store.Set(ctx, m.keyer.SessionKey(sessionID), value, m.ttl); err != nil {
		return "", err
	}
	return sessionID + "." + secret, nil
}

// Resolve returns the user behind token or ErrInvalidSession.
func (m *Manager) Resolve(ctx context.Context, token string) (int64, error) {
	sessionID, secret, ok := splitToken(token)
	if !ok {
		return 0, ErrInvalidSession
	}
	stored, err := m.store.Get(ctx, m.keyer.SessionKey(sessionID))
	if err != nil {
		return 0, wrapNotFound(err)
	}

	rawUserID, storedSecret, found := strings.Cut(stored, ":")
	if !found {
		return 0, ErrInvalidSession
	}
	if subtle.ConstantTimeCompare([]byte(storedSecret), []byte(secret)) != 1 {
		return 0, ErrInvalidSession
	}
	userID, err := strconv.ParseInt(rawUserID, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidSession
	}
	return userID, nil
}

// Revoke ends the session. Unknown or malformed tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	sessionID, _, ok := splitToken(token)
	if !ok {
		return nil
	}
	return m.store.Del(ctx, m.keyer.SessionKey(sessionID))
}

func splitToken(token string) (string, string, bool) {
	sessionID, secret, found := strings.Cut(strings.TrimSpace(token), ".")
	if !found || sessionID == "" || secret == "" {
		return "", "", false
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", "", false
	}
	return sessionID, secret, true
}

func generateSecret() (string, error) {
	bytes := make([]byte, secretBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrInvalidSession
	}
	return err
}
