package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront/pkg/config"
	redisclient "github.com/angelmondragon/storefront/pkg/redis"
)

var ErrInvalidSessionID = errors.New("invalid session id")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID, name string) string
}

// Store persists JSON values scoped to an anonymous browser session.
type Store struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewStore constructs a session store backed by Redis.
func NewStore(client *redisclient.Client, cfg config.SessionConfig) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Store{store: client, keyer: client, ttl: cfg.TTL}, nil
}

// Load decodes the named value into dest. It reports false when nothing is stored.
func (s *Store) Load(ctx context.Context, sessionID, name string, dest any) (bool, error) {
	if err := ValidateID(sessionID); err != nil {
		return false, err
	}
	raw, err := s.store.Get(ctx, s.keyer.SessionKey(sessionID, name))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("load session %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decode session %s: %w", name, err)
	}
	return true, nil
}

// Save encodes value and refreshes the session TTL.
func (s *Store) Save(ctx context.Context, sessionID, name string, value any) error {
	if err := ValidateID(sessionID); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", name, err)
	}
	return s.store.Set(ctx, s.keyer.SessionKey(sessionID, name), string(raw), s.ttl)
}

// Delete drops the named value.
func (s *Store) Delete(ctx context.Context, sessionID, name string) error {
	if err := ValidateID(sessionID); err != nil {
		return err
	}
	return s.store.Del(ctx, s.keyer.SessionKey(sessionID, name))
}

// NewID issues a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidateID ensures the identifier is a well-formed uuid.
func ValidateID(sessionID string) error {
	if _, err := uuid.Parse(strings.TrimSpace(sessionID)); err != nil {
		return ErrInvalidSessionID
	}
	return nil
}
