package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound indicates the session id has no backing record.
var ErrSessionNotFound = errors.New("identity: session not found")

// Store persists actor sessions in Redis. The session issuer (login, TOTP)
// lives outside this service; the store only reads back what it issued.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Issue creates a session for the actor and returns its opaque id.
func (s *Store) Issue(ctx context.Context, actor *ActorContext) (string, error) {
	if actor == nil || actor.UserID == "" {
		return "", errors.New("identity: actor with user id required")
	}
	payload, err := json.Marshal(actor)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := s.client.Set(ctx, s.redisKey(id), payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// Load resolves a session id into an ActorContext.
func (s *Store) Load(ctx context.Context, sessionID string) (*ActorContext, error) {
	payload, err := s.client.Get(ctx, s.redisKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var actor ActorContext
	if err := json.Unmarshal(payload, &actor); err != nil {
		return nil, err
	}
	return &actor, nil
}

// Revoke removes a session.
func (s *Store) Revoke(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.redisKey(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) redisKey(id string) string {
	return "actor_session:" + id
}
