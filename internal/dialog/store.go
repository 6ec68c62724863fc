package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists conversation state between turns, scoped by clinic.
type SessionStore interface {
	Create(ctx context.Context, clinicID uuid.UUID) (*Session, error)
	Get(ctx context.Context, clinicID, sessionID uuid.UUID) (*Session, error)
	Save(ctx context.Context, sess *Session) error
}

// RedisSessionStore keeps sessions as JSON blobs with a TTL; an idle
// conversation simply ages out.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(clinicID, sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:%s", clinicID.String(), sessionID.String())
}

func (s *RedisSessionStore) Create(ctx context.Context, clinicID uuid.UUID) (*Session, error) {
	sess := &Session{
		ID:       uuid.New(),
		ClinicID: clinicID,
		Stage:    StageAskName,
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, clinicID, sessionID uuid.UUID) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(clinicID, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &sess, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sess.ClinicID, sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	return nil
}
