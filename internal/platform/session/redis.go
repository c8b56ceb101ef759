package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// Record is the audit trail entry written for every token issuance: who got
// a token, from where, and until when. Writing it is a side effect of login
// and must never fail the login itself.
type Record struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	IPAddress    string    `json:"ip_address"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Store keeps issuance records in Redis, expiring with the refresh lifetime.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func Connect(addr, password string, db int, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		// Audit is best-effort; a missing Redis only degrades it.
		log.Printf("Could not connect to Redis, session audit degraded: %v", err)
	} else {
		fmt.Println("Successfully connected to Redis!")
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Save stores the record under the access token's jti.
func (s *Store) Save(ctx context.Context, jti string, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+jti, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	if s.rdb != nil {
		s.rdb.Close()
		fmt.Println("Redis connection closed.")
	}
}
