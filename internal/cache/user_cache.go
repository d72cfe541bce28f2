package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"userhub/internal/model"
)

// UserCache is a short-TTL read-through cache for the by-email lookup. Every
// request re-authenticates, so that lookup is the hot path; entries are
// deleted whenever the profile mutates.
type UserCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewUserCache(client *redisv9.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &UserCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *UserCache) GetByEmail(ctx context.Context, email string) (*model.User, bool, error) {
	raw, err := c.client.Get(ctx, c.userKey(email)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get user failed: %w", err)
	}

	var cached cachedUser
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached user failed: %w", err)
	}
	return cached.toModel(), true, nil
}

func (c *UserCache) Set(ctx context.Context, user *model.User) error {
	payload, err := json.Marshal(newCachedUser(user))
	if err != nil {
		return fmt.Errorf("marshal user cache entry failed: %w", err)
	}
	if err := c.client.Set(ctx, c.userKey(user.Email), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set user failed: %w", err)
	}
	return nil
}

func (c *UserCache) Delete(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, c.userKey(email)).Err(); err != nil {
		return fmt.Errorf("redis delete user failed: %w", err)
	}
	return nil
}

func (c *UserCache) userKey(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}

// cachedUser exists because model.User hides the password hash from JSON,
// and the cache needs it back to serve the credential check.
type cachedUser struct {
	ID             uint      `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"password_hash"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	AccountCreated time.Time `json:"account_created"`
	AccountUpdated time.Time `json:"account_updated"`
}

func newCachedUser(u *model.User) cachedUser {
	return cachedUser{
		ID:             u.ID,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		AccountCreated: u.AccountCreated,
		AccountUpdated: u.AccountUpdated,
	}
}

func (c cachedUser) toModel() *model.User {
	return &model.User{
		ID:             c.ID,
		Email:          c.Email,
		PasswordHash:   c.PasswordHash,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		AccountCreated: c.AccountCreated,
		AccountUpdated: c.AccountUpdated,
	}
}
