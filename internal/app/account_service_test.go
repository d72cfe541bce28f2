package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"userhub/internal/cache"
	"userhub/internal/model"
	"userhub/internal/pkg/password"
	"userhub/internal/repository"
)

func newTestService(t *testing.T) *AccountService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))
	return NewAccountService(repository.NewUserRepository(db), nil, nil)
}

func signupTestUser(t *testing.T, svc *AccountService) *model.User {
	t.Helper()
	user, err := svc.Signup(context.Background(), SignupInput{
		Email:     "a@x.com",
		Password:  "longenough1",
		FirstName: "A",
		LastName:  "B",
	})
	require.NoError(t, err)
	return user
}

func TestSignupHashesPassword(t *testing.T) {
	svc := newTestService(t)
	user := signupTestUser(t, svc)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "longenough1", user.PasswordHash)
	assert.True(t, password.Verify("longenough1", user.PasswordHash))
}

func TestSignupNormalizesEmail(t *testing.T) {
	svc := newTestService(t)
	user, err := svc.Signup(context.Background(), SignupInput{
		Email:     "  A@X.COM ",
		Password:  "longenough1",
		FirstName: "A",
		LastName:  "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
}

func TestSignupRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t)

	cases := []SignupInput{
		{Email: "", Password: "longenough1", FirstName: "A", LastName: "B"},
		{Email: "a@x.com", Password: "short", FirstName: "A", LastName: "B"},
		{Email: "a@x.com", Password: "longenough1", FirstName: "", LastName: "B"},
		{Email: "a@x.com", Password: "longenough1", FirstName: "A", LastName: ""},
	}
	for _, input := range cases {
		_, err := svc.Signup(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidInput, "input %+v", input)
	}
}

func TestSignupDuplicateEmailFails(t *testing.T) {
	svc := newTestService(t)
	signupTestUser(t, svc)

	_, err := svc.Signup(context.Background(), SignupInput{
		Email:     "a@x.com",
		Password:  "longenough2",
		FirstName: "C",
		LastName:  "D",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)
	created := signupTestUser(t, svc)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "a@x.com", "longenough1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	// Email matching is case-insensitive; storage is lowercase.
	user, err = svc.Authenticate(ctx, "A@X.COM", "longenough1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.Authenticate(ctx, "a@x.com", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Authenticate(ctx, "nobody@x.com", "longenough1")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestAuthenticateMalformedStoredHash(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.userRepo.Create(&model.User{
		Email:        "broken@x.com",
		PasswordHash: "not-a-bcrypt-hash",
		FirstName:    "A",
		LastName:     "B",
	}))

	_, err := svc.Authenticate(context.Background(), "broken@x.com", "longenough1")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestUpdateProfilePartialMerge(t *testing.T) {
	svc := newTestService(t)
	created := signupTestUser(t, svc)
	ctx := context.Background()

	time.Sleep(10 * time.Millisecond)

	updated, err := svc.UpdateProfile(ctx, created, ProfileUpdateInput{FirstName: "Alice"})
	require.NoError(t, err)

	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, created.LastName, updated.LastName)
	assert.Equal(t, created.PasswordHash, updated.PasswordHash)
	assert.True(t, updated.AccountUpdated.After(created.AccountUpdated))

	// Old password still works after a name-only update.
	_, err = svc.Authenticate(ctx, "a@x.com", "longenough1")
	require.NoError(t, err)
}

func TestUpdateProfilePasswordRehash(t *testing.T) {
	svc := newTestService(t)
	created := signupTestUser(t, svc)
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, created, ProfileUpdateInput{Password: "longenough2"})
	require.NoError(t, err)
	assert.NotEqual(t, created.PasswordHash, updated.PasswordHash)

	_, err = svc.Authenticate(ctx, "a@x.com", "longenough1")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	user, err := svc.Authenticate(ctx, "a@x.com", "longenough2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestUpdateProfileRejectsShortPassword(t *testing.T) {
	svc := newTestService(t)
	created := signupTestUser(t, svc)

	_, err := svc.UpdateProfile(context.Background(), created, ProfileUpdateInput{Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateProfileEmptyInputBumpsTimestamp(t *testing.T) {
	svc := newTestService(t)
	created := signupTestUser(t, svc)

	time.Sleep(10 * time.Millisecond)

	updated, err := svc.UpdateProfile(context.Background(), created, ProfileUpdateInput{})
	require.NoError(t, err)

	assert.Equal(t, created.FirstName, updated.FirstName)
	assert.Equal(t, created.LastName, updated.LastName)
	assert.Equal(t, created.PasswordHash, updated.PasswordHash)
	assert.True(t, updated.AccountUpdated.After(created.AccountUpdated))
}

func TestAuthenticateWithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))

	svc := NewAccountService(
		repository.NewUserRepository(db),
		cache.NewUserCache(client, time.Minute),
		nil,
	)
	created := signupTestUser(t, svc)
	ctx := context.Background()

	// First authenticate fills the cache.
	_, err = svc.Authenticate(ctx, "a@x.com", "longenough1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("user:email:a@x.com"))

	// Second authenticate is served from the cache.
	user, err := svc.Authenticate(ctx, "a@x.com", "longenough1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	// A profile update invalidates the entry.
	_, err = svc.UpdateProfile(ctx, created, ProfileUpdateInput{FirstName: "Alice"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("user:email:a@x.com"))
}
