package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"userhub/internal/cache"
	"userhub/internal/model"
	"userhub/internal/pkg/password"
	"userhub/internal/platform/rabbitmq"
	"userhub/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidCredential = errors.New("invalid email or password")
)

// AccountService owns the credential-verification and profile-mutation
// logic. Cache and publisher are optional; either may be nil when the
// corresponding backend is not configured.
type AccountService struct {
	userRepo  *repository.UserRepository
	userCache *cache.UserCache
	publisher *rabbitmq.EventPublisher
}

type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// ProfileUpdateInput carries one optional value per mutable field. Empty
// means "leave the stored value alone".
type ProfileUpdateInput struct {
	FirstName string
	LastName  string
	Password  string
}

func NewAccountService(userRepo *repository.UserRepository, userCache *cache.UserCache, publisher *rabbitmq.EventPublisher) *AccountService {
	return &AccountService{
		userRepo:  userRepo,
		userCache: userCache,
		publisher: publisher,
	}
}

// Signup hashes the plaintext password and inserts the record. Duplicate
// email is not pre-checked: the store's unique constraint is the source of
// truth, and every store failure looks the same to the caller.
func (s *AccountService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	plaintext := strings.TrimSpace(input.Password)
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)

	if email == "" || firstName == "" || lastName == "" || len(plaintext) < 8 {
		return nil, ErrInvalidInput
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, model.AuditActionAccountCreated, user)
	return user, nil
}

// Authenticate resolves claimed credentials to the matching user, or
// ErrInvalidCredential. Store read failures are logged and degrade to the
// same no-match answer the client would see for a wrong password.
func (s *AccountService) Authenticate(ctx context.Context, email, plaintext string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || plaintext == "" {
		return nil, ErrInvalidCredential
	}

	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		log.Printf("authenticate: lookup %q failed: %v", email, err)
		return nil, ErrInvalidCredential
	}
	if user == nil {
		// Unknown email returns before any bcrypt work. The timing
		// asymmetry against known emails is accepted here.
		return nil, ErrInvalidCredential
	}

	if !password.Verify(plaintext, user.PasswordHash) {
		return nil, ErrInvalidCredential
	}
	return user, nil
}

// UpdateProfile merges the partial input with the stored record and
// persists the result. An input with no fields set is a legal no-op that
// still bumps account_updated.
func (s *AccountService) UpdateProfile(ctx context.Context, existing *model.User, input ProfileUpdateInput) (*model.User, error) {
	patch, err := s.buildPatch(existing, input)
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.UpdateByID(existing.ID, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("update user %d failed: record not found", existing.ID)
	}

	if s.userCache != nil {
		if err := s.userCache.Delete(ctx, updated.Email); err != nil {
			log.Printf("update profile: invalidate cache for %q failed: %v", updated.Email, err)
		}
	}
	s.publishEvent(ctx, model.AuditActionAccountUpdated, updated)
	return updated, nil
}

// buildPatch resolves each mutable field: a non-empty input value wins, an
// empty one carries the stored value forward. A new password is hashed
// before it enters the patch.
func (s *AccountService) buildPatch(existing *model.User, input ProfileUpdateInput) (repository.Patch, error) {
	patch := repository.Patch{
		FirstName:    existing.FirstName,
		LastName:     existing.LastName,
		PasswordHash: existing.PasswordHash,
	}

	if v := strings.TrimSpace(input.FirstName); v != "" {
		patch.FirstName = v
	}
	if v := strings.TrimSpace(input.LastName); v != "" {
		patch.LastName = v
	}
	if v := strings.TrimSpace(input.Password); v != "" {
		if len(v) < 8 {
			return repository.Patch{}, ErrInvalidInput
		}
		hash, err := password.Hash(v)
		if err != nil {
			return repository.Patch{}, err
		}
		patch.PasswordHash = hash
	}
	return patch, nil
}

func (s *AccountService) lookupByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.userCache != nil {
		user, hit, err := s.userCache.GetByEmail(ctx, email)
		if err != nil {
			log.Printf("authenticate: cache read for %q failed: %v", email, err)
		} else if hit {
			return user, nil
		}
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user != nil && s.userCache != nil {
		if err := s.userCache.Set(ctx, user); err != nil {
			log.Printf("authenticate: cache write for %q failed: %v", email, err)
		}
	}
	return user, nil
}

// publishEvent is best-effort: audit must never fail a request.
func (s *AccountService) publishEvent(ctx context.Context, action string, user *model.User) {
	if s.publisher == nil {
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	event := rabbitmq.AccountEvent{
		Action:     action,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(publishCtx, event); err != nil {
		log.Printf("publish %s event for user %d failed: %v", action, user.ID, err)
	}
}
