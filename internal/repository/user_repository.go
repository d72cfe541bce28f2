package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"userhub/internal/model"
)

// Patch carries the already-resolved next value for every mutable field of a
// user record. Callers merge request input with the existing record before
// handing it to UpdateByID; the store applies it verbatim.
type Patch struct {
	FirstName    string
	LastName     string
	PasswordHash string
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. Constraint violations, duplicate email
// included, come back as a wrapped error; the generated id and timestamps
// are populated on success.
func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

// GetByEmail returns (nil, nil) when no user has the given email. An error
// means the query itself failed, not that the user is absent.
func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

// UpdateByID overwrites the mutable fields from patch, stamps
// account_updated and returns the refreshed record. The stamp is
// unconditional: a patch identical to the stored state still bumps it.
// Returns (nil, nil) when no record has the given id.
func (r *UserRepository) UpdateByID(id uint, patch Patch) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}

	user.FirstName = patch.FirstName
	user.LastName = patch.LastName
	user.PasswordHash = patch.PasswordHash
	user.AccountUpdated = time.Now().UTC()

	if err := r.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("update user failed: %w", err)
	}
	return &user, nil
}

// CheckHealth runs a trivial round-trip query against the store. Used by the
// health endpoint only.
func (r *UserRepository) CheckHealth(ctx context.Context) error {
	var one int
	if err := r.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return fmt.Errorf("store health query failed: %w", err)
	}
	return nil
}
