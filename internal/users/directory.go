package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"asset-registry-backend/internal/model"
)

// Directory is the minimal user lookup the registry consumes. User
// management proper lives outside this service; the directory only
// resolves business keys and seeds rows for bootstrap and tests.
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a gorm-backed user directory.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// WithTx returns a directory bound to the given transaction.
func (d *Directory) WithTx(tx *gorm.DB) *Directory {
	return &Directory{db: tx}
}

// FindByBusinessKey resolves a user by legajo or reports NotFound.
func (d *Directory) FindByBusinessKey(ctx context.Context, legajo string) (*model.User, error) {
	var user model.User
	err := d.db.WithContext(ctx).Where("legajo = ?", legajo).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &model.NotFoundError{Entity: "user", Key: legajo}
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", legajo, err)
	}
	return &user, nil
}

// List returns all users ordered by legajo.
func (d *Directory) List(ctx context.Context) ([]model.User, error) {
	var all []model.User
	if err := d.db.WithContext(ctx).Order("legajo ASC").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return all, nil
}

// Create persists a new user row. Used by seeding and tests.
func (d *Directory) Create(ctx context.Context, user *model.User) error {
	if !user.Site.Valid() {
		return &model.InvalidEnumError{Kind: "site", Value: string(user.Site)}
	}
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user %s: %w", user.Legajo, err)
	}
	return nil
}
