package account

import (
	"context"
	"errors"

	"userhub/account-api/model"

	"gorm.io/gorm"
)

// GormStore persists accounts through GORM. It satisfies Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &u, nil
}

func (s *GormStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &u, nil
}

// Create maps a unique-index violation onto ErrEmailTaken so a
// duplicate that slips past the pre-insert check still reports as a
// conflict instead of a storage failure
func (s *GormStore) Create(ctx context.Context, u *model.User) error {
	err := s.db.WithContext(ctx).Create(u).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}

	return err
}

func (s *GormStore) Save(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}
