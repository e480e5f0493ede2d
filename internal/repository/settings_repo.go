package repository

import (
	"context"

	"salon-inventory/internal/model"

	"gorm.io/gorm"
)

type SettingsRepository interface {
	// Get returns the singleton row, inserting defaults on first read.
	Get(ctx context.Context) (*model.Settings, error)
	Save(ctx context.Context, settings *model.Settings) error
}

type settingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepo(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db}
}

func (r *settingsRepo) Get(ctx context.Context) (*model.Settings, error) {
	settings := model.DefaultSettings()
	err := r.db.WithContext(ctx).
		Where(model.Settings{ID: model.SettingsID}).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepo) Save(ctx context.Context, settings *model.Settings) error {
	settings.ID = model.SettingsID
	return r.db.WithContext(ctx).Save(settings).Error
}
