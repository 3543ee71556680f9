package repository

import (
	"context"
	"errors"
	"strings"

	"shortlify/internal/models"

	"gorm.io/gorm"
)

// GormStore keeps links in a relational database, events in their own table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func eventsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id asc")
}

func (s *GormStore) findOne(ctx context.Context, op, query string, arg string) (*models.Link, error) {
	return s.first(op, s.db.WithContext(ctx).Preload("Events", eventsInOrder), query, arg)
}

func (s *GormStore) first(op string, db *gorm.DB, query string, arg string) (*models.Link, error) {
	var link models.Link
	err := db.Where(query, arg).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &link, nil
}

func (s *GormStore) FindByShortID(ctx context.Context, shortID string) (*models.Link, error) {
	return s.findOne(ctx, "find_by_short_id", "short_id = ?", shortID)
}

func (s *GormStore) FindByAlias(ctx context.Context, alias string) (*models.Link, error) {
	return s.findOne(ctx, "find_by_alias", "custom_alias = ?", alias)
}

func (s *GormStore) FindRoute(ctx context.Context, shortID string) (*models.Link, error) {
	return s.first("find_route", s.db.WithContext(ctx), "short_id = ?", shortID)
}

func (s *GormStore) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Link{}).
		Where("short_id = ? OR custom_alias = ?", key, key).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, storageErr("exists", err)
	}
	return n > 0, nil
}

func (s *GormStore) Insert(ctx context.Context, link *models.Link) error {
	err := s.db.WithContext(ctx).Omit("Events").Create(link).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return storageErr("insert", err)
	}
	return nil
}

func (s *GormStore) RecordClick(ctx context.Context, shortID string, event models.AnalyticsEvent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Link{}).Where("short_id = ?", shortID).Updates(map[string]interface{}{
			"click_count": gorm.Expr("click_count + ?", 1),
			"updated_at":  event.Timestamp,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		event.ID = 0
		event.LinkShortID = shortID
		return tx.Create(&event).Error
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("record_click", err)
	}
	return nil
}

func (s *GormStore) SetActive(ctx context.Context, shortID string, active bool) error {
	res := s.db.WithContext(ctx).Model(&models.Link{}).Where("short_id = ?", shortID).Update("is_active", active)
	if res.Error != nil {
		return storageErr("set_active", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, shortID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_short_id = ?", shortID).Delete(&models.AnalyticsEvent{}).Error; err != nil {
			return err
		}
		res := tx.Where("short_id = ?", shortID).Delete(&models.Link{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("delete", err)
	}
	return nil
}

func (s *GormStore) FindAllByOwner(ctx context.Context, ownerRef string) ([]models.Link, error) {
	links := make([]models.Link, 0)
	err := s.db.WithContext(ctx).Preload("Events", eventsInOrder).
		Where("owner_ref = ?", ownerRef).
		Order("created_at asc").
		Find(&links).Error
	if err != nil {
		return nil, storageErr("find_all_by_owner", err)
	}
	return links, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}
