package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"scout-admin-system/apperrors"
	"scout-admin-system/models"
)

// gormCollection backs a collection with a Postgres table via GORM. Filter
// maps go straight into Where, so keys are column names.
type gormCollection[T Entity] struct {
	db *gorm.DB
}

func (c gormCollection[T]) Filter(ctx context.Context, fields map[string]any) ([]T, error) {
	var out []T
	q := c.db.WithContext(ctx)
	if len(fields) > 0 {
		q = q.Where(fields)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStoreUnavailable, "filter failed")
	}
	return out, nil
}

func (c gormCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	err := c.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rec, apperrors.ErrNotFound
		}
		return rec, apperrors.Wrap(err, apperrors.ErrCodeStoreUnavailable, "get failed")
	}
	return rec, nil
}

func (c gormCollection[T]) Create(ctx context.Context, rec T) error {
	if err := c.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStoreUnavailable, "create failed")
	}
	return nil
}

func (c gormCollection[T]) Update(ctx context.Context, rec T) error {
	if err := c.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStoreUnavailable, "update failed")
	}
	return nil
}

// Delete removes the row outright. A soft delete would leave the dead row in
// the composite unique indexes, so delete-on-zero followed by a fresh
// completion (or retract-then-re-award) would hit a duplicate key.
func (c gormCollection[T]) Delete(ctx context.Context, id string) error {
	var rec T
	if err := c.db.WithContext(ctx).Unscoped().Delete(&rec, "id = ?", id).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStoreUnavailable, "delete failed")
	}
	return nil
}

// NewGormStore wires every collection to the given database handle.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Badges:       gormCollection[models.BadgeDefinition]{db: db},
		Modules:      gormCollection[models.BadgeModule]{db: db},
		Requirements: gormCollection[models.BadgeRequirement]{db: db},

		RequirementProgress: gormCollection[models.MemberRequirementProgress]{db: db},
		BadgeProgress:       gormCollection[models.MemberBadgeProgress]{db: db},
		Awards:              gormCollection[models.MemberBadgeAward]{db: db},

		Members:        gormCollection[models.Member]{db: db},
		NightsAwayLogs: gormCollection[models.NightsAwayLog]{db: db},

		Programmes: gormCollection[models.Programme]{db: db},
		Events:     gormCollection[models.Event]{db: db},
		Attendance: gormCollection[models.Attendance]{db: db},
		BadgeLinks: gormCollection[models.BadgeLink]{db: db},
	}
}
