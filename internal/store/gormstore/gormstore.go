// Package gormstore implements store.Store on GORM (Postgres in production,
// SQLite for local runs and tests).
package gormstore

import (
	"context"
	"errors"
	"strings"

	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return store.ErrDuplicate
		case "23P01": // exclusion_violation
			return store.ErrOverlap
		}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrDuplicate
	}
	return err
}

func first[T any](ctx context.Context, db *gorm.DB, id uint) (*T, error) {
	var v T
	if err := db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func find[T any](q *gorm.DB) ([]T, error) {
	out := []T{}
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func byBranch[T any](ctx context.Context, db *gorm.DB, branchID uint) ([]T, error) {
	return find[T](db.WithContext(ctx).Where("branch_id = ?", branchID))
}

// update writes every column of v, zero values included.
func update(db *gorm.DB, v any) error {
	res := db.Model(v).Select("*").Updates(v)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
