package Store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"Taskflow/Models"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxAttempts bounds how many times Atomic re-runs an operation that lost
// an optimistic version check.
const MaxAttempts = 3

// Store is the persistence boundary for every entity. A Store handed to a
// Transaction callback is bound to that transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for queries the generic helpers do not
// cover.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) WithContext(ctx context.Context) *Store {
	return &Store{db: s.db.WithContext(ctx)}
}

// Transaction runs fn inside a single database transaction. Any error
// returned by fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Atomic is Transaction retried up to MaxAttempts times while it fails with
// a concurrency conflict.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	var err error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		err = s.Transaction(ctx, fn)
		if !Models.HasCode(err, Models.ErrCodeConcurrencyConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

// Get loads one row by primary key, preloading the named associations.
func Get[T any](s *Store, id uint, preloads ...string) (*T, error) {
	var entity T
	query := s.db
	for _, p := range preloads {
		query = query.Preload(p)
	}
	if err := query.First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Models.NewNotFound(entityName[T](), id)
		}
		return nil, fmt.Errorf("failed to load %s %d: %w", entityName[T](), id, err)
	}
	return &entity, nil
}

// Find returns every row matching the scopes.
func Find[T any](s *Store, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	var out []T
	if err := s.db.Scopes(scopes...).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", entityName[T](), err)
	}
	return out, nil
}

func Count[T any](s *Store, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	var n int64
	if err := s.db.Model(new(T)).Scopes(scopes...).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", entityName[T](), err)
	}
	return n, nil
}

// Create inserts a new row. Versioned entities start at version 1.
func (s *Store) Create(entity any) error {
	if v, ok := entity.(Models.Versioned); ok && v.GetVersion() == 0 {
		v.SetVersion(1)
	}
	if err := s.db.Omit(clause.Associations).Create(entity).Error; err != nil {
		if IsDuplicateKey(err) {
			return fmt.Errorf("duplicate %s: %w", typeName(entity), ErrDuplicate)
		}
		return fmt.Errorf("failed to create %s: %w", typeName(entity), err)
	}
	return nil
}

// Save writes every column of an entity that is not versioned.
func (s *Store) Save(entity any) error {
	if err := s.db.Omit(clause.Associations).Save(entity).Error; err != nil {
		if IsDuplicateKey(err) {
			return fmt.Errorf("duplicate %s: %w", typeName(entity), ErrDuplicate)
		}
		return fmt.Errorf("failed to save %s: %w", typeName(entity), err)
	}
	return nil
}

// SaveVersioned writes the entity only if the stored version still matches
// the one it was loaded with, then bumps the version. A lost race returns a
// ConcurrencyConflict and leaves the entity's version untouched.
func (s *Store) SaveVersioned(entity Models.Versioned) error {
	loaded := entity.GetVersion()
	entity.SetVersion(loaded + 1)
	res := s.db.Model(entity).
		Where("version = ?", loaded).
		Select("*").
		Omit(clause.Associations).
		Updates(entity)
	if res.Error != nil {
		entity.SetVersion(loaded)
		if IsDuplicateKey(res.Error) {
			return fmt.Errorf("duplicate %s: %w", typeName(entity), ErrDuplicate)
		}
		return fmt.Errorf("failed to save %s %d: %w", typeName(entity), entity.GetID(), res.Error)
	}
	if res.RowsAffected == 0 {
		entity.SetVersion(loaded)
		return Models.NewConflict(typeName(entity), entity.GetID())
	}
	return nil
}

// Delete soft-deletes (or hard-deletes, for models without DeletedAt) the
// rows matching the conditions.
func Delete[T any](s *Store, query any, args ...any) error {
	if err := s.db.Where(query, args...).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", entityName[T](), err)
	}
	return nil
}

// Purge removes rows permanently, bypassing soft delete.
func Purge[T any](s *Store, query any, args ...any) error {
	if err := s.db.Unscoped().Where(query, args...).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("failed to purge %s: %w", entityName[T](), err)
	}
	return nil
}

// ErrDuplicate wraps unique-constraint violations from any dialect.
var ErrDuplicate = errors.New("unique constraint violated")

// IsDuplicateKey recognizes unique violations from sqlite, mysql and postgres.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func entityName[T any]() string {
	return strings.ToLower(reflect.TypeOf((*T)(nil)).Elem().Name())
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return strings.ToLower(t.Name())
}
