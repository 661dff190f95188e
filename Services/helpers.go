package Services

import (
	"fmt"
	"strconv"
	"strings"

	"Taskflow/Models"
	"Taskflow/Store"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

func idString(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func deref(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// loadUsers fetches the users with the given ids and fails if any is
// missing.
func loadUsers(tx *Store.Store, ids []uint) ([]Models.User, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := Store.Find[Models.User](tx, func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN ?", ids)
	})
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, Models.NewInvalidInput("one or more users do not exist")
	}
	return users, nil
}

// requireUser checks that a referenced user exists.
func requireUser(tx *Store.Store, id *uint) (*Models.User, error) {
	if id == nil || *id == 0 {
		return nil, nil
	}
	user, err := Store.Get[Models.User](tx, *id)
	if Models.HasCode(err, Models.ErrCodeNotFound) {
		return nil, Models.NewInvalidInput(fmt.Sprintf("user %d does not exist", *id))
	}
	return user, err
}

func uniqueIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != 0 && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// admins returns the ids of every admin account.
func admins(tx *Store.Store) ([]uint, error) {
	users, err := Store.Find[Models.User](tx, func(db *gorm.DB) *gorm.DB {
		return db.Select("id").Where("role = ?", Models.RoleAdmin)
	})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// managerOf returns the manager id of the given user, 0 when there is none.
func managerOf(tx *Store.Store, userID uint) (uint, error) {
	if userID == 0 {
		return 0, nil
	}
	user, err := Store.Get[Models.User](tx, userID)
	if err != nil {
		if Models.HasCode(err, Models.ErrCodeNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return deref(user.ManagerID), nil
}

// conflictOnDuplicate turns a unique violation on a generated code into a
// retryable conflict.
func conflictOnDuplicate(err error, entity, code string) error {
	if Store.IsDuplicateKey(err) {
		return Models.NewConflict(entity, code)
	}
	return err
}

func nextPosition(tx *Store.Store, table, column string, parent uint) (int, error) {
	var max int
	err := tx.DB().Table(table).
		Select("COALESCE(MAX(position), 0)").
		Where(column+" = ? AND deleted_at IS NULL", parent).
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read %s positions: %w", table, err)
	}
	return max + 1, nil
}

func joinChanges(changes []string, fallback string) string {
	if len(changes) == 0 {
		return fallback
	}
	return strings.Join(changes, ", ")
}
