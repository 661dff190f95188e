package Store_test

import (
	"context"
	"errors"
	"testing"

	"Taskflow/Models"
	"Taskflow/Store"
	"Taskflow/Store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProject(code string) *Models.Project {
	return &Models.Project{ProjectCode: code, Name: "Launch", Status: Models.ProjectPending}
}

func TestCreateStartsAtVersionOne(t *testing.T) {
	s := Store.New(storetest.NewDB(t))
	p := newProject("PJ240510-0001")
	require.NoError(t, s.Create(p))
	assert.Equal(t, uint(1), p.Version)

	loaded, err := Store.Get[Models.Project](s, p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), loaded.Version)
}

func TestGetMissingIsNotFound(t *testing.T) {
	s := Store.New(storetest.NewDB(t))
	_, err := Store.Get[Models.Task](s, 42)
	require.Error(t, err)
	assert.True(t, Models.HasCode(err, Models.ErrCodeNotFound))
}

func TestSaveVersionedDetectsStaleWrite(t *testing.T) {
	s := Store.New(storetest.NewDB(t))
	p := newProject("PJ240510-0001")
	require.NoError(t, s.Create(p))

	first, err := Store.Get[Models.Project](s, p.ID)
	require.NoError(t, err)
	second, err := Store.Get[Models.Project](s, p.ID)
	require.NoError(t, err)

	first.Name = "first"
	require.NoError(t, s.SaveVersioned(first))
	assert.Equal(t, uint(2), first.Version)

	second.Name = "second"
	err = s.SaveVersioned(second)
	require.Error(t, err)
	assert.True(t, Models.HasCode(err, Models.ErrCodeConcurrencyConflict))
	assert.Equal(t, uint(1), second.Version)

	stored, err := Store.Get[Models.Project](s, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Name)
}

func TestDuplicateCodeIsRecognized(t *testing.T) {
	s := Store.New(storetest.NewDB(t))
	require.NoError(t, s.Create(newProject("PJ240510-0001")))
	err := s.Create(newProject("PJ240510-0001"))
	require.Error(t, err)
	assert.True(t, Store.IsDuplicateKey(err))
}

func TestTransactionRollsBack(t *testing.T) {
	s := Store.New(storetest.NewDB(t))
	boom := errors.New("boom")
	err := s.Transaction(context.Background(), func(tx *Store.Store) error {
		if err := tx.Create(newProject("PJ240510-0001")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := Store.Count[Models.Project](s)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAtomicRetriesConflicts(t *testing.T) {
	s := Store.New(storetest.NewDB(t))
	calls := 0
	err := s.Atomic(context.Background(), func(tx *Store.Store) error {
		calls++
		if calls < 3 {
			return Models.NewConflict("task", 1)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = s.Atomic(context.Background(), func(tx *Store.Store) error {
		calls++
		return Models.NewConflict("task", 1)
	})
	assert.True(t, Models.HasCode(err, Models.ErrCodeConcurrencyConflict))
	assert.Equal(t, Store.MaxAttempts, calls)
}

func TestPurgeBypassesSoftDelete(t *testing.T) {
	s := Store.New(storetest.NewDB(t))
	dep := &Models.Dependency{TaskID: 1, PersonID: 2, Description: "  Docs ", Status: Models.DependencyPending}
	require.NoError(t, s.Create(dep))
	assert.Equal(t, "docs", dep.DescriptionKey)

	require.NoError(t, Store.Purge[Models.Dependency](s, "id = ?", dep.ID))
	var n int64
	require.NoError(t, s.DB().Unscoped().Model(&Models.Dependency{}).Count(&n).Error)
	assert.Zero(t, n)
}
