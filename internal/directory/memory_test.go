package directory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededMemory(t *testing.T) *Memory {
	t.Helper()
	ctx := context.Background()

	m := NewMemory()
	require.NoError(t, m.AddUser(ctx, domain.User{ID: "guy1", AccessKey: "acc1", SecretKey: "fortytwo!"}))
	require.NoError(t, m.AddUser(ctx, domain.User{ID: "guy2", AccessKey: "acc2", SecretKey: "swordfish", IsAdmin: true}))
	_, err := m.CreateProject(ctx, "test1", "guy1", "")
	require.NoError(t, err)
	_, err = m.CreateProject(ctx, "test2", "guy2", "")
	require.NoError(t, err)
	return m
}

func TestMemory_Users(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)

	t.Run("lookup existing user", func(t *testing.T) {
		u, err := m.LookupUser(ctx, "guy2")
		require.NoError(t, err)
		assert.True(t, u.IsAdmin)
		assert.Equal(t, "acc2", u.AccessKey)
		assert.False(t, u.CreatedAt.IsZero())
	})

	t.Run("lookup unknown user", func(t *testing.T) {
		_, err := m.LookupUser(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("duplicate id or access key", func(t *testing.T) {
		assert.ErrorIs(t, m.AddUser(ctx, domain.User{ID: "guy1", AccessKey: "other"}), domain.ErrUserExists)
		assert.ErrorIs(t, m.AddUser(ctx, domain.User{ID: "guy3", AccessKey: "acc1"}), domain.ErrUserExists)
	})

	t.Run("manager cannot be deleted", func(t *testing.T) {
		assert.ErrorIs(t, m.DeleteUser(ctx, "guy1"), domain.ErrManagerInUse)
		require.NoError(t, m.DeleteProject(ctx, "test1"))
		require.NoError(t, m.DeleteUser(ctx, "guy1"))
		assert.ErrorIs(t, m.DeleteUser(ctx, "guy1"), domain.ErrUserNotFound)
	})
}

func TestMemory_Projects(t *testing.T) {
	ctx := context.Background()

	t.Run("create sets name to id", func(t *testing.T) {
		m := newSeededMemory(t)
		p, err := m.CreateProject(ctx, "newacct", "guy1", "test account")
		require.NoError(t, err)
		assert.Equal(t, "newacct", p.Name)
		assert.Equal(t, "test account", p.Description)
		assert.Equal(t, "guy1", p.Manager)

		all, err := m.ListProjects(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("bad manager is checked before duplicate id", func(t *testing.T) {
		m := newSeededMemory(t)
		_, err := m.CreateProject(ctx, "test1", "ghost", "")
		assert.ErrorIs(t, err, domain.ErrBadManager)
		_, err = m.CreateProject(ctx, "test1", "guy2", "")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("modify keeps omitted fields", func(t *testing.T) {
		m := newSeededMemory(t)
		desc := "first"
		_, err := m.ModifyProject(ctx, "test1", nil, &desc)
		require.NoError(t, err)

		mgr := "guy2"
		p, err := m.ModifyProject(ctx, "test1", &mgr, nil)
		require.NoError(t, err)
		assert.Equal(t, "first", p.Description)
		assert.Equal(t, "guy2", p.Manager)
	})

	t.Run("modify rejects unknown manager without applying", func(t *testing.T) {
		m := newSeededMemory(t)
		mgr, desc := "ghost", "changed"
		_, err := m.ModifyProject(ctx, "test1", &mgr, &desc)
		assert.ErrorIs(t, err, domain.ErrBadManager)

		p, err := m.GetProject(ctx, "test1")
		require.NoError(t, err)
		assert.Equal(t, "", p.Description)
		assert.Equal(t, "guy1", p.Manager)
	})

	t.Run("modify unknown project", func(t *testing.T) {
		m := newSeededMemory(t)
		_, err := m.ModifyProject(ctx, "nope", nil, nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		m := newSeededMemory(t)
		require.NoError(t, m.DeleteProject(ctx, "test1"))
		require.NoError(t, m.DeleteProject(ctx, "test1"))
		_, err := m.GetProject(ctx, "test1")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		all, err := m.ListProjects(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "test2", all[0].ID)
	})
}

func TestMemory_ConcurrentCreateSameID(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.CreateProject(ctx, "race", "guy1", fmt.Sprintf("attempt %d", i))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if assert.ErrorIs(t, err, domain.ErrConflict) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)
}
