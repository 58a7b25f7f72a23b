package redisstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())
	return client, mr
}

func setupDirectory(t *testing.T) (*Directory, *miniredis.Miniredis) {
	client, mr := setupTestRedis(t)
	dir := NewDirectory(client)

	ctx := context.Background()
	require.NoError(t, dir.AddUser(ctx, domain.User{ID: "guy1", AccessKey: "acc1", SecretKey: "fortytwo!"}))
	require.NoError(t, dir.AddUser(ctx, domain.User{ID: "guy2", AccessKey: "acc2", SecretKey: "swordfish", IsAdmin: true}))
	_, err := dir.CreateProject(ctx, "test1", "guy1", "")
	require.NoError(t, err)
	_, err = dir.CreateProject(ctx, "test2", "guy2", "")
	require.NoError(t, err)
	return dir, mr
}

func TestDirectory_Users(t *testing.T) {
	ctx := context.Background()
	dir, mr := setupDirectory(t)

	u, err := dir.LookupUser(ctx, "guy2")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, "swordfish", u.SecretKey)

	_, err = dir.LookupUser(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.ErrorIs(t, dir.AddUser(ctx, domain.User{ID: "guy1", AccessKey: "new"}), domain.ErrUserExists)
	assert.ErrorIs(t, dir.AddUser(ctx, domain.User{ID: "guy3", AccessKey: "acc1"}), domain.ErrUserExists)

	assert.ErrorIs(t, dir.DeleteUser(ctx, "guy1"), domain.ErrManagerInUse)
	require.NoError(t, dir.DeleteProject(ctx, "test1"))
	require.NoError(t, dir.DeleteUser(ctx, "guy1"))
	assert.False(t, mr.Exists("acct:access:acc1"))
	assert.ErrorIs(t, dir.DeleteUser(ctx, "guy1"), domain.ErrUserNotFound)
}

func TestDirectory_CreateProject(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and indexes project", func(t *testing.T) {
		dir, mr := setupDirectory(t)
		p, err := dir.CreateProject(ctx, "newacct", "guy1", "test account")
		require.NoError(t, err)
		assert.Equal(t, "newacct", p.Name)
		assert.Equal(t, "test account", p.Description)

		members, err := mr.SMembers("acct:managed:guy1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"test1", "newacct"}, members)

		all, err := dir.ListProjects(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("bad manager before conflict", func(t *testing.T) {
		dir, _ := setupDirectory(t)
		_, err := dir.CreateProject(ctx, "test1", "ghost", "")
		assert.ErrorIs(t, err, domain.ErrBadManager)
		_, err = dir.CreateProject(ctx, "test1", "guy1", "")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestDirectory_ModifyProject(t *testing.T) {
	ctx := context.Background()
	dir, mr := setupDirectory(t)

	desc := "test account"
	mgr := "guy2"
	p, err := dir.ModifyProject(ctx, "test1", &mgr, &desc)
	require.NoError(t, err)
	assert.Equal(t, "guy2", p.Manager)
	assert.Equal(t, "test account", p.Description)

	assert.False(t, mr.Exists("acct:managed:guy1"), "old manager index should be emptied")
	managed, err := mr.SMembers("acct:managed:guy2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"test1", "test2"}, managed)

	ghost := "ghost"
	_, err = dir.ModifyProject(ctx, "test1", &ghost, nil)
	assert.ErrorIs(t, err, domain.ErrBadManager)

	got, err := dir.GetProject(ctx, "test1")
	require.NoError(t, err)
	assert.Equal(t, "guy2", got.Manager)

	_, err = dir.ModifyProject(ctx, "nope", nil, &desc)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := dir.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDirectory_DeleteProject(t *testing.T) {
	ctx := context.Background()
	dir, _ := setupDirectory(t)

	require.NoError(t, dir.DeleteProject(ctx, "test1"))
	require.NoError(t, dir.DeleteProject(ctx, "test1"))
	require.NoError(t, dir.DeleteProject(ctx, "never-existed"))

	_, err := dir.GetProject(ctx, "test1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := dir.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "test2", all[0].ID)
}

func TestDirectory_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	dir, _ := setupDirectory(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := dir.CreateProject(ctx, "race", "guy1", fmt.Sprintf("attempt %d", i))
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	all, err := dir.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDirectory_Ping(t *testing.T) {
	dir, mr := setupDirectory(t)
	require.NoError(t, dir.Ping(context.Background()))

	mr.Close()
	assert.Error(t, dir.Ping(context.Background()))
}
