package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
)

const (
	userKeyPrefix    = "acct:user:"    // acct:user:{user_id} -> user JSON
	accessKeyPrefix  = "acct:access:"  // acct:access:{access_key} -> user_id
	projectKeyPrefix = "acct:project:" // acct:project:{project_id} -> project JSON
	managedKeyPrefix = "acct:managed:" // acct:managed:{user_id} -> set of project ids
	projectSetKey    = "acct:projects" // set of all project ids

	maxTxRetries = 10
)

// ErrTxContention is returned when an optimistic transaction keeps losing to
// concurrent writers.
var ErrTxContention = errors.New("directory transaction aborted after repeated contention")

type userRecord struct {
	ID        string    `json:"id"`
	AccessKey string    `json:"access_key"`
	SecretKey string    `json:"secret_key"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type projectRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Manager     string    `json:"manager"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p projectRecord) account() *domain.Account {
	return &domain.Account{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Manager:     p.Manager,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Directory is a directory.Directory stored in Redis. Every mutation runs as a
// WATCH/MULTI/EXEC transaction over the keys it reads, retried on conflict.
type Directory struct {
	client *redis.Client
}

// NewDirectory creates a Redis-backed directory
func NewDirectory(client *redis.Client) *Directory {
	return &Directory{client: client}
}

func (d *Directory) AddUser(ctx context.Context, user domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	rec := userRecord{
		ID:        user.ID,
		AccessKey: user.AccessKey,
		SecretKey: user.SecretKey,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	uKey, aKey := userKey(user.ID), accessKey(user.AccessKey)
	return d.transact(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, uKey, aKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrUserExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, uKey, data, 0)
			pipe.Set(ctx, aKey, user.ID, 0)
			return nil
		})
		return err
	}, uKey, aKey)
}

func (d *Directory) LookupUser(ctx context.Context, id string) (*domain.User, error) {
	rec, err := getUser(ctx, d.client, id)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:        rec.ID,
		AccessKey: rec.AccessKey,
		SecretKey: rec.SecretKey,
		IsAdmin:   rec.IsAdmin,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func (d *Directory) DeleteUser(ctx context.Context, id string) error {
	uKey, mKey := userKey(id), managedKey(id)
	return d.transact(ctx, func(tx *redis.Tx) error {
		rec, err := getUser(ctx, tx, id)
		if err != nil {
			return err
		}
		managed, err := tx.SCard(ctx, mKey).Result()
		if err != nil {
			return err
		}
		if managed > 0 {
			return domain.ErrManagerInUse
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, uKey, accessKey(rec.AccessKey))
			return nil
		})
		return err
	}, uKey, mKey)
}

func (d *Directory) CreateProject(ctx context.Context, id, manager, description string) (*domain.Account, error) {
	now := time.Now().UTC()
	rec := projectRecord{
		ID:          id,
		Name:        id,
		Description: description,
		Manager:     manager,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project: %w", err)
	}

	uKey, pKey := userKey(manager), projectKey(id)
	err = d.transact(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, uKey).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrBadManager
		}
		n, err = tx.Exists(ctx, pKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, pKey, data, 0)
			pipe.SAdd(ctx, projectSetKey, id)
			pipe.SAdd(ctx, managedKey(manager), id)
			return nil
		})
		return err
	}, uKey, pKey)
	if err != nil {
		return nil, err
	}
	return rec.account(), nil
}

func (d *Directory) GetProject(ctx context.Context, id string) (*domain.Account, error) {
	rec, err := getProject(ctx, d.client, id)
	if err != nil {
		return nil, err
	}
	return rec.account(), nil
}

func (d *Directory) DeleteProject(ctx context.Context, id string) error {
	pKey := projectKey(id)
	return d.transact(ctx, func(tx *redis.Tx) error {
		rec, err := getProject(ctx, tx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, pKey)
			pipe.SRem(ctx, projectSetKey, id)
			pipe.SRem(ctx, managedKey(rec.Manager), id)
			return nil
		})
		return err
	}, pKey)
}

func (d *Directory) ModifyProject(ctx context.Context, id string, manager, description *string) (*domain.Account, error) {
	keys := []string{projectKey(id)}
	if manager != nil {
		keys = append(keys, userKey(*manager))
	}

	var out projectRecord
	err := d.transact(ctx, func(tx *redis.Tx) error {
		rec, err := getProject(ctx, tx, id)
		if err != nil {
			return err
		}
		previous := rec.Manager

		if manager != nil {
			n, err := tx.Exists(ctx, userKey(*manager)).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				return domain.ErrBadManager
			}
			rec.Manager = *manager
		}
		if description != nil {
			rec.Description = *description
		}
		rec.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal project: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, projectKey(id), data, 0)
			if rec.Manager != previous {
				pipe.SRem(ctx, managedKey(previous), id)
				pipe.SAdd(ctx, managedKey(rec.Manager), id)
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = *rec
		return nil
	}, keys...)
	if err != nil {
		return nil, err
	}
	return out.account(), nil
}

// ListProjects returns every account ordered by id. Ids removed between the
// set read and the value read are skipped.
func (d *Directory) ListProjects(ctx context.Context) ([]domain.Account, error) {
	ids, err := d.client.SMembers(ctx, projectSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	out := make([]domain.Account, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = projectKey(id)
	}
	values, err := d.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec projectRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project: %w", err)
		}
		out = append(out, *rec.account())
	}
	return out, nil
}

func (d *Directory) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

func (d *Directory) transact(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := d.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTxContention
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getUser(ctx context.Context, c getter, id string) (*userRecord, error) {
	data, err := c.Get(ctx, userKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	var rec userRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &rec, nil
}

func getProject(ctx context.Context, c getter, id string) (*projectRecord, error) {
	data, err := c.Get(ctx, projectKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	var rec projectRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &rec, nil
}

func userKey(id string) string      { return userKeyPrefix + id }
func accessKey(key string) string   { return accessKeyPrefix + key }
func projectKey(id string) string   { return projectKeyPrefix + id }
func managedKey(user string) string { return managedKeyPrefix + user }
