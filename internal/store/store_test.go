package store

import (
	"context"
	"hungrypanda/hub-api/db"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/pkg/util"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jellydator/ttlcache/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type backend struct {
	name      string
	users     func(t *testing.T) Users
	links     func(t *testing.T) MagicLinks
	startups  func(t *testing.T) Startups
	resources func(t *testing.T) Resources
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name, err := util.NewID()
	require.NoError(t, err)

	gdb, err := db.OpenSQLite("file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return gdb
}

func backends() []backend {
	return []backend{
		{
			name:      "memory",
			users:     func(*testing.T) Users { return NewMemoryUsers() },
			links:     func(t *testing.T) MagicLinks { return newMemoryLinks(t) },
			startups:  func(*testing.T) Startups { return NewMemoryStartups() },
			resources: func(*testing.T) Resources { return NewMemoryResources() },
		},
		{
			name:      "gorm",
			users:     func(t *testing.T) Users { return NewGormUsers(newTestDB(t)) },
			links:     func(t *testing.T) MagicLinks { return NewGormLinks(newTestDB(t)) },
			startups:  func(t *testing.T) Startups { return NewGormStartups(newTestDB(t)) },
			resources: func(t *testing.T) Resources { return NewGormResources(newTestDB(t)) },
		},
	}
}

func strPtr(s string) *string { return &s }

func newMemoryLinks(t *testing.T) MagicLinks {
	l := NewMemoryLinks()
	t.Cleanup(func() { l.(io.Closer).Close() })
	return l
}

func TestMemoryLinksClose(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLinks()

	c, ok := l.(io.Closer)
	require.True(t, ok)
	require.NoError(t, c.Close())

	_, err := l.Get(ctx, "anything")
	assert.ErrorIs(t, err, ttlcache.ErrClosed)

	err = l.Put(ctx, &model.MagicLink{Token: "t", Email: "a@b.com", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Minute)})
	assert.ErrorIs(t, err, ttlcache.ErrClosed)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.com "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Run("get or create keeps id", func(t *testing.T) {
				users := b.users(t)

				first, err := users.GetOrCreate(ctx, "A@B.com ", "alice")
				require.NoError(t, err)
				assert.NotEmpty(t, first.ID)
				assert.Equal(t, "a@b.com", first.Email)
				assert.True(t, first.IsActive)

				second, err := users.GetOrCreate(ctx, "a@b.com", "Alicia")
				require.NoError(t, err)
				assert.Equal(t, first.ID, second.ID)
				assert.Equal(t, "Alicia", second.Username)

				stored, err := users.GetByEmail(ctx, "A@B.COM")
				require.NoError(t, err)
				assert.Equal(t, "Alicia", stored.Username)

				all, err := users.List(ctx)
				require.NoError(t, err)
				assert.Len(t, all, 1)
			})

			t.Run("create conflicts on email", func(t *testing.T) {
				users := b.users(t)

				require.NoError(t, users.Create(ctx, &model.User{Email: "bob@x.io", Username: "bob", IsActive: true}))

				err := users.Create(ctx, &model.User{Email: " BOB@x.io", Username: "bobby", IsActive: true})
				assert.ErrorIs(t, err, ErrConflict)
			})

			t.Run("lookups miss", func(t *testing.T) {
				users := b.users(t)

				_, err := users.GetByEmail(ctx, "nobody@x.io")
				assert.ErrorIs(t, err, ErrNotFound)

				_, err = users.GetByID(ctx, "missing")
				assert.ErrorIs(t, err, ErrNotFound)

				assert.ErrorIs(t, users.Delete(ctx, "missing"), ErrNotFound)
			})

			t.Run("profile update and delete", func(t *testing.T) {
				users := b.users(t)

				u, err := users.GetOrCreate(ctx, "c@x.io", "carol")
				require.NoError(t, err)

				got, err := users.UpdateProfile(ctx, u.ID, &model.UserProfile{Username: strPtr("caroline"), FullName: strPtr("Carol C")})
				require.NoError(t, err)
				assert.Equal(t, "caroline", got.Username)
				require.NotNil(t, got.FullName)
				assert.Equal(t, "Carol C", *got.FullName)

				got, err = users.GetByID(ctx, u.ID)
				require.NoError(t, err)
				assert.Equal(t, "caroline", got.Username)
				assert.Equal(t, "c@x.io", got.Email)

				// Nothing set, nothing written
				got, err = users.UpdateProfile(ctx, u.ID, &model.UserProfile{})
				require.NoError(t, err)
				assert.Equal(t, "caroline", got.Username)

				require.NoError(t, users.Delete(ctx, u.ID))

				_, err = users.GetByEmail(ctx, "c@x.io")
				assert.ErrorIs(t, err, ErrNotFound)

				_, err = users.UpdateProfile(ctx, u.ID, &model.UserProfile{FullName: strPtr("Ghost")})
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("profile update keeps other columns", func(t *testing.T) {
				users := b.users(t)

				require.NoError(t, users.Create(ctx, &model.User{Email: "d@x.io", Username: "dave", PasswordHash: "hash", IsActive: true}))

				u, err := users.GetByEmail(ctx, "d@x.io")
				require.NoError(t, err)

				// A magic link request changes the username after the profile
				// edit was started
				_, err = users.GetOrCreate(ctx, "d@x.io", "David")
				require.NoError(t, err)

				_, err = users.UpdateProfile(ctx, u.ID, &model.UserProfile{FullName: strPtr("Dave D")})
				require.NoError(t, err)

				got, err := users.GetByID(ctx, u.ID)
				require.NoError(t, err)
				assert.Equal(t, "David", got.Username)
				assert.Equal(t, "hash", got.PasswordHash)
				assert.True(t, got.IsActive)
				require.NotNil(t, got.FullName)
				assert.Equal(t, "Dave D", *got.FullName)
			})

			t.Run("concurrent profile updates and upserts", func(t *testing.T) {
				users := b.users(t)

				u, err := users.GetOrCreate(ctx, "a@b.com", "alice")
				require.NoError(t, err)

				var wg sync.WaitGroup
				for i := range 16 {
					wg.Add(1)
					go func() {
						defer wg.Done()

						if i%2 == 0 {
							_, err := users.GetOrCreate(ctx, "a@b.com", "Alicia")
							assert.NoError(t, err)
							return
						}

						_, err := users.UpdateProfile(ctx, u.ID, &model.UserProfile{FullName: strPtr("Alice A")})
						assert.NoError(t, err)
					}()
				}
				wg.Wait()

				got, err := users.GetByID(ctx, u.ID)
				require.NoError(t, err)
				assert.Equal(t, "Alicia", got.Username)
				require.NotNil(t, got.FullName)
				assert.Equal(t, "Alice A", *got.FullName)
			})
		})
	}
}

func TestMagicLinks(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Run("consume is single use", func(t *testing.T) {
				links := b.links(t)

				l := &model.MagicLink{Token: "tok", Email: "a@b.com", CreatedAt: now, ExpiresAt: now.Add(15 * time.Minute)}
				require.NoError(t, links.Put(ctx, l))

				got, err := links.Get(ctx, "tok")
				require.NoError(t, err)
				assert.Equal(t, "a@b.com", got.Email)

				got, err = links.Consume(ctx, "tok")
				require.NoError(t, err)
				assert.Equal(t, "a@b.com", got.Email)
				assert.True(t, got.ExpiresAt.Equal(l.ExpiresAt))

				_, err = links.Consume(ctx, "tok")
				assert.ErrorIs(t, err, ErrNotFound)

				_, err = links.Get(ctx, "tok")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("concurrent consume", func(t *testing.T) {
				links := b.links(t)

				require.NoError(t, links.Put(ctx, &model.MagicLink{
					Token:     "race",
					Email:     "a@b.com",
					CreatedAt: now,
					ExpiresAt: now.Add(15 * time.Minute),
				}))

				var wins atomic.Int32
				var wg sync.WaitGroup

				for range 16 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						if _, err := links.Consume(ctx, "race"); err == nil {
							wins.Add(1)
						}
					}()
				}
				wg.Wait()

				assert.Equal(t, int32(1), wins.Load())
			})

			t.Run("delete expired", func(t *testing.T) {
				links := b.links(t)

				old := now.Add(-time.Hour)
				require.NoError(t, links.Put(ctx, &model.MagicLink{Token: "fresh", Email: "a@b.com", CreatedAt: now, ExpiresAt: now.Add(15 * time.Minute)}))
				require.NoError(t, links.Put(ctx, &model.MagicLink{Token: "stale", Email: "a@b.com", CreatedAt: old, ExpiresAt: old.Add(15 * time.Minute)}))

				n, err := links.DeleteExpired(ctx, now)
				require.NoError(t, err)
				assert.Equal(t, int64(1), n)

				_, err = links.Get(ctx, "stale")
				assert.ErrorIs(t, err, ErrNotFound)

				_, err = links.Get(ctx, "fresh")
				assert.NoError(t, err)
			})
		})
	}
}

func TestStartups(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			startups := b.startups(t)

			panda := &model.Startup{Name: "Panda", Description: "food", Industry: strPtr("Food"), Stage: strPtr("MVP"), OwnerID: "u1"}
			bamboo := &model.Startup{Name: "Bamboo", Description: "ledger", Industry: strPtr("Fintech"), Stage: strPtr("Idea"), OwnerID: "u2"}
			require.NoError(t, startups.Create(ctx, panda))
			require.NoError(t, startups.Create(ctx, bamboo))
			assert.NotZero(t, panda.ID)
			assert.NotEqual(t, panda.ID, bamboo.ID)

			all, err := startups.List(ctx, model.StartupFilter{})
			require.NoError(t, err)
			assert.Len(t, all, 2)

			fin, err := startups.List(ctx, model.StartupFilter{Industry: "Fintech"})
			require.NoError(t, err)
			require.Len(t, fin, 1)
			assert.Equal(t, "Bamboo", fin[0].Name)

			none, err := startups.List(ctx, model.StartupFilter{Industry: "Fintech", Stage: "MVP"})
			require.NoError(t, err)
			assert.Empty(t, none)

			at := time.Now().UTC().Truncate(time.Second)
			updated, err := startups.Update(ctx, panda.ID, &model.StartupUpdate{Stage: strPtr("Growth")}, at)
			require.NoError(t, err)
			assert.Equal(t, "Panda", updated.Name)
			assert.Equal(t, "Growth", *updated.Stage)
			require.NotNil(t, updated.UpdatedAt)
			assert.True(t, updated.UpdatedAt.Equal(at))

			got, err := startups.Get(ctx, panda.ID)
			require.NoError(t, err)
			assert.Equal(t, "Growth", *got.Stage)

			_, err = startups.Update(ctx, 999, &model.StartupUpdate{}, at)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, startups.Delete(ctx, panda.ID))
			assert.ErrorIs(t, startups.Delete(ctx, panda.ID), ErrNotFound)

			_, err = startups.Get(ctx, panda.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestResources(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			resources := b.resources(t)

			for _, r := range []*model.Resource{
				{Title: "Seed 101", Description: "d", Category: "Funding"},
				{Title: "Go tour", Description: "d", Category: "Learning"},
				{Title: "Angels", Description: "d", Category: "Funding"},
			} {
				require.NoError(t, resources.Create(ctx, r))
			}

			cats, err := resources.Categories(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Funding", "Learning"}, cats)

			funding, err := resources.List(ctx, "Funding")
			require.NoError(t, err)
			assert.Len(t, funding, 2)

			all, err := resources.List(ctx, "")
			require.NoError(t, err)
			require.Len(t, all, 3)

			id := all[0].ID
			for i := 1; i <= 3; i++ {
				r, err := resources.View(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, int64(i), r.Views)
			}

			_, err = resources.View(ctx, 999)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, resources.Delete(ctx, id))
			_, err = resources.Get(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}
