package store

import (
	"context"
	"errors"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/pkg/util"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v2"
)

//
// Users
//

type memoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]*model.User
	byEmail map[string]string
	order   []string
}

// NewMemoryUsers returns a user directory kept in process memory
func NewMemoryUsers() Users {
	return &memoryUsers{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

func (m *memoryUsers) GetOrCreate(_ context.Context, email, username string) (*model.User, error) {
	email = NormalizeEmail(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byEmail[email]; ok {
		u := m.byID[id]
		u.Username = username

		cp := *u
		return &cp, nil
	}

	id, err := util.NewID()
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:        id,
		Email:     email,
		Username:  username,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	m.insert(u)

	cp := *u
	return &cp, nil
}

func (m *memoryUsers) Create(_ context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[u.Email]; ok {
		return ErrConflict
	}

	if u.ID == "" {
		id, err := util.NewID()
		if err != nil {
			return err
		}
		u.ID = id
	}

	if _, ok := m.byID[u.ID]; ok {
		return ErrConflict
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	cp := *u
	m.insert(&cp)
	return nil
}

// insert expects m.mu to be held
func (m *memoryUsers) insert(u *model.User) {
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u.ID
	m.order = append(m.order, u.ID)
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *m.byID[id]
	return &cp, nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *u
	return &cp, nil
}

func (m *memoryUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]model.User, 0, len(m.order))
	for _, id := range m.order {
		users = append(users, *m.byID[id])
	}

	return users, nil
}

func (m *memoryUsers) UpdateProfile(_ context.Context, id string, p *model.UserProfile) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	if p.Username != nil {
		u.Username = *p.Username
	}

	if p.FullName != nil {
		fullName := *p.FullName
		u.FullName = &fullName
	}

	cp := *u
	return &cp, nil
}

func (m *memoryUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}

	delete(m.byID, id)
	delete(m.byEmail, u.Email)
	m.order = slices.DeleteFunc(m.order, func(v string) bool { return v == id })
	return nil
}

//
// Magic links
//

type memoryLinks struct {
	// Guards the get+remove pair in Consume, the cache itself is thread-safe
	mu    sync.Mutex
	cache *ttlcache.Cache
}

// NewMemoryLinks returns a magic link store kept in process memory. Links
// are evicted in the background once their lifetime has passed, expiry is
// still checked by the caller on every read.
func NewMemoryLinks() MagicLinks {
	c := ttlcache.NewCache()
	c.SkipTTLExtensionOnHit(true)

	return &memoryLinks{cache: c}
}

// Close stops the eviction goroutine of the cache. The store can't be used
// afterwards.
func (m *memoryLinks) Close() error {
	return m.cache.Close()
}

func (m *memoryLinks) Put(_ context.Context, l *model.MagicLink) error {
	cp := *l

	// The lifetime is used instead of the absolute expiry so eviction
	// doesn't depend on which clock created the link
	ttl := l.ExpiresAt.Sub(l.CreatedAt)
	if ttl <= 0 {
		return m.cache.Set(l.Token, &cp)
	}

	return m.cache.SetWithTTL(l.Token, &cp, ttl)
}

func (m *memoryLinks) Get(_ context.Context, token string) (*model.MagicLink, error) {
	v, err := m.cache.Get(token)
	if err != nil {
		if errors.Is(err, ttlcache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cp := *v.(*model.MagicLink)
	return &cp, nil
}

func (m *memoryLinks) Consume(ctx context.Context, token string) (*model.MagicLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := m.cache.Remove(token); err != nil {
		// Evicted between the two calls
		if errors.Is(err, ttlcache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return l, nil
}

func (m *memoryLinks) DeleteExpired(_ context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for token, v := range m.cache.GetItems() {
		l, ok := v.(*model.MagicLink)
		if !ok || !l.ExpiresAt.Before(t) {
			continue
		}

		if err := m.cache.Remove(token); err == nil {
			n++
		}
	}

	return n, nil
}

//
// Startups
//

type memoryStartups struct {
	mu     sync.RWMutex
	items  map[uint]*model.Startup
	nextID uint
}

func NewMemoryStartups() Startups {
	return &memoryStartups{items: make(map[uint]*model.Startup)}
}

func (m *memoryStartups) Create(_ context.Context, s *model.Startup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	s.ID = m.nextID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *memoryStartups) Get(_ context.Context, id uint) (*model.Startup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *s
	return &cp, nil
}

func (m *memoryStartups) List(_ context.Context, f model.StartupFilter) ([]model.Startup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := []model.Startup{}
	for _, s := range m.items {
		if f.Industry != "" && (s.Industry == nil || *s.Industry != f.Industry) {
			continue
		}
		if f.Stage != "" && (s.Stage == nil || *s.Stage != f.Stage) {
			continue
		}
		res = append(res, *s)
	}

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *memoryStartups) Update(_ context.Context, id uint, u *model.StartupUpdate, at time.Time) (*model.Startup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}

	u.Apply(s)
	s.UpdatedAt = &at

	cp := *s
	return &cp, nil
}

func (m *memoryStartups) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}

	delete(m.items, id)
	return nil
}

//
// Resources
//

type memoryResources struct {
	mu     sync.RWMutex
	items  map[uint]*model.Resource
	nextID uint
}

func NewMemoryResources() Resources {
	return &memoryResources{items: make(map[uint]*model.Resource)}
}

func (m *memoryResources) Create(_ context.Context, r *model.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	r.ID = m.nextID
	r.Views = 0
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	cp := *r
	m.items[r.ID] = &cp
	return nil
}

func (m *memoryResources) Get(_ context.Context, id uint) (*model.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *r
	return &cp, nil
}

func (m *memoryResources) List(_ context.Context, category string) ([]model.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := []model.Resource{}
	for _, r := range m.items {
		if category != "" && r.Category != category {
			continue
		}
		res = append(res, *r)
	}

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *memoryResources) Categories(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	cats := []string{}
	for _, r := range m.items {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		cats = append(cats, r.Category)
	}

	sort.Strings(cats)
	return cats, nil
}

func (m *memoryResources) View(_ context.Context, id uint) (*model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}

	r.Views++

	cp := *r
	return &cp, nil
}

func (m *memoryResources) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}

	delete(m.items, id)
	return nil
}
