package service

import (
	"bytes"
	"context"
	"errors"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/internal/store"
	"hungrypanda/hub-api/pkg/security"
	"io"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent map[string]string
	err  error
}

func (m *recordingMailer) SendMagicLink(_ context.Context, to, link string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sent == nil {
		m.sent = make(map[string]string)
	}
	m.sent[to] = link
	return m.err
}

func memoryLinks(t *testing.T) store.MagicLinks {
	l := store.NewMemoryLinks()
	t.Cleanup(func() { l.(io.Closer).Close() })
	return l
}

type linkEnv struct {
	svc   *MagicLinks
	users store.Users
	links store.MagicLinks
	clock *fakeClock
}

func newLinkEnv(t *testing.T, mailer Mailer) *linkEnv {
	t.Helper()

	e := &linkEnv{
		users: store.NewMemoryUsers(),
		links: memoryLinks(t),
		clock: &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	svc, err := NewMagicLinks(&MagicLinkOpts{
		Users:   e.users,
		Links:   e.links,
		BaseURL: "http://localhost:5173/auth/callback",
		Mailer:  mailer,
		Now:     e.clock.Now,
	})
	require.NoError(t, err)

	e.svc = svc
	return e
}

func tokenOf(t *testing.T, link string) string {
	t.Helper()

	u, err := url.Parse(link)
	require.NoError(t, err)

	token := u.Query().Get("token")
	require.Len(t, token, 64)
	return token
}

func TestNewMagicLinks(t *testing.T) {
	_, err := NewMagicLinks(nil)
	assert.Error(t, err)

	_, err = NewMagicLinks(&MagicLinkOpts{Users: store.NewMemoryUsers(), Links: memoryLinks(t), BaseURL: "not a url"})
	assert.Error(t, err)

	m, err := NewMagicLinks(&MagicLinkOpts{Users: store.NewMemoryUsers(), Links: memoryLinks(t), BaseURL: "https://app.example"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLinkLifetime, m.Lifetime())
}

func TestIssueAndRedeem(t *testing.T) {
	ctx := context.Background()
	e := newLinkEnv(t, nil)

	link, err := e.svc.Issue(ctx, "a@b.com", "alice")
	require.NoError(t, err)
	assert.Contains(t, link, "http://localhost:5173/auth/callback?token=")

	u, err := e.svc.Redeem(ctx, tokenOf(t, link))
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, "alice", u.Username)
	assert.NotEmpty(t, u.ID)
}

func TestIssueNormalizesAndUpdatesUsername(t *testing.T) {
	ctx := context.Background()
	e := newLinkEnv(t, nil)

	_, err := e.svc.Issue(ctx, "a@b.com", "alice")
	require.NoError(t, err)

	first, err := e.users.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)

	link, err := e.svc.Issue(ctx, "A@B.com ", " Alicia ")
	require.NoError(t, err)

	u, err := e.svc.Redeem(ctx, tokenOf(t, link))
	require.NoError(t, err)
	assert.Equal(t, first.ID, u.ID)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, "Alicia", u.Username)

	all, err := e.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIssueInvalidInput(t *testing.T) {
	ctx := context.Background()
	e := newLinkEnv(t, nil)

	for _, tt := range []struct{ email, username string }{
		{"", "alice"},
		{"   ", "alice"},
		{"a@b.com", ""},
		{"a@b.com", "   "},
		{"not-an-email", "alice"},
	} {
		_, err := e.svc.Issue(ctx, tt.email, tt.username)
		assert.ErrorIs(t, err, ErrInvalidInput, "email=%q username=%q", tt.email, tt.username)
	}

	all, err := e.users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRedeemTwice(t *testing.T) {
	ctx := context.Background()
	e := newLinkEnv(t, nil)

	link, err := e.svc.Issue(ctx, "a@b.com", "alice")
	require.NoError(t, err)
	token := tokenOf(t, link)

	_, err = e.svc.Redeem(ctx, token)
	require.NoError(t, err)

	// Spent before Redeem returns
	_, err = e.links.Get(ctx, token)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = e.svc.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestRedeemUnknownOrEmpty(t *testing.T) {
	ctx := context.Background()
	e := newLinkEnv(t, nil)

	_, err := e.svc.Redeem(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidOrExpired)

	_, err = e.svc.Redeem(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestRedeemExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("at the deadline", func(t *testing.T) {
		e := newLinkEnv(t, nil)

		link, err := e.svc.Issue(ctx, "a@b.com", "alice")
		require.NoError(t, err)

		e.clock.Advance(15 * time.Minute)

		_, err = e.svc.Redeem(ctx, tokenOf(t, link))
		assert.NoError(t, err)
	})

	t.Run("past the deadline", func(t *testing.T) {
		e := newLinkEnv(t, nil)

		link, err := e.svc.Issue(ctx, "a@b.com", "alice")
		require.NoError(t, err)

		e.clock.Advance(15*time.Minute + time.Second)
		token := tokenOf(t, link)

		_, err = e.svc.Redeem(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidOrExpired)

		// Expired links are dropped on the failed attempt
		_, err = e.links.Get(ctx, token)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRedeemDeletedUser(t *testing.T) {
	ctx := context.Background()
	e := newLinkEnv(t, nil)

	link, err := e.svc.Issue(ctx, "a@b.com", "alice")
	require.NoError(t, err)

	u, err := e.users.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NoError(t, e.users.Delete(ctx, u.ID))

	token := tokenOf(t, link)
	_, err = e.svc.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidOrExpired)

	// A failed redemption still spends the link
	_, err = e.links.Get(ctx, token)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentRedeem(t *testing.T) {
	ctx := context.Background()
	e := newLinkEnv(t, nil)

	link, err := e.svc.Issue(ctx, "a@b.com", "alice")
	require.NoError(t, err)
	token := tokenOf(t, link)

	var wins, losses atomic.Int32
	var wg sync.WaitGroup

	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := e.svc.Redeem(ctx, token)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrInvalidOrExpired):
				losses.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(31), losses.Load())
}

func TestIssueSendsMail(t *testing.T) {
	ctx := context.Background()

	t.Run("delivered", func(t *testing.T) {
		m := &recordingMailer{}
		e := newLinkEnv(t, m)

		link, err := e.svc.Issue(ctx, "A@B.com", "alice")
		require.NoError(t, err)
		assert.Equal(t, link, m.sent["a@b.com"])
	})

	t.Run("failure still returns the link", func(t *testing.T) {
		m := &recordingMailer{err: errors.New("smtp down")}
		e := newLinkEnv(t, m)

		link, err := e.svc.Issue(ctx, "a@b.com", "alice")
		require.NoError(t, err)
		assert.NotEmpty(t, link)
	})
}

func TestMagicLinkMessage(t *testing.T) {
	link := "http://localhost:5173/?token=abc123"
	m := magicLinkMessage("noreply@panda.dev", "a@b.com", "Hungry Panda", link, 15*time.Minute)

	assert.Equal(t, []string{"a@b.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Your Hungry Panda login link"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), link)
	assert.Contains(t, buf.String(), "15m0s")
}

func TestTokenCleanup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	links := memoryLinks(t)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, links.Put(ctx, &model.MagicLink{Token: "stale", Email: "a@b.com", CreatedAt: old, ExpiresAt: old.Add(15 * time.Minute)}))
	require.NoError(t, links.Put(ctx, &model.MagicLink{Token: "fresh", Email: "a@b.com", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(15 * time.Minute)}))

	TokenCleanup(ctx, 10*time.Millisecond, links)

	assert.Eventually(t, func() bool {
		_, err := links.Get(ctx, "stale")
		return errors.Is(err, store.ErrNotFound)
	}, time.Second, 10*time.Millisecond)

	_, err := links.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func testArgon() *security.ArgonHash {
	return &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemoryUsers()
	a := NewAccounts(users, testArgon())

	u, err := a.Signup(ctx, &SignupRequest{Email: " Bob@X.io", Username: "bob", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "bob@x.io", u.Email)
	assert.NotEmpty(t, u.PasswordHash)

	_, err = a.Signup(ctx, &SignupRequest{Email: "bob@x.io", Username: "bobby", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = a.Signup(ctx, &SignupRequest{Email: "c@x.io", Username: "c", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := a.Login(ctx, "BOB@x.io", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = a.Login(ctx, "bob@x.io", "wrong-password")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = a.Login(ctx, "nobody@x.io", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginMagicLinkOnlyUser(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemoryUsers()
	a := NewAccounts(users, testArgon())

	_, err := users.GetOrCreate(ctx, "a@b.com", "alice")
	require.NoError(t, err)

	_, err = a.Login(ctx, "a@b.com", "")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

type fakeStorage struct {
	key, contentType string
	purged           []string
}

func (f *fakeStorage) DeletePrefix(_ context.Context, prefix string) (int, error) {
	f.purged = append(f.purged, prefix)
	return 1, nil
}

func (f *fakeStorage) PutObject(_ context.Context, key string, _ []byte, contentType string) (string, error) {
	f.key, f.contentType = key, contentType
	return "https://cdn.example/" + key, nil
}

func TestLogosUpload(t *testing.T) {
	ctx := context.Background()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	_, err := NewLogos(nil).Upload(ctx, 1, png)
	assert.ErrorIs(t, err, ErrStorageDisabled)

	fs := &fakeStorage{}
	l := NewLogos(fs)

	url, err := l.Upload(ctx, 7, png)
	require.NoError(t, err)
	assert.Equal(t, "image/png", fs.contentType)
	assert.Regexp(t, `^startups/7/logo-[A-Za-z0-9]+\.png$`, fs.key)
	assert.Equal(t, "https://cdn.example/"+fs.key, url)

	_, err = l.Upload(ctx, 7, []byte("plain text"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogosPurge(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, NewLogos(nil).Purge(ctx, 1))

	fs := &fakeStorage{}
	require.NoError(t, NewLogos(fs).Purge(ctx, 7))
	assert.Equal(t, []string{"startups/7/"}, fs.purged)
}
