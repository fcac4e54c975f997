package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/geocoder89/socialfeed/internal/actorctx"
	"github.com/geocoder89/socialfeed/internal/domain/post"
	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/geocoder89/socialfeed/internal/repo/memory"
)

var errDBDown = errors.New("db down")

func seedUser(t *testing.T, users *memory.UsersRepo, name, email string) user.User {
	t.Helper()

	u := user.New(name, email, "not-a-real-hash")
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func as(u user.User) context.Context {
	return actorctx.WithUserID(context.Background(), u.ID)
}

// countingUsers records how many point lookups reach the store.
type countingUsers struct {
	*memory.UsersRepo
	mu      sync.Mutex
	lookups int
}

func (c *countingUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	c.mu.Lock()
	c.lookups++
	c.mu.Unlock()
	return c.UsersRepo.GetByID(ctx, id)
}

type failingPosts struct {
	createErr error
	countErr  error
	findErr   error
}

func (f *failingPosts) Create(context.Context, post.Post) error { return f.createErr }
func (f *failingPosts) Count(context.Context, post.Query) (int, error) {
	return 0, f.countErr
}
func (f *failingPosts) Find(context.Context, post.Query) ([]post.Post, error) {
	return []post.Post{}, f.findErr
}

type fakeMetrics struct {
	created int
	hits    int
	misses  int
}

func (m *fakeMetrics) PostCreated() { m.created++ }
func (m *fakeMetrics) CacheLookup(hit bool) {
	if hit {
		m.hits++
		return
	}
	m.misses++
}

type fakeTokens struct {
	err error
}

func (f fakeTokens) GenerateAccessToken(userID, email string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + userID, nil
}
