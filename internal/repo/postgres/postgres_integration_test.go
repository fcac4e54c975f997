package postgres_test

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/geocoder89/socialfeed/internal/db"
	"github.com/geocoder89/socialfeed/internal/domain/post"
	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/geocoder89/socialfeed/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.RunMigrations(ctx, pool); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	if _, err := pool.Exec(ctx, `TRUNCATE posts, users`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	return pool
}

func TestPostgres_UsersAndPosts(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	users := postgres.NewUsersRepo(pool, nil)
	posts := postgres.NewPostsRepo(pool, nil)

	alice := user.New("Alice", "alice@example.com", "hash")
	if err := users.Create(ctx, alice); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := users.Create(ctx, user.New("Dup", "alice@example.com", "hash")); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 15; i++ {
		p := post.New(alice.ID, "post "+strconv.Itoa(i))
		p.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := posts.Create(ctx, p); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}

	total, err := posts.Count(ctx, post.Query{})
	if err != nil || total != 15 {
		t.Fatalf("count = %d, %v; want 15", total, err)
	}

	page2, err := posts.Find(ctx, post.Query{Offset: 10, Limit: 10})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(page2) != 5 {
		t.Fatalf("expected 5 posts on page 2, got %d", len(page2))
	}
	if page2[0].Content != "post 4" || page2[4].Content != "post 0" {
		t.Fatalf("unexpected order: first=%q last=%q", page2[0].Content, page2[4].Content)
	}
	if page2[0].Likes == nil {
		t.Fatalf("likes should scan as an empty slice")
	}

	orphan := post.New("00000000-0000-0000-0000-000000000000", "nobody")
	if err := posts.Create(ctx, orphan); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown author, got %v", err)
	}

	patched := alice
	patched.Bio = "hi there"
	updated, err := users.UpdateProfile(ctx, patched)
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Bio != "hi there" || updated.Name != "Alice" {
		t.Fatalf("unexpected updated user: %+v", updated)
	}

	if _, err := users.GetByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
