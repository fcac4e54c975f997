package services

import (
	"context"
	"errors"

	"github.com/geocoder89/socialfeed/internal/domain/post"
	"github.com/geocoder89/socialfeed/internal/domain/user"
)

type UserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// AuthorResolver joins posts with their author's projection at read time.
// Each distinct author is looked up once per call.
type AuthorResolver struct {
	users UserLookup
}

func NewAuthorResolver(users UserLookup) *AuthorResolver {
	return &AuthorResolver{users: users}
}

// Resolve keeps the input order. An author that no longer exists resolves
// to a nil projection instead of failing the whole page.
func (r *AuthorResolver) Resolve(ctx context.Context, posts []post.Post) ([]post.View, error) {
	authors := make(map[string]*user.Author)
	views := make([]post.View, 0, len(posts))

	for _, p := range posts {
		a, seen := authors[p.Author]

		if !seen {
			u, err := r.users.GetByID(ctx, p.Author)

			switch {
			case err == nil:
				projection := u.Author()
				a = &projection
			case errors.Is(err, user.ErrNotFound):
				a = nil
			default:
				return nil, storageErr("users.get_by_id", err)
			}

			authors[p.Author] = a
		}

		views = append(views, p.View(a))
	}

	return views, nil
}
