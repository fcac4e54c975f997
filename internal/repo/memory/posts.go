package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/socialfeed/internal/domain/post"
)

type PostsRepo struct {
	mu    sync.RWMutex
	items []post.Post
}

func NewPostsRepo() *PostsRepo {
	return &PostsRepo{}
}

func (r *PostsRepo) Create(_ context.Context, p post.Post) error {
	r.mu.Lock()
	r.items = append(r.items, clonePost(p))
	r.mu.Unlock()

	return nil
}

func (r *PostsRepo) Count(_ context.Context, q post.Query) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if q.AuthorID == "" {
		return len(r.items), nil
	}

	n := 0
	for _, p := range r.items {
		if p.Author == q.AuthorID {
			n++
		}
	}
	return n, nil
}

func (r *PostsRepo) Find(_ context.Context, q post.Query) ([]post.Post, error) {
	r.mu.RLock()
	matched := make([]post.Post, 0, len(r.items))
	for _, p := range r.items {
		if q.AuthorID == "" || p.Author == q.AuthorID {
			matched = append(matched, clonePost(p))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return post.Less(matched[i], matched[j]) })

	if q.Offset < 0 || q.Offset >= len(matched) {
		return []post.Post{}, nil
	}
	matched = matched[q.Offset:]

	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}

	return matched, nil
}

func clonePost(p post.Post) post.Post {
	likes := make([]string, len(p.Likes))
	copy(likes, p.Likes)
	p.Likes = likes
	return p
}
