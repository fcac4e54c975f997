package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/geocoder89/socialfeed/internal/actorctx"
	"github.com/geocoder89/socialfeed/internal/domain/post"
	"github.com/geocoder89/socialfeed/internal/utils"
	"github.com/geocoder89/socialfeed/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type FeedService struct {
	posts   PostStore
	users   UserLookup
	authors *AuthorResolver
	cache   FeedCache
	metrics FeedMetrics
}

type FeedOption func(*FeedService)

func WithFeedCache(c FeedCache) FeedOption {
	return func(s *FeedService) { s.cache = c }
}

func WithFeedMetrics(m FeedMetrics) FeedOption {
	return func(s *FeedService) { s.metrics = m }
}

func NewFeedService(posts PostStore, users UserLookup, opts ...FeedOption) *FeedService {
	s := &FeedService{
		posts:   posts,
		users:   users,
		authors: NewAuthorResolver(users),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create publishes a post as the caller carried by ctx.
func (s *FeedService) Create(ctx context.Context, content string) (view post.View, err error) {
	ctx, span := tracer.Start(ctx, "feed.Create")
	defer func() { endSpan(span, err) }()

	callerID, ok := actorctx.UserIDFrom(ctx)
	if !ok {
		return post.View{}, ErrUnauthenticated
	}

	content = strings.TrimSpace(content)

	var check validation.Checker
	check.Var("content", content, "required,max="+strconv.Itoa(post.MaxContentLength))
	if err := check.Err(); err != nil {
		return post.View{}, err
	}

	// the author must exist when the post is written
	author, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return post.View{}, storageErr("users.get_by_id", err)
	}

	p := post.New(callerID, content)

	if err := s.posts.Create(ctx, p); err != nil {
		return post.View{}, storageErr("posts.create", err)
	}

	span.SetAttributes(attribute.String("post.id", p.ID))

	if s.metrics != nil {
		s.metrics.PostCreated()
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	projection := author.Author()
	return p.View(&projection), nil
}

// List returns one window of the global feed, newest first.
//
// Count, window and author lookups are separate reads. A write landing in
// between can make total/pages disagree with the window, and skip/limit
// paging can repeat or skip a post when new posts arrive between page
// fetches. Both are accepted.
func (s *FeedService) List(ctx context.Context, page, limit int) (out post.FeedPage, err error) {
	page, limit, offset := post.Window(page, limit)

	ctx, span := tracer.Start(ctx, "feed.List", trace.WithAttributes(
		attribute.Int("feed.page", page),
		attribute.Int("feed.limit", limit),
	))
	defer func() { endSpan(span, err) }()

	key := utils.BuildFeedPageCacheKey(page, limit)

	cached, gen, ok := s.cachedPage(ctx, key)
	if ok {
		return cached, nil
	}

	total, err := s.posts.Count(ctx, post.Query{})
	if err != nil {
		return post.FeedPage{}, storageErr("posts.count", err)
	}

	posts, err := s.posts.Find(ctx, post.Query{Offset: offset, Limit: limit})
	if err != nil {
		return post.FeedPage{}, storageErr("posts.find", err)
	}

	views, err := s.authors.Resolve(ctx, posts)
	if err != nil {
		return post.FeedPage{}, err
	}

	out = post.FeedPage{
		Page:  page,
		Pages: post.Pages(total, limit),
		Total: total,
		Posts: views,
	}

	s.storePage(ctx, key, gen, out)

	return out, nil
}

// ListByAuthor returns every post by authorID, newest first, unpaginated.
// An unknown author yields an empty list.
func (s *FeedService) ListByAuthor(ctx context.Context, authorID string) (views []post.View, err error) {
	ctx, span := tracer.Start(ctx, "feed.ListByAuthor", trace.WithAttributes(
		attribute.String("feed.author_id", authorID),
	))
	defer func() { endSpan(span, err) }()

	posts, err := s.posts.Find(ctx, post.Query{AuthorID: authorID})
	if err != nil {
		return nil, storageErr("posts.find", err)
	}

	return s.authors.Resolve(ctx, posts)
}

func (s *FeedService) cachedPage(ctx context.Context, key string) (post.FeedPage, int64, bool) {
	if s.cache == nil {
		return post.FeedPage{}, 0, false
	}

	b, gen, ok := s.cache.Get(ctx, key)

	if s.metrics != nil {
		s.metrics.CacheLookup(ok)
	}

	if !ok {
		return post.FeedPage{}, gen, false
	}

	var page post.FeedPage
	if err := json.Unmarshal(b, &page); err != nil {
		slog.Default().WarnContext(ctx, "discarding undecodable feed cache entry", "key", key, "err", err)
		return post.FeedPage{}, gen, false
	}

	return page, gen, true
}

// storePage caches page under the generation read before the store was
// queried.
func (s *FeedService) storePage(ctx context.Context, key string, gen int64, page post.FeedPage) {
	if s.cache == nil {
		return
	}

	b, err := json.Marshal(page)
	if err != nil {
		return
	}

	s.cache.Set(ctx, key, gen, b)
}
