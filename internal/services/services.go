// Package services holds the request-scoped orchestration between the HTTP
// handlers and the record store: validate, persist, resolve authors.
package services

import (
	"context"
	"errors"

	"github.com/geocoder89/socialfeed/internal/domain/post"
	"github.com/geocoder89/socialfeed/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/geocoder89/socialfeed/internal/services")

var (
	ErrUnauthenticated    = errors.New("no authenticated caller")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// StorageError wraps a failed store call. It is reported once, never retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr passes domain sentinels through untouched and wraps the rest.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, user.ErrNotFound) || errors.Is(err, user.ErrEmailTaken) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// UserStore is the users half of the record store.
type UserStore interface {
	Create(ctx context.Context, u user.User) error
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdateProfile(ctx context.Context, u user.User) (user.User, error)
}

// PostStore is the posts half of the record store: insert, count and an
// ordered skip/limit scan.
type PostStore interface {
	Create(ctx context.Context, p post.Post) error
	Count(ctx context.Context, q post.Query) (int, error)
	Find(ctx context.Context, q post.Query) ([]post.Post, error)
}

// FeedCache stores encoded feed pages. Implementations swallow their own
// failures; a broken cache degrades to a miss.
//
// Get also returns the cache generation it read in; Set must be given that
// generation back and skips the write if an Invalidate ran in between.
type FeedCache interface {
	Get(ctx context.Context, key string) (val []byte, gen int64, ok bool)
	Set(ctx context.Context, key string, gen int64, val []byte)
	Invalidate(ctx context.Context)
}

type FeedMetrics interface {
	PostCreated()
	CacheLookup(hit bool)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
