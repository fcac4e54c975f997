package postgres

import (
	"context"
	"fmt"

	"github.com/geocoder89/socialfeed/internal/domain/post"
	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/geocoder89/socialfeed/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, prom: prom}
}

func (r *PostsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *PostsRepo) Create(ctx context.Context, p post.Post) error {
	likes := p.Likes
	if likes == nil {
		likes = []string{}
	}

	err := r.observe("posts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO posts (id, author_id, content, likes, created_at) VALUES ($1,$2,$3,$4,$5)`,
			p.ID, p.Author, p.Content, likes, p.CreatedAt,
		)
		return err
	})

	if err != nil {
		// author row disappeared between the service lookup and the insert
		if IsForeignKeyViolation(err) {
			return user.ErrNotFound
		}
		return err
	}

	return nil
}

func (r *PostsRepo) Count(ctx context.Context, q post.Query) (int, error) {
	query := `SELECT COUNT(*) FROM posts`
	var args []interface{}

	if q.AuthorID != "" {
		query += ` WHERE author_id = $1`
		args = append(args, q.AuthorID)
	}

	var total int

	err := r.observe("posts.count", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(&total)
	})

	if err != nil {
		return 0, err
	}

	return total, nil
}

func (r *PostsRepo) Find(ctx context.Context, q post.Query) ([]post.Post, error) {
	if q.Offset < 0 {
		return []post.Post{}, nil
	}

	query := `SELECT id, author_id, content, likes, created_at FROM posts`
	var args []interface{}

	argsPosition := 1

	if q.AuthorID != "" {
		query += fmt.Sprintf(" WHERE author_id = $%d", argsPosition)
		args = append(args, q.AuthorID)
		argsPosition++
	}

	// stable ordering for pagination; ids are v7 so the tiebreak follows insertion
	query += " ORDER BY created_at DESC, id DESC"

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argsPosition)
		args = append(args, q.Limit)
		argsPosition++
	}

	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argsPosition)
		args = append(args, q.Offset)
	}

	capacity := q.Limit
	if capacity <= 0 {
		capacity = post.DefaultLimit
	}
	output := make([]post.Post, 0, capacity)

	err := r.observe("posts.find", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p post.Post

			if err := rows.Scan(&p.ID, &p.Author, &p.Content, &p.Likes, &p.CreatedAt); err != nil {
				return err
			}

			if p.Likes == nil {
				p.Likes = []string{}
			}
			output = append(output, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}
