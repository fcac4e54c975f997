package post

import (
	"math"
	"time"

	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/google/uuid"
)

const (
	MaxContentLength = 1000

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Post is the stored record; Author holds the author's user id.
type Post struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// View is a post as served to clients, with the author resolved.
// Author is nil when the referenced user no longer exists.
type View struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	Author    *user.Author `json:"author"`
	Likes     []string     `json:"likes"`
	CreatedAt time.Time    `json:"createdAt"`
}

type CreatePostRequest struct {
	Content string `json:"content" binding:"required"`
}

// Query selects posts newest first (createdAt DESC, id DESC).
// An empty AuthorID matches every post; Limit 0 means no limit.
type Query struct {
	AuthorID string
	Offset   int
	Limit    int
}

type FeedPage struct {
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
	Total int    `json:"total"`
	Posts []View `json:"posts"`
}

// New builds a post with a time-ordered (v7) id, so the id tiebreak on equal
// createdAt follows insertion order. CreatedAt is truncated to microseconds,
// the precision postgres timestamptz keeps.
func New(authorID, content string) Post {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return Post{
		ID:        id.String(),
		Author:    authorID,
		Content:   content,
		Likes:     []string{},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// View resolves p against its author projection. Likes are copied so the
// view never aliases the stored record.
func (p Post) View(author *user.Author) View {
	likes := make([]string, len(p.Likes))
	copy(likes, p.Likes)

	return View{
		ID:        p.ID,
		Content:   p.Content,
		Author:    author,
		Likes:     likes,
		CreatedAt: p.CreatedAt,
	}
}

// Less reports whether a sorts before b in feed order.
func Less(a, b Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Pages is ceil(total/limit).
func Pages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Window normalizes page/limit and returns the offset of the page.
// page < 1 becomes 1; limit < 1 becomes DefaultLimit; limit is capped at MaxLimit.
// An offset past math.MaxInt saturates there, which reads as an empty page.
func Window(page, limit int) (int, int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page-1 > math.MaxInt/limit {
		return page, limit, math.MaxInt
	}
	return page, limit, (page - 1) * limit
}
