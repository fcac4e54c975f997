// Package client speaks the socialfeed HTTP contract and keeps the view state
// a front end needs for the feed and profile screens.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/socialfeed/internal/domain/post"
	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/geocoder89/socialfeed/internal/validation"
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Fields    []validation.FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("socialfeed: http %d", e.Status)
	}
	return fmt.Sprintf("socialfeed: %s (%d %s)", e.Message, e.Status, e.Code)
}

// UserMessage is the short text shown to a person when a call fails.
func (e *APIError) UserMessage() string {
	if len(e.Fields) > 0 {
		f := e.Fields[0]
		return f.Field + " " + f.Message
	}
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type errorEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
		Details   struct {
			Fields []validation.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

// Session is what register and login return and what the session store
// persists between runs.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type API struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*API)

func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.http = c }
}

func WithToken(token string) Option {
	return func(a *API) { a.token = token }
}

func NewAPI(baseURL string, opts ...Option) *API {
	a := &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// SetToken switches the bearer token used on authenticated calls. An empty
// token makes the client anonymous again.
func (a *API) SetToken(token string) {
	a.token = token
}

func (a *API) Register(ctx context.Context, name, email, password string) (Session, error) {
	var out Session
	err := a.do(ctx, http.MethodPost, "/api/auth/register", user.RegisterRequest{Name: name, Email: email, Password: password}, &out)
	return out, err
}

func (a *API) Login(ctx context.Context, email, password string) (Session, error) {
	var out Session
	err := a.do(ctx, http.MethodPost, "/api/auth/login", user.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

func (a *API) Me(ctx context.Context) (user.User, error) {
	var out user.User
	err := a.do(ctx, http.MethodGet, "/api/auth/me", nil, &out)
	return out, err
}

func (a *API) Feed(ctx context.Context, page, limit int) (post.FeedPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/posts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out post.FeedPage
	err := a.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (a *API) CreatePost(ctx context.Context, content string) (post.View, error) {
	var out post.View
	err := a.do(ctx, http.MethodPost, "/api/posts", post.CreatePostRequest{Content: content}, &out)
	return out, err
}

func (a *API) User(ctx context.Context, id string) (user.User, error) {
	var out user.User
	err := a.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (a *API) UserPosts(ctx context.Context, id string) ([]post.View, error) {
	var out []post.View
	err := a.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id)+"/posts", nil, &out)
	return out, err
}

func (a *API) UpdateProfile(ctx context.Context, req user.UpdateProfileRequest) (user.Profile, error) {
	var out user.Profile
	err := a.do(ctx, http.MethodPut, "/api/users/profile", req, &out)
	return out, err
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{
		Status:    resp.StatusCode,
		RequestID: resp.Header.Get("X-Request-Id"),
	}

	var env errorEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&env); err == nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Fields = env.Error.Details.Fields
		if env.Error.RequestID != "" {
			apiErr.RequestID = env.Error.RequestID
		}
	}

	return apiErr
}
