package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/socialfeed/internal/domain/post"
	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/geocoder89/socialfeed/internal/http/handlers"
	"github.com/geocoder89/socialfeed/internal/services"
	"github.com/geocoder89/socialfeed/internal/validation"
	"github.com/gin-gonic/gin"
)

const aliceID = "0b8f4c52-8f3e-4c55-9a53-2d7c3c1f9a10"

type fakeFeed struct {
	createFn   func(ctx context.Context, content string) (post.View, error)
	listFn     func(ctx context.Context, page, limit int) (post.FeedPage, error)
	byAuthorFn func(ctx context.Context, authorID string) ([]post.View, error)
}

func (f *fakeFeed) Create(ctx context.Context, content string) (post.View, error) {
	return f.createFn(ctx, content)
}

func (f *fakeFeed) List(ctx context.Context, page, limit int) (post.FeedPage, error) {
	return f.listFn(ctx, page, limit)
}

func (f *fakeFeed) ListByAuthor(ctx context.Context, authorID string) ([]post.View, error) {
	return f.byAuthorFn(ctx, authorID)
}

type fakeProfiles struct {
	getFn    func(ctx context.Context, id string) (user.User, error)
	updateFn func(ctx context.Context, req user.UpdateProfileRequest) (user.Profile, error)
}

func (f *fakeProfiles) Get(ctx context.Context, id string) (user.User, error) {
	return f.getFn(ctx, id)
}

func (f *fakeProfiles) UpdateOwn(ctx context.Context, req user.UpdateProfileRequest) (user.Profile, error) {
	return f.updateFn(ctx, req)
}

type errorEnvelope struct {
	Error struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		RequestID string          `json:"requestId"`
		Details   json.RawMessage `json:"details"`
	} `json:"error"`
}

func setupRouter(feed handlers.Feed, profiles handlers.Profiles) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()

	ph := handlers.NewPostsHandler(feed)
	uh := handlers.NewUsersHandler(profiles, feed)

	r.GET("/api/posts", ph.List)
	r.POST("/api/posts", ph.Create)
	r.GET("/api/users/:id", uh.GetByID)
	r.GET("/api/users/:id/posts", uh.ListPosts)
	r.PUT("/api/users/profile", uh.UpdateProfile)

	return r
}

func doJSON(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode error body: %v body=%s", err, w.Body.String())
	}
	return env
}

func TestPostsList_QueryCoercion(t *testing.T) {
	tests := []struct {
		query               string
		wantPage, wantLimit int
	}{
		{"", 1, 10},
		{"?page=2&limit=5", 2, 5},
		{"?page=abc&limit=xyz", 1, 10},
		{"?page=0&limit=-3", 1, 10},
		{"?page=3", 3, 10},
		{"?limit=500", 1, 500},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var gotPage, gotLimit int

			feed := &fakeFeed{
				listFn: func(_ context.Context, page, limit int) (post.FeedPage, error) {
					gotPage, gotLimit = page, limit
					return post.FeedPage{Page: page, Posts: []post.View{}}, nil
				},
			}

			w := doJSON(setupRouter(feed, nil), http.MethodGet, "/api/posts"+tt.query, "", nil)

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
			}
			if gotPage != tt.wantPage || gotLimit != tt.wantLimit {
				t.Fatalf("service got page=%d limit=%d, want %d/%d", gotPage, gotLimit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestPostsList_ETagNotModified(t *testing.T) {
	feed := &fakeFeed{
		listFn: func(_ context.Context, page, limit int) (post.FeedPage, error) {
			return post.FeedPage{Page: 1, Pages: 0, Total: 0, Posts: []post.View{}}, nil
		},
	}
	r := setupRouter(feed, nil)

	first := doJSON(r, http.MethodGet, "/api/posts", "", nil)
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag header")
	}
	if !strings.Contains(first.Body.String(), `"posts":[]`) {
		t.Fatalf("empty feed must serialize posts as [], body=%s", first.Body.String())
	}

	second := doJSON(r, http.MethodGet, "/api/posts", "", map[string]string{"If-None-Match": etag})
	if second.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want %d", second.Code, http.StatusNotModified)
	}
}

func TestPostsCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation",
			err:        &validation.Error{Fields: []validation.FieldError{{Field: "content", Rule: "max", Param: "1000"}}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{"unauthenticated", services.ErrUnauthenticated, http.StatusUnauthorized, "unauthorized"},
		{"author missing", user.ErrNotFound, http.StatusNotFound, "user_not_found"},
		{"storage", &services.StorageError{Op: "posts.create", Err: errors.New("connection refused")}, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := &fakeFeed{
				createFn: func(context.Context, string) (post.View, error) {
					return post.View{}, tt.err
				},
			}

			w := doJSON(setupRouter(feed, nil), http.MethodPost, "/api/posts", `{"content":"hi"}`,
				map[string]string{"X-Request-Id": "req-123"})

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			env := decodeError(t, w)
			if env.Error.Code != tt.wantCode {
				t.Fatalf("got code %q, want %q", env.Error.Code, tt.wantCode)
			}
			if env.Error.RequestID != "req-123" {
				t.Fatalf("expected request id to be echoed, got %q", env.Error.RequestID)
			}
			if strings.Contains(w.Body.String(), "connection refused") {
				t.Fatalf("internal error detail leaked: %s", w.Body.String())
			}
		})
	}
}

func TestPostsCreate_MissingContentNeverReachesService(t *testing.T) {
	called := false
	feed := &fakeFeed{
		createFn: func(context.Context, string) (post.View, error) {
			called = true
			return post.View{}, nil
		},
	}

	w := doJSON(setupRouter(feed, nil), http.MethodPost, "/api/posts", `{}`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}
	if called {
		t.Fatalf("service should not be called on bind failure")
	}
}

func TestUsersGetByID(t *testing.T) {
	profiles := &fakeProfiles{
		getFn: func(_ context.Context, id string) (user.User, error) {
			if id != aliceID {
				return user.User{}, user.ErrNotFound
			}
			return user.User{ID: aliceID, Name: "Alice", Email: "alice@example.com", PasswordHash: "secret-hash"}, nil
		},
	}
	r := setupRouter(nil, profiles)

	w := doJSON(r, http.MethodGet, "/api/users/"+aliceID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "secret-hash") || strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password hash leaked: %s", w.Body.String())
	}

	missing := doJSON(r, http.MethodGet, "/api/users/6a1e1b36-3f55-4d5f-8a43-5a8b3a0c6d21", "", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want %d", missing.Code, http.StatusNotFound)
	}

	malformed := doJSON(r, http.MethodGet, "/api/users/not-a-uuid", "", nil)
	if malformed.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", malformed.Code, http.StatusBadRequest)
	}
}

func TestUsersListPosts_EmptyIsArray(t *testing.T) {
	feed := &fakeFeed{
		byAuthorFn: func(context.Context, string) ([]post.View, error) {
			return []post.View{}, nil
		},
	}

	w := doJSON(setupRouter(feed, nil), http.MethodGet, "/api/users/"+aliceID+"/posts", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected [], got %s", w.Body.String())
	}
}

func TestUsersUpdateProfile_PassesPatchThrough(t *testing.T) {
	var got user.UpdateProfileRequest

	profiles := &fakeProfiles{
		updateFn: func(_ context.Context, req user.UpdateProfileRequest) (user.Profile, error) {
			got = req
			return user.Profile{ID: aliceID, Name: "Alice", Bio: *req.Bio}, nil
		},
	}

	w := doJSON(setupRouter(nil, profiles), http.MethodPut, "/api/users/profile", `{"bio":"x"}`, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
	if got.Name != nil || got.ProfilePicture != nil || got.Bio == nil || *got.Bio != "x" {
		t.Fatalf("absent fields must stay nil: %+v", got)
	}

	var resp user.Profile
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Bio != "x" || resp.Name != "Alice" {
		t.Fatalf("unexpected profile: %+v", resp)
	}
}

func TestUsersUpdateProfile_ValidationDetails(t *testing.T) {
	profiles := &fakeProfiles{
		updateFn: func(context.Context, user.UpdateProfileRequest) (user.Profile, error) {
			var check validation.Checker
			check.Var("bio", strings.Repeat("b", 301), "max=300")
			return user.Profile{}, check.Err()
		},
	}

	w := doJSON(setupRouter(nil, profiles), http.MethodPut, "/api/users/profile", `{"bio":"long"}`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields[0].Field != "bio" || resp.Error.Details.Fields[0].Rule != "max" {
		t.Fatalf("unexpected field errors: %+v", resp.Error.Details.Fields)
	}
}
