package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/socialfeed/internal/domain/post"
	"github.com/geocoder89/socialfeed/internal/domain/user"
)

type State string

const (
	StateLoading  State = "loading"
	StateLoaded   State = "loaded"
	StateEditing  State = "editing"
	StateFailed   State = "failed"
	StateNotFound State = "not_found"
)

var ErrEmptyDraft = errors.New("nothing to post")

// FeedView is the home screen: the global feed plus the compose box.
// A failed call sets Err and leaves everything else as it was.
// Not safe for concurrent use.
type FeedView struct {
	api *API

	State State
	Page  int
	Pages int
	Total int
	Posts []post.View

	Draft string
	Err   string
}

func NewFeedView(api *API) *FeedView {
	return &FeedView{api: api, State: StateLoading, Posts: []post.View{}}
}

func (v *FeedView) Load(ctx context.Context, page, limit int) error {
	prev := v.State
	v.State = StateLoading

	fp, err := v.api.Feed(ctx, page, limit)
	if err != nil {
		v.fail(prev, err)
		return err
	}

	v.State = StateLoaded
	v.Page, v.Pages, v.Total = fp.Page, fp.Pages, fp.Total
	v.Posts = fp.Posts
	if v.Posts == nil {
		v.Posts = []post.View{}
	}
	v.Err = ""

	return nil
}

// Submit publishes the draft. On success the new post goes to the top of
// the list and the draft is cleared; on failure the draft is kept.
func (v *FeedView) Submit(ctx context.Context) error {
	content := strings.TrimSpace(v.Draft)
	if content == "" {
		return ErrEmptyDraft
	}

	created, err := v.api.CreatePost(ctx, content)
	if err != nil {
		v.Err = messageFor(err)
		return err
	}

	v.Posts = append([]post.View{created}, v.Posts...)
	v.Total++
	v.Draft = ""
	v.Err = ""

	return nil
}

func (v *FeedView) fail(prev State, err error) {
	v.Err = messageFor(err)

	if prev == StateLoaded {
		v.State = StateLoaded
		return
	}
	v.State = StateFailed
}

// ProfileForm holds the fields being edited.
type ProfileForm struct {
	Name string
	Bio  string
}

// ProfileView is one user's page. The owner can switch it into editing;
// a failed save stays in editing with the form untouched.
type ProfileView struct {
	api      *API
	viewerID string

	State State
	User  user.User
	Posts []post.View
	Form  ProfileForm
	Err   string
}

func NewProfileView(api *API, viewerID string) *ProfileView {
	return &ProfileView{api: api, viewerID: viewerID, State: StateLoading, Posts: []post.View{}}
}

// Load fetches the profile and its posts. A failed reload of the profile
// already on screen keeps what was shown and only sets Err; a 404 always
// moves to StateNotFound.
func (v *ProfileView) Load(ctx context.Context, id string) error {
	prev := v.State
	reload := (prev == StateLoaded || prev == StateEditing) && v.User.ID == id
	v.State = StateLoading

	u, err := v.api.User(ctx, id)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			v.State = StateNotFound
			v.Err = messageFor(err)
			return err
		}
		v.fail(prev, reload, err)
		return err
	}

	posts, err := v.api.UserPosts(ctx, id)
	if err != nil {
		v.fail(prev, reload, err)
		return err
	}

	v.User = u
	v.Posts = posts
	v.Form = ProfileForm{Name: u.Name, Bio: u.Bio}
	v.State = StateLoaded
	v.Err = ""

	return nil
}

func (v *ProfileView) fail(prev State, reload bool, err error) {
	v.Err = messageFor(err)

	if reload {
		v.State = prev
		return
	}
	v.State = StateFailed
}

// IsOwn reports whether the viewer is looking at their own profile.
func (v *ProfileView) IsOwn() bool {
	return v.viewerID != "" && v.viewerID == v.User.ID
}

func (v *ProfileView) BeginEdit() bool {
	if v.State != StateLoaded || !v.IsOwn() {
		return false
	}

	v.Form = ProfileForm{Name: v.User.Name, Bio: v.User.Bio}
	v.State = StateEditing
	return true
}

func (v *ProfileView) CancelEdit() {
	if v.State == StateEditing {
		v.State = StateLoaded
		v.Err = ""
	}
}

func (v *ProfileView) Save(ctx context.Context) error {
	if v.State != StateEditing {
		return nil
	}

	name, bio := v.Form.Name, v.Form.Bio

	saved, err := v.api.UpdateProfile(ctx, user.UpdateProfileRequest{Name: &name, Bio: &bio})
	if err != nil {
		v.Err = messageFor(err)
		return err
	}

	v.User.Name = saved.Name
	v.User.Bio = saved.Bio
	v.User.ProfilePicture = saved.ProfilePicture

	// posts on this page embed the author name
	for i := range v.Posts {
		if v.Posts[i].Author != nil && v.Posts[i].Author.ID == saved.ID {
			v.Posts[i].Author.Name = saved.Name
			v.Posts[i].Author.ProfilePicture = saved.ProfilePicture
		}
	}

	v.State = StateLoaded
	v.Err = ""

	return nil
}

func messageFor(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return "Something went wrong. Please try again."
}
