package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/geocoder89/socialfeed/internal/actorctx"
	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/geocoder89/socialfeed/internal/validation"
)

const MaxBioLength = 300

type ProfileService struct {
	users UserStore
	cache FeedCache
}

type ProfileOption func(*ProfileService)

// WithProfileFeedCache lets profile edits drop cached feed pages, which embed
// author names and pictures.
func WithProfileFeedCache(c FeedCache) ProfileOption {
	return func(s *ProfileService) { s.cache = c }
}

func NewProfileService(users UserStore, opts ...ProfileOption) *ProfileService {
	s := &ProfileService{users: users}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *ProfileService) Get(ctx context.Context, id string) (u user.User, err error) {
	ctx, span := tracer.Start(ctx, "profile.Get")
	defer func() { endSpan(span, err) }()

	u, err = s.users.GetByID(ctx, id)
	if err != nil {
		return user.User{}, storageErr("users.get_by_id", err)
	}

	return u, nil
}

// UpdateOwn patches the caller's own record. There is no user id
// parameter: the target is whoever ctx says is calling.
func (s *ProfileService) UpdateOwn(ctx context.Context, req user.UpdateProfileRequest) (p user.Profile, err error) {
	ctx, span := tracer.Start(ctx, "profile.UpdateOwn")
	defer func() { endSpan(span, err) }()

	callerID, ok := actorctx.UserIDFrom(ctx)
	if !ok {
		return user.Profile{}, ErrUnauthenticated
	}

	req = normalizeProfilePatch(req)

	if err := validateProfilePatch(req); err != nil {
		return user.Profile{}, err
	}

	current, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return user.Profile{}, storageErr("users.get_by_id", err)
	}

	saved, err := s.users.UpdateProfile(ctx, req.Apply(current))
	if err != nil {
		return user.Profile{}, storageErr("users.update_profile", err)
	}

	if s.cache != nil && (saved.Name != current.Name || saved.ProfilePicture != current.ProfilePicture) {
		s.cache.Invalidate(ctx)
	}

	return saved.Profile(), nil
}

func normalizeProfilePatch(req user.UpdateProfileRequest) user.UpdateProfileRequest {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if req.ProfilePicture != nil {
		pic := strings.TrimSpace(*req.ProfilePicture)
		req.ProfilePicture = &pic
	}
	return req
}

func validateProfilePatch(req user.UpdateProfileRequest) error {
	var check validation.Checker

	if req.Name != nil {
		check.Var("name", *req.Name, "required")
	}
	if req.Bio != nil {
		check.Var("bio", *req.Bio, "max="+strconv.Itoa(MaxBioLength))
	}
	// an empty picture clears it; anything else must be a URL
	if req.ProfilePicture != nil && *req.ProfilePicture != "" {
		check.Var("profilePicture", *req.ProfilePicture, "url")
	}

	return check.Err()
}
