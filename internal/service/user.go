package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"warbler/internal/logging"
	"warbler/internal/model"
	"warbler/internal/repository"
)

// SearchLimit caps the user directory listing.
const SearchLimit = 100

var userLog = logging.Component("UserService")

// ObjectDeleter removes uploaded images from the bucket.
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, key string) error
}

// UserService handles business logic for user operations
type UserService struct {
	repo        repository.UserRepository
	followRepo  repository.FollowRepository
	messageRepo repository.MessageRepository
	likeRepo    repository.LikeRepository
	objects     ObjectDeleter

	defaultImageURL       string
	defaultHeaderImageURL string
}

// NewUserService builds the service. objects may be nil when uploads are disabled.
func NewUserService(repos repository.Repositories, objects ObjectDeleter, defaultImageURL, defaultHeaderImageURL string) *UserService {
	if defaultImageURL == "" {
		defaultImageURL = model.DefaultImageURL
	}
	if defaultHeaderImageURL == "" {
		defaultHeaderImageURL = model.DefaultHeaderImageURL
	}
	return &UserService{
		repo:                  repos.Users,
		followRepo:            repos.Follows,
		messageRepo:           repos.Messages,
		likeRepo:              repos.Likes,
		objects:               objects,
		defaultImageURL:       defaultImageURL,
		defaultHeaderImageURL: defaultHeaderImageURL,
	}
}

// Signup hashes the password and creates the account.
// A taken username or email surfaces as ErrUsernameExists / ErrEmailExists.
func (s *UserService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		Password:       string(hashedPassword),
		ImageURL:       req.ImageURL,
		ImageKey:       req.ImageKey,
		HeaderImageURL: s.defaultHeaderImageURL,
	}
	if user.ImageURL == "" {
		user.ImageURL = s.defaultImageURL
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUsernameExists) || errors.Is(err, model.ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	userLog.WithField("user", user.ID).Info("User signed up")
	return user, nil
}

// Authenticate returns the user when the password matches its hash.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}
	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Search lists users whose username contains query, with the viewer's follow state.
func (s *UserService) Search(ctx context.Context, query string, viewerID *int64) ([]model.UserSummary, error) {
	users, err := s.repo.Search(ctx, query, SearchLimit)
	if err != nil {
		return nil, err
	}

	if viewerID != nil && len(users) > 0 {
		userIDs := make([]int64, len(users))
		for i, user := range users {
			userIDs[i] = user.ID
		}

		followMap, err := s.followRepo.CheckFollows(ctx, *viewerID, userIDs)
		if err != nil {
			userLog.WithError(err).Warn("Failed to check follows for search")
		} else {
			for i := range users {
				users[i].IsFollowing = followMap[users[i].ID]
			}
		}
	}

	return users, nil
}

// GetProfile assembles the profile page of userID as seen by viewerID.
func (s *UserService) GetProfile(ctx context.Context, userID, viewerID int64) (*model.ProfileResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	messages, err := s.messageRepo.ListByUser(ctx, userID, model.TimelineLimit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	profile := &model.ProfileResponse{
		User:     user,
		Stats:    stats,
		Messages: messages,
		LikedIDs: []int64{},
		IsSelf:   userID == viewerID,
	}

	if len(messages) > 0 {
		ids := make([]int64, len(messages))
		for i, m := range messages {
			ids[i] = m.ID
		}
		likes, err := s.likeRepo.CheckLikes(ctx, viewerID, ids)
		if err != nil {
			userLog.WithError(err).Warn("Failed to check likes for profile")
		}
		profile.LikedIDs = likedIDs(ids, likes)
	}

	if !profile.IsSelf {
		isFollowing, err := s.followRepo.Exists(ctx, viewerID, userID)
		if err != nil {
			userLog.WithError(err).Warn("Failed to check follow state for profile")
		}
		profile.IsFollowing = isFollowing
	}

	return profile, nil
}

// UpdateProfile re-checks the current password and saves the editable fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	var staleKeys []string
	oldImageKey, oldHeaderKey := user.ImageKey, user.HeaderImageKey

	user.Username = req.Username
	user.Email = req.Email
	user.Bio = optional(req.Bio)
	user.Location = optional(req.Location)

	user.ImageURL, user.ImageKey = s.resolveImage(req.ImageURL, req.ImageKey, user.ImageURL, user.ImageKey, s.defaultImageURL)
	user.HeaderImageURL, user.HeaderImageKey = s.resolveImage(req.HeaderImageURL, req.HeaderImageKey, user.HeaderImageURL, user.HeaderImageKey, s.defaultHeaderImageURL)

	if oldImageKey != nil && (user.ImageKey == nil || *user.ImageKey != *oldImageKey) {
		staleKeys = append(staleKeys, *oldImageKey)
	}
	if oldHeaderKey != nil && (user.HeaderImageKey == nil || *user.HeaderImageKey != *oldHeaderKey) {
		staleKeys = append(staleKeys, *oldHeaderKey)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, model.ErrUsernameExists) || errors.Is(err, model.ErrEmailExists) || errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.deleteObjects(ctx, staleKeys...)
	return user, nil
}

// resolveImage picks the new URL/key pair. An upload wins, an empty URL
// restores the default, and an unchanged URL keeps the stored key.
func (s *UserService) resolveImage(url string, key *string, currentURL string, currentKey *string, fallback string) (string, *string) {
	switch {
	case key != nil:
		return url, key
	case url == "":
		return fallback, nil
	case url == currentURL:
		return currentURL, currentKey
	default:
		return url, nil
	}
}

// Delete removes the account. Messages, follows and likes cascade in the store.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}

	var keys []string
	if user.ImageKey != nil {
		keys = append(keys, *user.ImageKey)
	}
	if user.HeaderImageKey != nil {
		keys = append(keys, *user.HeaderImageKey)
	}
	s.deleteObjects(ctx, keys...)

	userLog.WithField("user", userID).Info("User deleted")
	return nil
}

// deleteObjects is best-effort: the rows are already gone.
func (s *UserService) deleteObjects(ctx context.Context, keys ...string) {
	if s.objects == nil {
		return
	}
	for _, key := range keys {
		if err := s.objects.DeleteObject(ctx, key); err != nil {
			userLog.WithError(err).WithField("key", key).Warn("Failed to delete image object")
		}
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// likedIDs filters ids down to the liked ones, keeping order.
func likedIDs(ids []int64, likes map[int64]bool) []int64 {
	out := make([]int64, 0, len(likes))
	for _, id := range ids {
		if likes[id] {
			out = append(out, id)
		}
	}
	return out
}
