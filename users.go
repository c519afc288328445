package mesto

import (
	"context"
	"errors"
)

// UserService serves the profile endpoints.
type UserService struct {
	Users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{Users: users}
}

// List returns all users. An empty collection is reported as NotFound.
func (s *UserService) List(ctx context.Context) ([]*User, error) {
	users, err := s.Users.ListUsers(ctx)
	if err != nil {
		return nil, Internal(err)
	}
	if len(users) == 0 {
		return nil, NotFound(MsgNoUsers)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, rawUserID string) (*User, error) {
	userID, err := ParseID(rawUserID)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, userID)
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, id Identity) (*User, error) {
	if id.IsZero() {
		return nil, Unauthorized(MsgAuthRequired)
	}
	return s.get(ctx, id.Subject())
}

func (s *UserService) UpdateProfile(ctx context.Context, id Identity, req ProfileRequest) (*User, error) {
	if id.IsZero() {
		return nil, Unauthorized(MsgAuthRequired)
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	return s.update(ctx, id.Subject(), ProfileUpdate{Name: &req.Name, About: &req.About})
}

func (s *UserService) UpdateAvatar(ctx context.Context, id Identity, req AvatarRequest) (*User, error) {
	if id.IsZero() {
		return nil, Unauthorized(MsgAuthRequired)
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	return s.update(ctx, id.Subject(), ProfileUpdate{Avatar: &req.Avatar})
}

func (s *UserService) get(ctx context.Context, userID ID) (*User, error) {
	user, err := s.Users.GetUserByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, NotFound(MsgUserNotFound)
	} else if err != nil {
		return nil, Internal(err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) update(ctx context.Context, userID ID, update ProfileUpdate) (*User, error) {
	user, err := s.Users.UpdateUser(ctx, userID, update)
	if errors.Is(err, ErrNotFound) {
		return nil, NotFound(MsgUserNotFound)
	} else if err != nil {
		return nil, Internal(err)
	}
	user.PasswordHash = ""
	return user, nil
}
