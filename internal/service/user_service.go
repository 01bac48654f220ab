package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
)

type UserService interface {
	Register(ctx context.Context, username string, isAdmin bool) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
}

type userService struct {
	lookup
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{lookup: lookup{users: users}}
}

func (s *userService) Register(ctx context.Context, username string, isAdmin bool) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalidArg("empty username")
	}
	now := time.Now().UTC()
	u := &model.User{ID: uuid.NewString(), Username: username, IsAdmin: isAdmin, CreatedAt: now, UpdatedAt: now}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.user(ctx, id)
}
