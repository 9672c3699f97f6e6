package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/sparrowchat/sparrow/internal/domain"
)

const searchLimit = 20

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Search finds users by name or email fragment. The caller is never part
// of the result set.
func (s *UserService) Search(ctx context.Context, selfID, query string) ([]*domain.User, error) {
	if query == "" {
		return []*domain.User{}, nil
	}

	users, err := s.users.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return lo.Filter(users, func(u *domain.User, _ int) bool {
		return u.ID != selfID
	}), nil
}
