package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrChannelNotFound      = fmt.Errorf("channel %w", ErrNotFound)
	ErrPostNotFound         = fmt.Errorf("post %w", ErrNotFound)
	ErrReactionNotFound     = fmt.Errorf("reaction %w", ErrNotFound)
	ErrConversationNotFound = fmt.Errorf("conversation %w", ErrNotFound)
	ErrPollOptionNotFound   = fmt.Errorf("poll option %w", ErrNotFound)
)

// ErrInvalidTransition 重复操作（已点赞再点赞等），属于预期内的客户端竞争
var (
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrAlreadyLiked       = fmt.Errorf("%w: already liked", ErrInvalidTransition)
	ErrAlreadyUnliked     = fmt.Errorf("%w: already unliked", ErrInvalidTransition)
	ErrAlreadyFavorited   = fmt.Errorf("%w: already favorited", ErrInvalidTransition)
	ErrAlreadyUnfavorited = fmt.Errorf("%w: already unfavorited", ErrInvalidTransition)
	ErrAlreadyFollowing   = fmt.Errorf("%w: already following", ErrInvalidTransition)
	ErrAlreadyUnfollowed  = fmt.Errorf("%w: already unfollowed", ErrInvalidTransition)
	ErrAlreadyBlocked     = fmt.Errorf("%w: already blocked", ErrInvalidTransition)
	ErrNotBlocked         = fmt.Errorf("%w: not blocked", ErrInvalidTransition)
	ErrAlreadyDisabled    = fmt.Errorf("%w: already disabled", ErrInvalidTransition)
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")
)

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// mapNotFound 将 gorm.ErrRecordNotFound 转为实体级错误，其余错误原样包装
func mapNotFound(err, notFound error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
