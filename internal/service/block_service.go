package service

import (
	"context"

	"github.com/d60-Lab/channel-feed/internal/repository"
)

// BlockService 单向拉黑，行存在即状态
type BlockService interface {
	Block(ctx context.Context, blockerID, blockedID string) error
	Unblock(ctx context.Context, blockerID, blockedID string) error
}

type blockService struct {
	lookup
	blocks repository.BlockRepository
}

func NewBlockService(users repository.UserRepository, blocks repository.BlockRepository) BlockService {
	return &blockService{lookup: lookup{users: users}, blocks: blocks}
}

func (s *blockService) check(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return invalidArg("cannot block self")
	}
	if _, err := s.user(ctx, blockerID); err != nil {
		return err
	}
	_, err := s.user(ctx, blockedID)
	return err
}

func (s *blockService) Block(ctx context.Context, blockerID, blockedID string) error {
	if err := s.check(ctx, blockerID, blockedID); err != nil {
		return err
	}
	created, err := s.blocks.Create(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if !created {
		return ErrAlreadyBlocked
	}
	return nil
}

func (s *blockService) Unblock(ctx context.Context, blockerID, blockedID string) error {
	if err := s.check(ctx, blockerID, blockedID); err != nil {
		return err
	}
	deleted, err := s.blocks.Delete(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotBlocked
	}
	return nil
}
