package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/channel-feed/internal/event"
	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
)

type CreatePostInput struct {
	ChannelID string
	Message   string
	MediaURL  string
	// RenderDate 仅管理员可设置，按天生效
	RenderDate  *time.Time
	PollOptions []string
}

// UpdatePostInput nil 字段保持不变
type UpdatePostInput struct {
	Message         *string
	MediaURL        *string
	DisabledByUser  *bool
	DisabledByAdmin *bool
	RenderDate      *time.Time
	ClearRenderDate bool
}

type PostService interface {
	// Create 写 post + outbox，扇出由 FanoutWorker 异步完成
	Create(ctx context.Context, actorID string, in CreatePostInput) (*model.Post, error)
	Update(ctx context.Context, actorID, postID string, in UpdatePostInput) (*model.Post, error)
	// Get 直接按 id 查看；禁用的 post 仅作者与管理员可见
	Get(ctx context.Context, viewerID, postID string) (*FeedItem, error)
}

type postService struct {
	lookup
	enricher
	publisher event.Publisher
}

func NewPostService(
	users repository.UserRepository,
	channels repository.ChannelRepository,
	posts repository.PostRepository,
	reactions repository.ReactionRepository,
	facts repository.FactRepository,
	polls repository.PollRepository,
	publisher event.Publisher,
) PostService {
	return &postService{
		lookup:    lookup{users: users, channels: channels, posts: posts, reactions: reactions},
		enricher:  enricher{facts: facts, polls: polls},
		publisher: publisher,
	}
}

func (s *postService) Create(ctx context.Context, actorID string, in CreatePostInput) (*model.Post, error) {
	author, err := s.user(ctx, actorID)
	if err != nil {
		return nil, err
	}
	channel, err := s.channel(ctx, in.ChannelID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Message) == "" && in.MediaURL == "" {
		return nil, invalidArg("post needs a message or media")
	}
	if in.RenderDate != nil && !author.IsAdmin {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	post := &model.Post{
		ID:        uuid.NewString(),
		ChannelID: channel.ID,
		AuthorID:  author.ID,
		Message:   in.Message,
		MediaURL:  in.MediaURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.RenderDate != nil {
		day := model.Day(*in.RenderDate)
		post.PostRenderDate = &day
	}

	var options []*model.PollOption
	for i, title := range in.PollOptions {
		title = strings.TrimSpace(title)
		if title == "" {
			return nil, invalidArg("empty poll option %d", i)
		}
		options = append(options, &model.PollOption{ID: uuid.NewString(), PostID: post.ID, Title: title, Position: i, CreatedAt: now})
	}
	if len(options) == 1 {
		return nil, invalidArg("poll needs at least two options")
	}
	post.HasPoll = len(options) > 0

	if err := s.posts.CreateWithOutbox(ctx, post, options); err != nil {
		return nil, err
	}

	ev := event.New(event.PostAdded, post.ID)
	ev.ActorID = author.ID
	ev.PostID = post.ID
	ev.ChannelID = channel.ID
	s.publisher.Publish(ctx, ev)
	return post, nil
}

func (s *postService) Update(ctx context.Context, actorID, postID string, in UpdatePostInput) (*model.Post, error) {
	actor, err := s.user(ctx, actorID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, mapNotFound(err, ErrPostNotFound, "get post")
	}
	if post.AuthorID != actor.ID && !actor.IsAdmin {
		return nil, ErrForbidden
	}
	if (in.DisabledByAdmin != nil || in.RenderDate != nil || in.ClearRenderDate) && !actor.IsAdmin {
		return nil, ErrForbidden
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if in.Message != nil {
		fields["message"] = *in.Message
	}
	if in.MediaURL != nil {
		fields["media_url"] = *in.MediaURL
	}
	if in.DisabledByUser != nil {
		fields["is_post_disabled_by_user"] = *in.DisabledByUser
	}
	if in.DisabledByAdmin != nil {
		fields["is_post_disabled_by_admin"] = *in.DisabledByAdmin
	}
	switch {
	case in.ClearRenderDate:
		fields["post_render_date"] = nil
	case in.RenderDate != nil:
		fields["post_render_date"] = model.Day(*in.RenderDate)
	}

	wasAdminDisabled := post.IsPostDisabledByAdmin
	if err := s.posts.Update(ctx, post.ID, fields); err != nil {
		return nil, err
	}
	updated, err := s.posts.Get(ctx, post.ID)
	if err != nil {
		return nil, mapNotFound(err, ErrPostNotFound, "reload post")
	}

	ev := event.New(event.PostUpdated, updated.ID)
	ev.ActorID = actor.ID
	ev.PostID = updated.ID
	ev.ChannelID = updated.ChannelID
	ev.CreatorID = updated.AuthorID
	s.publisher.Publish(ctx, ev)

	if !wasAdminDisabled && updated.IsPostDisabledByAdmin {
		dis := event.New(event.PostDisabledByAdmin, updated.ID)
		dis.ActorID = actor.ID
		dis.PostID = updated.ID
		dis.ChannelID = updated.ChannelID
		dis.CreatorID = updated.AuthorID
		s.publisher.Publish(ctx, dis)
	}
	return updated, nil
}

func (s *postService) Get(ctx context.Context, viewerID, postID string) (*FeedItem, error) {
	viewer, err := s.user(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, mapNotFound(err, ErrPostNotFound, "get post")
	}
	privileged := viewer.IsAdmin || post.AuthorID == viewer.ID
	if !privileged {
		if post.Disabled() {
			return nil, ErrForbidden
		}
		if !post.RenderableOn(time.Now()) {
			return nil, ErrPostNotFound
		}
		if _, err := s.channel(ctx, post.ChannelID); err != nil {
			return nil, err
		}
	}

	items, err := s.enrich(ctx, viewer.ID, []*model.Post{post})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}
