package service

import (
	"context"

	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
)

// PollOptionView 读时计算的投票选项
type PollOptionView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
	Votes    int64  `json:"votes"`
}

// FeedItem 面向 viewer 的 post 视图
type FeedItem struct {
	Post               *model.Post      `json:"post"`
	IsLiked            bool             `json:"is_liked"`
	IsFavorited        bool             `json:"is_favorited"`
	FromDefaultChannel bool             `json:"from_default_channel"`
	PollOptions        []PollOptionView `json:"poll_options,omitempty"`
	SelectedOptionID   string           `json:"selected_option_id,omitempty"`
}

type enricher struct {
	facts repository.FactRepository
	polls repository.PollRepository
}

// enrich 批量补充 viewer 维度的状态，每类数据一次查询
func (e enricher) enrich(ctx context.Context, viewerID string, posts []*model.Post) ([]*FeedItem, error) {
	items := make([]*FeedItem, len(posts))
	if len(posts) == 0 {
		return items, nil
	}

	ids := make([]string, len(posts))
	var pollIDs []string
	for i, p := range posts {
		ids[i] = p.ID
		if p.HasPoll {
			pollIDs = append(pollIDs, p.ID)
		}
	}

	liked, err := e.facts.Present(ctx, repository.PostLikes, viewerID, ids)
	if err != nil {
		return nil, err
	}
	favorited, err := e.facts.Present(ctx, repository.PostFavorites, viewerID, ids)
	if err != nil {
		return nil, err
	}

	var (
		options    map[string][]*model.PollOption
		tally      map[string]int64
		selections map[string]string
	)
	if len(pollIDs) > 0 {
		if options, err = e.polls.OptionsFor(ctx, pollIDs); err != nil {
			return nil, err
		}
		if tally, err = e.polls.Tally(ctx, pollIDs); err != nil {
			return nil, err
		}
		if selections, err = e.polls.Selections(ctx, viewerID, pollIDs); err != nil {
			return nil, err
		}
	}

	for i, p := range posts {
		item := &FeedItem{Post: p, IsLiked: liked[p.ID], IsFavorited: favorited[p.ID]}
		if p.HasPoll {
			for _, o := range options[p.ID] {
				item.PollOptions = append(item.PollOptions, PollOptionView{ID: o.ID, Title: o.Title, Position: o.Position, Votes: tally[o.ID]})
			}
			item.SelectedOptionID = selections[p.ID]
		}
		items[i] = item
	}
	return items, nil
}
