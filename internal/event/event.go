// Package event 领域事件与进程内发布/订阅
package event

import (
	"time"

	"github.com/google/uuid"
)

type Name string

const (
	PostAdded           Name = "post_added"
	PostUpdated         Name = "post_updated"
	PostDisabledByAdmin Name = "post_disabled_by_admin"

	ChannelFollowed   Name = "channel_followed"
	ChannelUnfollowed Name = "channel_unfollowed"

	PostLiked           Name = "post_liked"
	PostUnliked         Name = "post_unliked"
	ReactionLiked       Name = "reaction_liked"
	ReactionUnliked     Name = "reaction_unliked"
	ConversationLiked   Name = "conversation_liked"
	ConversationUnliked Name = "conversation_unliked"

	PostFavorited           Name = "post_favorited"
	PostUnfavorited         Name = "post_unfavorited"
	ReactionFavorited       Name = "reaction_favorited"
	ReactionUnfavorited     Name = "reaction_unfavorited"
	ConversationFavorited   Name = "conversation_favorited"
	ConversationUnfavorited Name = "conversation_unfavorited"

	ReactionAdded        Name = "reaction_added"
	ReactionDisabled     Name = "reaction_disabled"
	ConversationAdded    Name = "conversation_added"
	ConversationDisabled Name = "conversation_disabled"
)

// Event 领域事件。TargetID 是事件直接作用的实体，其余字段按需填充。
type Event struct {
	ID         string    `json:"id"`
	Name       Name      `json:"name"`
	ActorID    string    `json:"actor_id,omitempty"`
	TargetID   string    `json:"target_id"`
	PostID     string    `json:"post_id,omitempty"`
	ReactionID string    `json:"reaction_id,omitempty"`
	ChannelID  string    `json:"channel_id,omitempty"`
	CreatorID  string    `json:"creator_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New 构造带 ID 与时间戳的事件
func New(name Name, targetID string) Event {
	return Event{ID: uuid.NewString(), Name: name, TargetID: targetID, OccurredAt: time.Now().UTC()}
}
