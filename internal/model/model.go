package model

// All 返回需要迁移的全部模型
func All() []any {
	return []any{
		&User{}, &Channel{}, &Follow{}, &Post{}, &FeedEntry{}, &Outbox{},
		&Reaction{}, &Conversation{},
		&PostLike{}, &ReactionLike{}, &ConversationLike{},
		&PostFavorite{}, &ReactionFavorite{}, &ConversationFavorite{},
		&PollOption{}, &UserPollVote{}, &Block{},
	}
}
